package gatherly

import (
	"github.com/benaiah8/gatherly/pkg/follow"
	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/logger"
	"github.com/benaiah8/gatherly/pkg/notify"
	"github.com/benaiah8/gatherly/pkg/profile"
	"github.com/benaiah8/gatherly/pkg/quota"
	"github.com/benaiah8/gatherly/pkg/realtime"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/rsvp"
	"github.com/benaiah8/gatherly/pkg/session"
)

// Type aliases - public API
type (
	// Session is the viewer identity consumed by every mutation path.
	Session = session.Session

	// Storage persists the cache slots.
	Storage = kv.Storage

	// Remote is the typed data service client.
	Remote = remote.Client

	// Feed delivers realtime change events.
	Feed = realtime.Feed

	// Event is one realtime change event.
	Event = realtime.Event

	// Profile is a user's public record.
	Profile = profile.Profile

	// FollowStatus is the viewer's relationship with a target user.
	FollowStatus = follow.Status

	// FollowCounts are a user's follower and following totals.
	FollowCounts = follow.Counts

	// RSVPEntry is the cached attendance state of one post.
	RSVPEntry = rsvp.Entry

	// NotificationSettings is the per-target notification preference.
	NotificationSettings = notify.Settings

	// UsageReport is a snapshot of cache storage usage.
	UsageReport = quota.Report

	// ContextExtractor extracts a slog attribute from context.
	// Used with logger.New to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// SentryConfig configures the optional Sentry log bridge.
	SentryConfig = logger.SentryConfig
)

// Follow status values.
const (
	FollowNone      = follow.StatusNone
	FollowPending   = follow.StatusPending
	FollowFollowing = follow.StatusFollowing
	FollowFriends   = follow.StatusFriends
)

// RSVP response values.
const (
	ResponseGoing    = rsvp.ResponseGoing
	ResponseNotGoing = rsvp.ResponseNotGoing
)

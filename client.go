package gatherly

import (
	"context"
	"log/slog"
	"sync"

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

// Client is the facade over the feature services. It owns the viewer
// session and the shared storage; all caches live in the same storage so
// one Logout clears everything.
//
// Client is safe for concurrent use.
type Client struct {
	storage kv.Storage
	feed    realtime.Feed
	log     *slog.Logger

	profiles *profile.Service
	follows  *follow.Service
	rsvps    *rsvp.Service
	notify   *notify.Service

	mu   sync.RWMutex
	sess *session.Session

	closers []func()
}

// New creates a client over the given remote data service.
func New(rc remote.Client, opts ...Option) *Client {
	o := &clientOptions{
		storage: kv.NewMemory(),
		feed:    realtime.NewHub(),
		logger:  logger.NewNope(),
		session: session.Anonymous(),
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{
		storage: o.storage,
		feed:    o.feed,
		log:     o.logger,
		sess:    o.session,

		profiles: profile.NewService(rc, o.storage, profile.WithLogger(o.logger)),
		follows:  follow.NewService(rc, o.storage, follow.WithLogger(o.logger)),
		rsvps:    rsvp.NewService(rc, o.storage, rsvp.WithLogger(o.logger)),
		notify:   notify.NewService(rc, o.storage, notify.WithLogger(o.logger)),
	}

	c.closers = append(c.closers, c.follows.BindFeed(o.feed))
	return c
}

// NewFromConfig assembles a client from configuration: REST remote client,
// Redis or memory storage, optional websocket realtime feed, Sentry-backed
// logging. The socket, when configured, reconnects until ctx is done or the
// client is closed.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.RemoteURL == "" {
		return nil, ErrMissingRemoteURL
	}

	log := logger.NewWithSentry(cfg.Sentry)

	storage := kv.Storage(kv.NewMemory())
	if cfg.RedisURL != "" {
		redisClient, err := kv.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		storage = kv.NewRedis(redisClient)
	}

	var c *Client
	rc := remote.NewREST(cfg.RemoteURL,
		remote.WithAPIKey(cfg.APIKey),
		remote.WithTokenSource(func() string {
			return c.Session().AccessToken
		}),
	)

	feed := realtime.NewHub()
	c = New(rc, append([]Option{
		WithLogger(log),
		WithStorage(storage),
		WithFeed(feed),
	}, opts...)...)

	if cfg.SocketURL != "" {
		socket := realtime.NewSocket(cfg.SocketURL, feed, realtime.WithLogger(log))
		socketCtx, cancel := context.WithCancel(ctx)
		c.closers = append(c.closers, cancel)
		go func() {
			if err := socket.Run(socketCtx); err != nil && socketCtx.Err() == nil {
				log.ErrorContext(socketCtx, "realtime socket stopped",
					slog.String("error", err.Error()))
			}
		}()
	}

	return c, nil
}

// Profiles exposes the profile service for direct use.
func (c *Client) Profiles() *profile.Service { return c.profiles }

// Follows exposes the follow service for direct use.
func (c *Client) Follows() *follow.Service { return c.follows }

// RSVPs exposes the RSVP service for direct use.
func (c *Client) RSVPs() *rsvp.Service { return c.rsvps }

// Notifications exposes the notification settings service for direct use.
func (c *Client) Notifications() *notify.Service { return c.notify }

// Session returns the current viewer session.
func (c *Client) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// SetSession swaps the viewer session, after sign-in or token refresh.
// Cached data of the previous viewer stays; call Logout to drop it.
func (c *Client) SetSession(s *session.Session) {
	if s == nil {
		s = session.Anonymous()
	}
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
}

// Logout drops every cache slot and resets the session to anonymous.
func (c *Client) Logout(ctx context.Context) {
	c.profiles.Reset(ctx)
	c.follows.Reset(ctx)
	c.rsvps.Reset(ctx)
	c.notify.Reset(ctx)
	c.SetSession(session.Anonymous())
}

// Usage reports per-slot cache storage usage.
func (c *Client) Usage(ctx context.Context) quota.Report {
	return quota.Inspect(ctx, c.storage)
}

// Close releases feed subscriptions and stops the realtime socket, if any.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// Profile serves the cached profile and revalidates in the background.
func (c *Client) Profile(ctx context.Context, userID string, onFresh func(profile.Profile)) (profile.Profile, bool) {
	return c.profiles.Get(ctx, c.Session(), userID, onFresh)
}

// UpdateProfile writes the viewer's own profile through to the remote
// service and the cache.
func (c *Client) UpdateProfile(ctx context.Context, p profile.Profile) error {
	return c.profiles.Update(ctx, c.Session(), p)
}

// FollowStatus serves the cached follow status and revalidates in the
// background.
func (c *Client) FollowStatus(ctx context.Context, targetID string, onFresh func(follow.Status)) (follow.Status, bool) {
	return c.follows.Status(ctx, c.Session(), targetID, onFresh)
}

// ToggleFollow follows or unfollows the target optimistically.
func (c *Client) ToggleFollow(ctx context.Context, targetID string) (follow.Status, error) {
	return c.follows.Toggle(ctx, c.Session(), targetID)
}

// FollowCounts serves cached follow totals and revalidates in the background.
func (c *Client) FollowCounts(ctx context.Context, userID string, onFresh func(follow.Counts)) (follow.Counts, bool) {
	return c.follows.Counts(ctx, userID, onFresh)
}

// Block severs the relationship with the target in both directions.
func (c *Client) Block(ctx context.Context, targetID string) error {
	return c.follows.Block(ctx, c.Session(), targetID)
}

// Attendees serves the cached attendee list and revalidates in the
// background.
func (c *Client) Attendees(ctx context.Context, postID string, onFresh func(rsvp.Entry)) (rsvp.Entry, bool) {
	return c.rsvps.Attendees(ctx, c.Session(), postID, onFresh)
}

// ToggleRSVP sets or clears the viewer's response optimistically.
func (c *Client) ToggleRSVP(ctx context.Context, postID, response string) (rsvp.Entry, error) {
	return c.rsvps.Toggle(ctx, c.Session(), postID, response)
}

// NotificationSetting serves the cached setting and revalidates in the
// background.
func (c *Client) NotificationSetting(ctx context.Context, targetID string, onFresh func(notify.Settings)) (notify.Settings, bool) {
	return c.notify.Setting(ctx, c.Session(), targetID, onFresh)
}

// ToggleNotifications flips the notification setting for the target
// optimistically.
func (c *Client) ToggleNotifications(ctx context.Context, targetID string) (notify.Settings, error) {
	return c.notify.Toggle(ctx, c.Session(), targetID)
}

package follow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/localcache"
	"github.com/benaiah8/gatherly/pkg/logger"
	"github.com/benaiah8/gatherly/pkg/optimistic"
	"github.com/benaiah8/gatherly/pkg/realtime"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/session"
)

const (
	// Relation is the backing table of follow edges.
	Relation = "follows"

	// StatusSlot and CountsSlot are the storage slots this feature owns.
	StatusSlot = "follow_status"
	CountsSlot = "follow_counts"
)

// ErrSelfFollow is returned when a viewer tries to follow themselves.
var ErrSelfFollow = errors.New("follow: cannot follow yourself")

// Row is a follow edge as stored by the remote data service.
type Row struct {
	CreatedAt  time.Time `json:"created_at,omitempty"`
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	State      string    `json:"state,omitempty"` // "pending" until approved, empty otherwise
}

// StatusListener observes locally applied status changes, letting view
// state track optimistic applies and rollbacks as they happen.
type StatusListener func(viewerID, targetID string, s Status)

// Service coordinates follow state across the remote service, the local
// caches and the realtime feed.
type Service struct {
	client   remote.Client
	statuses *localcache.Store[localcache.Pair, Status]
	counts   *localcache.Store[localcache.ID, Counts]

	coords map[localcache.Pair]*optimistic.Coordinator[Status]
	mu     sync.Mutex

	opts *serviceOptions
}

// ServiceOption configures the follow service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger   *slog.Logger
	onStatus StatusListener
}

func defaultServiceOptions() *serviceOptions {
	return &serviceOptions{logger: logger.NewNope()}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStatusListener registers a callback invoked on every locally applied
// status change, including optimistic applies and rollbacks.
func WithStatusListener(fn StatusListener) ServiceOption {
	return func(o *serviceOptions) {
		o.onStatus = fn
	}
}

// NewService creates the follow service over the given remote client and
// slot storage.
func NewService(client remote.Client, storage kv.Storage, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Service{
		client: client,
		statuses: localcache.New[localcache.Pair, Status](storage, StatusSlot,
			localcache.WithLogger(o.logger)),
		counts: localcache.New[localcache.ID, Counts](storage, CountsSlot,
			localcache.WithLogger(o.logger)),
		coords: make(map[localcache.Pair]*optimistic.Coordinator[Status]),
		opts:   o,
	}
}

// CachedStatus returns the cached follow status without touching the network.
func (s *Service) CachedStatus(ctx context.Context, viewerID, targetID string) (Status, bool) {
	return s.statuses.Get(ctx, localcache.NewPair(viewerID, targetID))
}

// Status serves the cached status immediately and revalidates it in the
// background, delivering the fresh value to onFresh. Anonymous viewers
// always see StatusNone.
func (s *Service) Status(ctx context.Context, sess *session.Session, targetID string, onFresh func(Status)) (Status, bool) {
	if !sess.IsAuthenticated() {
		return StatusNone, false
	}
	key := localcache.NewPair(sess.UserID, targetID)
	return s.statuses.Revalidate(ctx, key, func(ctx context.Context) (Status, error) {
		return s.fetchStatus(ctx, sess.UserID, targetID)
	}, onFresh)
}

// Toggle follows or unfollows the target optimistically: the local status
// and counts change before the remote call, and revert if it fails.
//
// A second trigger for the same pair while one is in flight is a no-op
// signalled by optimistic.ErrInFlight. Unauthenticated viewers get
// session.ErrUnauthenticated before any state is touched.
func (s *Service) Toggle(ctx context.Context, sess *session.Session, targetID string) (Status, error) {
	viewerID, err := sess.RequireUser()
	if err != nil {
		return StatusNone, err
	}
	if viewerID == targetID {
		return StatusNone, ErrSelfFollow
	}

	pair := localcache.NewPair(viewerID, targetID)
	cached, _ := s.statuses.Get(ctx, pair)
	if cached == "" {
		cached = StatusNone
	}

	// Count deltas are derived from transitions between applied states,
	// so rollback and reconciliation stay balanced.
	last := cached

	return s.coordinator(pair).Run(ctx, optimistic.Mutation[Status]{
		Current: func() Status { return cached },
		Next: func(prev Status) Status {
			if prev.Active() {
				return StatusNone
			}
			return StatusFollowing
		},
		Apply: func(next Status) {
			s.statuses.Set(ctx, pair, next)

			delta := 0
			switch {
			case next.Active() && !last.Active():
				delta = 1
			case !next.Active() && last.Active():
				delta = -1
			}
			if delta != 0 {
				s.shiftCounts(ctx, viewerID, targetID, delta)
			}
			last = next

			if s.opts.onStatus != nil {
				s.opts.onStatus(viewerID, targetID, next)
			}
		},
		Commit: func(ctx context.Context, next Status) (Status, error) {
			if !next.Active() {
				if err := s.client.Delete(ctx, Relation,
					remote.Eq("follower_id", viewerID),
					remote.Eq("followee_id", targetID),
				); err != nil {
					return StatusNone, err
				}
				return StatusNone, nil
			}

			if err := s.client.Insert(ctx, Relation, Row{
				FollowerID: viewerID,
				FolloweeID: targetID,
			}, nil); err != nil {
				return StatusNone, err
			}

			// The backend may know the relation is mutual. The edge is
			// committed at this point, so a failed reconciliation read
			// settles at plain "following" rather than failing the toggle.
			settled, err := s.fetchStatus(ctx, viewerID, targetID)
			if err != nil {
				s.opts.logger.WarnContext(ctx, "follow reconciliation read failed",
					slog.String("target_id", targetID),
					slog.String("error", err.Error()))
				return StatusFollowing, nil
			}
			return settled, nil
		},
	})
}

// Block severs the relationship in both directions and drops every cache
// entry referencing the target.
func (s *Service) Block(ctx context.Context, sess *session.Session, targetID string) error {
	viewerID, err := sess.RequireUser()
	if err != nil {
		return err
	}
	if viewerID == targetID {
		return ErrSelfFollow
	}

	if err := s.client.Delete(ctx, Relation,
		remote.Eq("follower_id", viewerID),
		remote.Eq("followee_id", targetID),
	); err != nil {
		return err
	}
	if err := s.client.Delete(ctx, Relation,
		remote.Eq("follower_id", targetID),
		remote.Eq("followee_id", viewerID),
	); err != nil {
		return err
	}

	s.statuses.Invalidate(ctx, targetID)
	s.counts.Invalidate(ctx, targetID)
	s.counts.Invalidate(ctx, viewerID)

	if s.opts.onStatus != nil {
		s.opts.onStatus(viewerID, targetID, StatusNone)
	}
	return nil
}

// CachedCounts returns the cached follow totals without touching the network.
func (s *Service) CachedCounts(ctx context.Context, userID string) (Counts, bool) {
	return s.counts.Get(ctx, localcache.ID(userID))
}

// Counts serves cached totals immediately and revalidates in the background.
func (s *Service) Counts(ctx context.Context, userID string, onFresh func(Counts)) (Counts, bool) {
	return s.counts.Revalidate(ctx, localcache.ID(userID), func(ctx context.Context) (Counts, error) {
		return s.fetchCounts(ctx, userID)
	}, onFresh)
}

// ApplyEvent folds one realtime follow-edge event into the cached counters.
// Only identities already cached are touched; events are signals, not a
// source of truth.
func (s *Service) ApplyEvent(ctx context.Context, ev realtime.Event) {
	if ev.Relation != Relation {
		return
	}

	delta := 0
	switch ev.Action {
	case realtime.ActionInsert:
		delta = 1
	case realtime.ActionDelete:
		delta = -1
	default:
		return
	}

	follower := ev.Str("follower_id")
	followee := ev.Str("followee_id")

	if c, ok := s.counts.Get(ctx, localcache.ID(follower)); ok {
		s.counts.Set(ctx, localcache.ID(follower), c.AddFollowing(delta))
	}
	if c, ok := s.counts.Get(ctx, localcache.ID(followee)); ok {
		s.counts.Set(ctx, localcache.ID(followee), c.AddFollowers(delta))
	}
}

// BindFeed subscribes the service to the realtime feed. The returned
// function cancels the subscription.
func (s *Service) BindFeed(feed realtime.Feed) func() {
	return feed.Subscribe(Relation, realtime.Filter{}, func(ev realtime.Event) {
		s.ApplyEvent(context.Background(), ev)
	})
}

// Reset drops both cache slots. Used on logout.
func (s *Service) Reset(ctx context.Context) {
	s.statuses.InvalidateAll(ctx)
	s.counts.InvalidateAll(ctx)
}

// coordinator returns the per-pair busy guard, creating it on first use.
func (s *Service) coordinator(pair localcache.Pair) *optimistic.Coordinator[Status] {
	s.mu.Lock()
	defer s.mu.Unlock()

	coord, ok := s.coords[pair]
	if !ok {
		coord = optimistic.NewCoordinator[Status]()
		s.coords[pair] = coord
	}
	return coord
}

// fetchStatus reads the authoritative relationship from the remote service.
func (s *Service) fetchStatus(ctx context.Context, viewerID, targetID string) (Status, error) {
	var row Row
	err := s.client.SelectOne(ctx, remote.Query{
		Relation: Relation,
		Filters: []remote.Filter{
			remote.Eq("follower_id", viewerID),
			remote.Eq("followee_id", targetID),
		},
	}, &row)
	if errors.Is(err, remote.ErrNotFound) {
		return StatusNone, nil
	}
	if err != nil {
		return StatusNone, err
	}
	if row.State == "pending" {
		return StatusPending, nil
	}

	var reverse Row
	err = s.client.SelectOne(ctx, remote.Query{
		Relation: Relation,
		Filters: []remote.Filter{
			remote.Eq("follower_id", targetID),
			remote.Eq("followee_id", viewerID),
		},
	}, &reverse)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return StatusFollowing, nil
	case err != nil:
		return StatusNone, err
	default:
		return StatusFriends, nil
	}
}

// fetchCounts reads the authoritative totals from the remote service.
func (s *Service) fetchCounts(ctx context.Context, userID string) (Counts, error) {
	var following []Row
	if err := s.client.Select(ctx, remote.Query{
		Relation: Relation,
		Filters:  []remote.Filter{remote.Eq("follower_id", userID)},
	}, &following); err != nil {
		return Counts{}, err
	}

	var followers []Row
	if err := s.client.Select(ctx, remote.Query{
		Relation: Relation,
		Filters:  []remote.Filter{remote.Eq("followee_id", userID)},
	}, &followers); err != nil {
		return Counts{}, err
	}

	return Counts{Following: len(following), Followers: len(followers)}, nil
}

// shiftCounts applies a delta to both sides of a follow transition for
// identities already cached.
func (s *Service) shiftCounts(ctx context.Context, viewerID, targetID string, delta int) {
	if c, ok := s.counts.Get(ctx, localcache.ID(viewerID)); ok {
		s.counts.Set(ctx, localcache.ID(viewerID), c.AddFollowing(delta))
	}
	if c, ok := s.counts.Get(ctx, localcache.ID(targetID)); ok {
		s.counts.Set(ctx, localcache.ID(targetID), c.AddFollowers(delta))
	}
}

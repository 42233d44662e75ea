package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/localcache"
	"github.com/benaiah8/gatherly/pkg/logger"
	"github.com/benaiah8/gatherly/pkg/optimistic"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/session"
)

const (
	// Relation is the backing table of notification settings.
	Relation = "notification_settings"

	// Slot is the storage slot this feature owns.
	Slot = "notification_settings"
)

// ErrSelfTarget is returned when a viewer toggles notifications about
// themselves.
var ErrSelfTarget = errors.New("notify: cannot target yourself")

// Settings is the viewer's notification preference for one target user.
// The zero value means notifications are off.
type Settings struct {
	Enabled bool `json:"enabled"`
}

// Row is a settings record as stored by the remote data service.
type Row struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
	Enabled  bool   `json:"enabled"`
}

// Service coordinates notification settings between the remote service and
// the viewer-target cache.
type Service struct {
	client remote.Client
	cache  *localcache.Store[localcache.Pair, Settings]

	coords map[localcache.Pair]*optimistic.Coordinator[Settings]
	mu     sync.Mutex
}

// ServiceOption configures the notification service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger *slog.Logger
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

// NewService creates the notification service over the given remote client
// and slot storage.
func NewService(client remote.Client, storage kv.Storage, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Service{
		client: client,
		cache:  localcache.New[localcache.Pair, Settings](storage, Slot, localcache.WithLogger(o.logger)),
		coords: make(map[localcache.Pair]*optimistic.Coordinator[Settings]),
	}
}

// Cached returns the cached settings without touching the network.
func (s *Service) Cached(ctx context.Context, viewerID, targetID string) (Settings, bool) {
	return s.cache.Get(ctx, localcache.NewPair(viewerID, targetID))
}

// Setting serves the cached settings immediately and revalidates in the
// background. Anonymous viewers always see notifications off.
func (s *Service) Setting(ctx context.Context, sess *session.Session, targetID string, onFresh func(Settings)) (Settings, bool) {
	if !sess.IsAuthenticated() {
		return Settings{}, true
	}

	key := localcache.NewPair(sess.UserID, targetID)
	return s.cache.Revalidate(ctx, key, func(ctx context.Context) (Settings, error) {
		return s.fetch(ctx, sess.UserID, targetID)
	}, onFresh)
}

// Toggle flips the notification setting for one target optimistically. The
// flipped value lands in the cache before the remote call and reverts if it
// fails. A target with no settings row yet gets one created.
func (s *Service) Toggle(ctx context.Context, sess *session.Session, targetID string) (Settings, error) {
	userID, err := sess.RequireUser()
	if err != nil {
		return Settings{}, err
	}
	if userID == targetID {
		return Settings{}, ErrSelfTarget
	}

	key := localcache.NewPair(userID, targetID)
	cached, _ := s.cache.Get(ctx, key)

	return s.coordinator(key).Run(ctx, optimistic.Mutation[Settings]{
		Current: func() Settings { return cached },
		Next: func(prev Settings) Settings {
			return Settings{Enabled: !prev.Enabled}
		},
		Apply: func(next Settings) {
			s.cache.Set(ctx, key, next)
		},
		Commit: func(ctx context.Context, next Settings) (Settings, error) {
			err := s.client.Update(ctx, Relation, Settings{Enabled: next.Enabled},
				remote.Eq("user_id", userID),
				remote.Eq("target_id", targetID),
			)
			if errors.Is(err, remote.ErrNotFound) {
				err = s.client.Insert(ctx, Relation, Row{
					UserID:   userID,
					TargetID: targetID,
					Enabled:  next.Enabled,
				}, nil)
			}
			if err != nil {
				return Settings{}, err
			}
			return next, nil
		},
	})
}

// Invalidate drops every cached setting referencing the given user, on
// either side of the pair.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	s.cache.Invalidate(ctx, userID)
}

// Reset drops the whole slot. Used on logout.
func (s *Service) Reset(ctx context.Context) {
	s.cache.InvalidateAll(ctx)
}

// coordinator returns the per-pair busy guard, creating it on first use.
func (s *Service) coordinator(key localcache.Pair) *optimistic.Coordinator[Settings] {
	s.mu.Lock()
	defer s.mu.Unlock()

	coord, ok := s.coords[key]
	if !ok {
		coord = optimistic.NewCoordinator[Settings]()
		s.coords[key] = coord
	}
	return coord
}

// fetch reads the settings row from the remote service. No row means
// notifications are off.
func (s *Service) fetch(ctx context.Context, viewerID, targetID string) (Settings, error) {
	var row Row
	err := s.client.SelectOne(ctx, remote.Query{
		Relation: Relation,
		Filters: []remote.Filter{
			remote.Eq("user_id", viewerID),
			remote.Eq("target_id", targetID),
		},
	}, &row)
	if errors.Is(err, remote.ErrNotFound) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return Settings{Enabled: row.Enabled}, nil
}

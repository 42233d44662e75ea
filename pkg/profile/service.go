package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/localcache"
	"github.com/benaiah8/gatherly/pkg/logger"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/session"
)

const (
	// Relation is the backing table of profile records.
	Relation = "profiles"

	// Slot is the storage slot this feature owns.
	Slot = "profiles"
)

// ErrNotOwner is returned when a viewer tries to update a profile that is
// not their own.
var ErrNotOwner = errors.New("profile: not the profile owner")

// Profile is one user's public record.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// Service loads and updates profiles through the cache.
type Service struct {
	client remote.Client
	cache  *localcache.Store[localcache.ID, Profile]

	// attempted marks user ids whose fallback create already ran, pass or
	// fail. One attempt per id per process.
	attempted map[string]bool
	mu        sync.Mutex

	log *slog.Logger
}

// ServiceOption configures the profile service.
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

// NewService creates the profile service over the given remote client and
// slot storage.
func NewService(client remote.Client, storage kv.Storage, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Service{
		client:    client,
		cache:     localcache.New[localcache.ID, Profile](storage, Slot, localcache.WithLogger(o.logger)),
		attempted: make(map[string]bool),
		log:       o.logger,
	}
}

// Cached returns the cached profile without touching the network.
func (s *Service) Cached(ctx context.Context, userID string) (Profile, bool) {
	return s.cache.Get(ctx, localcache.ID(userID))
}

// Get serves the cached profile immediately and revalidates it in the
// background, delivering the fresh record to onFresh. A profile that does
// not exist remotely resolves to a placeholder rather than an error.
func (s *Service) Get(ctx context.Context, sess *session.Session, userID string, onFresh func(Profile)) (Profile, bool) {
	return s.cache.Revalidate(ctx, localcache.ID(userID), func(ctx context.Context) (Profile, error) {
		return s.fetch(ctx, sess, userID)
	}, onFresh)
}

// Update writes the viewer's own profile through to the remote service and,
// on success, into the cache. Updating someone else's profile is rejected.
func (s *Service) Update(ctx context.Context, sess *session.Session, p Profile) error {
	userID, err := sess.RequireUser()
	if err != nil {
		return err
	}
	if p.ID != userID {
		return ErrNotOwner
	}

	if err := s.client.Update(ctx, Relation, p, remote.Eq("id", p.ID)); err != nil {
		return err
	}

	s.cache.Set(ctx, localcache.ID(p.ID), p)
	return nil
}

// Invalidate drops one user's cached profile.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	s.cache.Invalidate(ctx, userID)
}

// Reset drops the whole slot. Used on logout.
func (s *Service) Reset(ctx context.Context) {
	s.cache.InvalidateAll(ctx)
}

// fetch reads the profile from the remote service. Not-found for the
// viewer's own id falls back to creating the record once; any remaining
// failure degrades to a placeholder carrying only the id.
func (s *Service) fetch(ctx context.Context, sess *session.Session, userID string) (Profile, error) {
	var p Profile
	err := s.client.SelectOne(ctx, remote.Query{
		Relation: Relation,
		Filters:  []remote.Filter{remote.Eq("id", userID)},
	}, &p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, remote.ErrNotFound) {
		return Profile{}, err
	}

	if sess != nil && sess.IsAuthenticated() && sess.UserID == userID && s.markAttempt(userID) {
		var created Profile
		insertErr := s.client.Insert(ctx, Relation, Profile{ID: userID}, &created)
		if insertErr == nil {
			return created, nil
		}
		s.log.WarnContext(ctx, "profile fallback create failed",
			slog.String("user_id", userID),
			slog.Any("error", insertErr))
	}

	return Profile{ID: userID}, nil
}

// markAttempt records the fallback create attempt. Returns false when one
// already happened for this id.
func (s *Service) markAttempt(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempted[userID] {
		return false
	}
	s.attempted[userID] = true
	return true
}

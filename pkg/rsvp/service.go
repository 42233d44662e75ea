package rsvp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/localcache"
	"github.com/benaiah8/gatherly/pkg/logger"
	"github.com/benaiah8/gatherly/pkg/optimistic"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/session"
)

const (
	// Relation is the backing table of RSVP responses.
	Relation = "rsvp_responses"

	// Slot is the storage slot this feature owns.
	Slot = "rsvp_data"
)

// Row is an RSVP response as stored by the remote data service. Name and
// avatar come joined from the responder's profile.
type Row struct {
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	Response  string `json:"response"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Service coordinates attendance state between the remote service and the
// per-post cache.
type Service struct {
	client remote.Client
	cache  *localcache.Store[localcache.ID, Entry]

	coords map[localcache.ID]*optimistic.Coordinator[Entry]
	mu     sync.Mutex

	opts *serviceOptions
}

// ServiceOption configures the RSVP service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger *slog.Logger
	now    func() time.Time
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

// WithClock overrides the cache time source. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.now = now
	}
}

// NewService creates the RSVP service over the given remote client and slot
// storage.
func NewService(client remote.Client, storage kv.Storage, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(o)
	}

	cacheOpts := []localcache.Option{
		localcache.WithTTL(EntryTTL),
		localcache.WithLogger(o.logger),
	}
	if o.now != nil {
		cacheOpts = append(cacheOpts, localcache.WithClock(o.now))
	}

	return &Service{
		client: client,
		cache:  localcache.New[localcache.ID, Entry](storage, Slot, cacheOpts...),
		coords: make(map[localcache.ID]*optimistic.Coordinator[Entry]),
		opts:   o,
	}
}

// Cached returns the cached attendance entry without touching the network.
func (s *Service) Cached(ctx context.Context, postID string) (Entry, bool) {
	return s.cache.Get(ctx, localcache.ID(postID))
}

// Attendees serves the cached entry immediately and revalidates it in the
// background, delivering the fresh entry to onFresh.
func (s *Service) Attendees(ctx context.Context, sess *session.Session, postID string, onFresh func(Entry)) (Entry, bool) {
	return s.cache.Revalidate(ctx, localcache.ID(postID), func(ctx context.Context) (Entry, error) {
		return s.fetch(ctx, sess, postID)
	}, onFresh)
}

// Toggle sets or clears the viewer's response optimistically. Responding
// with the current response clears it; anything else replaces it.
//
// The attendee list and viewer response change locally before the remote
// call and revert if it fails.
func (s *Service) Toggle(ctx context.Context, sess *session.Session, postID, response string) (Entry, error) {
	userID, err := sess.RequireUser()
	if err != nil {
		return Entry{}, err
	}

	key := localcache.ID(postID)
	cached, _ := s.cache.Get(ctx, key)

	return s.coordinator(key).Run(ctx, optimistic.Mutation[Entry]{
		Current: func() Entry { return cached },
		Next: func(prev Entry) Entry {
			if prev.CurrentUserResponse == response {
				return prev.withUser(userID, "") // tap again to clear
			}
			return prev.withUser(userID, response)
		},
		Apply: func(next Entry) {
			s.cache.Set(ctx, key, next)
		},
		Commit: func(ctx context.Context, next Entry) (Entry, error) {
			if next.CurrentUserResponse == "" {
				if err := s.client.Delete(ctx, Relation,
					remote.Eq("post_id", postID),
					remote.Eq("user_id", userID),
				); err != nil {
					return Entry{}, err
				}
				return next, nil
			}

			if err := s.client.Upsert(ctx, Relation, Row{
				PostID:   postID,
				UserID:   userID,
				Response: next.CurrentUserResponse,
			}); err != nil {
				return Entry{}, err
			}
			return next, nil
		},
	})
}

// Invalidate drops the cached entry of one post.
func (s *Service) Invalidate(ctx context.Context, postID string) {
	s.cache.Invalidate(ctx, postID)
}

// Reset drops the whole slot. Used on logout.
func (s *Service) Reset(ctx context.Context) {
	s.cache.InvalidateAll(ctx)
}

// coordinator returns the per-post busy guard, creating it on first use.
func (s *Service) coordinator(key localcache.ID) *optimistic.Coordinator[Entry] {
	s.mu.Lock()
	defer s.mu.Unlock()

	coord, ok := s.coords[key]
	if !ok {
		coord = optimistic.NewCoordinator[Entry]()
		s.coords[key] = coord
	}
	return coord
}

// fetch reads the authoritative attendee list from the remote service.
func (s *Service) fetch(ctx context.Context, sess *session.Session, postID string) (Entry, error) {
	var rows []Row
	if err := s.client.Select(ctx, remote.Query{
		Relation: Relation,
		Filters:  []remote.Filter{remote.Eq("post_id", postID)},
		Order:    []remote.Order{{Column: "created_at"}},
	}, &rows); err != nil {
		return Entry{}, err
	}

	entry := Entry{Users: make([]User, 0, len(rows))}
	for _, row := range rows {
		entry.Users = append(entry.Users, User{
			ID:        row.UserID,
			Name:      row.Name,
			AvatarURL: row.AvatarURL,
			Response:  row.Response,
		})
		if sess != nil && row.UserID == sess.UserID {
			entry.CurrentUserResponse = row.Response
		}
	}
	return entry, nil
}

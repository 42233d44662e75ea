package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/benaiah8/gatherly/pkg/kv"
)

// record is one persisted cache entry. The whole slot is serialized as a
// JSON array of records, so keys stay structured end to end.
type record[K comparable, V any] struct {
	Key     K     `json:"key"`
	Value   V     `json:"value"`
	SavedAt int64 `json:"saved_at"` // unix milliseconds
}

// Store is a typed cache over a single storage slot.
//
// Reads and writes are best-effort: any storage or codec failure degrades to
// cache-miss behavior and is logged, never returned. Callers must treat a
// miss as "fetch required", not as an error.
type Store[K Key, V any] struct {
	storage kv.Storage
	slot    string
	opts    *options
	flight  singleflight.Group
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func defaultOptions() *options {
	return &options{
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithTTL sets the entry lifetime. Entries older than the TTL are pruned
// lazily at read time. Zero (the default) means entries never expire and
// are retained until explicitly invalidated.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		o.ttl = d
	}
}

// WithLogger sets the diagnostics logger. If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates a Store bound to one slot of the given storage.
//
// Example:
//
//	statuses := localcache.New[localcache.Pair, follow.Status](storage, "follow_status")
//	rsvps := localcache.New[localcache.ID, rsvp.Entry](storage, "rsvp_data",
//	    localcache.WithTTL(10*time.Minute),
//	)
func New[K Key, V any](storage kv.Storage, slot string, opts ...Option) *Store[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Store[K, V]{
		storage: storage,
		slot:    slot,
		opts:    o,
	}
}

// Slot returns the name of the storage slot this store owns.
func (s *Store[K, V]) Slot() string {
	return s.slot
}

// Get returns the cached value for a key. The second return is false on a
// miss, on an expired entry, and on any storage or decode failure.
//
// An expired entry is pruned and the slot persisted without it.
func (s *Store[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	records, ok := s.load(ctx)
	if !ok {
		return zero, false
	}

	idx := -1
	for i := range records {
		if records[i].Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero, false
	}

	if s.expired(records[idx].SavedAt) {
		s.persist(ctx, append(records[:idx], records[idx+1:]...))
		return zero, false
	}

	return records[idx].Value, true
}

// Set writes a value through to the slot with a fresh timestamp.
// Last writer wins; there is no merge conflict detection.
func (s *Store[K, V]) Set(ctx context.Context, key K, value V) {
	records, _ := s.load(ctx)

	now := s.opts.now().UnixMilli()
	replaced := false
	for i := range records {
		if records[i].Key == key {
			records[i].Value = value
			records[i].SavedAt = now
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record[K, V]{Key: key, Value: value, SavedAt: now})
	}

	s.persist(ctx, records)
}

// Invalidate removes every entry whose key references id on any side of its
// relation. Unrelated entries are left untouched.
func (s *Store[K, V]) Invalidate(ctx context.Context, id string) {
	records, ok := s.load(ctx)
	if !ok || len(records) == 0 {
		return
	}

	kept := records[:0]
	for _, rec := range records {
		if !rec.Key.References(id) {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return
	}

	if len(kept) == 0 {
		s.InvalidateAll(ctx)
		return
	}
	s.persist(ctx, kept)
}

// InvalidateAll removes the entire slot. Used on logout and cache reset.
func (s *Store[K, V]) InvalidateAll(ctx context.Context) {
	if err := s.storage.Remove(ctx, s.slot); err != nil {
		s.opts.logger.WarnContext(ctx, "cache slot remove failed",
			slog.String("slot", s.slot), slog.String("error", err.Error()))
	}
}

// Len reports the number of live (unexpired) entries in the slot.
func (s *Store[K, V]) Len(ctx context.Context) int {
	records, ok := s.load(ctx)
	if !ok {
		return 0
	}
	n := 0
	for _, rec := range records {
		if !s.expired(rec.SavedAt) {
			n++
		}
	}
	return n
}

// Refresh fetches a fresh value, writes it through, and returns it.
// Concurrent refreshes of the same entry are collapsed into one fetch.
// The cache is not touched when fetch fails.
func (s *Store[K, V]) Refresh(ctx context.Context, key K, fetch func(ctx context.Context) (V, error)) (V, error) {
	v, err, _ := s.flight.Do(key.FlightKey(), func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, val)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Revalidate implements stale-while-revalidate: it returns the cached value
// synchronously and refreshes the entry in the background. onFresh is invoked
// with the fetched value unless ctx is done by then, which guards callers
// that no longer want updates (a discarded view, for instance).
func (s *Store[K, V]) Revalidate(ctx context.Context, key K, fetch func(ctx context.Context) (V, error), onFresh func(V)) (V, bool) {
	cached, ok := s.Get(ctx, key)

	go func() {
		fresh, err := s.Refresh(ctx, key, fetch)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.opts.logger.DebugContext(ctx, "background refresh failed",
					slog.String("slot", s.slot), slog.String("error", err.Error()))
			}
			return
		}
		if ctx.Err() != nil || onFresh == nil {
			return
		}
		onFresh(fresh)
	}()

	return cached, ok
}

// expired reports whether an entry written at the given unix-millisecond
// timestamp has outlived the store TTL.
func (s *Store[K, V]) expired(savedAt int64) bool {
	if s.opts.ttl <= 0 {
		return false
	}
	return s.opts.now().Sub(time.UnixMilli(savedAt)) > s.opts.ttl
}

// load reads and decodes the slot. A missing slot yields an empty record set;
// a storage or decode failure is logged and reported as not-ok.
func (s *Store[K, V]) load(ctx context.Context) ([]record[K, V], bool) {
	data, err := s.storage.Load(ctx, s.slot)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, true
		}
		s.opts.logger.WarnContext(ctx, "cache slot load failed",
			slog.String("slot", s.slot), slog.String("error", err.Error()))
		return nil, false
	}

	var records []record[K, V]
	if err := json.Unmarshal(data, &records); err != nil {
		s.opts.logger.WarnContext(ctx, "cache slot corrupt, treating as empty",
			slog.String("slot", s.slot), slog.String("error", err.Error()))
		return nil, false
	}

	return records, true
}

// persist serializes and writes the slot back. Failures are logged and
// dropped; the next read degrades to a miss.
func (s *Store[K, V]) persist(ctx context.Context, records []record[K, V]) {
	data, err := json.Marshal(records)
	if err != nil {
		s.opts.logger.WarnContext(ctx, "cache slot encode failed",
			slog.String("slot", s.slot), slog.String("error", err.Error()))
		return
	}
	if err := s.storage.Save(ctx, s.slot, data); err != nil {
		s.opts.logger.WarnContext(ctx, "cache slot save failed",
			slog.String("slot", s.slot), slog.String("error", err.Error()))
	}
}

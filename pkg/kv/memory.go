package kv

import (
	"context"
	"sort"
	"sync"
)

// DefaultQuota is the byte budget of the in-memory storage, chosen to match
// the ~5MB limit of origin-scoped browser storage the cache layer was sized for.
const DefaultQuota = 5 << 20

// Memory is an in-memory slot storage guarded by a mutex.
//
// Writes are rejected once the sum of payload sizes would exceed the
// configured quota, so callers exercise the same degrade-to-no-cache path
// they would hit against real persistent storage.
type Memory struct {
	slots map[string][]byte
	opts  *memoryOptions
	mu    sync.RWMutex
}

// MemoryOption configures the in-memory storage.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	quota int
}

func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{quota: DefaultQuota}
}

// WithQuota sets the total byte budget across all slots.
// Zero or negative disables the quota check.
// Default: DefaultQuota (5MB).
func WithQuota(n int) MemoryOption {
	return func(o *memoryOptions) {
		o.quota = n
	}
}

// NewMemory creates an in-memory slot storage.
func NewMemory(opts ...MemoryOption) *Memory {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Memory{
		slots: make(map[string][]byte),
		opts:  o,
	}
}

// Load returns a copy of the slot payload.
func (m *Memory) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save replaces the slot payload, enforcing the byte quota.
func (m *Memory) Save(_ context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.quota > 0 {
		total := len(data)
		for name, payload := range m.slots {
			if name == slot {
				continue
			}
			total += len(payload)
		}
		if total > m.opts.quota {
			return ErrQuotaExceeded
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	m.slots[slot] = stored
	return nil
}

// Remove deletes a slot.
func (m *Memory) Remove(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, slot)
	return nil
}

// Slots lists existing slot names in stable order.
func (m *Memory) Slots(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.slots))
	for name := range m.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

var _ Storage = (*Memory)(nil)

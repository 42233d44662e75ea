package kv

import "context"

// Storage persists named slots of opaque bytes. It is the process-local
// analog of origin-scoped persistent storage: a handful of well-known slots,
// each rewritten wholesale on every save.
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// Load returns the payload of a slot.
	// Returns ErrNotFound if the slot does not exist.
	Load(ctx context.Context, slot string) ([]byte, error)

	// Save replaces the payload of a slot.
	// Returns ErrQuotaExceeded if the write does not fit the storage budget.
	Save(ctx context.Context, slot string, data []byte) error

	// Remove deletes a slot. Removing a missing slot is not an error.
	Remove(ctx context.Context, slot string) error

	// Slots lists the names of all existing slots.
	Slots(ctx context.Context) ([]string, error)
}

package remote

import "context"

// Client is the typed surface over the remote data service. Implementations
// must keep ErrNotFound distinguishable on single-row lookups.
type Client interface {
	// Select reads all rows matching the query into dest, which must be a
	// pointer to a slice. No match yields an empty slice, not an error.
	Select(ctx context.Context, q Query, dest any) error

	// SelectOne reads a single row into dest.
	// Returns ErrNotFound when no row matches.
	SelectOne(ctx context.Context, q Query, dest any) error

	// Insert creates a row. When dest is non-nil the created row is read
	// back into it.
	Insert(ctx context.Context, relation string, row any, dest any) error

	// Update patches all rows matching the filters.
	// Returns ErrNotFound when no row matched.
	Update(ctx context.Context, relation string, patch any, filters ...Filter) error

	// Upsert creates or replaces a row, merging on the relation's
	// uniqueness constraint.
	Upsert(ctx context.Context, relation string, row any) error

	// Delete removes all rows matching the filters. Deleting nothing is
	// not an error.
	Delete(ctx context.Context, relation string, filters ...Filter) error
}

// Package localcache implements the client-side stale-while-revalidate cache
// layer: one typed [Store] per entity kind, each owning a single [kv.Storage]
// slot that holds every entry of that kind.
//
// # Keys
//
// Entries are addressed by structured keys instead of delimited strings, so
// identifiers may contain any character without corrupting unrelated entries:
//
//   - [Pair] scopes an entry to a relationship between a viewer and a target
//     (follow status, notification settings)
//   - [ID] scopes an entry to a single entity (profile, RSVP by post)
//
// Both satisfy the [Key] constraint, which also drives identity-based
// invalidation: Invalidate(id) removes every entry whose key references id on
// either side of the relation.
//
// # Lifetimes
//
// A store may carry a TTL. Expiry is checked lazily at read time only: an
// expired entry is pruned from the slot and reported as a miss. There is no
// background sweep. Stores without a TTL retain entries until explicitly
// invalidated.
//
// # Failure Semantics
//
// All operations are best-effort. A corrupt payload, a missing slot, or a
// storage failure degrades to cache-miss behavior; nothing is ever raised to
// the caller. Failures are logged for diagnostics only.
//
// # Stale-While-Revalidate
//
// [Store.Revalidate] serves the cached value synchronously and refreshes it in
// the background, deduplicating concurrent refreshes of the same entry with
// singleflight:
//
//	entry, ok := store.Revalidate(ctx, key, fetch, func(fresh Profile) {
//	    view.Update(fresh)
//	})
package localcache

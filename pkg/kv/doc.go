// Package kv provides the persistent string-keyed slot storage that backs the
// local cache layer.
//
// A slot is a single named payload holding the serialized contents of one cache
// kind. The application owns a small, fixed set of slots (follow status, follow
// counts, RSVPs, notification settings, profiles), so the interface is
// deliberately minimal: load, save, remove, enumerate.
//
// Two implementations are provided:
//
//   - [Memory] keeps slots in a mutex-guarded map with an optional byte quota
//     that mimics the ~5MB budget of browser-style persistent storage. Use it
//     for tests and single-process development.
//   - [Redis] persists slots under a key prefix in Redis, sharing the payload
//     across processes. Obtain a client via [Open] or [MustOpen].
//
// All payloads are opaque byte slices; serialization is the caller's concern
// (the cache layer stores JSON).
//
// # Error Handling
//
//   - [ErrNotFound] - slot does not exist
//   - [ErrQuotaExceeded] - write would exceed the configured byte quota
//
// Use [errors.Is] to classify:
//
//	data, err := store.Load(ctx, "follow_status")
//	if errors.Is(err, kv.ErrNotFound) {
//	    // cold start, no slot yet
//	}
package kv

// Package profile caches user profile records. Profiles change rarely, so
// the cache carries no TTL; reads serve the cached record and revalidate in
// the background.
//
// A missing profile for the signed-in viewer triggers a single fallback
// create. When that also fails the loader degrades to a zero-value
// placeholder instead of erroring, so passive profile loads never break the
// page.
package profile

// Package session carries the viewer identity produced by the hosted
// authentication service.
//
// The data kit never reads ambient "current user" state: every cache and
// mutation entry point takes an explicit *Session. An unauthenticated or
// expired session short-circuits mutation paths with [ErrUnauthenticated]
// before any network or cache write, and the caller prompts sign-in.
package session

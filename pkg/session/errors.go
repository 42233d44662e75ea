package session

import "errors"

var (
	// ErrUnauthenticated is returned when a mutation requires a signed-in
	// viewer. Callers should prompt sign-in; no state has been touched.
	ErrUnauthenticated = errors.New("session: authentication required")

	// ErrExpired is returned when the session's access token has expired.
	ErrExpired = errors.New("session: expired")
)

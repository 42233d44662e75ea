package remote

import "errors"

// Sentinel errors for remote data service calls.
var (
	// ErrNotFound is returned when a lookup matches no row. It is the
	// trigger for fallback-create logic and must stay distinguishable
	// from transport failures.
	ErrNotFound = errors.New("remote: row not found")

	// ErrRequestFailed wraps transport-level failures (network, DNS, TLS).
	ErrRequestFailed = errors.New("remote: request failed")

	// ErrBadStatus wraps non-2xx responses other than not-found.
	ErrBadStatus = errors.New("remote: unexpected response status")

	// ErrDecode wraps response body decoding failures.
	ErrDecode = errors.New("remote: failed to decode response")
)

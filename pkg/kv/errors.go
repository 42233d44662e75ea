package kv

import "errors"

// Sentinel errors for slot storage operations.
var (
	// ErrNotFound is returned when a slot does not exist.
	ErrNotFound = errors.New("kv: slot not found")

	// ErrQuotaExceeded is returned when a write would exceed the storage quota.
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")

	// ErrEmptyConnectionURL is returned by Open when no Redis URL is given.
	ErrEmptyConnectionURL = errors.New("kv: empty connection URL")

	// ErrFailedToParseURL is returned by Open for a malformed Redis URL.
	ErrFailedToParseURL = errors.New("kv: failed to parse connection URL")

	// ErrConnectionFailed is returned by Open when Redis cannot be reached.
	ErrConnectionFailed = errors.New("kv: failed to establish connection")
)

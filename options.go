package gatherly

import (
	"log/slog"

	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/realtime"
	"github.com/benaiah8/gatherly/pkg/session"
)

// Option configures the client.
type Option func(*clientOptions)

type clientOptions struct {
	storage kv.Storage
	feed    realtime.Feed
	logger  *slog.Logger
	session *session.Session
}

// WithStorage sets the slot storage backing every cache.
// Defaults to in-process memory storage.
func WithStorage(s kv.Storage) Option {
	return func(o *clientOptions) {
		if s != nil {
			o.storage = s
		}
	}
}

// WithFeed sets the realtime change feed the follow counters subscribe to.
// Defaults to an in-process hub that only sees locally published events.
func WithFeed(f realtime.Feed) Option {
	return func(o *clientOptions) {
		if f != nil {
			o.feed = f
		}
	}
}

// WithLogger sets the diagnostics logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSession sets the initial viewer session.
// Defaults to an anonymous session.
func WithSession(s *session.Session) Option {
	return func(o *clientOptions) {
		if s != nil {
			o.session = s
		}
	}
}

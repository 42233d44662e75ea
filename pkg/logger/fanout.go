package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout duplicates each record to every sink whose level admits it. The
// Sentry-backed logger uses it to pair the stdout handler with the Sentry
// bridge. Delivery failures are joined, never short-circuited.
type fanout struct {
	sinks []slog.Handler
}

func newFanout(sinks ...slog.Handler) slog.Handler {
	return &fanout{sinks: sinks}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range f.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, sink := range f.sinks {
		if !sink.Enabled(ctx, rec.Level) {
			continue
		}
		if err := sink.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, sink := range f.sinks {
		sinks[i] = sink.WithAttrs(attrs)
	}
	return newFanout(sinks...)
}

func (f *fanout) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, sink := range f.sinks {
		sinks[i] = sink.WithGroup(name)
	}
	return newFanout(sinks...)
}

// Package logger provides the structured logging setup shared by the data
// kit: a JSON slog factory, context-based attribute injection, and optional
// Sentry forwarding for cache and mutation diagnostics.
//
// Cache failures in this codebase are logged rather than returned, so the
// logger is the only place they surface. Context extractors attach
// request-scoped values (viewer id, slot name) without threading them through
// every call:
//
//	log := logger.New(logger.ViewerExtractor)
//
//	ctx := logger.WithViewer(ctx, sess.UserID)
//	log.WarnContext(ctx, "cache slot corrupt", slog.String("slot", "rsvp_data"))
//	// Output: {"level":"WARN","msg":"cache slot corrupt","slot":"rsvp_data","viewer_id":"u1"}
//
// With a Sentry DSN configured, warnings and errors are also forwarded to
// Sentry; without one the logger degrades to stdout only.
package logger

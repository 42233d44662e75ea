package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New creates a JSON-formatted logger with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(newExtractorHandler(h, extractors...))
}

// NewNope creates a no-op logger that discards all output.
// Components use it as the default when no logger is configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type viewerKey struct{}

// WithViewer stamps the signed-in viewer id onto the context so that
// ViewerExtractor can attach it to every log record.
func WithViewer(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, viewerKey{}, userID)
}

// ViewerExtractor attaches the viewer id stored by WithViewer.
func ViewerExtractor(ctx context.Context) (slog.Attr, bool) {
	if id, ok := ctx.Value(viewerKey{}).(string); ok && id != "" {
		return slog.String("viewer_id", id), true
	}
	return slog.Attr{}, false
}

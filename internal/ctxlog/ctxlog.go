// Package ctxlog carries a slog.Logger through context.Context so every
// stage of the pipeline logs through the instance configured at startup.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported to avoid collisions with context keys of other packages.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from a context. Every entry point is
// expected to seed the context, so a missing logger is a programmer error.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}

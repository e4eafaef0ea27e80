package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys defined in this package
// to avoid collisions with keys from other packages.
type contextKey struct{}

var loggerContextKey = contextKey{}

// WithLogger returns a copy of ctx carrying the given logger. Handlers
// attach a request-scoped logger (with trace attributes) this way so
// lower layers log with the same context.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, log)
}

// FromContext returns the logger carried by ctx, or the process default
// logger if none is attached.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger carried by ctx, or the given
// fallback if none is attached. The fallback is typically a component
// logger created at construction time.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && log != nil {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

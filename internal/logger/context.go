// internal/logger/context.go
//
// Request-scoped loggers.
//
// Middleware attaches a child logger carrying request fields (request ID,
// path) so handlers log with the same fields without threading them by
// hand.  FromContext falls back to the global logger, so callers never
// receive nil.

package logger

import (
	"context"

	"go.uber.org/zap"
)

// ctxKey is unexported to avoid context-key collisions.
type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or zap.S().
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}
	return zap.S()
}

// Package logctx carries the port-based logger through contexts, so use
// cases pick up the request-scoped logger without depending on zap.
package logctx

import (
	"context"

	"github.com/trippeak/tourshop/internal/observability"
)

type loggerKey struct{}

// With returns a context carrying the given logger.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns the context's logger, or nil when none was attached.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the context's logger, falling back to the given one.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}

// Package middleware provides composable middleware for cron handlers.
package middleware

import (
	"context"

	"github.com/xraph/cronlock/cron"
)

// Handler is the terminal function that runs job logic.
type Handler = cron.HandlerFunc

// Middleware wraps a Handler with cross-cutting logic. It receives the run
// being executed and the next handler in the chain.
type Middleware = cron.Middleware

// Chain composes middleware into one. The first middleware in the list is
// the outermost wrapper:
//
//	Chain(logging, recover, tracing) runs logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, run *cron.Run, next Handler) (string, error) {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			inner := h
			h = func(ctx context.Context) (string, error) {
				return mw(ctx, run, inner)
			}
		}
		return h(ctx)
	}
}

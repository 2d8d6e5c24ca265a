package middleware

import (
	"context"

	"github.com/xraph/cronlock/cron"
)

type runKey struct{}

// RunContext returns middleware that stores the current run in the handler
// context, so handlers can read their alias and run ID with RunFrom.
func RunContext() Middleware {
	return func(ctx context.Context, run *cron.Run, next Handler) (string, error) {
		return next(context.WithValue(ctx, runKey{}, run))
	}
}

// RunFrom returns the run stored by RunContext.
func RunFrom(ctx context.Context) (*cron.Run, bool) {
	run, ok := ctx.Value(runKey{}).(*cron.Run)
	return run, ok
}

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/cronlock/cron"
)

// Recover returns middleware that turns a handler panic into an error and
// logs it with a stack trace. The scheduler recovers panics on its own;
// this adds the stack and lets outer middleware see the failure.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, run *cron.Run, next Handler) (result string, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("cron handler panicked",
					slog.String("alias", run.Alias),
					slog.String("run_id", run.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("panic in job %s: %v", run.Alias, r)
			}
		}()
		return next(ctx)
	}
}

package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/cronlock/cron"
)

// Logging returns middleware that logs each run's start and outcome.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, run *cron.Run, next Handler) (string, error) {
		logger.Info("cron run started",
			slog.String("alias", run.Alias),
			slog.String("run_id", run.ID.String()),
			slog.String("instance_id", run.InstanceID.String()),
		)

		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("cron run failed",
				slog.String("alias", run.Alias),
				slog.String("run_id", run.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
			return result, err
		}

		logger.Info("cron run finished",
			slog.String("alias", run.Alias),
			slog.String("run_id", run.ID.String()),
			slog.Duration("elapsed", elapsed),
		)
		if elapsed > run.Timeout {
			logger.Warn("cron run finished past its timeout",
				slog.String("alias", run.Alias),
				slog.Duration("timeout", run.Timeout),
			)
		}
		return result, nil
	}
}

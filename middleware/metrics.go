package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/cronlock/cron"
)

// meterName is the instrumentation scope name for cronlock metrics.
const meterName = "github.com/xraph/cronlock"

// Metrics returns middleware that records per-run metrics with the global
// MeterProvider.
//
// Instruments:
//   - cronlock.job.duration (Float64Histogram): handler time in seconds
//   - cronlock.job.executions (Int64Counter): handler invocations
//
// Both carry the attributes alias and status ("ok" or "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"cronlock.job.duration",
		metric.WithDescription("Duration of cron handler execution in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"cronlock.job.executions",
		metric.WithDescription("Total number of cron handler executions"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, run *cron.Run, next Handler) (string, error) {
		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("alias", run.Alias),
			attribute.String("status", status),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return result, err
	}
}

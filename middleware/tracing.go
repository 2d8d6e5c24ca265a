package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/cronlock/cron"
)

// tracerName is the instrumentation scope name for cronlock tracing.
const tracerName = "github.com/xraph/cronlock"

// Tracing returns middleware that wraps each run in an OpenTelemetry span
// from the global TracerProvider. Without a configured provider the noop
// tracer makes it a pass-through.
//
// Span attributes: cronlock.job.alias, cronlock.run.id,
// cronlock.instance.id, cronlock.job.interval_s, cronlock.job.timeout_s.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, run *cron.Run, next Handler) (string, error) {
		ctx, span := tracer.Start(ctx, "cronlock.job.run",
			trace.WithAttributes(
				attribute.String("cronlock.job.alias", run.Alias),
				attribute.String("cronlock.run.id", run.ID.String()),
				attribute.String("cronlock.instance.id", run.InstanceID.String()),
				attribute.Float64("cronlock.job.interval_s", run.Interval.Seconds()),
				attribute.Float64("cronlock.job.timeout_s", run.Timeout.Seconds()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		result, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return result, err
	}
}

package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/ext"
	"github.com/xraph/cronlock/id"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.JobStarted        = (*MetricsExtension)(nil)
	_ ext.JobCompleted      = (*MetricsExtension)(nil)
	_ ext.JobFailed         = (*MetricsExtension)(nil)
	_ ext.JobSoftTimeout    = (*MetricsExtension)(nil)
	_ ext.OwnershipAcquired = (*MetricsExtension)(nil)
	_ ext.OwnershipLost     = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/cronlock/observability"

// MetricsExtension records scheduler lifecycle metrics. Job counters carry
// an alias attribute; the ownership gauge carries the lock resource.
type MetricsExtension struct {
	JobStarted      metric.Int64Counter
	JobCompleted    metric.Int64Counter
	JobFailed       metric.Int64Counter
	JobSoftTimeouts metric.Int64Counter
	Ownership       metric.Int64UpDownCounter
	Handovers       metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on meter. The
// OTel API returns noop instruments on error, so construction never fails.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}
	m.JobStarted, _ = meter.Int64Counter("cronlock.job.started",
		metric.WithDescription("Runs recorded in the ledger and handed to a handler"))
	m.JobCompleted, _ = meter.Int64Counter("cronlock.job.completed",
		metric.WithDescription("Runs whose handler returned without error"))
	m.JobFailed, _ = meter.Int64Counter("cronlock.job.failed",
		metric.WithDescription("Runs whose handler returned an error or panicked"))
	m.JobSoftTimeouts, _ = meter.Int64Counter("cronlock.job.soft_timeouts",
		metric.WithDescription("Runs retired after outliving their timeout"))
	m.Ownership, _ = meter.Int64UpDownCounter("cronlock.ownership",
		metric.WithDescription("1 while this replica owns scheduling, 0 otherwise"))
	m.Handovers, _ = meter.Int64Counter("cronlock.ownership.acquired",
		metric.WithDescription("Times this replica took over scheduling"))
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func aliasAttr(run *cron.Run) metric.AddOption {
	return metric.WithAttributes(attribute.String("alias", run.Alias))
}

// OnJobStarted implements ext.JobStarted.
func (m *MetricsExtension) OnJobStarted(ctx context.Context, run *cron.Run) error {
	m.JobStarted.Add(ctx, 1, aliasAttr(run))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, run *cron.Run, _ string, _ time.Duration) error {
	m.JobCompleted.Add(ctx, 1, aliasAttr(run))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, run *cron.Run, _ error) error {
	m.JobFailed.Add(ctx, 1, aliasAttr(run))
	return nil
}

// OnJobSoftTimeout implements ext.JobSoftTimeout.
func (m *MetricsExtension) OnJobSoftTimeout(ctx context.Context, run *cron.Run, _ time.Duration) error {
	m.JobSoftTimeouts.Add(ctx, 1, aliasAttr(run))
	return nil
}

// OnOwnershipAcquired implements ext.OwnershipAcquired.
func (m *MetricsExtension) OnOwnershipAcquired(ctx context.Context, resource string, _ id.InstanceID) error {
	attrs := metric.WithAttributes(attribute.String("resource", resource))
	m.Ownership.Add(ctx, 1, attrs)
	m.Handovers.Add(ctx, 1, attrs)
	return nil
}

// OnOwnershipLost implements ext.OwnershipLost.
func (m *MetricsExtension) OnOwnershipLost(ctx context.Context, resource string, _ id.InstanceID) error {
	m.Ownership.Add(ctx, -1, metric.WithAttributes(attribute.String("resource", resource)))
	return nil
}

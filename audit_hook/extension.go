package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/ext"
	"github.com/xraph/cronlock/id"
)

var (
	_ ext.Extension         = (*Extension)(nil)
	_ ext.JobStarted        = (*Extension)(nil)
	_ ext.JobCompleted      = (*Extension)(nil)
	_ ext.JobFailed         = (*Extension)(nil)
	_ ext.JobSoftTimeout    = (*Extension)(nil)
	_ ext.OwnershipAcquired = (*Extension)(nil)
	_ ext.OwnershipLost     = (*Extension)(nil)
)

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension turns scheduler lifecycle events into audit events.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that records through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// OnJobStarted implements ext.JobStarted.
func (e *Extension) OnJobStarted(ctx context.Context, run *cron.Run) error {
	return e.record(ctx, ActionRunStarted, SeverityInfo, OutcomeSuccess,
		ResourceRun, run.ID.String(), CategoryRun, nil,
		"alias", run.Alias,
		"instance_id", run.InstanceID.String(),
		"started_at", run.StartedAt.Format(time.RFC3339Nano),
	)
}

// OnJobCompleted implements ext.JobCompleted.
func (e *Extension) OnJobCompleted(ctx context.Context, run *cron.Run, result string, elapsed time.Duration) error {
	return e.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRun, run.ID.String(), CategoryRun, nil,
		"alias", run.Alias,
		"instance_id", run.InstanceID.String(),
		"elapsed_ms", elapsed.Milliseconds(),
		"result", result,
	)
}

// OnJobFailed implements ext.JobFailed.
func (e *Extension) OnJobFailed(ctx context.Context, run *cron.Run, runErr error) error {
	return e.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure,
		ResourceRun, run.ID.String(), CategoryRun, runErr,
		"alias", run.Alias,
		"instance_id", run.InstanceID.String(),
	)
}

// OnJobSoftTimeout implements ext.JobSoftTimeout.
func (e *Extension) OnJobSoftTimeout(ctx context.Context, run *cron.Run, elapsed time.Duration) error {
	return e.record(ctx, ActionRunSoftTimeout, SeverityWarning, OutcomeFailure,
		ResourceRun, run.ID.String(), CategoryRun, nil,
		"alias", run.Alias,
		"instance_id", run.InstanceID.String(),
		"timeout_ms", run.Timeout.Milliseconds(),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnOwnershipAcquired implements ext.OwnershipAcquired.
func (e *Extension) OnOwnershipAcquired(ctx context.Context, resource string, instanceID id.InstanceID) error {
	return e.record(ctx, ActionOwnershipAcquired, SeverityInfo, OutcomeSuccess,
		ResourceLock, resource, CategoryOwnership, nil,
		"instance_id", instanceID.String(),
	)
}

// OnOwnershipLost implements ext.OwnershipLost.
func (e *Extension) OnOwnershipLost(ctx context.Context, resource string, instanceID id.InstanceID) error {
	return e.record(ctx, ActionOwnershipLost, SeverityWarning, OutcomeSuccess,
		ResourceLock, resource, CategoryOwnership, nil,
		"instance_id", instanceID.String(),
	)
}

// record builds and sends an audit event if the action is enabled. kvPairs
// become the event metadata. Recorder errors are logged, never returned,
// so a broken audit backend does not fail the run.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = reason
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}

package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	ah "github.com/xraph/cronlock/audit_hook"
	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/ext"
	"github.com/xraph/cronlock/id"
)

// mockRecorder captures audit events for verification.
type mockRecorder struct {
	mu     sync.Mutex
	events []*ah.AuditEvent
}

func (m *mockRecorder) Record(_ context.Context, evt *ah.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockRecorder) last() *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockRecorder) findByAction(action string) *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

func newTestRun() *cron.Run {
	return &cron.Run{
		ID:         id.NewRunID(),
		Alias:      "purge-sessions",
		Interval:   time.Minute,
		Timeout:    30 * time.Second,
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		InstanceID: id.NewInstanceID(),
	}
}

func TestExtension_Name(t *testing.T) {
	e := ah.New(&mockRecorder{})
	if got := e.Name(); got != "audit-hook" {
		t.Errorf("Name() = %q, want %q", got, "audit-hook")
	}
}

func TestExtension_RunHooks(t *testing.T) {
	ctx := context.Background()
	run := newTestRun()

	tests := []struct {
		name     string
		emit     func(e *ah.Extension) error
		action   string
		severity string
		outcome  string
		meta     map[string]any
		reason   string
	}{
		{
			name:     "started",
			emit:     func(e *ah.Extension) error { return e.OnJobStarted(ctx, run) },
			action:   ah.ActionRunStarted,
			severity: ah.SeverityInfo,
			outcome:  ah.OutcomeSuccess,
			meta:     map[string]any{"alias": "purge-sessions", "started_at": "2026-03-01T12:00:00Z"},
		},
		{
			name:     "completed",
			emit:     func(e *ah.Extension) error { return e.OnJobCompleted(ctx, run, "42 rows", 1500*time.Millisecond) },
			action:   ah.ActionRunCompleted,
			severity: ah.SeverityInfo,
			outcome:  ah.OutcomeSuccess,
			meta:     map[string]any{"elapsed_ms": int64(1500), "result": "42 rows"},
		},
		{
			name:     "failed",
			emit:     func(e *ah.Extension) error { return e.OnJobFailed(ctx, run, errors.New("db down")) },
			action:   ah.ActionRunFailed,
			severity: ah.SeverityCritical,
			outcome:  ah.OutcomeFailure,
			meta:     map[string]any{"error": "db down"},
			reason:   "db down",
		},
		{
			name:     "soft timeout",
			emit:     func(e *ah.Extension) error { return e.OnJobSoftTimeout(ctx, run, 31*time.Second) },
			action:   ah.ActionRunSoftTimeout,
			severity: ah.SeverityWarning,
			outcome:  ah.OutcomeFailure,
			meta:     map[string]any{"timeout_ms": int64(30000), "elapsed_ms": int64(31000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecorder{}
			if err := tt.emit(ah.New(rec)); err != nil {
				t.Fatalf("hook: %v", err)
			}

			evt := rec.last()
			if evt == nil {
				t.Fatal("no event recorded")
			}
			if evt.Action != tt.action {
				t.Errorf("Action = %q, want %q", evt.Action, tt.action)
			}
			if evt.Resource != ah.ResourceRun {
				t.Errorf("Resource = %q, want %q", evt.Resource, ah.ResourceRun)
			}
			if evt.Category != ah.CategoryRun {
				t.Errorf("Category = %q, want %q", evt.Category, ah.CategoryRun)
			}
			if evt.ResourceID != run.ID.String() {
				t.Errorf("ResourceID = %q, want %q", evt.ResourceID, run.ID.String())
			}
			if evt.Severity != tt.severity {
				t.Errorf("Severity = %q, want %q", evt.Severity, tt.severity)
			}
			if evt.Outcome != tt.outcome {
				t.Errorf("Outcome = %q, want %q", evt.Outcome, tt.outcome)
			}
			if evt.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", evt.Reason, tt.reason)
			}
			if evt.Metadata["instance_id"] != run.InstanceID.String() {
				t.Errorf("instance_id = %v, want %q", evt.Metadata["instance_id"], run.InstanceID.String())
			}
			for k, want := range tt.meta {
				if got := evt.Metadata[k]; got != want {
					t.Errorf("Metadata[%q] = %v (%T), want %v (%T)", k, got, got, want, want)
				}
			}
		})
	}
}

func TestExtension_OwnershipHooks(t *testing.T) {
	ctx := context.Background()
	instance := id.NewInstanceID()
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnOwnershipAcquired(ctx, "cron", instance); err != nil {
		t.Fatalf("OnOwnershipAcquired: %v", err)
	}
	acquired := rec.last()
	if acquired.Action != ah.ActionOwnershipAcquired {
		t.Errorf("Action = %q, want %q", acquired.Action, ah.ActionOwnershipAcquired)
	}
	if acquired.Severity != ah.SeverityInfo {
		t.Errorf("Severity = %q, want %q", acquired.Severity, ah.SeverityInfo)
	}

	if err := e.OnOwnershipLost(ctx, "cron", instance); err != nil {
		t.Fatalf("OnOwnershipLost: %v", err)
	}
	lost := rec.last()
	if lost.Action != ah.ActionOwnershipLost {
		t.Errorf("Action = %q, want %q", lost.Action, ah.ActionOwnershipLost)
	}
	if lost.Severity != ah.SeverityWarning {
		t.Errorf("Severity = %q, want %q", lost.Severity, ah.SeverityWarning)
	}

	for _, evt := range []*ah.AuditEvent{acquired, lost} {
		if evt.Resource != ah.ResourceLock || evt.ResourceID != "cron" {
			t.Errorf("%s: resource = %s/%s, want %s/cron", evt.Action, evt.Resource, evt.ResourceID, ah.ResourceLock)
		}
		if evt.Category != ah.CategoryOwnership {
			t.Errorf("%s: Category = %q", evt.Action, evt.Category)
		}
		if evt.Metadata["instance_id"] != instance.String() {
			t.Errorf("%s: instance_id = %v", evt.Action, evt.Metadata["instance_id"])
		}
	}
}

func TestExtension_WithActions_FiltersDisabled(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec, ah.WithActions(ah.ActionRunFailed, ah.ActionRunSoftTimeout))

	ctx := context.Background()
	run := newTestRun()

	if err := e.OnJobStarted(ctx, run); err != nil {
		t.Fatalf("OnJobStarted: %v", err)
	}
	if err := e.OnJobCompleted(ctx, run, "ok", time.Second); err != nil {
		t.Fatalf("OnJobCompleted: %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected 0 events, got %d", rec.count())
	}

	if err := e.OnJobFailed(ctx, run, errors.New("boom")); err != nil {
		t.Fatalf("OnJobFailed: %v", err)
	}
	if err := e.OnJobSoftTimeout(ctx, run, time.Minute); err != nil {
		t.Fatalf("OnJobSoftTimeout: %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 events, got %d", rec.count())
	}
}

func TestExtension_RecorderError_DoesNotPropagate(t *testing.T) {
	failing := ah.RecorderFunc(func(context.Context, *ah.AuditEvent) error {
		return errors.New("audit backend down")
	})

	e := ah.New(failing, ah.WithLogger(slog.New(slog.DiscardHandler)))
	if err := e.OnJobFailed(context.Background(), newTestRun(), errors.New("boom")); err != nil {
		t.Fatalf("expected recorder error to be swallowed, got: %v", err)
	}
}

func TestExtension_ViaRegistry(t *testing.T) {
	rec := &mockRecorder{}
	reg := ext.NewRegistry(slog.Default())
	reg.Register(ah.New(rec))

	ctx := context.Background()
	run := newTestRun()

	reg.EmitOwnershipAcquired(ctx, "cron", run.InstanceID)
	reg.EmitJobStarted(ctx, run)
	reg.EmitJobCompleted(ctx, run, "done", time.Second)
	reg.EmitJobFailed(ctx, run, errors.New("fail"))
	reg.EmitJobSoftTimeout(ctx, run, time.Minute)
	reg.EmitOwnershipLost(ctx, "cron", run.InstanceID)

	all := ah.AllActions()
	if rec.count() != len(all) {
		t.Fatalf("expected %d events, got %d", len(all), rec.count())
	}
	for _, action := range all {
		if rec.findByAction(action) == nil {
			t.Errorf("missing event for action %q", action)
		}
	}
}

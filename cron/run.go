package cron

import (
	"context"
	"time"

	"github.com/xraph/cronlock/id"
)

// Run describes one execution of a job. It is handed to middleware and to
// lifecycle hooks; handlers themselves only see the context.
type Run struct {
	ID          id.RunID
	Alias       string
	Description string
	Interval    time.Duration
	Timeout     time.Duration
	StartedAt   time.Time
	InstanceID  id.InstanceID
}

func newRun(def *Definition, runID id.RunID, startedAt time.Time, instance id.InstanceID) *Run {
	return &Run{
		ID:          runID,
		Alias:       def.Alias,
		Description: def.Description,
		Interval:    def.Interval,
		Timeout:     def.Timeout,
		StartedAt:   startedAt,
		InstanceID:  instance,
	}
}

// Middleware wraps handler execution. It must call next unless it means to
// short-circuit the run. Compose several with middleware.Chain.
type Middleware func(ctx context.Context, run *Run, next HandlerFunc) (string, error)

// Emitter receives scheduler lifecycle events. ext.Registry satisfies it;
// the interface lives here so cron does not import ext.
type Emitter interface {
	EmitJobStarted(ctx context.Context, run *Run)
	EmitJobCompleted(ctx context.Context, run *Run, result string, elapsed time.Duration)
	EmitJobFailed(ctx context.Context, run *Run, err error)
	EmitJobSoftTimeout(ctx context.Context, run *Run, elapsed time.Duration)
	EmitOwnershipAcquired(ctx context.Context, resource string, instanceID id.InstanceID)
	EmitOwnershipLost(ctx context.Context, resource string, instanceID id.InstanceID)
}

// ErrorHandler is the single sink for failures the scheduler absorbs:
// handler errors, recovered panics and store errors during a tick.
type ErrorHandler func(ctx context.Context, alias string, err error)

type noopEmitter struct{}

func (noopEmitter) EmitJobStarted(context.Context, *Run)                          {}
func (noopEmitter) EmitJobCompleted(context.Context, *Run, string, time.Duration) {}
func (noopEmitter) EmitJobFailed(context.Context, *Run, error)                    {}
func (noopEmitter) EmitJobSoftTimeout(context.Context, *Run, time.Duration)       {}
func (noopEmitter) EmitOwnershipAcquired(context.Context, string, id.InstanceID)  {}
func (noopEmitter) EmitOwnershipLost(context.Context, string, id.InstanceID)      {}

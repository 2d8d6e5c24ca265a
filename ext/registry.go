package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/id"
)

// entry pairs a hook with the extension name captured at registration.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and fans lifecycle events out to
// them. Extensions are type-cached at registration so each emit only
// iterates over those implementing the hook. Register everything before
// the scheduler starts.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobStarted        []entry[JobStarted]
	jobCompleted      []entry[JobCompleted]
	jobFailed         []entry[JobFailed]
	jobSoftTimeout    []entry[JobSoftTimeout]
	ownershipAcquired []entry[OwnershipAcquired]
	ownershipLost     []entry[OwnershipLost]
	shutdown          []entry[Shutdown]
}

var _ cron.Emitter = (*Registry)(nil)

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension. Extensions are notified in registration
// order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, entry[JobStarted]{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, entry[JobCompleted]{name, h})
	}
	if h, ok := e.(JobFailed); ok {
		r.jobFailed = append(r.jobFailed, entry[JobFailed]{name, h})
	}
	if h, ok := e.(JobSoftTimeout); ok {
		r.jobSoftTimeout = append(r.jobSoftTimeout, entry[JobSoftTimeout]{name, h})
	}
	if h, ok := e.(OwnershipAcquired); ok {
		r.ownershipAcquired = append(r.ownershipAcquired, entry[OwnershipAcquired]{name, h})
	}
	if h, ok := e.(OwnershipLost); ok {
		r.ownershipLost = append(r.ownershipLost, entry[OwnershipLost]{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, run *cron.Run) {
	for _, e := range r.jobStarted {
		if err := e.hook.OnJobStarted(ctx, run); err != nil {
			r.logHookError("OnJobStarted", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, run *cron.Run, result string, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, run, result, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobFailed notifies all extensions that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, run *cron.Run, jobErr error) {
	for _, e := range r.jobFailed {
		if err := e.hook.OnJobFailed(ctx, run, jobErr); err != nil {
			r.logHookError("OnJobFailed", e.name, err)
		}
	}
}

// EmitJobSoftTimeout notifies all extensions that implement JobSoftTimeout.
func (r *Registry) EmitJobSoftTimeout(ctx context.Context, run *cron.Run, elapsed time.Duration) {
	for _, e := range r.jobSoftTimeout {
		if err := e.hook.OnJobSoftTimeout(ctx, run, elapsed); err != nil {
			r.logHookError("OnJobSoftTimeout", e.name, err)
		}
	}
}

// EmitOwnershipAcquired notifies all extensions that implement
// OwnershipAcquired.
func (r *Registry) EmitOwnershipAcquired(ctx context.Context, resource string, instanceID id.InstanceID) {
	for _, e := range r.ownershipAcquired {
		if err := e.hook.OnOwnershipAcquired(ctx, resource, instanceID); err != nil {
			r.logHookError("OnOwnershipAcquired", e.name, err)
		}
	}
}

// EmitOwnershipLost notifies all extensions that implement OwnershipLost.
func (r *Registry) EmitOwnershipLost(ctx context.Context, resource string, instanceID id.InstanceID) {
	for _, e := range r.ownershipLost {
		if err := e.hook.OnOwnershipLost(ctx, resource, instanceID); err != nil {
			r.logHookError("OnOwnershipLost", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never reach the scheduler.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}

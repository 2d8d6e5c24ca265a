package ext

import (
	"context"
	"time"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobStarted is called after a run was recorded in the ledger and right
// before its handler is invoked.
type JobStarted interface {
	OnJobStarted(ctx context.Context, run *cron.Run) error
}

// JobCompleted is called when a handler returns without error.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, run *cron.Run, result string, elapsed time.Duration) error
}

// JobFailed is called when a handler returns an error or panics.
type JobFailed interface {
	OnJobFailed(ctx context.Context, run *cron.Run, err error) error
}

// JobSoftTimeout is called when a run is retired after outliving its
// timeout. The handler may still be running.
type JobSoftTimeout interface {
	OnJobSoftTimeout(ctx context.Context, run *cron.Run, elapsed time.Duration) error
}

// OwnershipAcquired is called when this replica starts scheduling.
type OwnershipAcquired interface {
	OnOwnershipAcquired(ctx context.Context, resource string, instanceID id.InstanceID) error
}

// OwnershipLost is called when this replica stops scheduling, including on
// graceful shutdown.
type OwnershipLost interface {
	OnOwnershipLost(ctx context.Context, resource string, instanceID id.InstanceID) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}

package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionRunStarted        = "run.started"
	ActionRunCompleted      = "run.completed"
	ActionRunFailed         = "run.failed"
	ActionRunSoftTimeout    = "run.soft_timeout"
	ActionOwnershipAcquired = "ownership.acquired"
	ActionOwnershipLost     = "ownership.lost"
)

// Audit event categories group related actions.
const (
	CategoryRun       = "cronlock.run"
	CategoryOwnership = "cronlock.ownership"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceRun  = "cron_run"
	ResourceLock = "cron_lock"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRunStarted,
		ActionRunCompleted,
		ActionRunFailed,
		ActionRunSoftTimeout,
		ActionOwnershipAcquired,
		ActionOwnershipLost,
	}
}

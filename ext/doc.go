// Package ext defines the extension system for cronlock.
//
// Extensions are notified of scheduler lifecycle events and can react to
// them by recording metrics, paging someone or writing an audit trail.
// Each hook is a separate interface so extensions opt in only to the
// events they care about.
//
//	type pager struct{}
//
//	func (pager) Name() string { return "pager" }
//
//	func (pager) OnJobSoftTimeout(ctx context.Context, run *cron.Run, elapsed time.Duration) error {
//	    return page(ctx, run.Alias+" is stuck")
//	}
//
// # Hooks
//
//   - [JobStarted]: a run was recorded and its handler is about to run
//   - [JobCompleted]: the handler returned without error
//   - [JobFailed]: the handler returned an error or panicked
//   - [JobSoftTimeout]: a run outlived its timeout and was retired
//   - [OwnershipAcquired] / [OwnershipLost]: this replica started or
//     stopped scheduling
//   - [Shutdown]: the engine is stopping
//
// The [Registry] satisfies cron.Emitter and is wired into the scheduler by
// the engine.
package ext

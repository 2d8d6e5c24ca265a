// Package cron runs fixed-interval jobs on exactly one replica at a time.
//
// Jobs are registered on a [Registry] before the [Scheduler] starts. Each
// job has an alias, an interval of at least [MinInterval] and a soft
// timeout. On Start the scheduler contends for a named lock; the winner
// resynchronises every job from the run ledger and evaluates due jobs on
// every tick, while replicas that lost stay dormant.
//
// # Ticks
//
// Every tick first rearbitrates ownership: a replica that still holds the
// lock carries on, a replica whose peer went stale takes over and
// resynchronises, and anyone else skips the tick. Jobs are then evaluated
// in registration order. A due job is recorded in the ledger before its
// handler runs, and its next run is computed from the start of the run, so
// slow handlers do not shift the schedule.
//
// # Soft timeouts
//
// A run that outlives its timeout is retired: the job returns to Idle and
// becomes due one interval after the abandoned start. The handler is not
// interrupted. When it eventually returns, its result is discarded.
//
// # Intervals
//
// [ParseInterval] accepts Go durations and constant-period descriptors
// such as "@every 90s" or "@hourly".
package cron

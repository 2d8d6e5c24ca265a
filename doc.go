// Package cronlock runs recurring background jobs on exactly one process
// among any number of horizontally scaled replicas.
//
// Every replica registers the same jobs and starts a scheduler. The
// replicas contend for a single lease-based lock record in a shared store;
// the winner evaluates due jobs once per tick, the others stay dormant.
// When the owner dies its lease goes stale and another replica takes over,
// rebuilding every job's next run from the persisted run ledger.
//
// # Quick Start
//
//	s := memory.New()
//	eng, err := engine.Build(s, engine.WithLogger(logger))
//	if err != nil { ... }
//
//	eng.MustDefine("purge-sessions", cron.Params{
//	    Description: "Delete expired sessions",
//	    Interval:    time.Minute,
//	    Timeout:     30 * time.Second,
//	    Handler:     purgeSessions,
//	})
//
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop(ctx)
//
// # Architecture
//
// The lock algorithm lives in package lock and talks to a conditional
// record store ([lock.Store]). Run bookkeeping lives in package ledger.
// Backends under store/ implement both contracts: memory, postgres (pgx),
// bun (any SQL dialect), redis, mongo, and a lock-only Kubernetes Lease
// backend.
//
// The timeout of a job is a soft timeout. Once it elapses the scheduler
// stops treating the job as busy, but the handler keeps running and its
// eventual result is discarded.
package cronlock

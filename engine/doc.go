// Package engine wires the cronlock subsystems together and is the
// application-level entry point.
//
// Build takes a store.Store and assembles the lock manager, the extension
// registry with the observability extension, the default middleware stack
// and a cron.Scheduler:
//
//	eng, err := engine.Build(pgStore,
//	    engine.WithLogger(logger),
//	    engine.WithExtension(myExtension),
//	    engine.WithMiddleware(myMiddleware),
//	)
//
//	eng.MustDefine("purge-sessions", cron.Params{
//	    Interval: time.Minute,
//	    Handler:  purgeSessions,
//	})
//
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop(ctx)
//
// # Default middleware
//
// Handlers run inside recover, tracing, metrics, logging and run-context
// middleware, in that order, followed by anything passed to
// [WithMiddleware].
//
// # Split backends
//
// [WithLockStore] arbitrates through a different lock.Store than the one
// holding the ledger, for example Kubernetes Leases for locks and Postgres
// for run records.
package engine

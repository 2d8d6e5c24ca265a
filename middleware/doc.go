// Package middleware provides composable middleware for cron handlers.
//
// A [Middleware] wraps a handler invocation. Middleware are composed with
// [Chain] and installed on the scheduler through the engine; the first
// middleware in the list is the outermost wrapper.
//
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging]: logs alias, run ID, duration and outcome of each run
//   - [Recover]: converts panics to errors and logs the stack
//   - [RunContext]: exposes the current run to the handler via [RunFrom]
//   - [Tracing]: wraps each run in an OpenTelemetry span
//   - [Metrics]: records per-job duration and outcome counters
//
// There is no timeout middleware. A run's timeout only retires it from the
// scheduler's bookkeeping; handlers that need a deadline set their own.
package middleware

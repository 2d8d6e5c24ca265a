// Package observability provides an OpenTelemetry metrics extension for
// cronlock. MetricsExtension implements the lifecycle hooks to count job
// starts, completions, failures and soft timeouts, and tracks whether this
// replica currently owns scheduling.
//
// For per-run spans and durations, see middleware.Tracing and
// middleware.Metrics.
package observability

package cron

import (
	"log/slog"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/backoff"
	"github.com/xraph/cronlock/id"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig replaces the scheduler's timing configuration.
func WithConfig(cfg cronlock.Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithTickInterval sets how often due jobs are evaluated.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.cfg.TickInterval = d }
}

// WithLeaseDuration sets how long the scheduling lock stays valid without
// a refresh.
func WithLeaseDuration(d time.Duration) Option {
	return func(s *Scheduler) { s.cfg.LeaseDuration = d }
}

// WithHeartbeatInterval sets how often the owner refreshes its lock.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.cfg.HeartbeatInterval = d }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock sets the time source for scheduling arithmetic.
func WithClock(c cronlock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithInstanceID fixes the ownership token instead of generating one.
func WithInstanceID(instance id.InstanceID) Option {
	return func(s *Scheduler) { s.instance = instance }
}

// WithRegistry makes the scheduler use an existing registry.
func WithRegistry(r *Registry) Option {
	return func(s *Scheduler) { s.registry = r }
}

// WithEmitter sets the receiver of lifecycle events.
func WithEmitter(e Emitter) Option {
	return func(s *Scheduler) { s.emitter = e }
}

// WithMiddleware wraps every handler invocation with mw.
func WithMiddleware(mw Middleware) Option {
	return func(s *Scheduler) { s.mw = mw }
}

// WithErrorHandler installs the sink for absorbed failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Scheduler) { s.onError = h }
}

// WithStandbyBackoff sets the delay strategy of a dormant replica. It only
// applies when the config's StandbyInterval is positive.
func WithStandbyBackoff(b backoff.Strategy) Option {
	return func(s *Scheduler) { s.standby = b }
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/ext"
	"github.com/xraph/cronlock/id"
	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
	mw "github.com/xraph/cronlock/middleware"
	"github.com/xraph/cronlock/observability"
	"github.com/xraph/cronlock/store"
)

const instrumentationName = "github.com/xraph/cronlock"

// Engine owns a scheduler and everything it depends on.
// Use Build() to create one.
type Engine struct {
	store      store.Store
	lockStore  lock.Store
	locks      *lock.Manager
	extensions *ext.Registry
	exts       []ext.Extension
	scheduler  *cron.Scheduler
	mws        []mw.Middleware
	logger     *slog.Logger
	clock      cronlock.Clock
	cfg        cronlock.Config
	instance   id.InstanceID
	onError    cron.ErrorHandler
	schedOpts  []cron.Option

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by every subsystem.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithConfig sets the scheduler timing configuration.
func WithConfig(cfg cronlock.Config) Option {
	return func(eng *Engine) { eng.cfg = cfg }
}

// WithClock sets the time source for locks and schedules.
func WithClock(c cronlock.Clock) Option {
	return func(eng *Engine) { eng.clock = c }
}

// WithInstanceID fixes the ownership token of this replica.
func WithInstanceID(instance id.InstanceID) Option {
	return func(eng *Engine) { eng.instance = instance }
}

// WithLockStore arbitrates through ls instead of the main store.
func WithLockStore(ls lock.Store) Option {
	return func(eng *Engine) { eng.lockStore = ls }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.exts = append(eng.exts, e) }
}

// WithMiddleware appends middleware after the default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithErrorHandler sets the sink for failures the scheduler absorbs.
func WithErrorHandler(h cron.ErrorHandler) Option {
	return func(eng *Engine) { eng.onError = h }
}

// WithSchedulerOptions passes extra options straight to cron.NewScheduler.
// They are applied after the engine's own.
func WithSchedulerOptions(opts ...cron.Option) Option {
	return func(eng *Engine) { eng.schedOpts = append(eng.schedOpts, opts...) }
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware and the observability extension. If not set, the global
// otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// Build creates an Engine on s.
func Build(s store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, cronlock.ErrNoStore
	}

	eng := &Engine{
		store:  s,
		logger: slog.Default(),
		clock:  cronlock.SystemClock(),
		cfg:    cronlock.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	for _, e := range eng.exts {
		eng.extensions.Register(e)
	}

	if eng.lockStore == nil {
		eng.lockStore = s
	}
	eng.locks = lock.NewManager(eng.lockStore,
		lock.WithLogger(eng.logger),
		lock.WithClock(eng.clock),
	)

	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}

	var metricsMw mw.Middleware
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(instrumentationName + "/observability"))
	} else {
		metricsMw = mw.Metrics()
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// recover → tracing → metrics → logging → run context → user.
	chain := make([]mw.Middleware, 0, 5+len(eng.mws))
	chain = append(chain,
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.RunContext(),
	)
	chain = append(chain, eng.mws...)

	schedOpts := []cron.Option{
		cron.WithConfig(eng.cfg),
		cron.WithLogger(eng.logger),
		cron.WithClock(eng.clock),
		cron.WithEmitter(eng.extensions),
		cron.WithMiddleware(mw.Chain(chain...)),
	}
	if !eng.instance.IsNil() {
		schedOpts = append(schedOpts, cron.WithInstanceID(eng.instance))
	}
	if eng.onError != nil {
		schedOpts = append(schedOpts, cron.WithErrorHandler(eng.onError))
	}
	schedOpts = append(schedOpts, eng.schedOpts...)

	sched, err := cron.NewScheduler(eng.locks, s, schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("build cron scheduler: %w", err)
	}
	eng.scheduler = sched
	eng.instance = sched.InstanceID()

	return eng, nil
}

// Define registers a job with the scheduler.
func (eng *Engine) Define(alias string, p cron.Params) error {
	return eng.scheduler.Define(alias, p)
}

// MustDefine is like Define but panics on error.
func (eng *Engine) MustDefine(alias string, p cron.Params) {
	eng.scheduler.MustDefine(alias, p)
}

// Start starts the scheduler.
func (eng *Engine) Start(ctx context.Context) error {
	if err := eng.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start cron scheduler: %w", err)
	}
	return nil
}

// Stop stops the scheduler, notifies extensions and closes the store.
func (eng *Engine) Stop(ctx context.Context) error {
	if err := eng.scheduler.Stop(ctx); err != nil && !errors.Is(err, cronlock.ErrNotStarted) {
		eng.logger.Error("cron scheduler stop error", slog.String("error", err.Error()))
	}
	eng.extensions.EmitShutdown(ctx)
	return eng.store.Close()
}

// Scheduler returns the cron scheduler.
func (eng *Engine) Scheduler() *cron.Scheduler { return eng.scheduler }

// Locks returns the lock manager.
func (eng *Engine) Locks() *lock.Manager { return eng.locks }

// Ledger returns the run ledger.
func (eng *Engine) Ledger() ledger.Store { return eng.store }

// Store returns the underlying store.
func (eng *Engine) Store() store.Store { return eng.store }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// InstanceID returns this replica's ownership token.
func (eng *Engine) InstanceID() id.InstanceID { return eng.instance }

// Config returns the scheduler configuration in effect.
func (eng *Engine) Config() cronlock.Config { return eng.scheduler.Config() }

// Clock returns the engine's time source.
func (eng *Engine) Clock() cronlock.Clock { return eng.clock }

package cron

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/backoff"
	"github.com/xraph/cronlock/id"
	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
)

// Scheduler runs registered jobs on a tick loop. Only the replica holding
// the scheduling lock executes jobs; the others stay dormant.
type Scheduler struct {
	cfg      cronlock.Config
	locks    *lock.Manager
	runs     ledger.Store
	registry *Registry
	emitter  Emitter
	mw       Middleware
	onError  ErrorHandler
	clock    cronlock.Clock
	logger   *slog.Logger
	instance id.InstanceID
	standby  backoff.Strategy

	// mu guards states and epoch. epoch increments on every resync so
	// completions of runs started before it can be recognised as stale.
	mu     sync.RWMutex
	states map[string]*State
	epoch  uint64

	owner atomic.Bool

	lifeMu   sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	inflight sync.WaitGroup

	heartbeatLog rate.Sometimes
	standbyLog   rate.Sometimes
}

// NewScheduler creates a Scheduler that arbitrates through locks and
// records starts in runs.
func NewScheduler(locks *lock.Manager, runs ledger.Store, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		cfg:          cronlock.DefaultConfig(),
		locks:        locks,
		runs:         runs,
		emitter:      noopEmitter{},
		clock:        cronlock.SystemClock(),
		logger:       slog.Default(),
		states:       make(map[string]*State),
		heartbeatLog: rate.Sometimes{Interval: time.Minute},
		standbyLog:   rate.Sometimes{Interval: time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	if locks == nil || runs == nil {
		return nil, cronlock.ErrNoStore
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.emitter == nil {
		s.emitter = noopEmitter{}
	}
	if s.instance.IsNil() {
		s.instance = id.NewInstanceID()
	}
	if s.standby == nil {
		s.standby = backoff.Standby(s.cfg.StandbyInterval)
	}
	return s, nil
}

// Define registers a job. It fails once the scheduler has started.
func (s *Scheduler) Define(alias string, p Params) error {
	return s.registry.Define(alias, p)
}

// MustDefine is like Define but panics on error.
func (s *Scheduler) MustDefine(alias string, p Params) {
	s.registry.MustDefine(alias, p)
}

// Registry returns the scheduler's job table.
func (s *Scheduler) Registry() *Registry { return s.registry }

// Config returns the timing configuration in effect.
func (s *Scheduler) Config() cronlock.Config { return s.cfg }

// InstanceID returns the ownership token of this scheduler.
func (s *Scheduler) InstanceID() id.InstanceID { return s.instance }

// IsOwner reports whether this replica currently schedules jobs.
func (s *Scheduler) IsOwner() bool { return s.owner.Load() }

// Metadata returns every registered job in registration order.
func (s *Scheduler) Metadata() []Metadata { return s.registry.Metadata() }

// Snapshot returns the metadata and runtime state of every job in
// registration order. Dormant replicas report zero state.
func (s *Scheduler) Snapshot() []Status {
	defs := s.registry.Definitions()
	out := make([]Status, len(defs))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, def := range defs {
		out[i].Metadata = def.Metadata()
		if st, ok := s.states[def.Alias]; ok {
			out[i].State = st.clone()
		}
	}
	return out
}

// Status returns the state of a single job.
func (s *Scheduler) Status(alias string) (Status, error) {
	def, ok := s.registry.Get(alias)
	if !ok {
		return Status{}, cronlock.ErrJobNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Status{Metadata: def.Metadata()}
	if st, ok := s.states[alias]; ok {
		out.State = st.clone()
	}
	return out, nil
}

// Start closes registration and contends for the scheduling lock. When it
// wins, jobs are resynchronised from the ledger and the tick and heartbeat
// loops start. When it loses, the replica stays dormant, retrying in the
// background if a standby interval is configured. Start with no jobs
// registered does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.started {
		return cronlock.ErrAlreadyStarted
	}
	s.started = true
	s.registry.close()

	defs := s.registry.Definitions()
	if len(defs) == 0 {
		s.logger.Info("cron scheduler idle: no jobs registered")
		return nil
	}

	s.mu.Lock()
	for _, def := range defs {
		if _, ok := s.states[def.Alias]; !ok {
			s.states[def.Alias] = &State{}
		}
	}
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(runCtx)
	s.cancel, s.group = cancel, g

	if s.locks.Acquire(ctx, s.cfg.Resource, s.cfg.LeaseDuration, s.instance.String()) {
		s.takeOwnership(gctx)
		return nil
	}

	s.logger.Info("cron lock held by another instance, staying dormant",
		slog.String("resource", s.cfg.Resource),
		slog.String("instance_id", s.instance.String()),
		slog.Duration("standby_interval", s.cfg.StandbyInterval),
	)
	if s.cfg.StandbyInterval > 0 {
		g.Go(func() error { return s.standbyLoop(gctx) })
	}
	return nil
}

// Stop halts the loops, waits for in-flight handlers up to the shutdown
// timeout or ctx, and releases the scheduling lock when configured to.
// Handler contexts are cancelled. Stopping twice is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.lifeMu.Lock()
	if !s.started {
		s.lifeMu.Unlock()
		return cronlock.ErrNotStarted
	}
	if s.stopped {
		s.lifeMu.Unlock()
		return nil
	}
	s.stopped = true
	cancel, g := s.cancel, s.group
	s.lifeMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := g.Wait()

	waitCtx := ctx
	if s.cfg.ShutdownTimeout > 0 {
		var stop context.CancelFunc
		waitCtx, stop = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer stop()
	}
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-waitCtx.Done():
		s.logger.Warn("cron scheduler stopped with handlers still running",
			slog.Duration("shutdown_timeout", s.cfg.ShutdownTimeout),
		)
	}

	if s.owner.Load() && s.cfg.ReleaseOnStop {
		if s.locks.Release(ctx, s.cfg.Resource, s.instance.String()) {
			s.logger.Info("cron lock released", slog.String("resource", s.cfg.Resource))
		}
	}
	s.setOwner(context.WithoutCancel(ctx), false)

	s.logger.Info("cron scheduler stopped", slog.String("instance_id", s.instance.String()))
	return err
}

// takeOwnership resynchronises every job and starts the owner loops.
func (s *Scheduler) takeOwnership(ctx context.Context) {
	s.resync(ctx)
	s.setOwner(ctx, true)
	s.group.Go(func() error { return s.tickLoop(ctx) })
	s.group.Go(func() error { return s.heartbeatLoop(ctx) })

	s.logger.Info("cron scheduler started",
		slog.String("instance_id", s.instance.String()),
		slog.Int("jobs", s.registry.Len()),
		slog.Duration("tick_interval", s.cfg.TickInterval),
	)
}

func (s *Scheduler) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.heartbeat(ctx)
		}
	}
}

// heartbeat refreshes the lock while it is still ours. Ownership changes
// are left to the tick, which rearbitrates before doing any work.
func (s *Scheduler) heartbeat(ctx context.Context) {
	me := s.instance.String()
	if !s.locks.Verify(ctx, s.cfg.Resource, me) {
		s.heartbeatLog.Do(func() {
			s.logger.Warn("cron lock not held at heartbeat",
				slog.String("resource", s.cfg.Resource),
				slog.String("instance_id", me),
			)
		})
		return
	}
	if !s.locks.Acquire(ctx, s.cfg.Resource, s.cfg.LeaseDuration, me) {
		s.heartbeatLog.Do(func() {
			s.logger.Warn("cron lock refresh failed",
				slog.String("resource", s.cfg.Resource),
				slog.String("instance_id", me),
			)
		})
	}
}

func (s *Scheduler) standbyLoop(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		delay := s.standby.Delay(attempt)
		if delay <= 0 {
			delay = s.cfg.TickInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if s.locks.Acquire(ctx, s.cfg.Resource, s.cfg.LeaseDuration, s.instance.String()) {
			s.logger.Info("cron lock acquired from standby", slog.Int("attempts", attempt))
			s.takeOwnership(ctx)
			return nil
		}
		s.standbyLog.Do(func() {
			s.logger.Debug("cron lock still held elsewhere",
				slog.String("resource", s.cfg.Resource),
				slog.Int("attempts", attempt),
			)
		})
	}
}

// setOwner records the ownership flag and emits an event on change.
func (s *Scheduler) setOwner(ctx context.Context, owner bool) {
	if s.owner.Swap(owner) == owner {
		return
	}
	if owner {
		s.logger.Info("cron ownership acquired",
			slog.String("resource", s.cfg.Resource),
			slog.String("instance_id", s.instance.String()),
		)
		s.emitter.EmitOwnershipAcquired(ctx, s.cfg.Resource, s.instance)
		return
	}
	s.logger.Warn("cron ownership lost",
		slog.String("resource", s.cfg.Resource),
		slog.String("instance_id", s.instance.String()),
	)
	s.emitter.EmitOwnershipLost(ctx, s.cfg.Resource, s.instance)
}

// report funnels absorbed failures to the logger and the error handler.
func (s *Scheduler) report(ctx context.Context, op, alias string, err error) {
	s.logger.Error("cron "+op+" error",
		slog.String("alias", alias),
		slog.String("error", err.Error()),
	)
	if s.onError != nil {
		s.onError(ctx, alias, err)
	}
}

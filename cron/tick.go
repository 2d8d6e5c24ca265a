package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/id"
)

// tick rearbitrates ownership and then walks the jobs in registration
// order, expiring overdue runs and starting due ones.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.rearbitrate(ctx) {
		return
	}

	for _, def := range s.registry.Definitions() {
		if ctx.Err() != nil {
			return
		}

		now := s.clock.Now()
		s.mu.RLock()
		st := s.states[def.Alias].clone()
		s.mu.RUnlock()

		switch {
		// execute enforces the timeout itself. A run still marked Running
		// here was left behind by a tick cancelled mid-run.
		case st.softTimedOut(def.Timeout, now):
			s.expire(ctx, def, st.RunID)
		case st.due(now):
			if !s.locks.Verify(ctx, s.cfg.Resource, s.instance.String()) {
				s.setOwner(ctx, false)
				return
			}
			s.execute(ctx, def)
		}
	}
}

// rearbitrate confirms the lock is ours, or takes it over when the holder
// went stale. A takeover resynchronises every job from the ledger first.
// An owner whose check failed on a store error and whose refresh then
// succeeded keeps its epoch.
func (s *Scheduler) rearbitrate(ctx context.Context) bool {
	me := s.instance.String()
	wasOwner := s.owner.Load()
	held, checkErr := s.locks.Holds(ctx, s.cfg.Resource, me)
	if held {
		s.setOwner(ctx, true)
		return true
	}
	if !s.locks.Acquire(ctx, s.cfg.Resource, s.cfg.LeaseDuration, me) {
		s.setOwner(ctx, false)
		return false
	}
	if wasOwner && checkErr != nil {
		s.logger.Debug("cron lock refreshed after a failed ownership check",
			slog.String("resource", s.cfg.Resource),
			slog.String("instance_id", me),
		)
		return true
	}

	s.logger.Info("cron lock taken over, resynchronizing jobs",
		slog.String("resource", s.cfg.Resource),
		slog.String("instance_id", me),
	)
	s.resync(ctx)
	s.setOwner(ctx, true)
	return true
}

// resync resets every job to Idle, due at its last ledger start plus its
// interval. Jobs without a ledger record are due immediately, as are jobs
// whose record could not be read.
func (s *Scheduler) resync(ctx context.Context) {
	defs := s.registry.Definitions()
	now := s.clock.Now()

	next := make(map[string]time.Time, len(defs))
	for _, def := range defs {
		at := now
		rec, err := s.runs.GetRun(ctx, def.Alias)
		switch {
		case err == nil:
			at = rec.NextRun(def.Interval)
		case errors.Is(err, cronlock.ErrRunNotFound):
		default:
			s.report(ctx, "resync", def.Alias, err)
		}
		next[def.Alias] = at
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	for alias, at := range next {
		st, ok := s.states[alias]
		if !ok {
			st = &State{}
			s.states[alias] = st
		}
		st.Running = false
		st.StartedAt = nil
		st.RunID = id.Nil
		st.ScheduledRunAt = &at
	}
}

// execute records the start in the ledger, then runs the handler and waits
// for it until the soft timeout. A handler still running at that point is
// left alone; its result is discarded when it finally returns.
func (s *Scheduler) execute(ctx context.Context, def *Definition) {
	startedAt := s.clock.Now()
	run := newRun(def, id.NewRunID(), startedAt, s.instance)

	s.mu.Lock()
	st := s.states[def.Alias]
	st.Running = true
	st.StartedAt = &startedAt
	st.RunID = run.ID
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.runs.UpsertRun(ctx, def.Alias, startedAt); err != nil {
		s.mu.Lock()
		if st.RunID.Equal(run.ID) {
			st.Running = false
			st.StartedAt = nil
			st.RunID = id.Nil
		}
		s.mu.Unlock()
		s.report(ctx, "record run start", def.Alias, err)
		return
	}

	s.logger.Debug("cron job started",
		slog.String("alias", def.Alias),
		slog.String("run_id", run.ID.String()),
	)
	s.emitter.EmitJobStarted(ctx, run)

	done := make(chan struct{})
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(done)
		result, err := s.invoke(ctx, def, run)
		s.complete(context.WithoutCancel(ctx), def, run, epoch, result, err)
	}()

	timer := time.NewTimer(startedAt.Add(def.Timeout).Sub(s.clock.Now()))
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.expire(ctx, def, run.ID)
	case <-ctx.Done():
	}
}

// invoke calls the handler through the middleware and turns a panic into
// an error.
func (s *Scheduler) invoke(ctx context.Context, def *Definition, run *Run) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cron: job %q panicked: %v", def.Alias, r)
		}
	}()

	if s.mw != nil {
		return s.mw(ctx, run, def.Handler)
	}
	return def.Handler(ctx)
}

// complete retires the run if it is still the one being tracked.
func (s *Scheduler) complete(ctx context.Context, def *Definition, run *Run, epoch uint64, result string, err error) {
	finishedAt := s.clock.Now()
	elapsed := finishedAt.Sub(run.StartedAt)

	s.mu.Lock()
	st := s.states[def.Alias]
	current := s.epoch == epoch && st.Running && st.RunID.Equal(run.ID)
	if current {
		st.idle(def.Interval)
		st.LastResult = result
		st.LastError = ""
		if err != nil {
			st.LastError = err.Error()
		}
		st.LastFinishedAt = &finishedAt
	}
	s.mu.Unlock()

	if !current {
		attrs := []any{
			slog.String("alias", def.Alias),
			slog.String("run_id", run.ID.String()),
			slog.Duration("elapsed", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.Warn("cron job finished after it was retired, result discarded", attrs...)
		return
	}

	if err != nil {
		s.report(ctx, "job", def.Alias, err)
		s.emitter.EmitJobFailed(ctx, run, err)
		return
	}

	s.logger.Info("cron job completed",
		slog.String("alias", def.Alias),
		slog.String("run_id", run.ID.String()),
		slog.Duration("elapsed", elapsed),
		slog.String("result", result),
	)
	s.emitter.EmitJobCompleted(ctx, run, result, elapsed)
}

// expire applies the soft timeout to the run identified by runID: the job
// goes back to Idle, due one interval after the abandoned start. This
// reschedules the job rather than only clearing Running, which would leave
// it due again on the next tick. The handler is not interrupted.
func (s *Scheduler) expire(ctx context.Context, def *Definition, runID id.RunID) {
	now := s.clock.Now()

	s.mu.Lock()
	st := s.states[def.Alias]
	if !st.Running || st.StartedAt == nil || !st.RunID.Equal(runID) {
		s.mu.Unlock()
		return
	}
	startedAt := *st.StartedAt
	st.idle(def.Interval)
	st.LastError = fmt.Sprintf("soft timeout after %s", def.Timeout)
	s.mu.Unlock()

	elapsed := now.Sub(startedAt)
	s.logger.Warn("cron job exceeded its timeout, handler left running",
		slog.String("alias", def.Alias),
		slog.String("run_id", runID.String()),
		slog.Duration("timeout", def.Timeout),
		slog.Duration("elapsed", elapsed),
	)
	s.emitter.EmitJobSoftTimeout(ctx, newRun(def, runID, startedAt, s.instance), elapsed)
}

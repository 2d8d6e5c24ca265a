// Package storetest is a conformance suite for lock.Store and
// ledger.Store implementations. Backend packages call RunLock and
// RunLedger (or Run for a full store.Store) from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
	"github.com/xraph/cronlock/store"
)

// Run exercises both halves of a store.Store. newStore must return an
// empty store; it is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	RunLock(t, func(t *testing.T) lock.Store { return newStore(t) })
	RunLedger(t, func(t *testing.T) ledger.Store { return newStore(t) })
}

// baseTime is truncated to milliseconds, the coarsest precision among the
// supported backends.
func baseTime() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// RunLock exercises the conditional upsert, read and delete contract.
func RunLock(t *testing.T, newStore func(t *testing.T) lock.Store) {
	t.Helper()

	t.Run("LockInsertWhenMissing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := baseTime()

		res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: now.Add(-time.Minute)}, now)
		if err != nil {
			t.Fatalf("UpsertLock: %v", err)
		}
		if !res.Inserted || res.Matched {
			t.Fatalf("result = %+v, want inserted only", res)
		}

		rec, err := s.GetLock(ctx, "cron")
		if err != nil {
			t.Fatalf("GetLock: %v", err)
		}
		if rec.Resource != "cron" || rec.OwnerID != "a" {
			t.Errorf("record = %+v, want cron/a", rec)
		}
		if !rec.AcquiredAt.Equal(now) {
			t.Errorf("AcquiredAt = %v, want %v", rec.AcquiredAt, now)
		}
	})

	t.Run("LockRefreshByOwner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		t0 := baseTime()
		t1 := t0.Add(2 * time.Second)

		mustUpsert(t, s, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: t0.Add(-time.Minute)}, t0)

		res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: t1.Add(-time.Minute)}, t1)
		if err != nil {
			t.Fatalf("UpsertLock: %v", err)
		}
		if !res.Matched || res.Inserted {
			t.Fatalf("result = %+v, want matched only", res)
		}

		rec := mustGet(t, s, "cron")
		if !rec.AcquiredAt.Equal(t1) {
			t.Errorf("AcquiredAt = %v, want %v", rec.AcquiredAt, t1)
		}
	})

	t.Run("LockLiveHeldByOther", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		t0 := baseTime()
		t1 := t0.Add(time.Second)

		mustUpsert(t, s, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: t0.Add(-time.Minute)}, t0)

		res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "b", StaleBefore: t1.Add(-30 * time.Second)}, t1)
		if err != nil && !errors.Is(err, cronlock.ErrLockConflict) {
			t.Fatalf("UpsertLock: %v", err)
		}
		if res.Acquired() {
			t.Fatalf("result = %+v, want no acquisition", res)
		}

		rec := mustGet(t, s, "cron")
		if rec.OwnerID != "a" || !rec.AcquiredAt.Equal(t0) {
			t.Errorf("record changed to %+v", rec)
		}
	})

	t.Run("LockStaleTakeover", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		t0 := baseTime()
		t1 := t0.Add(31 * time.Second)

		mustUpsert(t, s, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: t0.Add(-30 * time.Second)}, t0)

		res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "b", StaleBefore: t1.Add(-30 * time.Second)}, t1)
		if err != nil {
			t.Fatalf("UpsertLock: %v", err)
		}
		if !res.Matched {
			t.Fatalf("result = %+v, want matched", res)
		}

		rec := mustGet(t, s, "cron")
		if rec.OwnerID != "b" || !rec.AcquiredAt.Equal(t1) {
			t.Errorf("record = %+v, want owner b at %v", rec, t1)
		}
	})

	t.Run("LockStaleBoundaryIsExclusive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		t0 := baseTime()
		t1 := t0.Add(30 * time.Second)

		mustUpsert(t, s, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: t0.Add(-30 * time.Second)}, t0)

		// acquiredAt == now - lease is not yet stale.
		res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: "b", StaleBefore: t1.Add(-30 * time.Second)}, t1)
		if err != nil && !errors.Is(err, cronlock.ErrLockConflict) {
			t.Fatalf("UpsertLock: %v", err)
		}
		if res.Acquired() {
			t.Fatalf("result = %+v, want no acquisition at the boundary", res)
		}
	})

	t.Run("LockConcurrentInsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := baseTime()

		const racers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
		)
		for i := range racers {
			wg.Add(1)
			go func(owner string) {
				defer wg.Done()
				res, err := s.UpsertLock(ctx, lock.Condition{Resource: "cron", OwnerID: owner, StaleBefore: now.Add(-30 * time.Second)}, now)
				if err != nil || !res.Acquired() {
					return
				}
				mu.Lock()
				winners = append(winners, owner)
				mu.Unlock()
			}(fmt.Sprintf("owner-%d", i))
		}
		wg.Wait()

		if len(winners) != 1 {
			t.Fatalf("winners = %v, want exactly one", winners)
		}
		rec := mustGet(t, s, "cron")
		if rec.OwnerID != winners[0] {
			t.Errorf("record owner = %q, winner = %q", rec.OwnerID, winners[0])
		}
	})

	t.Run("LockDeleteOwnerOnly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := baseTime()

		mustUpsert(t, s, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: now.Add(-time.Minute)}, now)

		deleted, err := s.DeleteLock(ctx, "cron", "b")
		if err != nil {
			t.Fatalf("DeleteLock(b): %v", err)
		}
		if deleted {
			t.Fatal("non-owner deleted the lock")
		}
		if rec := mustGet(t, s, "cron"); rec.OwnerID != "a" {
			t.Fatalf("record changed to %+v", rec)
		}

		deleted, err = s.DeleteLock(ctx, "cron", "a")
		if err != nil {
			t.Fatalf("DeleteLock(a): %v", err)
		}
		if !deleted {
			t.Fatal("owner could not delete the lock")
		}
		if _, err := s.GetLock(ctx, "cron"); !errors.Is(err, cronlock.ErrLockNotFound) {
			t.Fatalf("GetLock after delete: err = %v, want ErrLockNotFound", err)
		}

		deleted, err = s.DeleteLock(ctx, "cron", "a")
		if err != nil || deleted {
			t.Fatalf("second DeleteLock = %v, %v; want false, nil", deleted, err)
		}
	})

	t.Run("LockGetMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetLock(context.Background(), "nope"); !errors.Is(err, cronlock.ErrLockNotFound) {
			t.Fatalf("err = %v, want ErrLockNotFound", err)
		}
	})

	t.Run("LockResourcesAreIndependent", func(t *testing.T) {
		s := newStore(t)
		now := baseTime()

		mustUpsert(t, s, lock.Condition{Resource: "cron", OwnerID: "a", StaleBefore: now.Add(-time.Minute)}, now)
		mustUpsert(t, s, lock.Condition{Resource: "reports", OwnerID: "b", StaleBefore: now.Add(-time.Minute)}, now)

		if rec := mustGet(t, s, "cron"); rec.OwnerID != "a" {
			t.Errorf("cron owner = %q", rec.OwnerID)
		}
		if rec := mustGet(t, s, "reports"); rec.OwnerID != "b" {
			t.Errorf("reports owner = %q", rec.OwnerID)
		}
	})
}

// RunLedger exercises the run record contract.
func RunLedger(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()

	t.Run("LedgerGetMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetRun(context.Background(), "nope"); !errors.Is(err, cronlock.ErrRunNotFound) {
			t.Fatalf("err = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("LedgerUpsertOverwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		t0 := baseTime()
		t1 := t0.Add(5 * time.Second)

		if err := s.UpsertRun(ctx, "demo", t0); err != nil {
			t.Fatalf("UpsertRun: %v", err)
		}
		if err := s.UpsertRun(ctx, "demo", t1); err != nil {
			t.Fatalf("UpsertRun: %v", err)
		}

		rec, err := s.GetRun(ctx, "demo")
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		if rec.Alias != "demo" || !rec.LastStartDate.Equal(t1) {
			t.Errorf("record = %+v, want demo at %v", rec, t1)
		}

		all, err := s.ListRuns(ctx)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("ListRuns returned %d records, want 1", len(all))
		}
	})

	t.Run("LedgerListOrderedByAlias", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := baseTime()

		for _, alias := range []string{"charlie", "alpha", "bravo"} {
			if err := s.UpsertRun(ctx, alias, now); err != nil {
				t.Fatalf("UpsertRun(%s): %v", alias, err)
			}
		}

		all, err := s.ListRuns(ctx)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		want := []string{"alpha", "bravo", "charlie"}
		if len(all) != len(want) {
			t.Fatalf("ListRuns returned %d records, want %d", len(all), len(want))
		}
		for i, rec := range all {
			if rec.Alias != want[i] {
				t.Errorf("ListRuns[%d] = %q, want %q", i, rec.Alias, want[i])
			}
		}
	})
}

func mustUpsert(t *testing.T, s lock.Store, cond lock.Condition, now time.Time) {
	t.Helper()
	res, err := s.UpsertLock(context.Background(), cond, now)
	if err != nil {
		t.Fatalf("UpsertLock(%+v): %v", cond, err)
	}
	if !res.Acquired() {
		t.Fatalf("UpsertLock(%+v) did not acquire", cond)
	}
}

func mustGet(t *testing.T, s lock.Store, resource string) *lock.Record {
	t.Helper()
	rec, err := s.GetLock(context.Background(), resource)
	if err != nil {
		t.Fatalf("GetLock(%s): %v", resource, err)
	}
	return rec
}

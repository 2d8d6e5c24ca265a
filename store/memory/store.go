// Package memory provides an in-memory implementation of store.Store.
// Locks and run records live in maps guarded by one mutex, which makes
// every operation trivially atomic. Intended for tests, development and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
	"github.com/xraph/cronlock/store"
)

var _ store.Store = (*Store)(nil)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access.
type Store struct {
	mu sync.RWMutex

	locks  map[string]lock.Record
	runs   map[string]ledger.Record
	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		locks: make(map[string]lock.Record),
		runs:  make(map[string]ledger.Record),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping fails only after Close.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return cronlock.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Later operations fail with
// cronlock.ErrStoreClosed.
func (m *Store) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// ──────────────────────────────────────────────────
// Lock store
// ──────────────────────────────────────────────────

// UpsertLock implements lock.Store.
func (m *Store) UpsertLock(_ context.Context, cond lock.Condition, now time.Time) (lock.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return lock.UpsertResult{}, cronlock.ErrStoreClosed
	}

	next := lock.Record{Resource: cond.Resource, OwnerID: cond.OwnerID, AcquiredAt: now}

	cur, ok := m.locks[cond.Resource]
	if !ok {
		m.locks[cond.Resource] = next
		return lock.UpsertResult{Inserted: true}, nil
	}
	if !cond.Matches(&cur) {
		return lock.UpsertResult{}, nil
	}
	m.locks[cond.Resource] = next
	return lock.UpsertResult{Matched: true}, nil
}

// GetLock implements lock.Store.
func (m *Store) GetLock(_ context.Context, resource string) (*lock.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, cronlock.ErrStoreClosed
	}

	rec, ok := m.locks[resource]
	if !ok {
		return nil, cronlock.ErrLockNotFound
	}
	return &rec, nil
}

// DeleteLock implements lock.Store.
func (m *Store) DeleteLock(_ context.Context, resource, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, cronlock.ErrStoreClosed
	}

	rec, ok := m.locks[resource]
	if !ok || rec.OwnerID != ownerID {
		return false, nil
	}
	delete(m.locks, resource)
	return true, nil
}

// ──────────────────────────────────────────────────
// Ledger store
// ──────────────────────────────────────────────────

// UpsertRun implements ledger.Store.
func (m *Store) UpsertRun(_ context.Context, alias string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return cronlock.ErrStoreClosed
	}

	m.runs[alias] = ledger.Record{Alias: alias, LastStartDate: at}
	return nil
}

// GetRun implements ledger.Store.
func (m *Store) GetRun(_ context.Context, alias string) (*ledger.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, cronlock.ErrStoreClosed
	}

	rec, ok := m.runs[alias]
	if !ok {
		return nil, cronlock.ErrRunNotFound
	}
	return &rec, nil
}

// ListRuns implements ledger.Store.
func (m *Store) ListRuns(_ context.Context) ([]*ledger.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, cronlock.ErrStoreClosed
	}

	out := make([]*ledger.Record, 0, len(m.runs))
	for _, rec := range m.runs {
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/cronlock"
)

// Manager acquires, refreshes, verifies and releases named locks.
// It is safe for concurrent use and holds no per-lock state.
type Manager struct {
	store  Store
	clock  cronlock.Clock
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for the manager.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock sets the time source used for acquisition timestamps.
func WithClock(c cronlock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		clock:  cronlock.SystemClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire takes or refreshes resource for ownerID. It returns true when
// the record was inserted, was already owned by ownerID, or was older than
// lease. A live record held by another owner yields false, as does any
// store error.
func (m *Manager) Acquire(ctx context.Context, resource string, lease time.Duration, ownerID string) bool {
	if lease <= 0 {
		m.logger.Error("lock acquire rejected: non-positive lease",
			slog.String("resource", resource),
			slog.Duration("lease", lease),
		)
		return false
	}

	now := m.clock.Now()
	res, err := m.store.UpsertLock(ctx, Condition{
		Resource:    resource,
		OwnerID:     ownerID,
		StaleBefore: now.Add(-lease),
	}, now)
	if err != nil {
		m.logStoreError("acquire", resource, ownerID, err)
		return false
	}

	if res.Inserted {
		m.logger.Debug("lock created",
			slog.String("resource", resource),
			slog.String("owner_id", ownerID),
		)
	}
	return res.Acquired()
}

// Release deletes resource if ownerID holds it. Releasing a lock held by
// someone else is a no-op that returns false.
func (m *Manager) Release(ctx context.Context, resource, ownerID string) bool {
	deleted, err := m.store.DeleteLock(ctx, resource, ownerID)
	if err != nil {
		m.logStoreError("release", resource, ownerID, err)
		return false
	}
	return deleted
}

// Verify reports whether ownerID currently holds resource. It does not
// consider the lease: a stale record still belongs to its owner until
// somebody takes it over.
func (m *Manager) Verify(ctx context.Context, resource, ownerID string) bool {
	held, _ := m.Holds(ctx, resource, ownerID)
	return held
}

// Holds is Verify with the store error kept. A missing record is not an
// error. Callers use the error to tell "someone else holds it" apart from
// "could not tell".
func (m *Manager) Holds(ctx context.Context, resource, ownerID string) (bool, error) {
	rec, err := m.store.GetLock(ctx, resource)
	if err != nil {
		if errors.Is(err, cronlock.ErrLockNotFound) {
			return false, nil
		}
		m.logStoreError("verify", resource, ownerID, err)
		return false, err
	}
	return rec.OwnerID == ownerID, nil
}

// Get returns the current record for resource.
func (m *Manager) Get(ctx context.Context, resource string) (*Record, error) {
	return m.store.GetLock(ctx, resource)
}

func (m *Manager) logStoreError(op, resource, ownerID string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, cronlock.ErrLockConflict) {
		level = slog.LevelDebug
	}
	m.logger.Log(context.Background(), level, "lock "+op+" failed",
		slog.String("resource", resource),
		slog.String("owner_id", ownerID),
		slog.String("error", err.Error()),
	)
}

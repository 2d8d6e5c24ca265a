package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/lock"
)

// UpsertLock implements lock.Store. The ON CONFLICT branch only fires when
// the existing row is ours or stale; otherwise no row is returned.
// xmax is zero for freshly inserted tuples.
func (s *Store) UpsertLock(ctx context.Context, cond lock.Condition, now time.Time) (lock.UpsertResult, error) {
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO cronlock_locks (resource, owner_id, acquired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (resource) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			acquired_at = EXCLUDED.acquired_at
		WHERE cronlock_locks.owner_id = EXCLUDED.owner_id
		   OR cronlock_locks.acquired_at < $4
		RETURNING (xmax = 0)`,
		cond.Resource, cond.OwnerID, now.UTC(), cond.StaleBefore.UTC(),
	).Scan(&inserted)
	if err != nil {
		if isNoRows(err) {
			return lock.UpsertResult{}, nil
		}
		return lock.UpsertResult{}, fmt.Errorf("cronlock/postgres: upsert lock: %w", err)
	}
	return lock.UpsertResult{Inserted: inserted, Matched: !inserted}, nil
}

// GetLock implements lock.Store.
func (s *Store) GetLock(ctx context.Context, resource string) (*lock.Record, error) {
	rec := &lock.Record{}
	err := s.pool.QueryRow(ctx, `
		SELECT resource, owner_id, acquired_at
		FROM cronlock_locks
		WHERE resource = $1`,
		resource,
	).Scan(&rec.Resource, &rec.OwnerID, &rec.AcquiredAt)
	if err != nil {
		if isNoRows(err) {
			return nil, cronlock.ErrLockNotFound
		}
		return nil, fmt.Errorf("cronlock/postgres: get lock: %w", err)
	}
	rec.AcquiredAt = rec.AcquiredAt.UTC()
	return rec, nil
}

// DeleteLock implements lock.Store.
func (s *Store) DeleteLock(ctx context.Context, resource, ownerID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cronlock_locks WHERE resource = $1 AND owner_id = $2`,
		resource, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("cronlock/postgres: delete lock: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/lock"
)

// UpsertLock implements lock.Store in two statements, each atomic on its
// own: an insert that yields on conflict, then an update filtered by the
// condition. A row written by a competitor between the two fails the
// update filter unless it is ours or already stale.
func (s *Store) UpsertLock(ctx context.Context, cond lock.Condition, now time.Time) (lock.UpsertResult, error) {
	res, err := s.db.NewInsert().
		Model(&lockModel{
			Resource:   cond.Resource,
			OwnerID:    cond.OwnerID,
			AcquiredAt: toMicros(now),
		}).
		On("CONFLICT (resource) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return lock.UpsertResult{}, fmt.Errorf("cronlock/bun: insert lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lock.UpsertResult{}, fmt.Errorf("cronlock/bun: insert lock: %w", err)
	}
	if n > 0 {
		return lock.UpsertResult{Inserted: true}, nil
	}

	res, err = s.db.NewUpdate().
		Model((*lockModel)(nil)).
		Set("owner_id = ?", cond.OwnerID).
		Set("acquired_at = ?", toMicros(now)).
		Where("resource = ?", cond.Resource).
		WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("owner_id = ?", cond.OwnerID).
				WhereOr("acquired_at < ?", toMicros(cond.StaleBefore))
		}).
		Exec(ctx)
	if err != nil {
		return lock.UpsertResult{}, fmt.Errorf("cronlock/bun: update lock: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return lock.UpsertResult{}, fmt.Errorf("cronlock/bun: update lock: %w", err)
	}
	return lock.UpsertResult{Matched: n > 0}, nil
}

// GetLock implements lock.Store.
func (s *Store) GetLock(ctx context.Context, resource string) (*lock.Record, error) {
	var m lockModel
	err := s.db.NewSelect().Model(&m).Where("resource = ?", resource).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cronlock.ErrLockNotFound
		}
		return nil, fmt.Errorf("cronlock/bun: get lock: %w", err)
	}
	return m.record(), nil
}

// DeleteLock implements lock.Store.
func (s *Store) DeleteLock(ctx context.Context, resource, ownerID string) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*lockModel)(nil)).
		Where("resource = ?", resource).
		Where("owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("cronlock/bun: delete lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cronlock/bun: delete lock: %w", err)
	}
	return n > 0, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
)

// UpsertRun implements ledger.Store.
func (s *Store) UpsertRun(ctx context.Context, alias string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cronlock_runs (alias, last_start_date, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (alias) DO UPDATE SET
			last_start_date = EXCLUDED.last_start_date,
			updated_at = NOW()`,
		alias, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("cronlock/postgres: upsert run: %w", err)
	}
	return nil
}

// GetRun implements ledger.Store.
func (s *Store) GetRun(ctx context.Context, alias string) (*ledger.Record, error) {
	rec := &ledger.Record{}
	err := s.pool.QueryRow(ctx,
		`SELECT alias, last_start_date FROM cronlock_runs WHERE alias = $1`,
		alias,
	).Scan(&rec.Alias, &rec.LastStartDate)
	if err != nil {
		if isNoRows(err) {
			return nil, cronlock.ErrRunNotFound
		}
		return nil, fmt.Errorf("cronlock/postgres: get run: %w", err)
	}
	rec.LastStartDate = rec.LastStartDate.UTC()
	return rec, nil
}

// ListRuns implements ledger.Store.
func (s *Store) ListRuns(ctx context.Context) ([]*ledger.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT alias, last_start_date FROM cronlock_runs ORDER BY alias ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("cronlock/postgres: list runs: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Record
	for rows.Next() {
		rec := &ledger.Record{}
		if scanErr := rows.Scan(&rec.Alias, &rec.LastStartDate); scanErr != nil {
			return nil, fmt.Errorf("cronlock/postgres: scan run row: %w", scanErr)
		}
		rec.LastStartDate = rec.LastStartDate.UTC()
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("cronlock/postgres: iterate run rows: %w", err)
	}
	return out, nil
}

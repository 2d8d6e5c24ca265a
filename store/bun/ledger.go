package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
)

// UpsertRun implements ledger.Store.
func (s *Store) UpsertRun(ctx context.Context, alias string, at time.Time) error {
	_, err := s.db.NewInsert().
		Model(&runModel{Alias: alias, LastStartDate: toMicros(at)}).
		On("CONFLICT (alias) DO UPDATE").
		Set("last_start_date = EXCLUDED.last_start_date").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("cronlock/bun: upsert run: %w", err)
	}
	return nil
}

// GetRun implements ledger.Store.
func (s *Store) GetRun(ctx context.Context, alias string) (*ledger.Record, error) {
	var m runModel
	err := s.db.NewSelect().Model(&m).Where("alias = ?", alias).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cronlock.ErrRunNotFound
		}
		return nil, fmt.Errorf("cronlock/bun: get run: %w", err)
	}
	return m.record(), nil
}

// ListRuns implements ledger.Store.
func (s *Store) ListRuns(ctx context.Context) ([]*ledger.Record, error) {
	var models []runModel
	err := s.db.NewSelect().Model(&models).OrderExpr("alias ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("cronlock/bun: list runs: %w", err)
	}

	out := make([]*ledger.Record, 0, len(models))
	for i := range models {
		out = append(out, models[i].record())
	}
	return out, nil
}

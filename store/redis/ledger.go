package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
)

// UpsertRun implements ledger.Store.
func (s *Store) UpsertRun(ctx context.Context, alias string, at time.Time) error {
	if err := s.client.HSet(ctx, runsKey, alias, at.UTC().UnixMicro()).Err(); err != nil {
		return fmt.Errorf("cronlock/redis: upsert run: %w", err)
	}
	return nil
}

// GetRun implements ledger.Store.
func (s *Store) GetRun(ctx context.Context, alias string) (*ledger.Record, error) {
	raw, err := s.client.HGet(ctx, runsKey, alias).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cronlock.ErrRunNotFound
		}
		return nil, fmt.Errorf("cronlock/redis: get run: %w", err)
	}
	return parseRun(alias, raw)
}

// ListRuns implements ledger.Store.
func (s *Store) ListRuns(ctx context.Context) ([]*ledger.Record, error) {
	vals, err := s.client.HGetAll(ctx, runsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("cronlock/redis: list runs: %w", err)
	}

	out := make([]*ledger.Record, 0, len(vals))
	for alias, raw := range vals {
		rec, parseErr := parseRun(alias, raw)
		if parseErr != nil {
			return nil, parseErr
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

func parseRun(alias, raw string) (*ledger.Record, error) {
	us, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cronlock/redis: parse run %q: %w", alias, err)
	}
	return &ledger.Record{Alias: alias, LastStartDate: time.UnixMicro(us).UTC()}, nil
}

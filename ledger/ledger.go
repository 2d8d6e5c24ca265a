// Package ledger persists when each cron job last started.
//
// The ledger holds one record per job alias and is written immediately
// before a handler is invoked. A replica that takes over scheduling reads
// it to compute every job's next run, so a crash mid-run still leaves an
// accurate last-known start behind. It is not an audit log: only the most
// recent start is kept.
package ledger

import (
	"context"
	"time"
)

// Record is the last start of one job.
type Record struct {
	Alias         string    `json:"alias"`
	LastStartDate time.Time `json:"last_start_date"`
}

// NextRun returns when a job with the given interval is next due.
func (r *Record) NextRun(interval time.Duration) time.Time {
	return r.LastStartDate.Add(interval)
}

// Store defines the persistence contract for run records.
type Store interface {
	// UpsertRun sets the last start of alias to at, creating the record
	// when missing.
	UpsertRun(ctx context.Context, alias string, at time.Time) error

	// GetRun returns the record for alias or cronlock.ErrRunNotFound.
	GetRun(ctx context.Context, alias string) (*Record, error)

	// ListRuns returns every record ordered by alias.
	ListRuns(ctx context.Context) ([]*Record, error)
}

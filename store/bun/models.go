package bunstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
)

type lockModel struct {
	bun.BaseModel `bun:"table:cronlock_locks"`

	Resource   string `bun:"resource,pk"`
	OwnerID    string `bun:"owner_id,notnull"`
	AcquiredAt int64  `bun:"acquired_at,notnull"`
}

func (m *lockModel) record() *lock.Record {
	return &lock.Record{
		Resource:   m.Resource,
		OwnerID:    m.OwnerID,
		AcquiredAt: fromMicros(m.AcquiredAt),
	}
}

type runModel struct {
	bun.BaseModel `bun:"table:cronlock_runs"`

	Alias         string `bun:"alias,pk"`
	LastStartDate int64  `bun:"last_start_date,notnull"`
}

func (m *runModel) record() *ledger.Record {
	return &ledger.Record{
		Alias:         m.Alias,
		LastStartDate: fromMicros(m.LastStartDate),
	}
}

type migrationModel struct {
	bun.BaseModel `bun:"table:cronlock_migrations"`

	Name      string `bun:"name,pk"`
	AppliedAt int64  `bun:"applied_at,notnull"`
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

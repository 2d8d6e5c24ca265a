package mongo

import (
	"time"

	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
)

type lockModel struct {
	Resource   string    `bson:"_id"`
	OwnerID    string    `bson:"owner_id"`
	AcquiredAt time.Time `bson:"acquired_at"`
}

func (m *lockModel) record() *lock.Record {
	return &lock.Record{
		Resource:   m.Resource,
		OwnerID:    m.OwnerID,
		AcquiredAt: m.AcquiredAt.UTC(),
	}
}

type runModel struct {
	Alias         string    `bson:"_id"`
	LastStartDate time.Time `bson:"last_start_date"`
}

func (m *runModel) record() *ledger.Record {
	return &ledger.Record{
		Alias:         m.Alias,
		LastStartDate: m.LastStartDate.UTC(),
	}
}

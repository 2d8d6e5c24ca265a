package lock

import (
	"context"
	"time"
)

// Record is the persisted state of one named lock.
type Record struct {
	Resource   string    `json:"resource"`
	OwnerID    string    `json:"owner_id"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// StaleAt returns the instant after which r may be taken over.
func (r *Record) StaleAt(lease time.Duration) time.Time {
	return r.AcquiredAt.Add(lease)
}

// Condition selects which existing record an upsert may overwrite: one
// already owned by OwnerID, or one acquired strictly before StaleBefore.
type Condition struct {
	Resource    string
	OwnerID     string
	StaleBefore time.Time
}

// Matches reports whether r satisfies c. Backends without a native
// filtered update evaluate the condition with this method.
func (c Condition) Matches(r *Record) bool {
	if r == nil || r.Resource != c.Resource {
		return false
	}
	return r.OwnerID == c.OwnerID || r.AcquiredAt.Before(c.StaleBefore)
}

// UpsertResult reports what a conditional upsert did.
type UpsertResult struct {
	// Inserted is true when no record existed and one was created.
	Inserted bool
	// Matched is true when an existing record satisfied the condition and
	// was overwritten.
	Matched bool
}

// Acquired reports whether the caller now owns the lock.
func (u UpsertResult) Acquired() bool { return u.Inserted || u.Matched }

// Store is the conditional record store behind the lock manager.
//
// UpsertLock must be a single atomic operation: when a record for
// cond.Resource exists and satisfies cond it is rewritten with
// OwnerID=cond.OwnerID and AcquiredAt=now; when none exists one is
// inserted; otherwise nothing changes and the zero UpsertResult is
// returned. A concurrent insert that wins the race may surface as
// cronlock.ErrLockConflict.
type Store interface {
	UpsertLock(ctx context.Context, cond Condition, now time.Time) (UpsertResult, error)

	// GetLock returns the record for resource or cronlock.ErrLockNotFound.
	GetLock(ctx context.Context, resource string) (*Record, error)

	// DeleteLock removes the record only when ownerID owns it and reports
	// whether a record was deleted.
	DeleteLock(ctx context.Context, resource, ownerID string) (bool, error)
}

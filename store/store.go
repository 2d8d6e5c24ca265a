// Package store defines the aggregate persistence interface. The lock and
// ledger packages each define their own store contract; a backend
// implements both plus lifecycle methods. Backends: Memory, Postgres, Bun,
// Redis and Mongo. The Kubernetes backend under store/k8s only implements
// lock.Store and is paired with another backend for the ledger.
package store

import (
	"context"

	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
)

// Store is the aggregate persistence interface.
type Store interface {
	lock.Store
	ledger.Store

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close() error
}

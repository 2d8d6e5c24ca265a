package bunstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/xraph/cronlock/store"
	bunstore "github.com/xraph/cronlock/store/bun"
	"github.com/xraph/cronlock/store/storetest"
)

var dbSeq atomic.Int64

// newSQLiteStore returns a migrated store on a private in-memory SQLite
// database. A single connection serialises writers the way SQLite does
// anyway and keeps the shared-cache database alive.
func newSQLiteStore(t *testing.T) *bunstore.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:cronlock_%d?mode=memory&cache=shared", dbSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	s := bunstore.New(db, bunstore.WithLogger(slog.Default()))
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestSQLite_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newSQLiteStore(t) })
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var n int
	if err := s.DB().NewSelect().Table("cronlock_migrations").ColumnExpr("COUNT(*)").Scan(ctx, &n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 2 {
		t.Errorf("recorded migrations = %d, want 2", n)
	}
}

func TestSQLite_PingAndClose(t *testing.T) {
	s := newSQLiteStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close leaves the caller's handle usable.
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping after close: %v", err)
	}
}

// Package bunstore implements store.Store using the Bun ORM. It runs on
// both the PostgreSQL and SQLite dialects.
//
// The caller owns the *bun.DB lifecycle; bunstore never closes it:
//
//	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
//	db := bun.NewDB(sqldb, pgdialect.New())
//	s := bunstore.New(db)
//	if err := s.Migrate(ctx); err != nil { ... }
//
// Timestamps are stored as Unix microseconds so the stale-lease comparison
// behaves the same on every dialect.
package bunstore

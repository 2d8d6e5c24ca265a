// Package postgres implements store.Store on PostgreSQL with pgx/v5 and
// raw SQL.
//
// Lock acquisition is one INSERT … ON CONFLICT DO UPDATE … WHERE statement,
// so the conditional upsert is atomic under concurrent callers without
// explicit transactions. The schema ships as embedded SQL migrations
// tracked in cronlock_migrations.
package postgres

package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/cronlock/store"
)

var _ store.Store = (*Store)(nil)

// Store is a Bun ORM implementation of store.Store.
type Store struct {
	db     *bun.DB
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new Bun store. The caller owns the db lifecycle.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *bun.DB for advanced usage.
func (s *Store) DB() *bun.DB {
	return s.db
}

// migration is one named schema step. Steps are built from the models so
// the same list runs on every dialect.
type migration struct {
	name string
	up   func(ctx context.Context, db bun.IDB) error
}

var migrations = []migration{
	{name: "001_create_locks", up: createTable((*lockModel)(nil))},
	{name: "002_create_runs", up: createTable((*runModel)(nil))},
}

func createTable(model any) func(context.Context, bun.IDB) error {
	return func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		return err
	}
}

// Migrate applies every migration step not yet recorded in
// cronlock_migrations, in order.
func (s *Store) Migrate(ctx context.Context) error {
	if err := createTable((*migrationModel)(nil))(ctx, s.db); err != nil {
		return fmt.Errorf("cronlock/bun: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var rec migrationModel
		err := s.db.NewSelect().Model(&rec).Where("name = ?", m.name).Scan(ctx)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("cronlock/bun: check migration %s: %w", m.name, err)
		}

		err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if upErr := m.up(ctx, tx); upErr != nil {
				return upErr
			}
			_, insErr := tx.NewInsert().Model(&migrationModel{
				Name:      m.name,
				AppliedAt: toMicros(time.Now()),
			}).Exec(ctx)
			return insErr
		})
		if err != nil {
			return fmt.Errorf("cronlock/bun: apply migration %s: %w", m.name, err)
		}

		s.logger.Info("applied migration", slog.String("name", m.name))
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op because the caller owns the *bun.DB lifecycle.
func (s *Store) Close() error {
	return nil
}

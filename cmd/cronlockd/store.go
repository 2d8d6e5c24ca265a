package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/xraph/cronlock/lock"
	"github.com/xraph/cronlock/store"
	bunstore "github.com/xraph/cronlock/store/bun"
	k8sstore "github.com/xraph/cronlock/store/k8s"
	"github.com/xraph/cronlock/store/memory"
	mongostore "github.com/xraph/cronlock/store/mongo"
	pgstore "github.com/xraph/cronlock/store/postgres"
	redisstore "github.com/xraph/cronlock/store/redis"
)

// openStore connects the configured backend. cleanup releases client
// handles the store does not own and is safe to call after Close.
func openStore(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (s store.Store, cleanup func(), err error) {
	noop := func() {}

	switch cfg.Driver {
	case "memory":
		return memory.New(), noop, nil

	case "postgres":
		pg, err := pgstore.New(ctx, cfg.DSN, pgstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return pg, noop, nil

	case "bun-postgres":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db := bun.NewDB(sqldb, pgdialect.New())
		return bunstore.New(db, bunstore.WithLogger(logger)), func() { _ = db.Close() }, nil

	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		db := bun.NewDB(sqldb, sqlitedialect.New())
		return bunstore.New(db, bunstore.WithLogger(logger)), func() { _ = db.Close() }, nil

	case "redis":
		opts, err := goredis.ParseURL(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := goredis.NewClient(opts)
		return redisstore.New(client, redisstore.WithLogger(logger)), func() { _ = client.Close() }, nil

	case "mongo":
		client, err := mongod.Connect(options.Client().ApplyURI(cfg.DSN))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		s := mongostore.New(client.Database(cfg.Database), mongostore.WithLogger(logger))
		return s, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openLockStore returns nil when locks live in the main store.
func openLockStore(cfg LocksConfig, logger *slog.Logger) (lock.Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "k8s":
		// An empty kubeconfig falls back to the in-cluster config.
		restCfg, err := clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("load kubernetes config: %w", err)
		}
		client, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			return nil, fmt.Errorf("create kubernetes client: %w", err)
		}
		return k8sstore.New(client, cfg.Namespace, k8sstore.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown lock driver %q", cfg.Driver)
	}
}

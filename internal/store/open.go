// Package store opens the configured entity store backend.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/cadastre/internal/config"
	"github.com/JonMunkholm/cadastre/internal/core"
	"github.com/JonMunkholm/cadastre/internal/store/memstore"
	"github.com/JonMunkholm/cadastre/internal/store/postgres"
	"github.com/JonMunkholm/cadastre/internal/store/sqlite"
)

// Backend runs a function inside one storage transaction.
type Backend interface {
	WithinTx(ctx context.Context, fn func(core.EntityStore) (bool, error)) error
}

// Handle is an open backend with its lifecycle hooks.
type Handle struct {
	Backend Backend
	Ping    func(ctx context.Context) error
	Close   func()

	// Name identifies the database for logs; never contains credentials.
	Name string
}

// Open connects to the backend selected by cfg.Driver. The memory backend is
// built from the registered descriptors, so register them first.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		return openPostgres(ctx, cfg)
	case "sqlite":
		return openSQLite(ctx, cfg)
	case "memory":
		return &Handle{
			Backend: memstore.FromDescriptors(core.All()),
			Close:   func() {},
			Name:    "memory",
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	name := "postgres"
	if u, err := url.Parse(cfg.URL); err == nil {
		name = "postgres/" + strings.TrimPrefix(u.Path, "/")
	}

	backend := postgres.NewBackend(pool)
	return &Handle{Backend: backend, Ping: backend.Ping, Close: pool.Close, Name: name}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return &Handle{
		Backend: db,
		Ping:    db.PingContext,
		Close:   func() { db.Close() },
		Name:    "sqlite/" + cfg.SQLitePath,
	}, nil
}

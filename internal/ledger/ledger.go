// Package ledger implements the pending and archive tables behind
// core.Gateway.
//
// Two drivers exist:
//
//   - file: .xlsx workbooks (excelize) or .csv files in one directory
//   - postgres: named tables in ledger_tables / ledger_rows (pgx), which
//     also implements core.Committer so a batch is persisted atomically
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Drivers accepted by Open.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver       string
	Dir          string
	ArchiveSheet string

	DatabaseURL     string
	MaxConns        int
	MaxConnLifetime time.Duration
}

// Backend is a gateway that holds resources until closed.
type Backend interface {
	core.Gateway
	Close()
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Driver {
	case "", DriverFile:
		store, err := NewFileStore(opts.Dir, opts.ArchiveSheet, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("ledger opened", "driver", DriverFile, "dir", store.Dir())
		return store, nil

	case DriverPostgres:
		return openPostgres(ctx, opts, logger)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// Close is a no-op; FileStore holds no open handles between calls.
func (s *FileStore) Close() {}

func openPostgres(ctx context.Context, opts Options, logger *slog.Logger) (*PostgresStore, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("storage driver %s requires DATABASE_URL", DriverPostgres)
	}

	poolConfig, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := NewPostgresStore(pool, logger)
	store.ownsPool = true
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("ledger opened", "driver", DriverPostgres, "database", poolConfig.ConnConfig.Database)
	return store, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the two tables the Postgres backend uses. Every named
// ledger table is one ledger_tables row plus its ledger_rows.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_tables (
    name       TEXT PRIMARY KEY,
    header     TEXT[] NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ledger_rows (
    table_name TEXT NOT NULL REFERENCES ledger_tables(name) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    cells      TEXT[] NOT NULL,
    PRIMARY KEY (table_name, position)
);
`

// PostgresStore is a core.Gateway and core.Committer backed by Postgres.
type PostgresStore struct {
	pool     *pgxpool.Pool
	ownsPool bool
	logger   *slog.Logger
}

// NewPostgresStore wraps an open pool. The caller owns the pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "ledger", "driver", "postgres"),
	}
}

// Close releases the pool when the store opened it itself.
func (s *PostgresStore) Close() {
	if s.ownsPool {
		s.pool.Close()
	}
}

// Migrate creates the ledger tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

// Load reads a table in position order.
func (s *PostgresStore) Load(ctx context.Context, name string) (core.Dataset, error) {
	var header []string
	err := s.pool.QueryRow(ctx, `SELECT header FROM ledger_tables WHERE name = $1`, name).Scan(&header)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Dataset{}, fmt.Errorf("%s: %w", name, core.ErrSourceNotFound)
	}
	if err != nil {
		return core.Dataset{}, fmt.Errorf("load %s header: %w", name, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT cells FROM ledger_rows WHERE table_name = $1 ORDER BY position`, name)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("load %s rows: %w", name, err)
	}
	cells, err := pgx.CollectRows(rows, pgx.RowTo[[]string])
	if err != nil {
		return core.Dataset{}, fmt.Errorf("load %s rows: %w", name, err)
	}

	ds := core.Dataset{Header: core.Header(header), Rows: make([]core.Row, len(cells))}
	for i, c := range cells {
		ds.Rows[i] = core.Row(c)
	}
	return ds, nil
}

// Save overwrites the table with ds in one transaction.
func (s *PostgresStore) Save(ctx context.Context, name string, ds core.Dataset) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return replaceTable(ctx, tx, name, ds)
	})
}

// Append adds rows after the table's existing rows in one transaction.
func (s *PostgresStore) Append(ctx context.Context, name string, header core.Header, rows []core.Row) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return appendTable(ctx, tx, name, header, rows)
	})
}

// Commit appends sent to archive and replaces source with remaining in a
// single transaction, so the two tables never disagree.
func (s *PostgresStore) Commit(ctx context.Context, source string, remaining core.Dataset, archive string, sent []core.Row) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := appendTable(ctx, tx, archive, remaining.Header, sent); err != nil {
			return err
		}
		return replaceTable(ctx, tx, source, remaining)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("batch committed", "source", source, "remaining", remaining.Len(), "archive", archive, "sent", len(sent))
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func replaceTable(ctx context.Context, tx pgx.Tx, name string, ds core.Dataset) error {
	header := []string(ds.Header)
	if header == nil {
		header = []string{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_tables (name, header) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET header = EXCLUDED.header, updated_at = now()`,
		name, header)
	if err != nil {
		return fmt.Errorf("save %s header: %w", name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_rows WHERE table_name = $1`, name); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}

	return copyRows(ctx, tx, name, 0, ds.Rows)
}

func appendTable(ctx context.Context, tx pgx.Tx, name string, header core.Header, rows []core.Row) error {
	h := []string(header)
	if h == nil {
		h = []string{}
	}
	// Existing headers are kept verbatim; the row lock serialises appends.
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_tables (name, header) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET updated_at = now()`,
		name, h)
	if err != nil {
		return fmt.Errorf("append %s header: %w", name, err)
	}

	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM ledger_rows WHERE table_name = $1`, name).Scan(&next)
	if err != nil {
		return fmt.Errorf("append %s position: %w", name, err)
	}

	return copyRows(ctx, tx, name, next, rows)
}

// copyRows bulk-loads rows with the COPY protocol starting at position start.
func copyRows(ctx context.Context, tx pgx.Tx, name string, start int, rows []core.Row) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ledger_rows"},
		[]string{"table_name", "position", "cells"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{name, int32(start + i), []string(rows[i])}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy rows into %s: %w", name, err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy rows into %s: wrote %d of %d", name, n, len(rows))
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for duplicate keys.
const pgUniqueViolation = "23505"

// PgxPool is the subset of pgxpool.Pool the backend needs. pgxmock
// implements it, which is how the Postgres paths are tested without a
// server.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresDB implements DB over a pgx connection pool.
type PostgresDB struct {
	pool PgxPool
}

// OpenPostgres connects a pool for the given DSN.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresDB{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, primarily for tests.
func NewPostgresWithPool(pool PgxPool) *PostgresDB {
	return &PostgresDB{pool: pool}
}

// Exec runs a statement, translating unique-key errors.
func (d *PostgresDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := d.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPgError(err)
	}
	return tag.RowsAffected(), nil
}

// Query runs a statement returning rows.
func (d *PostgresDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError(err)
	}
	return pgxRows{rows: rows}, nil
}

// Begin opens a transaction.
func (d *PostgresDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &pgxTx{tx: tx}, nil
}

// Close releases the pool.
func (d *PostgresDB) Close() error {
	d.pool.Close()
	return nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgxTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError(err)
	}
	return pgxRows{rows: rows}, nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

type pgxRows struct {
	rows pgx.Rows
}

func (r pgxRows) Next() bool { return r.rows.Next() }

func (r pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) } //nolint:wrapcheck

func (r pgxRows) Err() error { return r.rows.Err() } //nolint:wrapcheck

func (r pgxRows) Close() error { r.rows.Close(); return nil }

func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("constraint %s: %w", pgErr.ConstraintName, ErrUniqueViolation)
	}
	return err
}

// Package storage persists athletes and clubs into a relational store. The
// backend distinction (Postgres in production, embedded SQLite for local
// runs and tests) is hidden behind the DB capability: callers write
// $n-placeholder SQL and the backends translate internally.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrUniqueViolation classifies a rejected write that would duplicate a
// unique key. Backends translate their driver-specific errors into this so
// the store can apply one policy for both.
var ErrUniqueViolation = errors.New("unique constraint violation")

// DB is the backend capability. One implementation per backend; every
// query in this package goes through it.
type DB interface {
	// Exec runs a statement and returns the number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement returning rows.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	// Begin opens a transaction.
	Begin(ctx context.Context) (Tx, error)
	// Close releases the backend's resources.
	Close() error
}

// Rows iterates a query result.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Tx is an open transaction. SAVEPOINT statements issued through Exec work
// on both backends, which is what the store's skip-and-continue policy
// relies on.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Open connects the named backend. Supported drivers: "postgres", "sqlite".
func Open(ctx context.Context, driver, dsn string) (DB, error) {
	switch driver {
	case "postgres":
		return OpenPostgres(ctx, dsn)
	case "sqlite":
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

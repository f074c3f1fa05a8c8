package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"modernc.org/sqlite"
)

// sqliteConstraint is the primary SQLite result code for constraint
// failures; extended codes share its low byte.
const sqliteConstraint = 19

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// SQLiteDB implements DB over the embedded modernc driver. It translates
// the package's $n placeholders to the ? form the driver binds. The
// translation assumes placeholders appear in argument order and each is
// used once, which holds for every query in this package.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a database file; ":memory:" works for
// tests. A single connection is kept so in-memory databases survive
// between statements.
func OpenSQLite(path string) (*SQLiteDB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Exec runs a statement, translating unique-key errors.
func (d *SQLiteDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, translate(query), args...)
	if err != nil {
		return 0, classifySQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Query runs a statement returning rows.
func (d *SQLiteDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := d.db.QueryContext(ctx, translate(query), args...)
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	return rows, nil
}

// Begin opens a transaction.
func (d *SQLiteDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &sqliteTx{tx: tx}, nil
}

// Close closes the database.
func (d *SQLiteDB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, translate(query), args...)
	if err != nil {
		return 0, classifySQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (t *sqliteTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, translate(query), args...)
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	return rows, nil
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	_ = ctx
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *sqliteTx) Rollback(ctx context.Context) error {
	_ = ctx
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func translate(query string) string {
	return dollarPlaceholder.ReplaceAllString(query, "?")
}

func classifySQLiteError(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code()&0xff == sqliteConstraint {
		return fmt.Errorf("%s: %w", serr.Error(), ErrUniqueViolation)
	}
	return err
}

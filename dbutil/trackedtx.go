package dbutil

import (
	"context"
	"database/sql"
)

// Tx remembers whether it's been finished, so callers can defer
// MaybeRollback and still Commit on the happy path.  Queries are rebound for
// the database's dialect.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func NewTx(ctx context.Context, db *DB, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, dialect: db.Dialect}, nil
}

func (tt *Tx) MaybeRollback() {
	if tt.tx != nil {
		tt.tx.Rollback()
		tt.tx = nil
	}
}

func (tt *Tx) Commit() error {
	err := tt.tx.Commit()
	if err == nil {
		tt.tx = nil
	}
	return err
}

func (tt *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return tt.tx.QueryRowContext(ctx, tt.dialect.Rebind(query), args...)
}

func (tt *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tt.tx.ExecContext(ctx, tt.dialect.Rebind(query), args...)
}

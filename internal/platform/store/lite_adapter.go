package store

import (
	"context"
	"database/sql"
	"errors"
)

// liteAdapter wraps *sql.DB (sqlite) and implements RowQuerier + TxRunner
type liteAdapter struct {
	db *sql.DB
}

func newLiteAdapter(db *sql.DB) *liteAdapter { return &liteAdapter{db: db} }

// NewLite wraps an already opened sqlite handle, mainly for tests
func NewLite(db *sql.DB) TxRunner { return newLiteAdapter(db) }

func (a *liteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.db.PingContext(ctx)
}

func (a *liteAdapter) Close() error { return a.db.Close() }

func (a *liteAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, a.db, q, args...)
}

func (a *liteAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, a.db, q, args...)
}

func (a *liteAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqlRow{r: a.db.QueryRowContext(ctx, q, args...)}
}

func (a *liteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlTxQuerier{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sqlConn is the part of *sql.DB and *sql.Tx the adapters use
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqlExec(ctx context.Context, c sqlConn, q string, args ...any) (CommandTag, error) {
	res, err := c.ExecContext(ctx, q, args...)
	if err != nil {
		return sqlTag{}, err
	}
	n, _ := res.RowsAffected()
	return sqlTag{n: n}, nil
}

func sqlQuery(ctx context.Context, c sqlConn, q string, args ...any) (Rows, error) {
	rs, err := c.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

type sqlTxQuerier struct{ tx *sql.Tx }

func (t sqlTxQuerier) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, t.tx, q, args...)
}

func (t sqlTxQuerier) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, t.tx, q, args...)
}

func (t sqlTxQuerier) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqlRow{r: t.tx.QueryRowContext(ctx, q, args...)}
}

type sqlRow struct{ r *sql.Row }

func (x sqlRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
func (x sqlRows) Columns() []string {
	cols, _ := x.r.Columns()
	return cols
}

type sqlTag struct{ n int64 }

func (t sqlTag) String() string      { return "" }
func (t sqlTag) RowsAffected() int64 { return t.n }

package repo

import (
	"context"
	"errors"
	"fmt"

	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/store"
	"basematch/internal/services/decisions/domain"
)

// Dialect selects placeholder syntax for the sql KV
type Dialect int

// Supported dialects
const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// SQL is a KV over a single table, shared by the sqlite and postgres backends
type SQL struct {
	db      store.TxRunner
	dialect Dialect
	table   string
}

var (
	_ domain.KV       = (*SQL)(nil)
	_ domain.Migrator = (*SQL)(nil)
)

// NewSQL binds the KV to db; table defaults to basematch_kv
func NewSQL(db store.TxRunner, d Dialect, table string) *SQL {
	if db == nil {
		panic("repo.NewSQL requires a non nil TxRunner")
	}
	if table == "" {
		table = "basematch_kv"
	}
	return &SQL{db: db, dialect: d, table: table}
}

func (s *SQL) ph(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQL) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if s.dialect == Postgres {
		return perr.WithOp(perr.FromPostgres(err, "kv "+op), "decisions.kv."+op)
	}
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeDB, "kv "+op), "decisions.kv."+op)
}

// Migrate creates the table when missing
func (s *SQL) Migrate(ctx context.Context) error {
	ts := "TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if s.dialect == Postgres {
		ts = "TIMESTAMPTZ NOT NULL DEFAULT now()"
	}
	_, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL,
		updated_at %s
	)`, s.table, ts))
	return s.wrap(err, "migrate")
}

// Get returns the value under key
func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT v FROM %s WHERE k = %s`, s.table, s.ph(1)), key).Scan(&v)
	if errors.Is(err, store.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap(err, "get")
	}
	return v, true, nil
}

// Set upserts entries in one transaction
func (s *SQL) Set(ctx context.Context, entries ...domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	now := "CURRENT_TIMESTAMP"
	if s.dialect == Postgres {
		now = "now()"
	}
	q := fmt.Sprintf(`INSERT INTO %s (k, v) VALUES (%s, %s)
		ON CONFLICT (k) DO UPDATE SET v = excluded.v, updated_at = %s`, s.table, s.ph(1), s.ph(2), now)
	err := s.db.Tx(ctx, func(tx store.RowQuerier) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, q, e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	})
	return s.wrap(err, "set")
}

// Remove deletes keys in one transaction
func (s *SQL) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE k = %s`, s.table, s.ph(1))
	err := s.db.Tx(ctx, func(tx store.RowQuerier) error {
		for _, k := range keys {
			if _, err := tx.Exec(ctx, q, k); err != nil {
				return err
			}
		}
		return nil
	})
	return s.wrap(err, "remove")
}

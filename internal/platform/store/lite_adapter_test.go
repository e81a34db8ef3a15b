package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"basematch/internal/platform/store/lite"
)

func openTestLite(t *testing.T) TxRunner {
	t.Helper()
	db, err := lite.Open(context.Background(), lite.Config{Path: filepath.Join(t.TempDir(), "store.db")})
	if err != nil {
		t.Fatalf("lite.Open: %v", err)
	}
	a := NewLite(db)
	t.Cleanup(func() { _ = db.Close() })
	return a
}

func TestLiteAdapter_ExecQueryRow(t *testing.T) {
	ctx := context.Background()
	a := openTestLite(t)

	if _, err := a.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	tag, err := a.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?), (?, ?)`, "a", "1", "b", "2")
	if err != nil || tag.RowsAffected() != 2 {
		t.Fatalf("insert: %v affected=%d", err, tag.RowsAffected())
	}

	var v string
	if err := a.QueryRow(ctx, `SELECT v FROM kv WHERE k = ?`, "b").Scan(&v); err != nil || v != "2" {
		t.Fatalf("QueryRow = %q, %v", v, err)
	}
	if err := a.QueryRow(ctx, `SELECT v FROM kv WHERE k = ?`, "zzz").Scan(&v); !errors.Is(err, ErrNoRows) {
		t.Fatalf("missing row err = %v, want ErrNoRows", err)
	}

	rows, err := a.Query(ctx, `SELECT k, v FROM kv ORDER BY k`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	if cols := rows.Columns(); len(cols) != 2 || cols[0] != "k" {
		t.Fatalf("Columns = %v", cols)
	}
	n := 0
	for rows.Next() {
		n++
	}
	if n != 2 || rows.Err() != nil {
		t.Fatalf("iterated %d rows, err=%v", n, rows.Err())
	}
}

func TestLiteAdapter_TxRollsBack(t *testing.T) {
	ctx := context.Background()
	a := openTestLite(t)
	if _, err := a.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := a.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO kv (k, v) VALUES ('a', '1')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx err = %v", err)
	}
	var n int
	if err := a.QueryRow(ctx, `SELECT count(*) FROM kv`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("rollback left %d rows (%v)", n, err)
	}

	if err := a.Tx(ctx, func(q RowQuerier) error {
		_, err := q.Exec(ctx, `INSERT INTO kv (k, v) VALUES ('a', '1')`)
		return err
	}); err != nil {
		t.Fatalf("commit Tx: %v", err)
	}
	if err := a.QueryRow(ctx, `SELECT count(*) FROM kv`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("commit left %d rows (%v)", n, err)
	}
}

func TestLiteAdapter_Ping(t *testing.T) {
	a := openTestLite(t)
	p, ok := a.(Pinger)
	if !ok {
		t.Fatalf("lite adapter should be a Pinger")
	}
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

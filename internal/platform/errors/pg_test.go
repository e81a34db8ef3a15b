package errors

import (
	"context"
	stderrs "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pg(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeConflict},
		{"22001", ErrorCodeInvalidArgument},
		{"22P02", ErrorCodeInvalidArgument},
		{"40001", ErrorCodeDB},
		{"25006", ErrorCodeUnavailable},
		{"57P03", ErrorCodeUnavailable},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pg(c.code))
		if !ok {
			t.Fatalf("expected ok for PgError code %s", c.code)
		}
		if got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v, want %v", c.code, got, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("DBErrorCode should return ok=false for non-pg error")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("FromPostgres(nil) should be nil")
	}
	if err := FromPostgres(pg("57P03"), "kv get"); CodeOf(err) != ErrorCodeUnavailable {
		t.Fatalf("FromPostgres code = %v", CodeOf(err))
	}
	if err := FromPostgres(stderrs.New("socket closed"), "kv get"); CodeOf(err) != ErrorCodeDB {
		t.Fatalf("FromPostgres non-pg code = %v", CodeOf(err))
	}
	if !IsUndefinedTable(Wrap(pg("42P01"), ErrorCodeDB, "select")) {
		t.Fatalf("IsUndefinedTable should see through wraps")
	}
}

func TestIsRetryable(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		if !IsRetryable(pg(code)) {
			t.Fatalf("%s should be retryable", code)
		}
	}
	if IsRetryable(pg("23505")) {
		t.Fatalf("23505 should not be retryable")
	}
	if !IsRetryable(stderrs.New("SQLITE_BUSY: database is locked")) {
		t.Fatalf("sqlite busy should be retryable")
	}
	if IsRetryable(context.Canceled) || IsRetryable(nil) {
		t.Fatalf("cancel and nil are not retryable")
	}
}

// Package repo holds commit journal backends
package repo

import (
	"context"
	"time"

	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/store"
	dom "basematch/internal/services/commit/domain"
)

// Table is the clickhouse table attempts are appended to
const Table = "commit_attempts"

// DDL creates Table; applied by operators, the service only appends
const DDL = `CREATE TABLE IF NOT EXISTS commit_attempts (
  id          String,
  started_at  DateTime64(3, 'UTC'),
  finished_at DateTime64(3, 'UTC'),
  size        UInt32,
  strategy    LowCardinality(String),
  outcome     LowCardinality(String),
  tried       Array(String),
  tx_id       String,
  error       String
) ENGINE = MergeTree ORDER BY (started_at, id)`

// ClickHouse appends attempts to the commit_attempts table
type ClickHouse struct {
	ch    store.Clickhouse
	table string
}

var _ dom.Journal = (*ClickHouse)(nil)

// NewClickHouse binds the journal to a clickhouse seam
func NewClickHouse(ch store.Clickhouse) *ClickHouse {
	if ch == nil {
		panic("commit repo: nil clickhouse")
	}
	return &ClickHouse{ch: ch, table: Table}
}

// Row is the column-ordered insert row for a
func Row(a dom.Attempt) []any {
	tried := a.Tried
	if tried == nil {
		tried = []string{}
	}
	return []any{
		a.ID,
		a.StartedAt.UTC(),
		a.FinishedAt.UTC(),
		uint32(a.Payload.Len()),
		a.Strategy,
		string(a.Outcome),
		tried,
		a.TxID,
		a.Error,
	}
}

// Record implements domain.Journal
func (j *ClickHouse) Record(ctx context.Context, a dom.Attempt) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := j.ch.Insert(ctx, j.table, [][]any{Row(a)}); err != nil {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "journal attempt"), "commit.journal")
	}
	return nil
}

// Discard drops every attempt; used when no journal is configured
type Discard struct{}

// Record implements domain.Journal
func (Discard) Record(context.Context, dom.Attempt) error { return nil }

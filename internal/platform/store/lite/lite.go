// Package lite opens the embedded sqlite database (pure Go driver, no cgo)
package lite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Config configures the sqlite database
type Config struct {
	// Path is a file path or ":memory:"
	Path string
}

// DSN builds the driver dsn with WAL and a busy timeout so concurrent writers wait instead of failing
func DSN(path string) string {
	path = strings.TrimSpace(path)
	if path == ":memory:" {
		// one shared in-memory database per process rather than one per connection
		return "file::memory:?cache=shared&_pragma=busy_timeout(5000)"
	}
	return "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// Open opens and pings the database
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", DSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// sqlite allows a single writer; serialize at the pool
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// Package domain holds the decision store contracts
package domain

import "context"

// Entry is one key/value pair written by KV.Set
type Entry struct {
	Key   string
	Value string
}

// KV is the durable key/value contract the decision store persists through.
// Set writes all entries atomically; Remove ignores missing keys
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, entries ...Entry) error
	Remove(ctx context.Context, keys ...string) error
}

// Migrator is implemented by backends that need a schema before first use
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Record is the persisted queue layout: two index-aligned arrays
type Record struct {
	Addrs []string `json:"addrs"`
	Likes []bool   `json:"likes"`
}

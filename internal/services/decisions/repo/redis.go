package repo

import (
	"context"
	"errors"

	perr "basematch/internal/platform/errors"
	"basematch/internal/services/decisions/domain"

	"github.com/redis/go-redis/v9"
)

// Redis is a KV over plain redis strings
type Redis struct {
	c redis.Cmdable
}

var _ domain.KV = (*Redis)(nil)

// NewRedis binds the KV to a redis client
func NewRedis(c redis.Cmdable) *Redis {
	if c == nil {
		panic("repo.NewRedis requires a non nil client")
	}
	return &Redis{c: c}
}

// Get returns the value under key
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, perr.Wrap(err, perr.ErrorCodeUnavailable, "redis get")
	}
	return v, true, nil
}

// Set writes entries in a MULTI/EXEC block
func (r *Redis) Set(ctx context.Context, entries ...domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, e := range entries {
			p.Set(ctx, e.Key, e.Value, 0)
		}
		return nil
	})
	return perr.WrapIf(err, perr.ErrorCodeUnavailable, "redis set")
}

// Remove deletes keys
func (r *Redis) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return perr.WrapIf(r.c.Del(ctx, keys...).Err(), perr.ErrorCodeUnavailable, "redis del")
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultScanBatchSize = 1000

// Redis is a Cache backed by a Redis server. Clean uses SCAN, never KEYS.
type Redis struct {
	db            redis.UniversalClient
	prefix        string
	scanBatchSize int64
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithPrefix namespaces every key, e.g. "authkit:".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithScanBatchSize sets the COUNT hint used while cleaning.
func WithScanBatchSize(n int64) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.scanBatchSize = n
		}
	}
}

// NewRedis wraps a go-redis client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		db:            client,
		scanBatchSize: defaultScanBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.db.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.db.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if ttl < 0 {
		ttl = 0
	}
	ok, err := r.db.SetNX(ctx, r.prefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: setnx %q: %w", key, err)
	}
	return ok, nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.db.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache: del: %w", err)
	}
	return nil
}

func (r *Redis) Clean(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		batch, next, err := r.db.Scan(ctx, cursor, r.prefix+pattern, r.scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("cache: scan %q: %w", pattern, err)
		}
		if len(batch) > 0 {
			if err := r.db.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("cache: clean %q: %w", pattern, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	// Among concurrent callers for one key exactly one gets true.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Del removes keys; missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// Clean removes every key matching a glob pattern such as "auth:resolve:*".
	Clean(ctx context.Context, pattern string) error
}

// GetJSON reads key and decodes it into a value of type T.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var v T
	data, err := c.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrDecode, err)
	}
	return v, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return c.Set(ctx, key, data, ttl)
}

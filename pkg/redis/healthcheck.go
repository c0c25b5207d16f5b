package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthOption configures Healthcheck.
type HealthOption func(*healthConfig)

type healthConfig struct {
	timeout  time.Duration
	writeKey string
}

// WithHealthTimeout bounds each check. Zero leaves only the caller's deadline.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) { c.timeout = d }
}

// WithWriteCheck also writes and deletes key on every check. A replica
// answers PING but rejects writes, and magic-link claims need writes.
func WithWriteCheck(key string) HealthOption {
	return func(c *healthConfig) { c.writeKey = key }
}

// Healthcheck returns a check that pings the server.
func Healthcheck(client redis.UniversalClient, opts ...HealthOption) func(context.Context) error {
	var cfg healthConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context) error {
		if cfg.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
			defer cancel()
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if cfg.writeKey == "" {
			return nil
		}
		if err := client.Set(ctx, cfg.writeKey, "1", time.Second).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, ErrNotWritable, err)
		}
		if err := client.Del(ctx, cfg.writeKey).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

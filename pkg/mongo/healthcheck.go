package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// HealthOption configures Healthcheck.
type HealthOption func(*healthConfig)

type healthConfig struct {
	timeout time.Duration
}

// WithHealthTimeout bounds each check. Zero leaves only the caller's
// deadline, and server selection may then wait its full timeout.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) { c.timeout = d }
}

// Healthcheck returns a check that pings the primary. Sessions and users are
// written on every login, so a set with only secondaries is reported down.
func Healthcheck(client *mongo.Client, opts ...HealthOption) func(context.Context) error {
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
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

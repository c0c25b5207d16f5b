package ratelimiter

import "time"

// Result is the bucket state after an attempt.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the attempt fit in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is how long a denied caller should wait. Zero when allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Config describes a token bucket.
type Config struct {
	Capacity       int           `env:"RATELIMIT_CAPACITY" envDefault:"5"`
	RefillRate     int           `env:"RATELIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATELIMIT_REFILL_INTERVAL" envDefault:"1m"`
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return errorf(ErrInvalidConfig, "capacity must be positive, got %d", c.Capacity)
	case c.RefillRate <= 0:
		return errorf(ErrInvalidConfig, "refill rate must be positive, got %d", c.RefillRate)
	case c.RefillInterval <= 0:
		return errorf(ErrInvalidConfig, "refill interval must be positive, got %v", c.RefillInterval)
	}
	return nil
}

// fullRefill is how long an empty bucket takes to fill up again.
func (c Config) fullRefill() time.Duration {
	return time.Duration(c.Capacity/c.RefillRate+1) * c.RefillInterval
}

// refill applies the intervals elapsed since last and returns the new
// balance and refill mark.
func (c Config) refill(tokens int, last, now time.Time) (int, time.Time) {
	elapsed := now.Sub(last)
	if elapsed < c.RefillInterval {
		return tokens, last
	}
	maxIntervals := int64(c.Capacity/c.RefillRate + 1)
	intervals := int(min(int64(elapsed/c.RefillInterval), maxIntervals))
	return min(tokens+intervals*c.RefillRate, c.Capacity), now
}

package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Store keeps bucket state. ConsumeTokens refills, subtracts tokens and
// returns the balance, which is negative when the attempt is denied.
// Consuming zero tokens only refreshes the state.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

func errorf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

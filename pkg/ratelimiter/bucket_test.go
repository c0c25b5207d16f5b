package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var loginConfig = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute}

func TestNewBucket_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
		msg  string
	}{
		{"zero capacity", ratelimiter.Config{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}, "capacity must be positive"},
		{"negative rate", ratelimiter.Config{Capacity: 1, RefillRate: -1, RefillInterval: time.Second}, "refill rate must be positive"},
		{"zero interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}, "refill interval must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), tt.cfg)
			require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// exerciseStore runs the same scenario against any Store.
func exerciseStore(t *testing.T, store ratelimiter.Store, clk *clock) {
	t.Helper()
	ctx := context.Background()

	b, err := ratelimiter.NewBucket(store, loginConfig)
	require.NoError(t, err)

	for i := range 3 {
		res, err := b.Allow(ctx, "login:ann")
		require.NoError(t, err)
		assert.True(t, res.Allowed(), "attempt %d", i+1)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, "login:ann")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Minute, res.RetryAfter(clk.Now()))

	other, err := b.Allow(ctx, "login:bob")
	require.NoError(t, err)
	assert.True(t, other.Allowed())

	status, err := b.Status(ctx, "login:ann")
	require.NoError(t, err)
	assert.Equal(t, -1, status.Remaining)

	clk.Advance(2 * time.Minute)
	res, err = b.Allow(ctx, "login:ann")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	clk.Advance(time.Hour)
	res, err = b.Allow(ctx, "login:ann")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining, "refill is capped at capacity")

	require.NoError(t, b.Reset(ctx, "login:ann"))
	res, err = b.AllowN(ctx, "login:ann", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)

	_, err = b.AllowN(ctx, "login:ann", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	clk := newClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithClock(clk.Now))
	exerciseStore(t, store, clk)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestMemoryStore_RemoveStale(t *testing.T) {
	t.Parallel()

	clk := newClock()
	store := ratelimiter.NewMemoryStore(
		ratelimiter.WithCleanupInterval(0),
		ratelimiter.WithStaleAfter(10*time.Minute),
		ratelimiter.WithClock(clk.Now),
	)
	ctx := context.Background()

	_, _, err := store.ConsumeTokens(ctx, "old", 1, loginConfig)
	require.NoError(t, err)
	clk.Advance(11 * time.Minute)
	_, _, err = store.ConsumeTokens(ctx, "fresh", 1, loginConfig)
	require.NoError(t, err)

	store.RemoveStale()
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "shared")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestResult_RetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.Zero(t, (&ratelimiter.Result{Remaining: 0, ResetAt: now.Add(time.Minute)}).RetryAfter(now))
	assert.Equal(t, time.Minute, (&ratelimiter.Result{Remaining: -1, ResetAt: now.Add(time.Minute)}).RetryAfter(now))
	assert.Zero(t, (&ratelimiter.Result{Remaining: -1, ResetAt: now.Add(-time.Minute)}).RetryAfter(now))
}

// Package ratelimiter throttles repeated attempts with a token bucket.
//
// A bucket holds Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each attempt takes one token; once the balance drops
// below zero the attempt is denied until enough intervals pass. Denied
// attempts still consume, so hammering a key keeps it locked.
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//		Capacity:       5,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//	res, err := limiter.Allow(ctx, "login:"+email)
//	if err == nil && !res.Allowed() {
//		// retry after res.RetryAfter()
//	}
//
// MemoryStore keeps buckets in process. RedisStore shares them between
// instances through a Lua script, so the read-refill-consume step is atomic.
package ratelimiter

// Package cache provides the byte-oriented Cache used for resolved-token
// lookups, with an in-process backend on hashicorp/golang-lru and a Redis
// backend on go-redis.
//
// Both backends support per-entry TTL and glob-pattern cleanup:
//
//	c := cache.NewRedis(client, cache.WithPrefix("authkit:"))
//	_ = cache.SetJSON(ctx, c, "auth:resolve:abc", user, time.Minute)
//	u, err := cache.GetJSON[User](ctx, c, "auth:resolve:abc")
//	_ = c.Clean(ctx, "auth:resolve:*")
//
// SetNX is an atomic claim: among concurrent callers for one key only one
// gets true. Magic links use it to stay single use.
//
// A missing entry is reported as ErrMiss; any other error comes from the
// backend and is wrapped.
package cache

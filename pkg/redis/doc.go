// Package redis connects to Redis with retries and exposes a health check.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := cache.NewRedis(client, cache.WithPrefix(cfg.KeyPrefix))
//
// Config fields are populated from REDIS_* environment variables.
package redis

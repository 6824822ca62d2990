package dedupe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisCache(dsn string, ttl time.Duration) *redisCache {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		opts = &redis.Options{Addr: dsn}
	}
	return &redisCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}
}

const keyPrefix = "tracker:dedupe:"

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) Mark(ctx context.Context, key string) error {
	return c.client.Set(ctx, keyPrefix+key, 1, c.ttl).Err()
}

func (c *redisCache) Clear(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

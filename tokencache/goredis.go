package tokencache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// GoRedisCache is the go-redis/v9 equivalent of RueidisCache, for
// deployments that already standardize on go-redis elsewhere.
type GoRedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewGoRedisCache(client *redis.Client, keyPrefix string, ttl time.Duration) *GoRedisCache {
	return &GoRedisCache{client: client, prefix: keyPrefix, ttl: ttl}
}

func (c *GoRedisCache) key(channel string) string {
	return c.prefix + channel
}

func (c *GoRedisCache) Get(channel string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	token, err := c.client.Get(ctx, c.key(channel)).Result()
	if err != nil {
		return "", false
	}
	return token, true
}

func (c *GoRedisCache) Set(channel, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.client.Set(ctx, c.key(channel), token, c.ttl).Err()
}

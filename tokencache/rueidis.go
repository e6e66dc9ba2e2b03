package tokencache

import (
	"context"
	"time"

	"github.com/redis/rueidis"
)

// RueidisCache stores tokens in Redis via rueidis, for deployments sharing
// one token cache across many client processes (e.g. a fleet of backend
// services each holding a centrifuge.Client on behalf of different users).
type RueidisCache struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
}

// NewRueidisCache wraps an already-connected rueidis.Client. keyPrefix is
// prepended to every channel name to namespace keys within a shared Redis.
func NewRueidisCache(client rueidis.Client, keyPrefix string, ttl time.Duration) *RueidisCache {
	return &RueidisCache{client: client, prefix: keyPrefix, ttl: ttl}
}

func (c *RueidisCache) key(channel string) string {
	return c.prefix + channel
}

// Get returns false on any Redis error or cache miss - a cache is
// best-effort, never a hard dependency for obtaining a subscription token.
func (c *RueidisCache) Get(channel string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd := c.client.B().Get().Key(c.key(channel)).Build()
	resp := c.client.Do(ctx, cmd)
	token, err := resp.ToString()
	if err != nil {
		return "", false
	}
	return token, true
}

func (c *RueidisCache) Set(channel, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd := c.client.B().Set().Key(c.key(channel)).Value(token).Ex(c.ttl).Build()
	_ = c.client.Do(ctx, cmd).Error()
}

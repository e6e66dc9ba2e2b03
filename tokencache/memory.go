// Package tokencache provides SubscriptionTokenCache backends for the
// centrifuge client: an in-process LRU (package otter) and two
// Redis-backed options (rueidis, go-redis) for sharing cached private-
// channel tokens across client instances.
package tokencache

import (
	"time"

	"github.com/maypok86/otter"
)

// MemoryCache is an in-process, TTL-bounded cache backed by otter's
// lockless concurrent LRU.
type MemoryCache struct {
	cache otter.Cache[string, string]
}

// NewMemoryCache builds a MemoryCache holding up to capacity entries, each
// valid for ttl after being Set.
func NewMemoryCache(capacity int, ttl time.Duration) (*MemoryCache, error) {
	cache, err := otter.MustBuilder[string, string](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: cache}, nil
}

func (m *MemoryCache) Get(channel string) (string, bool) {
	return m.cache.Get(channel)
}

func (m *MemoryCache) Set(channel, token string) {
	m.cache.Set(channel, token)
}

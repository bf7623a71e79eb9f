package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Cached list views may be stale for up to a minute; stats for five.
	ListCacheTTL  = 60 * time.Second
	StatsCacheTTL = 5 * time.Minute

	attemptCachePrefix = "attempts:"
	statsCachePrefix   = "stats:"
)

// ViewCache is a timed read-through cache for listing and aggregate views.
// Keys must include every filter and pagination parameter of the view they
// hold. A nil ViewCache is a no-op, which keeps the services testable
// without a running Redis.
type ViewCache struct {
	redis *redis.Client
}

func NewViewCache(redisClient *redis.Client) *ViewCache {
	return &ViewCache{redis: redisClient}
}

func (c *ViewCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.redis == nil {
		return false
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Cache read failed for %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("Cache entry for %s is corrupt, ignoring: %v", key, err)
		return false
	}
	return true
}

func (c *ViewCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Failed to marshal cache entry for %s: %v", key, err)
		return
	}

	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
}

// InvalidatePrefix evicts every cached view under the given prefixes.
// Writers that change what a cached view would show call this before
// reporting success, so staleness is bounded by the TTL in the worst case.
func (c *ViewCache) InvalidatePrefix(ctx context.Context, prefixes ...string) {
	if c == nil || c.redis == nil {
		return
	}

	for _, prefix := range prefixes {
		iter := c.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
				log.Printf("Cache eviction failed for %s: %v", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			log.Printf("Cache scan failed for prefix %s: %v", prefix, err)
		}
	}
}

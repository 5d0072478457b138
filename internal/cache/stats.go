package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
)

const (
	KeyRevenue       = "stats:revenue"
	KeySoldProducts  = "stats:sold_products"
	KeySoldByMonth   = "stats:sold_by_month"
	KeySoldByProduct = "stats:sold_by_product"
)

var statsKeys = []string{KeyRevenue, KeySoldProducts, KeySoldByMonth, KeySoldByProduct}

// StatsCache caches statistics aggregates in redis with a short TTL and gets
// flushed whenever a settlement applies. A nil client turns every lookup
// into a miss, so the service works without redis.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// Get unmarshals the cached value into dest and reports whether it was a hit.
// Cache errors are logged and treated as misses.
func (c *StatsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warnf("stats cache get %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warnf("stats cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *StatsCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warnf("stats cache encode %s: %v", key, err)
		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Warnf("stats cache set %s: %v", key, err)
	}
}

// Invalidate drops every statistics key. Called after a confirmation applies.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Del(ctx, statsKeys...).Err(); err != nil {
		log.Warnf("stats cache invalidate: %v", err)
	}
}

package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"catalog-service/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute
	ProductListCacheTTL = 2 * time.Minute
	CategoryCacheTTL    = 30 * time.Minute
	CityStatsCacheTTL   = 5 * time.Minute
	DefaultFacetsTTL    = 15 * time.Minute
)

const cacheKeyPrefix = "catalog:"

// Cache is a JSON cache on top of redis. A nil client disables it.
type Cache struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

func NewCache(client *redis.Client, m *metrics.Metrics) *Cache {
	return &Cache{client: client, metrics: m}
}

// Enabled reports whether a redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON loads key into dest and reports whether it was found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	val, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		c.metrics.CacheHit(false)
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.metrics.CacheHit(false)
		return false
	}
	c.metrics.CacheHit(true)
	return true
}

// SetJSON stores value under key. Errors are swallowed; the cache is best effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKeyPrefix+key, data, ttl).Err()
}

// Delete removes the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cacheKeyPrefix + k
	}
	_ = c.client.Del(ctx, full...).Err()
}

// DeletePattern removes every key matching pattern using SCAN.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	if !c.Enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			_ = c.client.Del(ctx, batch...).Err()
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		_ = c.client.Del(ctx, batch...).Err()
	}
}

// listCacheKey creates a deterministic cache key for list queries
func listCacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

package translate

import (
	"context" // Context for cancellation
	"time"    // Time durations

	"artisanhub/internal/metrics" // Prometheus collectors
	"artisanhub/internal/utils"   // Redis cache helpers

	"github.com/hashicorp/golang-lru/v2/expirable" // Bounded LRU with TTL
	"github.com/redis/go-redis/v9"                 // Redis client
)

// KeyPrefix namespaces translation entries in shared caches
const KeyPrefix = "translation:"

// Cache stores translated key sets
type Cache interface {
	Get(ctx context.Context, key string) (map[string]any, bool, error)
	Set(ctx context.Context, key string, value map[string]any) error
	Clear(ctx context.Context) error
}

// MemoryCache is a bounded LRU with per-entry expiry, safe for concurrent use
type MemoryCache struct {
	lru *expirable.LRU[string, map[string]any]
}

// NewMemoryCache keeps at most size entries for ttl each
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1000 // Default capacity
	}
	return &MemoryCache{lru: expirable.NewLRU[string, map[string]any](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (map[string]any, bool, error) {
	v, ok := m.lru.Get(key)
	record(ok)
	return v, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value map[string]any) error {
	m.lru.Add(key, value)
	return nil
}

func (m *MemoryCache) Clear(context.Context) error {
	m.lru.Purge() // Drop every entry
	return nil
}

// Len reports the number of live entries
func (m *MemoryCache) Len() int { return m.lru.Len() }

// RedisCache shares translations between instances
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache stores entries as JSON with the given ttl
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	var v map[string]any
	found, err := utils.GetCache(ctx, r.rdb, key, &v)
	if err != nil {
		return nil, false, err
	}
	record(found)
	return v, found, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value map[string]any) error {
	return utils.SetCache(ctx, r.rdb, key, value, r.ttl)
}

func (r *RedisCache) Clear(ctx context.Context) error {
	return utils.DeleteCachePrefix(ctx, r.rdb, KeyPrefix) // Only translation keys
}

func record(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues("translation", result).Inc()
}

package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores resolved building trees by key. A miss is (nil, false, nil).
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// BuildingKey is the cache key of a resolved building tree
func BuildingKey(id uint64) string {
	return fmt.Sprintf("building:%d", id)
}

// Noop never stores anything
type Noop struct{}

func (Noop) Name() string { return "NOOP" }

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

// KeyPrefix namespaces this service's keys in a shared Redis
const KeyPrefix = "campusgeo:"

// Open returns a Redis cache when a URL is configured and a bounded process-local cache otherwise
func Open(redisURL string, memorySize int, ttl time.Duration) (Cache, error) {
	if redisURL == "" {
		return NewMemoryCache(memorySize, ttl), nil
	}
	return NewRedisCache(redisURL, KeyPrefix)
}

// Package dedupe provides the short-lived cache that suppresses duplicate
// progress updates.
//
// Primary backend: Redis SETNX with TTL (env REDIS_DSN).
// If unavailable, an in-memory cache is used (development only).
package dedupe

import (
	"context"
	"errors"
	"time"
)

// Cache marks recently applied updates and answers whether an identical one
// arrived inside the suppression window. Mark and Exists are separate
// because a key is only written after the guarded operation succeeds.
type Cache interface {
	// Exists reports whether the key is inside the suppression window.
	Exists(ctx context.Context, key string) (bool, error)
	// Mark records the key for the cache's TTL.
	Mark(ctx context.Context, key string) error
	// Clear drops the key before its TTL expires.
	Clear(ctx context.Context, key string) error
}

// NewCache creates the best available cache: Redis, or in-memory as a
// development fallback. When isProd is true the fallback is not allowed.
func NewCache(redisDSN string, ttl time.Duration, isProd bool) (Cache, error) {
	if redisDSN != "" {
		return newRedisCache(redisDSN, ttl), nil
	}
	if isProd {
		return nil, errors.New("production requires REDIS_DSN for the dedupe cache; in-memory cache is not allowed")
	}
	return NewMemoryCache(ttl), nil
}

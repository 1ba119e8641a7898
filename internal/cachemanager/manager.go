// Package cachemanager provides generic caches used to memoize resolved
// styles and other derived values.
package cachemanager

import (
	"context"
	"time"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// NoExpiration keeps an entry until it is deleted or the cache is flushed.
const NoExpiration time.Duration = -1

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	Stats() Stats
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Items  int
}

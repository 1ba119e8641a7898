package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache computes a value with fn on a miss and stores it. Errors
// from fn are returned and never cached.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache    CacheManager[K, V]
	fn       func(ctx context.Context, input I) (V, error)
	bypassed bool
}

// NewReadThroughCache wraps cache. With bypass set every call goes to fn and
// the cache stays empty.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, fn: fn, bypassed: bypass}
}

// Get returns the cached value for key, computing it from input on a miss.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.load(ctx, key, input, ttl, func() (V, bool) { return r.cache.Get(ctx, key) })
}

// GetWithRefresh is Get, but a hit also extends the entry's lifetime to ttl.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.load(ctx, key, input, ttl, func() (V, bool) { return r.cache.GetWithRefresh(ctx, key, ttl) })
}

func (r *ReadThroughCache[K, V, I]) load(ctx context.Context, key K, input I, ttl time.Duration, lookup func() (V, bool)) (V, error) {
	if r.bypassed {
		return r.fn(ctx, input)
	}
	if value, ok := lookup(); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Cache exposes the backing cache, mainly for stats reporting.
func (r *ReadThroughCache[K, V, I]) Cache() CacheManager[K, V] {
	return r.cache
}

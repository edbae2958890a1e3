package cache

import (
	"sync"
)

// Cache is a concurrency-safe map with an optional entry limit. Once the limit
// is reached the oldest inserted key is evicted.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	m     map[K]V
	order []K
	limit int
}

// NewCache creates a cache holding at most limit entries. A limit <= 0 means
// unbounded.
func NewCache[K comparable, V any](limit int) *Cache[K, V] {
	size := limit
	if size < 0 {
		size = 0
	}
	return &Cache[K, V]{
		m:     make(map[K]V, size),
		limit: limit,
	}
}

func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	v, ok := c.m[k]
	c.mu.RUnlock()
	return v, ok
}

// GetOrSet returns the cached value for k, computing and storing it on a miss.
// compute runs without the lock held, so concurrent misses may compute twice.
func (c *Cache[K, V]) GetOrSet(k K, compute func() V) V {
	if v, ok := c.Get(k); ok {
		return v
	}

	v := compute()

	c.mu.Lock()
	if existing, ok := c.m[k]; ok {
		c.mu.Unlock()
		return existing
	}
	c.set(k, v)
	c.mu.Unlock()

	return v
}

// GetBatch returns the cached values for keys under one read lock. Missing
// keys are absent from the result.
func (c *Cache[K, V]) GetBatch(keys []K) map[K]V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make(map[K]V, len(keys))

	for _, k := range keys {
		if v, ok := c.m[k]; ok {
			res[k] = v
		}
	}

	return res
}

// SetBatch stores items under one write lock. When the batch overflows the
// limit, which of its own keys survive is unspecified.
func (c *Cache[K, V]) SetBatch(items map[K]V) {
	c.mu.Lock()
	for k, v := range items {
		c.set(k, v)
	}
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// set must be called with the write lock held.
func (c *Cache[K, V]) set(k K, v V) {
	if _, ok := c.m[k]; !ok {
		c.order = append(c.order, k)
	}
	c.m[k] = v

	for c.limit > 0 && len(c.m) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.m, oldest)
	}
}

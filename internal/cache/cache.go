package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a simple in-memory cache with TTL support. Expired entries stay
// readable through GetStale until the grace period passes, so callers can
// fall back to the last good value when a refresh fails.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*cacheItem
	ttl      time.Duration
	grace    time.Duration
	stopOnce sync.Once
	stopChan chan struct{}

	hits   int64
	misses int64
}

type cacheItem struct {
	value      interface{}
	expiration time.Time
	storedAt   time.Time
}

// NewCache creates a new cache with the specified TTL. Expired entries are
// kept for another ttl as stale fallbacks.
func NewCache(ttl time.Duration) *Cache {
	return NewCacheWithGrace(ttl, ttl)
}

// NewCacheWithGrace creates a cache whose expired entries are dropped after
// grace.
func NewCacheWithGrace(ttl, grace time.Duration) *Cache {
	c := &Cache{
		items:    make(map[string]*cacheItem),
		ttl:      ttl,
		grace:    grace,
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine
	go c.cleanup()

	return c
}

// Get retrieves a fresh value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiration) {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return item.value, true
}

// GetStale retrieves a value even if it has expired, with the time it was
// stored.
func (c *Cache) GetStale(key string) (interface{}, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, time.Time{}, false
	}
	return item.value, item.storedAt, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.items[key] = &cacheItem{
		value:      value,
		expiration: now.Add(ttl),
		storedAt:   now,
	}
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all values from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*cacheItem)
}

// InvalidatePrefix removes all keys with the given prefix
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Stats returns cache statistics
type Stats struct {
	ItemCount int   `json:"item_count"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	return Stats{
		ItemCount: c.Size(),
		HitCount:  atomic.LoadInt64(&c.hits),
		MissCount: atomic.LoadInt64(&c.misses),
	}
}

// cleanup periodically removes expired items
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired(time.Now())
		case <-c.stopChan:
			return
		}
	}
}

// removeExpired removes items past their grace period
func (c *Cache) removeExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, item := range c.items {
		if now.After(item.expiration.Add(c.grace)) {
			delete(c.items, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

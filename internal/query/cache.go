package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"token-audit/internal/observability"
)

// DefaultTTL is how long a successful result is reused for the same key.
const DefaultTTL = 30 * time.Second

// Cache memoizes fetch results per Key for a short TTL and collapses
// concurrent fetches of the same key into one call. Failures are not kept.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]cacheEntry
	// gens is bumped by Invalidate; a flight stores only if its key's
	// generation is unchanged since it started.
	gens map[Key]uint64
}

type cacheEntry struct {
	value    interface{}
	storedAt time.Time
}

// NewCache creates a cache. ttl <= 0 disables memoization but keeps in-flight dedup.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]cacheEntry),
		gens:    make(map[Key]uint64),
	}
}

// Do returns the memoized value for key or runs fn. Concurrent callers for the
// same key share a single fn call. fn runs detached from ctx cancellation so
// one caller going away does not fail the others; a caller whose ctx ends
// first gets ctx.Err() while the shared call completes and fills the cache.
func (c *Cache) Do(ctx context.Context, key Key, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := c.lookup(key); ok {
		observability.RecordQuery(string(key.Kind), "hit")
		return v, nil
	}

	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		// A caller that lost the race may arrive after the winner stored its result.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		gen := c.generation(key)
		v, err := fn(context.WithoutCancel(ctx))
		if err == nil {
			c.store(key, gen, v)
		}
		return v, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		switch {
		case res.Err != nil:
			observability.RecordQuery(string(key.Kind), "error")
		case res.Shared:
			observability.RecordQuery(string(key.Kind), "shared")
		default:
			observability.RecordQuery(string(key.Kind), "miss")
		}
		return res.Val, res.Err
	}
}

// Invalidate drops memoized values so the next Do refetches. A fetch already
// in flight for key still answers its callers but is not memoized.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
		c.gens[key]++
		c.group.Forget(key.String())
	}
}

func (c *Cache) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked()
	return len(c.entries)
}

func (c *Cache) lookup(key Key) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) store(key Key, gen uint64, value interface{}) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return
	}
	c.evictExpiredLocked()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

func (c *Cache) evictExpiredLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

// Fetch is the typed form of Cache.Do.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (*T, error)) (*T, error) {
	v, err := c.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	typed, _ := v.(*T)
	return typed, nil
}

package landcover

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// CachedLookup wraps a LandcoverLookup with an in-memory LRU cache. The
// raster is static, so a resolved class never goes stale.
type CachedLookup struct {
	inner domain.LandcoverLookup
	cache *lruCache
}

// NewCachedLookup creates a cache decorator around a lookup.
func NewCachedLookup(inner domain.LandcoverLookup, maxEntries int) *CachedLookup {
	return &CachedLookup{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedLookup) Lookup(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if class, ok := c.cache.get(key); ok {
		return class, nil
	}
	class, err := c.inner.Lookup(ctx, lat, lon)
	if err != nil {
		return class, err
	}
	// Only cache resolved classes so transient "unknown" responses can be retried.
	if class != domain.LandcoverUnknown {
		c.cache.put(key, class)
	}
	return class, nil
}

// lruCache is a simple thread-safe LRU cache for land-cover classes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

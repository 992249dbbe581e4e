package render

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultExpiration bounds cached fragments that request permanent caching.
	DefaultExpiration = 10 * time.Minute
	// DefaultCleanupInterval is how often expired entries are swept.
	DefaultCleanupInterval = 30 * time.Minute
)

// Invalidator tracks per-tag invalidation counters. A cache entry records
// the sum of its tags' counters at write time; if any tag is invalidated
// afterwards the sums diverge and the entry is treated as gone. This keeps
// invalidation O(tags) instead of scanning entries per tag.
type Invalidator struct {
	mu       sync.RWMutex
	counters map[string]uint64
}

// NewInvalidator returns an empty tag counter set.
func NewInvalidator() *Invalidator {
	return &Invalidator{counters: make(map[string]uint64)}
}

// Invalidate bumps the counter of each tag.
func (i *Invalidator) Invalidate(tags ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		i.counters[tag]++
	}
}

// Checksum returns the current counter sum over tags.
func (i *Invalidator) Checksum(tags []string) uint64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var sum uint64
	for _, tag := range tags {
		sum += i.counters[tag]
	}
	return sum
}

// Valid reports whether an entry written at the given checksum is still
// current for its tags.
func (i *Invalidator) Valid(tags []string, checksum uint64) bool {
	return i.Checksum(tags) == checksum
}

// cacheEntry is a stored element plus its write-time tag checksum.
type cacheEntry struct {
	element  *Element
	checksum uint64
}

// Cache is the render cache: elements keyed by their cache keys, dropped
// by TTL or by tag invalidation.
type Cache struct {
	backend *gocache.Cache
	inv     *Invalidator
	ttl     time.Duration
}

// NewCache creates a render cache whose entries live at most ttl.
func NewCache(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Cache{
		backend: gocache.New(ttl, cleanupInterval),
		inv:     NewInvalidator(),
		ttl:     ttl,
	}
}

// cacheID joins cache keys into the backend key.
func cacheID(keys []string) string {
	return strings.Join(keys, ":")
}

// Get returns the cached element for keys, or nil when missing, expired,
// or invalidated through one of its tags.
func (c *Cache) Get(keys []string) (*Element, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	raw, found := c.backend.Get(cacheID(keys))
	if !found {
		return nil, false
	}
	entry, ok := raw.(cacheEntry)
	if !ok {
		return nil, false
	}
	if !c.inv.Valid(entry.element.Cache.Tags, entry.checksum) {
		c.backend.Delete(cacheID(keys))
		return nil, false
	}
	return entry.element, true
}

// Set stores an element under keys. Elements whose MaxAge is zero are not
// cacheable and are skipped; a bounded MaxAge shortens the entry TTL.
func (c *Cache) Set(keys []string, element *Element) {
	if len(keys) == 0 || element == nil || element.Cache.MaxAge == 0 {
		return
	}
	ttl := c.ttl
	if element.Cache.MaxAge != CacheMaxAgePermanent && element.Cache.MaxAge < ttl {
		ttl = element.Cache.MaxAge
	}
	entry := cacheEntry{
		element:  element,
		checksum: c.inv.Checksum(element.Cache.Tags),
	}
	c.backend.Set(cacheID(keys), entry, ttl)
}

// Invalidate drops every entry carrying any of the given tags.
func (c *Cache) Invalidate(tags ...string) {
	c.inv.Invalidate(tags...)
}

// Flush empties the cache. Intended for tests.
func (c *Cache) Flush() {
	c.backend.Flush()
}

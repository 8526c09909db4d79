// Package cache provides an in-process lookaside cache with TTL expiry and
// FIFO eviction, used by the user and gift code services to shadow store
// reads.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Options configures a Cache.
type Options struct {
	// Enabled toggles the cache. When false every Get misses and every
	// Set is a no-op, so callers always hit the store.
	Enabled bool

	// TTL is the default lifetime of an entry. Zero means entries never
	// expire (they can still be evicted for capacity).
	TTL time.Duration

	// MaxSize caps the number of entries. Zero means unbounded. When the
	// cap is reached the oldest-inserted entry is evicted first.
	MaxSize int
}

type entry struct {
	value     any
	expiresAt time.Time // zero means no expiry
	elem      *list.Element
}

// Cache is a thread-safe key/value cache. Eviction is strictly
// insertion-ordered: overwriting an existing key does not move it to the
// back of the queue.
type Cache struct {
	mu      sync.Mutex
	opts    Options
	entries map[string]*entry
	order   *list.List // of string keys, front = oldest
}

// New returns a cache configured with opts.
func New(opts Options) *Cache {
	return &Cache{
		opts:    opts,
		entries: make(map[string]*entry),
		order:   list.New(),
	}
}

// Get returns the value for key. Expired entries are removed lazily and
// reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	if !c.opts.Enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !time.Now().Before(e.expiresAt) {
		c.removeLocked(key, e)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, c.opts.TTL)
}

// SetTTL stores value under key with an explicit TTL, overriding the
// default. A zero ttl stores the entry without expiry.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if !c.opts.Enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if e, ok := c.entries[key]; ok {
		// Overwrite in place; the key keeps its position in the
		// eviction queue.
		e.value = value
		e.expiresAt = expiresAt
		return
	}

	if c.opts.MaxSize > 0 && len(c.entries) >= c.opts.MaxSize {
		c.evictOldestLocked()
	}

	c.entries[key] = &entry{
		value:     value,
		expiresAt: expiresAt,
		elem:      c.order.PushBack(key),
	}
}

// Delete removes key from the cache. Deleting a missing key is a no-op.
func (c *Cache) Delete(key string) {
	if !c.opts.Enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeLocked(key, e)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order.Init()
}

// Stats reports the current entry count and whether the cache is enabled.
// The count may include entries that have expired but not yet been
// collected.
func (c *Cache) Stats() (size int, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), c.opts.Enabled
}

func (c *Cache) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string)
	if e, ok := c.entries[key]; ok {
		c.removeLocked(key, e)
	}
}

func (c *Cache) removeLocked(key string, e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, key)
}

package search

import (
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/engine/buffer"
)

// IndexCache keeps recently built indexes for one content revision.
//
// Storing an index for a newer revision flushes everything cached for the
// previous one, so a cached index is never stale for the revision it is
// looked up with.
type IndexCache struct {
	mu       sync.Mutex
	revision buffer.RevisionID
	items    map[Query]*cacheItem
	ttl      time.Duration
	maxSize  int
}

type cacheItem struct {
	index     *MatchIndex
	expiresAt time.Time
}

// NewIndexCache creates a cache. ttl <= 0 disables expiry and
// maxSize <= 0 disables the size bound.
func NewIndexCache(ttl time.Duration, maxSize int) *IndexCache {
	return &IndexCache{
		items:   make(map[Query]*cacheItem),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get returns the cached index for q at rev.
func (c *IndexCache) Get(q Query, rev buffer.RevisionID) (*MatchIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rev != c.revision {
		return nil, false
	}
	item, ok := c.items[q]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Now().After(item.expiresAt) {
		delete(c.items, q)
		return nil, false
	}
	return item.index, true
}

// Put stores ix under its query and revision.
func (c *IndexCache) Put(ix *MatchIndex) {
	if ix == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ix.Revision() != c.revision {
		c.items = make(map[Query]*cacheItem)
		c.revision = ix.Revision()
	}
	if _, exists := c.items[ix.Query()]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[ix.Query()] = &cacheItem{index: ix, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate drops every cached index.
func (c *IndexCache) Invalidate() {
	c.mu.Lock()
	c.items = make(map[Query]*cacheItem)
	c.revision = 0
	c.mu.Unlock()
}

// Len returns the number of cached indexes, including expired ones.
func (c *IndexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Cleanup removes expired indexes and returns how many were removed.
func (c *IndexCache) Cleanup() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for q, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, q)
			count++
		}
	}
	return count
}

// evictOldest removes the item with the soonest expiration (must hold lock).
func (c *IndexCache) evictOldest() {
	var oldest Query
	var oldestTime time.Time
	first := true
	for q, item := range c.items {
		if first || item.expiresAt.Before(oldestTime) {
			oldest = q
			oldestTime = item.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.items, oldest)
	}
}

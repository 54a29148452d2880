// Package cache keeps recently loaded snapshots in memory, keyed by category.
package cache

import (
	"sync"
	"time"

	"bogoinsight/internal/export"
	"bogoinsight/internal/table"
)

// Loader reads the newest snapshot of a category.
type Loader interface {
	LoadLatest(category string) (*table.Table, export.Snapshot, error)
}

// Entry is one cached snapshot.
type Entry struct {
	Table    *table.Table
	Snapshot export.Snapshot
	LoadedAt time.Time
}

// Cache maps a category to its latest table. Entries expire after ttl;
// a zero ttl keeps them until invalidated.
type Cache struct {
	mu      sync.Mutex
	loader  Loader
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

// New creates a new Cache instance.
func New(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

// Get returns the cached entry or loads it. Load errors are not cached.
func (c *Cache) Get(category string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if e, ok := c.entries[category]; ok && !c.expired(e, now) {
		return e, nil
	}

	t, snap, err := c.loader.LoadLatest(category)
	if err != nil {
		delete(c.entries, category)

		return Entry{}, err
	}

	e := Entry{Table: t, Snapshot: snap, LoadedAt: now}
	c.entries[category] = e

	return e, nil
}

func (c *Cache) expired(e Entry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.LoadedAt) >= c.ttl
}

// Invalidate drops one category and reports whether it was cached.
func (c *Cache) Invalidate(category string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[category]
	delete(c.entries, category)

	return ok
}

// InvalidateAll empties the cache and returns how many entries it held.
func (c *Cache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]Entry)

	return n
}

// Len returns the number of cached categories.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

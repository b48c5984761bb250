package resource

import (
	"sync"
)

// Cache is the shared store of watched resource snapshots. Producers mutate
// it as events arrive; the reconciliation loop reads it through Snapshot.
// All methods are safe for concurrent use. Callers must not hold their own
// reference to a stored Resource after passing it in.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]Resource
	synced  map[Kind]bool
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]Resource),
		synced:  make(map[Kind]bool),
	}
}

// Upsert inserts or replaces the entry for the resource's key.
func (c *Cache) Upsert(res Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[res.Key()] = res
}

// Remove deletes the entry for key if present.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// ReplaceAll atomically replaces every entry of the given kind with the
// supplied set, leaving entries of other kinds untouched, and marks the
// kind as synced. Used for the initial list and for watch resyncs.
func (c *Cache) ReplaceAll(kind Kind, resources []Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.Kind == kind {
			delete(c.entries, key)
		}
	}

	for _, res := range resources {
		c.entries[res.Key()] = res
	}

	c.synced[kind] = true
}

// Snapshot returns a point-in-time copy of all entries. The caller may use
// it freely without further locking; subsequent cache mutations do not
// affect it.
func (c *Cache) Snapshot() []Resource {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]Resource, 0, len(c.entries))
	for _, res := range c.entries {
		snapshot = append(snapshot, res)
	}

	return snapshot
}

// Synced reports whether every given kind has completed at least one full
// list since startup.
func (c *Cache) Synced(kinds ...Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, kind := range kinds {
		if !c.synced[kind] {
			return false
		}
	}

	return true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

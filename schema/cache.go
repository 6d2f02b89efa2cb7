package schema

import (
	"strings"
	"sync"

	"github.com/arloliu/colbin/internal/hash"
)

// Cache memoizes resolved object descriptors by object id.
//
// Entries are keyed by the xxHash64 of the normalized id; the id itself is
// stored alongside and compared on lookup, so a hash collision is a miss,
// never a wrong descriptor. Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]cacheEntry
}

type cacheEntry struct {
	id  string
	obj *Object
}

func normalizeID(objectID string) string {
	return strings.TrimSuffix(strings.TrimSpace(objectID), "/")
}

// NewCache creates an empty descriptor cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]cacheEntry)}
}

// Get returns the cached descriptor for objectID.
func (c *Cache) Get(objectID string) (*Object, bool) {
	key := hash.ObjectKey(objectID)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.id != normalizeID(objectID) {
		return nil, false
	}

	return entry.obj, true
}

// Put stores obj under objectID, replacing any previous entry.
func (c *Cache) Put(objectID string, obj *Object) {
	c.mu.Lock()
	c.entries[hash.ObjectKey(objectID)] = cacheEntry{id: normalizeID(objectID), obj: obj}
	c.mu.Unlock()
}

// Invalidate drops the entry for objectID, forcing the next access to re-resolve it.
func (c *Cache) Invalidate(objectID string) {
	c.mu.Lock()
	delete(c.entries, hash.ObjectKey(objectID))
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[uint64]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

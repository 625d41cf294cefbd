package convert

import "sync"

type columnKey struct {
	classID  string
	property string
}

// ColumnCache remembers whether a result carried the ClassID companion
// column of a reference property. It is safe for concurrent use.
type ColumnCache struct {
	mu      sync.RWMutex
	present map[columnKey]bool
}

// NewColumnCache returns an empty cache.
func NewColumnCache() *ColumnCache {
	return &ColumnCache{present: make(map[columnKey]bool)}
}

// Lookup returns the remembered presence of the companion column of
// property in results of class. ok is false if nothing was stored yet.
func (c *ColumnCache) Lookup(classID, property string) (present, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	present, ok = c.present[columnKey{classID, property}]
	return present, ok
}

// Store records the presence of the companion column.
func (c *ColumnCache) Store(classID, property string, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present[columnKey{classID, property}] = present
}

// Reset forgets all entries. Use it after the physical schema changed.
func (c *ColumnCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.present)
}

// Len returns the number of cached entries.
func (c *ColumnCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.present)
}

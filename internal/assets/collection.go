package assets

import "sync"

// Collection is the locally mirrored asset set. Entries are keyed by the
// stable storage key, so concurrent appends and removes for different keys
// commute: whatever order the operations complete in, the end state is the
// same. Arrival order is preserved for display.
type Collection struct {
	mu    sync.Mutex
	order []string
	byKey map[string]Asset
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byKey: make(map[string]Asset)}
}

// Seed replaces the entire collection with an authoritative listing.
func (c *Collection) Seed(listed []Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = c.order[:0]
	c.byKey = make(map[string]Asset, len(listed))
	for _, a := range listed {
		if _, seen := c.byKey[a.Key]; !seen {
			c.order = append(c.order, a.Key)
		}
		c.byKey[a.Key] = a
	}
}

// Add appends one asset. Re-adding an existing key updates it in place.
func (c *Collection) Add(a Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.byKey[a.Key]; !seen {
		c.order = append(c.order, a.Key)
	}
	c.byKey[a.Key] = a
}

// Remove drops the entry with the given key, if present.
func (c *Collection) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byKey[key]; !ok {
		return
	}
	delete(c.byKey, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether the key is present.
func (c *Collection) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byKey[key]
	return ok
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Snapshot returns the entries in arrival order.
func (c *Collection) Snapshot() []Asset {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Asset, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key])
	}
	return out
}

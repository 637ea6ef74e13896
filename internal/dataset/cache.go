package dataset

import (
	"crypto/sha256"
	"sync"
)

// DefaultCacheEntries is the number of parsed datasets a Cache created by
// NewCache keeps.
const DefaultCacheEntries = 8

// Cache memoizes parsed datasets keyed by the SHA-256 of their bytes.
//
// Lookups share a read lock. A miss takes the write lock, checks again and
// parses, so concurrent requests for the same bytes parse them once. Cached
// datasets are shared between callers and must be treated as read-only.
//
// The cache holds at most a fixed number of datasets; inserting beyond that
// drops the oldest one.
type Cache struct {
	mu    sync.RWMutex
	limit int
	sets  map[[sha256.Size]byte]*Dataset
	order [][sha256.Size]byte
}

// NewCache creates an empty dataset cache holding up to DefaultCacheEntries
// datasets.
func NewCache() *Cache {
	return NewCacheWithLimit(DefaultCacheEntries)
}

// NewCacheWithLimit creates an empty dataset cache holding up to limit
// datasets. A limit below one is treated as one.
func NewCacheWithLimit(limit int) *Cache {
	if limit < 1 {
		limit = 1
	}
	return &Cache{
		limit: limit,
		sets:  make(map[[sha256.Size]byte]*Dataset),
	}
}

// Load returns the parsed dataset for data, parsing it on first use.
func (c *Cache) Load(data []byte) *Dataset {
	key := sha256.Sum256(data)

	c.mu.RLock()
	ds, ok := c.sets[key]
	c.mu.RUnlock()
	if ok {
		return ds
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ds, ok := c.sets[key]; ok {
		return ds
	}
	ds = Parse(data)
	for len(c.order) >= c.limit {
		delete(c.sets, c.order[0])
		c.order = c.order[1:]
	}
	c.sets[key] = ds
	c.order = append(c.order, key)
	return ds
}

// Evict drops the dataset parsed from data, if cached.
func (c *Cache) Evict(data []byte) {
	key := sha256.Sum256(data)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sets[key]; !ok {
		return
	}
	delete(c.sets, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear removes all cached datasets.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.sets = make(map[[sha256.Size]byte]*Dataset)
	c.order = nil
	c.mu.Unlock()
}

// Len returns the number of cached datasets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}

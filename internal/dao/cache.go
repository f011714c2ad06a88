package dao

import (
	"strings"
	"sync"
	"time"

	"github.com/portalctl/portalctl/internal/grid"
)

// DefaultCacheTTL is the default time-to-live for cached records.
const DefaultCacheTTL = 5 * time.Second

type cacheEntry struct {
	record    grid.Row
	timestamp time.Time
}

// RecordCache provides TTL-based caching of single records keyed by path.
type RecordCache struct {
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
	mx   sync.RWMutex
}

// NewRecordCache creates a new RecordCache with the specified TTL.
func NewRecordCache(ttl time.Duration) *RecordCache {
	return &RecordCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// SetClock replaces the time source.
func (c *RecordCache) SetClock(now func() time.Time) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.now = now
}

// Get returns the record cached under key unless it expired.
func (c *RecordCache) Get(key string) (grid.Row, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()

	entry, ok := c.data[key]
	if !ok || c.now().Sub(entry.timestamp) > c.ttl {
		return nil, false
	}

	return entry.record, true
}

// Set stores a record under key.
func (c *RecordCache) Set(key string, record grid.Row) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.data[key] = cacheEntry{record: record, timestamp: c.now()}
}

// InvalidatePrefix removes all entries whose keys start with prefix.
func (c *RecordCache) InvalidatePrefix(prefix string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

// Clear removes all entries from the cache.
func (c *RecordCache) Clear() {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.data = make(map[string]cacheEntry)
}

package filesniff

import (
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache stores analyses between runs of the same analyzer. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key, if present and not expired.
	Get(key string) (interface{}, bool)

	// Set stores value under key. A TTL of 0 means no expiration.
	Set(key string, value interface{}, ttl time.Duration)

	// Delete removes key.
	Delete(key string)

	// Clear removes every entry.
	Clear()
}

// CacheStatistics contains cache counters
type CacheStatistics struct {
	Hits    int64
	Misses  int64
	Size    int64
	HitRate float64
}

type cacheEntry struct {
	value      interface{}
	expiration time.Time
	hasExpiry  bool
}

// MemoryCache is an in-memory Cache with optional TTL expiration
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Get implements Cache. Expired entries are dropped on access.
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if exists && entry.hasExpiry && c.now().After(entry.expiration) {
		delete(c.entries, key)
		exists = false
	}

	if !exists {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

// Set implements Cache
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiration = c.now().Add(ttl)
		entry.hasExpiry = true
	}
	c.entries[key] = entry
}

// Delete implements Cache
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear implements Cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Stats returns hit and miss counters
func (c *MemoryCache) Stats() CacheStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStatistics{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    int64(len(c.entries)),
		HitRate: hitRate,
	}
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if entry.hasExpiry && now.After(entry.expiration) {
			delete(c.entries, key)
		}
	}
}

var _ Cache = (*MemoryCache)(nil)

// analysisKey identifies one version of a file. A file rewritten in place
// with a new size or modification time gets a new key.
func analysisKey(info *FileInfo) string {
	h := xxhash.New()
	_, _ = h.WriteString(info.Path)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(info.Size, 10))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(info.ModTime.UnixNano(), 10))
	return "analysis:" + strconv.FormatUint(h.Sum64(), 16)
}

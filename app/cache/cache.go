// Package cache is a byte-bounded in-memory LRU for recording assets
// (audio and spectrogram blobs), so flipping between recordings does not
// refetch multi-megabyte payloads.
package cache

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/minio/highwayhash"
)

// DefaultMaxSize is the default cache size limit (100MB)
const DefaultMaxSize = 100 * 1024 * 1024

// hashKey is the fixed highwayhash key for cache keys. Keys only need
// to be stable and well distributed, not secret.
var hashKey = []byte("wavemark-asset-cache-hash-key-01")

// Blob is one cached asset payload.
type Blob struct {
	Data        []byte
	ContentType string
	FetchedAt   time.Time
}

type entry struct {
	blob Blob
	size int64
}

// Cache is a size-bounded LRU keyed by asset identity. Safe for
// concurrent use.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]*entry
	lru         *lruList
	maxSize     int64
	currentSize int64

	hits   int64
	misses int64
}

// New creates a cache bounded to maxSize bytes.
func New(maxSize int64) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		entries: make(map[string]*entry),
		lru:     newLRUList(),
		maxSize: maxSize,
	}
}

// Key builds a stable cache key for one asset of one recording, e.g.
// Key("audio", 12) or Key("spectrogram", 12).
func Key(kind string, recordingID int) string {
	sum := highwayhash.Sum128([]byte(fmt.Sprintf("%s|%d", kind, recordingID)), hashKey)
	return hex.EncodeToString(sum[:])
}

// Get returns the blob for the key and marks it recently used.
func (c *Cache) Get(key string) (Blob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return Blob{}, false
	}
	c.hits++
	c.lru.moveToFront(key)
	return e.blob, true
}

// Put stores a blob, evicting least-recently-used entries until it
// fits. A blob larger than the whole cache is not stored.
func (c *Cache) Put(key string, blob Blob) {
	size := int64(len(blob.Data))
	c.mu.Lock()
	defer c.mu.Unlock()
	if size > c.maxSize {
		return
	}

	if old, ok := c.entries[key]; ok {
		c.currentSize -= old.size
		c.lru.remove(key)
	}
	for c.currentSize+size > c.maxSize {
		oldest := c.lru.removeOldest()
		if oldest == "" {
			break
		}
		if e, ok := c.entries[oldest]; ok {
			c.currentSize -= e.size
			delete(c.entries, oldest)
		}
	}
	c.entries[key] = &entry{blob: blob, size: size}
	c.lru.addToFront(key)
	c.currentSize += size
}

// Remove drops one entry.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.currentSize -= e.size
		delete(c.entries, key)
		c.lru.remove(key)
	}
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru = newLRUList()
	c.currentSize = 0
}

// SetMaxSize changes the size bound, evicting as needed.
func (c *Cache) SetMaxSize(maxSize int64) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	for c.currentSize > c.maxSize {
		oldest := c.lru.removeOldest()
		if oldest == "" {
			break
		}
		if e, ok := c.entries[oldest]; ok {
			c.currentSize -= e.size
			delete(c.entries, oldest)
		}
	}
}

// Stats describes cache occupancy and effectiveness.
type Stats struct {
	Entries      int     `json:"entries"`
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hitRate"`
}

// GetStats returns a snapshot of cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Stats{
		Entries:   len(c.entries),
		TotalSize: c.currentSize,
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
	}
	if c.maxSize > 0 {
		st.UsagePercent = float64(c.currentSize) / float64(c.maxSize) * 100
	}
	if total := c.hits + c.misses; total > 0 {
		st.HitRate = float64(c.hits) / float64(total)
	}
	return st
}

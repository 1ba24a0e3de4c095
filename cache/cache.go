package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/scout-labs/tradescout/models"
)

// entry holds a cached result set with its creation timestamp.
type entry struct {
	results   *models.SearchResults
	createdAt time.Time
}

// Cache is a simple in-memory cache for search result sets. Scraping a
// product is expensive (one SERP round plus a page fetch per result), so
// repeated searches for the same query within the max age are served from
// memory. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries.
// A background goroutine runs every 5 minutes to evict entries older
// than 1 hour.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the product name and result cap.
func Key(productName string, maxResults int) string {
	h := sha256.New()
	h.Write([]byte(productName))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(maxResults)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result set if it exists and is younger than
// maxAge. If maxAge <= 0 the cache is disabled and Get always misses.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.SearchResults, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > maxAge {
		return nil, false
	}
	return e.results, true
}

// Set stores a result set. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Cache) Set(key string, results *models.SearchResults) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		results:   results,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}

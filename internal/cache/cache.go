// Package cache provides a small in-memory page cache so a soft-failure
// retry or an immediate re-run does not refetch every race page.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// PageCache stores fetched page bodies keyed by URL.
type PageCache struct {
	cache *gocache.Cache
}

// New creates a page cache with the given default TTL.
func New(ttl time.Duration) *PageCache {
	return &PageCache{
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Get returns a cached body for the URL, if present and fresh.
func (c *PageCache) Get(url string) ([]byte, bool) {
	if v, ok := c.cache.Get(Key(url)); ok {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a body for the URL under the cache's default TTL.
func (c *PageCache) Set(url string, body []byte) {
	c.cache.SetDefault(Key(url), body)
}

// Key hashes a URL into a stable cache key.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "racepicks:v1:" + hex.EncodeToString(sum[:])
}

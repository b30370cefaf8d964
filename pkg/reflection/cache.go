package reflection

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache remembers generated reflection texts per payload. Lifetime and
// capacity are fixed at construction; Purge drops everything.
type Cache struct {
	lru *expirable.LRU[string, string]
	ttl time.Duration
}

// NewCache returns a cache holding at most size entries (0 means no
// limit), each expiring ttl after it was added.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, string](size, nil, ttl),
		ttl: ttl,
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached text for p, if still fresh.
func (c *Cache) Get(p Payload) (string, bool) {
	return c.lru.Get(CacheKey(p))
}

// Put stores text for p.
func (c *Cache) Put(p Payload, text string) {
	c.lru.Add(CacheKey(p), text)
}

// Len reports how many entries are cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge clears the cache.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// CacheKey hashes the JSON form of p, so identical snapshots share a key.
func CacheKey(p Payload) string {
	data, err := json.Marshal(p)
	if err != nil {
		// Payload holds only strings, ints and slices of them.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Package answercache caches terminal resolution results in a bounded LRU.
// Entries never expire: the zone store is immutable for the process lifetime
// and TTLs are served verbatim, so a cached answer stays correct forever.
package answercache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

// Cache is an LRU of resolved answers keyed by question lookup key.
type Cache struct {
	entries *lru.Cache[string, resolver.Answer]
}

// New creates a Cache holding up to size answers.
func New(size int) (*Cache, error) {
	entries, err := lru.New[string, resolver.Answer](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached answer for key, if present.
func (c *Cache) Get(key string) (resolver.Answer, bool) {
	return c.entries.Get(key)
}

// Put stores an answer under key, evicting the least recently used entry
// when full.
func (c *Cache) Put(key string, a resolver.Answer) {
	c.entries.Add(key, a)
}

// Len returns the number of cached answers.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Ensure Cache implements resolver.Cache at compile time
var _ resolver.Cache = (*Cache)(nil)

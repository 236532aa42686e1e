package sources

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheEntries = 256
	defaultCacheTTL     = 5 * time.Minute
	listingKey          = "\x00listing"
)

// objectCache keeps recently read objects in memory and coalesces
// concurrent fetches of the same key.
type objectCache struct {
	entries *expirable.LRU[string, []byte]
	group   singleflight.Group
}

func newObjectCache(size int, ttl time.Duration) *objectCache {
	if size <= 0 {
		size = defaultCacheEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &objectCache{
		entries: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// fetch returns the cached value for key or loads it once
func (c *objectCache) fetch(key string, load func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.entries.Get(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := load()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *objectCache) len() int {
	return c.entries.Len()
}

func (c *objectCache) purge() {
	c.entries.Purge()
}

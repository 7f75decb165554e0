package probe

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of dimension lookups kept in memory.
const DefaultCacheSize = 128

type dims struct {
	width, height int
}

// Cached wraps a DimensionProbe with an LRU cache. Entries are keyed by
// path, size and modification time so an edited asset is probed again.
// Failed lookups are not cached.
type Cached struct {
	inner DimensionProbe
	cache *lru.Cache[string, dims]
}

// NewCached creates a cached probe wrapping inner.
func NewCached(inner DimensionProbe, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, dims](size)
	return &Cached{inner: inner, cache: cache}
}

// Dimensions implements DimensionProbe.
func (c *Cached) Dimensions(path string) (int, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.inner.Dimensions(path)
	}
	key := fmt.Sprintf("%s\x00%d\x00%d", path, info.Size(), info.ModTime().UnixNano())

	if d, ok := c.cache.Get(key); ok {
		return d.width, d.height, nil
	}

	w, h, err := c.inner.Dimensions(path)
	if err != nil {
		return 0, 0, err
	}
	c.cache.Add(key, dims{width: w, height: h})
	return w, h, nil
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}

package amplitude

import (
	"context"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Cached reuses samples for files that have not changed since they were
// last extracted.
type Cached struct {
	next  Extractor
	cache *lru.Cache[cacheKey, []int]
}

func NewCached(next Extractor, size int) (*Cached, error) {
	cache, err := lru.New[cacheKey, []int](max(size, 1))
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Samples(ctx context.Context, path string) ([]int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}

	if samples, ok := c.cache.Get(key); ok {
		return samples, nil
	}

	samples, err := c.next.Samples(ctx, path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, samples)
	return samples, nil
}

// Len returns the number of cached files.
func (c *Cached) Len() int {
	return c.cache.Len()
}

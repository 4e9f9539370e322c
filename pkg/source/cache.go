package source

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultParseCacheSize bounds the parse cache when no size is configured.
const DefaultParseCacheSize = 512

// ParseCache memoises per-file parse results keyed by path and content
// hash, so reloading an unchanged file skips tree-sitter entirely. Values
// are shared between loads; callers must not mutate them.
type ParseCache[V any] struct {
	cache  *lru.Cache[string, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewParseCache creates a cache holding at most size entries. size <= 0
// uses DefaultParseCacheSize.
func NewParseCache[V any](size int, logger *slog.Logger) (*ParseCache[V], error) {
	if size <= 0 {
		size = DefaultParseCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, err := lru.NewWithEvict(size, func(key string, _ V) {
		logger.Debug("parse cache evicting file", "key", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}
	return &ParseCache[V]{cache: c}, nil
}

func cacheKey(path, hash string) string { return path + "@" + hash }

// Get returns the cached value for path at the given content hash.
func (c *ParseCache[V]) Get(path, hash string) (V, bool) {
	v, ok := c.cache.Get(cacheKey(path, hash))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores v for path at hash.
func (c *ParseCache[V]) Put(path, hash string, v V) {
	c.cache.Add(cacheKey(path, hash), v)
}

// Purge drops every entry.
func (c *ParseCache[V]) Purge() { c.cache.Purge() }

// Len reports the number of cached files.
func (c *ParseCache[V]) Len() int { return c.cache.Len() }

// Stats returns hit and miss counts since creation.
func (c *ParseCache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

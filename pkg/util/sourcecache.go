package util

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"
)

// SourceCache serves declaration file contents from read-only memory
// mappings. A mapping is reused while the file's size and modification time
// are unchanged, so repeated loads of the same externs set only touch the
// files that were edited in between.
//
// Read returns a private copy: callers may keep it after the mapping is
// replaced or the cache is closed.
type SourceCache struct {
	mu       sync.RWMutex
	entries  map[string]*mappedSource
	maxFiles int
	logger   *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	remaps    atomic.Int64
	fallbacks atomic.Int64
}

// SourceCacheConfig bounds a SourceCache.
type SourceCacheConfig struct {
	// MaxFiles caps the number of mapped files. Files beyond the cap are
	// read directly and not retained. Zero means unlimited.
	MaxFiles int
	Logger   *slog.Logger
}

// SourceCacheStats reports cache activity.
type SourceCacheStats struct {
	Files     int
	Bytes     int64
	Hits      int64
	Misses    int64
	Remaps    int64
	Fallbacks int64
}

type mappedSource struct {
	data    mmap.MMap
	file    *os.File
	buf     []byte // used instead of data when mapping failed or the file is empty
	size    int64
	modTime time.Time
}

func (m *mappedSource) bytes() []byte {
	if m.data != nil {
		return m.data
	}
	return m.buf
}

func (m *mappedSource) release() error {
	var errs []error
	if m.data != nil {
		errs = append(errs, m.data.Unmap())
	}
	if m.file != nil {
		errs = append(errs, m.file.Close())
	}
	return errors.Join(errs...)
}

// NewSourceCache creates an empty cache.
func NewSourceCache(cfg SourceCacheConfig) *SourceCache {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SourceCache{
		entries:  make(map[string]*mappedSource),
		maxFiles: cfg.MaxFiles,
		logger:   cfg.Logger,
	}
}

// Read returns the current contents of path.
func (c *SourceCache) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	c.mu.RLock()
	entry, ok := c.entries[path]
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		data := bytes.Clone(entry.bytes())
		c.mu.RUnlock()
		c.hits.Add(1)
		return nonNil(data), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[path]; ok {
		if old.size == info.Size() && old.modTime.Equal(info.ModTime()) {
			c.hits.Add(1)
			return nonNil(bytes.Clone(old.bytes())), nil
		}
		if err := old.release(); err != nil {
			c.logger.Warn("failed to release stale mapping", "path", path, "error", err)
		}
		delete(c.entries, path)
		c.remaps.Add(1)
	}
	c.misses.Add(1)

	if c.maxFiles > 0 && len(c.entries) >= c.maxFiles {
		return os.ReadFile(path)
	}

	entry, err = c.load(path)
	if err != nil {
		return nil, err
	}
	c.entries[path] = entry
	return nonNil(bytes.Clone(entry.bytes())), nil
}

func (c *SourceCache) load(path string) (*mappedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	entry := &mappedSource{size: info.Size(), modTime: info.ModTime()}
	if info.Size() == 0 {
		f.Close()
		entry.buf = []byte{}
		return entry, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		c.logger.Debug("mmap failed, reading file", "path", path, "error", err)
		c.fallbacks.Add(1)
		buf, readErr := os.ReadFile(path)
		f.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
		entry.buf = buf
		return entry, nil
	}
	entry.data = data
	entry.file = f
	return entry, nil
}

// Invalidate drops the mapping for path, if any.
func (c *SourceCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[path]; ok {
		if err := entry.release(); err != nil {
			c.logger.Warn("failed to release mapping", "path", path, "error", err)
		}
		delete(c.entries, path)
	}
}

// Stats returns a snapshot of cache counters.
func (c *SourceCache) Stats() SourceCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, e := range c.entries {
		total += e.size
	}
	return SourceCacheStats{
		Files:     len(c.entries),
		Bytes:     total,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Remaps:    c.remaps.Load(),
		Fallbacks: c.fallbacks.Load(),
	}
}

// Close releases every mapping. The cache stays usable and will map files
// again on demand.
func (c *SourceCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for path, e := range c.entries {
		if err := e.release(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	c.entries = make(map[string]*mappedSource)
	return errors.Join(errs...)
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceCacheReadAndHit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "console.js", "/** @type {Console} */\nvar console;\n")

	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	defer cache.Close()

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "/** @type {Console} */\nvar console;\n", string(data))

	again, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestSourceCacheReturnsPrivateCopy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.js", "var a;")
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})

	data, err := cache.Read(path)
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	// The copy outlives the mapping.
	assert.Equal(t, "var a;", string(data))
	data[0] = 'X'
	fresh, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "var a;", string(fresh))
}

func TestSourceCacheRemapsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var a;")
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	defer cache.Close()

	_, err := cache.Read(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("var a;\nvar b;\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "var a;\nvar b;\n", string(data))
	assert.Equal(t, int64(1), cache.Stats().Remaps)
}

func TestSourceCacheEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.js", "")
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	defer cache.Close()

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestSourceCacheMissingFile(t *testing.T) {
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	defer cache.Close()

	_, err := cache.Read(filepath.Join(t.TempDir(), "nope.js"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestSourceCacheDirectory(t *testing.T) {
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	_, err := cache.Read(t.TempDir())
	assert.Error(t, err)
}

func TestSourceCacheMaxFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.js", "var a;")
	b := writeFile(t, dir, "b.js", "var b;")

	cache := NewSourceCache(SourceCacheConfig{MaxFiles: 1, Logger: DiscardLogger()})
	defer cache.Close()

	_, err := cache.Read(a)
	require.NoError(t, err)
	data, err := cache.Read(b)
	require.NoError(t, err)
	assert.Equal(t, "var b;", string(data))
	assert.Equal(t, 1, cache.Stats().Files)
}

func TestSourceCacheInvalidate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.js", "var a;")
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	defer cache.Close()

	_, err := cache.Read(path)
	require.NoError(t, err)
	cache.Invalidate(path)
	assert.Equal(t, 0, cache.Stats().Files)

	_, err = cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cache.Stats().Misses)
}

func TestSourceCacheConcurrentReads(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.js", "var a;"),
		writeFile(t, dir, "b.js", "var b;"),
		writeFile(t, dir, "c.js", "var c;"),
	}
	cache := NewSourceCache(SourceCacheConfig{Logger: DiscardLogger()})
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			data, err := cache.Read(p)
			assert.NoError(t, err)
			assert.Len(t, data, 6)
		}(paths[i%len(paths)])
	}
	wg.Wait()
	assert.Equal(t, 3, cache.Stats().Files)
}

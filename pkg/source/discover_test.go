package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("var x;\n"), 0o644))
	return path
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	b := touch(t, root, "browser/window.js")
	a := touch(t, root, "browser/console.js")
	d := touch(t, root, "lib.d.ts")
	touch(t, root, "notes.md")
	touch(t, root, "node_modules/pkg/index.js")

	files, err := Discover(root, nil, DefaultExclude)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, d}, files)
}

func TestDiscoverIncludeExclude(t *testing.T) {
	root := t.TempDir()
	keep := touch(t, root, "es6/promise.js")
	touch(t, root, "es6/generated/big.js")
	touch(t, root, "other/x.js")

	files, err := Discover(root, []string{"es6/**/*.js"}, []string{"**/generated/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestDiscoverInvalidPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestExpandKeepsOrderAndMissingFiles(t *testing.T) {
	root := t.TempDir()
	w := touch(t, root, "window.js")
	c := touch(t, root, "console.js")
	missing := filepath.Join(root, "missing.js")

	files, err := Expand([]string{w, missing, c, w}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{w, missing, c}, files)
}

func TestExpandGlobsAndDirectories(t *testing.T) {
	root := t.TempDir()
	a := touch(t, root, "a/one.js")
	b := touch(t, root, "a/two.js")
	c := touch(t, root, "dir/sub/three.js")

	files, err := Expand([]string{
		filepath.Join(root, "dir"),
		filepath.Join(root, "a", "*.js"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, files)
}

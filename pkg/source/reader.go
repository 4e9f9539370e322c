// Package source loads declaration files and splits them into blocks of a
// doc comment plus the statement it annotates.
package source

import (
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/gnana997/ambient/pkg/util"
)

// Reader fetches the raw contents of a declaration file by identifier.
type Reader interface {
	ReadSource(id string) ([]byte, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(id string) ([]byte, error)

func (f ReaderFunc) ReadSource(id string) ([]byte, error) { return f(id) }

// FileReader reads from the local file system, through a SourceCache when
// one is set.
type FileReader struct {
	Cache *util.SourceCache
}

// NewFileReader returns a reader backed by cache. A nil cache reads files
// directly.
func NewFileReader(cache *util.SourceCache) *FileReader {
	return &FileReader{Cache: cache}
}

func (r *FileReader) ReadSource(id string) ([]byte, error) {
	if r.Cache == nil {
		return os.ReadFile(id)
	}
	return r.Cache.Read(id)
}

// FSReader reads from an fs.FS. Identifiers are cleaned and a leading
// slash is dropped so "/externs/a.js" and "externs/a.js" name the same file.
type FSReader struct {
	FS fs.FS
}

func (r FSReader) ReadSource(id string) ([]byte, error) {
	name := strings.TrimPrefix(path.Clean("/"+id), "/")
	return fs.ReadFile(r.FS, name)
}

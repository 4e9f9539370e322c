// Package bundled embeds a small set of externs that can be loaded without
// any files on disk.
package bundled

import (
	"embed"
	"io/fs"
	"slices"

	"github.com/gnana997/ambient/pkg/source"
)

// Scheme prefixes the identifiers of bundled files, e.g.
// "bundled:console.js".
const Scheme = "bundled"

//go:embed externs/*.js
var embedded embed.FS

// FS returns the bundled externs rooted at their directory.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "externs")
	if err != nil {
		panic(err)
	}
	return sub
}

// Reader reads bundled files by their name without the scheme.
func Reader() source.Reader {
	return source.FSReader{FS: FS()}
}

// IDs returns the identifier of every bundled file, sorted.
func IDs() []string {
	entries, err := fs.ReadDir(embedded, "externs")
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			ids = append(ids, Scheme+":"+e.Name())
		}
	}
	slices.Sort(ids)
	return ids
}

// Mount registers the bundled reader on m under Scheme.
func Mount(m *source.MuxReader) *source.MuxReader {
	return m.Handle(Scheme, Reader())
}

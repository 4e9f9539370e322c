package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches the declaration files picked up from a directory.
var DefaultInclude = []string{"**/*.js", "**/*.d.ts"}

// DefaultExclude skips dependency and VCS directories.
var DefaultExclude = []string{"**/node_modules/**", "**/.git/**"}

// Discover walks root and returns the files matching include and not
// matching exclude, sorted by path. Patterns are doublestar globs relative
// to root. Empty include uses DefaultInclude.
func Discover(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern: %s", p)
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		for _, p := range exclude {
			if ok, _ := doublestar.PathMatch(p, rel); ok {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		for _, p := range include {
			if ok, _ := doublestar.PathMatch(p, rel); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Expand turns a configured externs list into an ordered file list.
//
// Plain paths are kept as written, even when missing, so the loader can
// report them. Glob patterns expand in sorted order, and directories are
// walked with Discover. A file listed twice keeps its first position.
func Expand(patterns []string, exclude []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		if hasMeta(pattern) {
			if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
				return nil, fmt.Errorf("invalid pattern: %s", pattern)
			}
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expand %s: %w", pattern, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(pattern)
		if err == nil && info.IsDir() {
			files, err := Discover(pattern, nil, exclude)
			if err != nil {
				return nil, fmt.Errorf("discover %s: %w", pattern, err)
			}
			for _, f := range files {
				add(f)
			}
			continue
		}
		add(pattern)
	}
	return out, nil
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

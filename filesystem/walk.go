package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnoreDirs are never descended into while listing template roots.
var DefaultIgnoreDirs = []string{
	"node_modules", ".git", ".svn", ".hg", ".idea", ".vscode",
}

// WalkOptions selects which entries Walk reports.
type WalkOptions struct {
	IgnoreDirs    []string // Directory names to prune (default DefaultIgnoreDirs)
	Ignore        []string // Doublestar patterns over relative paths, e.g. "**/*.swp"
	IncludeHidden bool     // Report dot files and descend into dot directories
}

func (o WalkOptions) skip(rel string, d fs.DirEntry) bool {
	name := d.Name()
	if d.IsDir() {
		dirs := o.IgnoreDirs
		if len(dirs) == 0 {
			dirs = DefaultIgnoreDirs
		}
		if slices.Contains(dirs, name) {
			return true
		}
	}
	if !o.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range o.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Walk calls visit for every regular file below root with its
// slash-separated path relative to root. Skipped directories are pruned.
func Walk(root string, opts WalkOptions, visit func(rel string, d fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if opts.skip(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		return visit(rel, d)
	})
}

// Lister is implemented by filesystems that can enumerate the files below a
// directory. Returned paths are slash-separated and relative to root.
type Lister interface {
	List(root string) ([]string, error)
}

// List returns every regular file under root, relative to root and sorted.
// Dot files are included; version control and editor directories are not.
// A missing root yields an empty list.
func (OS) List(root string) ([]string, error) {
	var files []string
	err := Walk(root, WalkOptions{IncludeHidden: true}, func(rel string, _ fs.DirEntry) error {
		files = append(files, rel)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Stat(root); errors.Is(statErr, fs.ErrNotExist) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// List returns every stored file under root, relative to root.
func (m *Memory) List(root string) ([]string, error) {
	prefix := filepath.Clean(root) + string(filepath.Separator)
	if root == "" || prefix == "."+string(filepath.Separator) {
		prefix = ""
	}

	var files []string
	for _, p := range m.Paths() {
		if strings.HasPrefix(p, prefix) {
			files = append(files, filepath.ToSlash(strings.TrimPrefix(p, prefix)))
		}
	}
	return files, nil
}

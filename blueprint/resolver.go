package blueprint

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/logger"
)

// DefaultSuffix is appended to template names that are not copied verbatim.
const DefaultSuffix = ".tmpl"

// Resolution is the outcome of resolving one file across the roots.
type Resolution struct {
	Name       string   // Relative name that was looked up (suffix included)
	Path       string   // Concrete path of the winning candidate
	Root       string   // Root that supplied Path
	Candidates []string // Every root containing Name, in precedence order
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSuffix overrides the template suffix (default ".tmpl").
func WithSuffix(suffix string) Option {
	return func(r *Resolver) {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			return
		}
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		r.suffix = suffix
	}
}

// WithLogger routes override diagnostics to log.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// Resolver finds which root supplies a given file.
type Resolver struct {
	fs     filesystem.FS
	roots  []string
	suffix string
	log    logger.Logger
}

// New creates a resolver over roots; earlier roots take precedence.
func New(fsys filesystem.FS, roots []string, opts ...Option) *Resolver {
	r := &Resolver{
		fs:     fsys,
		roots:  append([]string(nil), roots...),
		suffix: DefaultSuffix,
		log:    logger.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Roots returns a copy of the search order.
func (r *Resolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Suffix returns the template suffix in use.
func (r *Resolver) Suffix() string {
	return r.suffix
}

// TemplateName returns name with the template suffix, unless verbatim is set
// or the suffix is already present.
func (r *Resolver) TemplateName(name string, verbatim bool) string {
	if verbatim || strings.HasSuffix(name, r.suffix) {
		return name
	}
	return name + r.suffix
}

// Resolve looks name up in every root and returns the first match.
func (r *Resolver) Resolve(name string, verbatim bool) (Resolution, error) {
	lookup := r.TemplateName(filepath.ToSlash(name), verbatim)
	res := Resolution{Name: lookup}

	for _, root := range r.roots {
		candidate := filepath.Join(root, filepath.FromSlash(lookup))
		ok, err := r.fs.Exists(candidate)
		if err != nil {
			return Resolution{}, fmt.Errorf("checking %s: %w", candidate, err)
		}
		if !ok {
			continue
		}
		if res.Path == "" {
			res.Path = candidate
			res.Root = root
		}
		res.Candidates = append(res.Candidates, root)
	}

	switch n := len(res.Candidates); {
	case n == 0:
		return Resolution{}, &TemplateNotFoundError{Name: lookup, Roots: r.Roots()}
	case n == 2:
		r.log.Debug("template overridden",
			logger.F("file", lookup),
			logger.F("root", res.Root),
			logger.F("shadowed", res.Candidates[1]))
	case n > 2:
		r.log.Warn("possible override conflict",
			logger.F("file", lookup),
			logger.F("root", res.Root),
			logger.F("candidates", strings.Join(res.Candidates, ", ")))
	}

	return res, nil
}

// Entry describes one template as seen through the override layers.
type Entry struct {
	Name       string   // Relative name, as stored in the roots
	Root       string   // Winning root
	Candidates []string // Every root providing Name
}

// List enumerates every file in every root whose relative name matches the
// doublestar pattern ("**" when empty). The filesystem must implement
// filesystem.Lister.
func (r *Resolver) List(pattern string) ([]Entry, error) {
	lister, ok := r.fs.(filesystem.Lister)
	if !ok {
		return nil, fmt.Errorf("filesystem %T cannot list directories", r.fs)
	}
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	byName := make(map[string]*Entry)
	for _, root := range r.roots {
		files, err := lister.List(root)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", root, err)
		}
		for _, name := range files {
			if ok, _ := doublestar.Match(pattern, path.Clean(name)); !ok {
				continue
			}
			e, seen := byName[name]
			if !seen {
				e = &Entry{Name: name, Root: root}
				byName[name] = e
			}
			e.Candidates = append(e.Candidates, root)
		}
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

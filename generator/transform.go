package generator

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"path"
	"sort"
	"sync"

	"github.com/simonhull/firebird-suite/plume/plan"
)

// Names of the built-in transforms.
const (
	TrimTrailingWhitespace = "trim-trailing-whitespace"
	EnsureTrailingNewline  = "ensure-trailing-newline"
	LineEndingsLF          = "lf"
	LineEndingsCRLF        = "crlf"
	GoFormat               = "gofmt"
)

// Transforms is a registry of named content transforms.
type Transforms struct {
	mu    sync.RWMutex
	funcs map[string]plan.TransformFunc
}

// NewTransforms creates a registry holding the built-ins.
func NewTransforms() *Transforms {
	return &Transforms{funcs: map[string]plan.TransformFunc{
		TrimTrailingWhitespace: trimTrailingWhitespace,
		EnsureTrailingNewline:  ensureTrailingNewline,
		LineEndingsLF:          toLF,
		LineEndingsCRLF:        toCRLF,
		GoFormat:               goFormat,
	}}
}

// Register adds or replaces a named transform.
func (t *Transforms) Register(name string, fn plan.TransformFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("transform needs a name and a function")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[name] = fn
	return nil
}

// Lookup returns the transform registered under name.
func (t *Transforms) Lookup(name string) (plan.TransformFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names lists the registered transforms in sorted order.
func (t *Transforms) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func trimTrailingWhitespace(_ context.Context, _ string, content []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(content))
	for i, line := range bytes.Split(content, []byte("\n")) {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.Write(bytes.TrimRight(line, " \t\r"))
		if bytes.HasSuffix(line, []byte("\r")) {
			out.WriteByte('\r')
		}
	}
	return out.Bytes(), nil
}

func ensureTrailingNewline(_ context.Context, _ string, content []byte) ([]byte, error) {
	if len(content) == 0 || bytes.HasSuffix(content, []byte("\n")) {
		return content, nil
	}
	return append(content[:len(content):len(content)], '\n'), nil
}

func toLF(_ context.Context, _ string, content []byte) ([]byte, error) {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), nil
}

func toCRLF(ctx context.Context, path string, content []byte) ([]byte, error) {
	lf, _ := toLF(ctx, path, content)
	return bytes.ReplaceAll(lf, []byte("\n"), []byte("\r\n")), nil
}

// goFormat runs gofmt over .go files and leaves other files alone.
func goFormat(_ context.Context, file string, content []byte) ([]byte, error) {
	if path.Ext(file) != ".go" {
		return content, nil
	}
	formatted, err := format.Source(content)
	if err != nil {
		return nil, fmt.Errorf("failed to format Go source: %w", err)
	}
	return formatted, nil
}

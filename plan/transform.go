package plan

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TransformFunc rewrites the rendered content of one file. path is the
// destination path relative to the output root.
type TransformFunc func(ctx context.Context, path string, content []byte) ([]byte, error)

// Transform is one step of a chain. Steps decoded from YAML carry only a
// Name; the generator binds Fn from its transform registry.
type Transform struct {
	Name string
	Fn   TransformFunc
}

// Named references a registered transform.
func Named(name string) Transform {
	return Transform{Name: name}
}

// Func wraps fn as a transform. name only appears in errors and logs.
func Func(name string, fn TransformFunc) Transform {
	return Transform{Name: name, Fn: fn}
}

func (t *Transform) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Value == "" {
		return fmt.Errorf("line %d: transform must be a transform name", node.Line)
	}
	t.Name = node.Value
	return nil
}

// Tier orders transforms within a Chain.
type Tier int

const (
	MethodTier Tier = iota // passed to Generate
	SpecTier               // the "_" section defaults
	BlockTier
	FileTier
)

func (t Tier) String() string {
	switch t {
	case MethodTier:
		return "method"
	case SpecTier:
		return "spec"
	case BlockTier:
		return "block"
	case FileTier:
		return "file"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Chain holds a task's transforms grouped by tier. Tiers run in index
// order; inside a tier transforms run in declaration order.
type Chain [4][]Transform

// Len reports the number of transforms across all tiers.
func (c Chain) Len() int {
	n := 0
	for _, tier := range c {
		n += len(tier)
	}
	return n
}

// Flatten lists every transform in application order.
func (c Chain) Flatten() []Transform {
	out := make([]Transform, 0, c.Len())
	for _, tier := range c {
		out = append(out, tier...)
	}
	return out
}

// Bind returns a copy of the chain with every unbound transform resolved
// through lookup.
func (c Chain) Bind(lookup func(name string) (TransformFunc, bool)) (Chain, error) {
	var out Chain
	for i, tier := range c {
		if len(tier) == 0 {
			continue
		}
		out[i] = make([]Transform, len(tier))
		for j, t := range tier {
			if t.Fn == nil {
				fn, ok := lookup(t.Name)
				if !ok {
					return Chain{}, fmt.Errorf("unknown transform %q in %s tier", t.Name, Tier(i))
				}
				t.Fn = fn
			}
			out[i][j] = t
		}
	}
	return out, nil
}

// Apply runs the chain over content. Every transform must be bound.
func (c Chain) Apply(ctx context.Context, path string, content []byte) ([]byte, error) {
	for _, t := range c.Flatten() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.Fn == nil {
			return nil, fmt.Errorf("transform %q is not bound", t.Name)
		}
		out, err := t.Fn(ctx, path, content)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", t.Name, err)
		}
		content = out
	}
	return content, nil
}

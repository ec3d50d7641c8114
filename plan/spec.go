package plan

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/plume/scope"
)

// ReservedSection is the section key that holds defaults instead of blocks.
// Other keys starting with it are ignored.
const ReservedSection = "_"

// Spec is a generation request. Exactly one of Sections, Blocks and
// Templates must be set.
type Spec struct {
	Sections  *Sections  `yaml:"sections,omitempty"`
	Blocks    []Block    `yaml:"blocks,omitempty"`
	Templates []FileSpec `yaml:"templates,omitempty"`
}

// SectionDefaults are merged into every block of every section.
type SectionDefaults struct {
	Transform []Transform `yaml:"transform,omitempty"`
}

// Sections groups blocks by name.
type Sections struct {
	Defaults SectionDefaults
	Named    map[string][]Block
}

// NewSections wraps named block groups. A "_" key must not be used here;
// pass defaults through the Defaults field instead.
func NewSections(named map[string][]Block) *Sections {
	return &Sections{Named: named}
}

func (s *Sections) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: sections must be a mapping", node.Line)
	}
	s.Named = make(map[string][]Block)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch {
		case key == ReservedSection:
			if err := value.Decode(&s.Defaults); err != nil {
				return fmt.Errorf("section %s: %w", key, err)
			}
		case strings.HasPrefix(key, ReservedSection):
			continue
		default:
			var blocks []Block
			if err := value.Decode(&blocks); err != nil {
				return fmt.Errorf("section %s: %w", key, err)
			}
			s.Named[key] = blocks
		}
	}
	return nil
}

// PathFunc computes a path from the render context.
type PathFunc func(data scope.Context) string

// Block is a group of files sharing a base path, destination and
// transforms.
type Block struct {
	Path string `yaml:"path,omitempty"`
	// PathFunc is rejected by validation: block paths must be static.
	PathFunc PathFunc `yaml:"-"`

	// From replaces Path on the source side; To prefixes destinations.
	From     string   `yaml:"from,omitempty"`
	FromFunc PathFunc `yaml:"-"`
	To       string   `yaml:"to,omitempty"`
	ToFunc   PathFunc `yaml:"-"`

	Condition Condition   `yaml:"condition"`
	Transform []Transform `yaml:"transform,omitempty"`
	Templates []FileSpec  `yaml:"templates"`
}

// RenameFunc computes a destination file name.
type RenameFunc func(data scope.Context, file string) string

// RenderOptions are passed through to the renderer.
type RenderOptions struct {
	// EntityScoped renders run exclusively with reseeded fake data and
	// need an entityName in the context.
	EntityScoped bool          `yaml:"entityScoped,omitempty"`
	Context      scope.Context `yaml:"context,omitempty"`
}

// FileSpec describes one file of a block, or one entry of the templates
// form. A bare YAML string sets File.
type FileSpec struct {
	File string `yaml:"file,omitempty"`

	// Source replaces File on the source side.
	Source string `yaml:"source,omitempty"`
	// Destination replaces the computed destination; it is relative to the
	// output root and ignores the block's To.
	Destination string `yaml:"destination,omitempty"`

	// RenameTo is a text/template over the context plus "file".
	RenameTo   string     `yaml:"renameTo,omitempty"`
	RenameFunc RenameFunc `yaml:"-"`

	// Override decides what happens when the destination exists. Unset
	// leaves it to the conflict strategy; false skips the file.
	Override Condition `yaml:"override"`

	Transform []Transform `yaml:"transform,omitempty"`

	// Binary and Template override inference when set.
	Binary   *bool `yaml:"binary,omitempty"`
	Template *bool `yaml:"template,omitempty"`

	Options RenderOptions `yaml:"options,omitempty"`
}

// File returns a FileSpec for a bare relative name.
func File(name string) FileSpec {
	return FileSpec{File: name}
}

type fileSpecFields FileSpec

func (f *FileSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = FileSpec{File: node.Value}
		return nil
	}
	return node.Decode((*fileSpecFields)(f))
}

// name is the logical file name used for source and destination.
func (f FileSpec) name() string {
	if f.File != "" {
		return f.File
	}
	return f.Source
}

// Condition is a boolean that may be literal, an expr-lang expression or a
// function. The zero value is unset and evaluates to true.
type Condition struct {
	Value *bool
	Expr  string
	Func  func(data scope.Context) (bool, error)
}

// When returns a literal condition.
func When(v bool) Condition {
	return Condition{Value: &v}
}

// WhenExpr returns a condition evaluated with expr-lang.
func WhenExpr(expression string) Condition {
	return Condition{Expr: expression}
}

// WhenFunc returns a condition computed by fn.
func WhenFunc(fn func(data scope.Context) (bool, error)) Condition {
	return Condition{Func: fn}
}

// IsSet reports whether any form of the condition was given.
func (c Condition) IsSet() bool {
	return c.Value != nil || c.Expr != "" || c.Func != nil
}

// Eval evaluates the condition against data.
func (c Condition) Eval(data scope.Context) (bool, error) {
	switch {
	case c.Func != nil:
		return c.Func(data)
	case c.Expr != "":
		return scope.EvalCondition(c.Expr, data)
	case c.Value != nil:
		return *c.Value, nil
	default:
		return true, nil
	}
}

func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: condition must be a boolean or an expression", node.Line)
	}
	if node.Tag == "!!bool" {
		var v bool
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = When(v)
		return nil
	}
	*c = WhenExpr(node.Value)
	return nil
}

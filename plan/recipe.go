package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/needle"
	"github.com/simonhull/firebird-suite/plume/scope"
)

// Recipe is the YAML document read by the CLI: a spec plus the context it
// renders with and the injections to run afterwards.
type Recipe struct {
	Spec    `yaml:",inline"`
	Context scope.Context `yaml:"context,omitempty"`
	Needles []Injection   `yaml:"needles,omitempty"`
}

// Injection is the YAML form of a needle.Request.
type Injection struct {
	File              string `yaml:"file"`
	Needle            string `yaml:"needle"`
	Content           string `yaml:"content"`
	Check             string `yaml:"check,omitempty"`
	CheckPattern      string `yaml:"checkPattern,omitempty"`
	BypassMessage     string `yaml:"bypassMessage,omitempty"`
	IgnoreNonExisting bool   `yaml:"ignoreNonExisting,omitempty"`
	After             bool   `yaml:"after,omitempty"`
	AutoIndent        bool   `yaml:"autoIndent,omitempty"`
	StrictWhitespace  bool   `yaml:"strictWhitespace,omitempty"`
}

// Request converts the injection, compiling CheckPattern.
func (in Injection) Request() (needle.Request, error) {
	req := needle.Request{
		File:              in.File,
		Needle:            in.Needle,
		Content:           in.Content,
		Check:             in.Check,
		BypassMessage:     in.BypassMessage,
		IgnoreNonExisting: in.IgnoreNonExisting,
		After:             in.After,
		AutoIndent:        in.AutoIndent,
		StrictWhitespace:  in.StrictWhitespace,
	}
	if in.CheckPattern != "" {
		re, err := regexp.Compile(in.CheckPattern)
		if err != nil {
			return needle.Request{}, fmt.Errorf("needle %s: checkPattern: %w", in.Needle, err)
		}
		req.CheckPattern = re
	}
	return req, nil
}

// Requests converts every injection of the recipe.
func (r *Recipe) Requests() ([]needle.Request, error) {
	reqs := make([]needle.Request, 0, len(r.Needles))
	for _, in := range r.Needles {
		req, err := in.Request()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Parse decodes a recipe. Unknown keys are rejected. A recipe may carry
// only needles, in which case no spec variant is required.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Recipe
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing recipe: %w", err)
	}
	if r.HasSpec() {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// HasSpec reports whether the recipe generates files.
func (r *Recipe) HasSpec() bool {
	return r.Sections != nil || r.Blocks != nil || r.Templates != nil
}

// Load reads and parses the recipe at path.
func Load(fsys filesystem.FS, path string) (*Recipe, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

package plan

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks the structure of the spec. It performs no I/O.
func (s *Spec) Validate() error {
	if s == nil {
		return invalid("", "spec is nil")
	}

	var set []string
	if s.Sections != nil {
		set = append(set, "sections")
	}
	if s.Blocks != nil {
		set = append(set, "blocks")
	}
	if s.Templates != nil {
		set = append(set, "templates")
	}
	switch len(set) {
	case 0:
		return invalid("", "one of sections, blocks or templates is required")
	case 1:
	default:
		return invalid("", "exactly one of sections, blocks or templates may be set, got %s", strings.Join(set, " and "))
	}

	switch {
	case s.Sections != nil:
		if _, ok := s.Sections.Named[ReservedSection]; ok {
			return invalid("sections."+ReservedSection, "reserved section holds defaults, not blocks")
		}
		for _, name := range s.Sections.names() {
			for i, b := range s.Sections.Named[name] {
				if err := b.validate(fmt.Sprintf("sections.%s[%d]", name, i)); err != nil {
					return err
				}
			}
		}
	case s.Blocks != nil:
		for i, b := range s.Blocks {
			if err := b.validate(fmt.Sprintf("blocks[%d]", i)); err != nil {
				return err
			}
		}
	default:
		for i, f := range s.Templates {
			if err := f.validate(fmt.Sprintf("templates[%d]", i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// names lists the processable sections in sorted order.
func (s *Sections) names() []string {
	names := make([]string, 0, len(s.Named))
	for name := range s.Named {
		if strings.HasPrefix(name, ReservedSection) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b Block) validate(at string) error {
	if b.PathFunc != nil {
		return invalid(at+".path", "block path must be a static string")
	}
	if b.From != "" && b.FromFunc != nil {
		return invalid(at+".from", "set either from or a from function, not both")
	}
	if b.To != "" && b.ToFunc != nil {
		return invalid(at+".to", "set either to or a to function, not both")
	}
	for _, t := range b.Transform {
		if t.Name == "" && t.Fn == nil {
			return invalid(at+".transform", "empty transform")
		}
	}
	for i, f := range b.Templates {
		if err := f.validate(fmt.Sprintf("%s.templates[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}

func (f FileSpec) validate(at string) error {
	if f.name() == "" {
		return invalid(at, "file name is required")
	}
	if f.RenameTo != "" && f.RenameFunc != nil {
		return invalid(at+".renameTo", "set either renameTo or a rename function, not both")
	}
	if f.Binary != nil && *f.Binary && f.Template != nil && *f.Template {
		return invalid(at, "a binary file cannot be a template")
	}
	for _, t := range f.Transform {
		if t.Name == "" && t.Fn == nil {
			return invalid(at+".transform", "empty transform")
		}
	}
	return nil
}

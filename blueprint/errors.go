package blueprint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is matched by every TemplateNotFoundError.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateNotFoundError reports a file no root could supply.
type TemplateNotFoundError struct {
	Name  string   // Requested file, including the template suffix if any
	Roots []string // Roots searched, in precedence order
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %s not found in roots [%s]", e.Name, strings.Join(e.Roots, ", "))
}

func (e *TemplateNotFoundError) Unwrap() error {
	return ErrTemplateNotFound
}

package plan

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is matched by every InvalidSpecError.
var ErrInvalidSpec = errors.New("invalid generation spec")

// InvalidSpecError reports a structural problem found before any I/O.
// Path locates the offending element, e.g. "sections.server[1].templates[0]".
type InvalidSpecError struct {
	Path   string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid generation spec: %s", e.Reason)
	}
	return fmt.Sprintf("invalid generation spec at %s: %s", e.Path, e.Reason)
}

func (e *InvalidSpecError) Unwrap() error {
	return ErrInvalidSpec
}

func invalid(path, format string, args ...any) error {
	return &InvalidSpecError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

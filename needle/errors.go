package needle

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedleNotFound is matched by every NotFoundError.
	ErrNeedleNotFound = errors.New("needle not found")

	// ErrFileNotFound is matched by every FileNotFoundError.
	ErrFileNotFound = errors.New("injection target not found")

	// ErrInvalidRequest reports a request without a needle.
	ErrInvalidRequest = errors.New("invalid injection request")
)

// NotFoundError reports a sentinel absent from its target.
type NotFoundError struct {
	File   string
	Needle string // Full sentinel, prefix included
}

func (e *NotFoundError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("needle %s not found", e.Needle)
	}
	return fmt.Sprintf("needle %s not found in %s", e.Needle, e.File)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNeedleNotFound
}

// FileNotFoundError reports a missing injection target.
type FileNotFoundError struct {
	File   string
	Needle string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("cannot inject %s: file %s does not exist", e.Needle, e.File)
}

func (e *FileNotFoundError) Unwrap() error {
	return ErrFileNotFound
}

package generator

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user cancels at a conflict prompt.
var ErrCancelled = errors.New("generation cancelled")

// TaskError names the file whose render or write failed.
type TaskError struct {
	Source      string
	Destination string
	Err         error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("generating %s from %s: %v", e.Destination, e.Source, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

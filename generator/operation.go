package generator

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/output"
)

// Operation is one filesystem change.
//
// Validate checks the operation without performing it. force skips the
// existing-file check. Execute performs it. Kind and Path feed the status
// line printed for the operation.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Kind() output.Kind
	Path() string
	Description() string
}

// WriteFileOp writes rendered content.
type WriteFileOp struct {
	FS      filesystem.FS
	Dest    string      // Full destination path
	Display string      // Path shown to the user; Dest when empty
	Content []byte      // May be empty, must not be nil
	Mode    fs.FileMode // Default 0644
	Action  output.Kind // Create or Force
}

func (op *WriteFileOp) Validate(ctx context.Context, force bool) error {
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Dest)
	}
	if !force {
		exists, err := op.FS.Exists(op.Dest)
		if err != nil {
			return fmt.Errorf("checking %s: %w", op.Dest, err)
		}
		if exists {
			return fmt.Errorf("file already exists: %s", op.Dest)
		}
	}
	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0644
	}
	return op.FS.WriteFile(op.Dest, op.Content, mode)
}

func (op *WriteFileOp) Kind() output.Kind {
	if op.Action == "" {
		return output.Create
	}
	return op.Action
}

func (op *WriteFileOp) Path() string {
	if op.Display != "" {
		return op.Display
	}
	return op.Dest
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("%s %s (%d bytes)", op.Kind(), op.Path(), len(op.Content))
}

// CopyFileOp copies a file byte for byte. The source handle is opened and
// closed inside Execute.
type CopyFileOp struct {
	FS      filesystem.FS
	Source  string
	Dest    string
	Display string
	Action  output.Kind
}

func (op *CopyFileOp) Validate(ctx context.Context, force bool) error {
	ok, err := op.FS.Exists(op.Source)
	if err != nil {
		return fmt.Errorf("checking %s: %w", op.Source, err)
	}
	if !ok {
		return fmt.Errorf("source does not exist: %s", op.Source)
	}
	if !force {
		exists, err := op.FS.Exists(op.Dest)
		if err != nil {
			return fmt.Errorf("checking %s: %w", op.Dest, err)
		}
		if exists {
			return fmt.Errorf("file already exists: %s", op.Dest)
		}
	}
	return nil
}

func (op *CopyFileOp) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := op.FS.Open(op.Source)
	if err != nil {
		return fmt.Errorf("open %s: %w", op.Source, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", op.Source, err)
	}
	return op.FS.WriteFile(op.Dest, data, 0644)
}

func (op *CopyFileOp) Kind() output.Kind {
	if op.Action == "" {
		return output.Create
	}
	return op.Action
}

func (op *CopyFileOp) Path() string {
	if op.Display != "" {
		return op.Display
	}
	return op.Dest
}

func (op *CopyFileOp) Description() string {
	return fmt.Sprintf("%s %s (copy of %s)", op.Kind(), op.Path(), op.Source)
}

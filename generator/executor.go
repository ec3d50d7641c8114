package generator

import (
	"context"
	"fmt"

	"github.com/simonhull/firebird-suite/plume/output"
)

// ExecuteOptions configures Execute.
type ExecuteOptions struct {
	DryRun  bool
	Force   bool
	Printer *output.Printer // Status lines; output.Default() when nil
}

// Execute validates every operation, then runs them in order. A dry run
// only prints what would happen.
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) error {
	p := opts.Printer
	if p == nil {
		p = output.Default()
	}

	for _, op := range ops {
		if err := op.Validate(ctx, opts.Force); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	for _, op := range ops {
		if opts.DryRun {
			p.Action(op.Kind(), op.Path()+" (dry run)")
			p.Verbose(op.Description())
			continue
		}
		if err := op.Execute(ctx); err != nil {
			return fmt.Errorf("execution failed: %s: %w", op.Path(), err)
		}
		p.Action(op.Kind(), op.Path())
	}
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func entitiesCmd(global *globalOptions) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List entity definitions and sample fake data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, global)
			if err != nil {
				return err
			}
			registry, err := s.registry()
			if err != nil {
				return err
			}

			names := registry.Names()
			if len(names) == 0 {
				s.printer.Warn("no entities in " + s.cfg.Entities)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				e, _ := registry.Get(name)
				fmt.Fprintf(out, "%s (%d fields)\n", e.Name, len(e.Fields))
				for _, row := range e.FakeRows(rows) {
					for _, f := range e.Fields {
						fmt.Fprintf(out, "  %s: %v\n", f.Name, row[f.Name])
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Fake rows to print per entity")

	return cmd
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func whichCmd(global *globalOptions) *cobra.Command {
	var (
		roots   []string
		resolve bool
	)

	cmd := &cobra.Command{
		Use:   "which [pattern]",
		Short: "Show which template root supplies each template",
		Long: `List the templates visible through the configured roots and the root
each one comes from. Templates provided by more than one root show the
roots they override.

With --resolve the argument is a single template name, looked up exactly
as generation would.

Examples:
  plume which
  plume which 'entity/**'
  plume which --resolve entity/Entity.java`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, global)
			if err != nil {
				return err
			}
			gen, err := s.generator(cmd, generatorOptions{roots: roots})
			if err != nil {
				return err
			}
			resolver := gen.Resolver()
			out := cmd.OutOrStdout()

			if resolve {
				if len(args) == 0 {
					return fmt.Errorf("--resolve needs a template name")
				}
				res, err := resolver.Resolve(args[0], false)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, res.Path)
				if len(res.Candidates) > 1 {
					s.printer.Verbose("overrides " + strings.Join(res.Candidates[1:], ", "))
				}
				return nil
			}

			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			entries, err := resolver.List(pattern)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				s.printer.Warn("no templates found in " + strings.Join(resolver.Roots(), ", "))
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s\t%s", e.Name, e.Root)
				if len(e.Candidates) > 1 {
					line += fmt.Sprintf("\t(overrides %s)", strings.Join(e.Candidates[1:], ", "))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&roots, "root", "r", nil, "Extra template root, searched first (repeatable)")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Resolve a single template name")

	return cmd
}

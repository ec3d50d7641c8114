package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/plume"
	"github.com/simonhull/firebird-suite/plume/logger"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	verbose  bool
	logLevel string
	dir      string
}

// RootCmd creates the root command with every subcommand attached.
func RootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "plume",
		Short: "Layered template generator",
		Long: `Plume renders recipes of templates into a project.

Templates are looked up in ordered roots: blueprints listed in .plume.json
override the base templates file by file. Entity templates get deterministic
fake data, and needles let later runs insert code into generated files.

Learn more: https://github.com/simonhull/firebird-suite`,
		Version:       plume.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logger.ParseLevel(opts.logLevel); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error, silent)")
	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "Project directory to generate into")

	cmd.AddCommand(initCmd(opts))
	cmd.AddCommand(generateCmd(opts))
	cmd.AddCommand(injectCmd(opts))
	cmd.AddCommand(whichCmd(opts))
	cmd.AddCommand(entitiesCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plume v%s\n", plume.Version)
		},
	})

	return cmd
}

// Execute runs the CLI; Ctrl+C cancels the running generation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return RootCmd().ExecuteContext(ctx)
}

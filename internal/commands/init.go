package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/plume/internal/config"
)

func initCmd(global *globalOptions) *cobra.Command {
	var (
		force     bool
		blueprint []string
		database  string
		cache     string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .plume.json",
		Example: `  plume init
  plume init --database postgresql --cache redis --blueprint blueprints/vue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(global.dir)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Defaults()
			cfg.Blueprints = blueprint
			cfg.Database = database
			cfg.Cache = cache
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(dir, cfg); err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Join(dir, cfg.Templates), 0755); err != nil {
				return fmt.Errorf("failed to create templates directory: %w", err)
			}
			if err := os.MkdirAll(filepath.Join(dir, cfg.Entities), 0755); err != nil {
				return fmt.Errorf("failed to create entities directory: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.Flags().StringSliceVar(&blueprint, "blueprint", nil, "Blueprint root, highest precedence first (repeatable)")
	cmd.Flags().StringVar(&database, "database", "none", "Database (postgresql, mysql, mongodb, none, ...)")
	cmd.Flags().StringVar(&cache, "cache", "none", "Cache provider (redis, caffeine, none, ...)")

	return cmd
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/generator"
	"github.com/simonhull/firebird-suite/plume/needle"
	"github.com/simonhull/firebird-suite/plume/plan"
	"github.com/simonhull/firebird-suite/plume/scope"
)

func generateCmd(global *globalOptions) *cobra.Command {
	var (
		roots, only, sets         []string
		dryRun, sequential        bool
		force, skip, diff, prompt bool
		concurrency               int
		entity                    string
	)

	cmd := &cobra.Command{
		Use:   "generate <recipe.yml>",
		Short: "Render a recipe into the project",
		Long: `Render the templates a recipe lists, then run its needle injections.

A recipe holds exactly one of sections, blocks or templates, plus an
optional context and a list of needles:

  context:
    packageName: com.example
  blocks:
    - path: entity
      to: src/main/java/domain
      templates:
        - file: Entity.java
          renameTo: "{{ .entityName }}.java"
          options: { entityScoped: true }
  needles:
    - file: src/main/resources/config/liquibase/master.xml
      needle: liquibase-add-changelog
      content: <include file="changelog/{{ .entityName }}.xml"/>

Existing files with different content are resolved by the conflict
strategy: --force (default), --skip, --diff or --interactive.

Examples:
  plume generate recipes/app.yml
  plume generate recipes/entity.yml --entity Book --dry-run
  plume generate recipes/app.yml --set baseName=shop --only 'src/**'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, global)
			if err != nil {
				return err
			}

			recipe, err := plan.Load(filesystem.OS{}, args[0])
			if err != nil {
				return err
			}

			overrides, err := parseSet(sets)
			if err != nil {
				return err
			}
			if entity != "" {
				overrides[scope.EntityNameKey] = entity
			}
			ctx := scope.Merge(recipe.Context, overrides)

			strategy := ""
			switch {
			case force:
				strategy = generator.StrategyForce
			case skip:
				strategy = generator.StrategySkip
			case diff:
				strategy = generator.StrategyDiff
			case prompt:
				strategy = generator.StrategyInteractive
			}

			gen, err := s.generator(cmd, generatorOptions{
				roots:       roots,
				strategy:    strategy,
				concurrency: concurrency,
			})
			if err != nil {
				return err
			}

			start := time.Now()
			if recipe.HasSpec() {
				res, err := gen.Generate(cmd.Context(), &recipe.Spec, generator.GenerateOptions{
					Context:    ctx,
					Sequential: sequential,
					DryRun:     dryRun,
					Only:       only,
				})
				if err != nil {
					return fmt.Errorf("generation failed: %w", err)
				}
				s.printer.Verbose(fmt.Sprintf("rendered in %s", res.Duration.Round(time.Millisecond)))
				s.printer.Success(fmt.Sprintf("%d written, %d identical, %d skipped", len(res.Written), len(res.Identical), len(res.Skipped)))
			}

			reqs, err := recipe.Requests()
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				return nil
			}
			if dryRun {
				s.printer.Info(fmt.Sprintf("dry run: %d needle injections not applied", len(reqs)))
				return nil
			}
			reqs, err = renderRequests(gen, reqs, ctx)
			if err != nil {
				return err
			}
			if _, err := gen.Inject(cmd.Context(), reqs...); err != nil {
				return fmt.Errorf("injection failed: %w", err)
			}
			s.printer.Verbose(fmt.Sprintf("done in %s", time.Since(start).Round(time.Millisecond)))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&roots, "root", "r", nil, "Extra template root, searched before the configured ones (repeatable)")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Only write destinations matching these globs")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Context value as key=value (repeatable)")
	cmd.Flags().StringVar(&entity, "entity", "", "Entity name for entity-scoped templates")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Render on a single goroutine")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Render workers (default from config, else one per CPU)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite files that changed")
	cmd.Flags().BoolVar(&skip, "skip", false, "Keep files that changed")
	cmd.Flags().BoolVar(&diff, "diff", false, "Show a diff, then ask")
	cmd.Flags().BoolVar(&prompt, "interactive", false, "Ask for every changed file")
	cmd.MarkFlagsMutuallyExclusive("force", "skip", "diff", "interactive")

	return cmd
}

// renderRequests expands templates in the file, content and check of
// each injection so recipes can target per-entity files.
func renderRequests(gen *generator.Generator, reqs []needle.Request, ctx scope.Context) ([]needle.Request, error) {
	data := map[string]any(gen.Builder().With(ctx).Base())
	out := make([]needle.Request, len(reqs))
	for i, req := range reqs {
		file, err := gen.Renderer().RenderString("needle file", req.File, data)
		if err != nil {
			return nil, err
		}
		content, err := gen.Renderer().RenderString("needle content", req.Content, data)
		if err != nil {
			return nil, err
		}
		if req.Check != "" {
			check, err := gen.Renderer().RenderString("needle check", req.Check, data)
			if err != nil {
				return nil, err
			}
			req.Check = string(check)
		}
		req.File = string(file)
		req.Content = string(content)
		out[i] = req
	}
	return out, nil
}

package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/generator"
	"github.com/simonhull/firebird-suite/plume/internal/config"
	"github.com/simonhull/firebird-suite/plume/internal/project"
	"github.com/simonhull/firebird-suite/plume/logger"
	"github.com/simonhull/firebird-suite/plume/output"
	"github.com/simonhull/firebird-suite/plume/scope"
)

// session is the state one command invocation works with.
type session struct {
	dir     string
	cfg     *config.Config
	printer *output.Printer
	log     logger.Logger
}

func newSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	if opts.verbose && level > logger.LevelDebug {
		level = logger.LevelDebug
	}

	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", opts.dir, err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	printer := output.NewPrinter(cmd.OutOrStdout())
	printer.SetVerbose(opts.verbose)

	return &session{
		dir:     dir,
		cfg:     cfg,
		printer: printer,
		log:     logger.NewLogger(level, cmd.ErrOrStderr()),
	}, nil
}

// generatorOptions are the knobs commands may override on top of the
// project config.
type generatorOptions struct {
	roots       []string
	strategy    string
	concurrency int
}

func (s *session) generator(cmd *cobra.Command, opts generatorOptions) (*generator.Generator, error) {
	fsys := filesystem.OS{}

	roots := append(absAll(opts.roots), s.cfg.Roots(s.dir)...)

	strategyName := s.cfg.Strategy
	if opts.strategy != "" {
		strategyName = opts.strategy
	}
	strategy, err := generator.NewStrategy(strategyName, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	concurrency := s.cfg.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	registry, err := s.registry()
	if err != nil {
		return nil, err
	}

	moduleCtx, err := project.Context(fsys, s.dir)
	if err != nil {
		s.log.Warn("ignoring go.mod", logger.F("error", err))
		moduleCtx = nil
	}

	s.log.Debug("generator configured",
		logger.F("roots", strings.Join(roots, ", ")),
		logger.F("strategy", strategyName),
		logger.F("entities", len(registry.Names())))

	return generator.New(generator.Config{
		FS:          fsys,
		Roots:       roots,
		Suffix:      s.cfg.Suffix,
		Output:      s.dir,
		Context:     scope.Merge(moduleCtx, s.cfg.RenderContext()),
		Registry:    registry,
		Concurrency: concurrency,
		Strategy:    strategy,
		Logger:      s.log,
		Printer:     s.printer,
	}), nil
}

func (s *session) registry() (*scope.Registry, error) {
	dir := s.cfg.Entities
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.dir, dir)
	}
	entities, err := scope.LoadEntities(filesystem.OS{}, dir)
	if err != nil {
		return nil, err
	}
	return scope.NewRegistry(entities...), nil
}

func absAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

// parseSet turns key=value pairs into context entries. Values are decoded
// as YAML scalars, so "true" and "3" arrive typed.
func parseSet(pairs []string) (scope.Context, error) {
	ctx := scope.Context{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		ctx[key] = value
	}
	return ctx, nil
}

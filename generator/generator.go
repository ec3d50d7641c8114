package generator

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/simonhull/firebird-suite/plume/blueprint"
	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/logger"
	"github.com/simonhull/firebird-suite/plume/needle"
	"github.com/simonhull/firebird-suite/plume/output"
	"github.com/simonhull/firebird-suite/plume/plan"
	"github.com/simonhull/firebird-suite/plume/scope"
)

// Config wires a Generator.
type Config struct {
	FS          filesystem.FS                 // Default filesystem.OS{}
	Roots       []string                      // Template roots, highest precedence first
	Suffix      string                        // Template suffix, default ".tmpl"
	Output      string                        // Destination root, default "."
	Context     scope.Context                 // Generator-wide render context
	Registry    *scope.Registry               // Entities; empty when nil
	Concurrency int                           // Render workers, default runtime.NumCPU()
	Strategy    ConflictStrategy              // Default ForceStrategy
	Logger      logger.Logger                 // Default silent
	Printer     *output.Printer               // Status lines, default output.Default()
	Transforms  map[string]plan.TransformFunc // Extra named transforms
}

// Generator renders specs into the output directory.
type Generator struct {
	fsys       filesystem.FS
	output     string
	resolver   *blueprint.Resolver
	planner    *plan.Planner
	builder    *scope.Builder
	renderer   *Renderer
	injector   *needle.Injector
	transforms *Transforms
	strategy   ConflictStrategy
	workers    int
	log        logger.Logger
	printer    *output.Printer
}

// New creates a generator from cfg.
func New(cfg Config) *Generator {
	if cfg.FS == nil {
		cfg.FS = filesystem.OS{}
	}
	if cfg.Output == "" {
		cfg.Output = "."
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Strategy == nil {
		cfg.Strategy = ForceStrategy{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewSilentLogger()
	}
	if cfg.Printer == nil {
		cfg.Printer = output.Default()
	}

	resolver := blueprint.New(cfg.FS, cfg.Roots,
		blueprint.WithSuffix(cfg.Suffix),
		blueprint.WithLogger(cfg.Logger.Named("blueprint")))

	transforms := NewTransforms()
	for name, fn := range cfg.Transforms {
		if err := transforms.Register(name, fn); err != nil {
			cfg.Logger.Warn("ignoring transform", logger.F("name", name), logger.F("error", err))
		}
	}

	return &Generator{
		fsys:       cfg.FS,
		output:     cfg.Output,
		resolver:   resolver,
		planner:    plan.NewPlanner(cfg.FS, resolver, cfg.Output, cfg.Logger.Named("plan")),
		builder:    scope.NewBuilder(cfg.Context, cfg.Registry, cfg.Logger.Named("scope")),
		renderer:   NewRenderer(cfg.FS, resolver),
		injector:   needle.NewInjector(cfg.FS, cfg.Logger.Named("needle")),
		transforms: transforms,
		strategy:   cfg.Strategy,
		workers:    cfg.Concurrency,
		log:        cfg.Logger.Named("generator"),
		printer:    cfg.Printer,
	}
}

// Resolver returns the template resolver.
func (g *Generator) Resolver() *blueprint.Resolver { return g.resolver }

// Renderer returns the renderer, e.g. to add template functions.
func (g *Generator) Renderer() *Renderer { return g.renderer }

// Builder returns the context builder.
func (g *Generator) Builder() *scope.Builder { return g.builder }

// RegisterTransform makes fn available to specs under name.
func (g *Generator) RegisterTransform(name string, fn plan.TransformFunc) error {
	return g.transforms.Register(name, fn)
}

// GenerateOptions tune one Generate call.
type GenerateOptions struct {
	Transforms []plan.Transform // Outermost transform tier
	Context    scope.Context    // Overrides on top of the generator context
	Sequential bool             // Render on the calling goroutine
	DryRun     bool             // Print operations and diffs, write nothing
	Only       []string         // Doublestar patterns over destinations
}

// Result reports what Generate did. Paths are relative to the output root
// and sorted.
type Result struct {
	Written   []string // Created or overwritten
	Identical []string // Already up to date
	Skipped   []string // Kept because of override or the conflict strategy
	Duration  time.Duration
}

type rendered struct {
	task    plan.Task
	dest    string
	content []byte
}

// Generate validates spec, plans it, renders every task and writes the
// results. Validation happens before any I/O. The first failure cancels
// the remaining renders and nothing is written.
func (g *Generator) Generate(ctx context.Context, spec *plan.Spec, opts GenerateOptions) (*Result, error) {
	start := time.Now()

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	for _, pattern := range opts.Only {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid only pattern %q", pattern)
		}
	}

	builder := g.builder.With(opts.Context)
	batch, err := g.planner.Plan(ctx, spec, builder.Base(), opts.Transforms)
	if err != nil {
		return nil, err
	}

	res := &Result{Skipped: batch.Skipped}
	tasks := make([]plan.Task, 0, len(batch.Tasks))
	for _, t := range batch.Tasks {
		if !matchesAny(opts.Only, t.Destination) {
			continue
		}
		chain, err := t.Transforms.Bind(g.transforms.Lookup)
		if err != nil {
			return nil, &TaskError{Source: t.Source, Destination: t.Destination, Err: err}
		}
		t.Transforms = chain
		tasks = append(tasks, t)
	}

	g.log.Info("rendering",
		logger.F("tasks", len(tasks)),
		logger.F("sequential", opts.Sequential),
		logger.F("workers", g.workers))

	var out []rendered
	if opts.Sequential {
		out, err = g.renderSequential(ctx, builder, tasks)
	} else {
		out, err = g.renderParallel(ctx, builder, tasks)
	}
	if err != nil {
		return nil, err
	}

	ops, err := g.reconcile(out, res, opts.DryRun)
	if err != nil {
		return nil, err
	}
	if err := Execute(ctx, ops, ExecuteOptions{DryRun: opts.DryRun, Force: true, Printer: g.printer}); err != nil {
		return nil, err
	}

	sort.Strings(res.Written)
	sort.Strings(res.Identical)
	sort.Strings(res.Skipped)
	res.Duration = time.Since(start)

	g.log.Info("generation complete",
		logger.F("written", len(res.Written)),
		logger.F("identical", len(res.Identical)),
		logger.F("skipped", len(res.Skipped)),
		logger.F("duration", res.Duration))
	return res, nil
}

func matchesAny(patterns []string, dest string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, dest); ok {
			return true
		}
	}
	return false
}

func (g *Generator) renderSequential(ctx context.Context, builder *scope.Builder, tasks []plan.Task) ([]rendered, error) {
	out := make([]rendered, 0, len(tasks))
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := g.renderTask(ctx, builder, t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type renderJob struct {
	index int
	task  plan.Task
}

type renderResult struct {
	index int
	out   rendered
	err   error
}

func (g *Generator) renderParallel(ctx context.Context, builder *scope.Builder, tasks []plan.Task) ([]rendered, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(g.workers, len(tasks))
	jobs := make(chan renderJob, len(tasks))
	results := make(chan renderResult, len(tasks))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go g.renderWorker(ctx, builder, jobs, results, &wg)
	}

	for i, t := range tasks {
		jobs <- renderJob{index: i, task: t}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]rendered, len(tasks))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
				cancel()
			}
			continue
		}
		out[r.index] = r.out
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Generator) renderWorker(ctx context.Context, builder *scope.Builder, jobs <-chan renderJob, results chan<- renderResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := g.renderTask(ctx, builder, job.task)
		results <- renderResult{index: job.index, out: out, err: err}
	}
}

// renderTask produces the final bytes of one task. Entity-scoped renders
// hold the registry lock until their template has been expanded.
func (g *Generator) renderTask(ctx context.Context, builder *scope.Builder, t plan.Task) (rendered, error) {
	r := rendered{
		task: t,
		dest: filepath.Join(g.output, filepath.FromSlash(t.Destination)),
	}
	fail := func(err error) (rendered, error) {
		return rendered{}, &TaskError{Source: t.Source, Destination: t.Destination, Err: err}
	}

	if t.Binary {
		content, err := g.renderer.Render(t, nil)
		if err != nil {
			return fail(err)
		}
		r.content = content
		return r, nil
	}

	content, err := g.expand(builder, t)
	if err != nil {
		return fail(err)
	}
	content, err = t.Transforms.Apply(ctx, t.Destination, content)
	if err != nil {
		return fail(err)
	}
	if content == nil {
		content = []byte{}
	}
	r.content = content
	return r, nil
}

func (g *Generator) expand(builder *scope.Builder, t plan.Task) ([]byte, error) {
	data, release, err := builder.Build(scope.Request{
		Source:       t.Source,
		Overrides:    t.Options.Context,
		EntityScoped: t.Options.EntityScoped,
	})
	if err != nil {
		return nil, err
	}
	defer release()

	return g.renderer.Render(t, map[string]any(data))
}

// reconcile compares rendered files with what is on disk and turns them
// into operations. Conflicts are resolved one file at a time.
func (g *Generator) reconcile(files []rendered, res *Result, dryRun bool) ([]Operation, error) {
	ops := make([]Operation, 0, len(files))
	for _, f := range files {
		dest := f.task.Destination

		action := output.Create
		exists, err := g.fsys.Exists(f.dest)
		if err != nil {
			return nil, &TaskError{Source: f.task.Source, Destination: dest, Err: err}
		}
		if exists {
			existing, err := g.fsys.ReadFile(f.dest)
			if err != nil {
				return nil, &TaskError{Source: f.task.Source, Destination: dest, Err: err}
			}
			if bytes.Equal(existing, f.content) {
				g.printer.Action(output.Identical, dest)
				res.Identical = append(res.Identical, dest)
				continue
			}

			overwrite, err := g.decide(f, existing, dryRun)
			if err != nil {
				return nil, err
			}
			if !overwrite {
				g.printer.Action(output.Skip, dest)
				res.Skipped = append(res.Skipped, dest)
				continue
			}
			action = output.Force
		}

		res.Written = append(res.Written, dest)
		if f.task.Binary {
			ops = append(ops, &CopyFileOp{FS: g.fsys, Source: f.task.Path, Dest: f.dest, Display: dest, Action: action})
			continue
		}
		ops = append(ops, &WriteFileOp{FS: g.fsys, Dest: f.dest, Display: dest, Content: f.content, Action: action})
	}
	return ops, nil
}

// decide reports whether an existing, different file is overwritten.
func (g *Generator) decide(f rendered, existing []byte, dryRun bool) (bool, error) {
	dest := f.task.Destination
	if f.task.Override != nil {
		// Planning already dropped override=false tasks whose file existed.
		return *f.task.Override, nil
	}
	if dryRun {
		g.printer.Action(output.Conflict, dest)
		g.printer.Raw(Diff(dest, existing, f.content, DiffOptions{}))
		return true, nil
	}

	g.printer.Action(output.Conflict, dest)
	for {
		choice, err := g.strategy.Resolve(dest, existing, f.content)
		if err != nil {
			return false, &TaskError{Source: f.task.Source, Destination: dest, Err: err}
		}
		switch choice {
		case Overwrite:
			return true, nil
		case Skip:
			return false, nil
		case ShowDiff:
			g.printer.Raw(Diff(dest, existing, f.content, DiffOptions{}))
		default:
			return false, ErrCancelled
		}
	}
}

// Inject runs needle injections against files below the output root.
// Requests for different files run concurrently; requests for the same
// file apply in order. Results are returned in request order.
func (g *Generator) Inject(ctx context.Context, reqs ...needle.Request) ([]needle.Result, error) {
	results := make([]needle.Result, len(reqs))

	byFile := make(map[string][]int)
	var files []string
	for i, req := range reqs {
		key := path.Clean(filepath.ToSlash(req.File))
		if _, ok := byFile[key]; !ok {
			files = append(files, key)
		}
		byFile[key] = append(byFile[key], i)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, g.workers)
	for _, file := range files {
		wg.Add(1)
		go func(indexes []int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			for _, i := range indexes {
				req := reqs[i]
				display := req.File
				if !filepath.IsAbs(req.File) {
					req.File = filepath.Join(g.output, filepath.FromSlash(req.File))
				}

				r, err := g.injector.Inject(ctx, req)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
					return
				}
				results[i] = r
				switch {
				case r.Warning != "":
					g.printer.Warn(r.Warning)
				case r.Changed:
					g.printer.Action(output.Inject, display)
				}
			}
		}(byFile[file])
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

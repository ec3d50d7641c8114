package plan

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/simonhull/firebird-suite/plume/blueprint"
	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/inflect"
	"github.com/simonhull/firebird-suite/plume/logger"
	"github.com/simonhull/firebird-suite/plume/scope"
)

// binaryExtensions are copied verbatim unless a FileSpec says otherwise.
var binaryExtensions = map[string]bool{
	".bin": true, ".bmp": true, ".class": true, ".dll": true, ".eot": true,
	".exe": true, ".gif": true, ".gz": true, ".ico": true, ".jar": true,
	".jks": true, ".jpeg": true, ".jpg": true, ".keystore": true, ".mp3": true,
	".mp4": true, ".otf": true, ".p12": true, ".pdf": true, ".png": true,
	".so": true, ".tgz": true, ".tiff": true, ".ttf": true, ".wav": true,
	".webp": true, ".woff": true, ".woff2": true, ".zip": true,
}

// IsBinary reports whether name has a known non-text extension.
func IsBinary(name string) bool {
	return binaryExtensions[strings.ToLower(path.Ext(name))]
}

// Task is one fully resolved render.
type Task struct {
	Source      string // Logical source name, relative to the roots
	Path        string // Concrete source file chosen by the resolver
	Destination string // Relative to the output root, slash separated
	Binary      bool
	Template    bool
	// Override is nil when the conflict strategy decides; true forces an
	// overwrite.
	Override   *bool
	Transforms Chain
	Options    RenderOptions
}

// Batch is the outcome of planning.
type Batch struct {
	Tasks   []Task
	Skipped []string // Destinations dropped because they exist and override is false
}

// Planner expands specs into tasks.
type Planner struct {
	fsys     filesystem.FS
	resolver *blueprint.Resolver
	output   string
	log      logger.Logger
}

// NewPlanner creates a planner resolving sources with resolver and checking
// destinations below output.
func NewPlanner(fsys filesystem.FS, resolver *blueprint.Resolver, output string, log logger.Logger) *Planner {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Planner{fsys: fsys, resolver: resolver, output: output, log: log}
}

// Plan validates spec and expands it into tasks in a stable order:
// sections by name, then blocks and files in declaration order. method is
// the outermost transform tier. A destination planned twice keeps its first
// position and the later definition.
func (p *Planner) Plan(ctx context.Context, spec *Spec, data scope.Context, method []Transform) (*Batch, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	batch := &Batch{}
	index := make(map[string]int)
	add := func(t Task) {
		if i, ok := index[t.Destination]; ok {
			p.log.Warn("destination planned twice, keeping the later definition",
				logger.F("destination", t.Destination),
				logger.F("first", batch.Tasks[i].Source),
				logger.F("second", t.Source))
			batch.Tasks[i] = t
			return
		}
		index[t.Destination] = len(batch.Tasks)
		batch.Tasks = append(batch.Tasks, t)
	}

	var specTier []Transform
	switch {
	case spec.Sections != nil:
		specTier = spec.Sections.Defaults.Transform
		for _, name := range spec.Sections.names() {
			for i, b := range spec.Sections.Named[name] {
				at := fmt.Sprintf("sections.%s[%d]", name, i)
				if err := p.planBlock(ctx, at, b, data, Chain{MethodTier: method, SpecTier: specTier}, batch, add); err != nil {
					return nil, err
				}
			}
		}
	case spec.Blocks != nil:
		for i, b := range spec.Blocks {
			at := fmt.Sprintf("blocks[%d]", i)
			if err := p.planBlock(ctx, at, b, data, Chain{MethodTier: method}, batch, add); err != nil {
				return nil, err
			}
		}
	default:
		for i, f := range spec.Templates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			at := fmt.Sprintf("templates[%d]", i)
			if err := p.planFile(at, f, "", "", data, Chain{MethodTier: method}, batch, add); err != nil {
				return nil, err
			}
		}
	}

	p.log.Debug("plan ready",
		logger.F("tasks", len(batch.Tasks)),
		logger.F("skipped", len(batch.Skipped)))
	return batch, nil
}

func (p *Planner) planBlock(ctx context.Context, at string, b Block, data scope.Context, chain Chain, batch *Batch, add func(Task)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ok, err := b.Condition.Eval(data)
	if err != nil {
		return fmt.Errorf("%s: condition: %w", at, err)
	}
	if !ok {
		p.log.Debug("block condition false", logger.F("block", at), logger.F("path", b.Path))
		return nil
	}

	from := b.Path
	switch {
	case b.FromFunc != nil:
		from = b.FromFunc(data)
	case b.From != "":
		from = b.From
	}
	to := b.To
	if b.ToFunc != nil {
		to = b.ToFunc(data)
	}

	chain[BlockTier] = b.Transform
	for i, f := range b.Templates {
		if err := p.planFile(fmt.Sprintf("%s.templates[%d]", at, i), f, from, to, data, chain, batch, add); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) planFile(at string, f FileSpec, from, to string, data scope.Context, chain Chain, batch *Batch, add func(Task)) error {
	name := f.name()
	fileData := scope.Merge(data, f.Options.Context)

	binary := IsBinary(p.stripSuffix(name))
	if f.Binary != nil {
		binary = *f.Binary
	}
	tmpl := !binary
	if f.Template != nil {
		tmpl = *f.Template
		if tmpl {
			binary = false
		}
	}

	sourceName := f.File
	if f.Source != "" {
		sourceName = f.Source
	}
	source := path.Join(from, sourceName)

	dest, err := p.destination(f, to, fileData, tmpl)
	if err != nil {
		return fmt.Errorf("%s: %w", at, err)
	}
	if !filepath.IsLocal(filepath.FromSlash(dest)) {
		return invalid(at, "destination %q escapes the output directory", dest)
	}

	var override *bool
	if f.Override.IsSet() {
		v, err := f.Override.Eval(fileData)
		if err != nil {
			return fmt.Errorf("%s: override: %w", at, err)
		}
		if !v {
			exists, err := p.fsys.Exists(filepath.Join(p.output, filepath.FromSlash(dest)))
			if err != nil {
				return fmt.Errorf("%s: checking %s: %w", at, dest, err)
			}
			if exists {
				p.log.Debug("skipping existing file", logger.F("destination", dest))
				batch.Skipped = append(batch.Skipped, dest)
				return nil
			}
		}
		override = &v
	}

	res, err := p.resolver.Resolve(source, !tmpl)
	if err != nil {
		return err
	}

	chain[FileTier] = f.Transform
	add(Task{
		Source:      res.Name,
		Path:        res.Path,
		Destination: dest,
		Binary:      binary,
		Template:    tmpl,
		Override:    override,
		Transforms:  chain,
		Options:     f.Options,
	})
	return nil
}

// destination computes where f lands, relative to the output root.
func (p *Planner) destination(f FileSpec, to string, data scope.Context, tmpl bool) (string, error) {
	if f.Destination != "" {
		return path.Clean(filepath.ToSlash(f.Destination)), nil
	}

	name := f.name()
	if tmpl {
		name = p.stripSuffix(name)
	}

	switch {
	case f.RenameFunc != nil:
		name = f.RenameFunc(data, name)
	case f.RenameTo != "":
		renamed, err := rename(f.RenameTo, scope.Merge(data, scope.Context{"file": name}))
		if err != nil {
			return "", err
		}
		name = renamed
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("destination name is empty")
	}
	return path.Join(to, filepath.ToSlash(name)), nil
}

func (p *Planner) stripSuffix(name string) string {
	return strings.TrimSuffix(name, p.resolver.Suffix())
}

func rename(expression string, data scope.Context) (string, error) {
	t, err := template.New("renameTo").Funcs(inflect.FuncMap()).Option("missingkey=error").Parse(expression)
	if err != nil {
		return "", fmt.Errorf("parsing renameTo %q: %w", expression, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering renameTo %q: %w", expression, err)
	}
	return strings.TrimSpace(b.String()), nil
}

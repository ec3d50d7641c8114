package generator

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"github.com/simonhull/firebird-suite/plume/blueprint"
	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/inflect"
	"github.com/simonhull/firebird-suite/plume/plan"
)

// maxIncludeDepth bounds nested includes.
const maxIncludeDepth = 32

// Renderer expands templates. Nothing is cached: the context and the
// templates themselves may change between renders of one run.
type Renderer struct {
	fsys     filesystem.FS
	resolver *blueprint.Resolver
	funcs    template.FuncMap
}

// NewRenderer creates a renderer reading through fsys. Includes are
// resolved with resolver.
func NewRenderer(fsys filesystem.FS, resolver *blueprint.Resolver) *Renderer {
	return &Renderer{
		fsys:     fsys,
		resolver: resolver,
		funcs:    inflect.FuncMap(),
	}
}

// Funcs adds template functions. It must be called before rendering.
func (r *Renderer) Funcs(funcs template.FuncMap) {
	for name, fn := range funcs {
		r.funcs[name] = fn
	}
}

// Render produces the content of task. Template tasks are expanded
// against data; other tasks are read verbatim.
func (r *Renderer) Render(task plan.Task, data any) ([]byte, error) {
	if !task.Template {
		return r.read(task.Path)
	}
	body, err := r.fsys.ReadFile(task.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template '%s': %w", task.Path, err)
	}
	return r.execute(task.Source, string(body), data, 0)
}

// RenderString expands body as a template named name.
func (r *Renderer) RenderString(name, body string, data any) ([]byte, error) {
	return r.execute(name, body, data, 0)
}

func (r *Renderer) read(path string) ([]byte, error) {
	f, err := r.fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return data, nil
}

func (r *Renderer) execute(name, body string, data any, depth int) ([]byte, error) {
	funcs := make(template.FuncMap, len(r.funcs)+1)
	for k, v := range r.funcs {
		funcs[k] = v
	}
	funcs["include"] = func(partial string, data any) (string, error) {
		return r.include(partial, data, depth+1)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template '%s': %w", name, err)
	}
	return append([]byte{}, buf.Bytes()...), nil
}

// include renders a partial found through the same override layers as
// top-level templates.
func (r *Renderer) include(name string, data any, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("include %s: nesting deeper than %d", name, maxIncludeDepth)
	}
	res, err := r.resolver.Resolve(name, false)
	if err != nil {
		return "", err
	}
	body, err := r.fsys.ReadFile(res.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read partial '%s': %w", res.Path, err)
	}
	out, err := r.execute(res.Name, string(body), data, depth)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

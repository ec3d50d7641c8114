package generator_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/plume/blueprint"
	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/generator"
	"github.com/simonhull/firebird-suite/plume/needle"
	"github.com/simonhull/firebird-suite/plume/output"
	"github.com/simonhull/firebird-suite/plume/plan"
	"github.com/simonhull/firebird-suite/plume/scope"
)

func newGenerator(t *testing.T, files map[string]string, cfg generator.Config) (*generator.Generator, *filesystem.Memory, *bytes.Buffer) {
	t.Helper()
	fsys := filesystem.NewMemory(files)
	var buf bytes.Buffer
	cfg.FS = fsys
	if cfg.Roots == nil {
		cfg.Roots = []string{"root1", "root2"}
	}
	if cfg.Output == "" {
		cfg.Output = "out"
	}
	cfg.Printer = output.NewPrinter(&buf)
	return generator.New(cfg), fsys, &buf
}

func read(t *testing.T, fsys filesystem.FS, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate_EndToEnd(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{
		"root1/src/a.txt.tmpl": "Hello {{ .name }}",
	}, generator.Config{})

	spec := &plan.Spec{Blocks: []plan.Block{{
		Path:      "src",
		Templates: []plan.FileSpec{plan.File("a.txt")},
	}}}

	res, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{
		Context: scope.Context{"name": "World"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello World", read(t, fsys, "out/a.txt"))
	assert.Equal(t, []string{"a.txt"}, res.Written)
	assert.Empty(t, res.Skipped)
	assert.Greater(t, res.Duration.Nanoseconds(), int64(0))
}

func TestGenerate_EmptyRenderIsWritten(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{
		"root1/a.txt.tmpl": "{{ if .flag }}x{{ end }}",
		"root1/b.txt.tmpl": "hello",
	}, generator.Config{})

	spec := &plan.Spec{Templates: []plan.FileSpec{plan.File("a.txt"), plan.File("b.txt")}}
	res, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{
		Context: scope.Context{"flag": false},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt"}, res.Written)
	assert.Equal(t, "", read(t, fsys, "out/a.txt"))
	assert.Equal(t, "hello", read(t, fsys, "out/b.txt"))
}

func TestGenerate_RootPrecedence(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{
		"root1/x.txt.tmpl": "from root1",
		"root2/x.txt.tmpl": "from root2",
		"root2/y.txt.tmpl": "only root2",
	}, generator.Config{})

	_, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
		plan.File("x.txt"), plan.File("y.txt"),
	}}, generator.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "from root1", read(t, fsys, "out/x.txt"))
	assert.Equal(t, "only root2", read(t, fsys, "out/y.txt"))
}

func TestGenerate_IdempotentRerun(t *testing.T) {
	files := map[string]string{
		"root1/src/App.java.tmpl": "class {{ pascalCase .app }} {\n    // plume-needle-fields\n}\n",
		"root1/src/logo.png":      "\x89PNG\x00data",
	}
	gen, fsys, _ := newGenerator(t, files, generator.Config{})
	spec := &plan.Spec{Blocks: []plan.Block{{
		Path:      "src",
		Templates: []plan.FileSpec{plan.File("App.java"), plan.File("logo.png")},
	}}}
	opts := generator.GenerateOptions{Context: scope.Context{"app": "my_app"}}

	first, err := gen.Generate(context.Background(), spec, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"App.java", "logo.png"}, first.Written)
	snapshot := map[string]string{}
	for _, p := range fsys.Paths() {
		snapshot[p] = read(t, fsys, p)
	}

	second, err := gen.Generate(context.Background(), spec, opts)
	require.NoError(t, err)
	assert.Empty(t, second.Written)
	assert.Equal(t, []string{"App.java", "logo.png"}, second.Identical)

	for p, want := range snapshot {
		assert.Equal(t, want, read(t, fsys, p), p)
	}
	assert.Equal(t, "\x89PNG\x00data", read(t, fsys, "out/logo.png"))
}

func TestGenerate_SkipIfExists(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{
		"root1/config.yml.tmpl": "generated: true\n",
		"out/config.yml":        "edited: by hand\n",
	}, generator.Config{})

	res, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
		{File: "config.yml", Override: plan.When(false)},
	}}, generator.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"config.yml"}, res.Skipped)
	assert.Empty(t, res.Written)
	assert.Equal(t, "edited: by hand\n", read(t, fsys, "out/config.yml"))
}

func TestGenerate_ConflictStrategies(t *testing.T) {
	files := map[string]string{
		"root1/a.txt.tmpl": "new",
		"out/a.txt":        "old",
	}
	spec := &plan.Spec{Templates: []plan.FileSpec{plan.File("a.txt")}}

	t.Run("force by default", func(t *testing.T) {
		gen, fsys, buf := newGenerator(t, files, generator.Config{})
		res, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt"}, res.Written)
		assert.Equal(t, "new", read(t, fsys, "out/a.txt"))
		assert.Contains(t, buf.String(), "force")
	})

	t.Run("skip", func(t *testing.T) {
		gen, fsys, _ := newGenerator(t, files, generator.Config{Strategy: generator.SkipStrategy{}})
		res, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt"}, res.Skipped)
		assert.Equal(t, "old", read(t, fsys, "out/a.txt"))
	})

	t.Run("explicit override wins over strategy", func(t *testing.T) {
		gen, fsys, _ := newGenerator(t, files, generator.Config{Strategy: generator.SkipStrategy{}})
		_, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
			{File: "a.txt", Override: plan.When(true)},
		}}, generator.GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, "new", read(t, fsys, "out/a.txt"))
	})

	t.Run("show diff then overwrite", func(t *testing.T) {
		strategy := &scriptedStrategy{choices: []generator.ConflictResolution{generator.ShowDiff, generator.Overwrite}}
		gen, fsys, buf := newGenerator(t, files, generator.Config{Strategy: strategy})
		_, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{})
		require.NoError(t, err)
		assert.Equal(t, "new", read(t, fsys, "out/a.txt"))
		assert.Contains(t, buf.String(), "+new")
		assert.Contains(t, buf.String(), "-old")
	})

	t.Run("cancel", func(t *testing.T) {
		strategy := &scriptedStrategy{choices: []generator.ConflictResolution{generator.Cancel}}
		gen, fsys, _ := newGenerator(t, files, generator.Config{Strategy: strategy})
		_, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{})
		assert.ErrorIs(t, err, generator.ErrCancelled)
		assert.Equal(t, "old", read(t, fsys, "out/a.txt"))
	})
}

type scriptedStrategy struct {
	choices []generator.ConflictResolution
	calls   int
}

func (s *scriptedStrategy) Resolve(string, []byte, []byte) (generator.ConflictResolution, error) {
	c := s.choices[s.calls]
	s.calls++
	return c, nil
}

func TestGenerate_DryRunWritesNothing(t *testing.T) {
	gen, fsys, buf := newGenerator(t, map[string]string{
		"root1/a.txt.tmpl": "new\n",
		"root1/b.txt.tmpl": "b\n",
		"out/a.txt":        "old\n",
	}, generator.Config{})

	res, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
		plan.File("a.txt"), plan.File("b.txt"),
	}}, generator.GenerateOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt"}, res.Written)
	assert.Equal(t, "old\n", read(t, fsys, "out/a.txt"))
	exists, _ := fsys.Exists("out/b.txt")
	assert.False(t, exists)
	assert.Contains(t, buf.String(), "dry run")
	assert.Contains(t, buf.String(), "-old")
}

func TestGenerate_InvalidSpecBeforeIO(t *testing.T) {
	gen, fsys, _ := newGenerator(t, nil, generator.Config{})

	_, err := gen.Generate(context.Background(), &plan.Spec{
		Blocks:    []plan.Block{},
		Templates: []plan.FileSpec{plan.File("a.txt")},
	}, generator.GenerateOptions{})

	assert.ErrorIs(t, err, plan.ErrInvalidSpec)
	assert.Empty(t, fsys.Paths())
}

func TestGenerate_TemplateNotFound(t *testing.T) {
	gen, _, _ := newGenerator(t, nil, generator.Config{})

	_, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{plan.File("nope.txt")}}, generator.GenerateOptions{})

	var nf *blueprint.TemplateNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"root1", "root2"}, nf.Roots)
}

func TestGenerate_FailFastNamesFile(t *testing.T) {
	files := map[string]string{"root1/bad.txt.tmpl": "{{ .name "}
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("root1/ok%02d.txt.tmpl", i)] = "ok"
	}
	gen, fsys, _ := newGenerator(t, files, generator.Config{Concurrency: 4})

	specs := []plan.FileSpec{plan.File("bad.txt")}
	for i := 0; i < 20; i++ {
		specs = append(specs, plan.File(fmt.Sprintf("ok%02d.txt", i)))
	}

	_, err := gen.Generate(context.Background(), &plan.Spec{Templates: specs}, generator.GenerateOptions{})
	require.Error(t, err)

	var te *generator.TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "bad.txt", te.Destination)
	assert.Equal(t, "bad.txt.tmpl", te.Source)
	for _, p := range fsys.Paths() {
		assert.False(t, strings.HasPrefix(p, "out"), "nothing should be written, found %s", p)
	}
}

func TestGenerate_TransformTiersRunInOrder(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{"root1/a.txt.tmpl": "x"}, generator.Config{})
	tag := func(s string) plan.TransformFunc {
		return func(_ context.Context, _ string, c []byte) ([]byte, error) { return append(c, s...), nil }
	}
	require.NoError(t, gen.RegisterTransform("spec", tag("S")))
	require.NoError(t, gen.RegisterTransform("block", tag("B")))

	spec := &plan.Spec{Sections: &plan.Sections{
		Defaults: plan.SectionDefaults{Transform: []plan.Transform{plan.Named("spec")}},
		Named: map[string][]plan.Block{"main": {{
			Transform: []plan.Transform{plan.Named("block")},
			Templates: []plan.FileSpec{{File: "a.txt", Transform: []plan.Transform{plan.Func("file", tag("F"))}}},
		}}},
	}}

	_, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{
		Transforms: []plan.Transform{plan.Func("method", tag("M"))},
	})
	require.NoError(t, err)
	assert.Equal(t, "xMSBF", read(t, fsys, "out/a.txt"))
}

func TestGenerate_UnknownTransform(t *testing.T) {
	gen, _, _ := newGenerator(t, map[string]string{"root1/a.txt.tmpl": "x"}, generator.Config{})

	_, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
		{File: "a.txt", Transform: []plan.Transform{plan.Named("nope")}},
	}}, generator.GenerateOptions{})

	var te *generator.TaskError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, err.Error(), `unknown transform "nope"`)
}

func TestGenerate_NeedleTransform(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{
		"root1/Routes.java.tmpl": "routes {\n    // plume-needle-add-route\n}\n",
	}, generator.Config{})

	inject := needle.Transform(needle.Request{File: "Routes.java", Needle: "add-route", Content: "add(\"/books\");"}, nil)
	_, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
		{File: "Routes.java", Transform: []plan.Transform{plan.Func("add-route", inject)}},
	}}, generator.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "routes {\n    add(\"/books\");\n    // plume-needle-add-route\n}\n", read(t, fsys, "out/Routes.java"))
}

func TestGenerate_OnlyFilter(t *testing.T) {
	gen, fsys, _ := newGenerator(t, map[string]string{
		"root1/src/a.go.tmpl":  "a",
		"root1/src/b.go.tmpl":  "b",
		"root1/docs/c.md.tmpl": "c",
	}, generator.Config{})

	spec := &plan.Spec{Templates: []plan.FileSpec{plan.File("src/a.go"), plan.File("src/b.go"), plan.File("docs/c.md")}}
	res, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{Only: []string{"src/**"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.go", "src/b.go"}, res.Written)
	exists, _ := fsys.Exists("out/docs/c.md")
	assert.False(t, exists)

	_, err = gen.Generate(context.Background(), spec, generator.GenerateOptions{Only: []string{"[unclosed"}})
	assert.ErrorContains(t, err, "invalid only pattern")
}

func entityFixture() (map[string]string, *plan.Spec) {
	files := map[string]string{
		"root1/entity/Entity.java.tmpl": "class {{ .entityName }} {\n" +
			"    // {{ .entity.Faker.UUID }}\n" +
			"    // {{ .entity.Faker.Word }} {{ .entity.Faker.Date }}\n" +
			"}\n",
		"root1/entity/Test.java.tmpl": "test {{ .entity.Faker.Sentence 4 }}\n",
	}
	for i := 0; i < 12; i++ {
		files[fmt.Sprintf("root1/static/f%02d.txt.tmpl", i)] = fmt.Sprintf("static %d {{ .name }}\n", i)
	}

	var static []plan.FileSpec
	for i := 0; i < 12; i++ {
		static = append(static, plan.File(fmt.Sprintf("f%02d.txt", i)))
	}
	entityOpts := plan.RenderOptions{EntityScoped: true, Context: scope.Context{scope.EntityNameKey: "Book"}}
	spec := &plan.Spec{Blocks: []plan.Block{
		{Path: "entity", To: "domain", Templates: []plan.FileSpec{
			{File: "Entity.java", RenameTo: "{{ .entityName }}.java", Options: entityOpts},
			{File: "Test.java", RenameTo: "{{ .entityName }}Test.java", Options: entityOpts},
		}},
		{Path: "static", Templates: static},
	}}
	return files, spec
}

func TestGenerate_EntityRendersAreDeterministic(t *testing.T) {
	files, spec := entityFixture()
	snapshot := func(sequential bool) map[string]string {
		reg := scope.NewRegistry(scope.NewEntity("Book"), scope.NewEntity("Author"))
		gen, fsys, _ := newGenerator(t, files, generator.Config{Registry: reg, Concurrency: 8})
		_, err := gen.Generate(context.Background(), spec, generator.GenerateOptions{
			Sequential: sequential,
			Context:    scope.Context{"name": "World"},
		})
		require.NoError(t, err)

		out := map[string]string{}
		for _, p := range fsys.Paths() {
			if strings.HasPrefix(p, "out") {
				out[p] = read(t, fsys, p)
			}
		}
		return out
	}

	concurrent := snapshot(false)
	again := snapshot(false)
	sequential := snapshot(true)

	require.Contains(t, concurrent, filepath.Join("out", "domain", "Book.java"))
	assert.Len(t, concurrent, 14)
	if diff := cmp.Diff(concurrent, again); diff != "" {
		t.Errorf("concurrent runs differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(concurrent, sequential); diff != "" {
		t.Errorf("sequential differs from concurrent (-concurrent +sequential):\n%s", diff)
	}
}

func TestGenerate_EntityRenderWithoutName(t *testing.T) {
	gen, _, _ := newGenerator(t, map[string]string{"root1/e.txt.tmpl": "x"}, generator.Config{})

	_, err := gen.Generate(context.Background(), &plan.Spec{Templates: []plan.FileSpec{
		{File: "e.txt", Options: plan.RenderOptions{EntityScoped: true}},
	}}, generator.GenerateOptions{})

	assert.ErrorIs(t, err, scope.ErrMissingRequiredContext)
	var te *generator.TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "e.txt", te.Destination)
}

func TestGenerate_CancelledContext(t *testing.T) {
	gen, _, _ := newGenerator(t, map[string]string{"root1/a.txt.tmpl": "a"}, generator.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, &plan.Spec{Templates: []plan.FileSpec{plan.File("a.txt")}}, generator.GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_OnDisk(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go.tmpl"), []byte("package {{ .pkg }}\n"), 0644))

	out := filepath.Join(dir, "project")
	gen := generator.New(generator.Config{
		Roots:   []string{root},
		Output:  out,
		Printer: output.NewPrinter(&bytes.Buffer{}),
	})

	_, err := gen.Generate(context.Background(), &plan.Spec{Blocks: []plan.Block{{
		Path:      "src",
		To:        "cmd",
		Templates: []plan.FileSpec{plan.File("main.go")},
	}}}, generator.GenerateOptions{Context: scope.Context{"pkg": "main"}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "cmd", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
}

func TestInject(t *testing.T) {
	gen, fsys, buf := newGenerator(t, map[string]string{
		"out/a.txt": "// plume-needle-x\n",
		"out/b.txt": "// plume-needle-y\n",
	}, generator.Config{})

	var reqs []needle.Request
	for i := 0; i < 10; i++ {
		reqs = append(reqs, needle.Request{File: "a.txt", Needle: "x", Content: fmt.Sprintf("line %d", i)})
	}
	reqs = append(reqs, needle.Request{File: "b.txt", Needle: "y", Content: "only"})
	reqs = append(reqs, needle.Request{File: "b.txt", Needle: "missing", Content: "z", BypassMessage: "no needle, skipped"})

	results, err := gen.Inject(context.Background(), reqs...)
	require.NoError(t, err)
	require.Len(t, results, 12)

	a := read(t, fsys, "out/a.txt")
	for i := 0; i < 10; i++ {
		assert.Contains(t, a, fmt.Sprintf("line %d\n", i))
	}
	assert.True(t, strings.HasSuffix(a, "line 9\n// plume-needle-x\n"), a)
	assert.Equal(t, "only\n// plume-needle-y\n", read(t, fsys, "out/b.txt"))
	assert.Contains(t, results[11].Warning, "no needle, skipped")
	assert.Contains(t, buf.String(), "no needle, skipped")
}

func TestInject_AbsolutePath(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "Routes.java")
	gen, fsys, _ := newGenerator(t, map[string]string{
		abs: "// plume-needle-route\n",
	}, generator.Config{})

	_, err := gen.Inject(context.Background(), needle.Request{File: abs, Needle: "route", Content: "add();"})
	require.NoError(t, err)
	assert.Equal(t, "add();\n// plume-needle-route\n", read(t, fsys, abs))
}

func TestInject_FirstErrorWins(t *testing.T) {
	gen, _, _ := newGenerator(t, nil, generator.Config{})

	_, err := gen.Inject(context.Background(), needle.Request{File: "missing.txt", Needle: "x", Content: "y"})
	assert.ErrorIs(t, err, needle.ErrFileNotFound)
}

func TestTaskError(t *testing.T) {
	inner := errors.New("boom")
	err := &generator.TaskError{Source: "a.tmpl", Destination: "a", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "generating a from a.tmpl: boom", err.Error())
}

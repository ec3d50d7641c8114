package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/plume"
	"github.com/simonhull/firebird-suite/plume/internal/commands"
	"github.com/simonhull/firebird-suite/plume/internal/config"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := commands.RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

const recipe = `
context:
  name: Nobody
blocks:
  - path: src
    templates:
      - a.txt
      - Routes.java
needles:
  - file: Routes.java
    needle: add-route
    content: add("/{{ .name }}");
`

func projectFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"templates/src/a.txt.tmpl":       "Hello {{ .name }}",
		"templates/src/Routes.java.tmpl": "routes {\n    // plume-needle-add-route\n}\n",
		"recipe.yml":                     recipe,
	})
	return dir
}

func TestGenerate(t *testing.T) {
	dir := projectFixture(t)

	out, err := run(t, "", "generate", filepath.Join(dir, "recipe.yml"), "-C", dir, "--set", "name=World")
	require.NoError(t, err, out)

	assert.Equal(t, "Hello World", readFile(t, filepath.Join(dir, "a.txt")))
	assert.Equal(t, "routes {\n    add(\"/World\");\n    // plume-needle-add-route\n}\n", readFile(t, filepath.Join(dir, "Routes.java")))
	assert.Contains(t, out, "2 written, 0 identical, 0 skipped")

	out, err = run(t, "", "generate", filepath.Join(dir, "recipe.yml"), "-C", dir, "--set", "name=World", "--skip")
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 written, 1 identical, 1 skipped")
	assert.Equal(t, "routes {\n    add(\"/World\");\n    // plume-needle-add-route\n}\n", readFile(t, filepath.Join(dir, "Routes.java")))
}

const checkRecipe = `
templates: [Routes.java]
needles:
  - file: Routes.java
    needle: add-route
    content: add("/{{ .name }}");
    check: register("{{ .name }}")
`

func TestGenerate_TemplatedNeedleCheck(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"templates/Routes.java.tmpl": "routes {\n    register(\"{{ .name }}\");\n    // plume-needle-add-route\n}\n",
		"recipe.yml":                 checkRecipe,
	})

	out, err := run(t, "", "generate", filepath.Join(dir, "recipe.yml"), "-C", dir, "--set", "name=World")
	require.NoError(t, err, out)
	assert.Equal(t, "routes {\n    register(\"World\");\n    // plume-needle-add-route\n}\n", readFile(t, filepath.Join(dir, "Routes.java")))
}

func TestGenerate_DryRun(t *testing.T) {
	dir := projectFixture(t)

	out, err := run(t, "", "generate", filepath.Join(dir, "recipe.yml"), "-C", dir, "--dry-run")
	require.NoError(t, err, out)

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "1 needle injections not applied")
}

func TestGenerate_Errors(t *testing.T) {
	dir := projectFixture(t)
	recipePath := filepath.Join(dir, "recipe.yml")

	_, err := run(t, "", "generate", recipePath, "-C", dir, "--force", "--skip")
	assert.ErrorContains(t, err, "none of the others can be")

	_, err = run(t, "", "generate", recipePath, "-C", dir, "--set", "novalue")
	assert.ErrorContains(t, err, `invalid --set "novalue"`)

	_, err = run(t, "", "generate", filepath.Join(dir, "missing.yml"), "-C", dir)
	assert.ErrorContains(t, err, "reading recipe")

	writeFiles(t, dir, map[string]string{"bad.yml": "templates: [nope.txt]\n"})
	_, err = run(t, "", "generate", filepath.Join(dir, "bad.yml"), "-C", dir)
	assert.ErrorContains(t, err, "template nope.txt.tmpl not found")

	_, err = run(t, "", "generate", recipePath, "-C", dir, "--log-level", "loud")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestGenerate_UsesConfig(t *testing.T) {
	dir := projectFixture(t)
	writeFiles(t, dir, map[string]string{
		".plume.json":                  `{"blueprints": ["custom"], "database": "postgresql", "context": {"name": "Config"}}`,
		"custom/src/a.txt.tmpl":        "Custom {{ .name }} sql={{ .sqlDatabase }} mod={{ .modulePath }}",
		"go.mod":                       "module example.com/shop\n\ngo 1.22\n",
		".plume/entities/book.yml":     "name: Book\nfields:\n  - {name: title, type: string}\n",
		"templates/src/Book.java.tmpl": "class {{ .entityName }}",
	})

	out, err := run(t, "", "generate", filepath.Join(dir, "recipe.yml"), "-C", dir, "--set", "name=Flag")
	require.NoError(t, err, out)
	assert.Equal(t, "Custom Flag sql=true mod=example.com/shop", readFile(t, filepath.Join(dir, "a.txt")))
}

func TestInject(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"pom.xml": "<deps>\n  <!-- plume-needle-dependency -->\n</deps>\n"})

	out, err := run(t, "<dep>a</dep>\n", "inject", "pom.xml", "dependency", "-C", dir)
	require.NoError(t, err, out)
	assert.Equal(t, "<deps>\n  <dep>a</dep>\n  <!-- plume-needle-dependency -->\n</deps>\n", readFile(t, filepath.Join(dir, "pom.xml")))

	out, err = run(t, "", "inject", "pom.xml", "dependency", "<dep>a</dep>", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "already contains the content")

	_, err = run(t, "", "inject", "pom.xml", "other", "x", "-C", dir)
	assert.ErrorContains(t, err, "plume-needle-other not found")

	out, err = run(t, "", "inject", "pom.xml", "other", "x", "-C", dir, "--bypass-message", "skipping other")
	require.NoError(t, err)
	assert.Contains(t, out, "skipping other")

	_, err = run(t, "", "inject", "missing.xml", "dependency", "x", "-C", dir, "--ignore-missing")
	assert.NoError(t, err)
}

func TestWhich(t *testing.T) {
	dir := projectFixture(t)
	writeFiles(t, dir, map[string]string{
		".plume.json":           `{"blueprints": ["custom"]}`,
		"custom/src/a.txt.tmpl": "override",
	})

	out, err := run(t, "", "which", "-C", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "src/a.txt.tmpl\t"+filepath.Join(dir, "custom")+"\t(overrides "+filepath.Join(dir, "templates")+")")
	assert.Contains(t, out, "src/Routes.java.tmpl\t"+filepath.Join(dir, "templates")+"\n")

	out, err = run(t, "", "which", "--resolve", "src/a.txt", "-C", dir)
	require.NoError(t, err, out)
	assert.Equal(t, filepath.Join(dir, "custom", "src", "a.txt.tmpl")+"\n", out)

	_, err = run(t, "", "which", "--resolve", "nope", "-C", dir)
	assert.ErrorContains(t, err, "not found")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "", "init", "-C", dir, "--database", "mysql")
	require.NoError(t, err, out)
	assert.DirExists(t, filepath.Join(dir, "templates"))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database)

	_, err = run(t, "", "init", "-C", dir)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "", "init", "-C", dir, "--force", "--cache", "floppy")
	assert.ErrorContains(t, err, `unknown cache "floppy"`)
}

func TestEntities(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".plume/entities/book.yml": "name: Book\nfields:\n  - {name: title, type: string}\n  - {name: pages, type: int}\n",
	})

	out, err := run(t, "", "entities", "-C", dir, "-n", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Book (2 fields)")
	assert.Equal(t, 2, strings.Count(out, "  pages: "))

	again, err := run(t, "", "entities", "-C", dir, "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "plume v"+plume.Version+"\n", out)
}

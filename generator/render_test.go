package generator_test

import (
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/plume/blueprint"
	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/generator"
	"github.com/simonhull/firebird-suite/plume/plan"
)

func newRenderer(files map[string]string) *generator.Renderer {
	fsys := filesystem.NewMemory(files)
	return generator.NewRenderer(fsys, blueprint.New(fsys, []string{"custom", "base"}))
}

func TestRenderer_RenderString(t *testing.T) {
	r := newRenderer(nil)

	tests := []struct {
		name string
		body string
		data any
		want string
	}{
		{"plain", "hello", nil, "hello"},
		{"field", "hello {{ .name }}", map[string]any{"name": "World"}, "hello World"},
		{"case helpers", "{{ pascalCase .n }} {{ camelCase .n }} {{ snakeCase .n }} {{ kebabCase .n }}", map[string]any{"n": "user profile"}, "UserProfile userProfile user_profile user-profile"},
		{"plural", "{{ plural .n }}", map[string]any{"n": "category"}, "categories"},
		{"default", `{{ default "x" .missing }}`, map[string]any{}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RenderString(tt.name, tt.body, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestRenderer_Errors(t *testing.T) {
	r := newRenderer(nil)

	_, err := r.RenderString("broken", "{{ .name ", nil)
	assert.ErrorContains(t, err, "failed to parse template 'broken'")

	_, err = r.RenderString("exec", "{{ template \"nope\" }}", nil)
	assert.ErrorContains(t, err, "failed to render template 'exec'")
}

func TestRenderer_Funcs(t *testing.T) {
	r := newRenderer(nil)
	r.Funcs(template.FuncMap{"shout": func(s string) string { return strings.ToUpper(s) + "!" }})

	got, err := r.RenderString("t", `{{ shout "hi" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "HI!", string(got))
}

func TestRenderer_IncludeUsesOverrides(t *testing.T) {
	r := newRenderer(map[string]string{
		"base/_header.tmpl":   "base header {{ .name }}",
		"custom/_header.tmpl": "custom header {{ .name }}",
		"base/_footer.tmpl":   "footer",
	})

	got, err := r.RenderString("page", `{{ include "_header" . }}|{{ include "_footer" . }}`, map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "custom header x|footer", string(got))
}

func TestRenderer_IncludeDepth(t *testing.T) {
	r := newRenderer(map[string]string{"base/loop.tmpl": `{{ include "loop" . }}`})

	_, err := r.RenderString("start", `{{ include "loop" . }}`, nil)
	assert.ErrorContains(t, err, "nesting deeper than 32")
}

func TestRenderer_RenderTask(t *testing.T) {
	r := newRenderer(map[string]string{
		"base/a.txt.tmpl": "a={{ .v }}",
		"base/b.txt.tmpl": "{{ .v }} stays",
	})

	got, err := r.Render(plan.Task{Source: "a.txt.tmpl", Path: "base/a.txt.tmpl", Template: true}, map[string]any{"v": 1})
	require.NoError(t, err)
	assert.Equal(t, "a=1", string(got))

	got, err = r.Render(plan.Task{Source: "b.txt.tmpl", Path: "base/b.txt.tmpl"}, map[string]any{"v": 1})
	require.NoError(t, err)
	assert.Equal(t, "{{ .v }} stays", string(got))

	_, err = r.Render(plan.Task{Source: "c", Path: "base/c"}, nil)
	assert.ErrorContains(t, err, "failed to open 'base/c'")
}

func TestRenderer_EmptyOutputIsNotNil(t *testing.T) {
	got, err := newRenderer(nil).RenderString("empty", "{{ if .on }}x{{ end }}", map[string]any{"on": false})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

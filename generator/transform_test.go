package generator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/plume/generator"
)

func TestBuiltinTransforms(t *testing.T) {
	reg := generator.NewTransforms()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{generator.TrimTrailingWhitespace, "a  \nb\t\r\nc", "a\nb\r\nc"},
		{generator.EnsureTrailingNewline, "a", "a\n"},
		{generator.EnsureTrailingNewline, "a\n", "a\n"},
		{generator.EnsureTrailingNewline, "", ""},
		{generator.LineEndingsLF, "a\r\nb\r\n", "a\nb\n"},
		{generator.LineEndingsCRLF, "a\nb\r\n", "a\r\nb\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := reg.Lookup(tt.name)
			require.True(t, ok)

			in := []byte(tt.in)
			got, err := fn(context.Background(), "f.txt", in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.in, string(in), "input must not be modified")
		})
	}
}

func TestTransforms_Register(t *testing.T) {
	reg := generator.NewTransforms()

	err := reg.Register("upper", func(_ context.Context, _ string, c []byte) ([]byte, error) { return c, nil })
	require.NoError(t, err)
	assert.Contains(t, reg.Names(), "upper")
	assert.Equal(t, []string{"crlf", "ensure-trailing-newline", "gofmt", "lf", "trim-trailing-whitespace", "upper"}, reg.Names())

	assert.Error(t, reg.Register("", nil))
	assert.Error(t, reg.Register("nil", nil))

	_, ok := reg.Lookup("missing")
	assert.False(t, ok)
}

func TestGoFormat(t *testing.T) {
	fn, ok := generator.NewTransforms().Lookup(generator.GoFormat)
	require.True(t, ok)

	got, err := fn(context.Background(), "cmd/main.go", []byte("package main\n\nfunc main() {\nx:=1\n_ = x\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {\n\tx := 1\n\t_ = x\n}\n", string(got))

	got, err = fn(context.Background(), "README.md", []byte("func main(){}"))
	require.NoError(t, err)
	assert.Equal(t, "func main(){}", string(got))

	_, err = fn(context.Background(), "bad.go", []byte("package main\nfunc {"))
	assert.ErrorContains(t, err, "failed to format Go source")
}

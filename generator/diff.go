package generator

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// maxDiffLines bounds the line-by-line comparison, which is quadratic.
const maxDiffLines = 5000

var (
	diffHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	diffHunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
)

// DiffOptions tunes Diff. Zero values pick the defaults.
type DiffOptions struct {
	Context  int // Unchanged lines around each change (default 3)
	TabWidth int // Spaces per tab (default 4)
	Width    int // Truncation width; 0 detects the terminal
}

type editKind byte

const (
	editKeep   editKind = ' '
	editAdd    editKind = '+'
	editRemove editKind = '-'
)

type edit struct {
	kind    editKind
	text    string
	oldLine int // 1-based, 0 for added lines
	newLine int // 1-based, 0 for removed lines
}

// Diff renders a unified diff between the existing and generated content
// of path. Identical content yields "".
func Diff(path string, existing, generated []byte, opts DiffOptions) string {
	if bytes.Equal(existing, generated) {
		return ""
	}
	if opts.Context <= 0 {
		opts.Context = 3
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = 4
	}
	if opts.Width <= 0 {
		opts.Width = terminalWidth()
	}

	if looksBinary(existing) || looksBinary(generated) {
		return fmt.Sprintf("Binary file %s differs\n", path)
	}

	a, b := lines(existing), lines(generated)
	if len(a) > maxDiffLines || len(b) > maxDiffLines {
		return fmt.Sprintf("%s: too large to diff (%d and %d lines)\n", path, len(a), len(b))
	}

	var out strings.Builder
	out.WriteString(diffHeaderStyle.Render("--- "+path) + "\n")
	out.WriteString(diffHeaderStyle.Render("+++ "+path+" (generated)") + "\n")
	for _, h := range hunks(editScript(a, b), opts.Context) {
		writeHunk(&out, h, opts)
	}
	return out.String()
}

// editScript computes a shortest edit script from the longest common
// subsequence of a and b.
func editScript(a, b []string) []edit {
	n, m := len(a), len(b)
	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	script := make([]edit, 0, n+m)
	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && a[i] == b[j]:
			script = append(script, edit{editKeep, a[i], i + 1, j + 1})
			i++
			j++
		case j < m && (i == n || lcs[i][j+1] >= lcs[i+1][j]):
			script = append(script, edit{editAdd, b[j], 0, j + 1})
			j++
		default:
			script = append(script, edit{editRemove, a[i], i + 1, 0})
			i++
		}
	}
	return script
}

// hunks splits script into ranges of changes padded with context lines.
// Changes closer than two context windows share a hunk.
func hunks(script []edit, context int) [][]edit {
	var out [][]edit
	start, end := -1, -1
	for i, e := range script {
		if e.kind == editKeep {
			continue
		}
		lo, hi := max(i-context, 0), min(i+context+1, len(script))
		if start >= 0 && lo <= end {
			end = hi
			continue
		}
		if start >= 0 {
			out = append(out, script[start:end])
		}
		start, end = lo, hi
	}
	if start >= 0 {
		out = append(out, script[start:end])
	}
	return out
}

func writeHunk(out *strings.Builder, h []edit, opts DiffOptions) {
	var oldStart, newStart, oldCount, newCount int
	for _, e := range h {
		if e.oldLine > 0 {
			if oldStart == 0 {
				oldStart = e.oldLine
			}
			oldCount++
		}
		if e.newLine > 0 {
			if newStart == 0 {
				newStart = e.newLine
			}
			newCount++
		}
	}
	out.WriteString(diffHunkStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)) + "\n")

	for _, e := range h {
		line := string(e.kind) + truncate(expandTabs(e.text, opts.TabWidth), opts.Width-2)
		switch e.kind {
		case editAdd:
			line = diffAddedStyle.Render(line)
		case editRemove:
			line = diffRemovedStyle.Render(line)
		}
		out.WriteString(line + "\n")
	}
}

func lines(b []byte) []string {
	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func looksBinary(b []byte) bool {
	return bytes.IndexByte(b[:min(len(b), 8000)], 0) >= 0
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := width - col%width
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

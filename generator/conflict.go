package generator

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ConflictResolution is the decision about a destination that exists with
// different content.
type ConflictResolution int

const (
	Skip ConflictResolution = iota
	Overwrite
	ShowDiff
	Cancel
)

func (c ConflictResolution) String() string {
	switch c {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case ShowDiff:
		return "diff"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("resolution(%d)", int(c))
	}
}

// ConflictStrategy decides about one conflicting file. Strategies are
// consulted one file at a time.
type ConflictStrategy interface {
	Resolve(path string, existing, generated []byte) (ConflictResolution, error)
}

// Strategy names accepted by NewStrategy.
const (
	StrategyForce       = "force"
	StrategySkip        = "skip"
	StrategyDiff        = "diff"
	StrategyInteractive = "interactive"
)

// NewStrategy returns the strategy called name; "" means force.
// Prompts and diffs go to out.
func NewStrategy(name string, out io.Writer) (ConflictStrategy, error) {
	if out == nil {
		out = os.Stdout
	}
	switch strings.ToLower(name) {
	case "", StrategyForce:
		return ForceStrategy{}, nil
	case StrategySkip:
		return SkipStrategy{}, nil
	case StrategyDiff:
		return &DiffStrategy{Out: out, Then: &InteractiveStrategy{Out: out}}, nil
	case StrategyInteractive:
		return &InteractiveStrategy{Out: out}, nil
	default:
		return nil, fmt.Errorf("unknown conflict strategy %q (want force, skip, diff or interactive)", name)
	}
}

// ForceStrategy overwrites every conflicting file.
type ForceStrategy struct{}

func (ForceStrategy) Resolve(string, []byte, []byte) (ConflictResolution, error) {
	return Overwrite, nil
}

// SkipStrategy keeps every existing file.
type SkipStrategy struct{}

func (SkipStrategy) Resolve(string, []byte, []byte) (ConflictResolution, error) {
	return Skip, nil
}

// DiffStrategy shows the diff first, then lets Then decide. Long diffs open
// in a scrollable viewer when Out is a terminal.
type DiffStrategy struct {
	Out  io.Writer
	Then ConflictStrategy
}

func (s *DiffStrategy) Resolve(path string, existing, generated []byte) (ConflictResolution, error) {
	diff := Diff(path, existing, generated, DiffOptions{})
	if strings.Count(diff, "\n") > 20 && isTerminal(s.Out) {
		final, err := tea.NewProgram(newDiffViewer(path, diff), tea.WithAltScreen(), tea.WithOutput(s.Out)).Run()
		if err != nil {
			return Cancel, fmt.Errorf("failed to show diff: %w", err)
		}
		if final.(diffViewer).cancelled {
			return Cancel, nil
		}
	} else {
		fmt.Fprint(s.Out, diff)
	}

	res, err := s.Then.Resolve(path, existing, generated)
	if err == nil && res == ShowDiff {
		// Already shown.
		return s.Then.Resolve(path, existing, generated)
	}
	return res, err
}

// InteractiveStrategy asks the user with a keyboard driven menu.
type InteractiveStrategy struct {
	In  io.Reader
	Out io.Writer
}

func (s *InteractiveStrategy) Resolve(path string, existing, generated []byte) (ConflictResolution, error) {
	opts := []tea.ProgramOption{}
	if s.In != nil {
		opts = append(opts, tea.WithInput(s.In))
	}
	if s.Out != nil {
		opts = append(opts, tea.WithOutput(s.Out))
	}

	final, err := tea.NewProgram(newConflictMenu(path, len(existing), len(generated)), opts...).Run()
	if err != nil {
		return Cancel, fmt.Errorf("failed to show menu: %w", err)
	}
	menu := final.(conflictMenu)
	if menu.selected == nil {
		return Cancel, nil
	}
	return *menu.selected, nil
}

var (
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewerBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

var conflictChoices = []struct {
	label    string
	shortcut string
	res      ConflictResolution
}{
	{"Show diff and decide", "d", ShowDiff},
	{"Skip (keep existing file)", "s", Skip},
	{"Overwrite (replace with generated file)", "o", Overwrite},
	{"Cancel generation", "q", Cancel},
}

type conflictMenu struct {
	path                string
	existing, generated int
	cursor              int
	selected            *ConflictResolution
}

func newConflictMenu(path string, existing, generated int) conflictMenu {
	return conflictMenu{path: path, existing: existing, generated: generated}
}

func (m conflictMenu) Init() tea.Cmd {
	return nil
}

func (m conflictMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(conflictChoices)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		res := conflictChoices[m.cursor].res
		m.selected = &res
		return m, tea.Quit
	}
	for _, c := range conflictChoices {
		if key.String() == c.shortcut {
			res := c.res
			m.selected = &res
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m conflictMenu) View() string {
	var b strings.Builder
	b.WriteString(conflictStyle.Render("conflict ") + m.path + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("    existing %s, generated %s", formatSize(m.existing), formatSize(m.generated))) + "\n\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] move  [enter] select  [d/s/o/q] shortcut") + "\n\n")
	for i, c := range conflictChoices {
		if i == m.cursor {
			b.WriteString("    " + selectedStyle.Render("> "+c.label) + "\n")
			continue
		}
		b.WriteString("      " + c.label + "\n")
	}
	return b.String()
}

type diffViewer struct {
	path      string
	diff      string
	viewport  viewport.Model
	ready     bool
	cancelled bool
}

func newDiffViewer(path, diff string) diffViewer {
	return diffViewer{path: path, diff: diff}
}

func (m diffViewer) Init() tea.Cmd {
	return nil
}

func (m diffViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "q", "esc", "enter":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		// Border plus title and footer lines.
		width, height := msg.Width-2, msg.Height-4
		if !m.ready {
			m.viewport = viewport.New(width, height)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = width
			m.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewer) View() string {
	if !m.ready {
		return "loading diff…"
	}
	title := conflictStyle.Render("diff " + m.path)
	footer := mutedStyle.Render(fmt.Sprintf("[↑/↓/pgup/pgdn] scroll  [q] back to menu  %3.0f%%", m.viewport.ScrollPercent()*100))
	return title + "\n" + viewerBorder.Render(m.viewport.View()) + "\n" + footer
}

func formatSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

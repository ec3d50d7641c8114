package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Kind names what happened to a file.
type Kind string

const (
	Create    Kind = "create"
	Force     Kind = "force"
	Skip      Kind = "skip"
	Identical Kind = "identical"
	Conflict  Kind = "conflict"
	Inject    Kind = "inject"
)

var kindStyles = map[Kind]lipgloss.Style{
	Create:    lipgloss.NewStyle().Foreground(lipgloss.Color("green")),
	Force:     lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")),
	Skip:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	Identical: lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")),
	Conflict:  lipgloss.NewStyle().Foreground(lipgloss.Color("red")),
	Inject:    lipgloss.NewStyle().Foreground(lipgloss.Color("magenta")),
}

// Printer writes styled lines to one writer. It is safe for concurrent use.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewPrinter creates a printer on w (stdout when nil).
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// SetVerbose toggles Verbose output.
func (p *Printer) SetVerbose(v bool) {
	p.mu.Lock()
	p.verbose = v
	p.mu.Unlock()
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *Printer) Success(msg string) { p.println(successStyle.Render("✔ " + msg)) }
func (p *Printer) Error(msg string)   { p.println(errorStyle.Render("✖ " + msg)) }
func (p *Printer) Warn(msg string)    { p.println(warnStyle.Render("⚠ " + msg)) }
func (p *Printer) Info(msg string)    { p.println(infoStyle.Render("ℹ " + msg)) }
func (p *Printer) Step(msg string)    { p.println(stepStyle.Render("   " + msg)) }

// Verbose prints only when verbose mode is on.
func (p *Printer) Verbose(msg string) {
	p.mu.Lock()
	on := p.verbose
	p.mu.Unlock()
	if on {
		p.println(stepStyle.Render("   · " + msg))
	}
}

// Action prints a file status line such as "   create src/App.java".
func (p *Printer) Action(kind Kind, path string) {
	style, ok := kindStyles[kind]
	if !ok {
		style = stepStyle
	}
	p.println(style.Render(fmt.Sprintf("%9s", kind)) + " " + path)
}

// Raw writes s unstyled, as is.
func (p *Printer) Raw(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.w, s)
}

var std = NewPrinter(nil)

// Default returns the stdout printer used by the package-level functions.
func Default() *Printer { return std }

// SetVerbose toggles verbose output of the default printer.
func SetVerbose(v bool) { std.SetVerbose(v) }

func Success(msg string)            { std.Success(msg) }
func Error(msg string)              { std.Error(msg) }
func Warn(msg string)               { std.Warn(msg) }
func Info(msg string)               { std.Info(msg) }
func Step(msg string)               { std.Step(msg) }
func Verbose(msg string)            { std.Verbose(msg) }
func Action(kind Kind, path string) { std.Action(kind, path) }

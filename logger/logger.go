// Package logger provides the leveled, field-based logger shared by every
// plume package. Library code takes a Logger and never writes to stdout
// directly; the CLI decides where log lines go.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log lines by importance.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSilent:
		return "SILENT"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a flag value ("debug", "warn", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error, silent)", s)
	}
}

// Logger writes leveled lines with key=value fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that adds fields to every line.
	With(fields ...Field) Logger
	// Named returns a logger whose lines are prefixed with component.
	// Nested names are joined with a dot.
	Named(component string) Logger

	SetLevel(level Level)
	Enabled(level Level) bool
}

// Field is one key=value pair of a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// sink is shared by a logger and everything derived from it, so SetLevel
// reaches every child and lines from concurrent workers never interleave.
type sink struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
	now   func() time.Time
}

type textLogger struct {
	sink   *sink
	name   string
	fields []Field
}

// NewLogger creates a logger writing lines at or above level to out
// (stderr when nil).
func NewLogger(level Level, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	return &textLogger{sink: &sink{level: level, out: out, now: time.Now}}
}

// NewSilentLogger creates a logger that drops everything.
func NewSilentLogger() Logger {
	return NewLogger(LevelSilent, io.Discard)
}

func (l *textLogger) SetLevel(level Level) {
	l.sink.mu.Lock()
	l.sink.level = level
	l.sink.mu.Unlock()
}

func (l *textLogger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level && level < LevelSilent
}

func (l *textLogger) With(fields ...Field) Logger {
	return &textLogger{
		sink:   l.sink,
		name:   l.name,
		fields: append(l.fields[:len(l.fields):len(l.fields)], fields...),
	}
}

func (l *textLogger) Named(component string) Logger {
	name := component
	if l.name != "" {
		name = l.name + "." + component
	}
	return &textLogger{sink: l.sink, name: name, fields: l.fields}
}

func (l *textLogger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *textLogger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *textLogger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l *textLogger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

// write formats one line:
//
//	15:04:05.000 WARN  blueprint: possible override conflict file=a.txt root=custom
func (l *textLogger) write(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(l.sink.now().Format("15:04:05.000"))
	fmt.Fprintf(&b, " %-5s ", level)
	if l.name != "" {
		b.WriteString(l.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	for _, f := range l.fields {
		writeField(&b, f)
	}
	for _, f := range fields {
		writeField(&b, f)
	}
	b.WriteByte('\n')

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.out, b.String())
}

// writeField quotes values that would otherwise be ambiguous.
func writeField(b *strings.Builder, f Field) {
	v := fmt.Sprint(f.Value)
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = fmt.Sprintf("%q", v)
	}
	b.WriteByte(' ')
	b.WriteString(f.Key)
	b.WriteByte('=')
	b.WriteString(v)
}

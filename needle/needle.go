package needle

import (
	"fmt"
	"regexp"
	"strings"
)

// Prefix marks every sentinel. Needle ids without it get it prepended.
const Prefix = "plume-needle-"

// Request describes one insertion.
type Request struct {
	File    string // Target path; used by Injector and in error messages
	Needle  string // Needle id, with or without Prefix
	Content string // Text to insert; may span several lines

	// Check overrides the text looked for by the idempotence check.
	// When both Check and CheckPattern are empty, Content is used.
	Check        string
	CheckPattern *regexp.Regexp

	// BypassMessage turns a missing needle into a warning.
	BypassMessage string

	// IgnoreNonExisting makes a missing target file a no-op.
	IgnoreNonExisting bool

	// After inserts below the sentinel line instead of above it.
	After bool

	// AutoIndent strips the content's own common indentation before the
	// sentinel's indentation is applied.
	AutoIndent bool

	// StrictWhitespace compares Check byte for byte instead of ignoring
	// whitespace differences.
	StrictWhitespace bool
}

// Result is the outcome of an insertion.
type Result struct {
	Content     string
	Changed     bool
	Occurrences int    // Sentinel lines rewritten
	Warning     string // Set when a missing needle was bypassed
}

// Sentinel returns the full sentinel token for id.
func Sentinel(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, Prefix) {
		return id
	}
	return Prefix + id
}

// Insert applies req to content. It never touches storage.
func Insert(content string, req Request) (Result, error) {
	if strings.TrimSpace(req.Needle) == "" {
		return Result{}, fmt.Errorf("%w: needle id is empty", ErrInvalidRequest)
	}
	sentinel := Sentinel(req.Needle)
	unchanged := Result{Content: content}

	block := splitBlock(req.Content)
	if len(block) == 0 {
		return unchanged, nil
	}

	if alreadyPresent(content, req) {
		return unchanged, nil
	}

	pattern := sentinelPattern(sentinel)
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines)+len(block))
	if req.AutoIndent {
		block = dedent(block)
	}

	occurrences := 0
	for _, line := range lines {
		body, cr := strings.CutSuffix(line, "\r")
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			out = append(out, line)
			continue
		}
		occurrences++

		inserted := indentBlock(block, m[1], cr)
		if req.After {
			out = append(out, line)
			out = append(out, inserted...)
		} else {
			out = append(out, inserted...)
			out = append(out, line)
		}
	}

	if occurrences == 0 {
		if req.BypassMessage != "" {
			unchanged.Warning = fmt.Sprintf("%s (needle %s not found in %s)", req.BypassMessage, sentinel, displayFile(req.File))
			return unchanged, nil
		}
		return Result{}, &NotFoundError{File: req.File, Needle: sentinel}
	}

	return Result{
		Content:     strings.Join(out, "\n"),
		Changed:     true,
		Occurrences: occurrences,
	}, nil
}

// Contains reports whether content carries the sentinel for id.
func Contains(content, id string) bool {
	pattern := sentinelPattern(Sentinel(id))
	for _, line := range strings.Split(content, "\n") {
		if pattern.MatchString(strings.TrimSuffix(line, "\r")) {
			return true
		}
	}
	return false
}

// sentinelPattern matches a whole line carrying the sentinel as a complete
// token. Group 1 captures the leading indentation.
func sentinelPattern(sentinel string) *regexp.Regexp {
	return regexp.MustCompile(`^([ \t]*)(?:|.*[^\w-])` + regexp.QuoteMeta(sentinel) + `(?:[^\w-].*)?$`)
}

// alreadyPresent implements the idempotence check.
func alreadyPresent(content string, req Request) bool {
	if req.CheckPattern != nil {
		return req.CheckPattern.MatchString(content)
	}

	check := req.Check
	if check == "" {
		check = req.Content
	}

	if req.StrictWhitespace {
		return strings.Contains(content, strings.TrimRight(check, "\r\n"))
	}

	fields := strings.Fields(check)
	if len(fields) == 0 {
		return false
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(strings.Join(quoted, `\s+`)).MatchString(content)
}

// splitBlock splits content into lines, dropping one trailing line break.
func splitBlock(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// indentBlock prefixes every non-blank line with indent.
func indentBlock(block []string, indent string, cr bool) []string {
	out := make([]string, len(block))
	for i, line := range block {
		if strings.TrimSpace(line) != "" {
			line = indent + line
		} else {
			line = ""
		}
		if cr {
			line += "\r"
		}
		out[i] = line
	}
	return out
}

// dedent removes the indentation shared by every non-blank line.
func dedent(block []string) []string {
	common := ""
	first := true
	for _, line := range block {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			common = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, common) {
			common = common[:len(common)-1]
		}
	}

	out := make([]string, len(block))
	for i, line := range block {
		out[i] = strings.TrimPrefix(line, common)
	}
	return out
}

func displayFile(file string) string {
	if file == "" {
		return "content"
	}
	return file
}

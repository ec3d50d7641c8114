package inflect

import (
	"strings"
	"unicode"
)

// acronyms are kept upper case when a word is capitalized.
var acronyms = map[string]string{
	"api":  "API",
	"css":  "CSS",
	"db":   "DB",
	"html": "HTML",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"ui":   "UI",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
	"xml":  "XML",
}

// Words splits s into lower-case words at separators (space, '_', '-', '.')
// and at case boundaries. Runs of capitals stay together: "HTTPServer" is
// ["http", "server"].
func Words(s string) []string {
	runes := []rune(s)
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return words
}

func capitalize(word string) string {
	if a, ok := acronyms[word]; ok {
		return a
	}
	r := []rune(word)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// PascalCase converts any casing to PascalCase: user_id → UserID.
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// CamelCase converts any casing to camelCase: UserName → userName.
func CamelCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(words[0])
	for _, w := range words[1:] {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// SnakeCase converts any casing to snake_case: HTTPServer → http_server.
func SnakeCase(s string) string {
	return strings.Join(Words(s), "_")
}

// KebabCase converts any casing to kebab-case: BankAccount → bank-account.
func KebabCase(s string) string {
	return strings.Join(Words(s), "-")
}

// Title upper-cases the first letter of each space separated word and
// lower-cases the rest.
func Title(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(strings.ToLower(f))
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}

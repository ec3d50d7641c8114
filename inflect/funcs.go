package inflect

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"
)

// FuncMap returns the helpers available to every template and rename
// expression. Callers may add to the returned map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"pascalCase": PascalCase,
		"camelCase":  CamelCase,
		"snakeCase":  SnakeCase,
		"kebabCase":  KebabCase,
		"title":      Title,
		"plural":     Pluralize,

		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"trim":      strings.TrimSpace,
		"join":      strings.Join,
		"split":     strings.Split,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"replace":   strings.ReplaceAll,
		"quote":     Quote,
		"substr":    Substr,

		"dict":    Dict,
		"default": Default,
	}
}

// Quote wraps s in double quotes with Go escaping.
func Quote(s string) string {
	return fmt.Sprintf("%q", s)
}

// Substr returns s[start:end], clamped to the string. end <= 0 means the
// end of the string.
func Substr(start, end int, s string) string {
	start = max(start, 0)
	if end <= 0 || end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}

// Dict builds a map from alternating keys and values, for passing several
// values to an include.
func Dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict requires an even number of arguments, got %d", len(pairs))
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key at position %d is %T, not string", i, pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

// Default returns fallback when val is nil, an empty string, or an empty
// slice or map. Numeric zero is kept.
func Default(fallback, val any) any {
	if val == nil {
		return fallback
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		if v.Len() == 0 {
			return fallback
		}
	}
	return val
}

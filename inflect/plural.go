package inflect

import (
	"strings"
	"unicode"
)

var irregularPlurals = map[string]string{
	"child":  "children",
	"foot":   "feet",
	"goose":  "geese",
	"man":    "men",
	"mouse":  "mice",
	"person": "people",
	"tooth":  "teeth",
	"woman":  "women",
}

// oSuffixTakesS lists consonant+o endings that only take an "s".
var oSuffixTakesS = []string{"photo", "piano", "halo", "logo", "video"}

// Pluralize returns the English plural of a singular noun, keeping the
// capitalization of the input.
func Pluralize(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)

	if plural, ok := irregularPlurals[lower]; ok {
		return matchCase(word, plural)
	}

	var suffix string
	stem := word
	switch {
	case hasAnySuffix(lower, "s", "x", "z", "ch", "sh"):
		suffix = "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		stem, suffix = word[:len(word)-1], "ies"
	case strings.HasSuffix(lower, "o") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		suffix = "es"
		if hasAnySuffix(lower, oSuffixTakesS...) {
			suffix = "s"
		}
	case strings.HasSuffix(lower, "fe"):
		stem, suffix = word[:len(word)-2], "ves"
	case strings.HasSuffix(lower, "f"):
		stem, suffix = word[:len(word)-1], "ves"
	default:
		suffix = "s"
	}

	if isUpper(word) {
		suffix = strings.ToUpper(suffix)
	}
	return stem + suffix
}

func matchCase(original, plural string) string {
	switch {
	case isUpper(original):
		return strings.ToUpper(plural)
	case unicode.IsUpper([]rune(original)[0]):
		return strings.ToUpper(plural[:1]) + plural[1:]
	default:
		return plural
	}
}

func isUpper(s string) bool {
	return len(s) > 1 && strings.ToUpper(s) == s
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}

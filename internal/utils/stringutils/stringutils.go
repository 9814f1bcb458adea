package stringutils

import (
	"regexp"
	"strings"
)

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// ToKebabCase converts a string from CamelCase or PascalCase to kebab-case.
// Example: "WeakWarning" -> "weak-warning", "BaseSeverity" -> "base-severity"
func ToKebabCase(str string) string {
	if str == "" {
		return ""
	}
	snake := matchFirstCap.ReplaceAllString(str, "${1}-${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}-${2}")
	return strings.ToLower(snake)
}

// NormalizeName turns a setting name written in any common case style into kebab-case.
// Example: "WEAK_WARNING" -> "weak-warning", "weakWarning" -> "weak-warning", " Error " -> "error"
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	return ToKebabCase(s)
}

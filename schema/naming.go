package schema

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// word delimiter for names like "first-name"
const wordSeparator = "-"

// names end up in module file names and class identifiers, so only identifier words joined by '-' are allowed
var nameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(-[A-Za-z0-9_]+)*$`)

// ValidName reports whether a type name can be used as a module file name and class name.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// Capitalize upper-cases the first character of text and leaves the rest untouched.
func Capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

// FormatAsLabel turns "first-name" into "First Name".
func FormatAsLabel(text string) string {
	parts := strings.Split(text, wordSeparator)
	for i := range parts {
		parts[i] = Capitalize(parts[i])
	}
	return strings.Join(parts, " ")
}

// FormatAsClassName turns "first-name" into "FirstName".
func FormatAsClassName(text string) string {
	parts := strings.Split(text, wordSeparator)
	for i := range parts {
		parts[i] = Capitalize(parts[i])
	}
	return strings.Join(parts, "")
}

package gen

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sivrad/matrix-tools/schema"
)

func printerf(w io.Writer) func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(w, format, args...)
	}
}

var identRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// tsString renders s as a single-quoted TypeScript string literal.
func tsString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// tsKey renders an object or interface key, quoting it unless it is a plain identifier.
func tsKey(k string) string {
	if identRegex.MatchString(k) {
		return k
	}
	return tsString(k)
}

// tsLiteral renders a decoded document value as a TypeScript expression.
func tsLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case schema.Number:
		return string(t)
	case string:
		return tsString(t)
	case []any:
		parts := make([]string, len(t))
		for i := range t {
			parts[i] = tsLiteral(t[i])
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *schema.Object:
		if t.Len() == 0 {
			return "{}"
		}
		parts := make([]string, 0, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			parts = append(parts, tsKey(k)+": "+tsLiteral(val))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return tsString(fmt.Sprint(v))
	}
}

// docText keeps free text from closing the surrounding doc comment.
func docText(s string) string {
	s = strings.ReplaceAll(s, "*/", "*\\/")
	return strings.Join(strings.Fields(s), " ")
}

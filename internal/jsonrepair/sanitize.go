package jsonrepair

import (
	"fmt"
	"strings"
	"unicode"
)

// Typographic quotes open a string only outside of one. Inside a string they
// are ordinary text.
const (
	smartDouble = '“'
	smartSingle = '‘'
)

var literalWords = map[string]string{
	"True":      "true",
	"False":     "false",
	"None":      "null",
	"undefined": "null",
	"NaN":       "null",
}

// Sanitize rewrites near-JSON into JSON. It is a single left-to-right pass
// that tracks whether it is inside a string and which brackets are open.
// Fixes applied: typographic quote delimiters, trailing commas, comments, raw
// control characters inside strings, single-quoted strings, stray \'
// escapes, unquoted keys, Python literals, and missing closing brackets.
func Sanitize(s string) string {
	in := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 8)

	var stack []rune
	var quote rune // 0 when outside a string
	escaped := false

	for i := 0; i < len(in); i++ {
		c := in[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
				out.WriteRune(c)
			case c == '\\' && i+1 < len(in) && in[i+1] == '\'':
				// \' is not a JSON escape.
				out.WriteByte('\'')
				i++
			case c == '\\':
				escaped = true
				out.WriteRune(c)
			case closesString(quote, c):
				quote = 0
				out.WriteByte('"')
			case c == '"':
				// Only reachable inside a single-quoted string.
				out.WriteString(`\"`)
			case c == '\n':
				out.WriteString(`\n`)
			case c == '\r':
				out.WriteString(`\r`)
			case c == '\t':
				out.WriteString(`\t`)
			case c < 0x20:
				fmt.Fprintf(&out, `\u%04x`, c)
			default:
				out.WriteRune(c)
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			out.WriteByte('"')
		case c == '“' || c == '„' || c == '«':
			quote = smartDouble
			out.WriteByte('"')
		case c == '‘':
			quote = smartSingle
			out.WriteByte('"')
		case c == '/' && i+1 < len(in) && in[i+1] == '/':
			for i < len(in) && in[i] != '\n' {
				i++
			}
			if i < len(in) {
				out.WriteRune('\n')
			}
		case c == '/' && i+1 < len(in) && in[i+1] == '*':
			i += 2
			for i+1 < len(in) && !(in[i] == '*' && in[i+1] == '/') {
				i++
			}
			i++
		case c == ',':
			if next := nextSignificant(in, i+1); next == '}' || next == ']' || next == 0 {
				continue
			}
			out.WriteRune(c)
		case c == '{' || c == '[':
			stack = append(stack, c)
			out.WriteRune(c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			out.WriteRune(c)
		case isIdentStart(c):
			j := i
			for j < len(in) && isIdentPart(in[j]) {
				j++
			}
			word := string(in[i:j])
			switch {
			case nextSignificant(in, j) == ':' && len(stack) > 0 && stack[len(stack)-1] == '{':
				out.WriteString(`"` + word + `"`)
			case literalWords[word] != "":
				out.WriteString(literalWords[word])
			default:
				out.WriteString(word)
			}
			i = j - 1
		default:
			out.WriteRune(c)
		}
	}

	if quote != 0 {
		out.WriteByte('"')
	}

	result := strings.TrimRightFunc(out.String(), unicode.IsSpace)
	result = strings.TrimSuffix(result, ",")
	for k := len(stack) - 1; k >= 0; k-- {
		if stack[k] == '{' {
			result += "}"
		} else {
			result += "]"
		}
	}
	return result
}

// closesString reports whether c ends a string opened with quote.
func closesString(quote, c rune) bool {
	switch quote {
	case smartDouble:
		return c == '”' || c == '“' || c == '»' || c == '"'
	case smartSingle:
		return c == '’'
	default:
		return c == quote
	}
}

// nextSignificant returns the first rune at or after i that is not whitespace,
// or 0 at end of input.
func nextSignificant(in []rune, i int) rune {
	for ; i < len(in); i++ {
		if !unicode.IsSpace(in[i]) {
			return in[i]
		}
	}
	return 0
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}

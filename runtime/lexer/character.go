package lexer

import "strings"

// Escaped forms removed by Unescape, in the order the engine applies them.
const (
	escapedDelimiter = `\:`
	escapedEscape    = `\\`
)

// Unescape turns `\:` into `:` and then `\\` into `\`.
//
// Only string, regexp, function-name, object-field and script-source fields
// are unescaped; other escapes (\xNN, \uNNNN) are left as logged.
func Unescape(s string) string {
	if strings.IndexByte(s, Escape) < 0 {
		return s
	}
	s = strings.ReplaceAll(s, escapedDelimiter, ":")
	return strings.ReplaceAll(s, escapedEscape, `\`)
}

// SplitPair splits an object-literal field on the first literal `\:`.
func SplitPair(field string) (key, value string, ok bool) {
	return strings.Cut(field, escapedDelimiter)
}

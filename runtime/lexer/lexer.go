package lexer

import (
	"iter"

	"github.com/opal-lang/vv8log/core/invariant"
)

const (
	// Delimiter separates the fields of a log line.
	Delimiter byte = ':'
	// Escape makes the following byte literal content of the current token.
	Escape byte = '\\'
	// ObjectDelimiter separates the fields inside an object token {…}.
	ObjectDelimiter byte = ','
)

// Splitter lazily splits a string on an unescaped delimiter.
//
// Escapes are kept in the returned tokens; callers unescape the fields that
// need it with Unescape. Splitting never fails: malformed input at worst
// yields empty tokens. A Splitter is single-use; construct a new one to
// restart.
type Splitter struct {
	remaining string
	delim     byte
}

// NewSplitter creates a Splitter over input using delim as delimiter.
func NewSplitter(input string, delim byte) *Splitter {
	invariant.Precondition(delim != Escape, "delimiter must differ from escape")
	return &Splitter{remaining: input, delim: delim}
}

// Fields creates a Splitter for the payload of a log line (everything after
// the one-character tag).
func Fields(payload string) *Splitter {
	return NewSplitter(payload, Delimiter)
}

// Next returns the next token. It reports false once the remaining input is
// empty, so a trailing delimiter does not produce a final empty token.
func (s *Splitter) Next() (string, bool) {
	if s.remaining == "" {
		return "", false
	}

	i := 0
	for i < len(s.remaining) {
		switch s.remaining[i] {
		case Escape:
			i += 2
		case s.delim:
			token := s.remaining[:i]
			s.remaining = s.remaining[i+1:]
			return token, true
		default:
			i++
		}
	}

	// Fully consumed. An escape as the very last byte overshoots by one.
	token := s.remaining
	s.remaining = ""
	return token, true
}

// Drain returns all remaining unsplit input as one token.
func (s *Splitter) Drain() string {
	out := s.remaining
	s.remaining = ""
	return out
}

// Remaining reports the input not yet consumed.
func (s *Splitter) Remaining() string {
	return s.remaining
}

// All iterates over the remaining tokens.
func (s *Splitter) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			token, ok := s.Next()
			if !ok || !yield(token) {
				return
			}
		}
	}
}

// Split eagerly splits input on delim, honouring escapes.
func Split(input string, delim byte) []string {
	var tokens []string
	for token := range NewSplitter(input, delim).All() {
		tokens = append(tokens, token)
	}
	return tokens
}

// SplitAll is Split with strings.Split semantics at the edges: empty input
// yields one empty token and a trailing delimiter yields a final empty token.
func SplitAll(input string, delim byte) []string {
	tokens := Split(input, delim)
	consumed := len(tokens) - 1
	for _, token := range tokens {
		consumed += len(token)
	}
	if len(tokens) == 0 || consumed < len(input) {
		tokens = append(tokens, "")
	}
	return tokens
}

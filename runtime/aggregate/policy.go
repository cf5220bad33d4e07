package aggregate

import (
	"regexp"
	"strings"
)

// InteractionDetector decides whether an injected script simulates user
// interaction. It is a heuristic signature, not a semantic guarantee.
type InteractionDetector interface {
	IsInteraction(source string) bool
}

// InteractionFunc adapts a function to InteractionDetector
type InteractionFunc func(source string) bool

// IsInteraction calls f(source)
func (f InteractionFunc) IsInteraction(source string) bool { return f(source) }

// Default interaction harness signature: the gremlins.js horde comment.
const (
	DefaultInteractionMarker = "Create Gremlins horde"
	DefaultMarkerPrefix      = 50
)

// MarkerDetector looks for Marker within the first PrefixLen bytes of the
// source.
type MarkerDetector struct {
	Marker    string
	PrefixLen int
}

// DefaultInteractionDetector detects the gremlins.js harness
func DefaultInteractionDetector() MarkerDetector {
	return MarkerDetector{Marker: DefaultInteractionMarker, PrefixLen: DefaultMarkerPrefix}
}

// IsInteraction reports whether the marker appears in the source prefix
func (d MarkerDetector) IsInteraction(source string) bool {
	if d.Marker == "" {
		return false
	}
	n := min(len(source), max(d.PrefixLen, 0))
	return strings.Contains(source[:n], d.Marker)
}

// NameFilter decides whether an APICall looks like a public browser API.
// Calls it rejects are counted as filtered.
type NameFilter interface {
	Plausible(call APICall) bool
}

// NameFilterFunc adapts a function to NameFilter
type NameFilterFunc func(call APICall) bool

// Plausible calls f(call)
func (f NameFilterFunc) Plausible(call APICall) bool { return f(call) }

// AcceptAll keeps every call.
var AcceptAll NameFilter = NameFilterFunc(func(APICall) bool { return true })

// Default public API name shapes.
const (
	DefaultReceiverPattern  = `^[A-Za-z0-9. ]{3,}$`
	DefaultAttributePattern = `^[A-Za-z0-9. ]{2,}$`
	DefaultMaxDigitRun      = 3
)

// PatternFilter accepts receiver and attribute names matching their
// patterns and containing no run of more than MaxDigitRun digits. A
// negative MaxDigitRun disables the digit check.
type PatternFilter struct {
	Receiver    *regexp.Regexp
	Attribute   *regexp.Regexp
	MaxDigitRun int
}

// DefaultNameFilter returns the filter for letters, digits, dots and spaces
func DefaultNameFilter() PatternFilter {
	return PatternFilter{
		Receiver:    regexp.MustCompile(DefaultReceiverPattern),
		Attribute:   regexp.MustCompile(DefaultAttributePattern),
		MaxDigitRun: DefaultMaxDigitRun,
	}
}

// NewPatternFilter compiles the receiver and attribute patterns
func NewPatternFilter(receiver, attribute string, maxDigitRun int) (PatternFilter, error) {
	r, err := regexp.Compile(receiver)
	if err != nil {
		return PatternFilter{}, err
	}
	a, err := regexp.Compile(attribute)
	if err != nil {
		return PatternFilter{}, err
	}
	return PatternFilter{Receiver: r, Attribute: a, MaxDigitRun: maxDigitRun}, nil
}

// Plausible checks the receiver and, when present, the attribute
func (f PatternFilter) Plausible(call APICall) bool {
	if !f.match(f.Receiver, call.Receiver) {
		return false
	}
	if call.HasAttribute && !f.match(f.Attribute, call.Attribute) {
		return false
	}
	return true
}

func (f PatternFilter) match(re *regexp.Regexp, name string) bool {
	if re != nil && !re.MatchString(name) {
		return false
	}
	return f.MaxDigitRun < 0 || longestDigitRun(name) <= f.MaxDigitRun
}

func longestDigitRun(s string) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if '0' <= s[i] && s[i] <= '9' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

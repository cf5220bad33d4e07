package aggregate

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"slices"

	"golang.org/x/crypto/blake2b"

	"github.com/opal-lang/vv8log/core/types"
)

// NameKind classifies where a script came from
type NameKind int

const (
	// NameEmpty means the script is injected or engine-internal.
	NameEmpty NameKind = iota
	// NameURL means the script was loaded from a URL.
	NameURL
	// NameEval means the script was created by eval in a parent script.
	NameEval
)

// ScriptName is the resolved name field of a script provenance record.
type ScriptName struct {
	Kind     NameKind
	URL      string // NameURL only
	ParentID int32  // NameEval only
}

// String returns the URL, the eval parent or "<empty>"
func (n ScriptName) String() string {
	switch n.Kind {
	case NameURL:
		return n.URL
	case NameEval:
		return fmt.Sprintf("eval@%d", n.ParentID)
	default:
		return "<empty>"
	}
}

// resolveScriptName maps "" to NameEmpty, other strings to NameURL and
// integers to NameEval.
func resolveScriptName(v types.Value) (ScriptName, error) {
	switch name := v.(type) {
	case types.String:
		if name == "" {
			return ScriptName{Kind: NameEmpty}, nil
		}
		return ScriptName{Kind: NameURL, URL: string(name)}, nil
	case types.Int:
		return ScriptName{Kind: NameEval, ParentID: int32(name)}, nil
	default:
		return ScriptName{}, fmt.Errorf("%w: %s %s", ErrUnexpectedScriptName, v.Kind(), v)
	}
}

// InjectionType classifies how a script entered the page
type InjectionType int

const (
	// NotInjected scripts were loaded by the page itself.
	NotInjected InjectionType = iota
	// Injected scripts were inserted by tooling.
	Injected
	// Interaction scripts were inserted to simulate user interaction.
	Interaction
)

// String returns a string representation of the InjectionType
func (t InjectionType) String() string {
	switch t {
	case NotInjected:
		return "not"
	case Injected:
		return "injected"
	case Interaction:
		return "interaction"
	default:
		return "unknown"
	}
}

// MarshalText encodes the injection type by name
func (t InjectionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a name written by MarshalText
func (t *InjectionType) UnmarshalText(text []byte) error {
	for _, candidate := range []InjectionType{NotInjected, Injected, Interaction} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown injection type %q", text)
}

// APIKind is the kind of access an APICall groups
type APIKind int

const (
	APIFunction APIKind = iota
	APIConstruction
	APIGet
	APISet
)

// String returns a string representation of the APIKind
func (k APIKind) String() string {
	switch k {
	case APIFunction:
		return "Function"
	case APIConstruction:
		return "Construction"
	case APIGet:
		return "Get"
	case APISet:
		return "Set"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the API kind by name
func (k APIKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a name written by MarshalText
func (k *APIKind) UnmarshalText(text []byte) error {
	for _, candidate := range []APIKind{APIFunction, APIConstruction, APIGet, APISet} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown API kind %q", text)
}

// APICall groups repeated accesses to one named capability regardless of
// arguments. It is comparable and used as a map key.
type APICall struct {
	Kind APIKind
	// Receiver is the `this` name, e.g. Window. For constructions it is
	// the constructed name.
	Receiver string
	// Attribute is the method or property name; constructions have none.
	Attribute    string
	HasAttribute bool
}

// String formats the call as Kind Receiver.Attribute
func (c APICall) String() string {
	if !c.HasAttribute {
		return fmt.Sprintf("%s %s", c.Kind, c.Receiver)
	}
	return fmt.Sprintf("%s %s.%s", c.Kind, c.Receiver, c.Attribute)
}

func compareCalls(a, b APICall) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Receiver, b.Receiver),
		cmp.Compare(a.Attribute, b.Attribute),
	)
}

// CallLines records where one APICall happened.
type CallLines struct {
	// Lines are strictly increasing line indexes.
	Lines []uint32
	// InteractionBoundary is the index into Lines of the first occurrence
	// recorded after interaction started. Once set it never changes.
	InteractionBoundary *int
}

// Total is the number of recorded occurrences
func (c *CallLines) Total() int {
	return len(c.Lines)
}

// AfterInteraction is the number of occurrences at or after the boundary
func (c *CallLines) AfterInteraction() int {
	if c.InteractionBoundary == nil {
		return 0
	}
	return len(c.Lines) - *c.InteractionBoundary
}

// Script aggregates the activity of one script ID.
type Script struct {
	// Line is the line index of the script's provenance record.
	Line      uint32
	Name      ScriptName
	Source    string
	Injection InjectionType
	Calls     map[APICall]*CallLines
	// Filtered counts calls seen but excluded from Calls.
	Filtered int
}

// CallEntry is one APICall with its lines, for ordered iteration.
type CallEntry struct {
	Call  APICall
	Lines *CallLines
}

// SortedCalls returns the script's calls ordered by kind, receiver and
// attribute.
func (s *Script) SortedCalls() []CallEntry {
	entries := make([]CallEntry, 0, len(s.Calls))
	for call, lines := range s.Calls {
		entries = append(entries, CallEntry{Call: call, Lines: lines})
	}
	slices.SortFunc(entries, func(a, b CallEntry) int {
		return compareCalls(a.Call, b.Call)
	})
	return entries
}

// SourceHash is the hex BLAKE2b-256 digest of the script source. The same
// script loaded in different logs or under different IDs shares a hash.
func (s *Script) SourceHash() string {
	sum := blake2b.Sum256([]byte(s.Source))
	return hex.EncodeToString(sum[:])
}

// Recorded is the number of call occurrences kept in Calls
func (s *Script) Recorded() int {
	n := 0
	for _, lines := range s.Calls {
		n += lines.Total()
	}
	return n
}

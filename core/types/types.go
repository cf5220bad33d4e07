package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the variant of an engine Value
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindRegExp
	KindBoolean
	KindNull
	KindUndefined
	KindEngineInternal
	KindFunction
	KindAnonymousFunction
	KindObject
	KindObjectUnknown
	KindObjectLiteral
	KindUncertain
)

var valueKindNames = [...]string{
	KindString:            "string",
	KindInt:               "int",
	KindFloat:             "float",
	KindRegExp:            "regexp",
	KindBoolean:           "boolean",
	KindNull:              "null",
	KindUndefined:         "undefined",
	KindEngineInternal:    "engine-internal",
	KindFunction:          "function",
	KindAnonymousFunction: "anonymous-function",
	KindObject:            "object",
	KindObjectUnknown:     "object-unknown",
	KindObjectLiteral:     "object-literal",
	KindUncertain:         "uncertain",
}

// String returns a string representation of the ValueKind
func (k ValueKind) String() string {
	if k >= 0 && int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "unknown"
}

// Value is a JavaScript or V8 value as written by the instrumented engine.
// Strings are ASCII with unprintable characters escaped as \xNN and
// Unicode characters as \uNNNN; the escapes are kept verbatim.
//
// The set of implementations is closed: String, Int, Float, RegExp,
// Boolean, Null, Undefined, EngineInternal, Function, AnonymousFunction,
// Object, ObjectUnknown, ObjectLiteral and Uncertain.
type Value interface {
	Kind() ValueKind
	String() string
	isValue()
}

// String is a quoted string value with delimiter escapes removed.
type String string

// Int is an integer value.
type Int int64

// Float is a non-integer numeric value.
type Float float64

// RegExp is the source of a regular expression literal.
type RegExp string

// Boolean is true or false.
type Boolean bool

// Null is JavaScript null.
type Null struct{}

// Undefined is JavaScript undefined.
type Undefined struct{}

// EngineInternal is a V8 oddball that leaks into the log.
type EngineInternal struct{}

// Function references a named function.
type Function struct {
	Name string
	// UserDefined is false for engine builtins (logged with a % prefix).
	UserDefined bool
}

// AnonymousFunction is a function without a name.
type AnonymousFunction struct{}

// Object is an object reference with the name of its constructor.
type Object struct {
	Index       int32
	Constructor string
}

// ObjectUnknown is an object reference whose constructor was not logged.
// Index is -1 when the object token could not be decoded.
type ObjectUnknown struct {
	Index int32
}

// Pair is one key/value entry of an ObjectLiteral.
type Pair struct {
	Key   string
	Value string
}

// ObjectLiteral is a plain object logged with its own properties.
type ObjectLiteral struct {
	Index int32
	Pairs []Pair
}

// Uncertain is a value the logging code was unsure about.
type Uncertain struct{}

func (String) Kind() ValueKind            { return KindString }
func (Int) Kind() ValueKind               { return KindInt }
func (Float) Kind() ValueKind             { return KindFloat }
func (RegExp) Kind() ValueKind            { return KindRegExp }
func (Boolean) Kind() ValueKind           { return KindBoolean }
func (Null) Kind() ValueKind              { return KindNull }
func (Undefined) Kind() ValueKind         { return KindUndefined }
func (EngineInternal) Kind() ValueKind    { return KindEngineInternal }
func (Function) Kind() ValueKind          { return KindFunction }
func (AnonymousFunction) Kind() ValueKind { return KindAnonymousFunction }
func (Object) Kind() ValueKind            { return KindObject }
func (ObjectUnknown) Kind() ValueKind     { return KindObjectUnknown }
func (ObjectLiteral) Kind() ValueKind     { return KindObjectLiteral }
func (Uncertain) Kind() ValueKind         { return KindUncertain }

func (String) isValue()            {}
func (Int) isValue()               {}
func (Float) isValue()             {}
func (RegExp) isValue()            {}
func (Boolean) isValue()           {}
func (Null) isValue()              {}
func (Undefined) isValue()         {}
func (EngineInternal) isValue()    {}
func (Function) isValue()          {}
func (AnonymousFunction) isValue() {}
func (Object) isValue()            {}
func (ObjectUnknown) isValue()     {}
func (ObjectLiteral) isValue()     {}
func (Uncertain) isValue()         {}

func (v String) String() string { return strconv.Quote(string(v)) }
func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v RegExp) String() string { return "/" + string(v) + "/" }
func (v Boolean) String() string {
	if v {
		return "true"
	}
	return "false"
}
func (Null) String() string              { return "null" }
func (Undefined) String() string         { return "undefined" }
func (EngineInternal) String() string    { return "<engine-internal>" }
func (AnonymousFunction) String() string { return "<anonymous>" }
func (Uncertain) String() string         { return "?" }

func (v Function) String() string {
	if v.UserDefined {
		return v.Name
	}
	return "%" + v.Name
}

func (v Object) String() string        { return fmt.Sprintf("{%d,%s}", v.Index, v.Constructor) }
func (v ObjectUnknown) String() string { return fmt.Sprintf("{%d}", v.Index) }

func (v ObjectLiteral) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{%d", v.Index)
	for _, p := range v.Pairs {
		b.WriteByte(',')
		b.WriteString(p.Key)
		b.WriteByte(':')
		b.WriteString(p.Value)
	}
	b.WriteByte('}')
	return b.String()
}

package types

import "math"

// Record tags: the first character of every log line.
const (
	TagIsolateContext   byte = '~'
	TagWindowOrigin     byte = '@'
	TagScriptProvenance byte = '$'
	TagExecutionContext byte = '!'
	TagFunctionCall     byte = 'c'
	TagConstructionCall byte = 'n'
	TagGetProperty      byte = 'g'
	TagSetProperty      byte = 's'
)

// UnsureScriptID is the execution-context script ID logged as `?`.
const UnsureScriptID int32 = math.MinInt32

// Record is one decoded log line. The set of implementations is closed:
// IsolateContext, WindowOrigin, ScriptProvenance, ExecutionContext,
// FunctionCall, ConstructionCall, GetProperty and SetProperty.
type Record interface {
	Tag() byte
	isRecord()
}

// IsolateContext (`~`) possibly starts a new isolate, the namespace for
// script IDs.
type IsolateContext struct {
	// Address is unique per process, e.g. 0x2a3800370000.
	Address uint64
}

// WindowOrigin (`@`) possibly changes window.origin of the current isolate.
type WindowOrigin struct {
	// Value is a String, or Uncertain when the origin was unavailable.
	Value Value
}

// ScriptProvenance (`$`) registers a script.
type ScriptProvenance struct {
	ID int32
	// Name is an empty String for injected or internal scripts, a URL
	// String, or the parent script's Int ID for scripts created by eval.
	Name Value
	// Source is the full script source with delimiter escapes removed.
	Source string
}

// ExecutionContext (`!`) sets the active script for subsequent records.
type ExecutionContext struct {
	// ScriptID is UnsureScriptID when logged as `?`.
	ScriptID int32
}

// FunctionCall (`c`) is a call such as foo.bar(1, 2).
type FunctionCall struct {
	// Offset is the character offset within the script, -1 when unknown.
	Offset      int32
	Method      string
	UserDefined bool
	// Receiver is the `this` value, e.g. {729551,Window}.
	Receiver  Value
	Arguments []Value
}

// ConstructionCall (`n`) is a construction such as new Foo(1, 2).
type ConstructionCall struct {
	Offset      int32
	Method      string
	UserDefined bool
	Arguments   []Value
}

// GetProperty (`g`) reads a property, e.g. foo.bar.
type GetProperty struct {
	Offset   int32
	Object   Value
	Property Value
}

// SetProperty (`s`) writes a property, e.g. foo.bar = baz.
type SetProperty struct {
	Offset   int32
	Object   Value
	Property Value
	Value    Value
}

func (IsolateContext) Tag() byte   { return TagIsolateContext }
func (WindowOrigin) Tag() byte     { return TagWindowOrigin }
func (ScriptProvenance) Tag() byte { return TagScriptProvenance }
func (ExecutionContext) Tag() byte { return TagExecutionContext }
func (FunctionCall) Tag() byte     { return TagFunctionCall }
func (ConstructionCall) Tag() byte { return TagConstructionCall }
func (GetProperty) Tag() byte      { return TagGetProperty }
func (SetProperty) Tag() byte      { return TagSetProperty }

func (IsolateContext) isRecord()   {}
func (WindowOrigin) isRecord()     {}
func (ScriptProvenance) isRecord() {}
func (ExecutionContext) isRecord() {}
func (FunctionCall) isRecord()     {}
func (ConstructionCall) isRecord() {}
func (GetProperty) isRecord()      {}
func (SetProperty) isRecord()      {}

// TagName returns a readable name for a record tag.
func TagName(tag byte) string {
	switch tag {
	case TagIsolateContext:
		return "isolate-context"
	case TagWindowOrigin:
		return "window-origin"
	case TagScriptProvenance:
		return "script-provenance"
	case TagExecutionContext:
		return "execution-context"
	case TagFunctionCall:
		return "function-call"
	case TagConstructionCall:
		return "construction-call"
	case TagGetProperty:
		return "get-property"
	case TagSetProperty:
		return "set-property"
	default:
		return "unknown"
	}
}

// Entry pairs a record with the zero-based index of the line it came from.
type Entry struct {
	Line   uint32
	Record Record
}

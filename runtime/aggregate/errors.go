package aggregate

import "fmt"

// ErrorCode identifies which aggregation invariant a record violated.
// Codes compare with errors.Is; details are wrapped around them.
type ErrorCode int

const (
	ErrDuplicateScript ErrorCode = iota
	ErrUnexpectedScriptName
	ErrUnknownParentScript
	ErrUnknownScript
	ErrNoCurrentScript
	ErrUnexpectedObject
	ErrUnexpectedProperty
	ErrLineOutOfOrder
)

// Error returns the message for the code
func (c ErrorCode) Error() string {
	switch c {
	case ErrDuplicateScript:
		return "script ID already registered"
	case ErrUnexpectedScriptName:
		return "unexpected script name"
	case ErrUnknownParentScript:
		return "unknown parent script ID"
	case ErrUnknownScript:
		return "unknown execution context script ID"
	case ErrNoCurrentScript:
		return "no current script"
	case ErrUnexpectedObject:
		return "unexpected property owner"
	case ErrUnexpectedProperty:
		return "unexpected property name"
	case ErrLineOutOfOrder:
		return "line out of order"
	default:
		return fmt.Sprintf("aggregate error %d", int(c))
	}
}

// Failure is a record the aggregate rejected; it had no effect.
type Failure struct {
	Line uint32
	Err  error
}

// Error formats the failure with its one-based line number
func (f Failure) Error() string {
	return fmt.Sprintf("line %d: %v", f.Line+1, f.Err)
}

// Unwrap exposes the underlying error
func (f Failure) Unwrap() error {
	return f.Err
}

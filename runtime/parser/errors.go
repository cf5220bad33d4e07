package parser

import "fmt"

// ErrorCode identifies exactly which field expectation a line violated.
// Codes are errors themselves and compare with errors.Is.
type ErrorCode int

const (
	ErrEmptyLine ErrorCode = iota
	ErrUnknownRecordType
	ErrRead

	// `~`
	ErrNoIsolateAddress
	ErrInvalidIsolateAddress
	ErrInvalidHexNumber

	// `@`
	ErrNoValue

	// `$`
	ErrNoScriptID
	ErrInvalidScriptID
	ErrNoScriptName

	// `!`
	ErrNoExecutionContextScriptID
	ErrInvalidExecutionContextScriptID

	// `c`
	ErrNoFunctionCallOffset
	ErrInvalidFunctionCallOffset
	ErrNoFunctionCallMethod
	ErrNoFunctionCallReceiver

	// `n`
	ErrNoConstructionCallOffset
	ErrInvalidConstructionCallOffset
	ErrNoConstructionCallMethod

	// `g`
	ErrNoGetPropertyOffset
	ErrInvalidGetPropertyOffset
	ErrNoGetPropertyObject
	ErrNoGetPropertyProperty

	// `s`
	ErrNoSetPropertyOffset
	ErrInvalidSetPropertyOffset
	ErrNoSetPropertyObject
	ErrNoSetPropertyProperty
	ErrNoSetPropertyValue
)

var errorMessages = [...]string{
	ErrEmptyLine:                       "empty line",
	ErrUnknownRecordType:               "unknown log record type",
	ErrRead:                            "reading line",
	ErrNoIsolateAddress:                "`~` not followed by isolate address",
	ErrInvalidIsolateAddress:           "`~` isolate address not a hex",
	ErrInvalidHexNumber:                "`~` isolate address not a valid hex number",
	ErrNoValue:                         "`@` not followed by value",
	ErrNoScriptID:                      "`$` not followed by script ID",
	ErrInvalidScriptID:                 "`$` script ID not number",
	ErrNoScriptName:                    "`$` not followed by script name",
	ErrNoExecutionContextScriptID:      "`!` not followed by script ID",
	ErrInvalidExecutionContextScriptID: "`!` script ID not number",
	ErrNoFunctionCallOffset:            "`c` not followed by offset",
	ErrInvalidFunctionCallOffset:       "`c` offset not number",
	ErrNoFunctionCallMethod:            "`c` not followed by method",
	ErrNoFunctionCallReceiver:          "`c` not followed by receiver",
	ErrNoConstructionCallOffset:        "`n` not followed by offset",
	ErrInvalidConstructionCallOffset:   "`n` offset not number",
	ErrNoConstructionCallMethod:        "`n` not followed by method",
	ErrNoGetPropertyOffset:             "`g` not followed by offset",
	ErrInvalidGetPropertyOffset:        "`g` offset not number",
	ErrNoGetPropertyObject:             "`g` not followed by object",
	ErrNoGetPropertyProperty:           "`g` not followed by property",
	ErrNoSetPropertyOffset:             "`s` not followed by offset",
	ErrInvalidSetPropertyOffset:        "`s` offset not number",
	ErrNoSetPropertyObject:             "`s` not followed by object",
	ErrNoSetPropertyProperty:           "`s` not followed by property",
	ErrNoSetPropertyValue:              "`s` not followed by value",
}

// Error returns the message for the code
func (c ErrorCode) Error() string {
	if c >= 0 && int(c) < len(errorMessages) {
		return errorMessages[c]
	}
	return fmt.Sprintf("parser error %d", int(c))
}

// Failure is a line that could not be decoded.
type Failure struct {
	// Line is the zero-based index of the line in its input.
	Line uint32
	// Text is the raw line, or the read error text for ErrRead.
	Text string
	Err  error
}

// Error formats the failure with its one-based line number
func (f Failure) Error() string {
	return fmt.Sprintf("line %d: %v", f.Line+1, f.Err)
}

// Unwrap exposes the underlying error code
func (f Failure) Unwrap() error {
	return f.Err
}

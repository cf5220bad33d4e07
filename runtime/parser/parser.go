package parser

import (
	"strconv"
	"strings"

	"github.com/opal-lang/vv8log/core/types"
	"github.com/opal-lang/vv8log/runtime/decoder"
	"github.com/opal-lang/vv8log/runtime/lexer"
)

// unsureToken is the `!` script ID meaning the engine was unsure.
const unsureToken = "?"

// ParseLine decodes one log line into a record.
//
// Fields are consumed strictly left to right and the first missing or
// malformed field fails the whole line; no partial record is returned.
func ParseLine(line string) (types.Record, error) {
	if line == "" {
		return nil, ErrEmptyLine
	}

	fields := lexer.Fields(line[1:])
	switch line[0] {
	case types.TagIsolateContext:
		return parseIsolateContext(fields)
	case types.TagWindowOrigin:
		return parseWindowOrigin(fields)
	case types.TagScriptProvenance:
		return parseScriptProvenance(fields)
	case types.TagExecutionContext:
		return parseExecutionContext(fields)
	case types.TagFunctionCall:
		return parseFunctionCall(fields)
	case types.TagConstructionCall:
		return parseConstructionCall(fields)
	case types.TagGetProperty:
		return parseGetProperty(fields)
	case types.TagSetProperty:
		return parseSetProperty(fields)
	default:
		return nil, ErrUnknownRecordType
	}
}

func parseIsolateContext(fields *lexer.Splitter) (types.Record, error) {
	token, ok := fields.Next()
	if !ok {
		return nil, ErrNoIsolateAddress
	}
	hex, ok := strings.CutPrefix(token, "0x")
	if !ok {
		return nil, ErrInvalidIsolateAddress
	}
	address, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return nil, ErrInvalidHexNumber
	}
	return types.IsolateContext{Address: address}, nil
}

func parseWindowOrigin(fields *lexer.Splitter) (types.Record, error) {
	token, ok := fields.Next()
	if !ok {
		return nil, ErrNoValue
	}
	return types.WindowOrigin{Value: decoder.Decode(token)}, nil
}

func parseScriptProvenance(fields *lexer.Splitter) (types.Record, error) {
	id, err := nextInt32(fields, ErrNoScriptID, ErrInvalidScriptID)
	if err != nil {
		return nil, err
	}
	name, ok := fields.Next()
	if !ok {
		return nil, ErrNoScriptName
	}
	return types.ScriptProvenance{
		ID:     id,
		Name:   decoder.Decode(name),
		Source: lexer.Unescape(fields.Drain()),
	}, nil
}

func parseExecutionContext(fields *lexer.Splitter) (types.Record, error) {
	token, ok := fields.Next()
	if !ok {
		return nil, ErrNoExecutionContextScriptID
	}
	if token == unsureToken {
		return types.ExecutionContext{ScriptID: types.UnsureScriptID}, nil
	}
	id, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return nil, ErrInvalidExecutionContextScriptID
	}
	return types.ExecutionContext{ScriptID: int32(id)}, nil
}

func parseFunctionCall(fields *lexer.Splitter) (types.Record, error) {
	offset, err := nextInt32(fields, ErrNoFunctionCallOffset, ErrInvalidFunctionCallOffset)
	if err != nil {
		return nil, err
	}
	token, ok := fields.Next()
	if !ok {
		return nil, ErrNoFunctionCallMethod
	}
	method, userDefined := splitMethod(token)
	receiver, ok := fields.Next()
	if !ok {
		return nil, ErrNoFunctionCallReceiver
	}
	return types.FunctionCall{
		Offset:      offset,
		Method:      method,
		UserDefined: userDefined,
		Receiver:    decoder.Decode(receiver),
		Arguments:   remainingValues(fields),
	}, nil
}

func parseConstructionCall(fields *lexer.Splitter) (types.Record, error) {
	offset, err := nextInt32(fields, ErrNoConstructionCallOffset, ErrInvalidConstructionCallOffset)
	if err != nil {
		return nil, err
	}
	token, ok := fields.Next()
	if !ok {
		return nil, ErrNoConstructionCallMethod
	}
	method, userDefined := splitMethod(token)
	return types.ConstructionCall{
		Offset:      offset,
		Method:      method,
		UserDefined: userDefined,
		Arguments:   remainingValues(fields),
	}, nil
}

func parseGetProperty(fields *lexer.Splitter) (types.Record, error) {
	offset, err := nextInt32(fields, ErrNoGetPropertyOffset, ErrInvalidGetPropertyOffset)
	if err != nil {
		return nil, err
	}
	object, ok := fields.Next()
	if !ok {
		return nil, ErrNoGetPropertyObject
	}
	property, ok := fields.Next()
	if !ok {
		return nil, ErrNoGetPropertyProperty
	}
	return types.GetProperty{
		Offset:   offset,
		Object:   decoder.Decode(object),
		Property: decoder.Decode(property),
	}, nil
}

func parseSetProperty(fields *lexer.Splitter) (types.Record, error) {
	offset, err := nextInt32(fields, ErrNoSetPropertyOffset, ErrInvalidSetPropertyOffset)
	if err != nil {
		return nil, err
	}
	object, ok := fields.Next()
	if !ok {
		return nil, ErrNoSetPropertyObject
	}
	property, ok := fields.Next()
	if !ok {
		return nil, ErrNoSetPropertyProperty
	}
	value, ok := fields.Next()
	if !ok {
		return nil, ErrNoSetPropertyValue
	}
	return types.SetProperty{
		Offset:   offset,
		Object:   decoder.Decode(object),
		Property: decoder.Decode(property),
		Value:    decoder.Decode(value),
	}, nil
}

func nextInt32(fields *lexer.Splitter, missing, malformed ErrorCode) (int32, error) {
	token, ok := fields.Next()
	if !ok {
		return 0, missing
	}
	n, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, malformed
	}
	return int32(n), nil
}

// splitMethod strips the builtin marker `%`; methods without it are
// user-defined.
func splitMethod(token string) (string, bool) {
	if method, ok := strings.CutPrefix(token, "%"); ok {
		return method, false
	}
	return token, true
}

func remainingValues(fields *lexer.Splitter) []types.Value {
	var values []types.Value
	for token := range fields.All() {
		values = append(values, decoder.Decode(token))
	}
	return values
}

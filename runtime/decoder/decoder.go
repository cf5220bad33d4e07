// Package decoder converts single log tokens into engine values.
//
// Recognition order matters because the grammar is ambiguous without it:
// sentinels first, then quoted strings, regular expressions, object forms,
// integers, floats, builtin functions (`%name`) and finally user functions.
package decoder

import (
	"errors"
	"strconv"
	"strings"

	"github.com/opal-lang/vv8log/core/types"
	"github.com/opal-lang/vv8log/runtime/lexer"
)

var sentinels = map[string]types.Value{
	"#F":          types.Boolean(false),
	"#T":          types.Boolean(true),
	"#N":          types.Null{},
	"#U":          types.Undefined{},
	"#?":          types.EngineInternal{},
	"<anonymous>": types.AnonymousFunction{},
	"?":           types.Uncertain{},
}

// UnknownObjectIndex is the index given to object tokens whose interior
// could not be decoded.
const UnknownObjectIndex int32 = -1

// Decode converts one raw token into exactly one Value. It never fails.
func Decode(token string) types.Value {
	if v, ok := sentinels[token]; ok {
		return v
	}

	if wrapped(token, '"', '"') {
		return types.String(lexer.Unescape(token[1 : len(token)-1]))
	}
	if wrapped(token, '/', '/') {
		return types.RegExp(lexer.Unescape(token[1 : len(token)-1]))
	}
	if wrapped(token, '{', '}') {
		if v, ok := decodeObject(token[1 : len(token)-1]); ok {
			return v
		}
		return types.ObjectUnknown{Index: UnknownObjectIndex}
	}

	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return types.Int(n)
	}
	if f, ok := parseFloat(token); ok {
		return types.Float(f)
	}

	if name, ok := strings.CutPrefix(token, "%"); ok {
		return types.Function{Name: lexer.Unescape(name), UserDefined: false}
	}
	return types.Function{Name: lexer.Unescape(token), UserDefined: true}
}

// DecodeAll decodes each token in order.
func DecodeAll(tokens []string) []types.Value {
	if len(tokens) == 0 {
		return nil
	}
	values := make([]types.Value, len(tokens))
	for i, token := range tokens {
		values[i] = Decode(token)
	}
	return values
}

func wrapped(token string, open, close byte) bool {
	return len(token) >= 2 && token[0] == open && token[len(token)-1] == close
}

// decodeObject decodes the interior of {index}, {index,constructor} or
// {index,key0\:val0,key1\:val1,...}.
func decodeObject(interior string) (types.Value, bool) {
	fields := lexer.SplitAll(interior, lexer.ObjectDelimiter)

	index, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return nil, false
	}

	switch len(fields) {
	case 1:
		return types.ObjectUnknown{Index: int32(index)}, true
	case 2:
		return types.Object{Index: int32(index), Constructor: lexer.Unescape(fields[1])}, true
	}

	pairs := make([]types.Pair, 0, len(fields)-1)
	for _, field := range fields[1:] {
		key, value, ok := lexer.SplitPair(field)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, types.Pair{Key: lexer.Unescape(key), Value: lexer.Unescape(value)})
	}
	return types.ObjectLiteral{Index: int32(index), Pairs: pairs}, true
}

// parseFloat accepts decimal floats, exponents, infinities and NaN. Hex
// floats and digit separators are not part of the log grammar.
func parseFloat(token string) (float64, bool) {
	if strings.ContainsAny(token, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out of range literals keep the ±Inf ParseFloat returns.
	return f, true
}

package types

import "testing"

func TestValueString(t *testing.T) {
	tests := []struct {
		value    Value
		kind     ValueKind
		expected string
	}{
		{String("a\"b"), KindString, `"a\"b"`},
		{Int(-3), KindInt, "-3"},
		{Float(1.5), KindFloat, "1.5"},
		{RegExp("a+"), KindRegExp, "/a+/"},
		{Boolean(true), KindBoolean, "true"},
		{Null{}, KindNull, "null"},
		{Undefined{}, KindUndefined, "undefined"},
		{EngineInternal{}, KindEngineInternal, "<engine-internal>"},
		{Function{Name: "atob"}, KindFunction, "%atob"},
		{Function{Name: "handler", UserDefined: true}, KindFunction, "handler"},
		{AnonymousFunction{}, KindAnonymousFunction, "<anonymous>"},
		{Object{Index: 7, Constructor: "Window"}, KindObject, "{7,Window}"},
		{ObjectUnknown{Index: -1}, KindObjectUnknown, "{-1}"},
		{ObjectLiteral{Index: 2, Pairs: []Pair{{"a", "1"}, {"b", "2"}}}, KindObjectLiteral, "{2,a:1,b:2}"},
		{Uncertain{}, KindUncertain, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.value.Kind(); got != tt.kind {
				t.Errorf("Kind() = %v, want %v", got, tt.kind)
			}
			if got := tt.value.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKindNames(t *testing.T) {
	for k := KindString; k <= KindUncertain; k++ {
		if k.String() == "unknown" {
			t.Errorf("kind %d has no name", int(k))
		}
	}
	if ValueKind(99).String() != "unknown" {
		t.Error("out of range kind should be unknown")
	}
}

func TestRecordTags(t *testing.T) {
	records := map[byte]Record{
		TagIsolateContext:   IsolateContext{},
		TagWindowOrigin:     WindowOrigin{},
		TagScriptProvenance: ScriptProvenance{},
		TagExecutionContext: ExecutionContext{},
		TagFunctionCall:     FunctionCall{},
		TagConstructionCall: ConstructionCall{},
		TagGetProperty:      GetProperty{},
		TagSetProperty:      SetProperty{},
	}
	for tag, record := range records {
		if record.Tag() != tag {
			t.Errorf("%T.Tag() = %q, want %q", record, record.Tag(), tag)
		}
		if TagName(tag) == "unknown" {
			t.Errorf("tag %q has no name", tag)
		}
	}
	if TagName('x') != "unknown" {
		t.Error("unknown tag should be named unknown")
	}
}

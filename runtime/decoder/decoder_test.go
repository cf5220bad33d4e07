package decoder

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opal-lang/vv8log/core/types"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected types.Value
	}{
		{"false", "#F", types.Boolean(false)},
		{"true", "#T", types.Boolean(true)},
		{"null", "#N", types.Null{}},
		{"undefined", "#U", types.Undefined{}},
		{"engine internal", "#?", types.EngineInternal{}},
		{"anonymous function", "<anonymous>", types.AnonymousFunction{}},
		{"uncertain", "?", types.Uncertain{}},

		{"string", `"cdp"`, types.String("cdp")},
		{"empty string", `""`, types.String("")},
		{"string with escaped delimiter", `"a\:b"`, types.String("a:b")},
		{"string with escaped escape", `"a\\b"`, types.String(`a\b`)},
		{"string keeps unicode escapes", `"\u00e9"`, types.String(`\u00e9`)},
		{"lone quote is a user function", `"`, types.Function{Name: `"`, UserDefined: true}},

		{"regexp", `/^a\:b$/`, types.RegExp("^a:b$")},
		{"lone slash is a user function", "/", types.Function{Name: "/", UserDefined: true}},

		{"object with constructor", "{729551,Window}", types.Object{Index: 729551, Constructor: "Window"}},
		{"object without constructor", "{42}", types.ObjectUnknown{Index: 42}},
		{"object with empty constructor", "{42,}", types.Object{Index: 42, Constructor: ""}},
		{
			name:  "object literal",
			token: `{663864,width\:100,height\:auto}`,
			expected: types.ObjectLiteral{Index: 663864, Pairs: []types.Pair{
				{Key: "width", Value: "100"},
				{Key: "height", Value: "auto"},
			}},
		},
		{
			name:  "object literal value containing escaped colon",
			token: `{1,url\:https\://a.b,x\:y}`,
			expected: types.ObjectLiteral{Index: 1, Pairs: []types.Pair{
				{Key: "url", Value: "https://a.b"},
				{Key: "x", Value: "y"},
			}},
		},
		{"empty object falls back", "{}", types.ObjectUnknown{Index: UnknownObjectIndex}},
		{"non-numeric index falls back", "{abc,Window}", types.ObjectUnknown{Index: UnknownObjectIndex}},
		{"literal pair without colon falls back", "{1,a,b}", types.ObjectUnknown{Index: UnknownObjectIndex}},
		{"index overflow falls back", "{4294967296,Window}", types.ObjectUnknown{Index: UnknownObjectIndex}},

		{"int", "27", types.Int(27)},
		{"negative int", "-1", types.Int(-1)},
		{"float", "3.5", types.Float(3.5)},
		{"exponent float", "1e3", types.Float(1000)},
		{"int overflow becomes float", "18446744073709551616", types.Float(18446744073709551616)},
		{"infinity", "Infinity", types.Float(math.Inf(1))},
		{"overflow float", "1e400", types.Float(math.Inf(1))},
		{"negative overflow float", "-1e400", types.Float(math.Inf(-1))},

		{"builtin function", "%atob", types.Function{Name: "atob", UserDefined: false}},
		{"builtin function with escape", `%get\:x`, types.Function{Name: "get:x", UserDefined: false}},
		{"user function", "myHandler", types.Function{Name: "myHandler", UserDefined: true}},
		{"hex is not a float", "0x1p-2", types.Function{Name: "0x1p-2", UserDefined: true}},
		{"empty token is a user function", "", types.Function{Name: "", UserDefined: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.token)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Decode(%q) mismatch (-want +got):\n%s", tt.token, diff)
			}
		})
	}
}

func TestDecodeNaN(t *testing.T) {
	got, ok := Decode("NaN").(types.Float)
	if !ok || !math.IsNaN(float64(got)) {
		t.Errorf("Decode(NaN) = %#v, want NaN float", Decode("NaN"))
	}
}

func TestDecodeAll(t *testing.T) {
	if got := DecodeAll(nil); got != nil {
		t.Errorf("DecodeAll(nil) = %#v, want nil", got)
	}
	got := DecodeAll([]string{"1", `"x"`, "#U"})
	want := []types.Value{types.Int(1), types.String("x"), types.Undefined{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkDecode(b *testing.B) {
	tokens := []string{
		"{729551,Window}",
		`"eyJtZXRob2QiOiJQYWdlLmZyYW1lU3RvcHBlZExvYWRpbmcifQ=="`,
		`{663864,width\:100,height\:auto}`,
		"%getSubscription",
		"143517",
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, token := range tokens {
			_ = Decode(token)
		}
	}
}

package settings

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

type stringerValue struct{ label string }

func (s stringerValue) String() string { return s.label }

func TestBooleanConverterDecode(t *testing.T) {
	conv := BooleanConverter{}
	cases := []struct {
		input any
		want  bool
	}{
		{true, true},
		{"true", true},
		{" TRUE ", true},
		{"yes", true},
		{"on", true},
		{"1", true},
		{1, true},
		{uint8(1), true},
		{[]byte("t"), true},
		{false, false},
		{"false", false},
		{"off", false},
		{"0", false},
		{0, false},
		{int64(0), false},
	}
	for _, tc := range cases {
		got, err := conv.Decode(tc.input)
		if err != nil {
			t.Fatalf("decode %#v: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("decode %#v: expected %v, got %v", tc.input, tc.want, got)
		}
		if !conv.Valid(tc.input) {
			t.Fatalf("expected %#v to be valid", tc.input)
		}
	}

	for _, input := range []any{"maybe", "", 2, -1, 1.0, nil, []string{"true"}} {
		_, err := conv.Decode(input)
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("decode %#v: expected ErrInvalidValue, got %v", input, err)
		}
		if conv.Valid(input) {
			t.Fatalf("expected %#v to be invalid", input)
		}
	}
}

func TestBooleanConverterEncode(t *testing.T) {
	conv := BooleanConverter{}
	for input, want := range map[any]string{true: "true", "yes": "true", 0: "false"} {
		got, err := conv.Encode(input)
		if err != nil {
			t.Fatalf("encode %#v: %v", input, err)
		}
		if got != want {
			t.Fatalf("encode %#v: expected %q, got %q", input, want, got)
		}
	}
	if _, err := conv.Encode("maybe"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestIntegerConverterDecode(t *testing.T) {
	conv := IntegerConverter{}
	cases := []struct {
		input any
		want  int
	}{
		{"42", 42},
		{" -7 ", -7},
		{"+3", 3},
		{42, 42},
		{int8(-5), -5},
		{uint16(9), 9},
		{float64(12), 12},
		{float32(-2), -2},
		{[]byte("100"), 100},
	}
	for _, tc := range cases {
		got, err := conv.Decode(tc.input)
		if err != nil {
			t.Fatalf("decode %#v: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("decode %#v: expected %d, got %#v", tc.input, tc.want, got)
		}
	}

	invalid := []any{"4.2", "abc", "", "0x10", "1e3", 4.2, math.NaN(), math.Inf(1), true, nil, uint64(math.MaxUint64)}
	for _, input := range invalid {
		if _, err := conv.Decode(input); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("decode %#v: expected ErrInvalidValue, got %v", input, err)
		}
		if conv.Valid(input) {
			t.Fatalf("expected %#v to be invalid", input)
		}
	}
}

func TestStringConverterCoercesScalars(t *testing.T) {
	conv := StringConverter{}
	cases := []struct {
		input any
		want  string
	}{
		{"plain", "plain"},
		{"", ""},
		{42, "42"},
		{true, "true"},
		{1.5, "1.5"},
		{[]byte("bytes"), "bytes"},
		{stringerValue{label: "custom"}, "custom"},
		{nil, ""},
	}
	for _, tc := range cases {
		got, err := conv.Decode(tc.input)
		if err != nil {
			t.Fatalf("decode %#v: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("decode %#v: expected %q, got %#v", tc.input, tc.want, got)
		}
	}

	for _, input := range []any{map[string]any{"a": 1}, []string{"a"}, struct{ A int }{1}} {
		if _, err := conv.Decode(input); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("decode %#v: expected ErrInvalidValue, got %v", input, err)
		}
	}
}

func TestPolymorphicConverterNormalisesValues(t *testing.T) {
	conv := PolymorphicConverter{}
	got, err := conv.Decode(map[string]int32{"a": 1})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"a": 1}) {
		t.Fatalf("expected normalised map, got %#v", got)
	}

	got, err = conv.Decode([]string{"x", "y"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, []any{"x", "y"}) {
		t.Fatalf("expected normalised list, got %#v", got)
	}

	if _, err := conv.Decode(map[int]string{1: "a"}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected non-string keys to be rejected, got %v", err)
	}
	if conv.Valid(math.Inf(-1)) {
		t.Fatalf("expected infinity to be invalid")
	}
	if conv.Valid(struct{}{}) {
		t.Fatalf("expected struct to be invalid")
	}
}

func TestPolymorphicConverterDecodesYAMLText(t *testing.T) {
	conv := PolymorphicConverter{}
	got, err := conv.Decode("theme: dark\ncolumns: [1, 2.5, \"3\"]\n")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"theme":   "dark",
		"columns": []any{1, 2.5, "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected decode:\nwant: %#v\n got: %#v", want, got)
	}

	if _, err := conv.Decode("key: [unterminated"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for malformed YAML, got %v", err)
	}
}

func TestPolymorphicConverterKeepsWholeFloats(t *testing.T) {
	conv := PolymorphicConverter{}
	raw, err := conv.Encode(map[string]any{"ratio": 2.0, "count": 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := conv.Decode(raw)
	if err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	decoded := got.(map[string]any)
	if _, ok := decoded["ratio"].(float64); !ok {
		t.Fatalf("expected ratio to stay float64, got %T in %q", decoded["ratio"], raw)
	}
	if _, ok := decoded["count"].(int); !ok {
		t.Fatalf("expected count to stay int, got %T in %q", decoded["count"], raw)
	}
}

func TestPolymorphicConverterQuotesStringsAndKeys(t *testing.T) {
	conv := PolymorphicConverter{}
	cases := []any{
		"\n",
		"trailing\n\n",
		" padded ",
		"true",
		"~",
		"- item",
		map[string]any{"k": "\n"},
		map[string]any{"": "\n"},
		map[string]any{"<<": "x"},
		map[string]any{"<<": map[string]any{"a": 1}},
		map[string]any{"null": nil, "1": 1},
		[]any{"#comment", "a: b"},
	}
	for _, value := range cases {
		if !conv.Valid(value) {
			t.Fatalf("expected %#v to be valid", value)
		}
		raw, err := conv.Encode(value)
		if err != nil {
			t.Fatalf("encode %#v: %v", value, err)
		}
		got, err := conv.Decode(raw)
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if !reflect.DeepEqual(value, got) {
			t.Fatalf("round trip mismatch via %q:\nwant: %#v\n got: %#v", raw, value, got)
		}
	}
}

func TestPolymorphicConverterRejectsInvalidUTF8(t *testing.T) {
	conv := PolymorphicConverter{}
	value := map[string]any{"k": "\xff"}
	if conv.Valid(value) {
		t.Fatalf("expected invalid UTF-8 to be rejected")
	}
	if _, err := conv.Encode(value); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLookupConverter(t *testing.T) {
	for _, name := range []string{"boolean", "Integer", " string ", "polymorphic", ""} {
		if _, err := LookupConverter(name); err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
	}
	conv, _ := LookupConverter("")
	if conv.Type() != TypePolymorphic {
		t.Fatalf("expected empty name to resolve polymorphic, got %s", conv.Type())
	}
	_, err := LookupConverter("decimal")
	if !errors.Is(err, ErrUnknownConverterType) {
		t.Fatalf("expected ErrUnknownConverterType, got %v", err)
	}
	if KindOf(err) != KindUnknownConverterType {
		t.Fatalf("expected kind %s, got %s", KindUnknownConverterType, KindOf(err))
	}
}

func TestConverterRoundTripLaws(t *testing.T) {
	t.Run("boolean", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			value := rapid.Bool().Draw(rt, "value")
			assertRoundTrip(rt, BooleanConverter{}, value)
		})
	})
	t.Run("integer", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			value := rapid.Int().Draw(rt, "value")
			assertRoundTrip(rt, IntegerConverter{}, value)
		})
	})
	t.Run("string", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			value := rapid.String().Draw(rt, "value")
			assertRoundTrip(rt, StringConverter{}, value)
		})
	})
	t.Run("polymorphic", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			value := polymorphicValue(2).Draw(rt, "value")
			assertRoundTrip(rt, PolymorphicConverter{}, value)
		})
	})
}

func assertRoundTrip(rt *rapid.T, conv Converter, value any) {
	if !conv.Valid(value) {
		rt.Fatalf("%s: expected %#v to be valid", conv.Type(), value)
	}
	raw, err := conv.Encode(value)
	if err != nil {
		rt.Fatalf("%s: encode %#v: %v", conv.Type(), value, err)
	}
	got, err := conv.Decode(raw)
	if err != nil {
		rt.Fatalf("%s: decode %q: %v", conv.Type(), raw, err)
	}
	if !reflect.DeepEqual(value, got) {
		rt.Fatalf("%s: round trip mismatch via %q:\nwant: %#v\n got: %#v", conv.Type(), raw, value, got)
	}
}

func polymorphicValue(depth int) *rapid.Generator[any] {
	return rapid.Custom(func(rt *rapid.T) any {
		limit := 6
		if depth <= 0 {
			limit = 4
		}
		switch kind := rapid.IntRange(0, limit).Draw(rt, "kind"); kind {
		case 0:
			return nil
		case 1:
			return rapid.Bool().Draw(rt, "bool")
		case 2:
			return rapid.Int().Draw(rt, "int")
		case 3:
			return rapid.Float64Range(-1e9, 1e9).Draw(rt, "float")
		case 4:
			return rapid.String().Draw(rt, "string")
		case 5:
			return rapid.SliceOfN(polymorphicValue(depth-1), 1, 3).Draw(rt, "list")
		default:
			return rapid.MapOfN(rapid.String(), polymorphicValue(depth-1), 1, 3).Draw(rt, "map")
		}
	})
}

func ExampleIntegerConverter() {
	value, err := IntegerConverter{}.Decode("42")
	fmt.Println(value, err)
	_, err = IntegerConverter{}.Decode("4.2")
	fmt.Println(err != nil)
	// Output:
	// 42 <nil>
	// true
}

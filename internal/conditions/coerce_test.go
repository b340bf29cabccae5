package conditions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"int", 42, 42},
		{"float", 1.5, 1.5},
		{"true", true, 1},
		{"false", false, 0},
		{"numeric string", " 18 ", 18},
		{"empty string", "", 0},
		{"hex string", "0x1F", 31},
		{"infinity", "Infinity", math.Inf(1)},
		{"empty array", []any{}, 0},
		{"single element array", []any{"7"}, 7},
		{"uint8", uint8(3), 3},
		{"null", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToNumber(tt.in))
		})
	}

	for _, in := range []any{"abc", "NaN", "1_000", map[string]any{}, []any{1, 2}} {
		assert.True(t, math.IsNaN(ToNumber(in)), "expected NaN for %#v", in)
	}
}

func TestRelational(t *testing.T) {
	tests := []struct {
		op   string
		a, b any
		want bool
	}{
		{">", 20, 18, true},
		{"<", "10", 9, false},
		{"<", "10", "9", true},
		{">=", "abc", 1, false},
		{"<", nil, 5, true},
		{">", nil, 5, false},
		{"<=", true, 1, true},
		{"<", math.NaN(), 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Relational(tt.op, tt.a, tt.b), "%v %s %v", tt.a, tt.op, tt.b)
	}
}

func TestToString(t *testing.T) {
	assert.Equal(t, "null", ToString(nil))
	assert.Equal(t, "3", ToString(3.0))
	assert.Equal(t, "0.25", ToString(0.25))
	assert.Equal(t, "1,,b", ToString([]any{1, nil, "b"}))
	assert.Equal(t, "[object Object]", ToString(map[string]any{"a": 1}))
	assert.Equal(t, "true", ToString(true))
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{1, 1.0, true},
		{"1", 1, true},
		{1, "1.0", true},
		{true, 1, true},
		{false, "", true},
		{"0", false, true},
		{nil, nil, true},
		{nil, 0, false},
		{nil, "", false},
		{[]any{1, 2}, "1,2", true},
		{[]any{1}, 1, true},
		{map[string]any{}, "[object Object]", true},
		{[]any{1}, []any{1}, false},
		{"a", "b", false},
		{math.NaN(), math.NaN(), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooseEqual(tt.a, tt.b), "%#v == %#v", tt.a, tt.b)
		assert.Equal(t, tt.want, LooseEqual(tt.b, tt.a), "%#v == %#v", tt.b, tt.a)
	}
}

func TestStrictEqual(t *testing.T) {
	assert.True(t, StrictEqual(int64(2), 2.0))
	assert.False(t, StrictEqual("2", 2))
	assert.False(t, StrictEqual(true, 1))
	assert.True(t, StrictEqual([]any{1, "a"}, []any{1, "a"}))
	assert.True(t, StrictEqual(nil, nil))
	assert.False(t, StrictEqual(math.NaN(), math.NaN()))
	assert.True(t, SameValue(math.NaN(), math.NaN()))
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []any{nil, "", []any{}, map[string]any{}, []string{}} {
		assert.True(t, IsEmpty(v), "%#v", v)
	}
	for _, v := range []any{0, false, " ", []any{nil}, map[string]any{"a": nil}} {
		assert.False(t, IsEmpty(v), "%#v", v)
	}
}

func TestContainsAndAffixes(t *testing.T) {
	assert.True(t, Contains([]any{"a", "b"}, "b"))
	assert.False(t, Contains([]any{"1"}, 1))
	assert.True(t, Contains([]any{math.NaN()}, math.NaN()))
	assert.True(t, Contains("hello world", "lo w"))
	assert.True(t, Contains(12345, 234))
	assert.False(t, Contains(nil, "x"))

	assert.True(t, StartsWith("pageflow", "page"))
	assert.True(t, EndsWith(2024, 24))
	assert.False(t, StartsWith(nil, ""))
	assert.False(t, EndsWith(nil, "null"))
}

func TestTruthyAndLength(t *testing.T) {
	for _, v := range []any{true, 1, -0.5, "x", []any{}, map[string]any{}} {
		assert.True(t, Truthy(v), "%#v", v)
	}
	for _, v := range []any{nil, false, 0, "", math.NaN()} {
		assert.False(t, Truthy(v), "%#v", v)
	}

	assert.Equal(t, 3, Length("héé"))
	assert.Equal(t, 2, Length([]any{1, 2}))
	assert.Equal(t, 1, Length(map[string]any{"a": 1}))
	assert.Equal(t, 0, Length(10))
}

package conditions

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// The helpers below reproduce the coercion rules legacy flow configurations
// were authored against (JavaScript semantics over JSON values). They are
// shared with the script sandbox so both evaluators agree.

// ToNumber converts v like JavaScript's Number(). Failure yields NaN and
// null yields 0. Callers that can tell an absent value from null treat the
// former as NaN.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		return parseNumber(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case []any:
		return parseNumber(ToString(t))
	case map[string]any:
		return math.NaN()
	}
	if f, ok := numeric(v); ok {
		return f
	}
	return math.NaN()
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "_") {
		return math.NaN()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if i, err := strconv.ParseInt(lower, 0, 64); err == nil {
		return float64(i)
	}
	return math.NaN()
}

// numeric reports the float value of any Go numeric kind.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// ToString converts v like JavaScript's String().
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, el := range t {
			if el != nil {
				parts[i] = ToString(el)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	if f, ok := numeric(v); ok {
		return formatNumber(f)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LooseEqual implements JavaScript's "==" over JSON values.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aNum, aIsNum := numeric(a)
	bNum, bIsNum := numeric(b)
	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)

	switch {
	case aIsNum && bIsNum:
		return aNum == bNum
	case aIsStr && bIsStr:
		return aStr == bStr
	case aIsBool && bIsBool:
		return aBool == bBool
	case aIsBool:
		return LooseEqual(ToNumber(aBool), b)
	case bIsBool:
		return LooseEqual(a, ToNumber(bBool))
	case aIsNum && bIsStr:
		return aNum == parseNumber(bStr)
	case aIsStr && bIsNum:
		return parseNumber(aStr) == bNum
	}

	aComposite := isComposite(a)
	bComposite := isComposite(b)
	switch {
	case aComposite && bComposite:
		// Distinct objects are never loosely equal.
		return false
	case aComposite:
		return LooseEqual(ToString(a), b)
	case bComposite:
		return LooseEqual(a, ToString(b))
	}
	return reflect.DeepEqual(a, b)
}

// Relational applies a JavaScript relational operator ("<", ">", "<=", ">=").
// Two strings compare lexicographically; anything else compares as numbers,
// and NaN on either side is false.
func Relational(op string, a, b any) bool {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch op {
			case "<":
				return as < bs
			case ">":
				return as > bs
			case "<=":
				return as <= bs
			case ">=":
				return as >= bs
			}
			return false
		}
	}
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch op {
	case "<":
		return x < y
	case ">":
		return x > y
	case "<=":
		return x <= y
	case ">=":
		return x >= y
	}
	return false
}

// StrictEqual requires both operands to share a JSON kind. Numbers compare by
// value across Go numeric types and composites compare structurally.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := numeric(a); ok {
		bn, ok := numeric(b)
		return ok && an == bn
	}
	if _, ok := numeric(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// SameValue is StrictEqual where NaN equals NaN, as used by array membership.
func SameValue(a, b any) bool {
	if an, ok := numeric(a); ok && math.IsNaN(an) {
		bn, ok := numeric(b)
		return ok && math.IsNaN(bn)
	}
	return StrictEqual(a, b)
}

func isComposite(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// IsEmpty treats null, "", empty arrays and empty mappings as empty.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// Contains reports array membership for array haystacks and substring
// containment otherwise. A null haystack contains nothing.
func Contains(haystack, needle any) bool {
	if haystack == nil {
		return false
	}
	if items, ok := AsSlice(haystack); ok {
		for _, item := range items {
			if SameValue(item, needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(ToString(haystack), ToString(needle))
}

// StartsWith compares the stringified operands. A null subject never matches.
func StartsWith(subject, prefix any) bool {
	if subject == nil {
		return false
	}
	return strings.HasPrefix(ToString(subject), ToString(prefix))
}

// EndsWith compares the stringified operands. A null subject never matches.
func EndsWith(subject, suffix any) bool {
	if subject == nil {
		return false
	}
	return strings.HasSuffix(ToString(subject), ToString(suffix))
}

// Length returns the length of strings (in runes), arrays and mappings, 0 otherwise.
func Length(v any) int {
	switch t := v.(type) {
	case string:
		return len([]rune(t))
	case []any:
		return len(t)
	case map[string]any:
		return len(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return 0
}

// Truthy implements JavaScript truthiness.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any, map[string]any:
		return true
	}
	if f, ok := numeric(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// AsSlice returns v as []any when it is any kind of slice or array.
func AsSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

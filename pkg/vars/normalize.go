package vars

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// normalize converts host values into the JSON-compatible shapes the resolver
// understands. Every map and slice in the result is freshly allocated.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, string, int:
		return t
	case int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return number(reflect.ValueOf(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return fromInt(i)
		}
		if f, err := t.Float64(); err == nil {
			return fromFloat(f)
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case Context:
		return t.Map()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return number(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			var name string
			if key.Kind() == reflect.String {
				name = key.String()
			} else {
				name = fmt.Sprint(key.Interface())
			}
			out[name] = normalize(iter.Value().Interface())
		}
		return out
	}
	// Structs and other opaque values are kept as leaves.
	return v
}

// number maps every numeric kind onto one representation per value: integral
// values that fit an int become int, everything else float64. A context
// therefore reads back the same after a JSON round trip.
func number(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return fromInt(int64(u))
		}
		return float64(rv.Uint())
	}
	return fromFloat(rv.Float())
}

func fromInt(i int64) any {
	if i < math.MinInt || i > math.MaxInt {
		return float64(i)
	}
	return int(i)
}

// maxExactInt is the largest magnitude below which every integer is an exact float64.
const maxExactInt = 1 << 53

func fromFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return int(f)
	}
	return f
}

// clone deep-copies maps and slices produced by normalize.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = clone(val)
		}
		return out
	}
	return v
}

// Normalize exposes the host-value normalization used by New, for callers that
// need to compare or serialize raw values the same way the resolver sees them.
func Normalize(v any) any {
	return normalize(v)
}

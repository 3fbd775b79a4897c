package graph

import (
	"reflect"
	"strconv"
)

// Attrs is an open string-keyed attribute map. Values are the JSON value
// kinds: string, float64, bool, nil, []any, and nested map[string]any.
type Attrs map[string]any

// Merge shallow-merges src into a. Keys present in src overwrite; keys
// absent from src are preserved. A nil src is a no-op.
func (a Attrs) Merge(src Attrs) {
	for k, v := range src {
		a[k] = v
	}
}

// Clone returns a shallow copy of the attribute map. Nested values are
// shared; callers must not mutate them in place.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return Attrs{}
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// String returns the string attribute for key, or "" if absent or not a
// string.
func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// ValueEqual reports whether two attribute values are equal. Numbers are
// compared as float64 so decoded JSON values compare equal to literals of
// any Go numeric type.
func ValueEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

// Stringify renders a scalar attribute value for substring search. Arrays
// and nested maps yield "" (their elements are not flattened).
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}

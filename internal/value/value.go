// Package value classifies, normalizes and compares JSON trees.
//
// A canonical tree only holds nil, bool, float64, string, []any and
// map[string]any, plus the Absent marker at its root.
package value

import (
	"maps"
	"reflect"
	"slices"
)

// Kind is the five-way classification of a JSON value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindPrimitive
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

type absent struct{}

func (absent) String() string { return "<absent>" }

// MarshalJSON renders Absent as null so that an empty result still encodes.
func (absent) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Absent marks a location that does not exist, as opposed to one holding null.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Classify returns the kind of a canonical value.
func Classify(v any) Kind {
	switch v.(type) {
	case absent:
		return KindAbsent
	case nil:
		return KindNull
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindPrimitive
	}
}

// IsContainer reports whether v is an array or an object.
func IsContainer(v any) bool {
	k := Classify(v)
	return k == KindArray || k == KindObject
}

// Keys returns the keys of m in lexicographic order.
func Keys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// Equal reports whether a and b are the same canonical JSON value.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case absent:
		return IsAbsent(b)
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Same reports identity for arrays and objects and equality for anything else.
func Same(a, b any) bool {
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		return ok && len(x) == len(y) && reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	case map[string]any:
		y, ok := b.(map[string]any)
		return ok && reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	}
	if IsContainer(b) {
		return false
	}
	return Equal(a, b)
}

// NodeCount counts v and, for arrays and objects, every node below it.
// Null counts as -0.5.
func NodeCount(v any) float64 {
	switch t := v.(type) {
	case nil:
		return -0.5
	case []any:
		n := 1.0
		for _, c := range t {
			n += NodeCount(c)
		}
		return n
	case map[string]any:
		n := 1.0
		for _, c := range t {
			n += NodeCount(c)
		}
		return n
	}
	return 1
}

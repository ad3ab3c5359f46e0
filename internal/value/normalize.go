package value

import (
	"encoding/json"
	"fmt"

	"github.com/huandu/go-clone"
)

// Normalize returns v as a canonical tree. Canonical input is returned as is,
// raw JSON bytes are decoded, and anything else takes a JSON round trip.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case absent:
		return v, nil
	case json.RawMessage:
		return decode(t)
	case []byte:
		return decode(t)
	}
	if canonical(v) {
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return decode(b)
}

// Copy normalizes v into a tree that shares no memory with it.
func Copy(v any) (any, error) {
	if canonical(v) {
		return Clone(v), nil
	}
	return Normalize(v)
}

// Clone deep-copies a canonical tree.
func Clone(v any) any {
	switch v.(type) {
	case []any, map[string]any:
		return clone.Clone(v)
	}
	return v
}

func decode(b []byte) (any, error) {
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return out, nil
}

func canonical(v any) bool {
	switch t := v.(type) {
	case nil, bool, float64, string, absent:
		return true
	case []any:
		for _, c := range t {
			if !canonical(c) || IsAbsent(c) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, c := range t {
			if !canonical(c) || IsAbsent(c) {
				return false
			}
		}
		return true
	}
	return false
}

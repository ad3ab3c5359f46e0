// Package pointer navigates RFC 6901 JSON Pointers.
package pointer

import (
	"fmt"

	"github.com/agentflare-ai/jsonpointer"
)

// AppendToken is the array key addressing the position after the last element.
const AppendToken = "-"

// Escape encodes a single reference token.
func Escape(token string) string {
	return jsonpointer.Pointer{token}.String()[1:]
}

// Parse splits path into unescaped reference tokens. The empty path addresses
// the whole document and yields no tokens.
func Parse(path string) ([]string, error) {
	p, err := jsonpointer.New(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON pointer %q: %w", path, err)
	}
	if len(p) == 0 {
		return nil, nil
	}
	return []string(p), nil
}

// Join renders tokens as a pointer.
func Join(tokens []string) string {
	return jsonpointer.Pointer(tokens).String()
}

// Append adds one unescaped token to parent.
func Append(parent, token string) string {
	return parent + jsonpointer.Pointer{token}.String()
}

// Parent returns the pointer of the container holding path. The root has no
// parent and yields itself.
func Parent(path string) (string, error) {
	tokens, err := Parse(path)
	if err != nil || len(tokens) == 0 {
		return "", err
	}
	return Join(tokens[:len(tokens)-1]), nil
}

// LastKey returns the unescaped final token of path, or "" for the root.
func LastKey(path string) (string, error) {
	tokens, err := Parse(path)
	if err != nil || len(tokens) == 0 {
		return "", err
	}
	return tokens[len(tokens)-1], nil
}

// Get reads the value at path.
func Get(document any, path string) (any, error) {
	return jsonpointer.Get(document, path)
}

// Index converts an array token into an index for an array of the given
// length. The append token resolves to length. Callers bound-check the result.
func Index(token string, length int) (int, error) {
	if token == AppendToken {
		return length, nil
	}
	idx, err := jsonpointer.ParseArrayIndex(token)
	if err != nil {
		return 0, err
	}
	if idx > uint64(length) {
		return length + 1, nil
	}
	return int(idx), nil
}

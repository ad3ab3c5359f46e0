// Package jsondelta computes and applies RFC 6902 JSON Patch documents.
//
// New produces a patch that turns one JSON value into another, inferring
// moves and copies where they are cheaper than adds and removes. Apply replays
// a patch against a value.
package jsondelta

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agentflare-ai/jsondelta/internal/value"
)

// Op represents JSON Patch operation types
type Op string

const (
	Add     Op = "add"
	Remove  Op = "remove"
	Replace Op = "replace"
	Move    Op = "move"
	Copy    Op = "copy"
	Test    Op = "test"
)

func (o Op) carriesValue() bool {
	return o == Add || o == Replace || o == Test
}

// Operation represents a single JSON Patch operation
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// MarshalJSON writes value for add, replace and test even when it is null,
// and leaves it out for the other operations.
func (o Operation) MarshalJSON() ([]byte, error) {
	wire := struct {
		Op    Op              `json:"op"`
		Path  string          `json:"path"`
		From  string          `json:"from,omitempty"`
		Value json.RawMessage `json:"value,omitempty"`
	}{Op: o.Op, Path: o.Path, From: o.From}
	if o.Op.carriesValue() {
		b, err := json.Marshal(o.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s value at %q: %w", o.Op, o.Path, err)
		}
		wire.Value = b
	}
	return json.Marshal(wire)
}

// Patch represents a collection of JSON Patch operations
type Patch []Operation

// Absent is returned by Apply when a patch removes the whole document.
var Absent = value.Absent

// Apply applies a series of JSON Patch operations to a document, returning a new
// modified document. The original document is not changed.
func Apply(document any, patch Patch, opts ...Option) (any, error) {
	doc, err := value.Copy(document)
	if err != nil {
		return nil, err
	}
	return applyNormalized(doc, patch, newConfig(opts))
}

// ApplyInPlace applies a series of JSON Patch operations to a document in-place.
// WARNING: This function modifies the input document when it already holds
// only map[string]any, []any and JSON scalars.
func ApplyInPlace(document any, patch Patch, opts ...Option) (any, error) {
	doc, err := value.Normalize(document)
	if err != nil {
		return nil, err
	}
	return applyNormalized(doc, patch, newConfig(opts))
}

// ApplyStream applies a series of JSON Patch operations from a reader to a writer.
// This is more memory-efficient for large documents than Apply, as it avoids
// marshalling the intermediate document to a byte slice.
func ApplyStream(reader io.Reader, writer io.Writer, patch Patch, opts ...Option) error {
	var doc any
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	modifiedDoc, err := applyNormalized(doc, patch, newConfig(opts))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	return encoder.Encode(modifiedDoc)
}

func applyNormalized(doc any, patch Patch, cfg config) (any, error) {
	a := applier{flags: cfg.apply, logger: cfg.logger}
	return a.run(doc, patch)
}

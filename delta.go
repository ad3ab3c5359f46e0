package jsondelta

import (
	"github.com/agentflare-ai/jsondelta/internal/value"
)

// Delta holds a patch together with its inverse.
type Delta struct {
	Forward Patch
	Reverse Patch
}

// Prepare applies patch to a copy of document and diffs the two states in both
// directions. The options are passed to Apply and New alike.
func Prepare(document any, patch Patch, opts ...Option) (*Delta, error) {
	before, err := value.Copy(document)
	if err != nil {
		return nil, err
	}
	after, err := Apply(before, patch, opts...)
	if err != nil {
		return nil, err
	}

	forward, err := New(before, after, opts...)
	if err != nil {
		return nil, err
	}
	reverse, err := New(after, before, opts...)
	if err != nil {
		return nil, err
	}
	return &Delta{Forward: forward, Reverse: reverse}, nil
}

// Apply replays the forward patch on a copy of document.
func (d *Delta) Apply(document any, opts ...Option) (any, error) {
	return Apply(document, d.Forward, opts...)
}

// Revert replays the reverse patch on a copy of document.
func (d *Delta) Revert(document any, opts ...Option) (any, error) {
	return Apply(document, d.Reverse, opts...)
}

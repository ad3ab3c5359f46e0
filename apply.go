package jsondelta

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"github.com/agentflare-ai/jsondelta/internal/pointer"
	"github.com/agentflare-ai/jsondelta/internal/value"
)

type applier struct {
	flags  ApplyFlag
	logger logr.Logger
}

func (a *applier) run(document any, patch Patch) (any, error) {
	skip := false
	for i, op := range patch {
		if skip {
			skip = false
			a.logger.V(1).Info("skipping operation after failed test", "index", i, "op", op.Op, "path", op.Path)
			continue
		}

		doc, err := a.apply(document, op)
		if err == nil {
			document = doc
			continue
		}

		var pe *Error
		if errors.As(err, &pe) {
			pe.Op = op.Op
			pe.Index = i
		}
		switch {
		case IsKind(err, UnsupportedOperation):
			return nil, err
		case IsKind(err, TestFailed) && a.flags.Has(Force):
			continue
		case IsKind(err, TestFailed) && a.flags.Has(SkipConflicts):
			a.logger.V(1).Info("test failed, skipping next operation", "index", i, "path", op.Path)
			skip = true
			continue
		case a.flags.Has(IgnoreErrors):
			a.logger.Error(err, "ignoring failed patch operation", "index", i, "op", op.Op, "path", op.Path)
			continue
		}
		return nil, err
	}
	return document, nil
}

func (a *applier) apply(document any, op Operation) (any, error) {
	var val any
	if op.Op.carriesValue() {
		v, err := value.Copy(op.Value)
		if err != nil {
			return nil, err
		}
		val = v
	}

	switch op.Op {
	case Add:
		return a.put(document, op.Path, val, a.flags.Has(Force))
	case Replace:
		return a.replace(document, op.Path, val)
	case Remove:
		return a.remove(document, op.Path)
	case Move:
		return a.move(document, op.From, op.Path)
	case Copy:
		return a.copy(document, op.From, op.Path)
	case Test:
		return document, a.test(document, op.Path, val)
	default:
		return nil, &Error{Kind: UnsupportedOperation, Index: -1, Path: op.Path,
			Message: fmt.Sprintf("unsupported patch operation: %s", op.Op)}
	}
}

func parse(path string) ([]string, error) {
	tokens, err := pointer.Parse(path)
	if err != nil {
		return nil, &Error{Kind: InvalidPointer, Index: -1, Path: path, Message: "malformed path", Cause: err}
	}
	return tokens, nil
}

// put implements add. overwrite lets it replace a non-null object member.
func (a *applier) put(document any, path string, val any, overwrite bool) (any, error) {
	tokens, err := parse(path)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return val, nil
	}
	return a.edit(document, path, tokens, func(parent any, key string) (any, error) {
		switch p := parent.(type) {
		case []any:
			idx, err := pointer.Index(key, len(p))
			if err != nil {
				return nil, newError(IndexOutOfBounds, path, "invalid array index %q at path %q", key, path)
			}
			if idx > len(p) {
				return nil, newError(IndexOutOfBounds, path, "add operation on array index %s is out of bounds for array of length %d", key, len(p))
			}
			return slices.Insert(p, idx, val), nil
		case map[string]any:
			if cur, ok := p[key]; ok && cur != nil && !overwrite {
				return nil, newError(KeyConflict, path, "path %q already holds a value", path)
			}
			p[key] = val
			return p, nil
		}
		return nil, notContainer(path)
	})
}

func (a *applier) replace(document any, path string, val any) (any, error) {
	tokens, err := parse(path)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return val, nil
	}
	force := a.flags.Has(Force)
	return a.edit(document, path, tokens, func(parent any, key string) (any, error) {
		switch p := parent.(type) {
		case []any:
			idx, err := pointer.Index(key, len(p))
			if err != nil || idx >= len(p) {
				return nil, newError(IndexOutOfBounds, path, "replace operation on array index %s is out of bounds for array of length %d", key, len(p))
			}
			p[idx] = val
			return p, nil
		case map[string]any:
			if _, ok := p[key]; !ok && !force {
				return nil, newError(PathNotFound, path, "path %q does not exist", path)
			}
			p[key] = val
			return p, nil
		}
		return nil, notContainer(path)
	})
}

func (a *applier) remove(document any, path string) (any, error) {
	tokens, err := parse(path)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return value.Absent, nil
	}
	return a.edit(document, path, tokens, func(parent any, key string) (any, error) {
		switch p := parent.(type) {
		case []any:
			idx, err := pointer.Index(key, len(p))
			if err != nil || idx >= len(p) {
				return nil, newError(IndexOutOfBounds, path, "remove operation on array index %s is out of bounds for array of length %d", key, len(p))
			}
			return slices.Delete(p, idx, idx+1), nil
		case map[string]any:
			if _, ok := p[key]; !ok {
				return nil, newError(PathNotFound, path, "path %q does not exist", path)
			}
			delete(p, key)
			return p, nil
		}
		return nil, notContainer(path)
	})
}

func (a *applier) move(document any, from, path string) (any, error) {
	if from != "" && from == path {
		_, err := parse(path)
		return document, err
	}
	val, err := a.source(document, from, path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(path, from+"/") {
		return nil, newError(MissingFromPath, path, "from path %q is a parent of %q", from, path)
	}
	doc, err := a.remove(document, from)
	if err != nil {
		return nil, err
	}
	return a.put(doc, path, val, true)
}

func (a *applier) copy(document any, from, path string) (any, error) {
	if from != "" && from == path {
		_, err := parse(path)
		return document, err
	}
	val, err := a.source(document, from, path)
	if err != nil {
		return nil, err
	}
	return a.put(document, path, value.Clone(val), true)
}

// source reads the value a move or copy relocates.
func (a *applier) source(document any, from, path string) (any, error) {
	if from == "" {
		return nil, newError(MissingFromPath, path, "cannot move or copy to %q without a from path", path)
	}
	if _, err := parse(from); err != nil {
		return nil, err
	}
	if _, err := parse(path); err != nil {
		return nil, err
	}
	val, ok := lookup(document, from)
	if !ok {
		return nil, newError(MissingFromPath, path, "from path '%s' does not exist", from)
	}
	return val, nil
}

func (a *applier) test(document any, path string, want any) error {
	if _, err := parse(path); err != nil {
		return err
	}
	got, ok := lookup(document, path)
	if !ok {
		return newError(TestFailed, path, "test failed: path %q does not exist", path)
	}
	if !value.Equal(got, want) {
		return newError(TestFailed, path, "test failed: expected %v, got %v", want, got)
	}
	return nil
}

// edit walks to the parent of the last token and lets fn rebuild it. Rebuilt
// arrays are written back into their own parents on the way out. Under Force,
// missing or null intermediate members are created as objects.
func (a *applier) edit(node any, path string, tokens []string, fn func(parent any, key string) (any, error)) (any, error) {
	if len(tokens) == 1 {
		return fn(node, tokens[0])
	}
	key := tokens[0]
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[key]
		if !ok || child == nil {
			if !a.flags.Has(Force) {
				return nil, newError(PathNotFound, path, "path %q does not exist", path)
			}
			child = map[string]any{}
		}
		updated, err := a.edit(child, path, tokens[1:], fn)
		if err != nil {
			return nil, err
		}
		n[key] = updated
		return n, nil
	case []any:
		idx, err := pointer.Index(key, len(n))
		if err != nil || idx >= len(n) {
			return nil, newError(PathNotFound, path, "path %q does not exist", path)
		}
		updated, err := a.edit(n[idx], path, tokens[1:], fn)
		if err != nil {
			return nil, err
		}
		n[idx] = updated
		return n, nil
	}
	return nil, newError(PathNotFound, path, "path %q does not exist", path)
}

func notContainer(path string) error {
	parent, _ := pointer.Parent(path)
	key, _ := pointer.LastKey(path)
	return newError(PathNotFound, path, "cannot address %q: parent %q is not a container", key, parent)
}

// lookup reads the value at path. Absent counts as missing.
func lookup(document any, path string) (any, bool) {
	got, err := pointer.Get(document, path)
	if err != nil || value.IsAbsent(got) {
		return nil, false
	}
	return got, true
}

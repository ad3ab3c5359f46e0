package jsondelta

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agentflare-ai/jsondelta/internal/pointer"
	"github.com/agentflare-ai/jsondelta/internal/value"
)

var errReplayMismatch = errors.New("replayed patch does not reproduce the target")

// reducer turns change records into operations. Every operation is replayed
// against a working copy of the source as it is emitted, so paths always
// address the document as it stands at that point of the patch.
type reducer struct {
	cfg        config
	changes    []change
	alignments map[string][]int
	tables     map[string]*shiftTable
	source     any
	target     any
	work       any
	replay     applier
	infer      bool
	patch      Patch
	err        error
}

func reduce(cfg config, changes []change, alignments map[string][]int, source, target any, infer bool) (Patch, error) {
	r := &reducer{
		cfg:        cfg,
		changes:    slices.Clone(changes),
		alignments: alignments,
		tables:     make(map[string]*shiftTable),
		source:     source,
		target:     target,
		work:       value.Clone(source),
		replay:     applier{logger: cfg.logger},
		infer:      infer,
		patch:      Patch{},
	}

	for i := 0; i < len(r.changes) && r.err == nil; {
		c := &r.changes[i]
		if c.visited || (c.old == nil && c.new == nil) {
			i++
			continue
		}
		// a record that lost one side to a move is processed again
		if !r.process(c, i) {
			i++
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if !value.Equal(r.work, target) {
		return nil, errReplayMismatch
	}
	return r.patch, nil
}

func (r *reducer) process(c *change, i int) bool {
	if r.infer {
		if c.new != nil {
			if again, ok := r.moveInto(c, i); ok {
				return again
			}
			if c.old == nil && r.copyInto(c) {
				c.visited = true
				return false
			}
		} else if r.moveOut(c, i) {
			return false
		}
	}
	r.emitDefault(c)
	c.visited = true
	return false
}

// moveInto pairs the insertion of c with a later removal of the same value.
func (r *reducer) moveInto(c *change, i int) (again, ok bool) {
	for j := i + 1; j < len(r.changes); j++ {
		o := &r.changes[j]
		if o.visited || o.old == nil || !value.Equal(c.new.value, o.old.value) {
			continue
		}
		if !r.emitMove(o.old, c) {
			continue
		}
		o.old = nil
		o.visited = o.new == nil
		c.new = nil
		if c.old == nil {
			c.visited = true
			return false, true
		}
		return true, true
	}
	return false, false
}

// moveOut pairs the removal of c with a later insertion of the same value.
func (r *reducer) moveOut(c *change, i int) bool {
	for j := i + 1; j < len(r.changes); j++ {
		o := &r.changes[j]
		if o.visited || o.new == nil || !value.Equal(c.old.value, o.new.value) {
			continue
		}
		if !r.emitMove(c.old, o) {
			continue
		}
		c.old = nil
		c.visited = true
		o.new = nil
		o.visited = o.old == nil
		return true
	}
	return false
}

// emitMove moves the value described by from into the new side of dest. It
// reports false, emitting nothing, when from cannot be found in the working
// copy.
func (r *reducer) emitMove(from *side, dest *change) bool {
	fromPath := r.existingPath(from)
	if fromPath == "" {
		return false
	}
	got, err := pointer.Get(r.work, fromPath)
	if err != nil || !value.Equal(got, from.value) {
		return false
	}
	// taking from out of its array can shift the destination underneath it
	var saved *shiftTable
	t := r.table(from.parent)
	if t != nil && r.inArray(from) {
		if pos := t.locateSource(from.index); pos >= 0 {
			saved = t.clone()
			t.remove(pos)
		}
	}
	to, pos := r.insertionPath(dest)
	if isProperPrefix(fromPath, to) {
		if saved != nil {
			r.tables[from.parent] = saved
		}
		return false
	}
	r.emitTest(fromPath, from.value)
	r.emit(Operation{Op: Move, From: fromPath, Path: to})
	r.claim(dest, pos)

	// outside arrays the move overwrote whatever dest used to hold
	if dest.old != nil && !r.inArray(dest.new) {
		dest.old = nil
	}
	return true
}

// copyInto replaces the insertion of c with a copy of an unchanged source
// location holding the same value.
func (r *reducer) copyInto(c *change) bool {
	budget := r.cfg.copyBudget
	found, ok := findCopySource(c.new.value, r.source, r.target, c.new.path, &budget)
	if !ok {
		return false
	}
	from, ok := r.copySourcePath(found, c.new.value)
	if !ok {
		return false
	}
	to, pos := r.insertionPath(c)
	if from == to {
		return false
	}
	r.emitTest(from, c.new.value)
	r.emit(Operation{Op: Copy, From: from, Path: to})
	r.claim(c, pos)
	return true
}

// copySourcePath translates a location found in the source into the working
// copy. Array indexes are tried first as source positions and then as target
// positions; the first candidate still holding want wins.
func (r *reducer) copySourcePath(found string, want any) (string, bool) {
	tokens, err := pointer.Parse(found)
	if err != nil {
		return "", false
	}
	for _, preferSource := range []bool{true, false} {
		out := slices.Clone(tokens)
		prefix := ""
		for i, tok := range tokens {
			if t := r.table(prefix); t != nil {
				if idx, err := strconv.Atoi(tok); err == nil {
					first, second := t.locateSource(idx), t.locateTarget(idx)
					if !preferSource {
						first, second = second, first
					}
					if first < 0 {
						first = second
					}
					if first >= 0 {
						out[i] = strconv.Itoa(first)
					}
				}
			}
			prefix = pointer.Append(prefix, tok)
		}
		path := pointer.Join(out)
		if got, err := pointer.Get(r.work, path); err == nil && value.Equal(got, want) {
			return path, true
		}
	}
	return "", false
}

func (r *reducer) emitDefault(c *change) {
	switch {
	case c.old != nil && c.new != nil:
		path := r.existingPath(c.old)
		r.emitTest(path, c.old.value)
		if r.useAdd(c) {
			r.emitAdd(path, path, c.new.value)
		} else {
			r.emit(Operation{Op: Replace, Path: path, Value: value.Clone(c.new.value)})
		}
		if t := r.table(c.new.parent); t != nil && r.inArray(c.new) && c.old.source {
			t.replace(c.old.index, c.new.index)
		}
	case c.new != nil:
		path, pos := r.insertionPath(c)
		base := path
		if pos >= 0 {
			base = pointer.Append(r.locate(c.new.parent), strconv.Itoa(pos))
		}
		r.emitAdd(path, base, c.new.value)
		r.claim(c, pos)
	default:
		path := r.existingPath(c.old)
		pos := -1
		t := r.table(c.old.parent)
		if t != nil && r.inArray(c.old) {
			pos = t.locateSource(c.old.index)
		}
		r.emitTest(path, c.old.value)
		r.emit(Operation{Op: Remove, Path: path})
		if pos >= 0 {
			t.remove(pos)
		}
	}
}

// useAdd reports whether a replacement is written as an add.
func (r *reducer) useAdd(c *change) bool {
	if c.new.path == "" {
		return rootAdd(r.cfg, c.old.value)
	}
	return c.old.value == nil && !r.cfg.diff.Has(UseReplaceForNull) && !r.inArray(c.new)
}

func (r *reducer) emitTest(path string, v any) {
	if r.cfg.diff.Has(GenerateTests) {
		r.emit(Operation{Op: Test, Path: path, Value: value.Clone(v)})
	}
}

// emitAdd writes an add of v at path, one operation per leaf under VerbosePatch.
// base is path with an append token resolved to the index it lands on, so
// that the members of an added container are addressed concretely.
func (r *reducer) emitAdd(path, base string, v any) {
	if r.cfg.diff.Has(VerbosePatch) {
		switch t := v.(type) {
		case []any:
			if len(t) > 0 {
				r.emit(Operation{Op: Add, Path: path, Value: []any{}})
				for i, el := range t {
					key := pointer.AppendToken
					if r.cfg.diff.Has(FavorOrdinal) {
						key = strconv.Itoa(i)
					}
					r.emitAdd(pointer.Append(base, key), pointer.Append(base, strconv.Itoa(i)), el)
				}
				return
			}
		case map[string]any:
			if len(t) > 0 {
				r.emit(Operation{Op: Add, Path: path, Value: map[string]any{}})
				for _, k := range value.Keys(t) {
					child := pointer.Append(base, k)
					r.emitAdd(child, child, t[k])
				}
				return
			}
		}
	}
	r.emit(Operation{Op: Add, Path: path, Value: value.Clone(v)})
}

func (r *reducer) emit(op Operation) {
	if r.err != nil {
		return
	}
	doc, err := r.replay.apply(r.work, op)
	if err != nil {
		r.err = fmt.Errorf("replaying %s at %q: %w", op.Op, op.Path, err)
		return
	}
	r.work = doc
	r.patch = append(r.patch, op)
}

// table returns the shift table of the array at path, or nil when path was
// not diffed as an array.
func (r *reducer) table(path string) *shiftTable {
	if t, ok := r.tables[path]; ok {
		return t
	}
	alignment, ok := r.alignments[path]
	if !ok {
		return nil
	}
	t := newShiftTable(alignment)
	r.tables[path] = t
	return t
}

func (r *reducer) inArray(s *side) bool {
	return s.path != "" && s.index >= 0 && r.table(s.parent) != nil
}

// locate rewrites the array indexes of path, which name target positions,
// into positions in the working copy.
func (r *reducer) locate(path string) string {
	if path == "" {
		return ""
	}
	tokens, err := pointer.Parse(path)
	if err != nil {
		return path
	}
	out := slices.Clone(tokens)
	prefix := ""
	for i, tok := range tokens {
		if t := r.table(prefix); t != nil {
			if idx, err := strconv.Atoi(tok); err == nil {
				if pos := t.locateTarget(idx); pos >= 0 {
					out[i] = strconv.Itoa(pos)
				}
			}
		}
		prefix = pointer.Append(prefix, tok)
	}
	return pointer.Join(out)
}

// existingPath addresses the element s describes as it sits in the working copy.
func (r *reducer) existingPath(s *side) string {
	if s.path == "" {
		return ""
	}
	parent := r.locate(s.parent)
	if !r.inArray(s) {
		return pointer.Append(parent, s.key)
	}
	t := r.table(s.parent)
	pos := -1
	if s.source {
		pos = t.locateSource(s.index)
	} else {
		pos = t.locateTarget(s.index)
	}
	if pos < 0 {
		pos = s.index
	}
	return pointer.Append(parent, strconv.Itoa(pos))
}

// insertionPath addresses where the new side of c is written. For arrays it
// also returns the position, -1 otherwise. A replacement takes the place of
// the element it replaces; an insertion follows the placement rule of the
// shift table and turns into "-" at the end of the array.
func (r *reducer) insertionPath(c *change) (string, int) {
	s := c.new
	if s.path == "" {
		return "", -1
	}
	parent := r.locate(s.parent)
	if !r.inArray(s) {
		return pointer.Append(parent, s.key), -1
	}
	t := r.table(s.parent)
	pos := -1
	if c.old != nil && c.old.source {
		pos = t.locateSource(c.old.index)
	}
	if pos < 0 {
		pos = t.placement(s.index)
	}
	key := strconv.Itoa(pos)
	if pos == t.size && !r.cfg.diff.Has(FavorOrdinal) {
		key = pointer.AppendToken
	}
	return pointer.Append(parent, key), pos
}

// claim records the new side of c entering its array at pos.
func (r *reducer) claim(c *change, pos int) {
	if pos < 0 || !r.inArray(c.new) {
		return
	}
	t := r.table(c.new.parent)
	t.insert(pos, c.new.index)
	if c.old != nil && c.old.source {
		t.release(c.old.index)
	}
}

func isProperPrefix(prefix, path string) bool {
	return prefix != path && (prefix == "" || strings.HasPrefix(path, prefix+"/"))
}

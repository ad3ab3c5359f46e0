package jsondelta

import (
	"github.com/agentflare-ai/jsondelta/internal/value"
)

// New computes a patch that turns source into target. Inputs may be canonical
// JSON trees, raw JSON bytes, or anything encoding/json can marshal. Passing
// Absent for either side produces a patch that adds or removes the whole
// document.
func New(source, target any, opts ...Option) (Patch, error) {
	cfg := newConfig(opts)
	src, err := value.Normalize(source)
	if err != nil {
		return nil, err
	}
	tgt, err := value.Normalize(target)
	if err != nil {
		return nil, err
	}

	d := &differ{cfg: cfg, alignments: make(map[string][]int)}
	changes := d.diff(rootNode(src, tgt))
	if len(changes) == 0 {
		return Patch{}, nil
	}

	patch, err := reduce(cfg, changes, d.alignments, src, tgt, !cfg.fast)
	if err != nil && !cfg.fast {
		cfg.logger.V(1).Info("retrying without move and copy inference", "reason", err.Error())
		patch, err = reduce(cfg, changes, d.alignments, src, tgt, false)
	}
	if err != nil {
		cfg.logger.V(1).Info("falling back to whole document replacement", "reason", err.Error())
		patch = wholeDocument(cfg, src, tgt)
	}
	return patch, nil
}

type differ struct {
	cfg config
	// alignments maps the path of every structurally diffed array to the
	// target index of each source element, -1 for removed elements.
	alignments map[string][]int
}

type strategy func(d *differ, n node) ([]change, bool)

// strategies is filled in init because the strategies recurse through diff.
var strategies []strategy

func init() {
	strategies = []strategy{
		(*differ).diffIdentity,
		(*differ).diffKind,
		(*differ).diffArray,
		(*differ).diffObject,
		(*differ).diffFallback,
	}
}

func (d *differ) diff(n node) []change {
	for _, s := range strategies {
		if changes, ok := s(d, n); ok {
			return changes
		}
	}
	return nil
}

func (d *differ) diffIdentity(n node) ([]change, bool) {
	sk, tk := value.Classify(n.source), value.Classify(n.target)
	switch {
	case sk == tk && value.Equal(n.source, n.target):
		return nil, true
	case sk == value.KindAbsent:
		return []change{insertion(n)}, true
	case tk == value.KindAbsent:
		return []change{deletion(n)}, true
	}
	return nil, false
}

func (d *differ) diffKind(n node) ([]change, bool) {
	if value.Classify(n.source) != value.Classify(n.target) {
		return []change{replacement(n)}, true
	}
	return nil, false
}

func (d *differ) diffArray(n node) ([]change, bool) {
	src, ok := n.source.([]any)
	if !ok {
		return nil, false
	}
	tgt, ok := n.target.([]any)
	if !ok {
		return nil, false
	}

	steps, alignment := editScript(src, tgt)
	d.alignments[n.path] = alignment

	var changes []change
	for _, s := range steps {
		switch {
		case s.tgt < 0:
			changes = append(changes, change{old: elementSide(n.path, s.src, true, src[s.src])})
		case s.src < 0:
			changes = append(changes, change{new: elementSide(n.path, s.tgt, false, tgt[s.tgt])})
		default:
			el := n.element(s.src, s.tgt, src[s.src], tgt[s.tgt])
			pair := []change{replacement(el)}
			if value.IsContainer(el.source) && value.Classify(el.source) == value.Classify(el.target) {
				pair = selectCheaper(pair, d.diff(el))
			}
			changes = append(changes, pair...)
		}
	}

	if d.cfg.diff.Has(FavorArrayReorder) {
		return changes, true
	}
	return selectCheaper(changes, []change{replacement(n)}), true
}

func (d *differ) diffObject(n node) ([]change, bool) {
	src, ok := n.source.(map[string]any)
	if !ok {
		return nil, false
	}
	tgt, ok := n.target.(map[string]any)
	if !ok {
		return nil, false
	}

	var changes []change
	for _, k := range value.Keys(tgt) {
		sv, found := src[k]
		if !found {
			sv = value.Absent
		}
		if value.Equal(sv, tgt[k]) {
			continue
		}
		changes = append(changes, d.diff(n.child(k, sv, tgt[k]))...)
	}
	for _, k := range value.Keys(src) {
		if _, found := tgt[k]; !found {
			changes = append(changes, deletion(n.child(k, src[k], value.Absent)))
		}
	}
	return selectCheaper(changes, []change{replacement(n)}), true
}

func (d *differ) diffFallback(n node) ([]change, bool) {
	return []change{replacement(n)}, true
}

// wholeDocument is the patch of last resort: one operation over the root.
func wholeDocument(cfg config, src, tgt any) Patch {
	var patch Patch
	if cfg.diff.Has(GenerateTests) && !value.IsAbsent(src) {
		patch = append(patch, Operation{Op: Test, Path: "", Value: value.Clone(src)})
	}
	switch {
	case value.IsAbsent(tgt):
		return append(patch, Operation{Op: Remove, Path: ""})
	case value.IsAbsent(src) || rootAdd(cfg, src):
		return append(patch, Operation{Op: Add, Path: "", Value: value.Clone(tgt)})
	}
	return append(patch, Operation{Op: Replace, Path: "", Value: value.Clone(tgt)})
}

// rootAdd reports whether replacing old at the root is written as an add.
func rootAdd(cfg config, old any) bool {
	if cfg.diff.Has(UseAddForReplaceOfRoot) {
		return true
	}
	if value.IsContainer(old) && value.NodeCount(old)-1 <= 0 {
		return true
	}
	return old == nil && !cfg.diff.Has(UseReplaceForNull)
}

package jsondelta

import (
	"strconv"

	"github.com/agentflare-ai/jsondelta/internal/pointer"
)

// side is one half of a change: where a value sits and what it is.
type side struct {
	path   string
	parent string
	key    string
	// index is the array position when parent is an array, otherwise -1.
	index int
	// source marks index as a position in the source array rather than the
	// target array.
	source bool
	value  any
}

// change pairs an optional old and new side. Only new is an insertion, only
// old is a deletion, both is a replacement.
type change struct {
	old     *side
	new     *side
	visited bool
}

// node locates one (source, target) pair inside the documents being compared.
type node struct {
	source any
	target any
	path   string
	parent string
	key    string
	// index is the target position when parent is an array, otherwise -1.
	index int
	// srcIndex is the source position of the compared element, or -1.
	srcIndex int
}

func rootNode(source, target any) node {
	return node{source: source, target: target, index: -1, srcIndex: -1}
}

func (n node) child(key string, source, target any) node {
	return node{
		source: source, target: target,
		path: pointer.Append(n.path, key), parent: n.path, key: key,
		index: -1, srcIndex: -1,
	}
}

func (n node) element(srcIndex, tgtIndex int, source, target any) node {
	key := strconv.Itoa(tgtIndex)
	return node{
		source: source, target: target,
		path: pointer.Append(n.path, key), parent: n.path, key: key,
		index: tgtIndex, srcIndex: srcIndex,
	}
}

func (n node) oldSide() *side {
	s := &side{path: n.path, parent: n.parent, key: n.key, index: n.index, value: n.source}
	if n.srcIndex >= 0 {
		s.index, s.source = n.srcIndex, true
		s.key = strconv.Itoa(n.srcIndex)
		s.path = pointer.Append(n.parent, s.key)
	}
	return s
}

func (n node) newSide() *side {
	return &side{path: n.path, parent: n.parent, key: n.key, index: n.index, value: n.target}
}

func insertion(n node) change   { return change{new: n.newSide()} }
func deletion(n node) change    { return change{old: n.oldSide()} }
func replacement(n node) change { return change{old: n.oldSide(), new: n.newSide()} }

func elementSide(parent string, index int, source bool, v any) *side {
	key := strconv.Itoa(index)
	return &side{path: pointer.Append(parent, key), parent: parent, key: key, index: index, source: source, value: v}
}

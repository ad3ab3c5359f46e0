package jsondelta

import (
	"maps"
	"slices"
)

// shiftTable tracks where the elements of one array sit while a patch is
// being built. Original elements are addressed by their source index and
// found at i + shift[i]; elements written by the patch are claimed under the
// target index they are bound for.
type shiftTable struct {
	shift []int
	// final is the target index of each original element, -1 when the
	// element is due for removal.
	final   []int
	gone    []bool
	claimed map[int]int
	size    int
}

func newShiftTable(alignment []int) *shiftTable {
	return &shiftTable{
		shift:   make([]int, len(alignment)),
		final:   slices.Clone(alignment),
		gone:    make([]bool, len(alignment)),
		claimed: make(map[int]int),
		size:    len(alignment),
	}
}

func (t *shiftTable) clone() *shiftTable {
	return &shiftTable{
		shift:   slices.Clone(t.shift),
		final:   slices.Clone(t.final),
		gone:    slices.Clone(t.gone),
		claimed: maps.Clone(t.claimed),
		size:    t.size,
	}
}

func (t *shiftTable) applied(i int) int { return i + t.shift[i] }

// locateSource returns the current position of original element i, or -1 once
// it has left the array.
func (t *shiftTable) locateSource(i int) int {
	if i < 0 || i >= len(t.shift) || t.gone[i] {
		return -1
	}
	return t.applied(i)
}

// locateTarget returns the current position of the element bound for target
// index j, or -1 when no such element is in the array yet.
func (t *shiftTable) locateTarget(j int) int {
	if pos, ok := t.claimed[j]; ok {
		return pos
	}
	for i, f := range t.final {
		if f == j && !t.gone[i] {
			return t.applied(i)
		}
	}
	return -1
}

// placement returns where an element bound for target index j is inserted:
// before the first element bound for a later index, and ahead of any pending
// removals right before it.
func (t *shiftTable) placement(j int) int {
	order := t.order()
	pos := len(order)
	for p, f := range order {
		if f > j {
			pos = p
			break
		}
	}
	for pos > 0 && order[pos-1] < 0 {
		pos--
	}
	return pos
}

// order lists the final index of the element at each current position, -1
// for pending removals.
func (t *shiftTable) order() []int {
	order := make([]int, t.size)
	for p := range order {
		order[p] = -1
	}
	for i := range t.shift {
		if p := t.applied(i); !t.gone[i] && p >= 0 && p < len(order) {
			order[p] = t.final[i]
		}
	}
	for j, p := range t.claimed {
		if p >= 0 && p < len(order) {
			order[p] = j
		}
	}
	return order
}

func (t *shiftTable) displace(from, delta int) {
	for i := range t.shift {
		if !t.gone[i] && t.applied(i) >= from {
			t.shift[i] += delta
		}
	}
	for j, p := range t.claimed {
		if p >= from {
			t.claimed[j] = p + delta
		}
	}
}

// insert records an element bound for target index j placed at pos.
func (t *shiftTable) insert(pos, j int) {
	t.displace(pos, 1)
	t.claimed[j] = pos
	t.size++
}

// remove records the removal of whatever sits at pos.
func (t *shiftTable) remove(pos int) {
	for i := range t.shift {
		if !t.gone[i] && t.applied(i) == pos {
			t.gone[i] = true
		}
	}
	for j, p := range t.claimed {
		if p == pos {
			delete(t.claimed, j)
		}
	}
	t.displace(pos+1, -1)
	t.size--
}

// replace records original element i being overwritten by the element bound
// for target index j.
func (t *shiftTable) replace(i, j int) {
	pos := t.locateSource(i)
	if pos < 0 {
		return
	}
	t.gone[i] = true
	t.claimed[j] = pos
}

// release marks original element i as due for removal.
func (t *shiftTable) release(i int) {
	if i >= 0 && i < len(t.final) {
		t.final[i] = -1
	}
}

package jsondelta

import (
	"slices"

	"github.com/agentflare-ai/jsondelta/internal/value"
)

type edit uint8

const (
	editDelete edit = iota
	editInsert
	editSubstitute
)

// step is one entry of an array edit script. src is -1 for an insertion and
// tgt is -1 for a deletion; both set is a substitution.
type step struct {
	src, tgt int
}

// editScript computes the Levenshtein edit script from source to target in
// forward order, together with the target index of every source element
// (-1 for deleted ones). Ties prefer delete, then insert, then substitute.
func editScript(source, target []any) ([]step, []int) {
	m, n := len(source), len(target)
	dist := make([][]int, m+1)
	choice := make([][]edit, m+1)
	for i := range dist {
		dist[i] = make([]int, n+1)
		choice[i] = make([]edit, n+1)
		dist[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dist[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 1
			if value.Equal(source[i-1], target[j-1]) {
				cost = 0
			}
			best, how := dist[i-1][j]+1, editDelete
			if v := dist[i][j-1] + 1; v < best {
				best, how = v, editInsert
			}
			if v := dist[i-1][j-1] + cost; v < best {
				best, how = v, editSubstitute
			}
			dist[i][j], choice[i][j] = best, how
		}
	}

	alignment := make([]int, m)
	for i := range alignment {
		alignment[i] = -1
	}

	var steps []step
	i, j := m, n
	for i > 0 && j > 0 {
		before := dist[i][j]
		var s step
		switch choice[i][j] {
		case editDelete:
			i--
			s = step{src: i, tgt: -1}
		case editInsert:
			j--
			s = step{src: -1, tgt: j}
		default:
			i, j = i-1, j-1
			s = step{src: i, tgt: j}
		}
		if s.src >= 0 && s.tgt >= 0 {
			alignment[s.src] = s.tgt
		}
		// an unchanged distance is a substitution of equal elements
		if dist[i][j] != before {
			steps = append(steps, s)
		}
	}
	for i > 0 {
		i--
		steps = append(steps, step{src: i, tgt: -1})
	}
	for j > 0 {
		j--
		steps = append(steps, step{src: -1, tgt: j})
	}
	slices.Reverse(steps)
	return steps, alignment
}

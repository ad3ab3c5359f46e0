package jsondelta

import (
	"math"
	"slices"

	"github.com/agentflare-ai/jsondelta/internal/value"
)

// selectCheaper returns whichever candidate scores lower, preferring first on
// a tie.
func selectCheaper(first, second []change) []change {
	s1, s2 := complexity(first), complexity(second)
	if s1 == s2 {
		n1, n2 := sideCount(first), sideCount(second)
		switch {
		case n1 < n2:
			s1--
		case n2 < n1:
			s2--
		}
	}
	if s1 <= s2 {
		return first
	}
	return second
}

// complexity scores a change list by its length, the size of the values it
// writes and the number of sides it touches. A value already seen is only
// counted once.
func complexity(changes []change) float64 {
	score := float64(len(changes)) / 10
	var seen []any
	sides := 0
	for _, c := range changes {
		var v any
		if c.new != nil {
			if containsSame(seen, c.new.value) {
				continue
			}
			seen = append(seen, c.new.value)
			v = c.new.value
		}
		if c.old != nil && containsSame(seen, c.old.value) {
			continue
		}
		if c.new != nil {
			sides++
		}
		if c.old != nil {
			sides++
		}
		score += math.Max(1, value.NodeCount(v))
	}
	return score + float64(sides)/9
}

func sideCount(changes []change) int {
	n := 0
	for _, c := range changes {
		if c.old != nil {
			n++
		}
		if c.new != nil {
			n++
		}
	}
	return n
}

func containsSame(values []any, v any) bool {
	return slices.ContainsFunc(values, func(seen any) bool { return value.Same(seen, v) })
}

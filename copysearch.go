package jsondelta

import (
	"strconv"

	"github.com/agentflare-ai/jsondelta/internal/pointer"
	"github.com/agentflare-ai/jsondelta/internal/value"
)

// findCopySource searches source for a location holding want that target
// leaves untouched, other than skip. Arrays are walked pairwise up to the
// shorter length and objects over keys present in both. Every visited node
// costs one unit of budget.
func findCopySource(want, source, target any, skip string, budget *int) (string, bool) {
	return searchCopy(want, source, target, "", skip, budget)
}

func searchCopy(want, src, tgt any, path, skip string, budget *int) (string, bool) {
	visit := func(key string, s, t any) (string, bool) {
		if *budget <= 0 {
			return "", false
		}
		*budget--
		at := pointer.Append(path, key)
		if at != skip && value.Equal(want, s) && value.Equal(s, t) {
			return at, true
		}
		return searchCopy(want, s, t, at, skip, budget)
	}

	switch s := src.(type) {
	case []any:
		t, ok := tgt.([]any)
		if !ok {
			return "", false
		}
		for i := 0; i < min(len(s), len(t)); i++ {
			if at, ok := visit(strconv.Itoa(i), s[i], t[i]); ok {
				return at, true
			}
		}
	case map[string]any:
		t, ok := tgt.(map[string]any)
		if !ok {
			return "", false
		}
		for _, k := range value.Keys(t) {
			sv, found := s[k]
			if !found {
				continue
			}
			if at, ok := visit(k, sv, t[k]); ok {
				return at, true
			}
		}
	}
	return "", false
}

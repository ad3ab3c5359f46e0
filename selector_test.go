package jsondelta

import (
	"math"
	"testing"
)

func newChange(v any) change { return change{new: &side{index: -1, value: v}} }

func oldChange(v any) change { return change{old: &side{index: -1, value: v}} }

func TestComplexity(t *testing.T) {
	shared := map[string]any{"a": 1.0}
	testCases := []struct {
		name    string
		changes []change
		want    float64
	}{
		{name: "empty", want: 0},
		{name: "primitive", changes: []change{newChange(1.0)}, want: 0.1 + 1 + 1.0/9},
		{name: "null counts as one", changes: []change{newChange(nil)}, want: 0.1 + 1 + 1.0/9},
		{name: "removal", changes: []change{oldChange([]any{1.0, 2.0})}, want: 0.1 + 1 + 1.0/9},
		{name: "container", changes: []change{newChange([]any{1.0, 2.0})}, want: 0.1 + 3 + 1.0/9},
		{
			name:    "replacement",
			changes: []change{{old: &side{value: 1.0}, new: &side{value: map[string]any{"a": nil}}}},
			want:    0.1 + 1 + 2.0/9,
		},
		{
			name:    "repeated primitive",
			changes: []change{newChange("x"), newChange("x")},
			want:    0.2 + 1 + 1.0/9,
		},
		{
			name:    "repeated container",
			changes: []change{newChange(shared), newChange(shared)},
			want:    0.2 + 2 + 1.0/9,
		},
		{
			name:    "equal but distinct containers",
			changes: []change{newChange(map[string]any{"a": 1.0}), newChange(map[string]any{"a": 1.0})},
			want:    0.2 + 4 + 2.0/9,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := complexity(tc.changes); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("complexity() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectCheaper(t *testing.T) {
	small := []change{newChange(1.0)}
	big := []change{newChange([]any{1.0, 2.0, 3.0})}

	if got := selectCheaper(big, small); &got[0] != &small[0] {
		t.Errorf("expected the cheaper second list")
	}
	if got := selectCheaper(small, big); &got[0] != &small[0] {
		t.Errorf("expected the cheaper first list")
	}

	other := []change{newChange(2.0)}
	if got := selectCheaper(small, other); &got[0] != &small[0] {
		t.Errorf("expected the first list on a tie")
	}
}

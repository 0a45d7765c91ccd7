package chip

import (
	"slices"
	"testing"
)

func subsets(ids []string) [][]string {
	out := make([][]string, 0, 1<<len(ids))
	for mask := 1; mask < 1<<len(ids); mask++ {
		set := make([]string, 0, len(ids))
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				set = append(set, id)
			}
		}
		out = append(out, set)
	}
	return out
}

func TestCheckCompatibilityPermissive(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	for _, set := range subsets(c.IDs()) {
		result := CheckCompatibility(c, PermissivePolicy(), set)
		if !result.Compatible || result.StrictMode {
			t.Fatalf("expected %v compatible in permissive mode, got %+v", set, result)
		}
	}
}

func TestCheckCompatibilityStrictPair(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	policy := Policy{
		Strict:            true,
		IncompatiblePairs: []Pair{{IDWildcard, IDDoubleDown}},
	}

	for _, set := range subsets(c.IDs()) {
		result := CheckCompatibility(c, policy, set)
		hasPair := slices.Contains(set, IDWildcard) && slices.Contains(set, IDDoubleDown)
		if result.Compatible == hasPair {
			t.Fatalf("set %v: expected compatible=%v, got %+v", set, !hasPair, result)
		}
		if hasPair {
			if result.Reason != "Wildcard and Double Down cannot be used together" {
				t.Fatalf("unexpected reason: %s", result.Reason)
			}
			if !slices.Equal(result.ConflictingChips, []string{IDWildcard, IDDoubleDown}) {
				t.Fatalf("unexpected conflicting chips: %v", result.ConflictingChips)
			}
		}
	}
}

func TestCheckCompatibilityPremium(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()

	tests := []struct {
		name         string
		chips        []string
		wantOK       bool
		wantReason   string
		wantConflict []string
	}{
		{
			name:   "two match chips",
			chips:  []string{IDScorerFocus, IDDoubleDown},
			wantOK: true,
		},
		{
			name:         "max chips wins over pair",
			chips:        []string{IDWildcard, IDDoubleDown, IDScorerFocus},
			wantReason:   "Maximum 2 chips per prediction",
			wantConflict: []string{IDWildcard, IDDoubleDown, IDScorerFocus},
		},
		{
			name:         "multiplier stacking",
			chips:        []string{IDWildcard, IDDoubleDown},
			wantReason:   "Wildcard and Double Down cannot be used together",
			wantConflict: []string{IDWildcard, IDDoubleDown},
		},
		{
			name:         "two gameweek chips",
			chips:        []string{IDDefensePlusPlus, IDAllInWeek},
			wantReason:   "Cannot use multiple gameweek chips together",
			wantConflict: []string{IDDefensePlusPlus, IDAllInWeek},
		},
		{
			name:   "duplicates collapse",
			chips:  []string{IDWildcard, IDWildcard, IDAllInWeek},
			wantOK: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckCompatibility(c, PremiumPolicy(), tc.chips)
			if result.Compatible != tc.wantOK || !result.StrictMode {
				t.Fatalf("expected compatible=%v strict, got %+v", tc.wantOK, result)
			}
			if tc.wantOK {
				return
			}
			if result.Reason != tc.wantReason {
				t.Fatalf("expected reason %q, got %q", tc.wantReason, result.Reason)
			}
			if !slices.Equal(result.ConflictingChips, tc.wantConflict) {
				t.Fatalf("expected conflicting %v, got %v", tc.wantConflict, result.ConflictingChips)
			}
		})
	}
}

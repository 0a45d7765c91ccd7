package chip

import (
	"fmt"

	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
)

// Pair names two chips that may not share a prediction under a strict policy.
type Pair [2]string

// Policy configures the compatibility checker. The zero value is permissive.
type Policy struct {
	Strict bool
	// MaxChips caps the size of a chip set. Zero means no cap.
	MaxChips          int
	IncompatiblePairs []Pair
	// IncompatibleScopes lists scopes of which at most one chip may be present.
	IncompatibleScopes []Scope
}

func PermissivePolicy() Policy {
	return Policy{}
}

// PremiumPolicy is the paywalled rule set: at most two chips, no multiplier
// stacking and a single gameweek chip.
func PremiumPolicy() Policy {
	return Policy{
		Strict:             true,
		MaxChips:           2,
		IncompatiblePairs:  []Pair{{IDWildcard, IDDoubleDown}},
		IncompatibleScopes: []Scope{ScopeGameweek},
	}
}

type CompatibilityResult struct {
	Compatible       bool
	Reason           string
	ConflictingChips []string
	StrictMode       bool
}

// CheckCompatibility validates a proposed chip set. It has no side effects.
func CheckCompatibility(c Catalog, policy Policy, chipIDs []string) CompatibilityResult {
	if !policy.Strict {
		return CompatibilityResult{
			Compatible: true,
			Reason:     "All chip combinations allowed",
		}
	}

	set := prediction.NewChipSet(chipIDs...)
	ids := set.Slice()

	if policy.MaxChips > 0 && set.Len() > policy.MaxChips {
		return CompatibilityResult{
			Reason:           fmt.Sprintf("Maximum %d chips per prediction", policy.MaxChips),
			ConflictingChips: ids,
			StrictMode:       true,
		}
	}

	for _, pair := range policy.IncompatiblePairs {
		if set.Has(pair[0]) && set.Has(pair[1]) {
			return CompatibilityResult{
				Reason:           fmt.Sprintf("%s and %s cannot be used together", c.Name(pair[0]), c.Name(pair[1])),
				ConflictingChips: []string{pair[0], pair[1]},
				StrictMode:       true,
			}
		}
	}

	for _, scope := range policy.IncompatibleScopes {
		inScope := make([]string, 0, len(ids))
		for _, id := range ids {
			if def, ok := c.Get(id); ok && def.Scope == scope {
				inScope = append(inScope, id)
			}
		}
		if len(inScope) > 1 {
			return CompatibilityResult{
				Reason:           fmt.Sprintf("Cannot use multiple %s chips together", scope),
				ConflictingChips: inScope,
				StrictMode:       true,
			}
		}
	}

	return CompatibilityResult{
		Compatible: true,
		Reason:     "Chips can be used together",
		StrictMode: true,
	}
}

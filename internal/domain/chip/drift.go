package chip

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
)

// DriftRecord is a pending prediction missing one or more active gameweek chips.
type DriftRecord struct {
	Prediction prediction.Prediction
	Current    prediction.ChipSet
	Missing    prediction.ChipSet
}

// FindDrift returns the pending predictions of currentGameweek that lack an active
// gameweek chip applicable to them. Order follows predictions.
func FindDrift(c Catalog, predictions []prediction.Prediction, active prediction.ChipSet, currentGameweek int) []DriftRecord {
	if active.IsEmpty() {
		return nil
	}

	out := make([]DriftRecord, 0)
	for _, p := range predictions {
		if !p.IsPendingIn(currentGameweek) {
			continue
		}
		missing := ApplicableChips(c, p, p.Chips.Missing(active))
		if missing.IsEmpty() {
			continue
		}
		out = append(out, DriftRecord{
			Prediction: p,
			Current:    p.Chips,
			Missing:    missing,
		})
	}
	return out
}

// ApplicableChips keeps the ids of chips that may be attached to p.
// Unknown ids are dropped.
func ApplicableChips(c Catalog, p prediction.Prediction, chips prediction.ChipSet) prediction.ChipSet {
	var out prediction.ChipSet
	for _, id := range chips.Slice() {
		def, ok := c.Get(id)
		if !ok {
			continue
		}
		if def.AppliesTo(p).Applicable {
			out = out.With(id)
		}
	}
	return out
}

func (c Catalog) Names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Name(id))
	}
	return out
}

// DriftSummary renders e.g. "2 predictions missing Defense++" or "All predictions up to date".
func DriftSummary(c Catalog, drift []DriftRecord, active prediction.ChipSet) string {
	if len(drift) == 0 {
		return "All predictions up to date"
	}
	noun := "predictions"
	if len(drift) == 1 {
		noun = "prediction"
	}
	return fmt.Sprintf("%d %s missing %s", len(drift), noun, strings.Join(c.Names(active.Slice()), ", "))
}

// DismissalKey identifies a drift prompt by gameweek and the sorted active chip ids.
func DismissalKey(currentGameweek int, active prediction.ChipSet) string {
	return fmt.Sprintf("chipSync_dismissed_gw%d_%s", currentGameweek, strings.Join(active.Sorted(), "-"))
}

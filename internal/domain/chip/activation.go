package chip

import (
	"fmt"

	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

// Detector derives which gameweek a chip was activated in from its cooldown remainder.
type Detector struct {
	catalog Catalog
	logger  *logging.Logger
}

func NewActivationDetector(catalog Catalog, logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Detector{
		catalog: catalog,
		logger:  logger.Named("chip.activation"),
	}
}

// ActivationGameweek returns the gameweek the chip was used in, or false when it cannot be
// determined: no cooldown, chip available, remainder missing, or upstream data out of range.
func (d *Detector) ActivationGameweek(rec StatusRecord, currentGameweek int) (int, bool) {
	def, ok := d.catalog.Get(rec.ChipID)
	if !ok || !def.HasCooldown() {
		return 0, false
	}
	if rec.Available || rec.RemainingGameweeks == nil {
		return 0, false
	}

	remaining := *rec.RemainingGameweeks
	activation := currentGameweek - (def.CooldownGameweeks - remaining)
	if activation < 1 || activation > currentGameweek {
		d.logger.Warn("invalid activation gameweek calculated",
			"chip_id", rec.ChipID,
			"current_gameweek", currentGameweek,
			"cooldown", def.CooldownGameweeks,
			"remaining_gameweeks", remaining,
			"calculated", activation,
		)
		return 0, false
	}
	return activation, true
}

// IsActiveThisGameweek is true only for a gameweek-scoped chip used in currentGameweek.
// Chips without a cooldown leave no remainder to invert, so lastUsedGameweek decides.
func (d *Detector) IsActiveThisGameweek(rec StatusRecord, currentGameweek int) bool {
	def, ok := d.catalog.Get(rec.ChipID)
	if !ok || def.Scope != ScopeGameweek {
		return false
	}
	if !def.HasCooldown() {
		return rec.LastUsedGameweek != nil && *rec.LastUsedGameweek == currentGameweek
	}
	activation, ok := d.ActivationGameweek(rec, currentGameweek)
	return ok && activation == currentGameweek
}

// LockedGameweekChips extends the feed-derived active set with cooldown-free gameweek chips
// whose record carries no lastUsedGameweek but which already sit on a pending prediction
// of currentGameweek. Gameweek chips only reach a prediction through activation.
func (d *Detector) LockedGameweekChips(records []StatusRecord, predictions []prediction.Prediction, currentGameweek int) prediction.ChipSet {
	out := d.ActiveGameweekChips(records, currentGameweek)
	for _, p := range predictions {
		if !p.IsPendingIn(currentGameweek) {
			continue
		}
		for _, id := range p.Chips.Slice() {
			if out.Has(id) || !d.needsPredictionFallback(id, records) {
				continue
			}
			out = out.With(id)
		}
	}
	return out
}

func (d *Detector) needsPredictionFallback(chipID string, records []StatusRecord) bool {
	def, ok := d.catalog.Get(chipID)
	if !ok || def.Scope != ScopeGameweek || def.HasCooldown() {
		return false
	}
	rec, found := FindRecord(records, chipID)
	return !found || rec.LastUsedGameweek == nil
}

func (d *Detector) ActiveGameweekChips(records []StatusRecord, currentGameweek int) prediction.ChipSet {
	var out prediction.ChipSet
	for _, rec := range records {
		if d.IsActiveThisGameweek(rec, currentGameweek) {
			out = out.With(rec.ChipID)
		}
	}
	return out
}

// IsActiveForPrediction answers per scope: match chips by membership in the prediction's
// chip set, gameweek chips by live activation in the status feed.
func (d *Detector) IsActiveForPrediction(chipID string, p prediction.Prediction, records []StatusRecord, currentGameweek int) bool {
	def, ok := d.catalog.Get(chipID)
	if !ok {
		return false
	}
	switch def.Scope {
	case ScopeMatch:
		return p.Chips.Has(chipID)
	case ScopeGameweek:
		for _, rec := range records {
			if rec.ChipID == chipID {
				return d.IsActiveThisGameweek(rec, currentGameweek)
			}
		}
	}
	return false
}

type ActivationState string

const (
	ActivationAvailable   ActivationState = "available"
	ActivationActive      ActivationState = "active"
	ActivationCooldown    ActivationState = "cooldown"
	ActivationExhausted   ActivationState = "exhausted"
	ActivationUnavailable ActivationState = "unavailable"
	ActivationUnknown     ActivationState = "unknown"
)

type ActivationStatus struct {
	ChipID             string
	State              ActivationState
	Message            string
	Color              string
	ActivationGameweek *int
	RemainingGameweeks int
}

func (d *Detector) ActivationStatus(rec StatusRecord, currentGameweek int) ActivationStatus {
	out := ActivationStatus{ChipID: rec.ChipID}
	if _, ok := d.catalog.Get(rec.ChipID); !ok {
		out.State = ActivationUnknown
		out.Message = "Unknown chip"
		return out
	}

	if !d.catalogHasCooldown(rec.ChipID) && d.IsActiveThisGameweek(rec, currentGameweek) {
		out.State = ActivationActive
		out.Message = fmt.Sprintf("Active this gameweek (GW %d)", currentGameweek)
		out.Color = "blue"
		out.ActivationGameweek = intPtr(currentGameweek)
		return out
	}

	if rec.Available {
		out.State = ActivationAvailable
		out.Message = "Ready to use"
		out.Color = "green"
		return out
	}

	activation, hasActivation := d.ActivationGameweek(rec, currentGameweek)
	if hasActivation {
		out.ActivationGameweek = intPtr(activation)
	}

	if hasActivation && activation == currentGameweek && d.catalog.IsGameweekChip(rec.ChipID) {
		out.State = ActivationActive
		out.Message = fmt.Sprintf("Active this gameweek (GW %d)", currentGameweek)
		out.Color = "blue"
		return out
	}

	if rec.RemainingGameweeks != nil && *rec.RemainingGameweeks > 0 {
		remaining := *rec.RemainingGameweeks
		out.State = ActivationCooldown
		out.Message = fmt.Sprintf("Cooldown: %s remaining", pluralGameweeks(remaining))
		out.Color = "amber"
		out.RemainingGameweeks = remaining
		return out
	}

	if rec.RemainingUses != nil && *rec.RemainingUses == 0 {
		out.State = ActivationExhausted
		out.Message = "Season limit reached"
		out.Color = "red"
		return out
	}

	out.State = ActivationUnavailable
	out.Message = rec.Reason
	if out.Message == "" {
		out.Message = "Unavailable"
	}
	out.Color = "gray"
	return out
}

// ActiveChip is the detail view of a gameweek chip that is live this gameweek.
type ActiveChip struct {
	Definition          Definition
	ActivatedInGameweek int
	RemainingGameweeks  int
	ExpiresInGameweek   int
}

func (d *Detector) ActiveChipsDetailed(records []StatusRecord, currentGameweek int) []ActiveChip {
	out := make([]ActiveChip, 0)
	for _, rec := range records {
		if !d.IsActiveThisGameweek(rec, currentGameweek) {
			continue
		}
		def, _ := d.catalog.Get(rec.ChipID)
		remaining := 0
		if rec.RemainingGameweeks != nil {
			remaining = *rec.RemainingGameweeks
		}
		out = append(out, ActiveChip{
			Definition:          def,
			ActivatedInGameweek: currentGameweek,
			RemainingGameweeks:  remaining,
			ExpiresInGameweek:   currentGameweek + remaining,
		})
	}
	return out
}

func (d *Detector) catalogHasCooldown(chipID string) bool {
	def, ok := d.catalog.Get(chipID)
	return ok && def.HasCooldown()
}

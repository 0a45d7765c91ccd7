package chip

import (
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

// ResolveStatusRecords maps backend chip ids onto catalog ids and fills in scopes.
// Records that still match nothing keep their raw id and get ScopeUnknown so callers
// can skip them explicitly. Double Down is not tracked by the backend, so a synthetic
// always-available record is appended when the feed omits it.
func ResolveStatusRecords(c Catalog, records []StatusRecord, logger *logging.Logger) []StatusRecord {
	if logger == nil {
		logger = logging.Default()
	}

	out := make([]StatusRecord, 0, len(records)+1)
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		raw := rec.RawChipID
		if raw == "" {
			raw = rec.ChipID
		}
		rec.RawChipID = raw

		id, ok := c.NormalizeID(raw)
		if !ok {
			logger.Warn("unknown chip id in status feed", "raw_chip_id", raw)
			rec.ChipID = raw
			rec.Scope = ScopeUnknown
			out = append(out, rec)
			continue
		}
		if _, dup := seen[id]; dup {
			logger.Warn("duplicate chip id in status feed", "chip_id", id, "raw_chip_id", raw)
			continue
		}
		seen[id] = struct{}{}

		def, _ := c.Get(id)
		rec.ChipID = id
		rec.Scope = def.Scope
		if rec.SeasonLimit == nil {
			rec.SeasonLimit = copyInt(def.SeasonLimit)
		}
		out = append(out, rec)
	}

	if def, ok := c.Get(IDDoubleDown); ok {
		if _, present := seen[IDDoubleDown]; !present {
			out = append(out, StatusRecord{
				ChipID:    IDDoubleDown,
				RawChipID: IDDoubleDown,
				Scope:     def.Scope,
				Available: true,
				Reason:    "Available",
			})
		}
	}
	return out
}

// FindRecord returns the resolved record for chipID.
func FindRecord(records []StatusRecord, chipID string) (StatusRecord, bool) {
	for _, rec := range records {
		if rec.ChipID == chipID {
			return rec, true
		}
	}
	return StatusRecord{}, false
}

// NormalizePredictionChips returns a copy of predictions with every chip id mapped onto its
// catalog id. Ids that match nothing are kept as sent and logged.
func NormalizePredictionChips(c Catalog, predictions []prediction.Prediction, logger *logging.Logger) []prediction.Prediction {
	if logger == nil {
		logger = logging.Default()
	}

	out := make([]prediction.Prediction, len(predictions))
	for i, p := range predictions {
		ids := p.Chips.Slice()
		normalized := make([]string, 0, len(ids))
		changed := false
		for _, raw := range ids {
			id, ok := c.NormalizeID(raw)
			if !ok {
				logger.Warn("unknown chip id on prediction", "prediction_id", p.ID, "raw_chip_id", raw)
			}
			changed = changed || id != raw
			normalized = append(normalized, id)
		}
		if changed {
			p.Chips = prediction.NewChipSet(normalized...)
		}
		out[i] = p
	}
	return out
}

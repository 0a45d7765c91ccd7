package chip

import "fmt"

// ComputeAvailability derives the status of chipID for the given usage at currentGameweek.
// Rules are evaluated in order and the first match wins: unknown chip, season limit,
// cooldown, available. Season exhaustion is reported before cooldown because it is
// the more permanent blocker.
func ComputeAvailability(c Catalog, chipID string, usage UsageState, currentGameweek int) Status {
	def, ok := c.Get(chipID)
	if !ok {
		return Status{
			ChipID: chipID,
			Code:   StatusUnknownChip,
			Reason: "Unknown chip",
		}
	}

	out := Status{
		ChipID:      chipID,
		UsageCount:  max(usage.SeasonUsageCount, 0),
		SeasonLimit: copyInt(def.SeasonLimit),
	}

	if def.SeasonLimit != nil {
		limit := *def.SeasonLimit
		if out.UsageCount >= limit {
			out.Code = StatusSeasonExhausted
			out.Reason = fmt.Sprintf("Season limit reached (%d/%d used)", out.UsageCount, limit)
			out.RemainingUses = intPtr(0)
			return out
		}
		out.RemainingUses = intPtr(limit - out.UsageCount)
	}

	if def.HasCooldown() && usage.CooldownExpiresAtGameweek != nil {
		lockedThrough := *usage.CooldownExpiresAtGameweek
		if currentGameweek <= lockedThrough {
			remaining := lockedThrough - currentGameweek + 1
			out.Code = StatusCooldown
			out.RemainingGameweeks = remaining
			out.AvailableFromGameweek = intPtr(lockedThrough + 1)
			out.Reason = fmt.Sprintf("On cooldown for %s (available again in GW %d)", pluralGameweeks(remaining), lockedThrough+1)
			return out
		}
	}

	out.Code = StatusAvailable
	out.Available = true
	out.Reason = "Available"
	return out
}

func pluralGameweeks(n int) string {
	if n == 1 {
		return "1 gameweek"
	}
	return fmt.Sprintf("%d gameweeks", n)
}

// StatusFromRecord derives the status of a resolved backend record. The backend's
// available flag wins when it disagrees with the locally derived rules.
func StatusFromRecord(c Catalog, rec StatusRecord, currentGameweek int) Status {
	def, ok := c.Get(rec.ChipID)
	if !ok {
		return ComputeAvailability(c, rec.ChipID, UsageState{}, currentGameweek)
	}

	status := ComputeAvailability(c, rec.ChipID, UsageFromRecord(def, rec, currentGameweek), currentGameweek)
	switch {
	case rec.Available && !status.Available:
		status.Code = StatusAvailable
		status.Available = true
		status.Reason = "Available"
		status.RemainingGameweeks = 0
		status.AvailableFromGameweek = nil
		// The local count disagrees with the backend; only a positive backend count is trusted.
		status.RemainingUses = nil
		if rec.RemainingUses != nil && *rec.RemainingUses > 0 {
			status.RemainingUses = copyInt(rec.RemainingUses)
		}
	case !rec.Available && status.Available:
		status.Code = StatusUnavailable
		status.Available = false
		status.Reason = rec.Reason
		if status.Reason == "" {
			status.Reason = "Unavailable"
		}
	}
	return status
}

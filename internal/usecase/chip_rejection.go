package usecase

import (
	"fmt"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
)

type RejectionCode string

const (
	RejectUnknownChip     RejectionCode = "unknown_chip"
	RejectWrongScope      RejectionCode = "wrong_scope"
	RejectSeasonExhausted RejectionCode = "season_exhausted"
	RejectCooldown        RejectionCode = "cooldown"
	RejectUnavailable     RejectionCode = "unavailable"
	RejectAlreadyActive   RejectionCode = "already_active"
	RejectLocked          RejectionCode = "locked"
	RejectNotActive       RejectionCode = "not_active"
	RejectIncompatible    RejectionCode = "incompatible"
	RejectNotApplicable   RejectionCode = "not_applicable"
	RejectNotEditable     RejectionCode = "not_editable"
)

// Rejection is an expected, user-recoverable refusal. It is returned as a value, not an error.
type Rejection struct {
	Code                  RejectionCode
	ChipID                string
	Reason                string
	AvailableFromGameweek *int
	ConflictingChips      []string
}

// Sentinel maps the rejection onto the chip domain error it corresponds to.
func (r Rejection) Sentinel() error {
	switch r.Code {
	case RejectUnknownChip:
		return chip.ErrUnknownChip
	case RejectLocked:
		return chip.ErrChipLocked
	case RejectIncompatible:
		return chip.ErrIncompatibleChips
	case RejectNotApplicable:
		return chip.ErrChipNotApplicable
	default:
		return chip.ErrChipUnavailable
	}
}

func rejectionFromStatus(status chip.Status) *Rejection {
	out := &Rejection{
		ChipID:                status.ChipID,
		Reason:                status.Reason,
		AvailableFromGameweek: status.AvailableFromGameweek,
	}
	switch status.Code {
	case chip.StatusUnknownChip:
		out.Code = RejectUnknownChip
	case chip.StatusSeasonExhausted:
		out.Code = RejectSeasonExhausted
	case chip.StatusCooldown:
		out.Code = RejectCooldown
	default:
		out.Code = RejectUnavailable
	}
	return out
}

func unknownChipRejection(chipID string) *Rejection {
	return &Rejection{Code: RejectUnknownChip, ChipID: chipID, Reason: "Unknown chip"}
}

func lockedRejection(c chip.Catalog, chipID string, gameweek int) *Rejection {
	return &Rejection{
		Code:   RejectLocked,
		ChipID: chipID,
		Reason: fmt.Sprintf("%s is active for GW %d and cannot be removed", c.Name(chipID), gameweek),
	}
}

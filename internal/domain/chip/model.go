package chip

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
)

var ErrInvalidDefinition = errors.New("invalid chip definition")

type Scope string

const (
	ScopeMatch    Scope = "match"
	ScopeGameweek Scope = "gameweek"
	// ScopeUnknown marks backend records whose id matched no catalog entry.
	ScopeUnknown Scope = "unknown"
)

func ParseScope(v string) (Scope, bool) {
	switch Scope(strings.ToLower(strings.TrimSpace(v))) {
	case ScopeMatch:
		return ScopeMatch, true
	case ScopeGameweek:
		return ScopeGameweek, true
	default:
		return "", false
	}
}

// Requirement restricts which predictions a chip can be attached to.
type Requirement string

const (
	RequirementNone       Requirement = ""
	RequirementCleanSheet Requirement = "clean_sheet"
)

// Definition is the immutable rule set of one chip kind.
type Definition struct {
	ID                string
	Name              string
	Description       string
	Icon              string
	Color             string
	Scope             Scope
	CooldownGameweeks int
	// SeasonLimit is nil when the chip can be used any number of times.
	SeasonLimit *int
	Requirement Requirement
}

func (d Definition) HasCooldown() bool {
	return d.CooldownGameweeks > 0
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDefinition)
	}
	if d.Scope != ScopeMatch && d.Scope != ScopeGameweek {
		return fmt.Errorf("%w: chip=%s scope=%q", ErrInvalidDefinition, d.ID, d.Scope)
	}
	if d.CooldownGameweeks < 0 {
		return fmt.Errorf("%w: chip=%s cooldown must be >= 0", ErrInvalidDefinition, d.ID)
	}
	if d.SeasonLimit != nil && *d.SeasonLimit < 1 {
		return fmt.Errorf("%w: chip=%s season limit must be >= 1", ErrInvalidDefinition, d.ID)
	}
	return nil
}

// Applicability tells whether a chip may be attached to a specific prediction.
type Applicability struct {
	Applicable bool
	Reason     string
}

func (d Definition) AppliesTo(p prediction.Prediction) Applicability {
	switch d.Requirement {
	case RequirementCleanSheet:
		if !p.PredictsCleanSheet() {
			return Applicability{
				Applicable: false,
				Reason:     fmt.Sprintf("%s only applies to clean sheet predictions (0-X or X-0)", d.Name),
			}
		}
	}
	return Applicability{Applicable: true}
}

// UsageState is one user's bookkeeping for one chip.
// CooldownExpiresAtGameweek is the last gameweek the chip stays locked.
type UsageState struct {
	SeasonUsageCount          int
	LastUsedGameweek          *int
	CooldownExpiresAtGameweek *int
}

// Use records a successful use in gameweek gw.
func (u UsageState) Use(def Definition, gw int) UsageState {
	out := UsageState{SeasonUsageCount: u.SeasonUsageCount + 1}
	out.LastUsedGameweek = intPtr(gw)
	if def.HasCooldown() {
		out.CooldownExpiresAtGameweek = intPtr(gw + def.CooldownGameweeks - 1)
	}
	return out
}

// Undo reverses a use made in gameweek gw when the prediction that triggered it is cancelled.
func (u UsageState) Undo(def Definition, gw int) UsageState {
	out := u
	if out.SeasonUsageCount > 0 {
		out.SeasonUsageCount--
	}
	if out.LastUsedGameweek != nil && *out.LastUsedGameweek == gw {
		out.LastUsedGameweek = nil
		out.CooldownExpiresAtGameweek = nil
	}
	if !def.HasCooldown() {
		out.CooldownExpiresAtGameweek = nil
	}
	return out
}

type StatusCode string

const (
	StatusAvailable       StatusCode = "available"
	StatusUnknownChip     StatusCode = "unknown_chip"
	StatusSeasonExhausted StatusCode = "season_exhausted"
	StatusCooldown        StatusCode = "cooldown"
	// StatusUnavailable is reported when the backend blocks a chip for a reason
	// the local rules cannot derive.
	StatusUnavailable StatusCode = "unavailable"
)

// Status is the derived availability view of a chip. It is never persisted.
type Status struct {
	ChipID             string
	Code               StatusCode
	Available          bool
	Reason             string
	RemainingGameweeks int
	UsageCount         int
	SeasonLimit        *int
	RemainingUses      *int
	// AvailableFromGameweek is set when the chip is on cooldown.
	AvailableFromGameweek *int
}

// StatusRecord is one entry of the backend chip-status feed.
// ChipID holds the catalog id after ResolveStatusRecords; RawChipID keeps what the backend sent.
type StatusRecord struct {
	ChipID             string
	RawChipID          string
	Scope              Scope
	Available          bool
	Reason             string
	UsageCount         int
	SeasonLimit        *int
	RemainingUses      *int
	RemainingGameweeks *int
	CooldownExpires    *int
	LastUsedGameweek   *int
}

func (r StatusRecord) Known() bool {
	return r.Scope == ScopeMatch || r.Scope == ScopeGameweek
}

// Feed is the payload of a chip-status fetch.
type Feed struct {
	CurrentGameweek int
	Chips           []StatusRecord
}

// UsageFromRecord rebuilds usage bookkeeping from a backend record.
func UsageFromRecord(def Definition, rec StatusRecord, currentGameweek int) UsageState {
	out := UsageState{
		SeasonUsageCount: max(rec.UsageCount, 0),
		LastUsedGameweek: copyInt(rec.LastUsedGameweek),
	}
	if !def.HasCooldown() {
		return out
	}
	switch {
	case rec.CooldownExpires != nil:
		out.CooldownExpiresAtGameweek = copyInt(rec.CooldownExpires)
	case !rec.Available && rec.RemainingGameweeks != nil && *rec.RemainingGameweeks > 0:
		out.CooldownExpiresAtGameweek = intPtr(currentGameweek + *rec.RemainingGameweeks - 1)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return intPtr(*v)
}

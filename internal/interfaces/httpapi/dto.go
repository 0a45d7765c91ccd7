package httpapi

import (
	"time"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/usecase"
)

type compatibilityRequest struct {
	Chips []string `json:"chips" validate:"required,min=1,max=10,dive,required"`
}

type matchChipsRequest struct {
	Chips []string `json:"chips" validate:"max=10,dive,required"`
}

type chipSyncJobRequest struct {
	UserIDs    []string `json:"user_ids" validate:"required,min=1,max=500,dive,required"`
	MaxWorkers int      `json:"max_workers" validate:"omitempty,min=1,max=32"`
}

type chipDefinitionDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Icon              string `json:"icon"`
	Color             string `json:"color"`
	Scope             string `json:"scope"`
	CooldownGameweeks int    `json:"cooldown_gameweeks"`
	SeasonLimit       *int   `json:"season_limit"`
	Requirement       string `json:"requirement,omitempty"`
}

type chipStatusDTO struct {
	ChipID                string `json:"chip_id"`
	Code                  string `json:"code"`
	Available             bool   `json:"available"`
	Reason                string `json:"reason"`
	RemainingGameweeks    int    `json:"remaining_gameweeks"`
	UsageCount            int    `json:"usage_count"`
	SeasonLimit           *int   `json:"season_limit"`
	RemainingUses         *int   `json:"remaining_uses"`
	AvailableFromGameweek *int   `json:"available_from_gameweek,omitempty"`
}

type activationStatusDTO struct {
	State              string `json:"state"`
	Message            string `json:"message"`
	Color              string `json:"color,omitempty"`
	ActivationGameweek *int   `json:"activation_gameweek,omitempty"`
	RemainingGameweeks int    `json:"remaining_gameweeks"`
}

type chipViewDTO struct {
	Definition      chipDefinitionDTO   `json:"definition"`
	Status          chipStatusDTO       `json:"status"`
	Activation      activationStatusDTO `json:"activation"`
	CooldownText    string              `json:"cooldown_text,omitempty"`
	SeasonLimitText string              `json:"season_limit_text,omitempty"`
}

type activeChipDTO struct {
	ChipID              string `json:"chip_id"`
	Name                string `json:"name"`
	ActivatedInGameweek int    `json:"activated_in_gameweek"`
	RemainingGameweeks  int    `json:"remaining_gameweeks"`
	ExpiresInGameweek   int    `json:"expires_in_gameweek"`
}

type chipOverviewDTO struct {
	UserID          string          `json:"user_id"`
	CurrentGameweek int             `json:"current_gameweek"`
	Chips           []chipViewDTO   `json:"chips"`
	ActiveChips     []activeChipDTO `json:"active_chips"`
	UnknownChips    []string        `json:"unknown_chips,omitempty"`
	FetchedAt       time.Time       `json:"fetched_at"`
}

type compatibilityDTO struct {
	Compatible       bool     `json:"compatible"`
	Reason           string   `json:"reason"`
	ConflictingChips []string `json:"conflicting_chips,omitempty"`
	StrictMode       bool     `json:"strict_mode"`
}

type rejectionDTO struct {
	Code                  string   `json:"code"`
	ChipID                string   `json:"chip_id,omitempty"`
	Reason                string   `json:"reason"`
	AvailableFromGameweek *int     `json:"available_from_gameweek,omitempty"`
	ConflictingChips      []string `json:"conflicting_chips,omitempty"`
}

type predictionRefDTO struct {
	PredictionID string `json:"prediction_id"`
	MatchID      string `json:"match_id"`
	Fixture      string `json:"fixture"`
}

type predictionFailureDTO struct {
	predictionRefDTO
	Error string `json:"error"`
}

type predictionSkipDTO struct {
	predictionRefDTO
	Reason string `json:"reason"`
}

type gameweekApplyDTO struct {
	ChipID          string                 `json:"chip_id"`
	Gameweek        int                    `json:"gameweek"`
	RunID           string                 `json:"run_id"`
	Outcome         string                 `json:"outcome"`
	Summary         string                 `json:"summary"`
	Successes       []predictionRefDTO     `json:"successes"`
	Failures        []predictionFailureDTO `json:"failures"`
	Skipped         []predictionSkipDTO    `json:"skipped"`
	StatusRefreshed bool                   `json:"status_refreshed"`
}

type matchChipsDTO struct {
	PredictionID    string   `json:"prediction_id"`
	MatchID         string   `json:"match_id"`
	Chips           []string `json:"chips"`
	Added           []string `json:"added"`
	Removed         []string `json:"removed"`
	StatusRefreshed bool     `json:"status_refreshed"`
}

type driftRecordDTO struct {
	predictionRefDTO
	CurrentChips []string `json:"current_chips"`
	MissingChips []string `json:"missing_chips"`
}

type driftReportDTO struct {
	CurrentGameweek int              `json:"current_gameweek"`
	ActiveChips     []string         `json:"active_chips"`
	ActiveChipNames []string         `json:"active_chip_names"`
	NeedsSync       bool             `json:"needs_sync"`
	Count           int              `json:"count"`
	Summary         string           `json:"summary"`
	Records         []driftRecordDTO `json:"records"`
	DismissalKey    string           `json:"dismissal_key,omitempty"`
	Dismissed       bool             `json:"dismissed"`
	ShouldPrompt    bool             `json:"should_prompt"`
}

type syncResultDTO struct {
	RunID      string                 `json:"run_id"`
	Gameweek   int                    `json:"gameweek"`
	Total      int                    `json:"total"`
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
	Outcome    string                 `json:"outcome"`
	Summary    string                 `json:"summary"`
	Synced     []predictionRefDTO     `json:"synced"`
	Errors     []predictionFailureDTO `json:"errors"`
	Skipped    []predictionSkipDTO    `json:"skipped"`
}

type dismissDTO struct {
	Key       string `json:"key,omitempty"`
	Dismissed bool   `json:"dismissed"`
}

func definitionToDTO(def chip.Definition) chipDefinitionDTO {
	return chipDefinitionDTO{
		ID:                def.ID,
		Name:              def.Name,
		Description:       def.Description,
		Icon:              def.Icon,
		Color:             def.Color,
		Scope:             string(def.Scope),
		CooldownGameweeks: def.CooldownGameweeks,
		SeasonLimit:       def.SeasonLimit,
		Requirement:       string(def.Requirement),
	}
}

func statusToDTO(status chip.Status) chipStatusDTO {
	return chipStatusDTO{
		ChipID:                status.ChipID,
		Code:                  string(status.Code),
		Available:             status.Available,
		Reason:                status.Reason,
		RemainingGameweeks:    status.RemainingGameweeks,
		UsageCount:            status.UsageCount,
		SeasonLimit:           status.SeasonLimit,
		RemainingUses:         status.RemainingUses,
		AvailableFromGameweek: status.AvailableFromGameweek,
	}
}

func overviewToDTO(overview usecase.ChipOverview) chipOverviewDTO {
	out := chipOverviewDTO{
		UserID:          overview.UserID,
		CurrentGameweek: overview.CurrentGameweek,
		Chips:           make([]chipViewDTO, 0, len(overview.Chips)),
		ActiveChips:     make([]activeChipDTO, 0, len(overview.ActiveChips)),
		UnknownChips:    overview.UnknownChips,
		FetchedAt:       overview.FetchedAt,
	}
	for _, view := range overview.Chips {
		out.Chips = append(out.Chips, chipViewDTO{
			Definition: definitionToDTO(view.Definition),
			Status:     statusToDTO(view.Status),
			Activation: activationStatusDTO{
				State:              string(view.Activation.State),
				Message:            view.Activation.Message,
				Color:              view.Activation.Color,
				ActivationGameweek: view.Activation.ActivationGameweek,
				RemainingGameweeks: view.Activation.RemainingGameweeks,
			},
			CooldownText:    view.CooldownText,
			SeasonLimitText: view.SeasonLimitText,
		})
	}
	for _, active := range overview.ActiveChips {
		out.ActiveChips = append(out.ActiveChips, activeChipDTO{
			ChipID:              active.Definition.ID,
			Name:                active.Definition.Name,
			ActivatedInGameweek: active.ActivatedInGameweek,
			RemainingGameweeks:  active.RemainingGameweeks,
			ExpiresInGameweek:   active.ExpiresInGameweek,
		})
	}
	return out
}

func compatibilityToDTO(result chip.CompatibilityResult) compatibilityDTO {
	return compatibilityDTO{
		Compatible:       result.Compatible,
		Reason:           result.Reason,
		ConflictingChips: result.ConflictingChips,
		StrictMode:       result.StrictMode,
	}
}

func rejectionToDTO(rejection usecase.Rejection) rejectionDTO {
	return rejectionDTO{
		Code:                  string(rejection.Code),
		ChipID:                rejection.ChipID,
		Reason:                rejection.Reason,
		AvailableFromGameweek: rejection.AvailableFromGameweek,
		ConflictingChips:      rejection.ConflictingChips,
	}
}

func refToDTO(ref usecase.PredictionRef) predictionRefDTO {
	return predictionRefDTO{
		PredictionID: ref.PredictionID,
		MatchID:      ref.MatchID,
		Fixture:      ref.Fixture,
	}
}

func refsToDTO(refs []usecase.PredictionRef) []predictionRefDTO {
	out := make([]predictionRefDTO, 0, len(refs))
	for _, ref := range refs {
		out = append(out, refToDTO(ref))
	}
	return out
}

func failuresToDTO(failures []usecase.PredictionFailure) []predictionFailureDTO {
	out := make([]predictionFailureDTO, 0, len(failures))
	for _, item := range failures {
		out = append(out, predictionFailureDTO{predictionRefDTO: refToDTO(item.PredictionRef), Error: item.Error})
	}
	return out
}

func skipsToDTO(skips []usecase.PredictionSkip) []predictionSkipDTO {
	out := make([]predictionSkipDTO, 0, len(skips))
	for _, item := range skips {
		out = append(out, predictionSkipDTO{predictionRefDTO: refToDTO(item.PredictionRef), Reason: item.Reason})
	}
	return out
}

func gameweekApplyToDTO(result usecase.GameweekApplyResult) gameweekApplyDTO {
	return gameweekApplyDTO{
		ChipID:          result.ChipID,
		Gameweek:        result.Gameweek,
		RunID:           result.RunID,
		Outcome:         string(result.Outcome),
		Summary:         result.Summary,
		Successes:       refsToDTO(result.Successes),
		Failures:        failuresToDTO(result.Failures),
		Skipped:         skipsToDTO(result.Skipped),
		StatusRefreshed: result.StatusRefreshed,
	}
}

func matchChipsToDTO(result usecase.MatchChipsResult) matchChipsDTO {
	return matchChipsDTO{
		PredictionID:    result.PredictionID,
		MatchID:         result.MatchID,
		Chips:           nonNil(result.Chips),
		Added:           nonNil(result.Added),
		Removed:         nonNil(result.Removed),
		StatusRefreshed: result.StatusRefreshed,
	}
}

func driftReportToDTO(report usecase.DriftReport) driftReportDTO {
	out := driftReportDTO{
		CurrentGameweek: report.CurrentGameweek,
		ActiveChips:     nonNil(report.ActiveChips),
		ActiveChipNames: nonNil(report.ActiveChipNames),
		NeedsSync:       report.NeedsSync,
		Count:           report.Count,
		Summary:         report.Summary,
		Records:         make([]driftRecordDTO, 0, len(report.Records)),
		DismissalKey:    report.DismissalKey,
		Dismissed:       report.Dismissed,
		ShouldPrompt:    report.ShouldPrompt(),
	}
	for _, rec := range report.Records {
		out.Records = append(out.Records, driftRecordDTO{
			predictionRefDTO: predictionRefFromPrediction(rec.Prediction),
			CurrentChips:     rec.Current.Slice(),
			MissingChips:     rec.Missing.Slice(),
		})
	}
	return out
}

func syncResultToDTO(result usecase.SyncResult) syncResultDTO {
	return syncResultDTO{
		RunID:      result.RunID,
		Gameweek:   result.Gameweek,
		Total:      result.Total,
		Successful: result.Successful,
		Failed:     result.Failed,
		Outcome:    string(result.Outcome),
		Summary:    result.Summary,
		Synced:     refsToDTO(result.Synced),
		Errors:     failuresToDTO(result.Errors),
		Skipped:    skipsToDTO(result.Skipped),
	}
}

func predictionRefFromPrediction(p prediction.Prediction) predictionRefDTO {
	return predictionRefDTO{
		PredictionID: p.ID,
		MatchID:      p.MatchID,
		Fixture:      p.Fixture(),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

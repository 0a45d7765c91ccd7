package predictionsapi

import (
	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
)

type chipStatusResponse struct {
	CurrentGameweek int                `json:"currentGameweek"`
	Chips           []chipStatusRecord `json:"chips"`
}

type chipStatusRecord struct {
	ChipID             string `json:"chipId"`
	Available          bool   `json:"available"`
	Reason             string `json:"reason,omitempty"`
	UsageCount         int    `json:"usageCount"`
	SeasonLimit        *int   `json:"seasonLimit"`
	RemainingUses      *int   `json:"remainingUses,omitempty"`
	RemainingGameweeks *int   `json:"remainingGameweeks,omitempty"`
	CooldownExpires    *int   `json:"cooldownExpires"`
	LastUsedGameweek   *int   `json:"lastUsedGameweek,omitempty"`
}

// toDomain keeps the backend id untouched; chip.ResolveStatusRecords normalizes it.
func (r chipStatusRecord) toDomain() chip.StatusRecord {
	return chip.StatusRecord{
		ChipID:             r.ChipID,
		RawChipID:          r.ChipID,
		Available:          r.Available,
		Reason:             r.Reason,
		UsageCount:         r.UsageCount,
		SeasonLimit:        r.SeasonLimit,
		RemainingUses:      r.RemainingUses,
		RemainingGameweeks: r.RemainingGameweeks,
		CooldownExpires:    r.CooldownExpires,
		LastUsedGameweek:   r.LastUsedGameweek,
	}
}

type predictionListResponse struct {
	Predictions []predictionRecord `json:"predictions"`
}

type predictionRecord struct {
	ID          string   `json:"id"`
	MatchID     string   `json:"matchId"`
	Gameweek    int      `json:"gameweek"`
	Status      string   `json:"status"`
	HomeTeam    string   `json:"homeTeam"`
	AwayTeam    string   `json:"awayTeam"`
	HomeScore   int      `json:"homeScore"`
	AwayScore   int      `json:"awayScore"`
	HomeScorers []string `json:"homeScorers"`
	AwayScorers []string `json:"awayScorers"`
	Chips       []string `json:"chips"`
	Points      *int     `json:"points"`
}

func (r predictionRecord) toDomain() prediction.Prediction {
	return prediction.Prediction{
		ID:          r.ID,
		MatchID:     r.MatchID,
		Gameweek:    r.Gameweek,
		Status:      prediction.Status(r.Status),
		HomeTeam:    r.HomeTeam,
		AwayTeam:    r.AwayTeam,
		HomeScore:   r.HomeScore,
		AwayScore:   r.AwayScore,
		HomeScorers: r.HomeScorers,
		AwayScorers: r.AwayScorers,
		Chips:       prediction.NewChipSet(r.Chips...),
		Points:      r.Points,
	}
}

type updatePredictionRequest struct {
	HomeScore   int      `json:"homeScore"`
	AwayScore   int      `json:"awayScore"`
	HomeScorers []string `json:"homeScorers"`
	AwayScorers []string `json:"awayScorers"`
	Chips       []string `json:"chips"`
}

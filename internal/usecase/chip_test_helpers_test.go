package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	chipmock "github.com/riskibarqy/predictions-chips/internal/mocks/domain/chip"
	predictionmock "github.com/riskibarqy/predictions-chips/internal/mocks/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/cache"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

type chipFixture struct {
	source      *chipmock.StatusSource
	predictions *predictionmock.Repository
	dismissals  *chipmock.DismissalStore
	status      *ChipStatusService
}

func newChipFixture(t *testing.T) chipFixture {
	t.Helper()

	source := chipmock.NewStatusSource(t)
	return chipFixture{
		source:      source,
		predictions: predictionmock.NewRepository(t),
		dismissals:  chipmock.NewDismissalStore(t),
		status:      NewChipStatusService(chip.DefaultCatalog(), source, cache.NewStore[ChipStatusSnapshot](time.Minute), logging.NewNop()),
	}
}

func intRef(v int) *int {
	return &v
}

func feed(gameweek int, records ...chip.StatusRecord) chip.Feed {
	return chip.Feed{CurrentGameweek: gameweek, Chips: records}
}

// activeRecord is a gameweek chip record as the backend reports it in the gameweek it was used.
func activeRecord(rawID string, cooldown int) chip.StatusRecord {
	return chip.StatusRecord{ChipID: rawID, Available: false, UsageCount: 1, RemainingGameweeks: intRef(cooldown)}
}

func availableRecord(rawID string) chip.StatusRecord {
	return chip.StatusRecord{ChipID: rawID, Available: true, RemainingGameweeks: intRef(0)}
}

func pending(id string, gameweek, home, away int, chips ...string) prediction.Prediction {
	return prediction.Prediction{
		ID:          id,
		MatchID:     "match-" + id,
		Gameweek:    gameweek,
		Status:      prediction.StatusPending,
		HomeTeam:    "Home " + id,
		AwayTeam:    "Away " + id,
		HomeScore:   home,
		AwayScore:   away,
		HomeScorers: []string{"Scorer " + id},
		Chips:       prediction.NewChipSet(chips...),
	}
}

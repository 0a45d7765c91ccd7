package memory

import "github.com/riskibarqy/predictions-chips/internal/domain/prediction"

const (
	DemoUserID       = "demo-user"
	SeedGameweek     = 8
	seedPrevGameweek = SeedGameweek - 1
)

// SeedPredictions returns a small prediction sheet for the demo user: five open
// fixtures in the current gameweek and two settled ones from the previous gameweek.
func SeedPredictions() map[string][]prediction.Prediction {
	points := func(v int) *int { return &v }

	return map[string][]prediction.Prediction{
		DemoUserID: {
			{ID: "pred-801", MatchID: "match-801", Gameweek: SeedGameweek, Status: prediction.StatusPending, HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeScore: 2, AwayScore: 0, HomeScorers: []string{"Saka", "Havertz"}},
			{ID: "pred-802", MatchID: "match-802", Gameweek: SeedGameweek, Status: prediction.StatusPending, HomeTeam: "Liverpool", AwayTeam: "Everton", HomeScore: 3, AwayScore: 1, HomeScorers: []string{"Salah"}, AwayScorers: []string{"Calvert-Lewin"}},
			{ID: "pred-803", MatchID: "match-803", Gameweek: SeedGameweek, Status: prediction.StatusPending, HomeTeam: "Brighton", AwayTeam: "Fulham", HomeScore: 0, AwayScore: 0},
			{ID: "pred-804", MatchID: "match-804", Gameweek: SeedGameweek, Status: prediction.StatusPending, HomeTeam: "Newcastle", AwayTeam: "Aston Villa", HomeScore: 1, AwayScore: 1, HomeScorers: []string{"Isak"}, AwayScorers: []string{"Watkins"}},
			{ID: "pred-805", MatchID: "match-805", Gameweek: SeedGameweek, Status: prediction.StatusPending, HomeTeam: "Man City", AwayTeam: "Spurs", HomeScore: 2, AwayScore: 1, HomeScorers: []string{"Haaland", "Foden"}, AwayScorers: []string{"Son"}, Chips: prediction.NewChipSet("doubleDown")},
			{ID: "pred-701", MatchID: "match-701", Gameweek: seedPrevGameweek, Status: prediction.StatusCompleted, HomeTeam: "Chelsea", AwayTeam: "Wolves", HomeScore: 1, AwayScore: 0, HomeScorers: []string{"Palmer"}, Points: points(8)},
			{ID: "pred-702", MatchID: "match-702", Gameweek: seedPrevGameweek, Status: prediction.StatusCompleted, HomeTeam: "Everton", AwayTeam: "Arsenal", HomeScore: 0, AwayScore: 2, AwayScorers: []string{"Saka"}, Points: points(3)},
		},
	}
}

package usecase

import (
	"errors"
	"slices"
	"testing"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/batch"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func chipsEqual(want ...string) func(prediction.UpdateInput) bool {
	return func(input prediction.UpdateInput) bool {
		return slices.Equal(input.Chips, want)
	}
}

func TestGameweekChipService_ApplyGameweekChip_PartialFailure(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())

	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, availableRecord("ALL_IN_WEEK"), availableRecord("DEFENSE_PLUS_PLUS")), nil).
		Once()
	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, chip.StatusRecord{ChipID: "ALL_IN_WEEK", Available: false, UsageCount: 1}, availableRecord("DEFENSE_PLUS_PLUS")), nil).
		Once()

	completed := pending("done", 6, 1, 0)
	completed.Status = prediction.StatusCompleted
	fx.predictions.
		On("ListByUser", mock.Anything, "u1").
		Return([]prediction.Prediction{
			pending("p1", 6, 2, 1, chip.IDWildcard),
			pending("p2", 6, 0, 0),
			pending("p3", 6, 1, 3),
			completed,
			pending("p4", 6, 2, 2),
			pending("old", 5, 1, 0),
			pending("p5", 6, 3, 1),
		}, nil).
		Once()

	fx.predictions.On("Update", mock.Anything, "u1", "p1", mock.MatchedBy(chipsEqual(chip.IDWildcard, chip.IDAllInWeek))).Return(nil).Once()
	fx.predictions.On("Update", mock.Anything, "u1", "p2", mock.MatchedBy(chipsEqual(chip.IDAllInWeek))).Return(errors.New("context deadline exceeded")).Once()
	fx.predictions.On("Update", mock.Anything, "u1", "p3", mock.Anything).Return(nil).Once()
	fx.predictions.On("Update", mock.Anything, "u1", "p4", mock.Anything).Return(errors.New("502 bad gateway")).Once()
	fx.predictions.On("Update", mock.Anything, "u1", "p5", mock.MatchedBy(chipsEqual(chip.IDAllInWeek))).Return(nil).Once()

	result, err := service.ApplyGameweekChip(t.Context(), "u1", "allInWeek")
	if err != nil {
		t.Fatalf("apply gameweek chip: %v", err)
	}
	if result.Rejection != nil {
		t.Fatalf("unexpected rejection: %+v", result.Rejection)
	}
	if len(result.Successes) != 3 || len(result.Failures) != 2 {
		t.Fatalf("expected 3 successes and 2 failures, got %d/%d", len(result.Successes), len(result.Failures))
	}
	if result.Failures[0].MatchID != "match-p2" || result.Failures[1].MatchID != "match-p4" {
		t.Fatalf("unexpected failures: %+v", result.Failures)
	}
	if result.Outcome != batch.OutcomePartial {
		t.Fatalf("expected partial outcome, got %s", result.Outcome)
	}
	if result.Summary != "applied to 3/5 predictions, 2 failed" {
		t.Fatalf("unexpected summary: %s", result.Summary)
	}
	if !result.StatusRefreshed {
		t.Fatalf("expected chip status refresh after apply")
	}
}

func TestGameweekChipService_ApplyGameweekChip_NoEligiblePredictions(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())

	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, availableRecord("DEFENSE_PLUS_PLUS")), nil).
		Once()
	fx.predictions.
		On("ListByUser", mock.Anything, "u1").
		Return([]prediction.Prediction{pending("old", 5, 1, 0)}, nil).
		Once()

	result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDDefensePlusPlus)
	if err != nil {
		t.Fatalf("expected no-op, got error %v", err)
	}
	if result.Outcome != batch.OutcomeNoop || len(result.Successes) != 0 || len(result.Failures) != 0 {
		t.Fatalf("unexpected no-op result: %+v", result)
	}
	if result.Summary != "no eligible predictions" {
		t.Fatalf("unexpected summary: %s", result.Summary)
	}
}

func TestGameweekChipService_ApplyGameweekChip_SkipsInapplicablePredictions(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())

	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, availableRecord("DEFENSE_PLUS_PLUS")), nil).
		Twice()
	fx.predictions.
		On("ListByUser", mock.Anything, "u1").
		Return([]prediction.Prediction{pending("clean", 6, 2, 0), pending("open", 6, 2, 1)}, nil).
		Once()
	fx.predictions.
		On("Update", mock.Anything, "u1", "clean", mock.MatchedBy(chipsEqual(chip.IDDefensePlusPlus))).
		Return(nil).
		Once()

	result, err := service.ApplyGameweekChip(t.Context(), "u1", "DEFENSE_PLUS_PLUS")
	if err != nil {
		t.Fatalf("apply gameweek chip: %v", err)
	}
	if result.Outcome != batch.OutcomeAllSucceeded || len(result.Successes) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].PredictionID != "open" {
		t.Fatalf("expected the 2-1 prediction skipped, got %+v", result.Skipped)
	}
}

func TestGameweekChipService_ApplyGameweekChip_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		chipID   string
		feed     *chip.Feed
		policy   chip.Policy
		wantCode RejectionCode
	}{
		{
			name:     "unknown chip",
			chipID:   "tripleCaptain",
			wantCode: RejectUnknownChip,
		},
		{
			name:     "match chip",
			chipID:   chip.IDWildcard,
			wantCode: RejectWrongScope,
		},
		{
			name:     "cooldown",
			chipID:   chip.IDDefensePlusPlus,
			feed:     &chip.Feed{CurrentGameweek: 6, Chips: []chip.StatusRecord{{ChipID: "DEFENSE_PLUS_PLUS", RemainingGameweeks: intRef(3), UsageCount: 1}}},
			wantCode: RejectCooldown,
		},
		{
			name:     "season exhausted",
			chipID:   chip.IDAllInWeek,
			feed:     &chip.Feed{CurrentGameweek: 6, Chips: []chip.StatusRecord{{ChipID: "ALL_IN_WEEK", UsageCount: 4, RemainingUses: intRef(0)}}},
			wantCode: RejectSeasonExhausted,
		},
		{
			name:     "already active",
			chipID:   chip.IDDefensePlusPlus,
			feed:     &chip.Feed{CurrentGameweek: 6, Chips: []chip.StatusRecord{activeRecord("DEFENSE_PLUS_PLUS", 5)}},
			wantCode: RejectAlreadyActive,
		},
		{
			name:     "second gameweek chip under premium policy",
			chipID:   chip.IDAllInWeek,
			feed:     &chip.Feed{CurrentGameweek: 6, Chips: []chip.StatusRecord{activeRecord("DEFENSE_PLUS_PLUS", 5), availableRecord("ALL_IN_WEEK")}},
			policy:   chip.PremiumPolicy(),
			wantCode: RejectIncompatible,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fx := newChipFixture(t)
			service := NewGameweekChipService(fx.predictions, fx.status, tc.policy, logging.NewNop())
			if tc.feed != nil {
				fx.source.On("FetchStatus", mock.Anything, "u1").Return(*tc.feed, nil).Once()
			}

			result, err := service.ApplyGameweekChip(t.Context(), "u1", tc.chipID)
			if err != nil {
				t.Fatalf("rejections must not be errors, got %v", err)
			}
			if result.Rejection == nil || result.Rejection.Code != tc.wantCode {
				t.Fatalf("expected rejection %s, got %+v", tc.wantCode, result.Rejection)
			}
			if result.Rejection.Reason == "" {
				t.Fatalf("rejection must explain why")
			}
		})
	}
}

func TestGameweekChipService_ApplyGameweekChip_CooldownReportsWhen(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, chip.StatusRecord{ChipID: "DEFENSE_PLUS_PLUS", RemainingGameweeks: intRef(3), UsageCount: 1}), nil).
		Once()

	result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDDefensePlusPlus)
	if err != nil {
		t.Fatalf("apply gameweek chip: %v", err)
	}
	if result.Rejection.AvailableFromGameweek == nil || *result.Rejection.AvailableFromGameweek != 9 {
		t.Fatalf("expected available again in GW 9, got %v", result.Rejection.AvailableFromGameweek)
	}
}

func TestGameweekChipService_ApplyGameweekChip_UpstreamFailure(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
	fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6, availableRecord("ALL_IN_WEEK")), nil).Once()
	fx.predictions.On("ListByUser", mock.Anything, "u1").Return(nil, errors.New("connection reset")).Once()

	_, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDAllInWeek)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestGameweekChipService_DeactivateGameweekChip(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, activeRecord("DEFENSE_PLUS_PLUS", 5), availableRecord("ALL_IN_WEEK")), nil).
		Once()

	locked, err := service.DeactivateGameweekChip(t.Context(), "u1", chip.IDDefensePlusPlus)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if locked.Code != RejectLocked || !errors.Is(locked.Sentinel(), chip.ErrChipLocked) {
		t.Fatalf("expected locked rejection, got %+v", locked)
	}
	if locked.Reason != "Defense++ is active for GW 6 and cannot be removed" {
		t.Fatalf("unexpected reason: %s", locked.Reason)
	}

	fx.predictions.
		On("ListByUser", mock.Anything, "u1").
		Return([]prediction.Prediction{pending("p1", 6, 1, 0, chip.IDDefensePlusPlus)}, nil).
		Once()

	inactive, err := service.DeactivateGameweekChip(t.Context(), "u1", chip.IDAllInWeek)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if inactive.Code != RejectNotActive {
		t.Fatalf("expected not active rejection, got %+v", inactive)
	}
}

// allInWeekUsedIn is the backend record of an All-In Week activated in gameweek.
func allInWeekUsedIn(gameweek int) chip.StatusRecord {
	return chip.StatusRecord{ChipID: "ALL_IN_WEEK", UsageCount: 1, RemainingUses: intRef(3), LastUsedGameweek: intRef(gameweek)}
}

// allInWeekWithoutLastUsed is the same activation reported without lastUsedGameweek.
func allInWeekWithoutLastUsed() chip.StatusRecord {
	return chip.StatusRecord{ChipID: "ALL_IN_WEEK", Available: true, UsageCount: 1, RemainingUses: intRef(3)}
}

func TestGameweekChipService_DeactivateGameweekChip_AllInWeekLocked(t *testing.T) {
	t.Parallel()

	t.Run("last used gameweek", func(t *testing.T) {
		t.Parallel()

		fx := newChipFixture(t)
		service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
		fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6, allInWeekUsedIn(6)), nil).Once()

		got, err := service.DeactivateGameweekChip(t.Context(), "u1", chip.IDAllInWeek)
		if err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		if got.Code != RejectLocked || got.Reason != "All-In Week is active for GW 6 and cannot be removed" {
			t.Fatalf("expected locked rejection, got %+v", got)
		}
	})

	t.Run("pending prediction", func(t *testing.T) {
		t.Parallel()

		fx := newChipFixture(t)
		service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
		fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6, allInWeekWithoutLastUsed()), nil).Once()
		fx.predictions.
			On("ListByUser", mock.Anything, "u1").
			Return([]prediction.Prediction{pending("p1", 6, 1, 0, "ALL_IN_WEEK")}, nil).
			Once()

		got, err := service.DeactivateGameweekChip(t.Context(), "u1", chip.IDAllInWeek)
		if err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		if got.Code != RejectLocked {
			t.Fatalf("expected locked rejection, got %+v", got)
		}
	})
}

func TestGameweekChipService_ApplyMatchChips_AllInWeekCannotBeRemoved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record chip.StatusRecord
	}{
		{name: "last used gameweek", record: allInWeekUsedIn(6)},
		{name: "pending prediction", record: allInWeekWithoutLastUsed()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fx := newChipFixture(t)
			service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
			fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6, tc.record, availableRecord("WILDCARD")), nil).Once()
			fx.predictions.
				On("ListByUser", mock.Anything, "u1").
				Return([]prediction.Prediction{pending("p1", 6, 2, 1, "ALL_IN_WEEK", "wildcard")}, nil).
				Once()

			result, err := service.ApplyMatchChips(t.Context(), "u1", "p1", []string{chip.IDWildcard})
			if err != nil {
				t.Fatalf("apply match chips: %v", err)
			}
			if result.Rejection == nil || result.Rejection.Code != RejectLocked || result.Rejection.ChipID != chip.IDAllInWeek {
				t.Fatalf("expected all-in week locked, got %+v", result.Rejection)
			}
		})
	}
}

func TestGameweekChipService_ApplyGameweekChip_AllInWeekTwiceInGameweek(t *testing.T) {
	t.Parallel()

	t.Run("last used gameweek", func(t *testing.T) {
		t.Parallel()

		fx := newChipFixture(t)
		service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
		fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6, allInWeekUsedIn(6)), nil).Once()

		result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDAllInWeek)
		if err != nil {
			t.Fatalf("apply gameweek chip: %v", err)
		}
		if result.Rejection == nil || result.Rejection.Code != RejectAlreadyActive {
			t.Fatalf("expected already active, got %+v", result.Rejection)
		}
	})

	t.Run("pending prediction", func(t *testing.T) {
		t.Parallel()

		fx := newChipFixture(t)
		service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
		fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6, allInWeekWithoutLastUsed()), nil).Once()
		fx.predictions.
			On("ListByUser", mock.Anything, "u1").
			Return([]prediction.Prediction{pending("p1", 6, 1, 0, chip.IDAllInWeek), pending("p2", 6, 2, 2)}, nil).
			Once()

		result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDAllInWeek)
		if err != nil {
			t.Fatalf("apply gameweek chip: %v", err)
		}
		if result.Rejection == nil || result.Rejection.Code != RejectAlreadyActive {
			t.Fatalf("expected already active, got %+v", result.Rejection)
		}
	})
}

func TestGameweekChipService_ApplyGameweekChip_PremiumBlocksSecondGameweekChip(t *testing.T) {
	t.Parallel()

	t.Run("last used gameweek", func(t *testing.T) {
		t.Parallel()

		fx := newChipFixture(t)
		service := NewGameweekChipService(fx.predictions, fx.status, chip.PremiumPolicy(), logging.NewNop())
		fx.source.
			On("FetchStatus", mock.Anything, "u1").
			Return(feed(6, allInWeekUsedIn(6), availableRecord("DEFENSE_PLUS_PLUS")), nil).
			Once()

		result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDDefensePlusPlus)
		if err != nil {
			t.Fatalf("apply gameweek chip: %v", err)
		}
		if result.Rejection == nil || result.Rejection.Code != RejectIncompatible {
			t.Fatalf("expected incompatible, got %+v", result.Rejection)
		}
		if !slices.Equal(result.Rejection.ConflictingChips, []string{chip.IDAllInWeek, chip.IDDefensePlusPlus}) {
			t.Fatalf("unexpected conflicting chips: %v", result.Rejection.ConflictingChips)
		}
	})

	t.Run("pending prediction", func(t *testing.T) {
		t.Parallel()

		fx := newChipFixture(t)
		service := NewGameweekChipService(fx.predictions, fx.status, chip.PremiumPolicy(), logging.NewNop())
		fx.source.
			On("FetchStatus", mock.Anything, "u1").
			Return(feed(6, allInWeekWithoutLastUsed(), availableRecord("DEFENSE_PLUS_PLUS")), nil).
			Once()
		fx.predictions.
			On("ListByUser", mock.Anything, "u1").
			Return([]prediction.Prediction{pending("p1", 6, 1, 0, chip.IDAllInWeek)}, nil).
			Once()

		result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDDefensePlusPlus)
		if err != nil {
			t.Fatalf("apply gameweek chip: %v", err)
		}
		if result.Rejection == nil || result.Rejection.Code != RejectIncompatible {
			t.Fatalf("expected incompatible, got %+v", result.Rejection)
		}
	})
}

func TestGameweekChipService_ApplyGameweekChip_StrictPolicySkipsOverfullPredictions(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PremiumPolicy(), logging.NewNop())
	fx.source.
		On("FetchStatus", mock.Anything, "u1").
		Return(feed(6, availableRecord("DEFENSE_PLUS_PLUS")), nil).
		Twice()
	fx.predictions.
		On("ListByUser", mock.Anything, "u1").
		Return([]prediction.Prediction{
			pending("full", 6, 2, 0, "WILDCARD", "scorer_focus"),
			pending("open", 6, 1, 0),
		}, nil).
		Once()
	fx.predictions.
		On("Update", mock.Anything, "u1", "open", mock.MatchedBy(chipsEqual(chip.IDDefensePlusPlus))).
		Return(nil).
		Once()

	result, err := service.ApplyGameweekChip(t.Context(), "u1", chip.IDDefensePlusPlus)
	if err != nil {
		t.Fatalf("apply gameweek chip: %v", err)
	}
	if len(result.Successes) != 1 || result.Successes[0].PredictionID != "open" {
		t.Fatalf("expected only the open prediction updated, got %+v", result.Successes)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].PredictionID != "full" || result.Skipped[0].Reason != "Maximum 2 chips per prediction" {
		t.Fatalf("expected the full prediction skipped, got %+v", result.Skipped)
	}
	fx.predictions.AssertNotCalled(t, "Update", mock.Anything, "u1", "full", mock.Anything)
}

func TestGameweekChipService_ApplyMatchChips(t *testing.T) {
	t.Parallel()

	statusFeed := feed(6,
		activeRecord("DEFENSE_PLUS_PLUS", 5),
		availableRecord("WILDCARD"),
		chip.StatusRecord{ChipID: "SCORER_FOCUS", RemainingGameweeks: intRef(2), UsageCount: 1},
	)
	completed := pending("done", 6, 1, 0)
	completed.Status = prediction.StatusCompleted
	predictions := []prediction.Prediction{
		pending("p1", 6, 1, 0, chip.IDDefensePlusPlus),
		pending("p2", 6, 2, 2),
		completed,
	}

	tests := []struct {
		name       string
		prediction string
		chips      []string
		wantCode   RejectionCode
		wantUpdate []string
	}{
		{
			name:       "adds match chip and keeps active gameweek chip",
			prediction: "p1",
			chips:      []string{"DEFENSE_PLUS_PLUS", "WILDCARD"},
			wantUpdate: []string{chip.IDDefensePlusPlus, chip.IDWildcard},
		},
		{
			name:       "dropping active gameweek chip is locked",
			prediction: "p1",
			chips:      []string{chip.IDWildcard},
			wantCode:   RejectLocked,
		},
		{
			name:       "match chip on cooldown",
			prediction: "p2",
			chips:      []string{chip.IDScorerFocus},
			wantCode:   RejectCooldown,
		},
		{
			name:       "gameweek chip needs activation",
			prediction: "p2",
			chips:      []string{chip.IDAllInWeek},
			wantCode:   RejectWrongScope,
		},
		{
			name:       "active gameweek chip not applicable",
			prediction: "p2",
			chips:      []string{chip.IDDefensePlusPlus},
			wantCode:   RejectNotApplicable,
		},
		{
			name:       "completed prediction",
			prediction: "done",
			chips:      []string{chip.IDWildcard},
			wantCode:   RejectNotEditable,
		},
		{
			name:       "unknown chip",
			prediction: "p2",
			chips:      []string{"TRIPLE_CAPTAIN"},
			wantCode:   RejectUnknownChip,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fx := newChipFixture(t)
			service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())

			if tc.wantCode != RejectUnknownChip {
				fx.source.On("FetchStatus", mock.Anything, "u1").Return(statusFeed, nil).Maybe()
				fx.predictions.On("ListByUser", mock.Anything, "u1").Return(predictions, nil).Once()
			}
			if tc.wantUpdate != nil {
				fx.predictions.
					On("Update", mock.Anything, "u1", tc.prediction, mock.MatchedBy(chipsEqual(tc.wantUpdate...))).
					Return(nil).
					Once()
			}

			result, err := service.ApplyMatchChips(t.Context(), "u1", tc.prediction, tc.chips)
			if err != nil {
				t.Fatalf("apply match chips: %v", err)
			}
			if tc.wantCode == "" {
				if result.Rejection != nil {
					t.Fatalf("unexpected rejection: %+v", result.Rejection)
				}
				if !slices.Equal(result.Added, []string{chip.IDWildcard}) || !result.StatusRefreshed {
					t.Fatalf("unexpected result: %+v", result)
				}
				return
			}
			if result.Rejection == nil || result.Rejection.Code != tc.wantCode {
				t.Fatalf("expected rejection %s, got %+v", tc.wantCode, result.Rejection)
			}
		})
	}
}

func TestGameweekChipService_ApplyMatchChips_PredictionNotFound(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	service := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
	fx.source.On("FetchStatus", mock.Anything, "u1").Return(feed(6), nil).Once()
	fx.predictions.On("ListByUser", mock.Anything, "u1").Return([]prediction.Prediction{}, nil).Once()

	_, err := service.ApplyMatchChips(t.Context(), "u1", "missing", []string{chip.IDWildcard})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGameweekChipService_CheckCompatibility(t *testing.T) {
	t.Parallel()

	fx := newChipFixture(t)
	permissive := NewGameweekChipService(fx.predictions, fx.status, chip.PermissivePolicy(), logging.NewNop())
	premium := NewGameweekChipService(fx.predictions, fx.status, chip.PremiumPolicy(), logging.NewNop())
	chips := []string{"WILDCARD", "doubleDown"}

	got, err := permissive.CheckCompatibility(chips)
	if err != nil || !got.Compatible {
		t.Fatalf("expected permissive compatible, got %+v (%v)", got, err)
	}
	got, err = premium.CheckCompatibility(chips)
	if err != nil || got.Compatible {
		t.Fatalf("expected premium rejection, got %+v (%v)", got, err)
	}
	if _, err := premium.CheckCompatibility([]string{"TRIPLE_CAPTAIN"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown chip, got %v", err)
	}
}

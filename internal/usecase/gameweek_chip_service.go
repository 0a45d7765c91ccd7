package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/batch"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

type PredictionRef struct {
	PredictionID string
	MatchID      string
	Fixture      string
}

type PredictionFailure struct {
	PredictionRef
	Error string
}

type PredictionSkip struct {
	PredictionRef
	Reason string
}

// GameweekApplyResult reports a retroactive gameweek chip activation.
// Rejection is set when nothing was attempted because the chip may not be activated.
type GameweekApplyResult struct {
	ChipID          string
	Gameweek        int
	Rejection       *Rejection
	RunID           string
	Outcome         batch.Outcome
	Successes       []PredictionRef
	Failures        []PredictionFailure
	Skipped         []PredictionSkip
	Summary         string
	StatusRefreshed bool
}

type MatchChipsResult struct {
	PredictionID    string
	MatchID         string
	Chips           []string
	Added           []string
	Removed         []string
	Rejection       *Rejection
	StatusRefreshed bool
}

type GameweekChipService struct {
	catalog     chip.Catalog
	predictions prediction.Repository
	status      *ChipStatusService
	policy      chip.Policy
	runner      *batch.Runner
	logger      *logging.Logger
}

func NewGameweekChipService(
	predictions prediction.Repository,
	status *ChipStatusService,
	policy chip.Policy,
	logger *logging.Logger,
) *GameweekChipService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameweekChipService{
		catalog:     status.Catalog(),
		predictions: predictions,
		status:      status,
		policy:      policy,
		runner:      batch.NewRunner("gameweek_chip_apply", logger),
		logger:      logger,
	}
}

func (s *GameweekChipService) Policy() chip.Policy {
	return s.policy
}

// CheckCompatibility validates a chip set speculatively. Backend-style ids are normalized first.
func (s *GameweekChipService) CheckCompatibility(chipIDs []string) (chip.CompatibilityResult, error) {
	if len(chipIDs) == 0 {
		return chip.CompatibilityResult{}, fmt.Errorf("%w: at least one chip id is required", ErrInvalidInput)
	}
	ids, unknown := s.normalizeIDs(chipIDs)
	if len(unknown) > 0 {
		return chip.CompatibilityResult{}, fmt.Errorf("%w: unknown chips: %s", ErrInvalidInput, strings.Join(unknown, ", "))
	}
	return chip.CheckCompatibility(s.catalog, s.policy, ids.Slice()), nil
}

// ApplyGameweekChip activates a gameweek chip and applies it to every eligible pending
// prediction of the current gameweek, one update at a time.
func (s *GameweekChipService) ApplyGameweekChip(ctx context.Context, userID, chipID string) (GameweekApplyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameweekChipService.ApplyGameweekChip",
		attribute.String("user_id", userID),
		attribute.String("chip_id", chipID),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(chipID) == "" {
		return GameweekApplyResult{}, fmt.Errorf("%w: user id and chip id are required", ErrInvalidInput)
	}

	id, ok := s.catalog.NormalizeID(chipID)
	if !ok {
		return GameweekApplyResult{ChipID: chipID, Rejection: unknownChipRejection(chipID)}, nil
	}
	def, _ := s.catalog.Get(id)
	if def.Scope != chip.ScopeGameweek {
		return GameweekApplyResult{ChipID: id, Rejection: &Rejection{
			Code:   RejectWrongScope,
			ChipID: id,
			Reason: fmt.Sprintf("%s is a match chip and must be applied to a single prediction", def.Name),
		}}, nil
	}

	snapshot, err := s.status.Refresh(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return GameweekApplyResult{}, err
	}
	gw := snapshot.CurrentGameweek
	result := GameweekApplyResult{ChipID: id, Gameweek: gw}

	if snapshot.ActiveGameweekChips.Has(id) {
		result.Rejection = alreadyActiveRejection(def, gw)
		return result, nil
	}
	if status := s.status.statusOf(snapshot, id); !status.Available {
		result.Rejection = rejectionFromStatus(status)
		return result, nil
	}
	if rejection := s.gameweekConflict(def, snapshot.ActiveGameweekChips); rejection != nil {
		result.Rejection = rejection
		return result, nil
	}

	// Refetch right before filtering so chips applied by a concurrent operation are merged, not overwritten.
	predictions, err := s.predictions.ListByUser(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return GameweekApplyResult{}, fmt.Errorf("%w: list predictions: %w", ErrDependencyUnavailable, err)
	}
	predictions = chip.NormalizePredictionChips(s.catalog, predictions, s.logger)

	// The feed alone misses cooldown-free chips the backend reports without lastUsedGameweek.
	locked := s.status.Detector().LockedGameweekChips(snapshot.Records, predictions, gw)
	if locked.Has(id) {
		result.Rejection = alreadyActiveRejection(def, gw)
		return result, nil
	}
	if rejection := s.gameweekConflict(def, locked); rejection != nil {
		result.Rejection = rejection
		return result, nil
	}

	eligible := make([]prediction.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if !p.IsPendingIn(gw) {
			continue
		}
		if applicability := def.AppliesTo(p); !applicability.Applicable {
			result.Skipped = append(result.Skipped, PredictionSkip{PredictionRef: refOf(p), Reason: applicability.Reason})
			continue
		}
		eligible = append(eligible, p)
	}

	byID := indexPredictions(eligible)
	run := batch.Run(ctx, s.runner, eligible, predictionKey, func(ctx context.Context, p prediction.Prediction) error {
		merged := p.Chips.With(id)
		if compat := chip.CheckCompatibility(s.catalog, s.policy, merged.Slice()); !compat.Compatible {
			return batch.Skip(compat.Reason)
		}
		return s.predictions.Update(ctx, userID, p.ID, p.UpdateWithChips(merged))
	})

	result.RunID = run.RunID
	result.Outcome = run.Outcome()
	result.Summary = run.Summary("applied to", "prediction")
	for _, key := range run.Successes {
		result.Successes = append(result.Successes, refOf(byID[key]))
	}
	for _, failure := range run.Failures {
		result.Failures = append(result.Failures, PredictionFailure{PredictionRef: refOf(byID[failure.Key]), Error: failure.Err.Error()})
	}
	for _, skipped := range run.Skipped {
		result.Skipped = append(result.Skipped, PredictionSkip{PredictionRef: refOf(byID[skipped.Key]), Reason: skipped.Reason})
	}

	if run.Attempted() == 0 {
		return result, nil
	}

	if _, err := s.status.Refresh(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "refresh chip status after gameweek apply failed",
			"user_id", userID,
			"chip_id", id,
			"error", err,
		)
	} else {
		result.StatusRefreshed = true
	}

	s.logger.InfoContext(ctx, "gameweek chip applied",
		"user_id", userID,
		"chip_id", id,
		"gameweek", gw,
		"outcome", string(result.Outcome),
		"summary", result.Summary,
	)
	return result, nil
}

// DeactivateGameweekChip never removes anything: an activated gameweek chip is locked for
// the rest of its gameweek. The returned rejection explains why.
func (s *GameweekChipService) DeactivateGameweekChip(ctx context.Context, userID, chipID string) (Rejection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameweekChipService.DeactivateGameweekChip")
	defer span.End()

	id, ok := s.catalog.NormalizeID(chipID)
	if !ok {
		return *unknownChipRejection(chipID), nil
	}
	def, _ := s.catalog.Get(id)
	if def.Scope != chip.ScopeGameweek {
		return Rejection{
			Code:   RejectWrongScope,
			ChipID: id,
			Reason: fmt.Sprintf("%s is a match chip; remove it from the prediction instead", def.Name),
		}, nil
	}

	snapshot, err := s.status.Status(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return Rejection{}, err
	}
	if snapshot.ActiveGameweekChips.Has(id) {
		return *lockedRejection(s.catalog, id, snapshot.CurrentGameweek), nil
	}
	if !def.HasCooldown() {
		predictions, err := s.predictions.ListByUser(ctx, userID)
		if err != nil {
			recordSpanError(span, err)
			return Rejection{}, fmt.Errorf("%w: list predictions: %w", ErrDependencyUnavailable, err)
		}
		predictions = chip.NormalizePredictionChips(s.catalog, predictions, s.logger)
		if s.status.Detector().LockedGameweekChips(snapshot.Records, predictions, snapshot.CurrentGameweek).Has(id) {
			return *lockedRejection(s.catalog, id, snapshot.CurrentGameweek), nil
		}
	}
	return Rejection{
		Code:   RejectNotActive,
		ChipID: id,
		Reason: fmt.Sprintf("%s is not active for GW %d", def.Name, snapshot.CurrentGameweek),
	}, nil
}

// ApplyMatchChips replaces the chip set of one pending prediction after validating it.
func (s *GameweekChipService) ApplyMatchChips(ctx context.Context, userID, predictionID string, chipIDs []string) (MatchChipsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameweekChipService.ApplyMatchChips",
		attribute.String("user_id", userID),
		attribute.String("prediction_id", predictionID),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	predictionID = strings.TrimSpace(predictionID)
	if userID == "" || predictionID == "" {
		return MatchChipsResult{}, fmt.Errorf("%w: user id and prediction id are required", ErrInvalidInput)
	}

	requested, unknown := s.normalizeIDs(chipIDs)
	result := MatchChipsResult{PredictionID: predictionID}
	if len(unknown) > 0 {
		result.Rejection = unknownChipRejection(unknown[0])
		return result, nil
	}

	snapshot, err := s.status.Status(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return MatchChipsResult{}, err
	}
	predictions, err := s.predictions.ListByUser(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return MatchChipsResult{}, fmt.Errorf("%w: list predictions: %w", ErrDependencyUnavailable, err)
	}
	predictions = chip.NormalizePredictionChips(s.catalog, predictions, s.logger)
	p, found := findPrediction(predictions, predictionID)
	if !found {
		return MatchChipsResult{}, fmt.Errorf("%w: prediction=%s", ErrNotFound, predictionID)
	}
	result.MatchID = p.MatchID

	if p.Status != prediction.StatusPending {
		result.Rejection = &Rejection{Code: RejectNotEditable, Reason: "Chips can only be changed on pending predictions"}
		return result, nil
	}

	liveInGameweek := p.Gameweek == snapshot.CurrentGameweek
	locked := s.status.Detector().LockedGameweekChips(snapshot.Records, predictions, snapshot.CurrentGameweek)
	for _, id := range p.Chips.Slice() {
		if liveInGameweek && locked.Has(id) && !requested.Has(id) {
			result.Rejection = lockedRejection(s.catalog, id, snapshot.CurrentGameweek)
			return result, nil
		}
	}

	added := p.Chips.Missing(requested)
	for _, id := range added.Slice() {
		if s.catalog.IsGameweekChip(id) && !(liveInGameweek && locked.Has(id)) {
			result.Rejection = &Rejection{
				Code:   RejectWrongScope,
				ChipID: id,
				Reason: fmt.Sprintf("%s must be activated for the whole gameweek", s.catalog.Name(id)),
			}
			return result, nil
		}
	}

	if compat := chip.CheckCompatibility(s.catalog, s.policy, requested.Slice()); !compat.Compatible {
		result.Rejection = &Rejection{
			Code:             RejectIncompatible,
			Reason:           compat.Reason,
			ConflictingChips: compat.ConflictingChips,
		}
		return result, nil
	}

	for _, id := range added.Slice() {
		def, _ := s.catalog.Get(id)
		if def.Scope == chip.ScopeMatch {
			if status := s.status.statusOf(snapshot, id); !status.Available {
				result.Rejection = rejectionFromStatus(status)
				return result, nil
			}
		}
		if applicability := def.AppliesTo(p); !applicability.Applicable {
			result.Rejection = &Rejection{Code: RejectNotApplicable, ChipID: id, Reason: applicability.Reason}
			return result, nil
		}
	}

	result.Chips = requested.Slice()
	result.Added = added.Slice()
	result.Removed = requested.Missing(p.Chips).Slice()
	if added.IsEmpty() && len(result.Removed) == 0 {
		return result, nil
	}

	if err := s.predictions.Update(ctx, userID, p.ID, p.UpdateWithChips(requested)); err != nil {
		recordSpanError(span, err)
		return MatchChipsResult{}, fmt.Errorf("%w: update prediction %s: %w", ErrDependencyUnavailable, p.ID, err)
	}

	if _, err := s.status.Refresh(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "refresh chip status after match chip update failed",
			"user_id", userID,
			"prediction_id", p.ID,
			"error", err,
		)
	} else {
		result.StatusRefreshed = true
	}
	return result, nil
}

func alreadyActiveRejection(def chip.Definition, gw int) *Rejection {
	return &Rejection{
		Code:   RejectAlreadyActive,
		ChipID: def.ID,
		Reason: fmt.Sprintf("%s is already active for GW %d", def.Name, gw),
	}
}

// gameweekConflict applies the policy to def next to the gameweek chips already live.
func (s *GameweekChipService) gameweekConflict(def chip.Definition, live prediction.ChipSet) *Rejection {
	compat := chip.CheckCompatibility(s.catalog, s.policy, live.With(def.ID).Slice())
	if compat.Compatible {
		return nil
	}
	return &Rejection{
		Code:             RejectIncompatible,
		ChipID:           def.ID,
		Reason:           compat.Reason,
		ConflictingChips: compat.ConflictingChips,
	}
}

func (s *GameweekChipService) normalizeIDs(raw []string) (prediction.ChipSet, []string) {
	var out prediction.ChipSet
	var unknown []string
	for _, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		id, ok := s.catalog.NormalizeID(item)
		if !ok {
			s.logger.Warn("unknown chip id in request", "chip_id", item)
			unknown = append(unknown, item)
			continue
		}
		out = out.With(id)
	}
	return out, unknown
}

func predictionKey(p prediction.Prediction) string {
	return p.ID
}

func refOf(p prediction.Prediction) PredictionRef {
	return PredictionRef{
		PredictionID: p.ID,
		MatchID:      p.MatchID,
		Fixture:      p.Fixture(),
	}
}

func indexPredictions(items []prediction.Prediction) map[string]prediction.Prediction {
	out := make(map[string]prediction.Prediction, len(items))
	for _, p := range items {
		out[p.ID] = p
	}
	return out
}

func findPrediction(items []prediction.Prediction, predictionID string) (prediction.Prediction, bool) {
	for _, p := range items {
		if p.ID == predictionID {
			return p, true
		}
	}
	return prediction.Prediction{}, false
}

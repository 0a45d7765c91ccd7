package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/usecase"
)

// PredictionsBackend is an in-process stand-in for the predictions backend.
// It owns prediction rows and chip usage, and records usage when an update attaches a chip.
type PredictionsBackend struct {
	mu              sync.RWMutex
	catalog         chip.Catalog
	currentGameweek int
	predictions     map[string][]prediction.Prediction
	usage           map[string]map[string]chip.UsageState
}

func NewPredictionsBackend(catalog chip.Catalog, currentGameweek int, predictionsByUser map[string][]prediction.Prediction) *PredictionsBackend {
	b := &PredictionsBackend{
		catalog:         catalog,
		currentGameweek: max(currentGameweek, 1),
		predictions:     make(map[string][]prediction.Prediction, len(predictionsByUser)),
		usage:           make(map[string]map[string]chip.UsageState),
	}
	for userID, items := range predictionsByUser {
		b.predictions[userID] = append([]prediction.Prediction(nil), items...)
	}
	return b
}

func (b *PredictionsBackend) CurrentGameweek() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentGameweek
}

func (b *PredictionsBackend) SetCurrentGameweek(gameweek int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentGameweek = max(gameweek, 1)
}

// SetUsage overrides the stored usage of one chip for a user.
func (b *PredictionsBackend) SetUsage(userID, chipID string, usage chip.UsageState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usageFor(userID)[chipID] = usage
}

func (b *PredictionsBackend) FetchStatus(_ context.Context, userID string) (chip.Feed, error) {
	if strings.TrimSpace(userID) == "" {
		return chip.Feed{}, fmt.Errorf("%w: user id is required", usecase.ErrInvalidInput)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := chip.Feed{CurrentGameweek: b.currentGameweek}
	usage := b.usage[userID]
	for _, def := range b.catalog.All() {
		if !tracked(def) {
			continue
		}
		state := usage[def.ID]
		status := chip.ComputeAvailability(b.catalog, def.ID, state, b.currentGameweek)
		rec := chip.StatusRecord{
			ChipID:           backendChipID(def.ID),
			Available:        status.Available,
			UsageCount:       status.UsageCount,
			SeasonLimit:      status.SeasonLimit,
			RemainingUses:    status.RemainingUses,
			CooldownExpires:  state.CooldownExpiresAtGameweek,
			LastUsedGameweek: state.LastUsedGameweek,
		}
		if !status.Available {
			rec.Reason = status.Reason
		}
		if def.HasCooldown() {
			remaining := status.RemainingGameweeks
			rec.RemainingGameweeks = &remaining
		}
		out.Chips = append(out.Chips, rec)
	}
	return out, nil
}

func (b *PredictionsBackend) ListByUser(_ context.Context, userID string) ([]prediction.Prediction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	items := b.predictions[userID]
	out := make([]prediction.Prediction, 0, len(items))
	out = append(out, items...)
	return out, nil
}

// Update overwrites the prediction's scores and chip list, charging usage for every
// newly attached chip and refunding chips removed from a pending prediction.
func (b *PredictionsBackend) Update(_ context.Context, userID, predictionID string, input prediction.UpdateInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.predictions[userID]
	idx := -1
	for i, item := range items {
		if item.ID == predictionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: prediction id=%s", usecase.ErrNotFound, predictionID)
	}

	current := items[idx]
	if current.Status != prediction.StatusPending {
		return fmt.Errorf("%w: prediction id=%s is %s", usecase.ErrInvalidInput, predictionID, current.Status)
	}

	next := prediction.NewChipSet(input.Chips...)
	added := current.Chips.Missing(next)
	removed := next.Missing(current.Chips)

	usage := b.usageFor(userID)
	staged := make(map[string]chip.UsageState, added.Len()+removed.Len())
	for _, id := range added.Slice() {
		def, ok := b.catalog.Get(id)
		if !ok {
			return fmt.Errorf("%w: unknown chip %s", usecase.ErrInvalidInput, id)
		}
		state := usage[id]
		if def.Scope == chip.ScopeGameweek && state.LastUsedGameweek != nil && *state.LastUsedGameweek == current.Gameweek {
			continue
		}
		if status := chip.ComputeAvailability(b.catalog, id, state, current.Gameweek); !status.Available {
			return fmt.Errorf("%w: %s: %s", usecase.ErrInvalidInput, def.Name, status.Reason)
		}
		staged[id] = state.Use(def, current.Gameweek)
	}
	for _, id := range removed.Slice() {
		def, ok := b.catalog.Get(id)
		if !ok {
			continue
		}
		if def.Scope == chip.ScopeGameweek && b.gameweekChipStillAttached(userID, predictionID, id, current.Gameweek) {
			continue
		}
		staged[id] = usage[id].Undo(def, current.Gameweek)
	}

	for id, state := range staged {
		usage[id] = state
	}
	current.HomeScore = input.HomeScore
	current.AwayScore = input.AwayScore
	current.HomeScorers = append([]string(nil), input.HomeScorers...)
	current.AwayScorers = append([]string(nil), input.AwayScorers...)
	current.Chips = next
	items[idx] = current
	return nil
}

func (b *PredictionsBackend) gameweekChipStillAttached(userID, exceptPredictionID, chipID string, gameweek int) bool {
	for _, item := range b.predictions[userID] {
		if item.ID != exceptPredictionID && item.Gameweek == gameweek && item.Chips.Has(chipID) {
			return true
		}
	}
	return false
}

func (b *PredictionsBackend) usageFor(userID string) map[string]chip.UsageState {
	usage, ok := b.usage[userID]
	if !ok {
		usage = make(map[string]chip.UsageState)
		b.usage[userID] = usage
	}
	return usage
}

// tracked reports whether the backend keeps bookkeeping for the chip. Chips without
// cooldown or season limit are left out of the status feed.
func tracked(def chip.Definition) bool {
	return def.HasCooldown() || def.SeasonLimit != nil
}

// backendChipID renders catalog ids the way the backend stores them (defensePlusPlus -> defense_plus_plus).
func backendChipID(id string) string {
	var sb strings.Builder
	for i, r := range id {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/cache"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

// ChipStatusSnapshot is one resolved read of a user's chip status feed.
type ChipStatusSnapshot struct {
	UserID              string
	CurrentGameweek     int
	Records             []chip.StatusRecord
	ActiveGameweekChips prediction.ChipSet
	FetchedAt           time.Time
}

func (s ChipStatusSnapshot) Record(chipID string) (chip.StatusRecord, bool) {
	return chip.FindRecord(s.Records, chipID)
}

// ChipView is the per-chip projection served to clients.
type ChipView struct {
	Definition      chip.Definition
	Status          chip.Status
	Activation      chip.ActivationStatus
	CooldownText    string
	SeasonLimitText string
}

type ChipOverview struct {
	UserID          string
	CurrentGameweek int
	Chips           []ChipView
	ActiveChips     []chip.ActiveChip
	// UnknownChips are backend ids that matched nothing in the catalog.
	UnknownChips []string
	FetchedAt    time.Time
}

// ChipStatusService serves chip status with a per-user cache that is dropped after every mutation.
type ChipStatusService struct {
	catalog  chip.Catalog
	source   chip.StatusSource
	detector *chip.Detector
	cache    *cache.Store[ChipStatusSnapshot]
	logger   *logging.Logger
	now      func() time.Time
}

func NewChipStatusService(
	catalog chip.Catalog,
	source chip.StatusSource,
	statusCache *cache.Store[ChipStatusSnapshot],
	logger *logging.Logger,
) *ChipStatusService {
	if logger == nil {
		logger = logging.Default()
	}
	if statusCache == nil {
		statusCache = cache.NewStore[ChipStatusSnapshot](0)
	}
	return &ChipStatusService{
		catalog:  catalog,
		source:   source,
		detector: chip.NewActivationDetector(catalog, logger),
		cache:    statusCache,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ChipStatusService) Catalog() chip.Catalog {
	return s.catalog
}

func (s *ChipStatusService) Detector() *chip.Detector {
	return s.detector
}

func (s *ChipStatusService) ListDefinitions(scope string) ([]chip.Definition, error) {
	if strings.TrimSpace(scope) == "" {
		return s.catalog.All(), nil
	}
	parsed, ok := chip.ParseScope(scope)
	if !ok {
		return nil, fmt.Errorf("%w: scope must be match or gameweek", ErrInvalidInput)
	}
	return s.catalog.ByScope(parsed), nil
}

// Status returns the cached snapshot or loads it from the backend.
func (s *ChipStatusService) Status(ctx context.Context, userID string) (ChipStatusSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipStatusService.Status")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ChipStatusSnapshot{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	snapshot, err := s.cache.GetOrLoad(ctx, statusCacheKey(userID), func(ctx context.Context) (ChipStatusSnapshot, error) {
		return s.load(ctx, userID)
	})
	if err != nil {
		recordSpanError(span, err)
		return ChipStatusSnapshot{}, err
	}
	return snapshot, nil
}

// Refresh drops the cached snapshot and reloads it. Called after any chip usage.
func (s *ChipStatusService) Refresh(ctx context.Context, userID string) (ChipStatusSnapshot, error) {
	s.Invalidate(ctx, userID)
	return s.Status(ctx, userID)
}

func (s *ChipStatusService) Invalidate(ctx context.Context, userID string) {
	s.cache.Delete(ctx, statusCacheKey(strings.TrimSpace(userID)))
}

func (s *ChipStatusService) Availability(ctx context.Context, userID, chipID string) (chip.Status, error) {
	snapshot, err := s.Status(ctx, userID)
	if err != nil {
		return chip.Status{}, err
	}
	return s.statusOf(snapshot, chipID), nil
}

func (s *ChipStatusService) Overview(ctx context.Context, userID string) (ChipOverview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipStatusService.Overview")
	defer span.End()

	snapshot, err := s.Status(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return ChipOverview{}, err
	}

	out := ChipOverview{
		UserID:          snapshot.UserID,
		CurrentGameweek: snapshot.CurrentGameweek,
		Chips:           make([]ChipView, 0, len(s.catalog.All())),
		ActiveChips:     s.detector.ActiveChipsDetailed(snapshot.Records, snapshot.CurrentGameweek),
		FetchedAt:       snapshot.FetchedAt,
	}
	for _, def := range s.catalog.All() {
		status := s.statusOf(snapshot, def.ID)
		rec, ok := snapshot.Record(def.ID)
		if !ok {
			rec = chip.StatusRecord{ChipID: def.ID, Scope: def.Scope, Available: status.Available, Reason: status.Reason}
		}
		out.Chips = append(out.Chips, ChipView{
			Definition:      def,
			Status:          status,
			Activation:      s.detector.ActivationStatus(rec, snapshot.CurrentGameweek),
			CooldownText:    chip.FormatCooldown(status.RemainingGameweeks),
			SeasonLimitText: chip.FormatSeasonLimit(def, status.UsageCount),
		})
	}
	for _, rec := range snapshot.Records {
		if !rec.Known() {
			out.UnknownChips = append(out.UnknownChips, rec.RawChipID)
		}
	}
	return out, nil
}

func (s *ChipStatusService) statusOf(snapshot ChipStatusSnapshot, chipID string) chip.Status {
	id, _ := s.catalog.NormalizeID(chipID)
	if _, ok := s.catalog.Get(id); !ok {
		return chip.ComputeAvailability(s.catalog, chipID, chip.UsageState{}, snapshot.CurrentGameweek)
	}
	rec, ok := snapshot.Record(id)
	if !ok {
		// Not reported by the backend: never used.
		return chip.ComputeAvailability(s.catalog, id, chip.UsageState{}, snapshot.CurrentGameweek)
	}
	return chip.StatusFromRecord(s.catalog, rec, snapshot.CurrentGameweek)
}

func (s *ChipStatusService) load(ctx context.Context, userID string) (ChipStatusSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipStatusService.load", attribute.String("user_id", userID))
	defer span.End()

	feed, err := s.source.FetchStatus(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return ChipStatusSnapshot{}, fmt.Errorf("%w: fetch chip status: %w", ErrDependencyUnavailable, err)
	}
	if feed.CurrentGameweek < 1 {
		s.logger.WarnContext(ctx, "chip status feed has no current gameweek", "user_id", userID, "current_gameweek", feed.CurrentGameweek)
	}

	records := chip.ResolveStatusRecords(s.catalog, feed.Chips, s.logger)
	return ChipStatusSnapshot{
		UserID:              userID,
		CurrentGameweek:     feed.CurrentGameweek,
		Records:             records,
		ActiveGameweekChips: s.detector.ActiveGameweekChips(records, feed.CurrentGameweek),
		FetchedAt:           s.now(),
	}, nil
}

func statusCacheKey(userID string) string {
	return "chip-status:" + userID
}

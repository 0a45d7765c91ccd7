package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/domain/prediction"
	"github.com/riskibarqy/predictions-chips/internal/platform/batch"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

const (
	defaultDismissalTTL     = 12 * time.Hour
	defaultReconcileWorkers = 4
	maxReconcileWorkers     = 32
)

type DriftReport struct {
	UserID          string
	CurrentGameweek int
	ActiveChips     []string
	ActiveChipNames []string
	NeedsSync       bool
	Count           int
	Records         []chip.DriftRecord
	Summary         string
	DismissalKey    string
	Dismissed       bool
}

// ShouldPrompt is true when drift exists and the user has not dismissed this exact prompt.
func (r DriftReport) ShouldPrompt() bool {
	return r.NeedsSync && !r.Dismissed
}

type SyncResult struct {
	RunID      string
	Gameweek   int
	Total      int
	Successful int
	Failed     int
	Errors     []PredictionFailure
	Synced     []PredictionRef
	Skipped    []PredictionSkip
	Outcome    batch.Outcome
	Summary    string
}

type DismissResult struct {
	Key       string
	Dismissed bool
}

type ReconcileInput struct {
	UserIDs    []string
	MaxWorkers int
}

type ReconcileUserResult struct {
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type ReconcileResult struct {
	UserCount    int                   `json:"user_count"`
	WorkerCount  int                   `json:"worker_count"`
	SuccessCount int                   `json:"success_count"`
	FailedCount  int                   `json:"failed_count"`
	SkippedCount int                   `json:"skipped_count"`
	Users        []ReconcileUserResult `json:"users"`
}

const (
	reconcileStatusSuccess = "success"
	reconcileStatusFailed  = "failed"
	reconcileStatusSkipped = "skipped"
)

// ChipSyncService detects and repairs predictions that fell behind the active gameweek chips.
type ChipSyncService struct {
	catalog      chip.Catalog
	predictions  prediction.Repository
	status       *ChipStatusService
	dismissals   chip.DismissalStore
	policy       chip.Policy
	dismissalTTL time.Duration
	runner       *batch.Runner
	workers      int
	logger       *logging.Logger
}

func NewChipSyncService(
	predictions prediction.Repository,
	status *ChipStatusService,
	dismissals chip.DismissalStore,
	policy chip.Policy,
	dismissalTTL time.Duration,
	logger *logging.Logger,
) *ChipSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if dismissalTTL <= 0 {
		dismissalTTL = defaultDismissalTTL
	}
	return &ChipSyncService{
		catalog:      status.Catalog(),
		predictions:  predictions,
		status:       status,
		dismissals:   dismissals,
		policy:       policy,
		dismissalTTL: dismissalTTL,
		runner:       batch.NewRunner("chip_sync", logger),
		workers:      defaultReconcileWorkers,
		logger:       logger,
	}
}

// SetDefaultWorkers sets the pool size used when a reconcile request does not name one.
func (s *ChipSyncService) SetDefaultWorkers(workers int) {
	if workers > 0 {
		s.workers = workers
	}
}

func (s *ChipSyncService) Report(ctx context.Context, userID string) (DriftReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipSyncService.Report")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DriftReport{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	snapshot, err := s.status.Status(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return DriftReport{}, err
	}
	predictions, err := s.predictions.ListByUser(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return DriftReport{}, fmt.Errorf("%w: list predictions: %w", ErrDependencyUnavailable, err)
	}
	predictions = chip.NormalizePredictionChips(s.catalog, predictions, s.logger)

	report := s.buildReport(userID, snapshot, predictions)
	if len(report.ActiveChips) == 0 {
		return report, nil
	}

	dismissed, err := s.dismissals.IsDismissed(ctx, userID, report.DismissalKey)
	if err != nil {
		s.logger.WarnContext(ctx, "read drift dismissal failed", "user_id", userID, "key", report.DismissalKey, "error", err)
	}
	report.Dismissed = dismissed
	return report, nil
}

func (s *ChipSyncService) buildReport(userID string, snapshot ChipStatusSnapshot, predictions []prediction.Prediction) DriftReport {
	active := s.status.Detector().LockedGameweekChips(snapshot.Records, predictions, snapshot.CurrentGameweek)
	drift := chip.FindDrift(s.catalog, predictions, active, snapshot.CurrentGameweek)
	return DriftReport{
		UserID:          userID,
		CurrentGameweek: snapshot.CurrentGameweek,
		ActiveChips:     active.Slice(),
		ActiveChipNames: s.catalog.Names(active.Slice()),
		NeedsSync:       len(drift) > 0,
		Count:           len(drift),
		Records:         drift,
		Summary:         chip.DriftSummary(s.catalog, drift, active),
		DismissalKey:    chip.DismissalKey(snapshot.CurrentGameweek, active),
	}
}

// Sync reconciles the user's current drift and clears the dismissal flag once it fully succeeds.
func (s *ChipSyncService) Sync(ctx context.Context, userID string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipSyncService.Sync")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SyncResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	snapshot, err := s.status.Refresh(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return SyncResult{}, err
	}
	predictions, err := s.predictions.ListByUser(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return SyncResult{}, fmt.Errorf("%w: list predictions: %w", ErrDependencyUnavailable, err)
	}
	predictions = chip.NormalizePredictionChips(s.catalog, predictions, s.logger)

	report := s.buildReport(userID, snapshot, predictions)
	result := s.SyncDrift(ctx, userID, report.Records, prediction.NewChipSet(report.ActiveChips...))
	result.Gameweek = snapshot.CurrentGameweek

	if result.Successful > 0 {
		s.status.Invalidate(ctx, userID)
	}
	if result.Failed == 0 && result.Successful > 0 {
		if err := s.dismissals.Clear(ctx, userID, report.DismissalKey); err != nil {
			s.logger.WarnContext(ctx, "clear drift dismissal failed", "user_id", userID, "key", report.DismissalKey, "error", err)
		}
	}
	return result, nil
}

// SyncDrift merges the applicable active chips into each drifted prediction, one update at a time.
// A record with no applicable chip left, or whose merged set the policy refuses, is skipped.
// Failures never stop the run.
func (s *ChipSyncService) SyncDrift(ctx context.Context, userID string, records []chip.DriftRecord, active prediction.ChipSet) SyncResult {
	byID := make(map[string]prediction.Prediction, len(records))
	for _, rec := range records {
		byID[rec.Prediction.ID] = rec.Prediction
	}

	run := batch.Run(ctx, s.runner, records, func(rec chip.DriftRecord) string {
		return rec.Prediction.ID
	}, func(ctx context.Context, rec chip.DriftRecord) error {
		p := rec.Prediction
		applicable := chip.ApplicableChips(s.catalog, p, active)
		if applicable.IsEmpty() {
			return batch.Skip("No applicable chips for this prediction")
		}
		merged := p.Chips.Union(applicable)
		if compat := chip.CheckCompatibility(s.catalog, s.policy, merged.Slice()); !compat.Compatible {
			return batch.Skip(compat.Reason)
		}
		return s.predictions.Update(ctx, userID, p.ID, p.UpdateWithChips(merged))
	})

	result := SyncResult{
		RunID:      run.RunID,
		Total:      run.Total,
		Successful: len(run.Successes),
		Failed:     len(run.Failures),
		Errors:     make([]PredictionFailure, 0, len(run.Failures)),
		Synced:     make([]PredictionRef, 0, len(run.Successes)),
		Skipped:    make([]PredictionSkip, 0, len(run.Skipped)),
		Outcome:    run.Outcome(),
		Summary:    run.Summary("synced", "prediction"),
	}
	for _, key := range run.Successes {
		result.Synced = append(result.Synced, refOf(byID[key]))
	}
	for _, failure := range run.Failures {
		result.Errors = append(result.Errors, PredictionFailure{PredictionRef: refOf(byID[failure.Key]), Error: failure.Err.Error()})
	}
	for _, skipped := range run.Skipped {
		result.Skipped = append(result.Skipped, PredictionSkip{PredictionRef: refOf(byID[skipped.Key]), Reason: skipped.Reason})
	}
	return result
}

// Dismiss silences the drift prompt for the current gameweek and active chip combination.
func (s *ChipSyncService) Dismiss(ctx context.Context, userID string) (DismissResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipSyncService.Dismiss")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DismissResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	snapshot, err := s.status.Status(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return DismissResult{}, err
	}
	if snapshot.ActiveGameweekChips.IsEmpty() {
		return DismissResult{}, nil
	}

	key := chip.DismissalKey(snapshot.CurrentGameweek, snapshot.ActiveGameweekChips)
	if err := s.dismissals.Dismiss(ctx, userID, key, s.dismissalTTL); err != nil {
		recordSpanError(span, err)
		return DismissResult{}, fmt.Errorf("%w: store dismissal: %w", ErrDependencyUnavailable, err)
	}
	return DismissResult{Key: key, Dismissed: true}, nil
}

// ReconcileUsers runs Sync for many users on a bounded worker pool. Each user's
// predictions are still updated sequentially inside its worker.
func (s *ChipSyncService) ReconcileUsers(ctx context.Context, input ReconcileInput) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChipSyncService.ReconcileUsers")
	defer span.End()

	userIDs := normalizeUserIDs(input.UserIDs)
	if len(userIDs) == 0 {
		return ReconcileResult{}, fmt.Errorf("%w: user_ids is required", ErrInvalidInput)
	}

	workerCount := normalizeReconcileWorkerCount(input.MaxWorkers, s.workers, len(userIDs))
	result := ReconcileResult{
		UserCount:   len(userIDs),
		WorkerCount: workerCount,
		Users:       make([]ReconcileUserResult, 0, len(userIDs)),
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	rows := make(chan ReconcileUserResult, len(userIDs))
	var workers sync.WaitGroup
	for _, userID := range userIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			rows <- s.reconcileUser(ctx, userID)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return ReconcileResult{}, fmt.Errorf("submit reconcile task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		switch row.Status {
		case reconcileStatusSuccess:
			result.SuccessCount++
		case reconcileStatusSkipped:
			result.SkippedCount++
		default:
			result.FailedCount++
		}
		result.Users = append(result.Users, row)
	}
	sort.SliceStable(result.Users, func(i, j int) bool {
		return result.Users[i].UserID < result.Users[j].UserID
	})

	s.logger.InfoContext(ctx, "chip drift reconcile finished",
		"users", result.UserCount,
		"workers", result.WorkerCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

func (s *ChipSyncService) reconcileUser(ctx context.Context, userID string) ReconcileUserResult {
	start := time.Now()
	row := ReconcileUserResult{UserID: userID}

	synced, err := s.Sync(ctx, userID)
	row.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		row.Status = reconcileStatusFailed
		row.Message = err.Error()
		return row
	}

	row.Total = synced.Total
	row.Successful = synced.Successful
	row.Failed = synced.Failed
	row.Skipped = len(synced.Skipped)
	row.Message = synced.Summary
	switch synced.Outcome {
	case batch.OutcomeNoop:
		row.Status = reconcileStatusSkipped
	case batch.OutcomeAllSucceeded:
		row.Status = reconcileStatusSuccess
	default:
		row.Status = reconcileStatusFailed
	}
	return row
}

func normalizeUserIDs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func normalizeReconcileWorkerCount(requested, fallback, users int) int {
	workers := requested
	if workers <= 0 {
		workers = fallback
	}
	if workers > maxReconcileWorkers {
		workers = maxReconcileWorkers
	}
	if users > 0 && workers > users {
		workers = users
	}
	return max(workers, 1)
}

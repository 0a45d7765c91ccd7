package httpapi

import (
	"net/http"

	"github.com/riskibarqy/predictions-chips/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) RunChipSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunChipSyncJob")
	defer span.End()

	var req chipSyncJobRequest
	if err := decodeJSONBody(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.ReconcileUsers(ctx, usecase.ReconcileInput{
		UserIDs:    req.UserIDs,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run chip sync job failed", "user_count", len(req.UserIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "chip sync job completed",
		"user_count", result.UserCount,
		"success_count", result.SuccessCount,
		"failed_count", result.FailedCount,
		"skipped_count", result.SkippedCount,
	)
	span.SetAttributes(
		attribute.Int("chip_sync.user_count", result.UserCount),
		attribute.Int("chip_sync.failed_count", result.FailedCount),
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}

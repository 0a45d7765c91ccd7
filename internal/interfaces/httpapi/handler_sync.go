package httpapi

import "net/http"

func (h *Handler) GetChipDrift(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetChipDrift")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.syncService.Report(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "chip drift report failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, driftReportToDTO(report))
}

func (h *Handler) SyncChipDrift(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncChipDrift")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.Sync(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "chip drift sync failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, syncResultToDTO(result))
}

func (h *Handler) DismissChipDrift(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DismissChipDrift")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.Dismiss(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, dismissDTO{Key: result.Key, Dismissed: result.Dismissed})
}

package httpapi

import "net/http"

func (h *Handler) ListChipCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChipCatalog")
	defer span.End()

	defs, err := h.statusService.ListDefinitions(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]chipDefinitionDTO, 0, len(defs))
	for _, def := range defs {
		items = append(items, definitionToDTO(def))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetChipStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetChipStatus")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.statusService.Overview(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get chip status failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, overviewToDTO(overview))
}

func (h *Handler) GetChipAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetChipAvailability")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	chipID := r.PathValue("chipID")
	status, err := h.statusService.Availability(ctx, userID, chipID)
	if err != nil {
		h.logger.WarnContext(ctx, "get chip availability failed", "user_id", userID, "chip_id", chipID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, statusToDTO(status))
}

func (h *Handler) CheckChipCompatibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckChipCompatibility")
	defer span.End()

	var req compatibilityRequest
	if err := decodeJSONBody(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.gameweekService.CheckCompatibility(req.Chips)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, compatibilityToDTO(result))
}

func (h *Handler) ActivateGameweekChip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ActivateGameweekChip")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	chipID := r.PathValue("chipID")
	result, err := h.gameweekService.ApplyGameweekChip(ctx, userID, chipID)
	if err != nil {
		h.logger.WarnContext(ctx, "activate gameweek chip failed", "user_id", userID, "chip_id", chipID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if result.Rejection != nil {
		writeRejection(ctx, w, *result.Rejection)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, gameweekApplyToDTO(result))
}

// DeactivateGameweekChip always answers with a rejection: an active gameweek chip is
// immutable until the gameweek ends.
func (h *Handler) DeactivateGameweekChip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeactivateGameweekChip")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rejection, err := h.gameweekService.DeactivateGameweekChip(ctx, userID, r.PathValue("chipID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeRejection(ctx, w, rejection)
}

func (h *Handler) ApplyMatchChips(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyMatchChips")
	defer span.End()

	userID, err := requestUserID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req matchChipsRequest
	if err := decodeJSONBody(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	predictionID := r.PathValue("predictionID")
	result, err := h.gameweekService.ApplyMatchChips(ctx, userID, predictionID, req.Chips)
	if err != nil {
		h.logger.WarnContext(ctx, "apply match chips failed", "user_id", userID, "prediction_id", predictionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if result.Rejection != nil {
		writeRejection(ctx, w, *result.Rejection)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matchChipsToDTO(result))
}


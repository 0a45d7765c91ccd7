package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicChipRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/chips/catalog", handler.ListChipCatalog)
	mux.HandleFunc("POST /v1/chips/compatibility", handler.CheckChipCompatibility)
}

func registerUserChipRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/chips/status", RequireUser(http.HandlerFunc(handler.GetChipStatus)))
	mux.Handle("GET /v1/chips/{chipID}/availability", RequireUser(http.HandlerFunc(handler.GetChipAvailability)))
	mux.Handle("POST /v1/chips/gameweek/{chipID}/activate", RequireUser(http.HandlerFunc(handler.ActivateGameweekChip)))
	mux.Handle("DELETE /v1/chips/gameweek/{chipID}", RequireUser(http.HandlerFunc(handler.DeactivateGameweekChip)))
	mux.Handle("PUT /v1/predictions/{predictionID}/chips", RequireUser(http.HandlerFunc(handler.ApplyMatchChips)))
	mux.Handle("GET /v1/chips/sync", RequireUser(http.HandlerFunc(handler.GetChipDrift)))
	mux.Handle("POST /v1/chips/sync", RequireUser(http.HandlerFunc(handler.SyncChipDrift)))
	mux.Handle("POST /v1/chips/sync/dismiss", RequireUser(http.HandlerFunc(handler.DismissChipDrift)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/chip-sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunChipSyncJob)))
}

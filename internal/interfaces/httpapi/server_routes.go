package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Access routes serve guests and signed-in callers alike; a valid bearer
// token upgrades the response, a missing or bad one falls back to the guest
// record.
func registerAccessRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/brand", OptionalAuth(verifier, http.HandlerFunc(handler.GetBrand)))
	mux.Handle("GET /v1/entitlements", OptionalAuth(verifier, http.HandlerFunc(handler.GetEntitlements)))
	mux.Handle("GET /v1/entitlements/upgrade-message", OptionalAuth(verifier, http.HandlerFunc(handler.GetUpgradeMessage)))
}

func registerPreviewRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/preview/draft", OptionalAuth(verifier, http.HandlerFunc(handler.SaveTournamentDraft)))
	mux.Handle("POST /v1/preview/sections/{sectionID}", OptionalAuth(verifier, http.HandlerFunc(handler.MarkPreviewSection)))
	mux.Handle("GET /v1/preview/progress", OptionalAuth(verifier, http.HandlerFunc(handler.GetPreviewProgress)))
	mux.Handle("DELETE /v1/preview", OptionalAuth(verifier, http.HandlerFunc(handler.ClearPreview)))
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/tournaments", RequireAuth(verifier, http.HandlerFunc(handler.CreateTournament)))
	mux.Handle("GET /v1/tournaments", RequireAuth(verifier, http.HandlerFunc(handler.ListMyTournaments)))
	mux.Handle("POST /v1/session/reconcile", RequireAuth(verifier, http.HandlerFunc(handler.ReconcileSession)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/preview-prompts", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPreviewPromptSweepJob)))
	mux.Handle("POST /v1/internal/jobs/link-sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLinkSweepJob)))
}

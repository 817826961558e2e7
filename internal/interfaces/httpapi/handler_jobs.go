package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

// RunPreviewPromptSweepJob re-checks every stored preview session against the
// conversion-prompt triggers. Normally driven by the in-process ticker; this
// route lets operators force a pass.
func (h *Handler) RunPreviewPromptSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPreviewPromptSweepJob")
	defer span.End()

	result, err := h.previewService.RunPromptSweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "preview prompt sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{
		"checked": result.Checked,
		"fired":   result.Fired,
	})
}

// RunLinkSweepJob drains stuck team-link intents, typically after a teams
// collaborator outage.
func (h *Handler) RunLinkSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLinkSweepJob")
	defer span.End()

	workers := h.linkSweepWorkers
	if raw := strings.TrimSpace(r.URL.Query().Get("workers")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			workers = parsed
		}
	}

	result, err := h.teamLinkService.ReconcileSweep(ctx, workers)
	if err != nil {
		h.logger.ErrorContext(ctx, "link sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{
		"owners":    result.Owners,
		"linked":    result.Linked,
		"failed":    result.Failed,
		"anomalies": result.Anomalies,
	})
}

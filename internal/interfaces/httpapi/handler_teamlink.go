package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bracketlab/tournament-platform/internal/usecase"
)

// ReconcileSession replays any deferred team-link intent for the signed-in
// caller. The frontend calls this right after authentication completes.
func (h *Handler) ReconcileSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReconcileSession")
	defer span.End()

	snap := identityFromContext(ctx)
	if !snap.IsAuthenticated() {
		writeError(ctx, w, fmt.Errorf("%w: identity is missing from request context", usecase.ErrUnauthorized))
		return
	}

	outcome, err := h.teamLinkService.Reconcile(ctx, snap.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "session reconcile failed", "user_id", snap.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileToDTO(ctx, outcome))
}

type reconcileDTO struct {
	Action      string `json:"action"`
	TeamID      string `json:"teamId,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func reconcileToDTO(ctx context.Context, outcome usecase.ReconcileOutcome) reconcileDTO {
	ctx, span := startSpan(ctx, "httpapi.reconcileToDTO")
	defer span.End()

	return reconcileDTO{
		Action:      string(outcome.Action),
		TeamID:      outcome.TeamID,
		RedirectURL: outcome.RedirectURL,
		Reason:      outcome.Reason,
	}
}

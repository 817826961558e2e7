package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/bracketlab/tournament-platform/internal/domain/preview"
	"github.com/bracketlab/tournament-platform/internal/usecase"
)

// visitorIDHeader carries the anonymous browser identity for preview routes.
const visitorIDHeader = "X-Visitor-ID"

func resolveVisitorID(ctx context.Context, r *http.Request) (string, error) {
	ctx, span := startSpan(ctx, "httpapi.resolveVisitorID")
	defer span.End()

	visitorID := strings.TrimSpace(r.Header.Get(visitorIDHeader))
	if visitorID == "" {
		return "", fmt.Errorf("%w: %s header is required", usecase.ErrInvalidInput, visitorIDHeader)
	}
	return visitorID, nil
}

func (h *Handler) SaveTournamentDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveTournamentDraft")
	defer span.End()

	visitorID, err := resolveVisitorID(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req saveDraftRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	authenticated := identityFromContext(ctx).IsAuthenticated()
	sess, err := h.previewService.SaveDraft(ctx, visitorID, authenticated, preview.Draft{
		Flow:     req.Flow,
		Name:     req.Name,
		Sport:    req.Sport,
		Format:   req.Format,
		Teams:    req.Teams,
		Settings: req.Settings,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "save tournament draft failed", "visitor_id", visitorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(ctx, sess, false))
}

func (h *Handler) MarkPreviewSection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkPreviewSection")
	defer span.End()

	visitorID, err := resolveVisitorID(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	sectionID := strings.TrimSpace(r.PathValue("sectionID"))

	authenticated := identityFromContext(ctx).IsAuthenticated()
	sess, promptFired, err := h.previewService.MarkSectionCompleted(ctx, visitorID, authenticated, sectionID)
	if err != nil {
		h.logger.WarnContext(ctx, "mark preview section failed", "visitor_id", visitorID, "section_id", sectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(ctx, sess, promptFired))
}

func (h *Handler) GetPreviewProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPreviewProgress")
	defer span.End()

	visitorID, err := resolveVisitorID(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	progress, err := h.previewService.Progress(ctx, visitorID)
	if err != nil {
		h.logger.WarnContext(ctx, "get preview progress failed", "visitor_id", visitorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, progressDTO{
		CompletedSections: progress.CompletedSections,
		Percentage:        progress.Percentage,
		TimeSpentSeconds:  int(progress.TimeSpent.Seconds()),
		PromptShown:       progress.PromptShown,
	})
}

func (h *Handler) ClearPreview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearPreview")
	defer span.End()

	visitorID, err := resolveVisitorID(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.previewService.ClearDraft(ctx, visitorID); err != nil {
		h.logger.WarnContext(ctx, "clear preview failed", "visitor_id", visitorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"cleared": true})
}

type saveDraftRequest struct {
	Flow     string         `json:"flow" validate:"max=64"`
	Name     string         `json:"name" validate:"max=200"`
	Sport    string         `json:"sport" validate:"max=100"`
	Format   string         `json:"format" validate:"max=64"`
	Teams    []string       `json:"teams" validate:"max=256,dive,max=200"`
	Settings map[string]any `json:"settings"`
}

type sessionDTO struct {
	StartedAt         string   `json:"startedAt"`
	LastSavedAt       string   `json:"lastSavedAt"`
	SectionsCompleted []string `json:"sectionsCompleted"`
	PromptShown       bool     `json:"promptShown"`
	PromptFired       bool     `json:"promptFired"`
}

type progressDTO struct {
	CompletedSections []string `json:"completedSections"`
	Percentage        int      `json:"percentage"`
	TimeSpentSeconds  int      `json:"timeSpentSeconds"`
	PromptShown       bool     `json:"promptShown"`
}

func sessionToDTO(ctx context.Context, sess preview.Session, promptFired bool) sessionDTO {
	ctx, span := startSpan(ctx, "httpapi.sessionToDTO")
	defer span.End()

	dto := sessionDTO{
		SectionsCompleted: sess.SectionsCompleted,
		PromptShown:       sess.PromptShown,
		PromptFired:       promptFired,
	}
	if !sess.StartedAt.IsZero() {
		dto.StartedAt = sess.StartedAt.UTC().Format(time.RFC3339)
	}
	if !sess.LastSavedAt.IsZero() {
		dto.LastSavedAt = sess.LastSavedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

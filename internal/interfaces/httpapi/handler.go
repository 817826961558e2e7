package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/bracketlab/tournament-platform/internal/domain/entitlement"
	"github.com/bracketlab/tournament-platform/internal/domain/tournament"
	"github.com/bracketlab/tournament-platform/internal/usecase"
)

type Handler struct {
	accessService     *usecase.AccessService
	previewService    *usecase.PreviewService
	teamLinkService   *usecase.TeamLinkService
	tournamentService *usecase.TournamentService
	logger            *slog.Logger
	validator         *validator.Validate
	linkSweepWorkers  int
}

func NewHandler(
	accessService *usecase.AccessService,
	previewService *usecase.PreviewService,
	teamLinkService *usecase.TeamLinkService,
	tournamentService *usecase.TournamentService,
	logger *slog.Logger,
	linkSweepWorkers int,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		accessService:     accessService,
		previewService:    previewService,
		teamLinkService:   teamLinkService,
		tournamentService: tournamentService,
		logger:            logger,
		validator:         validator.New(),
		linkSweepWorkers:  linkSweepWorkers,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBrand")
	defer span.End()

	hostname := strings.TrimSpace(r.URL.Query().Get("hostname"))
	if hostname == "" {
		hostname = r.Host
	}

	view := h.accessService.Brand(ctx, hostname, identityFromContext(ctx))
	writeSuccess(ctx, w, http.StatusOK, brandToDTO(ctx, view))
}

func (h *Handler) GetEntitlements(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEntitlements")
	defer span.End()

	view := h.accessService.Entitlements(ctx, identityFromContext(ctx))
	writeSuccess(ctx, w, http.StatusOK, accessToDTO(ctx, view))
}

func (h *Handler) GetUpgradeMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUpgradeMessage")
	defer span.End()

	feature := strings.TrimSpace(r.URL.Query().Get("feature"))
	message, err := h.accessService.UpgradeMessage(ctx, identityFromContext(ctx), feature)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, upgradeMessageDTO{
		Feature: feature,
		Message: message,
	})
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTournament")
	defer span.End()

	snap := identityFromContext(ctx)

	var req createTournamentRequest
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

	item, err := h.tournamentService.Create(ctx, snap, usecase.CreateTournamentInput{
		Name:      req.Name,
		Sport:     req.Sport,
		Format:    entitlement.Format(req.Format),
		TeamLimit: req.TeamLimit,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create tournament failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tournamentToDTO(ctx, item))
}

func (h *Handler) ListMyTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyTournaments")
	defer span.End()

	items, err := h.tournamentService.ListMine(ctx, identityFromContext(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "list tournaments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]tournamentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, tournamentToDTO(ctx, item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type createTournamentRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Sport     string `json:"sport" validate:"max=100"`
	Format    string `json:"format" validate:"omitempty,oneof=single-elimination round-robin double-elimination pool-play swiss-system multi-stage"`
	TeamLimit int    `json:"teamLimit" validate:"omitempty,min=2,max=1024"`
}

type upgradeMessageDTO struct {
	Feature string `json:"feature"`
	Message string `json:"message"`
}

type entitlementDTO struct {
	Tier                     string `json:"tier"`
	MaxTournaments           int    `json:"maxTournaments"`
	MaxTeamsPerTournament    int    `json:"maxTeamsPerTournament"`
	AllowAdvancedFormats     bool   `json:"allowAdvancedFormats"`
	AllowCustomBranding      bool   `json:"allowCustomBranding"`
	AllowMultiStage          bool   `json:"allowMultiStage"`
	AllowLeaderboards        bool   `json:"allowLeaderboards"`
	AllowDataExport          bool   `json:"allowDataExport"`
	AllowAPIAccess           bool   `json:"allowApiAccess"`
	AllowWhiteLabel          bool   `json:"allowWhiteLabel"`
	AllowDomainCustomization bool   `json:"allowDomainCustomization"`
	SupportLevel             string `json:"supportLevel"`
}

type accessDTO struct {
	Entitlements        entitlementDTO `json:"entitlements"`
	IsDistrictUser      bool           `json:"isDistrictUser"`
	IsTournamentManager bool           `json:"isTournamentManager"`
}

type brandFeaturesDTO struct {
	FantasyLeagues  bool `json:"fantasyLeagues"`
	AgeVerification bool `json:"ageVerification"`
	CrossSelling    bool `json:"crossSelling"`
	GuestAccess     bool `json:"guestAccess"`
	Registration    bool `json:"registration"`
}

type brandDTO struct {
	Type              string           `json:"type"`
	AllowFantasyPromo bool             `json:"allowFantasyPromo"`
	AllowProPromo     bool             `json:"allowProPromo"`
	AllowSchoolPromo  bool             `json:"allowSchoolPromo"`
	Features          brandFeaturesDTO `json:"features"`
	PrimaryColor      string           `json:"primaryColor"`
	SecondaryColor    string           `json:"secondaryColor"`
	ProductName       string           `json:"productName"`
}

type tournamentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sport     string `json:"sport"`
	Format    string `json:"format"`
	TeamLimit int    `json:"teamLimit"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func accessToDTO(ctx context.Context, view usecase.AccessView) accessDTO {
	ctx, span := startSpan(ctx, "httpapi.accessToDTO")
	defer span.End()

	return accessDTO{
		Entitlements: entitlementDTO{
			Tier:                     view.Record.Tier,
			MaxTournaments:           view.Record.MaxTournaments,
			MaxTeamsPerTournament:    view.Record.MaxTeamsPerTournament,
			AllowAdvancedFormats:     view.Record.AllowAdvancedFormats,
			AllowCustomBranding:      view.Record.AllowCustomBranding,
			AllowMultiStage:          view.Record.AllowMultiStage,
			AllowLeaderboards:        view.Record.AllowLeaderboards,
			AllowDataExport:          view.Record.AllowDataExport,
			AllowAPIAccess:           view.Record.AllowAPIAccess,
			AllowWhiteLabel:          view.Record.AllowWhiteLabel,
			AllowDomainCustomization: view.Record.AllowDomainCustomization,
			SupportLevel:             string(view.Record.SupportLevel),
		},
		IsDistrictUser:      view.IsDistrictUser,
		IsTournamentManager: view.IsTournamentManager,
	}
}

func brandToDTO(ctx context.Context, view usecase.BrandView) brandDTO {
	ctx, span := startSpan(ctx, "httpapi.brandToDTO")
	defer span.End()

	return brandDTO{
		Type:              string(view.Policy.Type),
		AllowFantasyPromo: view.Policy.AllowFantasyPromo,
		AllowProPromo:     view.Policy.AllowProPromo,
		AllowSchoolPromo:  view.Policy.AllowSchoolPromo,
		Features: brandFeaturesDTO{
			FantasyLeagues:  view.Policy.Features.FantasyLeagues,
			AgeVerification: view.Policy.Features.AgeVerification,
			CrossSelling:    view.Policy.Features.CrossSelling,
			GuestAccess:     view.Policy.Features.GuestAccess,
			Registration:    view.Policy.Features.Registration,
		},
		PrimaryColor:   view.Theme.PrimaryColor,
		SecondaryColor: view.Theme.SecondaryColor,
		ProductName:    view.Theme.ProductName,
	}
}

func tournamentToDTO(ctx context.Context, item tournament.Tournament) tournamentDTO {
	ctx, span := startSpan(ctx, "httpapi.tournamentToDTO")
	defer span.End()

	return tournamentDTO{
		ID:        item.ID,
		Name:      item.Name,
		Sport:     item.Sport,
		Format:    string(item.Format),
		TeamLimit: item.TeamLimit,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bracketlab/tournament-platform/internal/domain/brand"
	"github.com/bracketlab/tournament-platform/internal/domain/entitlement"
	"github.com/bracketlab/tournament-platform/internal/domain/identity"
)

// AccessView bundles the resolved capability record with the derived
// role flags the UI keys off.
type AccessView struct {
	Record              entitlement.Record
	IsDistrictUser      bool
	IsTournamentManager bool
}

// BrandView is the effective presentation context for one request:
// the domain policy plus the theme after any per-account override.
type BrandView struct {
	Policy brand.Policy
	Theme  brand.Theme
}

// AccessService answers capability and brand questions for a request.
// It is pure over the identity snapshot; nothing here touches storage.
type AccessService struct{}

func NewAccessService() *AccessService {
	return &AccessService{}
}

func (s *AccessService) Entitlements(ctx context.Context, snap *identity.Snapshot) AccessView {
	_, span := startUsecaseSpan(ctx, "usecase.access.entitlements")
	defer span.End()

	return AccessView{
		Record:              entitlement.Resolve(snap),
		IsDistrictUser:      entitlement.IsDistrictUser(snap),
		IsTournamentManager: entitlement.IsTournamentManager(snap),
	}
}

func (s *AccessService) UpgradeMessage(ctx context.Context, snap *identity.Snapshot, feature string) (string, error) {
	_, span := startUsecaseSpan(ctx, "usecase.access.upgradeMessage")
	defer span.End()

	if strings.TrimSpace(feature) == "" {
		return "", fmt.Errorf("%w: feature is required", ErrInvalidInput)
	}
	return entitlement.UpgradeMessage(snap, feature), nil
}

// Brand resolves the policy for the request hostname. An account-level
// custom theme only takes effect when the plan actually carries the
// custom-branding capability; domain feature exclusions are never
// overridable from account state.
func (s *AccessService) Brand(ctx context.Context, hostname string, snap *identity.Snapshot) BrandView {
	_, span := startUsecaseSpan(ctx, "usecase.access.brand")
	defer span.End()

	policy := brand.Resolve(hostname)
	theme := policy.Theme
	if snap != nil && snap.Branding != nil {
		if rec := entitlement.Resolve(snap); rec.AllowCustomBranding {
			if snap.Branding.PrimaryColor != "" {
				theme.PrimaryColor = snap.Branding.PrimaryColor
			}
			if snap.Branding.SecondaryColor != "" {
				theme.SecondaryColor = snap.Branding.SecondaryColor
			}
			if snap.Branding.DisplayName != "" {
				theme.ProductName = snap.Branding.DisplayName
			}
		}
	}
	return BrandView{Policy: policy, Theme: theme}
}

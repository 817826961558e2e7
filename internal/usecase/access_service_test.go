package usecase

import (
	"errors"
	"testing"

	"github.com/bracketlab/tournament-platform/internal/domain/brand"
	"github.com/bracketlab/tournament-platform/internal/domain/entitlement"
	"github.com/bracketlab/tournament-platform/internal/domain/identity"
)

func TestAccessService_Entitlements(t *testing.T) {
	svc := NewAccessService()

	guest := svc.Entitlements(t.Context(), nil)
	if guest.Record.Tier != "guest" {
		t.Fatalf("expected guest tier, got %q", guest.Record.Tier)
	}
	if guest.IsDistrictUser || guest.IsTournamentManager {
		t.Fatalf("guest must carry no role flags: %+v", guest)
	}

	district := svc.Entitlements(t.Context(), &identity.Snapshot{
		UserID:             "u",
		SubscriptionPlan:   identity.PlanDistrictEnterprise,
		SubscriptionStatus: identity.StatusActive,
		Role:               "district_admin",
	})
	if !district.IsDistrictUser {
		t.Fatalf("expected district flag set")
	}
	if district.Record.MaxTournaments != entitlement.Unlimited {
		t.Fatalf("expected unlimited tournaments, got %d", district.Record.MaxTournaments)
	}
}

func TestAccessService_UpgradeMessage_RequiresFeature(t *testing.T) {
	svc := NewAccessService()

	if _, err := svc.UpgradeMessage(t.Context(), nil, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	msg, err := svc.UpgradeMessage(t.Context(), nil, "bracket exports")
	if err != nil {
		t.Fatalf("upgrade message failed: %v", err)
	}
	if msg == "" {
		t.Fatalf("expected a message for guests")
	}
}

func TestAccessService_Brand_ThemeOverrideGatedByPlan(t *testing.T) {
	svc := NewAccessService()
	branding := &identity.Branding{PrimaryColor: "#111111", DisplayName: "Custom Cup"}

	// A plan without custom branding keeps the stock theme.
	guestView := svc.Brand(t.Context(), "schools.example.com", &identity.Snapshot{
		UserID:           "u",
		SubscriptionPlan: identity.Plan("legacy-gold"),
		Branding:         branding,
	})
	if guestView.Theme.PrimaryColor == "#111111" {
		t.Fatalf("restricted plan must not override theme")
	}

	// A branding-capable plan gets the override, merged over stock values.
	paidView := svc.Brand(t.Context(), "schools.example.com", &identity.Snapshot{
		UserID:             "u",
		SubscriptionPlan:   identity.PlanTournamentOrganizer,
		SubscriptionStatus: identity.StatusActive,
		Branding:           branding,
	})
	if paidView.Theme.PrimaryColor != "#111111" {
		t.Fatalf("expected primary color override, got %q", paidView.Theme.PrimaryColor)
	}
	if paidView.Theme.ProductName != "Custom Cup" {
		t.Fatalf("expected product name override, got %q", paidView.Theme.ProductName)
	}
	if paidView.Theme.SecondaryColor == "" {
		t.Fatalf("expected stock secondary color preserved")
	}
}

func TestAccessService_Brand_PolicyFeaturesNotOverridable(t *testing.T) {
	svc := NewAccessService()

	view := svc.Brand(t.Context(), "athletics.district.example.edu", &identity.Snapshot{
		UserID:             "u",
		SubscriptionPlan:   identity.PlanBusinessEnterprise,
		SubscriptionStatus: identity.StatusActive,
		Branding:           &identity.Branding{DisplayName: "Fantasy Plus"},
	})
	if view.Policy.Type != brand.TypeSchool {
		t.Fatalf("expected school policy, got %s", view.Policy.Type)
	}
	if view.Policy.Features.FantasyLeagues || view.Policy.Features.CrossSelling {
		t.Fatalf("school exclusions must hold regardless of plan: %+v", view.Policy.Features)
	}
	// Presentation may change, policy may not.
	if view.Theme.ProductName != "Fantasy Plus" {
		t.Fatalf("expected display name override, got %q", view.Theme.ProductName)
	}
}

package entitlement

import (
	"testing"

	"github.com/bracketlab/tournament-platform/internal/domain/identity"
)

func TestResolve_GuestNeverElevated(t *testing.T) {
	for name, snap := range map[string]*identity.Snapshot{
		"nil snapshot":  nil,
		"empty user id": {UserID: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			rec := Resolve(snap)
			if rec.Tier != "guest" {
				t.Fatalf("expected guest tier, got %q", rec.Tier)
			}
			if rec.MaxTournaments != 10 || rec.MaxTeamsPerTournament != 16 {
				t.Fatalf("unexpected guest limits: %d/%d", rec.MaxTournaments, rec.MaxTeamsPerTournament)
			}
			if rec.AllowAdvancedFormats || rec.AllowCustomBranding || rec.AllowAPIAccess || rec.AllowWhiteLabel {
				t.Fatalf("guest record carries elevated capabilities: %+v", rec)
			}
			if !rec.AllowLeaderboards {
				t.Fatalf("expected guests to keep leaderboards")
			}
		})
	}
}

func TestResolve_TierTable(t *testing.T) {
	cases := []struct {
		name           string
		plan           identity.Plan
		status         identity.Status
		wantTier       string
		wantMax        int
		wantTeams      int
		wantSupport    SupportLevel
		wantAPIAccess  bool
		wantWhiteLabel bool
	}{
		{"foundation active", identity.PlanFoundation, identity.StatusActive, "foundation", 10, 32, SupportBasic, false, false},
		{"foundation inactive", identity.PlanFoundation, identity.StatusInactive, "foundation", 3, 32, SupportBasic, false, false},
		{"free behaves as foundation", identity.PlanFree, identity.StatusActive, "foundation", 10, 32, SupportBasic, false, false},
		{"organizer active", identity.PlanTournamentOrganizer, identity.StatusActive, "tournament-organizer", 25, 64, SupportStandard, false, false},
		{"organizer inactive", identity.PlanTournamentOrganizer, identity.StatusInactive, "tournament-organizer", 5, 64, SupportStandard, false, false},
		{"business enterprise", identity.PlanBusinessEnterprise, identity.StatusActive, "business-enterprise", 100, 128, SupportPriority, true, true},
		{"annual pro is unlimited", identity.PlanAnnualPro, identity.StatusActive, "unlimited", Unlimited, Unlimited, SupportDedicated, true, true},
		{"district enterprise is unlimited", identity.PlanDistrictEnterprise, identity.StatusActive, "unlimited", Unlimited, Unlimited, SupportDedicated, true, true},
		{"enterprise is unlimited", identity.PlanEnterprise, identity.StatusActive, "unlimited", Unlimited, Unlimited, SupportDedicated, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Resolve(&identity.Snapshot{
				UserID:             "user-1",
				SubscriptionPlan:   tc.plan,
				SubscriptionStatus: tc.status,
			})
			if rec.Tier != tc.wantTier {
				t.Fatalf("expected tier %q, got %q", tc.wantTier, rec.Tier)
			}
			if rec.MaxTournaments != tc.wantMax {
				t.Fatalf("expected max tournaments %d, got %d", tc.wantMax, rec.MaxTournaments)
			}
			if rec.MaxTeamsPerTournament != tc.wantTeams {
				t.Fatalf("expected max teams %d, got %d", tc.wantTeams, rec.MaxTeamsPerTournament)
			}
			if rec.SupportLevel != tc.wantSupport {
				t.Fatalf("expected support %q, got %q", tc.wantSupport, rec.SupportLevel)
			}
			if rec.AllowAPIAccess != tc.wantAPIAccess {
				t.Fatalf("unexpected api access: %v", rec.AllowAPIAccess)
			}
			if rec.AllowWhiteLabel != tc.wantWhiteLabel {
				t.Fatalf("unexpected white label: %v", rec.AllowWhiteLabel)
			}
		})
	}
}

func TestResolve_UnknownPlanFallsBackConservatively(t *testing.T) {
	rec := Resolve(&identity.Snapshot{
		UserID:             "user-1",
		SubscriptionPlan:   identity.Plan("legacy-gold"),
		SubscriptionStatus: identity.StatusActive,
	})
	if rec.Tier != "restricted" {
		t.Fatalf("expected restricted tier, got %q", rec.Tier)
	}
	if rec.MaxTournaments != 3 || rec.MaxTeamsPerTournament != 8 {
		t.Fatalf("unexpected fallback limits: %d/%d", rec.MaxTournaments, rec.MaxTeamsPerTournament)
	}
	if rec.AllowAdvancedFormats || rec.AllowCustomBranding {
		t.Fatalf("fallback record must not elevate: %+v", rec)
	}
}

func TestRecord_CanCreateTournament(t *testing.T) {
	organizer := Resolve(&identity.Snapshot{
		UserID:             "user-1",
		SubscriptionPlan:   identity.PlanTournamentOrganizer,
		SubscriptionStatus: identity.StatusActive,
	})
	if !organizer.CanCreateTournament(24) {
		t.Fatalf("expected creation allowed at 24 of 25")
	}
	if organizer.CanCreateTournament(25) {
		t.Fatalf("expected creation denied at 25 of 25")
	}

	unlimited := Resolve(&identity.Snapshot{
		UserID:             "user-1",
		SubscriptionPlan:   identity.PlanAnnualPro,
		SubscriptionStatus: identity.StatusActive,
	})
	if !unlimited.CanCreateTournament(1_000_000) {
		t.Fatalf("expected unlimited tier to always allow creation")
	}
}

func TestRecord_CanUseFormat(t *testing.T) {
	guest := Resolve(nil)
	if !guest.CanUseFormat(FormatSingleElimination) || !guest.CanUseFormat(FormatRoundRobin) {
		t.Fatalf("basic formats must be allowed on every tier")
	}
	for _, f := range []Format{FormatDoubleElimination, FormatPoolPlay, FormatSwissSystem, FormatMultiStage} {
		if guest.CanUseFormat(f) {
			t.Fatalf("expected guest to be denied advanced format %q", f)
		}
	}

	foundation := Resolve(&identity.Snapshot{
		UserID:           "user-1",
		SubscriptionPlan: identity.PlanFoundation,
	})
	if !foundation.CanUseFormat(FormatSwissSystem) {
		t.Fatalf("expected foundation tier to use advanced formats")
	}
}

func TestIsDistrictUser(t *testing.T) {
	if IsDistrictUser(nil) {
		t.Fatalf("nil snapshot must not be a district user")
	}
	if !IsDistrictUser(&identity.Snapshot{UserID: "u", Role: "district_admin"}) {
		t.Fatalf("expected district_admin role to qualify")
	}
	if !IsDistrictUser(&identity.Snapshot{UserID: "u", SubscriptionPlan: identity.PlanDistrictEnterprise}) {
		t.Fatalf("expected district enterprise plan to qualify")
	}
	if IsDistrictUser(&identity.Snapshot{UserID: "u", Role: "coach"}) {
		t.Fatalf("coach role alone must not qualify")
	}
}

func TestIsTournamentManager(t *testing.T) {
	if IsTournamentManager(nil) {
		t.Fatalf("nil snapshot must not be a manager")
	}
	if !IsTournamentManager(&identity.Snapshot{UserID: "u", Role: "tournament_staff"}) {
		t.Fatalf("expected tournament_staff role to qualify")
	}
	if !IsTournamentManager(&identity.Snapshot{UserID: "u", Role: "head coach"}) {
		t.Fatalf("expected coach role to qualify")
	}
	if !IsTournamentManager(&identity.Snapshot{UserID: "u", SubscriptionPlan: identity.PlanBusinessEnterprise}) {
		t.Fatalf("expected business plan to qualify")
	}
	if IsTournamentManager(&identity.Snapshot{UserID: "u", SubscriptionPlan: identity.PlanFoundation}) {
		t.Fatalf("foundation plan alone must not qualify")
	}
}

func TestUpgradeMessage(t *testing.T) {
	if got := UpgradeMessage(nil, "swiss brackets"); got != "Create a free account to unlock swiss brackets." {
		t.Fatalf("unexpected guest message: %q", got)
	}

	foundation := &identity.Snapshot{UserID: "u", SubscriptionPlan: identity.PlanFoundation}
	if got := UpgradeMessage(foundation, "data export"); got != "Upgrade to Tournament Organizer to unlock data export." {
		t.Fatalf("unexpected foundation message: %q", got)
	}

	organizer := &identity.Snapshot{UserID: "u", SubscriptionPlan: identity.PlanTournamentOrganizer}
	if got := UpgradeMessage(organizer, "white label"); got != "Upgrade to Business Enterprise to unlock white label." {
		t.Fatalf("unexpected organizer message: %q", got)
	}

	unknown := &identity.Snapshot{UserID: "u", SubscriptionPlan: identity.Plan("mystery")}
	if got := UpgradeMessage(unknown, ""); got != "Upgrade your plan to unlock this feature." {
		t.Fatalf("unexpected fallback message: %q", got)
	}
}

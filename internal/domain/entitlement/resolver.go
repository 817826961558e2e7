package entitlement

import (
	"strings"

	"github.com/bracketlab/tournament-platform/internal/domain/identity"
)

// Tier ceilings. The guest ceiling matches the current product configuration
// and is subject to confirmation; keep it here rather than inlined in the
// table so it has exactly one home.
const (
	guestMaxTournaments = 10
	guestMaxTeams       = 16
)

// Resolve maps a principal snapshot to its capability record. It is a pure
// total function: nil snapshots resolve to the guest tier and unrecognized
// plans resolve to a conservative fallback, never to elevated privilege and
// never to an error.
func Resolve(snap *identity.Snapshot) Record {
	if !snap.IsAuthenticated() {
		return guestRecord()
	}

	switch snap.SubscriptionPlan {
	case identity.PlanFoundation, identity.PlanFree:
		return foundationRecord(snap.HasActiveSubscription())
	case identity.PlanTournamentOrganizer:
		return organizerRecord(snap.HasActiveSubscription())
	case identity.PlanBusinessEnterprise:
		return businessRecord()
	case identity.PlanAnnualPro, identity.PlanDistrictEnterprise, identity.PlanEnterprise:
		// Treated as equivalent unlimited tiers.
		return unlimitedRecord()
	default:
		return fallbackRecord()
	}
}

func guestRecord() Record {
	return Record{
		Tier:                  "guest",
		MaxTournaments:        guestMaxTournaments,
		MaxTeamsPerTournament: guestMaxTeams,
		AllowLeaderboards:     true,
		SupportLevel:          SupportBasic,
	}
}

func foundationRecord(active bool) Record {
	maxTournaments := 3
	if active {
		maxTournaments = 10
	}
	return Record{
		Tier:                  "foundation",
		MaxTournaments:        maxTournaments,
		MaxTeamsPerTournament: 32,
		AllowAdvancedFormats:  true,
		AllowCustomBranding:   true,
		AllowMultiStage:       true,
		AllowLeaderboards:     true,
		AllowDataExport:       true,
		SupportLevel:          SupportBasic,
	}
}

func organizerRecord(active bool) Record {
	maxTournaments := 5
	if active {
		maxTournaments = 25
	}
	return Record{
		Tier:                  "tournament-organizer",
		MaxTournaments:        maxTournaments,
		MaxTeamsPerTournament: 64,
		AllowAdvancedFormats:  true,
		AllowCustomBranding:   true,
		AllowMultiStage:       true,
		AllowLeaderboards:     true,
		AllowDataExport:       true,
		SupportLevel:          SupportStandard,
	}
}

func businessRecord() Record {
	return Record{
		Tier:                     "business-enterprise",
		MaxTournaments:           100,
		MaxTeamsPerTournament:    128,
		AllowAdvancedFormats:     true,
		AllowCustomBranding:      true,
		AllowMultiStage:          true,
		AllowLeaderboards:        true,
		AllowDataExport:          true,
		AllowAPIAccess:           true,
		AllowWhiteLabel:          true,
		AllowDomainCustomization: true,
		SupportLevel:             SupportPriority,
	}
}

func unlimitedRecord() Record {
	return Record{
		Tier:                     "unlimited",
		MaxTournaments:           Unlimited,
		MaxTeamsPerTournament:    Unlimited,
		AllowAdvancedFormats:     true,
		AllowCustomBranding:      true,
		AllowMultiStage:          true,
		AllowLeaderboards:        true,
		AllowDataExport:          true,
		AllowAPIAccess:           true,
		AllowWhiteLabel:          true,
		AllowDomainCustomization: true,
		SupportLevel:             SupportDedicated,
	}
}

func fallbackRecord() Record {
	return Record{
		Tier:                  "restricted",
		MaxTournaments:        3,
		MaxTeamsPerTournament: 8,
		AllowLeaderboards:     true,
		SupportLevel:          SupportBasic,
	}
}

// IsDistrictUser reports whether the principal acts on behalf of a school
// district: either a district_* role tag or the district enterprise plan.
func IsDistrictUser(snap *identity.Snapshot) bool {
	if snap == nil {
		return false
	}
	return snap.RoleContains("district_") || snap.SubscriptionPlan == identity.PlanDistrictEnterprise
}

// IsTournamentManager reports whether the principal manages tournaments,
// either by role tag (tournament_*, coach) or by holding an organizer-grade plan.
func IsTournamentManager(snap *identity.Snapshot) bool {
	if snap == nil {
		return false
	}
	if snap.RoleContains("tournament_") || snap.RoleContains("coach") {
		return true
	}
	switch snap.SubscriptionPlan {
	case identity.PlanTournamentOrganizer, identity.PlanBusinessEnterprise, identity.PlanAnnualPro:
		return true
	default:
		return false
	}
}

// UpgradeMessage returns a human-readable next step for a gated feature.
// It degrades gracefully: guests get a signup prompt, known paid tiers get a
// contact-support fallback, and unmapped plans never panic.
func UpgradeMessage(snap *identity.Snapshot, feature string) string {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		feature = "this feature"
	}

	if !snap.IsAuthenticated() {
		return "Create a free account to unlock " + feature + "."
	}

	switch snap.SubscriptionPlan {
	case identity.PlanFoundation, identity.PlanFree:
		return "Upgrade to Tournament Organizer to unlock " + feature + "."
	case identity.PlanTournamentOrganizer:
		return "Upgrade to Business Enterprise to unlock " + feature + "."
	case identity.PlanBusinessEnterprise, identity.PlanAnnualPro,
		identity.PlanDistrictEnterprise, identity.PlanEnterprise:
		return "Contact support to enable " + feature + " on your plan."
	default:
		return "Upgrade your plan to unlock " + feature + "."
	}
}

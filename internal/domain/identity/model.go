package identity

import "strings"

// Plan is the subscription plan tag carried by the account service.
// Unrecognized values are kept as-is and resolved conservatively downstream.
type Plan string

const (
	PlanFoundation          Plan = "foundation"
	PlanFree                Plan = "free"
	PlanTournamentOrganizer Plan = "tournament-organizer"
	PlanBusinessEnterprise  Plan = "business-enterprise"
	PlanAnnualPro           Plan = "annual-pro"
	PlanDistrictEnterprise  Plan = "district_enterprise"
	PlanEnterprise          Plan = "enterprise"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Branding is an optional partial theme override attached to an account.
type Branding struct {
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
}

// Snapshot is a read-only view of the authenticated principal. A nil
// *Snapshot is the valid guest state and must never be treated as an error.
type Snapshot struct {
	UserID             string
	SubscriptionPlan   Plan
	SubscriptionStatus Status
	Role               string
	Branding           *Branding
}

func (s *Snapshot) IsAuthenticated() bool {
	return s != nil && strings.TrimSpace(s.UserID) != ""
}

func (s *Snapshot) HasActiveSubscription() bool {
	return s != nil && s.SubscriptionStatus == StatusActive
}

// RoleContains reports whether the free-text role tag carries the given
// marker. Role tags are matched by substring (district_admin, tournament_staff).
func (s *Snapshot) RoleContains(marker string) bool {
	if s == nil || marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s.Role), strings.ToLower(marker))
}

func NormalizePlan(raw string) Plan {
	return Plan(strings.ToLower(strings.TrimSpace(raw)))
}

func NormalizeStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

package brand

import "strings"

// Type is the deployment context the app is served under. Each branded
// hostname gets its own cross-promotion rules.
type Type string

const (
	TypeSchool  Type = "school"
	TypeFantasy Type = "fantasy"
	TypePro     Type = "pro"
)

// Features is the closed per-brand capability record. Explicit fields keep an
// unknown capability name a compile error instead of a silent false.
type Features struct {
	FantasyLeagues  bool
	AgeVerification bool
	CrossSelling    bool
	GuestAccess     bool
	Registration    bool
}

// Theme carries per-brand presentation hints; account-level branding
// overrides are applied on top by the caller.
type Theme struct {
	PrimaryColor   string
	SecondaryColor string
	ProductName    string
}

// Policy is the static rule set for one deployment context. A policy never
// promotes its own brand; the school policy never promotes anything and never
// cross-sells. Both invariants hold by construction: policies are closed
// package literals, not configuration.
type Policy struct {
	Type              Type
	AllowFantasyPromo bool
	AllowProPromo     bool
	AllowSchoolPromo  bool
	Features          Features
	Theme             Theme
}

var schoolPolicy = Policy{
	Type: TypeSchool,
	Features: Features{
		GuestAccess:  true,
		Registration: true,
	},
	Theme: Theme{
		PrimaryColor:   "#1d4ed8",
		SecondaryColor: "#dbeafe",
		ProductName:    "School Athletics",
	},
}

var fantasyPolicy = Policy{
	Type:             TypeFantasy,
	AllowProPromo:    true,
	AllowSchoolPromo: true,
	Features: Features{
		FantasyLeagues:  true,
		AgeVerification: true,
		CrossSelling:    true,
		GuestAccess:     true,
		Registration:    true,
	},
	Theme: Theme{
		PrimaryColor:   "#7c3aed",
		SecondaryColor: "#ede9fe",
		ProductName:    "Fantasy Brackets",
	},
}

var proPolicy = Policy{
	Type:              TypePro,
	AllowFantasyPromo: true,
	AllowSchoolPromo:  true,
	Features: Features{
		CrossSelling: true,
		GuestAccess:  true,
		Registration: true,
	},
	Theme: Theme{
		PrimaryColor:   "#0f766e",
		SecondaryColor: "#ccfbf1",
		ProductName:    "Pro Circuit",
	},
}

// Resolve classifies a hostname into its deployment policy. Matching is a
// case-insensitive substring test in fixed precedence: fantasy before pro,
// school as the fail-safe default. Total over all inputs, no error branch.
func Resolve(hostname string) Policy {
	host := strings.ToLower(strings.TrimSpace(hostname))
	switch {
	case strings.Contains(host, "fantasy"):
		return fantasyPolicy
	case strings.Contains(host, "pro"):
		return proPolicy
	default:
		return schoolPolicy
	}
}

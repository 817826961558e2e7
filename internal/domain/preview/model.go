package preview

import (
	"strings"
	"time"
)

// Section identifiers for the tournament-creation flow, in display order.
const (
	SectionBasics   = "basics"
	SectionSport    = "sport"
	SectionFormat   = "format"
	SectionTeams    = "teams"
	SectionSchedule = "schedule"
	SectionScoring  = "scoring"
	SectionBranding = "branding"
	SectionReview   = "review"
)

// AllSections lists every section of the creation flow. Progress percentages
// are computed against this set, not against whatever a visitor happened to
// touch.
var AllSections = []string{
	SectionBasics,
	SectionSport,
	SectionFormat,
	SectionTeams,
	SectionSchedule,
	SectionScoring,
	SectionBranding,
	SectionReview,
}

// Draft is the free-form partial snapshot of an in-progress tournament.
type Draft struct {
	Flow     string         `json:"flow,omitempty"`
	Name     string         `json:"name,omitempty"`
	Sport    string         `json:"sport,omitempty"`
	Format   string         `json:"format,omitempty"`
	Teams    []string       `json:"teams,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Session is an anonymous visitor's in-progress draft. It exists only while
// the visitor is unauthenticated; once authentication succeeds writes become
// no-ops.
type Session struct {
	StartedAt         time.Time `json:"started_at"`
	LastSavedAt       time.Time `json:"last_saved_at"`
	SectionsCompleted []string  `json:"sections_completed,omitempty"`
	PromptShown       bool      `json:"prompt_shown"`
	Draft             Draft     `json:"draft"`
}

func (s Session) HasSection(id string) bool {
	for _, existing := range s.SectionsCompleted {
		if strings.EqualFold(existing, id) {
			return true
		}
	}
	return false
}

// Rules stores the conversion-prompt trigger parameters.
type Rules struct {
	PromptAfter        time.Duration
	PromptSectionCount int
	TotalSections      int
	RecheckInterval    time.Duration
}

func DefaultRules() Rules {
	return Rules{
		PromptAfter:        5 * time.Minute,
		PromptSectionCount: 3,
		TotalSections:      len(AllSections),
		RecheckInterval:    30 * time.Second,
	}
}

// Progress is the derived read-only view of a session.
type Progress struct {
	CompletedSections []string
	Percentage        int
	TimeSpent         time.Duration
	PromptShown       bool
}

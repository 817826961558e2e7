package entitlement

// Unlimited is the sentinel for numeric limits without a ceiling.
const Unlimited = -1

type SupportLevel string

const (
	SupportBasic     SupportLevel = "basic"
	SupportStandard  SupportLevel = "standard"
	SupportPriority  SupportLevel = "priority"
	SupportDedicated SupportLevel = "dedicated"
)

// Format identifies a bracket format requested for a tournament.
type Format string

const (
	FormatSingleElimination Format = "single-elimination"
	FormatRoundRobin        Format = "round-robin"
	FormatDoubleElimination Format = "double-elimination"
	FormatPoolPlay          Format = "pool-play"
	FormatSwissSystem       Format = "swiss-system"
	FormatMultiStage        Format = "multi-stage"
)

// advancedFormats require the AllowAdvancedFormats capability. Formats outside
// this set are permitted on every tier.
var advancedFormats = map[Format]struct{}{
	FormatDoubleElimination: {},
	FormatPoolPlay:          {},
	FormatSwissSystem:       {},
	FormatMultiStage:        {},
}

// Record is the capability and limit set derived for one principal.
// MaxTournaments and MaxTeamsPerTournament use Unlimited (-1) for no ceiling.
type Record struct {
	Tier                  string
	MaxTournaments        int
	MaxTeamsPerTournament int

	AllowAdvancedFormats     bool
	AllowCustomBranding      bool
	AllowMultiStage          bool
	AllowLeaderboards        bool
	AllowDataExport          bool
	AllowAPIAccess           bool
	AllowWhiteLabel          bool
	AllowDomainCustomization bool

	SupportLevel SupportLevel
}

// CanCreateTournament reports whether another tournament may be created
// given the caller's current count. Callers must pass a fresh count on every
// check; the record itself holds no usage state.
func (r Record) CanCreateTournament(currentCount int) bool {
	if r.MaxTournaments == Unlimited {
		return true
	}
	return currentCount < r.MaxTournaments
}

// CanUseFormat reports whether the given bracket format is permitted.
// Formats outside the advanced set are always allowed.
func (r Record) CanUseFormat(format Format) bool {
	if _, advanced := advancedFormats[format]; !advanced {
		return true
	}
	return r.AllowAdvancedFormats
}

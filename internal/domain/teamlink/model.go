package teamlink

import "strings"

// Storage keys shared between the preview tracker and the reconciler. Both
// sides import these constants; the key strings must never be re-typed as
// literals elsewhere.
const (
	// Session-scoped: cleared when the visitor's session ends.
	KeyPendingTeamLink = "pending_team_link"
	KeyAuthReturnURL   = "auth_return_url"

	// Persistent: survives restarts until explicitly cleared.
	KeyPreviewData       = "tournament_preview_data"
	KeyPendingTeamSignup = "pending_team_signup"
	KeyLinkToken         = "team_link_token"
)

// PendingLink is a pre-authentication "claim this team" intent. A TeamID
// without a LinkToken cannot be verified and is treated as a security
// anomaly, never retried.
type PendingLink struct {
	TeamID    string `json:"team_id"`
	ReturnURL string `json:"return_url,omitempty"`
}

// securitySignals are the failure-message keywords that mark a rejected link
// as security-relevant rather than transient.
var securitySignals = []string{"token", "expired", "invalid", "mismatch"}

// IsSecuritySignal reports whether a link failure message indicates a
// compromised or stale claim. Such failures additionally invalidate the
// pending signup draft.
func IsSecuritySignal(message string) bool {
	lowered := strings.ToLower(message)
	for _, signal := range securitySignals {
		if strings.Contains(lowered, signal) {
			return true
		}
	}
	return false
}

package tournament

import (
	"time"

	"github.com/bracketlab/tournament-platform/internal/domain/entitlement"
)

// Tournament is the minimal aggregate the access layer needs: ownership for
// counting against plan ceilings and the format for gating checks.
type Tournament struct {
	ID        string
	OwnerID   string
	Name      string
	Sport     string
	Format    entitlement.Format
	TeamLimit int
	CreatedAt time.Time
	UpdatedAt time.Time
}

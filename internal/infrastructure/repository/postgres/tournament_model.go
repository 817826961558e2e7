package postgres

import "time"

type tournamentTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	OwnerID   string     `db:"owner_id"`
	Name      string     `db:"name"`
	Sport     string     `db:"sport"`
	Format    string     `db:"format"`
	TeamLimit int        `db:"team_limit"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bracketlab/tournament-platform/internal/domain/entitlement"
	"github.com/bracketlab/tournament-platform/internal/domain/tournament"
	qb "github.com/bracketlab/tournament-platform/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("tournaments").
		Where(
			qb.Eq("owner_id", ownerID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count tournaments query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count tournaments: %w", err)
	}
	return count, nil
}

func (r *TournamentRepository) ListByOwner(ctx context.Context, ownerID string) ([]tournament.Tournament, error) {
	query, args, err := qb.Select("*").From("tournaments").
		Where(
			qb.Eq("owner_id", ownerID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournament.Tournament{
			ID:        row.PublicID,
			OwnerID:   row.OwnerID,
			Name:      row.Name,
			Sport:     row.Sport,
			Format:    entitlement.Format(row.Format),
			TeamLimit: row.TeamLimit,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *TournamentRepository) Create(ctx context.Context, item tournament.Tournament) error {
	query, args, err := qb.InsertInto("tournaments").
		Columns("public_id", "owner_id", "name", "sport", "format", "team_limit", "created_at", "updated_at").
		Values(item.ID, item.OwnerID, item.Name, item.Sport, string(item.Format), item.TeamLimit, item.CreatedAt, item.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert tournament query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert tournament: %w", err)
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bracketlab/tournament-platform/internal/domain/entitlement"
	"github.com/bracketlab/tournament-platform/internal/domain/identity"
	"github.com/bracketlab/tournament-platform/internal/domain/tournament"
	"github.com/bracketlab/tournament-platform/internal/platform/id"
	"github.com/bracketlab/tournament-platform/internal/platform/logging"
)

// CreateTournamentInput is the validated request to create a tournament.
type CreateTournamentInput struct {
	Name      string
	Sport     string
	Format    entitlement.Format
	TeamLimit int
}

// TournamentService enforces plan ceilings on tournament creation. Counts
// are read fresh from the repository on every check; the entitlement record
// carries limits only.
type TournamentService struct {
	repo   tournament.Repository
	idGen  id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewTournamentService(repo tournament.Repository, idGen id.Generator, logger *logging.Logger) *TournamentService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TournamentService{
		repo:   repo,
		idGen:  idGen,
		logger: logger,
		now:    time.Now,
	}
}

func (s *TournamentService) Create(ctx context.Context, snap *identity.Snapshot, input CreateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.tournament.create")
	defer span.End()

	if !snap.IsAuthenticated() {
		return tournament.Tournament{}, fmt.Errorf("%w: sign in to create tournaments", ErrUnauthorized)
	}
	if strings.TrimSpace(input.Name) == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}
	if input.Format == "" {
		input.Format = entitlement.FormatSingleElimination
	}

	record := entitlement.Resolve(snap)
	if !record.CanUseFormat(input.Format) {
		return tournament.Tournament{}, fmt.Errorf("%w: %s", ErrFormatNotAllowed, input.Format)
	}
	if record.MaxTeamsPerTournament != entitlement.Unlimited && input.TeamLimit > record.MaxTeamsPerTournament {
		return tournament.Tournament{}, fmt.Errorf("%w: team limit %d exceeds plan maximum %d",
			ErrLimitReached, input.TeamLimit, record.MaxTeamsPerTournament)
	}

	count, err := s.repo.CountByOwner(ctx, snap.UserID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: count tournaments: %v", ErrDependencyUnavailable, err)
	}
	if !record.CanCreateTournament(count) {
		return tournament.Tournament{}, fmt.Errorf("%w: %d of %d tournaments used",
			ErrLimitReached, count, record.MaxTournaments)
	}

	if input.TeamLimit <= 0 {
		input.TeamLimit = defaultTeamLimit(record)
	}
	newID, err := s.idGen.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: generate id: %v", ErrDependencyUnavailable, err)
	}
	nowTS := s.now().UTC()
	item := tournament.Tournament{
		ID:        newID,
		OwnerID:   snap.UserID,
		Name:      strings.TrimSpace(input.Name),
		Sport:     strings.TrimSpace(input.Sport),
		Format:    input.Format,
		TeamLimit: input.TeamLimit,
		CreatedAt: nowTS,
		UpdatedAt: nowTS,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: create tournament: %v", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		"tournament_id", item.ID,
		"owner_id", item.OwnerID,
		"format", string(item.Format),
	)
	return item, nil
}

func defaultTeamLimit(record entitlement.Record) int {
	if record.MaxTeamsPerTournament == entitlement.Unlimited {
		return 16
	}
	return record.MaxTeamsPerTournament
}

func (s *TournamentService) ListMine(ctx context.Context, snap *identity.Snapshot) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.tournament.listMine")
	defer span.End()

	if !snap.IsAuthenticated() {
		return nil, fmt.Errorf("%w: sign in to list tournaments", ErrUnauthorized)
	}
	items, err := s.repo.ListByOwner(ctx, snap.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: list tournaments: %v", ErrDependencyUnavailable, err)
	}
	return items, nil
}

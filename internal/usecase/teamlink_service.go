package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/bracketlab/tournament-platform/internal/domain/teamlink"
	"github.com/bracketlab/tournament-platform/internal/platform/cache"
	"github.com/bracketlab/tournament-platform/internal/platform/kvstore"
	"github.com/bracketlab/tournament-platform/internal/platform/logging"
)

// LinkedTeam is the collaborator's view of a claimed team.
type LinkedTeam struct {
	ID   string
	Name string
}

// TeamLinker submits a single-use claim token to the teams collaborator.
type TeamLinker interface {
	LinkTeam(ctx context.Context, teamID, linkToken string) (LinkedTeam, error)
}

// ReconcileAction tells the caller what the reconciler decided for a session.
type ReconcileAction string

const (
	// ActionLinked: claim succeeded, state cleared, redirect to the team page.
	ActionLinked ReconcileAction = "linked"
	// ActionLinkFailed: claim rejected, state cleared fail-closed.
	ActionLinkFailed ReconcileAction = "link_failed"
	// ActionAnomaly: team intent with no token; cleared without any claim call.
	ActionAnomaly ReconcileAction = "anomaly"
	// ActionRedirect: no link state, just a stored return destination.
	ActionRedirect ReconcileAction = "redirect"
	// ActionNone: nothing pending for this session.
	ActionNone ReconcileAction = "none"
)

// ReconcileOutcome is the result of one post-authentication reconcile pass.
type ReconcileOutcome struct {
	Action      ReconcileAction
	TeamID      string
	RedirectURL string
	Reason      string
}

// teamsCachePrefix namespaces cached team listings; a successful link drops
// the whole namespace so the new membership is visible immediately.
const teamsCachePrefix = "teams:"

// TeamLinkService replays deferred team-link intents once a visitor
// authenticates. All terminal paths clear the pending state: a claim is
// attempted at most once per stored token.
type TeamLinkService struct {
	store  kvstore.Store
	linker TeamLinker
	cache  *cache.Store
	logger *logging.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewTeamLinkService(store kvstore.Store, linker TeamLinker, cacheStore *cache.Store, logger *logging.Logger) *TeamLinkService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TeamLinkService{
		store:    store,
		linker:   linker,
		cache:    cacheStore,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

func (s *TeamLinkService) getString(ctx context.Context, scope kvstore.Scope, ownerID, key string) (string, error) {
	var value string
	ok, err := kvstore.GetJSON(ctx, s.store, scope, ownerID, key, &value)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrDependencyUnavailable, key, err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

// Reconcile inspects the owner's stored intents and performs at most one
// claim call. Link failures are reported in the outcome, never as an error:
// authentication must complete regardless of what happens here.
func (s *TeamLinkService) Reconcile(ctx context.Context, ownerID string) (ReconcileOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.teamlink.reconcile")
	defer span.End()

	if strings.TrimSpace(ownerID) == "" {
		return ReconcileOutcome{}, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	if _, busy := s.inFlight[ownerID]; busy {
		s.mu.Unlock()
		return ReconcileOutcome{Action: ActionNone, Reason: "reconcile already in flight"}, nil
	}
	s.inFlight[ownerID] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, ownerID)
		s.mu.Unlock()
	}()

	var pending teamlink.PendingLink
	hasPending, err := kvstore.GetJSON(ctx, s.store, kvstore.ScopeSession, ownerID, teamlink.KeyPendingTeamLink, &pending)
	if err != nil {
		return ReconcileOutcome{}, fmt.Errorf("%w: read pending link: %v", ErrDependencyUnavailable, err)
	}
	token, err := s.getString(ctx, kvstore.ScopePersistent, ownerID, teamlink.KeyLinkToken)
	if err != nil {
		return ReconcileOutcome{}, err
	}
	returnURL, err := s.getString(ctx, kvstore.ScopeSession, ownerID, teamlink.KeyAuthReturnURL)
	if err != nil {
		return ReconcileOutcome{}, err
	}

	switch {
	case hasPending && pending.TeamID != "" && token != "":
		return s.claim(ctx, ownerID, pending, token, returnURL)

	case hasPending && pending.TeamID != "":
		// Team intent without a token cannot be verified. Clear everything
		// related and never call the collaborator.
		s.clearLinkState(ctx, ownerID)
		_ = s.store.Delete(ctx, kvstore.ScopePersistent, ownerID, teamlink.KeyPendingTeamSignup)
		s.logger.WarnContext(ctx, "team link anomaly: intent without token", "owner_id", ownerID, "team_id", pending.TeamID)
		return ReconcileOutcome{
			Action:      ActionAnomaly,
			TeamID:      pending.TeamID,
			RedirectURL: s.consumeReturnURL(ctx, ownerID, returnURL),
			Reason:      "pending link without token",
		}, nil

	case returnURL != "":
		return ReconcileOutcome{
			Action:      ActionRedirect,
			RedirectURL: s.consumeReturnURL(ctx, ownerID, returnURL),
		}, nil

	default:
		return ReconcileOutcome{Action: ActionNone}, nil
	}
}

func (s *TeamLinkService) claim(ctx context.Context, ownerID string, pending teamlink.PendingLink, token, returnURL string) (ReconcileOutcome, error) {
	linked, err := s.linker.LinkTeam(ctx, pending.TeamID, token)
	if err != nil {
		// Fail closed: the token is single-use, so the claim is never retried
		// with the same state.
		s.clearLinkState(ctx, ownerID)
		if teamlink.IsSecuritySignal(err.Error()) {
			_ = s.store.Delete(ctx, kvstore.ScopePersistent, ownerID, teamlink.KeyPendingTeamSignup)
			s.logger.WarnContext(ctx, "team link rejected by security check",
				"owner_id", ownerID, "team_id", pending.TeamID, "error", err)
		} else {
			s.logger.WarnContext(ctx, "team link failed",
				"owner_id", ownerID, "team_id", pending.TeamID, "error", err)
		}
		return ReconcileOutcome{
			Action:      ActionLinkFailed,
			TeamID:      pending.TeamID,
			RedirectURL: s.consumeReturnURL(ctx, ownerID, returnURL),
			Reason:      err.Error(),
		}, nil
	}

	s.clearLinkState(ctx, ownerID)
	_ = s.store.Delete(ctx, kvstore.ScopeSession, ownerID, teamlink.KeyAuthReturnURL)
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, teamsCachePrefix)
	}
	s.logger.InfoContext(ctx, "team linked", "owner_id", ownerID, "team_id", linked.ID)

	return ReconcileOutcome{
		Action:      ActionLinked,
		TeamID:      linked.ID,
		RedirectURL: "/teams/" + linked.ID,
	}, nil
}

// clearLinkState drops the pending intent and the single-use token. Every
// terminal reconcile path goes through here.
func (s *TeamLinkService) clearLinkState(ctx context.Context, ownerID string) {
	_ = s.store.Delete(ctx, kvstore.ScopeSession, ownerID, teamlink.KeyPendingTeamLink)
	_ = s.store.Delete(ctx, kvstore.ScopePersistent, ownerID, teamlink.KeyLinkToken)
}

func (s *TeamLinkService) consumeReturnURL(ctx context.Context, ownerID, returnURL string) string {
	if returnURL == "" {
		return ""
	}
	_ = s.store.Delete(ctx, kvstore.ScopeSession, ownerID, teamlink.KeyAuthReturnURL)
	return returnURL
}

// SweepResult summarizes one background reconcile pass.
type SweepResult struct {
	Owners    int
	Linked    int
	Failed    int
	Anomalies int
}

// ReconcileSweep replays every session holding a pending link, fanned out
// over a bounded worker pool. Operators trigger it after collaborator
// outages so stuck intents drain without waiting for the owners to sign in
// again.
func (s *TeamLinkService) ReconcileSweep(ctx context.Context, workers int) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.teamlink.reconcileSweep")
	defer span.End()

	lister, ok := s.store.(kvstore.OwnerLister)
	if !ok {
		return SweepResult{}, nil
	}
	owners, err := lister.Owners(ctx, kvstore.ScopeSession, teamlink.KeyPendingTeamLink)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: list pending links: %v", ErrDependencyUnavailable, err)
	}
	if len(owners) == 0 {
		return SweepResult{}, nil
	}
	if workers <= 0 {
		workers = 4
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: start sweep pool: %v", ErrDependencyUnavailable, err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result = SweepResult{Owners: len(owners)}
	)
	for _, owner := range owners {
		owner := owner
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			outcome, err := s.Reconcile(ctx, owner)
			if err != nil {
				s.logger.WarnContext(ctx, "sweep reconcile failed", "owner_id", owner, "error", err)
				return
			}
			mu.Lock()
			switch outcome.Action {
			case ActionLinked:
				result.Linked++
			case ActionLinkFailed:
				result.Failed++
			case ActionAnomaly:
				result.Anomalies++
			}
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "sweep submit failed", "owner_id", owner, "error", submitErr)
		}
	}
	wg.Wait()

	return result, nil
}

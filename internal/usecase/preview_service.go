package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bracketlab/tournament-platform/internal/domain/preview"
	"github.com/bracketlab/tournament-platform/internal/domain/teamlink"
	"github.com/bracketlab/tournament-platform/internal/platform/kvstore"
	"github.com/bracketlab/tournament-platform/internal/platform/logging"
)

// PreviewService tracks anonymous draft sessions and decides when the
// conversion prompt fires. Every write is keyed by the visitor ID and becomes
// a no-op once the visitor is authenticated.
type PreviewService struct {
	store  kvstore.Store
	rules  preview.Rules
	logger *logging.Logger

	// now is swappable so trigger tests can move the clock.
	now func() time.Time
	// startedAt anchors elapsed-time reporting for visitors with no stored
	// session, so TimeSpent never goes negative or absurd after a wipe.
	startedAt time.Time
}

func NewPreviewService(store kvstore.Store, rules preview.Rules, logger *logging.Logger) *PreviewService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if rules.TotalSections <= 0 {
		rules = preview.DefaultRules()
	}
	return &PreviewService{
		store:     store,
		rules:     rules,
		logger:    logger,
		now:       time.Now,
		startedAt: time.Now(),
	}
}

func (s *PreviewService) loadSession(ctx context.Context, visitorID string) (preview.Session, bool, error) {
	var sess preview.Session
	ok, err := kvstore.GetJSON(ctx, s.store, kvstore.ScopePersistent, visitorID, teamlink.KeyPreviewData, &sess)
	if err != nil {
		return preview.Session{}, false, fmt.Errorf("%w: load preview session: %v", ErrDependencyUnavailable, err)
	}
	return sess, ok, nil
}

func (s *PreviewService) saveSession(ctx context.Context, visitorID string, sess preview.Session) error {
	if err := kvstore.SetJSON(ctx, s.store, kvstore.ScopePersistent, visitorID, teamlink.KeyPreviewData, sess); err != nil {
		return fmt.Errorf("%w: save preview session: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

// SaveDraft merges a partial draft into the visitor's session. For an
// authenticated caller the stored session is returned untouched.
func (s *PreviewService) SaveDraft(ctx context.Context, visitorID string, authenticated bool, partial preview.Draft) (preview.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.preview.saveDraft")
	defer span.End()

	if strings.TrimSpace(visitorID) == "" {
		return preview.Session{}, fmt.Errorf("%w: visitor id is required", ErrInvalidInput)
	}

	sess, found, err := s.loadSession(ctx, visitorID)
	if err != nil {
		return preview.Session{}, err
	}
	if authenticated {
		return sess, nil
	}

	if !found {
		sess.StartedAt = s.now()
	}
	mergeDraft(&sess.Draft, partial)
	sess.LastSavedAt = s.now()

	if err := s.saveSession(ctx, visitorID, sess); err != nil {
		return preview.Session{}, err
	}
	return sess, nil
}

func mergeDraft(dst *preview.Draft, src preview.Draft) {
	if src.Flow != "" {
		dst.Flow = src.Flow
	}
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Sport != "" {
		dst.Sport = src.Sport
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Teams != nil {
		dst.Teams = src.Teams
	}
	if len(src.Settings) > 0 {
		if dst.Settings == nil {
			dst.Settings = make(map[string]any, len(src.Settings))
		}
		for k, v := range src.Settings {
			dst.Settings[k] = v
		}
	}
}

// MarkSectionCompleted records one finished flow section and re-evaluates the
// prompt triggers. Re-marking an already completed section is a no-op, as is
// any call from an authenticated visitor. The returned bool reports whether
// the prompt fired on this call.
func (s *PreviewService) MarkSectionCompleted(ctx context.Context, visitorID string, authenticated bool, sectionID string) (preview.Session, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.preview.markSectionCompleted")
	defer span.End()

	if strings.TrimSpace(visitorID) == "" {
		return preview.Session{}, false, fmt.Errorf("%w: visitor id is required", ErrInvalidInput)
	}
	if !knownSection(sectionID) {
		return preview.Session{}, false, fmt.Errorf("%w: unknown section %q", ErrInvalidInput, sectionID)
	}

	sess, found, err := s.loadSession(ctx, visitorID)
	if err != nil {
		return preview.Session{}, false, err
	}
	if authenticated {
		return sess, false, nil
	}

	if !found {
		sess.StartedAt = s.now()
	}
	if sess.HasSection(sectionID) {
		return sess, false, nil
	}
	sess.SectionsCompleted = append(sess.SectionsCompleted, sectionID)
	sess.LastSavedAt = s.now()

	fired := s.applyPromptTriggers(&sess)
	if err := s.saveSession(ctx, visitorID, sess); err != nil {
		return preview.Session{}, false, err
	}
	if fired {
		s.logger.InfoContext(ctx, "conversion prompt fired",
			"visitor_id", visitorID,
			"sections_completed", len(sess.SectionsCompleted),
		)
	}
	return sess, fired, nil
}

// roundedPercentage rounds half up so 1/8 reports 13 rather than 12.
func roundedPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (completed*200 + total) / (2 * total)
}

func knownSection(id string) bool {
	for _, known := range preview.AllSections {
		if strings.EqualFold(known, id) {
			return true
		}
	}
	return false
}

// applyPromptTriggers marks the prompt shown when either threshold is met.
// The flag latches: once shown it is never re-fired for the session.
func (s *PreviewService) applyPromptTriggers(sess *preview.Session) bool {
	if sess.PromptShown {
		return false
	}
	byCount := len(sess.SectionsCompleted) >= s.rules.PromptSectionCount
	byTime := !sess.StartedAt.IsZero() && s.now().Sub(sess.StartedAt) >= s.rules.PromptAfter
	if !byCount && !byTime {
		return false
	}
	sess.PromptShown = true
	return true
}

// CheckPrompt re-evaluates the time trigger for one visitor. The background
// recheck loop calls this every RecheckInterval so a visitor who lingers
// without completing sections still gets prompted.
func (s *PreviewService) CheckPrompt(ctx context.Context, visitorID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.preview.checkPrompt")
	defer span.End()

	if strings.TrimSpace(visitorID) == "" {
		return false, fmt.Errorf("%w: visitor id is required", ErrInvalidInput)
	}

	sess, found, err := s.loadSession(ctx, visitorID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	fired := s.applyPromptTriggers(&sess)
	if !fired {
		return false, nil
	}
	if err := s.saveSession(ctx, visitorID, sess); err != nil {
		return false, err
	}
	return true, nil
}

// PromptSweepResult summarizes one pass of the recheck loop.
type PromptSweepResult struct {
	Checked int
	Fired   int
}

// RunPromptSweep re-checks every stored session once. It only works against
// stores that can enumerate owners; others report zero work.
func (s *PreviewService) RunPromptSweep(ctx context.Context) (PromptSweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.preview.runPromptSweep")
	defer span.End()

	lister, ok := s.store.(kvstore.OwnerLister)
	if !ok {
		return PromptSweepResult{}, nil
	}
	owners, err := lister.Owners(ctx, kvstore.ScopePersistent, teamlink.KeyPreviewData)
	if err != nil {
		return PromptSweepResult{}, fmt.Errorf("%w: list preview sessions: %v", ErrDependencyUnavailable, err)
	}

	var result PromptSweepResult
	for _, owner := range owners {
		result.Checked++
		fired, err := s.CheckPrompt(ctx, owner)
		if err != nil {
			s.logger.WarnContext(ctx, "prompt recheck failed", "visitor_id", owner, "error", err)
			continue
		}
		if fired {
			result.Fired++
		}
	}
	return result, nil
}

// StartPromptLoop runs the recheck sweep every RecheckInterval until ctx is
// cancelled.
func (s *PreviewService) StartPromptLoop(ctx context.Context) {
	ticker := time.NewTicker(s.rules.RecheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunPromptSweep(ctx); err != nil {
				s.logger.WarnContext(ctx, "prompt sweep failed", "error", err)
			}
		}
	}
}

// Progress derives the read-only view of a visitor's session. A visitor with
// no session reports zero progress and elapsed time anchored at service
// start.
func (s *PreviewService) Progress(ctx context.Context, visitorID string) (preview.Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.preview.progress")
	defer span.End()

	if strings.TrimSpace(visitorID) == "" {
		return preview.Progress{}, fmt.Errorf("%w: visitor id is required", ErrInvalidInput)
	}

	sess, found, err := s.loadSession(ctx, visitorID)
	if err != nil {
		return preview.Progress{}, err
	}
	if !found {
		return preview.Progress{TimeSpent: s.now().Sub(s.startedAt)}, nil
	}

	anchor := sess.StartedAt
	if anchor.IsZero() {
		anchor = s.startedAt
	}
	return preview.Progress{
		CompletedSections: sess.SectionsCompleted,
		Percentage:        roundedPercentage(len(sess.SectionsCompleted), s.rules.TotalSections),
		TimeSpent:         s.now().Sub(anchor),
		PromptShown:       sess.PromptShown,
	}, nil
}

// ClearDraft drops the visitor's stored session entirely, prompt latch
// included, along with any session-scoped leftovers (pending link intent,
// stored return URL) that only made sense while the draft existed.
func (s *PreviewService) ClearDraft(ctx context.Context, visitorID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.preview.clearDraft")
	defer span.End()

	if strings.TrimSpace(visitorID) == "" {
		return fmt.Errorf("%w: visitor id is required", ErrInvalidInput)
	}
	if err := s.store.Delete(ctx, kvstore.ScopePersistent, visitorID, teamlink.KeyPreviewData); err != nil {
		return fmt.Errorf("%w: clear preview session: %v", ErrDependencyUnavailable, err)
	}
	if err := s.store.ClearScope(ctx, kvstore.ScopeSession, visitorID); err != nil {
		return fmt.Errorf("%w: clear session scope: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

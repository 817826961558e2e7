package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/bracketlab/tournament-platform/internal/domain/preview"
	"github.com/bracketlab/tournament-platform/internal/domain/teamlink"
	"github.com/bracketlab/tournament-platform/internal/platform/kvstore"
	"github.com/bracketlab/tournament-platform/internal/platform/logging"
)

func newPreviewService(t *testing.T) (*PreviewService, *kvstore.Memory, *time.Time) {
	t.Helper()

	store := kvstore.NewMemory()
	svc := NewPreviewService(store, preview.DefaultRules(), logging.NewNop())

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, store, &now
}

func TestPreviewService_SaveDraft_MergesPartials(t *testing.T) {
	svc, _, _ := newPreviewService(t)
	ctx := t.Context()

	first, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{
		Name:     "Spring Invitational",
		Sport:    "basketball",
		Settings: map[string]any{"courts": 4},
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if first.Draft.Name != "Spring Invitational" {
		t.Fatalf("unexpected draft name: %q", first.Draft.Name)
	}

	second, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{
		Format:   "round-robin",
		Settings: map[string]any{"referees": 2},
	})
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	// Earlier fields survive, settings merge per key.
	if second.Draft.Name != "Spring Invitational" || second.Draft.Sport != "basketball" {
		t.Fatalf("expected earlier fields preserved: %+v", second.Draft)
	}
	if second.Draft.Format != "round-robin" {
		t.Fatalf("expected format merged, got %q", second.Draft.Format)
	}
	if len(second.Draft.Settings) != 2 {
		t.Fatalf("expected merged settings, got %+v", second.Draft.Settings)
	}
}

func TestPreviewService_SaveDraft_TeamsReplacedWholesale(t *testing.T) {
	svc, _, _ := newPreviewService(t)
	ctx := t.Context()

	if _, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{Teams: []string{"Hawks", "Owls"}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	sess, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{Teams: []string{"Eagles"}})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(sess.Draft.Teams) != 1 || sess.Draft.Teams[0] != "Eagles" {
		t.Fatalf("expected teams replaced, got %v", sess.Draft.Teams)
	}
}

func TestPreviewService_SaveDraft_AuthenticatedIsNoOp(t *testing.T) {
	svc, store, _ := newPreviewService(t)
	ctx := t.Context()

	sess, err := svc.SaveDraft(ctx, "visitor-1", true, preview.Draft{Name: "should not persist"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if sess.Draft.Name != "" {
		t.Fatalf("expected empty session for authenticated caller, got %+v", sess)
	}
	if _, ok, _ := store.Get(ctx, kvstore.ScopePersistent, "visitor-1", teamlink.KeyPreviewData); ok {
		t.Fatalf("expected no stored session for authenticated caller")
	}
}

func TestPreviewService_SaveDraft_RequiresVisitorID(t *testing.T) {
	svc, _, _ := newPreviewService(t)

	_, err := svc.SaveDraft(t.Context(), "  ", false, preview.Draft{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPreviewService_MarkSection_SectionCountTrigger(t *testing.T) {
	svc, _, _ := newPreviewService(t)
	ctx := t.Context()

	for i, section := range []string{preview.SectionBasics, preview.SectionSport} {
		_, fired, err := svc.MarkSectionCompleted(ctx, "visitor-1", false, section)
		if err != nil {
			t.Fatalf("mark section %d failed: %v", i, err)
		}
		if fired {
			t.Fatalf("prompt fired too early at section %d", i+1)
		}
	}

	sess, fired, err := svc.MarkSectionCompleted(ctx, "visitor-1", false, preview.SectionFormat)
	if err != nil {
		t.Fatalf("mark third section failed: %v", err)
	}
	if !fired {
		t.Fatalf("expected prompt to fire on third section")
	}
	if !sess.PromptShown {
		t.Fatalf("expected prompt latch set")
	}

	// The latch holds: a fourth section never re-fires.
	_, fired, err = svc.MarkSectionCompleted(ctx, "visitor-1", false, preview.SectionTeams)
	if err != nil {
		t.Fatalf("mark fourth section failed: %v", err)
	}
	if fired {
		t.Fatalf("prompt re-fired after latch")
	}
}

func TestPreviewService_MarkSection_IdempotentPerSection(t *testing.T) {
	svc, _, _ := newPreviewService(t)
	ctx := t.Context()

	if _, _, err := svc.MarkSectionCompleted(ctx, "visitor-1", false, preview.SectionBasics); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	sess, _, err := svc.MarkSectionCompleted(ctx, "visitor-1", false, "BASICS")
	if err != nil {
		t.Fatalf("re-mark failed: %v", err)
	}
	if len(sess.SectionsCompleted) != 1 {
		t.Fatalf("expected one completed section, got %v", sess.SectionsCompleted)
	}
}

func TestPreviewService_MarkSection_UnknownSectionRejected(t *testing.T) {
	svc, _, _ := newPreviewService(t)

	_, _, err := svc.MarkSectionCompleted(t.Context(), "visitor-1", false, "payments")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown section, got %v", err)
	}
}

func TestPreviewService_TimeTriggerViaCheckPrompt(t *testing.T) {
	svc, _, now := newPreviewService(t)
	ctx := t.Context()

	if _, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{Name: "draft"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	fired, err := svc.CheckPrompt(ctx, "visitor-1")
	if err != nil || fired {
		t.Fatalf("expected no prompt before threshold: fired=%v err=%v", fired, err)
	}

	*now = now.Add(5 * time.Minute)
	fired, err = svc.CheckPrompt(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !fired {
		t.Fatalf("expected time trigger to fire at 5 minutes")
	}

	// Latched: a later check never re-fires.
	*now = now.Add(time.Hour)
	fired, err = svc.CheckPrompt(ctx, "visitor-1")
	if err != nil || fired {
		t.Fatalf("expected latched prompt, fired=%v err=%v", fired, err)
	}
}

func TestPreviewService_CheckPrompt_NoSession(t *testing.T) {
	svc, _, _ := newPreviewService(t)

	fired, err := svc.CheckPrompt(t.Context(), "ghost")
	if err != nil || fired {
		t.Fatalf("expected silent no-op for unknown visitor: fired=%v err=%v", fired, err)
	}
}

func TestPreviewService_RunPromptSweep(t *testing.T) {
	svc, _, now := newPreviewService(t)
	ctx := t.Context()

	for _, visitor := range []string{"v-idle", "v-fresh"} {
		if _, err := svc.SaveDraft(ctx, visitor, false, preview.Draft{Name: "d"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	*now = now.Add(5 * time.Minute)
	result, err := svc.RunPromptSweep(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Checked != 2 {
		t.Fatalf("expected 2 sessions checked, got %d", result.Checked)
	}
	if result.Fired != 2 {
		t.Fatalf("expected 2 prompts fired, got %d", result.Fired)
	}

	// Second pass finds only latched sessions.
	again, err := svc.RunPromptSweep(ctx)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if again.Fired != 0 {
		t.Fatalf("expected no prompts on second sweep, got %d", again.Fired)
	}
}

type noListStore struct{ kvstore.Store }

func TestPreviewService_RunPromptSweep_StoreCannotEnumerate(t *testing.T) {
	store := noListStore{Store: kvstore.NewMemory()}
	svc := NewPreviewService(store, preview.DefaultRules(), logging.NewNop())

	result, err := svc.RunPromptSweep(t.Context())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Checked != 0 || result.Fired != 0 {
		t.Fatalf("expected zero work for non-enumerating store, got %+v", result)
	}
}

func TestPreviewService_Progress(t *testing.T) {
	svc, _, now := newPreviewService(t)
	ctx := t.Context()

	if _, _, err := svc.MarkSectionCompleted(ctx, "visitor-1", false, preview.SectionBasics); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if _, _, err := svc.MarkSectionCompleted(ctx, "visitor-1", false, preview.SectionSport); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	*now = now.Add(90 * time.Second)
	progress, err := svc.Progress(ctx, "visitor-1")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.Percentage != 25 {
		t.Fatalf("expected 25%% for 2 of 8 sections, got %d", progress.Percentage)
	}
	if progress.TimeSpent != 90*time.Second {
		t.Fatalf("unexpected time spent: %s", progress.TimeSpent)
	}
	if progress.PromptShown {
		t.Fatalf("prompt must not be shown at 2 sections")
	}
}

func TestRoundedPercentage(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 8, 0},
		{1, 8, 13},
		{2, 8, 25},
		{3, 8, 38},
		{8, 8, 100},
		{1, 0, 0},
	}
	for _, tc := range cases {
		if got := roundedPercentage(tc.completed, tc.total); got != tc.want {
			t.Fatalf("roundedPercentage(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestPreviewService_Progress_NoSession(t *testing.T) {
	svc, _, _ := newPreviewService(t)

	progress, err := svc.Progress(t.Context(), "ghost")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if len(progress.CompletedSections) != 0 || progress.Percentage != 0 {
		t.Fatalf("expected zero progress, got %+v", progress)
	}
}

func TestPreviewService_CorruptSessionDegradesToFresh(t *testing.T) {
	svc, store, _ := newPreviewService(t)
	ctx := t.Context()

	_ = store.Set(ctx, kvstore.ScopePersistent, "visitor-1", teamlink.KeyPreviewData, []byte("{broken"))

	sess, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{Name: "recovered"})
	if err != nil {
		t.Fatalf("expected corrupt session to reset, got %v", err)
	}
	if sess.Draft.Name != "recovered" {
		t.Fatalf("unexpected session after recovery: %+v", sess)
	}
}

func TestPreviewService_ClearDraft(t *testing.T) {
	svc, store, _ := newPreviewService(t)
	ctx := t.Context()

	if _, err := svc.SaveDraft(ctx, "visitor-1", false, preview.Draft{Name: "d"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := kvstore.SetJSON(ctx, store, kvstore.ScopeSession, "visitor-1", teamlink.KeyAuthReturnURL, "/resume"); err != nil {
		t.Fatalf("seed return url failed: %v", err)
	}

	if err := svc.ClearDraft(ctx, "visitor-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, kvstore.ScopePersistent, "visitor-1", teamlink.KeyPreviewData); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok, _ := store.Get(ctx, kvstore.ScopeSession, "visitor-1", teamlink.KeyAuthReturnURL); ok {
		t.Fatalf("expected session scope cleared")
	}
}

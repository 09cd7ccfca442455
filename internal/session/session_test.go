package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastanime/fastanime-core/internal/atomicfile"
)

var fixedTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(MenuMain, func(ctx *Context, s State) (*State, Directive, error) {
		return nil, DirectiveExit, nil
	})
	return r
}

func newTestEngine(t *testing.T, registry *Registry) *Engine {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.AutoSaveEveryNSteps = 2
	return NewEngine(cfg, registry, &Context{})
}

func TestSessionDataRoundTrip(t *testing.T) {
	t.Parallel()

	history := []State{
		NewMainState(),
		{MenuTag: MenuResults, MediaAPI: &MediaAPIState{SelectedMediaID: 100}},
	}
	data := NewSessionData(history, fixedTime, fixedTime, "my-session")

	path := filepath.Join(t.TempDir(), "session.json")
	if err := atomicfile.WriteJSON(path, data); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var loaded SessionData
	if err := atomicfile.ReadJSON(path, &loaded); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if loaded.FormatVersion != sessionFormatVersion {
		t.Errorf("format version = %q, want %q", loaded.FormatVersion, sessionFormatVersion)
	}
	if len(loaded.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(loaded.History))
	}
	if loaded.History[1].MediaAPI == nil || loaded.History[1].MediaAPI.SelectedMediaID != 100 {
		t.Errorf("selected media id not round-tripped: %+v", loaded.History[1])
	}
	if loaded.Metadata.StateCount != 2 {
		t.Errorf("state count = %d, want 2", loaded.Metadata.StateCount)
	}
}

func TestApplyDirectiveMainTruncatesToRoot(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	e.history = []State{
		NewMainState(),
		{MenuTag: MenuResults},
		{MenuTag: MenuMediaActions},
		{MenuTag: MenuEpisodes},
	}

	if _, err := e.applyDirective(DirectiveMain); err != nil {
		t.Fatalf("applyDirective(MAIN): %v", err)
	}
	if len(e.history) != 1 {
		t.Fatalf("history length = %d, want 1", len(e.history))
	}
	if e.history[0].MenuTag != MenuMain {
		t.Errorf("remaining state = %q, want MAIN", e.history[0].MenuTag)
	}
}

func TestApplyDirectiveBackX2PopsWhenDeepEnough(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	e.history = []State{
		NewMainState(),
		{MenuTag: MenuResults},
		{MenuTag: MenuMediaActions},
	}

	if _, err := e.applyDirective(DirectiveBackX2); err != nil {
		t.Fatalf("applyDirective(BACK_X2): %v", err)
	}
	if len(e.history) != 1 {
		t.Fatalf("history length = %d, want 1", len(e.history))
	}
}

func TestApplyDirectiveBackX2NoOpWhenStackTooShallow(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	e.history = []State{NewMainState(), {MenuTag: MenuResults}}

	if _, err := e.applyDirective(DirectiveBackX2); err != nil {
		t.Fatalf("applyDirective(BACK_X2): %v", err)
	}
	if len(e.history) != 2 {
		t.Fatalf("history length = %d, want 2 (no-op)", len(e.history))
	}
}

func TestApplyDirectiveBackAtRootIsNoOp(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	e.history = []State{NewMainState()}

	if _, err := e.applyDirective(DirectiveBack); err != nil {
		t.Fatalf("applyDirective(BACK): %v", err)
	}
	if len(e.history) != 1 {
		t.Fatalf("history length = %d, want 1 (no-op at root)", len(e.history))
	}
}

func TestApplyDirectiveReloadLeavesStackUnchanged(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	e.history = []State{NewMainState(), {MenuTag: MenuResults}}

	if _, err := e.applyDirective(DirectiveReload); err != nil {
		t.Fatalf("applyDirective(RELOAD): %v", err)
	}
	if len(e.history) != 2 {
		t.Fatalf("history length = %d, want 2 (unchanged)", len(e.history))
	}
}

func TestApplyDirectiveExitReturnsTerminate(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	e.history = []State{NewMainState()}

	terminate, err := e.applyDirective(DirectiveExit)
	if err != nil {
		t.Fatalf("applyDirective(EXIT): %v", err)
	}
	if !terminate {
		t.Error("expected EXIT to signal termination")
	}
}

func TestRunExitsImmediatelyFromMainHandler(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestResumeFromCrashBackupTakesPriorityOverAutoSave(t *testing.T) {
	t.Parallel()

	registry := testRegistry()
	registry.MustRegister(MenuResults, func(ctx *Context, s State) (*State, Directive, error) {
		return nil, DirectiveExit, nil
	})

	e := newTestEngine(t, registry)
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	autoSaveData := NewSessionData([]State{NewMainState()}, fixedTime, fixedTime, "")
	if err := atomicfile.WriteJSON(e.autoSavePath(), autoSaveData); err != nil {
		t.Fatalf("seeding auto-save: %v", err)
	}
	crashData := NewSessionData([]State{NewMainState(), {MenuTag: MenuResults}}, fixedTime, fixedTime, "")
	if err := atomicfile.WriteJSON(e.crashBackupPath(), crashData); err != nil {
		t.Fatalf("seeding crash backup: %v", err)
	}

	e2 := newTestEngine(t, registry)
	e2.cfg = e.cfg
	if err := e2.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(e2.history) != 2 || e2.history[1].MenuTag != MenuResults {
		t.Fatalf("expected crash backup to win, got history %+v", e2.history)
	}
}

func TestResumeDecliningCrashBackupOffersAutoSave(t *testing.T) {
	t.Parallel()

	registry := testRegistry()
	registry.MustRegister(MenuResults, func(ctx *Context, s State) (*State, Directive, error) {
		return nil, DirectiveExit, nil
	})

	e := newTestEngine(t, registry)
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	autoSaveData := NewSessionData([]State{NewMainState()}, fixedTime, fixedTime, "")
	if err := atomicfile.WriteJSON(e.autoSavePath(), autoSaveData); err != nil {
		t.Fatalf("seeding auto-save: %v", err)
	}
	crashData := NewSessionData([]State{NewMainState(), {MenuTag: MenuResults}}, fixedTime, fixedTime, "")
	if err := atomicfile.WriteJSON(e.crashBackupPath(), crashData); err != nil {
		t.Fatalf("seeding crash backup: %v", err)
	}

	e2 := newTestEngine(t, registry)
	e2.cfg = e.cfg
	declineCrashBackup := func(prompt string) bool { return false }
	if err := e2.Resume(declineCrashBackup); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(e2.history) != 1 || e2.history[0].MenuTag != MenuMain {
		t.Fatalf("expected auto-save (declined crash backup) to win, got history %+v", e2.history)
	}
}

func TestResumeDecliningEverythingStartsAtMain(t *testing.T) {
	t.Parallel()

	registry := testRegistry()
	registry.MustRegister(MenuResults, func(ctx *Context, s State) (*State, Directive, error) {
		return nil, DirectiveExit, nil
	})

	e := newTestEngine(t, registry)
	crashData := NewSessionData([]State{NewMainState(), {MenuTag: MenuResults}}, fixedTime, fixedTime, "")
	if err := atomicfile.WriteJSON(e.crashBackupPath(), crashData); err != nil {
		t.Fatalf("seeding crash backup: %v", err)
	}
	autoSaveData := NewSessionData([]State{NewMainState(), {MenuTag: MenuResults}}, fixedTime, fixedTime, "")
	if err := atomicfile.WriteJSON(e.autoSavePath(), autoSaveData); err != nil {
		t.Fatalf("seeding auto-save: %v", err)
	}

	declineAll := func(prompt string) bool { return false }
	if err := e.Resume(declineAll); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(e.history) != 1 || e.history[0].MenuTag != MenuMain {
		t.Fatalf("expected fresh MAIN after declining both offers, got %+v", e.history)
	}
}

func TestResumeNamedLoadsExplicitSession(t *testing.T) {
	t.Parallel()

	registry := testRegistry()
	registry.MustRegister(MenuResults, func(ctx *Context, s State) (*State, Directive, error) {
		return nil, DirectiveExit, nil
	})

	e := newTestEngine(t, registry)
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.SaveNamed("my-save"); err != nil {
		t.Fatalf("SaveNamed: %v", err)
	}

	e2 := newTestEngine(t, registry)
	e2.cfg = e.cfg
	if err := e2.ResumeNamed("my-save"); err != nil {
		t.Fatalf("ResumeNamed: %v", err)
	}
	if len(e2.history) != 1 || e2.history[0].MenuTag != MenuMain {
		t.Fatalf("expected named session history restored, got %+v", e2.history)
	}
}

func TestResumeNamedMissingSessionErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	if err := e.ResumeNamed("does-not-exist"); err == nil {
		t.Fatal("expected ResumeNamed to error on a missing session")
	}
}

func TestListSessionsExcludesAutoSaveAndCrashBackup(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.SaveNamed("alpha"); err != nil {
		t.Fatalf("SaveNamed: %v", err)
	}
	if err := e.SaveNamed("beta"); err != nil {
		t.Fatalf("SaveNamed: %v", err)
	}
	e.autoSave()
	e.writeCrashBackup()

	names, err := e.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	want := map[string]bool{"alpha": true, "beta": true}
	if len(names) != len(want) {
		t.Fatalf("ListSessions = %v, want keys of %v", names, want)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected session name %q in %v", n, names)
		}
	}
}

func TestResumeFallsBackToMainWhenNoSnapshots(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testRegistry())
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(e.history) != 1 || e.history[0].MenuTag != MenuMain {
		t.Fatalf("expected fresh MAIN state, got %+v", e.history)
	}
}

func TestRunWritesCrashBackupOnHandlerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	registry := NewRegistry()
	registry.MustRegister(MenuMain, func(ctx *Context, s State) (*State, Directive, error) {
		return nil, "", boom
	})

	e := newTestEngine(t, registry)
	if err := e.Resume(nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	err := e.Run()
	if err == nil {
		t.Fatal("expected Run to propagate handler error")
	}

	var loaded SessionData
	if err := atomicfile.ReadJSON(e.crashBackupPath(), &loaded); err != nil {
		t.Fatalf("expected crash backup to be written: %v", err)
	}
	if len(loaded.History) != 1 {
		t.Errorf("crash backup history length = %d, want 1", len(loaded.History))
	}
}

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/atomicfile"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
	"github.com/fastanime/fastanime-core/internal/workerpool"
)

// Handler processes the current State and returns either a new State to
// push, or a Directive instructing the engine how to mutate the stack.
// Implementations must be pure with respect to the registry lock: they
// may call the registry, but the engine model has no suspension points to
// hold a lock across.
type Handler func(ctx *Context, state State) (next *State, directive Directive, err error)

// Context is the ephemeral, in-memory object handed to every handler. It
// is never persisted — only State is serializable. Reload is invoked by
// the CONFIG_EDIT directive to refresh any collaborator built from config.
type Context struct {
	Reload        func() error
	ThreadManager *workerpool.ThreadManager
}

// Registry is a process-local mapping of MenuTag to Handler. Redefining an
// existing tag logs a warning; last registration wins.
type Registry struct {
	handlers map[MenuTag]Handler
}

// NewRegistry returns an empty menu registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[MenuTag]Handler)}
}

// MustRegister binds a handler to a menu tag, warning (not failing) on
// redefinition.
func (r *Registry) MustRegister(tag MenuTag, handler Handler) {
	if _, exists := r.handlers[tag]; exists {
		logging.Warn().Str("menu_tag", string(tag)).Msg("redefining existing menu handler, last writer wins")
	}
	r.handlers[tag] = handler
}

func (r *Registry) lookup(tag MenuTag) (Handler, bool) {
	h, ok := r.handlers[tag]
	return h, ok
}

// Config bounds the engine's auto-save and directory layout.
type Config struct {
	DataDir             string
	AutoSaveEveryNSteps int
	ShutdownGrace       time.Duration
}

// DefaultConfig returns the spec's stated defaults: auto-save every 5
// transitions, 5-second shutdown grace.
func DefaultConfig(dataDir string) Config {
	return Config{DataDir: dataDir, AutoSaveEveryNSteps: 5, ShutdownGrace: 5 * time.Second}
}

// Engine is the stack-of-states navigation loop described in §4.7.
type Engine struct {
	cfg      Config
	registry *Registry
	ctx      *Context

	history   []State
	createdAt time.Time

	stepsSinceSave int
}

// NewEngine constructs an engine with the given handler registry and
// ephemeral context. The history stack starts empty; call Resume or Seed
// before Run.
func NewEngine(cfg Config, registry *Registry, ctx *Context) *Engine {
	return &Engine{cfg: cfg, registry: registry, ctx: ctx, createdAt: time.Now()}
}

func (e *Engine) sessionsDir() string       { return filepath.Join(e.cfg.DataDir, "sessions") }
func (e *Engine) autoSavePath() string      { return filepath.Join(e.sessionsDir(), "auto_save.json") }
func (e *Engine) crashBackupPath() string   { return filepath.Join(e.sessionsDir(), "crash_backup.json") }
func (e *Engine) namedSessionPath(n string) string {
	return filepath.Join(e.sessionsDir(), n+".json")
}

// Confirm asks a yes/no question and reports the answer. Resume calls it
// once per candidate snapshot before accepting it; a nil Confirm accepts
// every candidate it is offered (the non-interactive default).
type Confirm func(prompt string) bool

// Resume offers to restore history from a crash-backup file, then from
// the most recently auto-saved session, falling back to Main if neither
// exists or both are declined. Per §4.7.2, the crash backup is offered
// first; accepting either replaces the starting history, and an invalid
// or unreadable snapshot is treated as if it didn't exist.
func (e *Engine) Resume(confirm Confirm) error {
	if err := os.MkdirAll(e.sessionsDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating sessions directory: %v", apperrors.ErrIoFailure, err)
	}

	if data, ok := e.tryLoad(e.crashBackupPath()); ok {
		if confirmAccept(confirm, fmt.Sprintf("A crash backup from %s was found. Resume it?", data.Metadata.LastSavedAt.Format(time.RFC1123))) {
			e.history = data.History
			metrics.SessionResumes.WithLabelValues("crash_backup").Inc()
			return nil
		}
	}

	if data, ok := e.tryLoad(e.autoSavePath()); ok {
		if confirmAccept(confirm, fmt.Sprintf("Resume the last session, saved at %s?", data.Metadata.LastSavedAt.Format(time.RFC1123))) {
			e.history = data.History
			metrics.SessionResumes.WithLabelValues("auto_save").Inc()
			return nil
		}
	}

	e.history = []State{NewMainState()}
	metrics.SessionResumes.WithLabelValues("fresh").Inc()
	return nil
}

func confirmAccept(confirm Confirm, prompt string) bool {
	if confirm == nil {
		return true
	}
	return confirm(prompt)
}

// ResumeNamed loads the named session file explicitly (§4.7.2's "resume
// source is given" case), replacing the starting history outright. It
// does not consult confirm and does not fall back to auto-save or Main
// on failure — an explicit resume target that can't be loaded is an error.
func (e *Engine) ResumeNamed(name string) error {
	if err := os.MkdirAll(e.sessionsDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating sessions directory: %v", apperrors.ErrIoFailure, err)
	}
	data, ok := e.tryLoad(e.namedSessionPath(name))
	if !ok {
		return fmt.Errorf("%w: named session %q", apperrors.ErrValidationFailure, name)
	}
	e.history = data.History
	metrics.SessionResumes.WithLabelValues("named").Inc()
	return nil
}

// ListSessions returns the names of every named session file under the
// sessions directory, for a "Load Session" menu to offer.
func (e *Engine) ListSessions() ([]string, error) {
	entries, err := os.ReadDir(e.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listing sessions directory: %v", apperrors.ErrIoFailure, err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		base := strings.TrimSuffix(name, ".json")
		if base == "auto_save" || base == "crash_backup" {
			continue
		}
		names = append(names, base)
	}
	return names, nil
}

func (e *Engine) tryLoad(path string) (SessionData, bool) {
	var data SessionData
	if err := atomicfile.ReadJSON(path, &data); err != nil {
		return SessionData{}, false
	}
	for _, s := range data.History {
		if _, ok := e.registry.lookup(s.MenuTag); !ok {
			logging.Warn().Str("menu_tag", string(s.MenuTag)).Msg("resume aborted: unknown menu tag in snapshot")
			return SessionData{}, false
		}
	}
	if len(data.History) == 0 {
		return SessionData{}, false
	}
	return data, true
}

// Run executes the main loop until a handler returns EXIT or the stack
// empties, per the DFA in §4.7.
func (e *Engine) Run() error {
	for len(e.history) > 0 {
		current := e.history[len(e.history)-1]

		handler, ok := e.registry.lookup(current.MenuTag)
		if !ok {
			e.writeCrashBackup()
			return fmt.Errorf("%w: %s", apperrors.ErrUnknownMenu, current.MenuTag)
		}

		start := time.Now()
		next, directive, err := handler(e.ctx, current)
		metrics.RecordSessionHandler(string(current.MenuTag), time.Since(start))

		if err != nil {
			e.writeCrashBackup()
			return fmt.Errorf("handler %s: %w", current.MenuTag, err)
		}

		if next != nil {
			e.history = append(e.history, *next)
			metrics.SessionPushes.WithLabelValues(string(next.MenuTag)).Inc()
			e.maybeAutoSave()
			continue
		}

		terminate, err := e.applyDirective(directive)
		if err != nil {
			e.writeCrashBackup()
			return err
		}
		if terminate {
			break
		}
	}

	return e.cleanShutdown()
}

func (e *Engine) applyDirective(d Directive) (terminate bool, err error) {
	switch d {
	case DirectiveBack:
		if len(e.history) > 1 {
			e.history = e.history[:len(e.history)-1]
			metrics.SessionPops.WithLabelValues("back").Inc()
			e.maybeAutoSave()
		}
	case DirectiveBackX2:
		if len(e.history) > 2 {
			e.history = e.history[:len(e.history)-2]
			metrics.SessionPops.WithLabelValues("back_x2").Inc()
			e.maybeAutoSave()
		}
	case DirectiveBackX3:
		if len(e.history) > 3 {
			e.history = e.history[:len(e.history)-3]
			metrics.SessionPops.WithLabelValues("back_x3").Inc()
			e.maybeAutoSave()
		}
	case DirectiveMain:
		e.history = e.history[:1]
		e.autoSave()
	case DirectiveReload:
		// no stack change; re-enter the loop.
	case DirectiveConfigEdit:
		if e.ctx.Reload != nil {
			if err := e.ctx.Reload(); err != nil {
				return false, fmt.Errorf("reloading context: %w", err)
			}
		}
	case DirectiveExit:
		e.autoSave()
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown directive %q", apperrors.ErrValidationFailure, d)
	}
	return false, nil
}

func (e *Engine) maybeAutoSave() {
	e.stepsSinceSave++
	if e.cfg.AutoSaveEveryNSteps > 0 && e.stepsSinceSave >= e.cfg.AutoSaveEveryNSteps {
		e.autoSave()
	}
}

func (e *Engine) autoSave() {
	e.stepsSinceSave = 0
	data := NewSessionData(e.history, time.Now(), e.createdAt, "")
	if err := atomicfile.WriteJSON(e.autoSavePath(), data); err != nil {
		logging.Warn().Err(err).Msg("auto-save failed")
		return
	}
	metrics.SessionStackDepth.Set(float64(len(e.history)))
}

func (e *Engine) writeCrashBackup() {
	data := NewSessionData(e.history, time.Now(), e.createdAt, "")
	if err := atomicfile.WriteJSON(e.crashBackupPath(), data); err != nil {
		logging.Warn().Err(err).Msg("failed to write crash backup")
		return
	}
	metrics.SessionCrashBackups.Inc()
}

// SaveNamed persists the current history under a user-chosen name.
func (e *Engine) SaveNamed(name string) error {
	data := NewSessionData(e.history, time.Now(), e.createdAt, name)
	return atomicfile.WriteJSON(e.namedSessionPath(name), data)
}

// cleanShutdown drains all worker pools with a short grace period,
// deletes the auto-save file, and leaves the crash-backup file absent —
// a clean exit clears it.
func (e *Engine) cleanShutdown() error {
	if e.ctx.ThreadManager != nil {
		e.ctx.ThreadManager.ShutdownAll(true, e.cfg.ShutdownGrace)
	}
	_ = os.Remove(e.autoSavePath())
	_ = os.Remove(e.crashBackupPath())
	return nil
}

package menu

import (
	"fmt"

	"github.com/fastanime/fastanime-core/internal/session"
)

// SessionManagementHandler exposes save/load actions against the engine's
// own named-session persistence. It has no engine reference of its own;
// Env.SaveSession/LoadSession/ListSessions are wired by the entrypoint to
// the live engine instance.
type SaveSessionFunc func(name string) error

// LoadSessionFunc replaces the live Engine's history with a named session's,
// matching §4.7.2's explicit-path resume source.
type LoadSessionFunc func(name string) error

// ListSessionsFunc lists the names of every session available to LoadSessionFunc.
type ListSessionsFunc func() ([]string, error)

// SessionManagementHandler builds the session-management menu, given
// save/load callbacks supplied by whatever owns the running Engine.
func SessionManagementHandler(env *Env) session.Handler {
	return func(_ *session.Context, _ session.State) (*session.State, session.Directive, error) {
		choices := []string{"Save Current Session", "Load Session", "Back to Main Menu"}
		choice, ok := env.Selector.Choose("Session Management", choices, "")
		if !ok {
			return nil, session.DirectiveBack, nil
		}

		switch choice {
		case "Save Current Session":
			name := env.Selector.Ask("Session name (optional):")
			if name == "" {
				name = fmt.Sprintf("session_%d", env.Now().Unix())
			}
			if env.SaveSession == nil {
				env.Feedback.Warning("Session saving is not available", "")
				return nil, session.DirectiveReload, nil
			}
			if err := env.SaveSession(name); err != nil {
				env.Feedback.Error("Could not save session", err.Error())
			} else {
				env.Feedback.Success(fmt.Sprintf("Session saved as %q", name), "")
			}
			return nil, session.DirectiveReload, nil
		case "Load Session":
			return loadSession(env)
		default:
			return nil, session.DirectiveBack, nil
		}
	}
}

func loadSession(env *Env) (*session.State, session.Directive, error) {
	if env.LoadSession == nil || env.ListSessions == nil {
		env.Feedback.Warning("Session loading is not available", "")
		return nil, session.DirectiveReload, nil
	}

	names, err := env.ListSessions()
	if err != nil {
		env.Feedback.Error("Could not list sessions", err.Error())
		return nil, session.DirectiveReload, nil
	}
	if len(names) == 0 {
		env.Feedback.Warning("No saved sessions found", "")
		return nil, session.DirectiveReload, nil
	}

	name, ok := env.Selector.Choose("Load Session", names, "")
	if !ok {
		return nil, session.DirectiveReload, nil
	}

	if err := env.LoadSession(name); err != nil {
		env.Feedback.Error(fmt.Sprintf("Could not load session %q", name), err.Error())
		return nil, session.DirectiveReload, nil
	}
	env.Feedback.Success(fmt.Sprintf("Loaded session %q", name), "")
	return nil, session.DirectiveMain, nil
}

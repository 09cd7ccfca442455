package menu

import (
	"github.com/fastanime/fastanime-core/internal/session"
)

// MainHandler presents the root options: search, continue watching,
// session management, exit. It never receives a previous menu's state.
func MainHandler(env *Env) session.Handler {
	return func(_ *session.Context, _ session.State) (*session.State, session.Directive, error) {
		choices := []string{"Search Anime", "Continue Watching", "Session Management", "Edit Config", "Exit"}
		choice, ok := env.Selector.Choose("Select Action", choices, "FastAnime")
		if !ok {
			return nil, session.DirectiveReload, nil
		}

		switch choice {
		case "Search Anime":
			next := session.State{
				MenuTag:  session.MenuResults,
				MediaAPI: &session.MediaAPIState{SearchParams: map[string]string{}},
			}
			return &next, "", nil
		case "Continue Watching":
			next := session.State{MenuTag: session.MenuResults}
			return &next, "", nil
		case "Session Management":
			next := session.State{MenuTag: session.MenuSessionManagement}
			return &next, "", nil
		case "Edit Config":
			return nil, session.DirectiveConfigEdit, nil
		case "Exit":
			return nil, session.DirectiveExit, nil
		default:
			return nil, session.DirectiveReload, nil
		}
	}
}

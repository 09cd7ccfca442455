package menu

import (
	"github.com/fastanime/fastanime-core/internal/session"
)

// ServersHandler lists the streaming servers the provider offers for the
// chosen episode and carries the selection into player controls.
func ServersHandler(env *Env) session.Handler {
	return func(_ *session.Context, state session.State) (*session.State, session.Directive, error) {
		if state.Provider == nil || state.Provider.SelectedAnimeID == "" {
			env.Feedback.Error("No episode selected", "")
			return nil, session.DirectiveBack, nil
		}

		servers, err := env.Provider.EpisodeServers(state.Provider.SelectedAnimeID, state.Provider.CurrentEpisode)
		if err != nil {
			env.Feedback.Error("Could not fetch servers", err.Error())
			return nil, session.DirectiveBack, nil
		}
		if len(servers) == 0 {
			env.Feedback.Warning("No servers available for this episode", "")
			return nil, session.DirectiveBack, nil
		}

		names := make([]string, 0, len(servers))
		for name := range servers {
			names = append(names, name)
		}

		choice, ok := env.Selector.Choose("Select server", names, "Available Servers")
		if !ok {
			return nil, session.DirectiveBack, nil
		}

		next := state
		next.MenuTag = session.MenuPlayerControls
		providerState := *state.Provider
		providerState.ServerMap = servers
		providerState.ChosenServer = choice
		next.Provider = &providerState
		return &next, "", nil
	}
}

package menu

import (
	"fmt"
	"strconv"

	"github.com/fastanime/fastanime-core/internal/session"
)

// EpisodesHandler lists episodes known to the provider for the selected
// anime and hands the chosen one to the servers menu.
func EpisodesHandler(env *Env) session.Handler {
	return func(_ *session.Context, state session.State) (*session.State, session.Directive, error) {
		if state.Provider == nil || state.Provider.SelectedAnimeID == "" {
			env.Feedback.Error("No provider anime selected", "")
			return nil, session.DirectiveBack, nil
		}

		var mediaID int
		if state.MediaAPI != nil {
			mediaID = state.MediaAPI.SelectedMediaID
		}

		suggestion := ""
		if mediaID != 0 {
			if record, err := env.Store.Get(mediaID); err == nil {
				if ep, ok := record.NextEpisodeToWatch(); ok {
					suggestion = fmt.Sprintf(" (next: episode %d)", ep)
				}
			}
		}

		choice := env.Selector.Ask("Episode number" + suggestion + ":")
		episode, err := strconv.Atoi(choice)
		if err != nil || episode < 1 {
			env.Feedback.Warning("Invalid episode number", choice)
			return nil, session.DirectiveReload, nil
		}

		next := state
		next.MenuTag = session.MenuServers
		providerState := *state.Provider
		providerState.CurrentEpisode = episode
		next.Provider = &providerState
		return &next, "", nil
	}
}

package menu

import (
	"fmt"

	"github.com/fastanime/fastanime-core/internal/registry"
	"github.com/fastanime/fastanime-core/internal/session"
)

// PlayerControlsHandler launches the player against the chosen server and
// records the resulting playback event against the registry before
// offering next-episode navigation.
func PlayerControlsHandler(env *Env) session.Handler {
	return func(_ *session.Context, state session.State) (*session.State, session.Directive, error) {
		if state.Provider == nil || state.Provider.ChosenServer == "" {
			env.Feedback.Error("No server selected", "")
			return nil, session.DirectiveBack, nil
		}

		url := state.Provider.ServerMap[state.Provider.ChosenServer]
		mediaID := 0
		title := state.Provider.SelectedAnimeID
		if state.MediaAPI != nil {
			mediaID = state.MediaAPI.SelectedMediaID
		}

		result, err := env.Player.Play(url, title)
		if err != nil {
			env.Feedback.Error("Playback failed", err.Error())
			return nil, session.DirectiveBack, nil
		}

		if mediaID != 0 {
			updated := env.Tracker.TrackPlaybackStopped(registry.PlaybackEvent{
				MediaID:   mediaID,
				Episode:   state.Provider.CurrentEpisode,
				StopTime:  result.StopTime,
				TotalTime: result.TotalTime,
			})
			if !updated {
				env.Feedback.Warning("Could not record watch progress", "")
			}
		}

		choices := []string{"Next Episode", "Replay", "Back to Episodes", "Main Menu"}
		choice, ok := env.Selector.Choose("Playback finished", choices, fmt.Sprintf("Episode %d", state.Provider.CurrentEpisode))
		if !ok {
			return nil, session.DirectiveMain, nil
		}

		switch choice {
		case "Next Episode":
			next := state
			next.MenuTag = session.MenuServers
			next.Provider = &session.ProviderState{
				SelectedAnimeID:    state.Provider.SelectedAnimeID,
				CurrentEpisode:     state.Provider.CurrentEpisode + 1,
				LastPlayerStopTime: result.StopTime,
				LastPlayerTotal:    result.TotalTime,
			}
			return &next, "", nil
		case "Replay":
			return nil, session.DirectiveReload, nil
		case "Back to Episodes":
			return nil, session.DirectiveBackX2, nil
		default:
			return nil, session.DirectiveMain, nil
		}
	}
}

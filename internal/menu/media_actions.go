package menu

import (
	"fmt"

	"github.com/fastanime/fastanime-core/internal/session"
)

// MediaActionsHandler shows what can be done with a single selected
// anime: stream, mark favorite, view registry status, or go to episodes.
func MediaActionsHandler(env *Env) session.Handler {
	return func(_ *session.Context, state session.State) (*session.State, session.Directive, error) {
		if state.MediaAPI == nil || state.MediaAPI.SelectedMediaID == 0 {
			env.Feedback.Error("No anime selected", "")
			return nil, session.DirectiveBack, nil
		}
		mediaID := state.MediaAPI.SelectedMediaID

		choices := []string{"Stream", "View Episodes", "Toggle Favorite", "Back to Results"}
		choice, ok := env.Selector.Choose("Select Action", choices, fmt.Sprintf("Media #%d", mediaID))
		if !ok {
			return nil, session.DirectiveBack, nil
		}

		switch choice {
		case "Stream", "View Episodes":
			next := session.State{
				MenuTag:  session.MenuProviderSearch,
				MediaAPI: state.MediaAPI,
				Provider: &session.ProviderState{},
			}
			return &next, "", nil
		case "Toggle Favorite":
			if err := toggleFavorite(env, mediaID); err != nil {
				env.Feedback.Error("Could not update favorite status", err.Error())
			} else {
				env.Feedback.Success("Updated favorite status", "")
			}
			return nil, session.DirectiveReload, nil
		case "Back to Results":
			return nil, session.DirectiveBack, nil
		default:
			return nil, session.DirectiveReload, nil
		}
	}
}

func toggleFavorite(env *Env, mediaID int) error {
	record, err := env.Store.Get(mediaID)
	if err != nil {
		return err
	}
	updated := record.Clone()
	updated.UserData.Favorite = !updated.UserData.Favorite
	updated.UserData.LastUpdated = env.Now()
	_, err = env.Store.Save(mediaID, updated)
	return err
}

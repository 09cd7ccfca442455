package menu

import (
	"github.com/fastanime/fastanime-core/internal/session"
)

// ProviderSearchHandler resolves the selected anime to a provider-side
// title, since the provider often indexes under a different name.
func ProviderSearchHandler(env *Env) session.Handler {
	return func(_ *session.Context, state session.State) (*session.State, session.Directive, error) {
		query := ""
		if state.MediaAPI != nil {
			query = state.MediaAPI.SearchParams["query"]
		}
		if query == "" {
			query = env.Selector.Ask("Provider search query:")
		}
		if query == "" {
			return nil, session.DirectiveBack, nil
		}

		results, err := env.Provider.Search(query)
		if err != nil {
			env.Feedback.Error("Provider search failed", err.Error())
			return nil, session.DirectiveBack, nil
		}
		if len(results) == 0 {
			env.Feedback.Info("No provider results found", "")
			return nil, session.DirectiveBack, nil
		}

		titles := make([]string, 0, len(results))
		byTitle := make(map[string]string, len(results))
		for _, r := range results {
			titles = append(titles, r.Title)
			byTitle[r.Title] = r.ID
		}

		choice, ok := env.Selector.Choose("Select provider match", titles, "Provider Results")
		if !ok {
			return nil, session.DirectiveBack, nil
		}

		next := state
		next.MenuTag = session.MenuEpisodes
		next.Provider = &session.ProviderState{SelectedAnimeID: byTitle[choice]}
		return &next, "", nil
	}
}

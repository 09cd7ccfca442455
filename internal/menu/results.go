package menu

import (
	"fmt"

	"github.com/fastanime/fastanime-core/internal/session"
)

// ResultsHandler runs (or re-runs) a search against the media API and lets
// the user drill into one result or page forward/back.
func ResultsHandler(env *Env) session.Handler {
	return func(_ *session.Context, state session.State) (*session.State, session.Directive, error) {
		params := map[string]string{}
		if state.MediaAPI != nil {
			params = state.MediaAPI.SearchParams
		}
		if params["query"] == "" {
			query := env.Selector.Ask("Search query:")
			if query == "" {
				return nil, session.DirectiveBack, nil
			}
			params = map[string]string{"query": query}
		}

		result, err := env.MediaAPI.SearchMedia(params)
		if err != nil {
			env.Feedback.Error("Search failed", err.Error())
			return nil, session.DirectiveBack, nil
		}
		if len(result.Media) == 0 {
			env.Feedback.Info("No results found", "")
			return nil, session.DirectiveBack, nil
		}

		titles := make([]string, 0, len(result.Media)+1)
		index := make(map[string]int, len(result.Media))
		for _, m := range result.Media {
			title := m.DisplayTitle()
			titles = append(titles, title)
			index[title] = m.ID
		}
		if result.PageInfo.HasNextPage {
			titles = append(titles, "Next Page")
		}

		choice, ok := env.Selector.Choose("Select anime", titles, fmt.Sprintf("%d results", len(result.Media)))
		if !ok {
			return nil, session.DirectiveBack, nil
		}
		if choice == "Next Page" {
			nextParams := cloneParams(params)
			nextParams["page"] = fmt.Sprintf("%d", result.PageInfo.CurrentPage+1)
			next := session.State{
				MenuTag:  session.MenuResults,
				MediaAPI: &session.MediaAPIState{SearchParams: nextParams},
			}
			return &next, "", nil
		}

		mediaID, ok := index[choice]
		if !ok {
			return nil, session.DirectiveReload, nil
		}
		next := session.State{
			MenuTag: session.MenuMediaActions,
			MediaAPI: &session.MediaAPIState{
				SearchParams:    params,
				SelectedMediaID: mediaID,
			},
		}
		return &next, "", nil
	}
}

func cloneParams(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

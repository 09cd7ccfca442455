package menu

import (
	"github.com/fastanime/fastanime-core/internal/feedback"
	"github.com/fastanime/fastanime-core/internal/preview"
	"github.com/fastanime/fastanime-core/internal/registry"
	"github.com/fastanime/fastanime-core/internal/session"
)

// Env bundles every collaborator a handler may need. It lives inside the
// session.Context the engine hands to handlers, never in a State.
type Env struct {
	Store    *registry.Store
	Tracker  *registry.Tracker
	Preview  *preview.Manager
	Feedback feedback.Service
	Selector Selector
	MediaAPI MediaAPIClient
	Provider AnimeProvider
	Player   Player
	Download Downloader
	Now      Clock

	// SaveSession, when set, persists the live Engine's current history
	// under a user-chosen name (wired by the entrypoint to Engine.SaveNamed).
	SaveSession SaveSessionFunc

	// LoadSession, when set, replaces the live Engine's history with a
	// previously saved named session (wired to Engine.ResumeNamed).
	LoadSession LoadSessionFunc

	// ListSessions, when set, returns the names of every saved session
	// available to LoadSession (wired to Engine.ListSessions).
	ListSessions ListSessionsFunc
}

// RegisterAll self-registers every representative handler into r, matching
// the menu tags declared in §3/§4.8.
func RegisterAll(r *session.Registry, env *Env) {
	r.MustRegister(session.MenuMain, MainHandler(env))
	r.MustRegister(session.MenuResults, ResultsHandler(env))
	r.MustRegister(session.MenuMediaActions, MediaActionsHandler(env))
	r.MustRegister(session.MenuEpisodes, EpisodesHandler(env))
	r.MustRegister(session.MenuProviderSearch, ProviderSearchHandler(env))
	r.MustRegister(session.MenuServers, ServersHandler(env))
	r.MustRegister(session.MenuPlayerControls, PlayerControlsHandler(env))
	r.MustRegister(session.MenuSessionManagement, SessionManagementHandler(env))
}

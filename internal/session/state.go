// Package session implements the stack-based navigation engine: a
// serializable history of States, dispatched to handlers registered by
// menu tag, with auto-save and crash-backup persistence.
package session

import "time"

// MenuTag identifies which handler should process a State.
type MenuTag string

const (
	MenuMain          MenuTag = "MAIN"
	MenuResults       MenuTag = "RESULTS"
	MenuMediaActions  MenuTag = "MEDIA_ACTIONS"
	MenuEpisodes      MenuTag = "EPISODES"
	MenuProviderSearch MenuTag = "PROVIDER_SEARCH"
	MenuServers       MenuTag = "SERVERS"
	MenuPlayerControls MenuTag = "PLAYER_CONTROLS"
	MenuSessionManagement MenuTag = "SESSION_MANAGEMENT"
)

// Directive is returned by a handler instead of a new State, instructing
// the engine how to mutate the history stack or terminate.
type Directive string

const (
	DirectiveBack       Directive = "BACK"
	DirectiveBackX2     Directive = "BACK_X2"
	DirectiveBackX3     Directive = "BACK_X3"
	DirectiveMain       Directive = "MAIN"
	DirectiveReload     Directive = "RELOAD"
	DirectiveConfigEdit Directive = "CONFIG_EDIT"
	DirectiveExit       Directive = "EXIT"
)

// MediaAPIState carries the current search params and selection for the
// media-metadata API collaborator.
type MediaAPIState struct {
	SearchParams        map[string]string `json:"search_params,omitempty"`
	PageInfo            *PageInfo         `json:"page_info,omitempty"`
	SelectedSearchIndex  map[string]int    `json:"selected_search_index,omitempty"`
	SelectedMediaID     int               `json:"selected_media_id,omitempty"`
}

// PageInfo is pagination metadata from a search response.
type PageInfo struct {
	CurrentPage int  `json:"current_page"`
	HasNextPage bool `json:"has_next_page"`
	Total       int  `json:"total"`
}

// ProviderState carries the current provider-side selection.
type ProviderState struct {
	SelectedAnimeID    string            `json:"selected_anime_id,omitempty"`
	CurrentEpisode     int               `json:"current_episode,omitempty"`
	ServerMap          map[string]string `json:"server_map,omitempty"`
	ChosenServer       string            `json:"chosen_server,omitempty"`
	LastPlayerStopTime string            `json:"last_player_stop_time,omitempty"`
	LastPlayerTotal    string            `json:"last_player_total,omitempty"`
}

// NavigationState is scratch pagination state shared across handlers.
type NavigationState struct {
	Page int `json:"page,omitempty"`
}

// State is an immutable, serializable snapshot of the data one menu
// needs. No runtime handles (API clients, players) are ever embedded;
// those live only in the ephemeral Context held in memory.
type State struct {
	MenuTag  MenuTag          `json:"menu_tag"`
	MediaAPI *MediaAPIState   `json:"media_api_state,omitempty"`
	Provider *ProviderState   `json:"provider_state,omitempty"`
	Nav      *NavigationState `json:"navigation_state,omitempty"`
}

// NewMainState returns the root state every session starts or truncates to.
func NewMainState() State {
	return State{MenuTag: MenuMain}
}

// Metadata describes a persisted SessionData document.
type Metadata struct {
	CreatedAt   time.Time `json:"created_at"`
	LastSavedAt time.Time `json:"last_saved_at"`
	Name        string    `json:"session_name,omitempty"`
	Description string    `json:"description,omitempty"`
	StateCount  int       `json:"state_count"`
}

// SessionData is the on-disk representation of a history stack: ordered
// oldest-first, with the last element being the current state.
type SessionData struct {
	FormatVersion string   `json:"format_version"`
	Metadata      Metadata `json:"metadata"`
	History       []State  `json:"history"`
}

const sessionFormatVersion = "1.0"

// NewSessionData snapshots a history stack into a persistable document.
func NewSessionData(history []State, now time.Time, createdAt time.Time, name string) SessionData {
	return SessionData{
		FormatVersion: sessionFormatVersion,
		Metadata: Metadata{
			CreatedAt:   createdAt,
			LastSavedAt: now,
			Name:        name,
			StateCount:  len(history),
		},
		History: append([]State(nil), history...),
	}
}

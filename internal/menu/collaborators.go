// Package menu holds the representative menu handler implementations that
// self-register under a session.MenuTag: main, results, media actions,
// episodes, provider search, servers, player controls, and session
// management. Handlers depend only on the narrow collaborator interfaces
// declared here, never on a concrete media API, provider, player, or
// selector implementation.
package menu

import (
	"time"

	"github.com/fastanime/fastanime-core/internal/registry"
)

// MediaAPIClient is the narrow surface handlers need from the external
// metadata collaborator.
type MediaAPIClient interface {
	SearchMedia(params map[string]string) (SearchResult, error)
	IsAuthenticated() bool
}

// SearchResult is a page of media search results.
type SearchResult struct {
	PageInfo PageInfo
	Media    []registry.MediaItem
}

// PageInfo mirrors session.PageInfo for collaborator contracts so this
// package does not need to import session for the data shape alone.
type PageInfo struct {
	CurrentPage int
	HasNextPage bool
	Total       int
}

// AnimeProvider is the narrow surface handlers need from the external
// streaming-provider collaborator.
type AnimeProvider interface {
	Search(query string) ([]ProviderResult, error)
	EpisodeServers(animeID string, episode int) (map[string]string, error)
}

// ProviderResult is one provider-side search hit.
type ProviderResult struct {
	ID    string
	Title string
}

// PlayerResult carries the outcome of a playback session; the two times
// are "HH:MM:SS" strings, matching the on-disk state representation.
type PlayerResult struct {
	ExitStatus int
	StopTime   string
	TotalTime  string
}

// Player is the narrow surface handlers need from the external player
// collaborator.
type Player interface {
	Play(url, title string) (PlayerResult, error)
}

// Selector is the narrow surface handlers need from the external
// front-end: menu choice, free text, and confirmation prompts.
type Selector interface {
	Choose(prompt string, choices []string, header string) (string, bool)
	Ask(prompt string) string
	Confirm(prompt string, defaultYes bool) bool
}

// Downloader is the opaque binary launcher driven by download config;
// handlers only ever enqueue through it.
type Downloader interface {
	Enqueue(mediaID, episode int, priority int) error
}

// Clock isolates time.Now so handler tests can inject a fixed instant.
type Clock func() time.Time

// RealClock is the production Clock.
func RealClock() time.Time { return time.Now() }

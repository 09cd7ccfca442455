package registry

import "time"

const indexFormatVersion = "1.0"

// IndexEntry is a denormalized summary of a MediaRecord, letting the
// registry list and filter without loading every record from disk.
type IndexEntry struct {
	Title               string    `json:"title"`
	UserStatus          MediaUserStatus `json:"user_status"`
	EpisodesDownloaded  int       `json:"episodes_downloaded"`
	EpisodesWatched     int       `json:"episodes_watched"`
	TotalEpisodes       int       `json:"total_episodes"`
	LastUpdated         time.Time `json:"last_updated"`
	LastWatchedEpisode  int       `json:"last_watched_episode"`
	NextEpisode         *int      `json:"next_episode,omitempty"`
}

// deriveIndexEntry computes an IndexEntry from a MediaRecord; every field
// is derivable, so the index can always be rebuilt deterministically.
func deriveIndexEntry(r MediaRecord, fileExists func(string) bool) IndexEntry {
	entry := IndexEntry{
		Title:              r.MediaItem.DisplayTitle(),
		UserStatus:         r.UserData.Status,
		EpisodesDownloaded: r.TotalEpisodesDownloaded(fileExists),
		EpisodesWatched:    r.TotalEpisodesWatched(),
		TotalEpisodes:      r.MediaItem.Episodes,
		LastUpdated:        r.UserData.LastUpdated,
		LastWatchedEpisode: r.LastWatchedEpisode(),
	}
	if next, ok := r.NextEpisodeToWatch(); ok {
		entry.NextEpisode = &next
	}
	return entry
}

// RegistryIndex is the on-disk summary of every tracked media_id.
type RegistryIndex struct {
	Version     string               `json:"version"`
	LastUpdated time.Time            `json:"last_updated"`
	MediaCount  int                  `json:"media_count"`
	MediaIndex  map[int]IndexEntry   `json:"media_index"`
}

// NewRegistryIndex returns an empty, correctly versioned index.
func NewRegistryIndex() RegistryIndex {
	return RegistryIndex{
		Version:    indexFormatVersion,
		MediaIndex: make(map[int]IndexEntry),
	}
}

// StatusBreakdown counts entries by user status, used for diagnostics.
func (idx RegistryIndex) StatusBreakdown() map[MediaUserStatus]int {
	counts := make(map[MediaUserStatus]int)
	for _, e := range idx.MediaIndex {
		counts[e.UserStatus]++
	}
	return counts
}

// Package registry implements the content-addressed media registry: a
// per-anime JSON record store with a denormalized index, unifying download
// and watch tracking for every media entity the user has interacted with.
package registry

import (
	"fmt"
	"time"
)

// DownloadStatus is the lifecycle state of an episode's local file.
type DownloadStatus string

const (
	DownloadNotDownloaded DownloadStatus = "not_downloaded"
	DownloadQueued        DownloadStatus = "queued"
	DownloadDownloading   DownloadStatus = "downloading"
	DownloadCompleted     DownloadStatus = "completed"
	DownloadFailed        DownloadStatus = "failed"
	DownloadPaused        DownloadStatus = "paused"
)

// WatchStatus is the playback state of a single episode.
type WatchStatus string

const (
	WatchNotWatched WatchStatus = "not_watched"
	WatchWatching   WatchStatus = "watching"
	WatchCompleted  WatchStatus = "completed"
	WatchDropped    WatchStatus = "dropped"
	WatchPaused     WatchStatus = "paused"
)

// MediaUserStatus is the user's overall relationship to a media entity.
type MediaUserStatus string

const (
	StatusPlanning  MediaUserStatus = "planning"
	StatusWatching  MediaUserStatus = "watching"
	StatusCompleted MediaUserStatus = "completed"
	StatusDropped   MediaUserStatus = "dropped"
	StatusPaused    MediaUserStatus = "paused"
)

// autoMarkWatchedThreshold is the completion percentage at which an
// episode is considered finished even without an explicit "completed" event.
const autoMarkWatchedThreshold = 80.0

// MediaItem is the external, opaque value-type describing an anime as
// returned by the media-metadata API. It is immutable within a session.
type MediaItem struct {
	ID             int    `json:"id"`
	TitleEnglish   string `json:"title_english,omitempty"`
	TitleRomaji    string `json:"title_romaji,omitempty"`
	TitleNative    string `json:"title_native,omitempty"`
	Status         string `json:"status,omitempty"`
	Episodes       int    `json:"episodes,omitempty"`
	CoverImage     string `json:"cover_image,omitempty"`
}

// DisplayTitle picks the best available title, in the order the original
// source's registry prefers: English, then romaji, then native.
func (m MediaItem) DisplayTitle() string {
	switch {
	case m.TitleEnglish != "":
		return m.TitleEnglish
	case m.TitleRomaji != "":
		return m.TitleRomaji
	case m.TitleNative != "":
		return m.TitleNative
	default:
		return ""
	}
}

// EpisodeStatus is the unified per-episode state, tracking both download
// and watch progress for one episode number.
type EpisodeStatus struct {
	EpisodeNumber int `json:"episode_number"`

	DownloadStatus  DownloadStatus `json:"download_status"`
	FilePath        string         `json:"file_path,omitempty"`
	FileSize        int64          `json:"file_size,omitempty"`
	DownloadDate    *time.Time     `json:"download_date,omitempty"`
	DownloadQuality string         `json:"download_quality,omitempty"`
	Checksum        string         `json:"checksum,omitempty"`

	WatchStatus        WatchStatus `json:"watch_status"`
	WatchProgress      float64     `json:"watch_progress"`
	LastWatchPosition  string      `json:"last_watch_position,omitempty"`
	TotalDuration      string      `json:"total_duration,omitempty"`
	WatchDate          *time.Time  `json:"watch_date,omitempty"`
	WatchCount         int         `json:"watch_count"`
	AutoMarkedWatched  bool        `json:"auto_marked_watched"`
}

// IsAvailableLocally reports whether the episode's file is present, given a
// function to check file existence (injected so the registry stays
// filesystem-agnostic in tests).
func (e EpisodeStatus) IsAvailableLocally(exists func(path string) bool) bool {
	return e.DownloadStatus == DownloadCompleted && e.FilePath != "" && exists(e.FilePath)
}

// CompletionPercentage derives watch completion from player-reported
// positions when available, else falls back to WatchProgress.
func (e EpisodeStatus) CompletionPercentage() float64 {
	if e.LastWatchPosition != "" && e.TotalDuration != "" {
		last := timeToSeconds(e.LastWatchPosition)
		total := timeToSeconds(e.TotalDuration)
		if total > 0 {
			pct := (float64(last) / float64(total)) * 100
			if pct > 100 {
				pct = 100
			}
			return pct
		}
	}
	return e.WatchProgress * 100
}

// ShouldAutoMarkWatched reports whether an episode has crossed the
// completion threshold without yet being flagged completed.
func (e EpisodeStatus) ShouldAutoMarkWatched() bool {
	return e.CompletionPercentage() >= autoMarkWatchedThreshold && e.WatchStatus != WatchCompleted
}

func timeToSeconds(hhmmss string) int {
	var h, m, s int
	n, err := fmt.Sscanf(hhmmss, "%d:%d:%d", &h, &m, &s)
	if err != nil || n != 3 {
		return 0
	}
	return h*3600 + m*60 + s
}

// UserMediaData is the user's per-media preferences and state.
type UserMediaData struct {
	Status   MediaUserStatus `json:"status"`
	Notes    string          `json:"notes,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
	Rating   *int            `json:"rating,omitempty"`
	Favorite bool            `json:"favorite"`
	Priority int             `json:"priority"`

	PreferredQuality string `json:"preferred_quality,omitempty"`
	AutoDownloadNew  bool   `json:"auto_download_new"`
	DownloadPath     string `json:"download_path,omitempty"`

	ContinueFromHistory       bool `json:"continue_from_history"`
	AutoMarkWatchedOnDownload bool `json:"auto_mark_watched_on_download"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewUserMediaData returns defaults matching the original source: planning
// status, 1080p preferred quality, continue-from-history enabled.
func NewUserMediaData(now time.Time) UserMediaData {
	return UserMediaData{
		Status:              StatusPlanning,
		PreferredQuality:    "1080",
		ContinueFromHistory: true,
		CreatedAt:           now,
		LastUpdated:         now,
	}
}

// MediaRecord is the durable unit the registry owns: one MediaItem, its
// per-episode status map, and the user's relationship to it.
type MediaRecord struct {
	MediaItem MediaItem               `json:"media_item"`
	Episodes  map[int]EpisodeStatus   `json:"episodes"`
	UserData  UserMediaData           `json:"user_data"`
}

// Clone returns a deep copy, since every mutation in the registry produces
// a new value rather than mutating a shared one in place.
func (r MediaRecord) Clone() MediaRecord {
	episodes := make(map[int]EpisodeStatus, len(r.Episodes))
	for k, v := range r.Episodes {
		episodes[k] = v
	}
	tags := append([]string(nil), r.UserData.Tags...)
	ud := r.UserData
	ud.Tags = tags
	return MediaRecord{MediaItem: r.MediaItem, Episodes: episodes, UserData: ud}
}

// TotalEpisodesDownloaded counts episodes whose file is present locally.
func (r MediaRecord) TotalEpisodesDownloaded(exists func(path string) bool) int {
	n := 0
	for _, ep := range r.Episodes {
		if ep.IsAvailableLocally(exists) {
			n++
		}
	}
	return n
}

// TotalEpisodesWatched counts episodes marked completed.
func (r MediaRecord) TotalEpisodesWatched() int {
	n := 0
	for _, ep := range r.Episodes {
		if ep.WatchStatus == WatchCompleted {
			n++
		}
	}
	return n
}

// LastWatchedEpisode returns the highest episode number marked completed,
// or 0 if none.
func (r MediaRecord) LastWatchedEpisode() int {
	max := 0
	for n, ep := range r.Episodes {
		if ep.WatchStatus == WatchCompleted && n > max {
			max = n
		}
	}
	return max
}

// NextEpisodeToWatch implements §4.2.2: 1 if nothing is completed yet, the
// next number after the highest completed episode otherwise, or 0 (absent)
// if the series' known episode count has been reached.
func (r MediaRecord) NextEpisodeToWatch() (episode int, ok bool) {
	last := r.LastWatchedEpisode()
	if last == 0 {
		return 1, true
	}
	next := last + 1
	if r.MediaItem.Episodes > 0 && next > r.MediaItem.Episodes {
		return 0, false
	}
	return next, true
}

// EpisodeStatusOrDefault returns the episode's status, or a fresh
// not-downloaded/not-watched status if absent.
func (r MediaRecord) EpisodeStatusOrDefault(n int) EpisodeStatus {
	if ep, ok := r.Episodes[n]; ok {
		return ep
	}
	return EpisodeStatus{EpisodeNumber: n, DownloadStatus: DownloadNotDownloaded, WatchStatus: WatchNotWatched}
}

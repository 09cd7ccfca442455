package registry

import (
	"time"

	"github.com/fastanime/fastanime-core/internal/logging"
)

// PlaybackEvent carries the player-reported positions for one episode.
type PlaybackEvent struct {
	MediaID       int
	Episode       int
	StopTime      string // "HH:MM:SS"
	TotalTime     string // "HH:MM:SS"
}

// DownloadCompletionEvent carries the payload of a finished download.
type DownloadCompletionEvent struct {
	MediaID  int
	Episode  int
	FilePath string
	FileSize int64
	Quality  string
	Checksum string
}

// Tracker is a thin façade mapping external events (playback stopped,
// download completed) onto registry mutations, per §4.2.1 and §4.3.
// Every method returns false (and logs the cause) rather than propagating
// an error, since a failed tracking update must never abort the handler
// that triggered it.
type Tracker struct {
	store *Store
	now   func() time.Time
}

// NewTracker wraps a Store for event-driven updates.
func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// TrackEpisodeStart marks an episode "watching" when playback begins,
// unless it is already completed, and bumps a still-planning series to
// "watching".
func (t *Tracker) TrackEpisodeStart(item MediaItem, episode int) bool {
	record, err := t.getOrCreate(item)
	if err != nil {
		logging.Warn().Int("media_id", item.ID).Err(err).Msg("track episode start: load failed")
		return false
	}

	ep := record.EpisodeStatusOrDefault(episode)
	if ep.WatchStatus != WatchCompleted {
		ep.WatchStatus = WatchWatching
	}
	record.Episodes[episode] = ep

	if record.UserData.Status == StatusPlanning {
		record.UserData.Status = StatusWatching
	}

	if _, err := t.store.Save(item.ID, record); err != nil {
		logging.Warn().Int("media_id", item.ID).Err(err).Msg("track episode start: save failed")
		return false
	}
	return true
}

// TrackPlaybackStopped applies §4.2.1's playback-event rules: records the
// reported position, auto-completes at the 80% threshold, and promotes
// the series' overall status as episodes are finished.
func (t *Tracker) TrackPlaybackStopped(evt PlaybackEvent) bool {
	if evt.StopTime == "" || evt.TotalTime == "" {
		logging.Warn().Int("media_id", evt.MediaID).Msg("playback event missing timing data, cannot track")
		return false
	}

	record, err := t.store.Get(evt.MediaID)
	if err != nil {
		logging.Warn().Int("media_id", evt.MediaID).Err(err).Msg("track playback stopped: load failed")
		return false
	}
	record = record.Clone()

	now := t.now()
	ep := record.EpisodeStatusOrDefault(evt.Episode)
	ep.LastWatchPosition = evt.StopTime
	ep.TotalDuration = evt.TotalTime
	ep.WatchDate = &now
	ep.WatchCount++
	if ep.WatchStatus == WatchNotWatched {
		ep.WatchStatus = WatchWatching
	}

	if ep.ShouldAutoMarkWatched() {
		ep.WatchStatus = WatchCompleted
		ep.WatchProgress = 1
	}
	record.Episodes[evt.Episode] = ep

	if record.UserData.Status == StatusPlanning && (ep.WatchStatus == WatchWatching || ep.WatchStatus == WatchCompleted) {
		record.UserData.Status = StatusWatching
	}

	if record.MediaItem.Episodes > 0 && record.TotalEpisodesWatched() >= record.MediaItem.Episodes {
		record.UserData.Status = StatusCompleted
	}

	if _, err := t.store.Save(evt.MediaID, record); err != nil {
		logging.Warn().Int("media_id", evt.MediaID).Err(err).Msg("track playback stopped: save failed")
		return false
	}
	return true
}

// TrackDownloadCompletion applies §4.2.1's download-completion rules,
// optionally auto-marking the episode watched.
func (t *Tracker) TrackDownloadCompletion(evt DownloadCompletionEvent) bool {
	record, err := t.store.Get(evt.MediaID)
	if err != nil {
		logging.Warn().Int("media_id", evt.MediaID).Err(err).Msg("track download completion: load failed")
		return false
	}
	record = record.Clone()

	now := t.now()
	ep := record.EpisodeStatusOrDefault(evt.Episode)
	ep.DownloadStatus = DownloadCompleted
	ep.FilePath = evt.FilePath
	ep.FileSize = evt.FileSize
	ep.DownloadQuality = evt.Quality
	ep.Checksum = evt.Checksum
	ep.DownloadDate = &now

	if record.UserData.AutoMarkWatchedOnDownload && ep.WatchStatus == WatchNotWatched {
		ep.WatchStatus = WatchCompleted
		ep.WatchProgress = 1
		ep.AutoMarkedWatched = true
		ep.WatchDate = &now
	}
	record.Episodes[evt.Episode] = ep

	if _, err := t.store.Save(evt.MediaID, record); err != nil {
		logging.Warn().Int("media_id", evt.MediaID).Err(err).Msg("track download completion: save failed")
		return false
	}
	return true
}

// ContinueEpisode returns the record's next_episode_to_watch only if it
// appears in the caller-supplied set of currently available episodes.
func (t *Tracker) ContinueEpisode(mediaID int, available map[int]bool) (int, bool) {
	record, err := t.store.Get(mediaID)
	if err != nil {
		return 0, false
	}
	next, ok := record.NextEpisodeToWatch()
	if !ok || !available[next] {
		return 0, false
	}
	return next, true
}

func (t *Tracker) getOrCreate(item MediaItem) (MediaRecord, error) {
	record, err := t.store.Get(item.ID)
	if err == nil {
		record = record.Clone()
		record.MediaItem = item
		return record, nil
	}
	return MediaRecord{
		MediaItem: item,
		Episodes:  make(map[int]EpisodeStatus),
		UserData:  NewUserMediaData(t.now()),
	}, nil
}

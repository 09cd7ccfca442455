package registry

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fastanime/fastanime-core/internal/atomicfile"
	"github.com/fastanime/fastanime-core/internal/logging"
)

// legacyWatchHistory is the flat {media_id: episode_number} format the
// original source wrote to <data>/watch_history.json before the registry
// unified download and watch tracking.
type legacyWatchHistory map[string]int

// MigrateLegacyWatchHistory implements the open-question decision recorded
// in DESIGN.md: if watch_history.json is present and the registry is
// empty, migrate each entry into a MediaRecord (marking the given episode
// and every episode before it as watched); otherwise rename the legacy
// file to watch_history.json.migrated so it is never silently lost.
//
// Returns the number of media_ids migrated, or an error if the legacy file
// cannot be read and quarantined either.
func (s *Store) MigrateLegacyWatchHistory(dataDir string) (int, error) {
	legacyPath := filepath.Join(dataDir, "watch_history.json")

	var legacy legacyWatchHistory
	if err := atomicfile.ReadJSON(legacyPath, &legacy); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		logging.Warn().Err(err).Msg("legacy watch_history.json is unreadable, quarantining")
		return 0, s.quarantineLegacy(legacyPath)
	}

	idx, err := s.loadIndexLocked2()
	if err != nil {
		return 0, err
	}
	if len(idx.MediaIndex) > 0 {
		// Registry is not empty: the legacy file's provenance relative to
		// it is ambiguous, so quarantine rather than guess at a merge.
		return 0, s.quarantineLegacy(legacyPath)
	}

	migrated := 0
	now := time.Now()
	for mediaIDStr, lastEpisode := range legacy {
		mediaID, err := parsePositiveInt(mediaIDStr)
		if err != nil || lastEpisode <= 0 {
			continue
		}

		record := MediaRecord{
			MediaItem: MediaItem{ID: mediaID},
			Episodes:  make(map[int]EpisodeStatus, lastEpisode),
			UserData:  NewUserMediaData(now),
		}
		for n := 1; n <= lastEpisode; n++ {
			record.Episodes[n] = EpisodeStatus{
				EpisodeNumber: n,
				WatchStatus:   WatchCompleted,
				WatchProgress: 1,
				WatchDate:     &now,
			}
		}
		record.UserData.Status = StatusWatching

		if _, err := s.Save(mediaID, record); err != nil {
			logging.Warn().Int("media_id", mediaID).Err(err).Msg("failed to migrate legacy watch history entry")
			continue
		}
		migrated++
	}

	migratedPath := legacyPath + ".migrated"
	if err := os.Rename(legacyPath, migratedPath); err != nil {
		logging.Warn().Err(err).Msg("failed to rename legacy watch_history.json after migration")
	}

	return migrated, nil
}

func (s *Store) quarantineLegacy(path string) error {
	if err := os.Rename(path, path+".migrated"); err != nil {
		return err
	}
	return nil
}

// loadIndexLocked2 loads the index without assuming the caller already
// holds s.mu, used by migration which runs before the engine's steady
// state.
func (s *Store) loadIndexLocked2() (RegistryIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndexLocked()
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 0, os.ErrInvalid
	}
	return n, nil
}

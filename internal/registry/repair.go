package registry

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/atomicfile"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
)

// RepairRecord attempts a best-effort repair of a corrupt record file per
// §4.2.3: supply defaults for missing required fields, re-validate, and
// quarantine (rename with a .corrupt suffix) if it still doesn't validate.
// Never silently drops data without quarantining it.
func (s *Store) RepairRecord(mediaID int) error {
	path := s.recordPath(mediaID)

	raw := map[string]any{}
	if err := atomicfile.ReadJSON(path, &raw); err != nil {
		return err
	}

	if _, ok := raw["episodes"]; !ok {
		raw["episodes"] = map[string]any{}
	}
	if userData, ok := raw["user_data"].(map[string]any); ok {
		if _, ok := userData["status"]; !ok {
			userData["status"] = string(StatusPlanning)
		}
		if _, ok := userData["created_at"]; !ok {
			userData["created_at"] = time.Unix(0, 0).UTC()
		}
		if _, ok := userData["last_updated"]; !ok {
			userData["last_updated"] = time.Unix(0, 0).UTC()
		}
	} else {
		raw["user_data"] = map[string]any{
			"status":       string(StatusPlanning),
			"created_at":   time.Unix(0, 0).UTC(),
			"last_updated": time.Unix(0, 0).UTC(),
		}
	}

	if err := atomicfile.WriteJSON(path, raw); err != nil {
		return err
	}

	var rec MediaRecord
	if err := atomicfile.ReadJSON(path, &rec); err != nil || validateRecord(rec) != nil {
		return s.quarantine(path)
	}
	return nil
}

func (s *Store) quarantine(path string) error {
	quarantined := path + ".corrupt"
	if err := os.Rename(path, quarantined); err != nil {
		return err
	}
	logging.Warn().Str("path", path).Str("quarantined_as", quarantined).Msg("quarantined unrepairable registry record")
	metrics.RegistryQuarantined.Inc()
	return apperrors.CorruptRecordError{Path: path, Cause: os.ErrInvalid}
}

// RepairIndex is the only operation that justifies a registry-wide scan:
// it verifies every index entry's record file still exists, re-indexes
// every record file missing an entry, and rewrites the index atomically.
func (s *Store) RepairIndex() error {
	start := time.Now()
	defer func() {
		metrics.RegistryIndexRepairDuration.Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.mediaDir(), 0o755); err != nil {
		return apperrors.NewExternalFailure("registry-repair", err)
	}

	entries, err := os.ReadDir(s.mediaDir())
	if err != nil {
		return apperrors.NewExternalFailure("registry-repair", err)
	}

	onDisk := make(map[int]bool)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		idStr := strings.TrimSuffix(e.Name(), ".json")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		onDisk[id] = true
	}

	idx, err := s.loadIndexLocked()
	if err != nil {
		return err
	}

	// Drop stale entries whose record file no longer exists.
	for id := range idx.MediaIndex {
		if !onDisk[id] {
			delete(idx.MediaIndex, id)
		}
	}

	// Re-index any record file missing from the index.
	for id := range onDisk {
		if _, ok := idx.MediaIndex[id]; ok {
			continue
		}
		var rec MediaRecord
		path := filepath.Join(s.mediaDir(), strconv.Itoa(id)+".json")
		if err := atomicfile.ReadJSON(path, &rec); err != nil {
			logging.Warn().Int("media_id", id).Err(err).Msg("skipping unreadable record during index repair")
			continue
		}
		idx.MediaIndex[id] = deriveIndexEntry(rec, fileExists)
	}

	idx.MediaCount = len(idx.MediaIndex)
	idx.LastUpdated = time.Now()

	if err := s.writeIndexLocked(idx); err != nil {
		return err
	}

	s.cache.Clear()
	return nil
}

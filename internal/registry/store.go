package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/atomicfile"
	"github.com/fastanime/fastanime-core/internal/cache"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
)

// Store is the per-media JSON record store plus its derived index. A
// single mutex serializes all mutations; reads only acquire it to snapshot
// the cache, since every MediaRecord value is immutable once stored (all
// mutation happens via copy-on-write).
type Store struct {
	root string // <data>/registry

	mu    sync.Mutex
	cache *cache.LRUCache[int, MediaRecord]

	now func() time.Time
}

// NewStore opens (without yet touching disk) a registry store rooted at
// <data>/registry, with an in-memory LRU cache of the given size and TTL.
func NewStore(dataDir string, cacheSize int, cacheTTL time.Duration) *Store {
	return &Store{
		root:  filepath.Join(dataDir, "registry"),
		cache: cache.NewLRUCache[int, MediaRecord](cacheSize, cacheTTL),
		now:   time.Now,
	}
}

func (s *Store) mediaDir() string {
	return filepath.Join(s.root, "media")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "index.json")
}

func (s *Store) recordPath(mediaID int) string {
	return filepath.Join(s.mediaDir(), strconv.Itoa(mediaID)+".json")
}

// EnsureDirs creates the registry directory layout if it doesn't exist.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.mediaDir(), 0o755); err != nil {
		return fmt.Errorf("%w: creating registry directories: %v", apperrors.ErrIoFailure, err)
	}
	return nil
}

// Get retrieves a MediaRecord by media_id, reading through the in-memory
// cache on a miss. Returns apperrors.ErrCorruptRecord (wrapped) if the
// on-disk file fails to parse.
func (s *Store) Get(mediaID int) (MediaRecord, error) {
	s.mu.Lock()
	if rec, ok := s.cache.Get(mediaID); ok {
		s.mu.Unlock()
		metrics.RegistryCacheHits.Inc()
		return rec, nil
	}
	s.mu.Unlock()
	metrics.RegistryCacheMisses.Inc()

	var rec MediaRecord
	path := s.recordPath(mediaID)
	if err := atomicfile.ReadJSON(path, &rec); err != nil {
		if os.IsNotExist(err) {
			return MediaRecord{}, fmt.Errorf("media_id %d: %w", mediaID, os.ErrNotExist)
		}
		return MediaRecord{}, apperrors.CorruptRecordError{Path: path, Cause: err}
	}
	if err := validateRecord(rec); err != nil {
		return MediaRecord{}, apperrors.CorruptRecordError{Path: path, Cause: err}
	}

	s.mu.Lock()
	s.cache.Add(mediaID, rec)
	s.mu.Unlock()

	return rec, nil
}

func validateRecord(r MediaRecord) error {
	if r.MediaItem.ID <= 0 {
		return errors.New("media_item.id must be positive")
	}
	for n := range r.Episodes {
		if n <= 0 {
			return fmt.Errorf("episode key %d must be positive", n)
		}
	}
	return nil
}

// Save bumps last_updated, atomically writes the record file, then
// rebuilds and atomically writes this media_id's index entry, then
// updates the cache. The two writes are not atomic together: on a crash
// between them, the index can always be rebuilt deterministically by
// RepairIndex.
func (s *Store) Save(mediaID int, record MediaRecord) (MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record = record.Clone()
	record.UserData.LastUpdated = s.now()

	path := s.recordPath(mediaID)
	if err := atomicfile.WriteJSON(path, record); err != nil {
		metrics.RecordRegistrySave(err)
		return MediaRecord{}, fmt.Errorf("%w: saving record %d: %v", apperrors.ErrIoFailure, mediaID, err)
	}

	if err := s.upsertIndexEntryLocked(mediaID, record); err != nil {
		metrics.RecordRegistrySave(err)
		return MediaRecord{}, err
	}

	s.cache.Add(mediaID, record)
	metrics.RecordRegistrySave(nil)
	return record, nil
}

func (s *Store) upsertIndexEntryLocked(mediaID int, record MediaRecord) error {
	idx, err := s.loadIndexLocked()
	if err != nil {
		return err
	}
	idx.MediaIndex[mediaID] = deriveIndexEntry(record, fileExists)
	idx.MediaCount = len(idx.MediaIndex)
	idx.LastUpdated = s.now()
	return s.writeIndexLocked(idx)
}

func (s *Store) loadIndexLocked() (RegistryIndex, error) {
	var idx RegistryIndex
	err := atomicfile.ReadJSON(s.indexPath(), &idx)
	if os.IsNotExist(err) {
		return NewRegistryIndex(), nil
	}
	if err != nil {
		return RegistryIndex{}, apperrors.NewExternalFailure("registry-index", err)
	}
	if idx.MediaIndex == nil {
		idx.MediaIndex = make(map[int]IndexEntry)
	}
	return idx, nil
}

func (s *Store) writeIndexLocked(idx RegistryIndex) error {
	if err := atomicfile.WriteJSON(s.indexPath(), idx); err != nil {
		return fmt.Errorf("%w: writing registry index: %v", apperrors.ErrIoFailure, err)
	}
	return nil
}

// List iterates the index and loads each matching record through Get,
// ordered by last_updated descending. An empty filter matches every status.
func (s *Store) List(filter MediaUserStatus) ([]MediaRecord, error) {
	s.mu.Lock()
	idx, err := s.loadIndexLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	type keyed struct {
		id      int
		updated time.Time
	}
	ids := make([]keyed, 0, len(idx.MediaIndex))
	for id, entry := range idx.MediaIndex {
		if filter != "" && entry.UserStatus != filter {
			continue
		}
		ids = append(ids, keyed{id: id, updated: entry.LastUpdated})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].updated.After(ids[j].updated) })

	records := make([]MediaRecord, 0, len(ids))
	for _, k := range ids {
		rec, err := s.Get(k.id)
		if err != nil {
			logging.Warn().Int("media_id", k.id).Err(err).Msg("skipping unreadable record during list")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes a media_id from the cache, disk, and index.
func (s *Store) Delete(mediaID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Remove(mediaID)

	path := s.recordPath(mediaID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: deleting record %d: %v", apperrors.ErrIoFailure, mediaID, err)
	}

	idx, err := s.loadIndexLocked()
	if err != nil {
		return err
	}
	delete(idx.MediaIndex, mediaID)
	idx.MediaCount = len(idx.MediaIndex)
	idx.LastUpdated = s.now()
	return s.writeIndexLocked(idx)
}

// VerifyResult maps an episode number to whether its file passed
// integrity verification.
type VerifyResult map[int]bool

// Verify checks, for every completed episode in record, that its file
// exists, its size matches, and (if a checksum is stored) its SHA-256
// digest matches, reading in 4 KiB chunks.
func Verify(record MediaRecord) VerifyResult {
	result := make(VerifyResult, len(record.Episodes))
	for n, ep := range record.Episodes {
		if ep.DownloadStatus != DownloadCompleted {
			continue
		}
		result[n] = verifyEpisode(ep)
	}
	return result
}

func verifyEpisode(ep EpisodeStatus) bool {
	info, err := os.Stat(ep.FilePath)
	if err != nil {
		return false
	}
	if ep.FileSize > 0 && info.Size() != ep.FileSize {
		return false
	}
	if ep.Checksum == "" {
		return true
	}

	f, err := os.Open(ep.FilePath)
	if err != nil {
		return false
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 4096)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return false
	}
	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), ep.Checksum)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

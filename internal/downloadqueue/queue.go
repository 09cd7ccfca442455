package downloadqueue

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/config"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
)

const (
	itemPrefix  = "item:"
	orderPrefix = "order:"
)

// Item is one pending download, matching the on-disk DownloadQueueItem
// representation: episode-level granularity, explicit retry accounting.
type Item struct {
	MediaID          int       `json:"media_id"`
	EpisodeNumber    int       `json:"episode_number"`
	Priority         int       `json:"priority"`
	AddedAt          time.Time `json:"added_at"`
	EstimatedSize    int64     `json:"estimated_size,omitempty"`
	QualityPreference string   `json:"quality_preference,omitempty"`
	RetryCount       int       `json:"retry_count"`
	MaxRetries       int       `json:"max_retries"`
}

// Queue is the BadgerDB-backed durable download queue. A single DB
// instance is opened once at startup and closed on engine shutdown; the
// zero value is not usable, build one with Open.
type Queue struct {
	db *badger.DB
	mu sync.Mutex
}

// Open opens (or creates) the badger database at cfg.Path.
func Open(cfg config.DownloaderConfig) (*Queue, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open download queue: %w", apperrors.ErrIoFailure, err)
	}
	logging.Info().Str("path", cfg.Path).Msg("download queue opened")
	return &Queue{db: db}, nil
}

// Close releases the underlying database handle.
func (q *Queue) Close() error {
	if err := q.db.Close(); err != nil {
		return fmt.Errorf("%w: close download queue: %w", apperrors.ErrIoFailure, err)
	}
	return nil
}

// Enqueue durably persists item, overwriting any existing entry for the
// same media_id:episode_number pair.
func (q *Queue) Enqueue(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("%w: marshal download queue item: %w", apperrors.ErrIoFailure, err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(itemKey(item.MediaID, item.EpisodeNumber), data); err != nil {
			return err
		}
		return txn.Set(orderKey(item), nil)
	})
	if err != nil {
		return fmt.Errorf("%w: persist download queue item: %w", apperrors.ErrIoFailure, err)
	}
	metrics.DownloadQueueDepth.Inc()
	return nil
}

// Dequeue returns and removes the highest-priority, earliest-added item
// whose retry_count is below its max_retries, or (Item{}, false) if the
// queue holds nothing eligible.
func (q *Queue) Dequeue() (Item, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var found *Item
	var orderK []byte

	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(orderPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			mediaID, episode := decodeOrderKey(key)

			itemEntry, err := txn.Get(itemKey(mediaID, episode))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // stale ordering entry left by a prior Remove
			}
			if err != nil {
				return err
			}

			var candidate Item
			if err := itemEntry.Value(func(val []byte) error {
				return json.Unmarshal(val, &candidate)
			}); err != nil {
				return fmt.Errorf("%w: unmarshal download queue item", apperrors.ErrCorruptRecord)
			}

			if candidate.RetryCount >= candidate.MaxRetries {
				continue
			}

			found = &candidate
			orderK = key
			return nil
		}
		return nil
	})
	if err != nil {
		return Item{}, false, fmt.Errorf("%w: scan download queue: %w", apperrors.ErrIoFailure, err)
	}
	if found == nil {
		return Item{}, false, nil
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(itemKey(found.MediaID, found.EpisodeNumber)); err != nil {
			return err
		}
		return txn.Delete(orderK)
	})
	if err != nil {
		return Item{}, false, fmt.Errorf("%w: remove dequeued item: %w", apperrors.ErrIoFailure, err)
	}
	metrics.DownloadQueueDepth.Dec()
	return *found, true, nil
}

// Remove deletes a queued item by identity, regardless of its position.
func (q *Queue) Remove(mediaID, episode int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var existing Item
	err := q.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(itemKey(mediaID, episode))
		if err != nil {
			return err
		}
		return entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: lookup download queue item: %w", apperrors.ErrIoFailure, err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(itemKey(mediaID, episode)); err != nil {
			return err
		}
		return txn.Delete(orderKey(existing))
	})
	if err != nil {
		return fmt.Errorf("%w: remove download queue item: %w", apperrors.ErrIoFailure, err)
	}
	metrics.DownloadQueueDepth.Dec()
	return nil
}

// List returns every queued item, optionally filtered to one media_id
// when mediaID is non-nil, in priority order (highest first, ties
// broken by earliest added_at).
func (q *Queue) List(mediaID *int) ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var items []Item
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(orderPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			mid, episode := decodeOrderKey(it.Item().KeyCopy(nil))

			entry, err := txn.Get(itemKey(mid, episode))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var candidate Item
			if err := entry.Value(func(val []byte) error {
				return json.Unmarshal(val, &candidate)
			}); err != nil {
				return fmt.Errorf("%w: unmarshal download queue item", apperrors.ErrCorruptRecord)
			}
			if mediaID != nil && candidate.MediaID != *mediaID {
				continue
			}
			items = append(items, candidate)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list download queue: %w", apperrors.ErrIoFailure, err)
	}
	return items, nil
}

func itemKey(mediaID, episode int) []byte {
	key := make([]byte, len(itemPrefix)+8)
	copy(key, itemPrefix)
	binary.BigEndian.PutUint32(key[len(itemPrefix):], uint32(mediaID))
	binary.BigEndian.PutUint32(key[len(itemPrefix)+4:], uint32(episode))
	return key
}

// orderKey sorts by descending priority (inverted so ascending key order
// is descending priority), then ascending added_at, matching the queue's
// documented dequeue order.
func orderKey(item Item) []byte {
	key := make([]byte, len(orderPrefix)+4+8+8)
	copy(key, orderPrefix)
	off := len(orderPrefix)
	binary.BigEndian.PutUint32(key[off:], uint32(^int32(item.Priority)))
	off += 4
	binary.BigEndian.PutUint64(key[off:], uint64(item.AddedAt.UnixNano()))
	off += 8
	binary.BigEndian.PutUint32(key[off:], uint32(item.MediaID))
	binary.BigEndian.PutUint32(key[off+4:], uint32(item.EpisodeNumber))
	return key
}

func decodeOrderKey(key []byte) (mediaID, episode int) {
	off := len(orderPrefix) + 4 + 8
	mediaID = int(int32(binary.BigEndian.Uint32(key[off:])))
	episode = int(int32(binary.BigEndian.Uint32(key[off+4:])))
	return mediaID, episode
}

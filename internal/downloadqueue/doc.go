// Package downloadqueue implements the durable download queue: a
// BadgerDB-backed store of pending DownloadQueueItems, keyed so that
// ordered iteration yields items in priority order without an in-memory
// heap. Grounded on the teacher's internal/wal BadgerWAL (open/close
// lifecycle, JSON value encoding via goccy/go-json) and the teacher's
// internal/auth badger-backed stores (big-endian key composition for
// ordered scans), adapted from a write-ahead event log to a priority
// work queue.
package downloadqueue

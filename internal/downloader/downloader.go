package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/config"
	"github.com/fastanime/fastanime-core/internal/downloadqueue"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
	"github.com/fastanime/fastanime-core/internal/registry"
	"github.com/fastanime/fastanime-core/internal/workerpool"
)

// Launcher invokes the configured download command once per episode.
type Launcher struct {
	command   string
	args      []string
	outputDir string
}

// NewLauncher builds a Launcher from the resolved DownloaderConfig.
func NewLauncher(cfg config.DownloaderConfig, outputDir string) *Launcher {
	return &Launcher{command: cfg.Command, args: cfg.Args, outputDir: outputDir}
}

// Run launches the configured command against item, blocking until the
// process exits, and returns the final file's size on disk.
func (l *Launcher) Run(ctx context.Context, item downloadqueue.Item) (destPath string, size int64, err error) {
	if l.command == "" {
		return "", 0, fmt.Errorf("%w: no downloader command configured", apperrors.ErrUnsupported)
	}

	destPath = filepath.Join(l.outputDir, strconv.Itoa(item.MediaID), fmt.Sprintf("%d.mp4", item.EpisodeNumber))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("%w: create download directory: %v", apperrors.ErrIoFailure, err)
	}

	args := append(append([]string{}, l.args...),
		strconv.Itoa(item.MediaID), strconv.Itoa(item.EpisodeNumber), destPath)
	cmd := exec.CommandContext(ctx, l.command, args...)

	if err := cmd.Run(); err != nil {
		return destPath, 0, apperrors.NewExternalFailure("downloader", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return destPath, 0, fmt.Errorf("%w: stat downloaded file: %v", apperrors.ErrIoFailure, err)
	}
	return destPath, info.Size(), nil
}

// Manager owns the download queue, the worker pool draining it, and the
// launcher invoked per task. It is the concrete implementation behind
// menu.Downloader.
type Manager struct {
	queue    *downloadqueue.Queue
	launcher *Launcher
	tracker  *registry.Tracker
	pool     *workerpool.Pool
}

// NewManager wires a queue, launcher, and registry tracker into a
// concurrency-bounded download manager. Concurrency bounds the pool's
// worker width.
func NewManager(queue *downloadqueue.Queue, launcher *Launcher, tracker *registry.Tracker, concurrency int) *Manager {
	m := &Manager{queue: queue, launcher: launcher, tracker: tracker}
	m.pool = workerpool.NewPool("downloads", concurrency, m.onComplete)
	return m
}

// Start begins the pool and the queue-draining loop. ctx bounds the
// manager's entire lifetime.
func (m *Manager) Start(ctx context.Context) {
	m.pool.Start(ctx)
	go m.drain(ctx)
}

// Shutdown stops draining new items and waits up to timeout for
// in-flight downloads to finish.
func (m *Manager) Shutdown(timeout time.Duration) {
	m.pool.Shutdown(true, timeout)
}

// Enqueue persists a new download request. It is the method menu
// handlers reach through the narrow Downloader interface.
func (m *Manager) Enqueue(mediaID, episode int, priority int) error {
	return m.queue.Enqueue(downloadqueue.Item{
		MediaID:       mediaID,
		EpisodeNumber: episode,
		Priority:      priority,
		AddedAt:       time.Now().UTC(),
		MaxRetries:    3,
	})
}

type downloadTaskResult struct {
	item     downloadqueue.Item
	destPath string
	size     int64
}

func (m *Manager) drain(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			item, ok, err := m.queue.Dequeue()
			if err != nil {
				logging.Warn().Err(err).Msg("download queue dequeue failed")
				continue
			}
			if !ok {
				continue
			}
			m.submit(item)
		}
	}
}

func (m *Manager) submit(item downloadqueue.Item) {
	_, err := m.pool.Submit(func(ctx context.Context) (any, error) {
		destPath, size, err := m.launcher.Run(ctx, item)
		if err != nil {
			m.retry(item)
			return nil, err
		}
		return downloadTaskResult{item: item, destPath: destPath, size: size}, nil
	})
	if err != nil {
		logging.Warn().Err(err).Int("media_id", item.MediaID).Int("episode", item.EpisodeNumber).
			Msg("failed to submit download task")
	}
}

// retry re-enqueues a failed download with its retry count incremented,
// so Dequeue's retry_count < max_retries filter eventually gives up on
// it rather than looping forever.
func (m *Manager) retry(item downloadqueue.Item) {
	item.RetryCount++
	if item.RetryCount >= item.MaxRetries {
		return
	}
	item.AddedAt = time.Now().UTC()
	if err := m.queue.Enqueue(item); err != nil {
		logging.Warn().Err(err).Int("media_id", item.MediaID).Int("episode", item.EpisodeNumber).
			Msg("failed to re-enqueue download after failure")
	}
}

func (m *Manager) onComplete(_ *workerpool.Handle, outcome workerpool.Outcome, value any, err error) {
	switch outcome {
	case workerpool.OutcomeOK:
		result, ok := value.(downloadTaskResult)
		if !ok {
			return
		}
		m.tracker.TrackDownloadCompletion(registry.DownloadCompletionEvent{
			MediaID:  result.item.MediaID,
			Episode:  result.item.EpisodeNumber,
			FilePath: result.destPath,
			FileSize: result.size,
			Quality:  result.item.QualityPreference,
		})
		metrics.RecordDownloadCompleted("success", result.size)
	case workerpool.OutcomeError:
		logging.Warn().Err(err).Msg("download task failed")
		metrics.RecordDownloadCompleted("error", 0)
	case workerpool.OutcomeCancelled:
		metrics.RecordDownloadCompleted("cancelled", 0)
	}
}

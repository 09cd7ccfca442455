// Package preview prefetches display data for the selector's preview pane:
// cover/thumbnail images and rendered info text, cached on disk keyed by
// the SHA-256 of a canonical input. Workers share a single HTTP client
// with a connection limit equal to their worker width and a fixed
// per-request timeout.
package preview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fastanime/fastanime-core/internal/atomicfile"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
	"github.com/fastanime/fastanime-core/internal/workerpool"
)

const requestTimeout = 20 * time.Second

// Mode selects which preview artifacts are produced.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeImage Mode = "image"
	ModeText  Mode = "text"
)

// MediaPreviewInput is the subset of a MediaItem the info template needs.
type MediaPreviewInput struct {
	Title      string
	CoverImage string
	Status     string
	Episodes   int
}

// EpisodePreviewInput is the subset of episode data needed for an episode
// preview, falling back to the series cover when no thumbnail is set.
type EpisodePreviewInput struct {
	MediaTitle   string
	Episode      int
	ThumbnailURL string
	FallbackURL  string
}

// Manager lazily starts the media and episode worker pools on first use
// and owns the shared HTTP client. Shutdown stops both pools and closes
// the client.
type Manager struct {
	imagesDir string
	infoDir   string
	mode      Mode

	client *http.Client

	mediaPool   *workerpool.Pool
	episodePool *workerpool.Pool
	manager     *workerpool.ThreadManager

	started bool
}

// NewManager builds a preview manager rooted at <cache>/previews.
func NewManager(cacheDir string, workers int, mode Mode, threadManager *workerpool.ThreadManager) *Manager {
	return &Manager{
		imagesDir: filepath.Join(cacheDir, "previews", "images"),
		infoDir:   filepath.Join(cacheDir, "previews", "info"),
		mode:      mode,
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxConnsPerHost: workers,
			},
		},
		mediaPool:   workerpool.NewPool("preview-media", workers, nil),
		episodePool: workerpool.NewPool("preview-episode", workers, nil),
		manager:     threadManager,
	}
}

// ensureStarted lazily starts both worker pools and registers them with
// the process-wide ThreadManager.
func (m *Manager) ensureStarted(ctx context.Context) error {
	if m.started {
		return nil
	}
	if err := os.MkdirAll(m.imagesDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(m.infoDir, 0o755); err != nil {
		return err
	}

	m.mediaPool.Start(ctx)
	m.episodePool.Start(ctx)
	if m.manager != nil {
		m.manager.Register(m.mediaPool)
		m.manager.Register(m.episodePool)
	}
	m.started = true
	return nil
}

// Shutdown stops both worker pools and closes the shared HTTP client.
func (m *Manager) Shutdown() {
	if !m.started {
		return
	}
	m.mediaPool.Shutdown(true, 5*time.Second)
	m.episodePool.Shutdown(true, 5*time.Second)
	m.client.CloseIdleConnections()
	m.started = false
}

// ContentHash returns the lowercase hex SHA-256 of a canonical input
// string, used as the cache key for both images and info text.
func ContentHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// CacheMediaPreviews submits non-blocking image/info caching tasks for
// each media item, per §4.5.
func (m *Manager) CacheMediaPreviews(ctx context.Context, items []MediaPreviewInput) error {
	if err := m.ensureStarted(ctx); err != nil {
		return err
	}

	for _, item := range items {
		hash := ContentHash(item.Title)

		if (m.mode == ModeFull || m.mode == ModeImage) && item.CoverImage != "" {
			imagePath := filepath.Join(m.imagesDir, hash+".png")
			if _, err := os.Stat(imagePath); os.IsNotExist(err) {
				url, path := item.CoverImage, imagePath
				_, _ = m.mediaPool.Submit(func(ctx context.Context) (any, error) {
					return nil, m.downloadImage(ctx, "media", url, path)
				})
			}
		}

		if m.mode == ModeFull || m.mode == ModeText {
			infoPath := filepath.Join(m.infoDir, hash)
			text := renderMediaInfo(item)
			_, _ = m.mediaPool.Submit(func(ctx context.Context) (any, error) {
				return nil, m.writeInfo("media", infoPath, text)
			})
		}
	}
	return nil
}

// CacheEpisodePreviews submits non-blocking caching tasks for each
// episode, falling back to the series cover when no thumbnail is set.
func (m *Manager) CacheEpisodePreviews(ctx context.Context, episodes []EpisodePreviewInput) error {
	if err := m.ensureStarted(ctx); err != nil {
		return err
	}

	for _, ep := range episodes {
		key := fmt.Sprintf("%s_Episode_%d", ep.MediaTitle, ep.Episode)
		hash := ContentHash(key)

		thumb := ep.ThumbnailURL
		if thumb == "" {
			thumb = ep.FallbackURL
		}

		if (m.mode == ModeFull || m.mode == ModeImage) && thumb != "" {
			imagePath := filepath.Join(m.imagesDir, hash+".png")
			if _, err := os.Stat(imagePath); os.IsNotExist(err) {
				url, path := thumb, imagePath
				_, _ = m.episodePool.Submit(func(ctx context.Context) (any, error) {
					return nil, m.downloadImage(ctx, "episode", url, path)
				})
			}
		}
	}
	return nil
}

func (m *Manager) downloadImage(ctx context.Context, kind, url, path string) error {
	start := time.Now()
	err := m.fetchToFile(ctx, url, path)
	metrics.RecordPreviewFetch(kind, time.Since(start), err)
	if err != nil {
		logging.Warn().Str("url", url).Err(err).Msg("preview image download failed")
	}
	return err
}

func (m *Manager) fetchToFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}

func (m *Manager) writeInfo(kind, path, text string) error {
	start := time.Now()
	err := atomicfile.Write(path, []byte(text), 0o644)
	metrics.RecordPreviewFetch(kind, time.Since(start), err)
	return err
}

func renderMediaInfo(item MediaPreviewInput) string {
	return fmt.Sprintf("%s\nStatus: %s\nEpisodes: %d\n", item.Title, item.Status, item.Episodes)
}

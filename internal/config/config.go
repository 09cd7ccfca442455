// Package config defines the process-wide Config struct loaded from
// defaults, an optional YAML file, and environment variables (see
// LoadWithKoanf).
package config

import "time"

// Config holds all application configuration. It is immutable after Load
// returns and safe for concurrent read access.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: sensible built-in values for every field
//  2. Config file: optional YAML file (config.yaml) for persistent settings
//  3. Environment variables: FASTANIME_-prefixed, override any setting
type Config struct {
	Paths      PathsConfig      `koanf:"paths" validate:"required"`
	Session    SessionConfig    `koanf:"session" validate:"required"`
	Registry   RegistryConfig   `koanf:"registry" validate:"required"`
	WorkerPool WorkerPoolConfig `koanf:"worker_pool" validate:"required"`
	Preview    PreviewConfig    `koanf:"preview" validate:"required"`
	MediaAPI   MediaAPIConfig   `koanf:"media_api" validate:"required"`
	Provider   ProviderConfig   `koanf:"provider" validate:"required"`
	Player     PlayerConfig     `koanf:"player" validate:"required"`
	Selector   SelectorConfig   `koanf:"selector" validate:"required"`
	Downloader DownloaderConfig `koanf:"downloader" validate:"required"`
	Logging    LoggingConfig    `koanf:"logging" validate:"required"`
	Metrics    MetricsConfig    `koanf:"metrics" validate:"required"`
}

// PathsConfig controls where the engine stores its durable state on disk.
// All other path-bearing configs default relative to Data.
//
// Environment variables: FASTANIME_PATHS_DATA, FASTANIME_PATHS_CACHE.
type PathsConfig struct {
	// Data is the root directory for session.json, the registry, the
	// download queue, and credentials.json.
	Data string `koanf:"data" validate:"required"`
	// Cache is the root directory for the preview cache.
	Cache string `koanf:"cache" validate:"required"`
}

// SessionConfig controls the navigation engine's persistence behavior.
//
// Environment variables: FASTANIME_SESSION_AUTOSAVE_INTERVAL,
// FASTANIME_SESSION_MAX_STACK_DEPTH.
type SessionConfig struct {
	// AutoSaveInterval is how often the session snapshot is flushed to
	// disk while idle at a menu. Zero disables periodic auto-save; the
	// engine still saves on every successful transition.
	AutoSaveInterval time.Duration `koanf:"autosave_interval" validate:"gte=0"`
	// MaxStackDepth bounds the navigation stack to guard against runaway
	// PUSH loops in a misbehaving handler.
	MaxStackDepth int `koanf:"max_stack_depth" validate:"min=1"`
}

// RegistryConfig controls the MediaRecord registry store.
//
// Environment variables: FASTANIME_REGISTRY_CACHE_SIZE,
// FASTANIME_REGISTRY_CACHE_TTL, FASTANIME_REGISTRY_REPAIR_ON_STARTUP.
type RegistryConfig struct {
	// CacheSize bounds the in-memory LRU cache of decoded MediaRecords.
	CacheSize int `koanf:"cache_size" validate:"min=1"`
	// CacheTTL expires a cached record even if it hasn't been evicted by
	// size pressure, so external edits to the on-disk file are eventually
	// picked up.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	// RepairOnStartup runs a full index reconciliation pass against the
	// on-disk records before the engine accepts requests.
	RepairOnStartup bool `koanf:"repair_on_startup"`
}

// WorkerPoolConfig controls the concurrent task dispatcher.
//
// Environment variables: FASTANIME_WORKER_POOL_SIZE,
// FASTANIME_WORKER_POOL_QUEUE_CAPACITY.
type WorkerPoolConfig struct {
	// Size is the number of worker goroutines dispatching tasks.
	Size int `koanf:"size" validate:"min=1"`
	// QueueCapacity bounds pending tasks; Submit blocks once full.
	QueueCapacity int `koanf:"queue_capacity" validate:"min=1"`
}

// PreviewConfig controls the media/episode preview cache workers.
//
// Environment variables: FASTANIME_PREVIEW_WORKERS, FASTANIME_PREVIEW_TTL.
type PreviewConfig struct {
	// Workers is the number of concurrent preview-fetch goroutines, sized
	// independently from the general worker pool since previews share one
	// rate-limited HTTP client.
	Workers int `koanf:"workers" validate:"min=1"`
	// TTL expires a cached preview asset, forcing a re-fetch.
	TTL time.Duration `koanf:"ttl" validate:"gte=0"`
}

// MediaAPIConfig configures the AniList-compatible media metadata client.
//
// Environment variables: FASTANIME_MEDIA_API_BASE_URL,
// FASTANIME_MEDIA_API_TIMEOUT, FASTANIME_MEDIA_API_RATE_LIMIT_PER_SECOND.
type MediaAPIConfig struct {
	BaseURL             string        `koanf:"base_url" validate:"required,url"`
	Timeout             time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimitPerSecond  float64       `koanf:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst      int           `koanf:"rate_limit_burst" validate:"min=1"`
	CircuitBreakerName  string        `koanf:"circuit_breaker_name" validate:"required"`
}

// ProviderConfig configures the default anime source provider client.
//
// Environment variables: FASTANIME_PROVIDER_NAME, FASTANIME_PROVIDER_ENDPOINT,
// FASTANIME_PROVIDER_TIMEOUT, FASTANIME_PROVIDER_RATE_LIMIT_PER_SECOND.
type ProviderConfig struct {
	Name               string        `koanf:"name" validate:"required"`
	Endpoint           string        `koanf:"endpoint" validate:"required,url"`
	Timeout            time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int           `koanf:"rate_limit_burst" validate:"min=1"`
}

// PlayerConfig configures the external media player collaborator.
//
// Environment variables: FASTANIME_PLAYER_COMMAND, FASTANIME_PLAYER_ARGS.
type PlayerConfig struct {
	// Command is the executable invoked to play a stream URL (mpv, vlc).
	Command string `koanf:"command" validate:"required"`
	// Args are extra arguments passed before the stream URL.
	Args []string `koanf:"args"`
}

// SelectorConfig configures the external fuzzy-selector front-end.
//
// Environment variables: FASTANIME_SELECTOR_COMMAND.
type SelectorConfig struct {
	// Command is the executable invoked to render a selection prompt
	// (fzf, rofi). Empty disables the external selector and falls back
	// to the built-in numbered-list prompt.
	Command string `koanf:"command"`
}

// DownloaderConfig configures the badger-backed download queue and the
// opaque binary launcher that drains it.
//
// Environment variables: FASTANIME_DOWNLOADER_PATH,
// FASTANIME_DOWNLOADER_CONCURRENCY, FASTANIME_DOWNLOADER_COMMAND.
type DownloaderConfig struct {
	// Path is the badger database directory for the durable queue.
	Path string `koanf:"path" validate:"required"`
	// Concurrency bounds simultaneous in-flight downloads.
	Concurrency int `koanf:"concurrency" validate:"min=1"`
	// Command is the executable invoked per download (e.g. yt-dlp,
	// aria2c). Args are appended after the resolved source URL and
	// destination path.
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
}

// LoggingConfig mirrors internal/logging.Config for koanf binding.
//
// Environment variables: FASTANIME_LOG_LEVEL, FASTANIME_LOG_FORMAT,
// FASTANIME_LOG_CALLER.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the optional Prometheus metrics endpoint.
//
// Environment variables: FASTANIME_METRICS_ADDR.
type MetricsConfig struct {
	// Addr is the listen address for the /metrics endpoint (e.g.
	// "127.0.0.1:9090"). Empty disables the endpoint entirely.
	Addr string `koanf:"addr"`
}

// DefaultConfig returns a Config populated with sensible defaults. Load
// layers a config file and environment variables on top of this.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Data:  "~/.local/share/fastanime",
			Cache: "~/.cache/fastanime",
		},
		Session: SessionConfig{
			AutoSaveInterval: 10 * time.Second,
			MaxStackDepth:    64,
		},
		Registry: RegistryConfig{
			CacheSize:       512,
			CacheTTL:        30 * time.Minute,
			RepairOnStartup: true,
		},
		WorkerPool: WorkerPoolConfig{
			Size:          4,
			QueueCapacity: 256,
		},
		Preview: PreviewConfig{
			Workers: 3,
			TTL:     7 * 24 * time.Hour,
		},
		MediaAPI: MediaAPIConfig{
			BaseURL:            "https://graphql.anilist.co",
			Timeout:            10 * time.Second,
			RateLimitPerSecond: 1.5,
			RateLimitBurst:     3,
			CircuitBreakerName: "media_api",
		},
		Provider: ProviderConfig{
			Name:               "allanime",
			Endpoint:           "https://api.allanime.day",
			Timeout:            15 * time.Second,
			RateLimitPerSecond: 2.0,
			RateLimitBurst:     4,
		},
		Player: PlayerConfig{
			Command: "mpv",
			Args:    nil,
		},
		Selector: SelectorConfig{
			Command: "fzf",
		},
		Downloader: DownloaderConfig{
			Path:        "~/.local/share/fastanime/downloadqueue",
			Concurrency: 2,
			Command:     "yt-dlp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

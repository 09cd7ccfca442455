// Command fastanime is the terminal anime browsing, streaming, and
// download client: a stack-based menu engine backed by a content-addressed
// media registry and a concurrent preview cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fastanime/fastanime-core/internal/config"
	"github.com/fastanime/fastanime-core/internal/downloader"
	"github.com/fastanime/fastanime-core/internal/downloadqueue"
	"github.com/fastanime/fastanime-core/internal/feedback"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/mediaapi"
	"github.com/fastanime/fastanime-core/internal/menu"
	"github.com/fastanime/fastanime-core/internal/player"
	"github.com/fastanime/fastanime-core/internal/preview"
	"github.com/fastanime/fastanime-core/internal/provider"
	"github.com/fastanime/fastanime-core/internal/registry"
	"github.com/fastanime/fastanime-core/internal/selector"
	"github.com/fastanime/fastanime-core/internal/session"
	"github.com/fastanime/fastanime-core/internal/workerpool"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config.yaml (overrides the default search path)")
	resumeName := flag.String("resume", "", "resume the named session file, bypassing the crash-backup/auto-save offer")
	authToken := flag.String("auth-token", "", "media API auth token to install and persist encrypted at <data>/credentials.json")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("fastanime", version)
		return 0
	}

	if *configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, *configPath); err != nil {
			fmt.Fprintln(os.Stderr, "fastanime: setting config path:", err)
			return 1
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fastanime: loading configuration:", err)
		return 1
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller, Output: os.Stderr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	if cfg.Metrics.Addr != "" {
		startMetricsServer(ctx, cfg.Metrics.Addr)
	}

	store := registry.NewStore(cfg.Paths.Data, cfg.Registry.CacheSize, cfg.Registry.CacheTTL)
	if err := store.EnsureDirs(); err != nil {
		logging.Fatal().Err(err).Msg("failed to create registry directories")
	}
	if cfg.Registry.RepairOnStartup {
		if err := store.RepairIndex(); err != nil {
			logging.Warn().Err(err).Msg("registry index repair reported errors, continuing with what could be salvaged")
		}
	}
	if migrated, err := store.MigrateLegacyWatchHistory(cfg.Paths.Data); err != nil {
		logging.Warn().Err(err).Msg("legacy watch-history migration failed, continuing without it")
	} else if migrated > 0 {
		logging.Info().Int("count", migrated).Msg("migrated legacy watch history into the registry")
	}
	tracker := registry.NewTracker(store)

	threadManager := workerpool.NewThreadManager()

	previewManager := preview.NewManager(cfg.Paths.Cache, cfg.Preview.Workers, preview.ModeFull, threadManager)

	credentialStore, err := config.NewCredentialStore(cfg.Paths.Data)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to set up credential storage")
	}

	mediaAPIClient := mediaapi.New(cfg.MediaAPI)
	if *authToken != "" {
		mediaAPIClient.Authenticate(*authToken)
		if err := credentialStore.Save(*authToken); err != nil {
			logging.Warn().Err(err).Msg("failed to persist auth token")
		}
	} else if token, err := credentialStore.Load(); err != nil {
		logging.Warn().Err(err).Msg("failed to load persisted auth token")
	} else if token != "" {
		mediaAPIClient.Authenticate(token)
	}
	providerClient := provider.New(cfg.Provider, cfg.Provider.Endpoint)
	playerLauncher := player.New(cfg.Player)
	selectorFrontend := selector.New(cfg.Selector)
	feedbackService := feedback.NewConsole(true)

	downloadQueue, err := downloadqueue.Open(cfg.Downloader)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open download queue")
	}
	defer downloadQueue.Close()

	downloadLauncher := downloader.NewLauncher(cfg.Downloader, filepath.Join(cfg.Paths.Data, "downloads"))
	downloadManager := downloader.NewManager(downloadQueue, downloadLauncher, tracker, cfg.Downloader.Concurrency)
	downloadManager.Start(ctx)
	defer downloadManager.Shutdown(5 * time.Second)

	engineCtx := &session.Context{ThreadManager: threadManager}
	engineCtx.Reload = func() error {
		reloaded, err := config.Load()
		if err != nil {
			return err
		}
		logging.Init(logging.Config{Level: reloaded.Logging.Level, Format: reloaded.Logging.Format, Caller: reloaded.Logging.Caller, Output: os.Stderr})
		return nil
	}

	registryHandlers := session.NewRegistry()
	engine := session.NewEngine(session.DefaultConfig(cfg.Paths.Data), registryHandlers, engineCtx)

	env := &menu.Env{
		Store:    store,
		Tracker:  tracker,
		Preview:  previewManager,
		Feedback: feedbackService,
		Selector: selectorFrontend,
		MediaAPI: mediaAPIAdapter{client: mediaAPIClient},
		Provider: providerAdapter{client: providerClient},
		Player:   playerAdapter{launcher: playerLauncher},
		Download: downloadManager,
		Now:      menu.RealClock,
		SaveSession: func(name string) error {
			return engine.SaveNamed(name)
		},
		LoadSession: func(name string) error {
			return engine.ResumeNamed(name)
		},
		ListSessions: func() ([]string, error) {
			return engine.ListSessions()
		},
	}
	menu.RegisterAll(registryHandlers, env)

	if *resumeName != "" {
		if err := engine.ResumeNamed(*resumeName); err != nil {
			logging.Fatal().Err(err).Str("session", *resumeName).Msg("failed to resume named session")
		}
	} else {
		confirm := func(prompt string) bool { return selectorFrontend.Confirm(prompt, true) }
		if err := engine.Resume(confirm); err != nil {
			logging.Fatal().Err(err).Msg("failed to prepare session directory")
		}
	}

	if err := engine.Run(); err != nil {
		logging.Error().Err(err).Msg("session engine exited with an error")
		return 1
	}

	logging.Info().Msg("fastanime exited cleanly")
	return 0
}

func startMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

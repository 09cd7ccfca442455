// Package logging provides the process-wide zerolog-based structured
// logging used by every component of the session engine and registry.
//
// # Overview
//
// The package provides:
//   - JSON output format for the default, machine-parseable case
//   - Console output format for interactive development sessions
//   - Global logger configuration via Config / Init
//   - Context-aware logging with correlation ID propagation
//   - An slog adapter for libraries that require *slog.Logger (suture's
//     event hook, via sutureslog)
//
// # Quick start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	logging.Info().Str("menu", "MAIN").Msg("engine started")
//	logging.Error().Err(err).Msg("dispatch failed")
//
//	logging.Ctx(ctx).Info().Msg("processing")
//
// # Log levels
//
// Supported levels, from most to least verbose: trace, debug, info, warn,
// error, fatal, panic, disabled.
//
// # Component loggers
//
// Create component-scoped loggers with a consistent "component" field:
//
//	registryLog := logging.Component("registry")
//	registryLog.Info().Msg("index repaired")
//
// # Context-aware logging
//
//	logger := logging.Ctx(ctx)
//	logger.Info().Msg("dispatching handler")
//
// # slog adapter
//
// Libraries that require slog.Logger (the worker pool's suture supervisor)
// get one backed by the same zerolog sink:
//
//	slogLogger := logging.NewSlogLogger()
//
// # Thread safety
//
// All exported functions are safe for concurrent use; the global logger is
// protected by a sync.RWMutex for configuration changes.
package logging

// Package downloader is the opaque binary launcher driven by
// DownloaderConfig: it drains internal/downloadqueue and runs one
// external process per episode, mirroring internal/player's
// exec.CommandContext/exit-status idiom for a one-shot, non-interactive
// process instead of a long-lived playback session. Queue draining runs
// on an internal/workerpool.Pool so concurrent downloads are bounded by
// DownloaderConfig.Concurrency, and every completion is reported through
// internal/registry.Tracker so the registry's download state stays in
// sync with what actually reached disk.
package downloader

// Package player grounds its process-launch/exit-status idiom on
// ManuGH-xg2g's exec.CommandContext-based ffmpeg Runner, scaled down to a
// single blocking invocation instead of a supervised long-running
// process, since a player session's lifetime is exactly one handler call.
package player

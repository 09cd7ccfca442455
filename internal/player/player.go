// Package player launches the configured external media player as a
// child process. Player IPC (scraping a socket for exact resume
// position) is a peripheral front-end concern; this package only owns
// process lifecycle and the exit-status/"HH:MM:SS" markers documented in
// §6's PlayerResult contract.
package player

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/config"
	"github.com/fastanime/fastanime-core/internal/metrics"
)

// Result carries the outcome of one playback invocation. StopTime and
// TotalTime are "HH:MM:SS", present only when the player process printed
// the stop/total markers this package watches for on its stdout.
type Result struct {
	ExitStatus int
	StopTime   string
	TotalTime  string
}

const (
	stopTimeMarker  = "FASTANIME_STOP_TIME="
	totalTimeMarker = "FASTANIME_TOTAL_TIME="
)

// Launcher invokes the configured player command against a stream URL.
type Launcher struct {
	command string
	args    []string
}

// New builds a Launcher from the resolved PlayerConfig.
func New(cfg config.PlayerConfig) *Launcher {
	return &Launcher{command: cfg.Command, args: cfg.Args}
}

// Play runs the player against url, blocking until the process exits.
func (l *Launcher) Play(ctx context.Context, url, title string) (Result, error) {
	args := append(append([]string{}, l.args...), url)
	cmd := exec.CommandContext(ctx, l.command, args...)
	cmd.Env = append(cmd.Env, "FASTANIME_TITLE="+title)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("%w: opening player stdout: %v", apperrors.ErrExternalFailure, err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, apperrors.NewExternalFailure("player", err)
	}

	result := Result{}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, stopTimeMarker):
			result.StopTime = strings.TrimPrefix(line, stopTimeMarker)
		case strings.HasPrefix(line, totalTimeMarker):
			result.TotalTime = strings.TrimPrefix(line, totalTimeMarker)
		}
	}

	waitErr := cmd.Wait()
	metrics.RecordExternalRequest("player", time.Since(start))

	if exitErr, ok := asExitError(waitErr); ok {
		result.ExitStatus = exitErr.ExitCode()
		return result, nil
	}
	if waitErr != nil {
		return result, apperrors.NewExternalFailure("player", waitErr)
	}
	return result, nil
}

func asExitError(err error) (*exec.ExitError, bool) {
	exitErr, ok := err.(*exec.ExitError)
	return exitErr, ok
}

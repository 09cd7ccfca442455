// Package feedback provides the synchronous progress/confirm/prompt
// surface menu handlers use to talk to the user, decoupled from whatever
// terminal front-end renders it. The default Console implementation
// writes ANSI-styled lines and blocks on stdin for acknowledgements and
// prompts; a selector front-end with richer rendering can implement the
// same Service interface instead.
package feedback

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-colorable"
)

// Service is the narrow interface menu handlers depend on. It never
// drives navigation; handlers call it purely for user-visible effects.
type Service interface {
	Success(message string, details string)
	Info(message string, details string)
	Warning(message string, details string)
	Error(message string, details string)
	Confirm(message string, defaultYes bool) bool
	Ask(message string) string
	Progress(message string) ProgressToken
	ClearConsole()
}

// ProgressToken is held while a spinner-equivalent is active. Stop must
// be safe to call multiple times and on every exit path, including after
// a handler error.
type ProgressToken interface {
	Stop()
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiDim    = "\x1b[2m"
)

// Console is the default Service, writing styled lines to a color-safe
// stdout and reading acknowledgements from stdin.
type Console struct {
	out          io.Writer
	in           *bufio.Reader
	iconsEnabled bool

	mu sync.Mutex
}

// NewConsole builds a Console service. iconsEnabled mirrors the original
// tool's icon toggle for terminals without emoji support.
func NewConsole(iconsEnabled bool) *Console {
	return NewConsoleWithIO(colorable.NewColorableStdout(), os.Stdin, iconsEnabled)
}

// NewConsoleWithIO builds a Console service against explicit reader/writer
// streams, letting tests and alternate front-ends supply their own.
func NewConsoleWithIO(out io.Writer, in io.Reader, iconsEnabled bool) *Console {
	return &Console{
		out:          out,
		in:           bufio.NewReader(in),
		iconsEnabled: iconsEnabled,
	}
}

func (c *Console) icon(s string) string {
	if !c.iconsEnabled {
		return ""
	}
	return s + " "
}

func (c *Console) println(color, prefix, message, details string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s%s%s%s%s\n", color, ansiBold, prefix, message, ansiReset)
	if details != "" {
		fmt.Fprintf(c.out, "%s%s%s\n", ansiDim, details, ansiReset)
	}
}

func (c *Console) Success(message, details string) {
	c.println(ansiGreen, c.icon("✓"), message, details)
}

func (c *Console) Info(message, details string) {
	c.println(ansiBlue, c.icon("i"), message, details)
}

func (c *Console) Warning(message, details string) {
	c.println(ansiYellow, c.icon("!")+"Warning: ", message, details)
}

// Error prints and then blocks until the user acknowledges it, matching
// the synchronous "error blocks for acknowledgement" contract.
func (c *Console) Error(message, details string) {
	c.println(ansiRed, c.icon("✗")+"Error: ", message, details)
	c.pause("Press Enter to continue...")
}

func (c *Console) pause(prompt string) {
	c.mu.Lock()
	fmt.Fprint(c.out, prompt)
	c.mu.Unlock()
	_, _ = c.in.ReadString('\n')
}

// Confirm asks a yes/no question, returning defaultYes on bare Enter.
func (c *Console) Confirm(message string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s%s %s: ", ansiBold, message, suffix)
	c.mu.Unlock()

	line, _ := c.in.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Ask prompts for a free-text line, trimming the trailing newline.
func (c *Console) Ask(message string) string {
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s%s: ", ansiBold, message)
	c.mu.Unlock()

	line, _ := c.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// consoleProgress renders a message once and clears its line on Stop;
// it has no spinner animation since the Console implementation has no
// dedicated render loop, but satisfies the scoped-acquisition contract.
type consoleProgress struct {
	console *Console
	stopped sync.Once
	label   string
}

// Progress begins a scoped progress indication. Stop must be called on
// every exit path, including from a deferred call after an error.
func (c *Console) Progress(message string) ProgressToken {
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s%s...%s\n", ansiBlue, message, ansiReset)
	c.mu.Unlock()
	return &consoleProgress{console: c, label: message}
}

func (p *consoleProgress) Stop() {
	p.stopped.Do(func() {})
}

// ClearConsole emits the ANSI clear-screen-and-home sequence.
func (c *Console) ClearConsole() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "\x1b[2J\x1b[H")
}

// WithProgress runs fn under a scoped progress token, reporting
// success/error via the Service on completion, mirroring the original
// context-manager contract: the token is always stopped, on every exit
// path, before success/error feedback is emitted.
func WithProgress(svc Service, message, successMsg, errorMsg string, fn func() error) error {
	token := svc.Progress(message)
	err := fn()
	token.Stop()

	if err != nil {
		if errorMsg == "" {
			errorMsg = "Operation failed"
		}
		svc.Error(errorMsg, err.Error())
		return err
	}
	if successMsg != "" {
		svc.Success(successMsg, "")
	}
	return nil
}

// Package selector implements the external fuzzy-selector front-end: an
// exec-based adapter over a configured command (fzf, rofi) with a
// built-in numbered-list fallback when no command is configured, per
// §6's Selector contract (choose/choose_multiple/confirm/ask/search).
package selector

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/config"
)

// Exec is the exec-based Selector implementation.
type Exec struct {
	command string
	stdin   *bufio.Reader
	stdout  io.Writer
}

// New builds an Exec selector from the resolved SelectorConfig. An empty
// Command disables the external binary and falls back to a numbered
// list prompt read from stdin/stdout.
func New(cfg config.SelectorConfig) *Exec {
	return NewWithIO(cfg, os.Stdin, os.Stdout)
}

// NewWithIO builds an Exec selector against explicit reader/writer
// streams, letting tests and alternate front-ends supply their own.
func NewWithIO(cfg config.SelectorConfig, stdin io.Reader, stdout io.Writer) *Exec {
	return &Exec{command: cfg.Command, stdin: bufio.NewReader(stdin), stdout: stdout}
}

// Choose prompts for one of choices, returning ("", false) if the user
// cancelled (empty selection, non-zero exit from the external command).
func (e *Exec) Choose(prompt string, choices []string, header string) (string, bool) {
	if e.command == "" {
		return e.chooseNumbered(prompt, choices, header)
	}

	cmd := exec.Command(e.command, "--prompt", prompt+"> ")
	if header != "" {
		cmd = exec.Command(e.command, "--prompt", prompt+"> ", "--header", header)
	}
	cmd.Stdin = strings.NewReader(strings.Join(choices, "\n"))

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", false
	}

	choice := strings.TrimSpace(out.String())
	if choice == "" {
		return "", false
	}
	return choice, true
}

func (e *Exec) chooseNumbered(prompt string, choices []string, header string) (string, bool) {
	if header != "" {
		fmt.Fprintln(e.stdout, header)
	}
	for i, c := range choices {
		fmt.Fprintf(e.stdout, "%2d) %s\n", i+1, c)
	}
	fmt.Fprintf(e.stdout, "%s: ", prompt)

	line, ok := readLine(e.stdin)
	if !ok {
		return "", false
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(choices) {
		return "", false
	}
	return choices[idx-1], true
}

// ChooseMultiple falls back to a single Choose when the underlying
// command has no multi-select mode wired in, matching the base
// selector's documented default fallback behavior.
func (e *Exec) ChooseMultiple(prompt string, choices []string) []string {
	choice, ok := e.Choose(prompt, choices, "")
	if !ok {
		return nil
	}
	return []string{choice}
}

// Confirm asks a yes/no question on stdin/stdout, returning defaultYes
// on bare Enter.
func (e *Exec) Confirm(prompt string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(e.stdout, "%s %s: ", prompt, suffix)

	line, ok := readLine(e.stdin)
	if !ok {
		return defaultYes
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Ask prompts for free text, returning "" on a blank line or EOF. Use
// AskWithDefault for the spec's optional-default variant.
func (e *Exec) Ask(prompt string) string {
	return e.AskWithDefault(prompt, "")
}

// AskWithDefault prompts for free text, returning defaultValue on a
// blank line or EOF.
func (e *Exec) AskWithDefault(prompt string, defaultValue string) string {
	fmt.Fprintf(e.stdout, "%s: ", prompt)
	line, ok := readLine(e.stdin)
	if !ok || strings.TrimSpace(line) == "" {
		return defaultValue
	}
	return line
}

// Search provides dynamic, reload-as-you-type search via the external
// command's reload binding; it is unsupported without one configured.
func (e *Exec) Search(prompt, searchCommand, header string) (string, error) {
	if e.command == "" {
		return "", fmt.Errorf("%w: dynamic search requires a configured selector command", apperrors.ErrUnsupported)
	}

	cmd := exec.Command(e.command, "--prompt", prompt+"> ", "--bind", "change:reload("+searchCommand+")")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", apperrors.NewExternalFailure("selector", err)
	}
	choice := strings.TrimSpace(out.String())
	if choice == "" {
		return "", fmt.Errorf("%w: search cancelled", apperrors.ErrCancelled)
	}
	return choice, nil
}

func readLine(r *bufio.Reader) (string, bool) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

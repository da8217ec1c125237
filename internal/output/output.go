// Package output renders worker events on a terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/itsmostafa/gorepl/internal/worker"
)

var (
	// titleStyle for bold green headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// errorStyle for guest errors and stderr
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// systemStyle for interpreter notices
	systemStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("220"))

	// headerBoxStyle for the banner
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)
)

// Terminal writes worker events to a pair of writers. It implements
// worker.Poster.
type Terminal struct {
	Out io.Writer
	Err io.Writer

	// Color enables lipgloss styling of errors and notices
	Color bool

	// Prompt, when set, receives prompts instead of having them written to
	// Out. Line editors use it to show their own prompt.
	Prompt func(prompt string)

	// Quiet drops prompts and the run marker, for non-interactive runs
	Quiet bool

	mu     sync.Mutex
	locked bool
}

// Post renders e.
func (t *Terminal) Post(e worker.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case worker.EventWrite:
		if t.Quiet && worker.IsPrompt(e.Payload) {
			return
		}
		if t.Prompt != nil && worker.IsPrompt(e.Payload) {
			t.Prompt(strings.TrimLeft(e.Payload, "\n"))
			return
		}
		fmt.Fprint(t.Out, e.Payload)
	case worker.EventWriteln:
		if t.Quiet && e.Payload == worker.RunCode {
			return
		}
		fmt.Fprintln(t.Out, e.Payload)
	case worker.EventError:
		fmt.Fprintln(t.Err, t.style(errorStyle, e.Payload))
	case worker.EventSystem:
		fmt.Fprintln(t.Err, t.style(systemStyle, e.Payload))
	case worker.EventLock:
		t.locked = true
	case worker.EventUnlock:
		t.locked = false
	}
}

// Locked reports whether the worker has asked for input to be held back.
func (t *Terminal) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locked
}

func (t *Terminal) style(s lipgloss.Style, text string) string {
	if !t.Color {
		return text
	}
	return s.Render(text)
}

// FormatHeader renders the startup box shown by the CLI before the banner.
func FormatHeader(w io.Writer, sessionID, historyPath, workspaceDir string, maxFileSize int64) {
	if historyPath == "" {
		historyPath = "(memory)"
	}
	if workspaceDir == "" {
		workspaceDir = "(memory)"
	}

	content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s %s",
		titleStyle.Render("gorepl"),
		dimStyle.Render("Session:"), sessionID,
		dimStyle.Render("History:"), historyPath,
		dimStyle.Render("Workspace:"), workspaceDir,
		dimStyle.Render("(max file "+humanize.IBytes(uint64(maxFileSize))+")"),
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

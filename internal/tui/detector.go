// Package tui picks how turn output reaches the terminal.
package tui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode selects the chat front-end.
type OutputMode int

const (
	// ModeTUI runs the interactive Bubble Tea chat.
	ModeTUI OutputMode = iota
	// ModePlain prints replies as plain text.
	ModePlain
	// ModeJSON prints one JSON object per turn.
	ModeJSON
)

// OutputEnv overrides detection ("tui", "plain" or "json").
const OutputEnv = "JIRA_AGENT_OUTPUT"

var modeNames = [...]string{ModeTUI: "tui", ModePlain: "plain", ModeJSON: "json"}

func (m OutputMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// lookupMode reports the mode named s, if any.
func lookupMode(s string) (OutputMode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return OutputMode(i), true
		}
	}
	return ModeTUI, false
}

// ParseOutputMode parses an output mode name; anything unknown is ModeTUI.
func ParseOutputMode(s string) OutputMode {
	m, _ := lookupMode(s)
	return m
}

// Detector chooses between the chat front-ends for the current process.
type Detector struct {
	forced  *OutputMode
	noColor bool
	isTTY   func() bool
}

// NewDetector inspects stdout.
func NewDetector() *Detector {
	return &Detector{isTTY: stdoutIsTerminal}
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ForceMode skips detection.
func (d *Detector) ForceMode(mode OutputMode) *Detector {
	d.forced = &mode
	return d
}

// NoColor disables color regardless of the terminal.
func (d *Detector) NoColor(disable bool) *Detector {
	d.noColor = disable
	return d
}

// Detect resolves the mode: a forced mode, then OutputEnv, then plain
// under CI or without a terminal.
func (d *Detector) Detect() OutputMode {
	if d.forced != nil {
		return *d.forced
	}
	if m, ok := lookupMode(os.Getenv(OutputEnv)); ok {
		return m
	}
	if runningInCI() || !d.isTTY() {
		return ModePlain
	}
	return ModeTUI
}

func runningInCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// ShouldUseColor honours --no-color, NO_COLOR and TERM=dumb.
func (d *Detector) ShouldUseColor() bool {
	switch {
	case d.noColor, os.Getenv("NO_COLOR") != "", os.Getenv("TERM") == "dumb":
		return false
	}
	return d.isTTY()
}

// TerminalSize returns the stdout dimensions, or 80x24 when unknown.
func TerminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80, 24
	}
	return w, h
}

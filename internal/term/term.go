// Package term resolves the color mode and detects terminals.
//
// Colors are rendered by fatih/color, whose package-level NoColor switch is
// shared by every package that prints (logging, display). [Configure] sets it
// once during startup.
package term

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Mode controls ANSI color output.
type Mode string

const (
	ModeAuto   Mode = "auto"   // Enable colors when stdout is a TTY (default).
	ModeAlways Mode = "always" // Force colors on.
	ModeNever  Mode = "never"  // Disable colors entirely.
)

// Configure resolves mode and sets color.NoColor accordingly.
func Configure(mode Mode) {
	color.NoColor = !resolve(mode)
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return !color.NoColor }

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode Mode) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// TerminalDetector reports whether a file descriptor is an interactive
// terminal. Tests replace it to force either music mode.
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector asks golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)
	slog.Debug("terminal detection result", "fd", fd, "is_terminal", isTerminal)
	return isTerminal
}

// isInteractive reports whether r is a terminal the music player can put
// in raw mode
func (c *CLI) isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return c.terminalDetector.IsTerminal(int(f.Fd()))
}

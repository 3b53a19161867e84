package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/term"
)

type fakeTerminal struct{ interactive bool }

func (f fakeTerminal) IsTerminal(int) bool { return f.interactive }

func TestDefaultTerminalDetectorMatchesTerm(t *testing.T) {
	d := &DefaultTerminalDetector{}
	for _, fd := range []int{int(os.Stdin.Fd()), int(os.Stdout.Fd()), -1} {
		assert.Equal(t, term.IsTerminal(fd), d.IsTerminal(fd), "fd %d", fd)
	}
	assert.False(t, d.IsTerminal(-1))
}

func TestIsInteractiveNeedsAFile(t *testing.T) {
	c := NewCLI()
	c.terminalDetector = fakeTerminal{interactive: true}

	assert.False(t, c.isInteractive(strings.NewReader("")))
	assert.True(t, c.isInteractive(os.Stdin))

	c.terminalDetector = fakeTerminal{interactive: false}
	assert.False(t, c.isInteractive(os.Stdin))
}

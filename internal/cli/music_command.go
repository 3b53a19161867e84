package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hsound.dev/internal/sound"
)

const (
	gainStep      = 1.0
	panStep       = 0.1
	progressWidth = 20
	statusRefresh = 200 * time.Millisecond
)

type musicOptions struct {
	loop     bool
	pan      float64
	gain     float64
	duration time.Duration
}

func (c *CLI) newMusicCommand() *cobra.Command {
	var opts musicOptions

	musicCmd := &cobra.Command{
		Use:   "music <locator>",
		Short: "Play a music track",
		Long: `Play a music track on a single line.

On an interactive terminal the track is controlled from the keyboard:
  space  pause or resume
  s      stop (the next play starts over)
  l      loop from the beginning
  + -    gain up or down by 1 dB
  [ ]    pan left or right
  q      quit

Otherwise the command plays the track once (or loops for --duration) and
prints where it ended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMusic(cmd, args[0], opts, cmd.Flags().Changed("pan"), cmd.Flags().Changed("gain"))
		},
	}

	musicCmd.Flags().BoolVar(&opts.loop, "loop", false, "Loop the track")
	musicCmd.Flags().Float64Var(&opts.pan, "pan", 0, "Pan from -1 (left) to 1 (right)")
	musicCmd.Flags().Float64Var(&opts.gain, "gain", 0, "Gain in decibels")
	musicCmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 = until finished)")

	return musicCmd
}

func (c *CLI) runMusic(cmd *cobra.Command, locator string, opts musicOptions, setPan, setGain bool) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			slog.Error("failed to close playback session", "error", err)
		}
	}()

	m, err := s.library.Music(locator)
	if err != nil {
		return err
	}
	events := m.Subscribe(eventBuffer)
	defer m.Unsubscribe(events)
	if setPan {
		m.SetPan(opts.pan)
	}
	if setGain {
		m.SetGain(opts.gain)
	}

	if opts.loop {
		err = m.Loop()
	} else {
		err = m.Play()
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	if c.isInteractive(cmd.InOrStdin()) {
		return runMusicInteractive(ctx, cmd.InOrStdin().(*os.File), cmd.OutOrStdout(), m)
	}

	waitFor(ctx, sound.Stopped, []<-chan sound.Event{events}, func() bool { return !m.IsPlaying() })
	if m.IsPlaying() {
		m.Pause()
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatStatus(m))
	return nil
}

// runMusicInteractive puts the terminal in raw mode and applies key presses
// until q or ctx ends
func runMusicInteractive(ctx context.Context, in *os.File, out io.Writer, m *sound.Music) error {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(fd, state); err != nil {
			slog.Warn("failed to restore terminal", "error", err)
		}
		fmt.Fprint(out, "\r\n")
	}()

	// the reader stays blocked on stdin after quit and ends with the process
	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := in.Read(buf); err != nil {
				close(keys)
				return
			}
			keys <- buf[0]
		}
	}()

	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()

	for {
		fmt.Fprintf(out, "\r%s\x1b[K", formatStatus(m))
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			quit, err := handleMusicKey(m, key)
			if err != nil {
				slog.Error("music key failed", "key", string(key), "error", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// handleMusicKey applies one key press and reports whether to quit
func handleMusicKey(m *sound.Music, key byte) (bool, error) {
	switch key {
	case ' ':
		if m.IsPlaying() {
			m.Pause()
			return false, nil
		}
		return false, m.Play()
	case 's':
		m.Stop()
	case 'l':
		return false, m.Loop()
	case '+', '=':
		m.IncreaseGain(gainStep)
	case '-', '_':
		m.IncreaseGain(-gainStep)
	case '[':
		m.SetPan(m.Pan() - panStep)
	case ']':
		m.SetPan(m.Pan() + panStep)
	case 'q', 'Q', 3: // 3 is ctrl-c in raw mode
		return true, nil
	}
	return false, nil
}

// formatStatus renders a one-line progress report for m
func formatStatus(m *sound.Music) string {
	progress := m.Progress()
	filled := int(progress * progressWidth)
	filled = max(0, min(progressWidth, filled))

	state := "stopped"
	switch {
	case m.IsPlaying():
		state = "playing"
	case m.PausedAt() > 0:
		state = "paused"
	}

	return fmt.Sprintf("[%s%s] %3d%% %s/%s gain %+.1f dB pan %+.2f %s",
		strings.Repeat("#", filled),
		strings.Repeat("-", progressWidth-filled),
		int(progress*100),
		formatMicros(m.CurrentPositionMicros()),
		formatMicros(m.LengthMicros()),
		m.Gain(),
		m.Pan(),
		state)
}

// formatMicros renders a duration as mm:ss.d
func formatMicros(us int64) string {
	d := time.Duration(us) * time.Microsecond
	minutes := int(d / time.Minute)
	seconds := d % time.Minute
	return fmt.Sprintf("%02d:%04.1f", minutes, seconds.Seconds())
}

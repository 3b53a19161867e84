package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"hsound.dev/internal/sound"
)

// eventBuffer sizes the lifecycle subscriptions commands wait on
const eventBuffer = 16

type playOptions struct {
	loop     bool
	count    int
	pan      float64
	gain     float64
	duration time.Duration
}

func (c *CLI) newPlayCommand() *cobra.Command {
	var opts playOptions

	playCmd := &cobra.Command{
		Use:   "play <locator>...",
		Short: "Play one or more sounds",
		Long: `Play one or more sounds, each possibly several times at once.

Every trigger opens its own line, so repeated triggers overlap. The command
returns once every instance has finished. Looping sounds play until the
--duration elapses or the command is interrupted.

Examples:
  hsound play click                     # resolve "click" on the resource roots
  hsound play click.wav --count 4       # four overlapping instances
  hsound play engine --loop --duration 5s
  hsound play laser --pan -0.5 --gain -6`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlay(cmd, args, opts, cmd.Flags().Changed("pan"), cmd.Flags().Changed("gain"))
		},
	}

	playCmd.Flags().BoolVar(&opts.loop, "loop", false, "Loop until stopped")
	playCmd.Flags().IntVar(&opts.count, "count", 1, "Number of overlapping instances per sound")
	playCmd.Flags().Float64Var(&opts.pan, "pan", 0, "Pan from -1 (left) to 1 (right)")
	playCmd.Flags().Float64Var(&opts.gain, "gain", 0, "Gain in decibels")
	playCmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 = until finished)")

	return playCmd
}

func (c *CLI) runPlay(cmd *cobra.Command, locators []string, opts playOptions, setPan, setGain bool) error {
	if opts.count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", opts.count)
	}
	if opts.loop && opts.duration == 0 {
		slog.Info("looping until interrupted")
	}

	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			slog.Error("failed to close playback session", "error", err)
		}
	}()

	mode := sound.OneShot
	if opts.loop {
		mode = sound.Looping
	}

	var sounds []*sound.Sound
	var subs []<-chan sound.Event
	var errs []error
	for _, locator := range locators {
		snd, err := s.library.Sound(locator)
		if err != nil {
			return err
		}
		events := snd.Subscribe(eventBuffer)
		defer snd.Unsubscribe(events)
		subs = append(subs, events)
		if setPan {
			snd.SetPan(opts.pan)
		}
		if setGain {
			snd.SetGain(opts.gain)
		}

		triggered := 0
		for range opts.count {
			if err := snd.Trigger(mode); err != nil {
				errs = append(errs, err)
				break
			}
			triggered++
		}
		if triggered > 0 {
			sounds = append(sounds, snd)
			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s x%d\n", locator, mode, triggered)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	waitFor(ctx, sound.Closed, subs, func() bool {
		for _, snd := range sounds {
			if snd.Instances() > 0 {
				return false
			}
		}
		return true
	})
	s.library.StopAll()

	return errors.Join(errs...)
}

// waitFor blocks until done reports true or ctx ends. done is checked up
// front and again after every event of the given kind on any subscription.
// The subscriptions must be closed by the caller.
func waitFor(ctx context.Context, kind sound.EventKind, subs []<-chan sound.Event, done func() bool) {
	wake := make(chan struct{}, 1)
	for _, events := range subs {
		go func() {
			for e := range events {
				if e.Kind != kind {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}()
	}

	for !done() {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}
	}
}

// Package sound manages playback lifecycles on top of line factories:
// Sound fires independent overlapping instances, Music drives one seekable
// line.
package sound

import (
	"fmt"
	"log/slog"
	"sync"

	"hsound.dev/internal/audio"
	"hsound.dev/internal/line"
)

// Mode selects how a triggered instance plays
type Mode int

const (
	// OneShot plays from the first frame to the end
	OneShot Mode = iota
	// Looping repeats until stopped
	Looping
)

func (m Mode) String() string {
	if m == Looping {
		return "loop"
	}
	return "one-shot"
}

// Sound is a multi-instance sound effect. Every trigger decodes the source,
// acquires its own line and plays it independently; finished lines are
// closed and forgotten.
type Sound struct {
	path        string
	source      audio.Source
	factory     line.Factory
	logger      *slog.Logger
	negotiation *Negotiation
	registry    *Registry
	notifier    *notifier

	mutex      sync.Mutex
	pan        float64
	gain       float64
	gainMax    float64
	hasGainMax bool
}

// NewSound creates a sound for the given locator. Nothing is decoded until
// the first trigger.
func NewSound(path string, opts ...Option) *Sound {
	o := buildOptions(opts)
	s := &Sound{
		path:        path,
		source:      o.source,
		factory:     o.factory,
		logger:      o.logger,
		negotiation: NewNegotiation(path, o.logger),
		registry:    NewRegistry(),
		notifier:    newNotifier(path, o.listeners),
	}
	s.logger.Debug("sound created", "sound", path, "backend", s.factory.Name())
	return s
}

// Path returns the locator this sound plays
func (s *Sound) Path() string {
	return s.path
}

// Play triggers a one-shot instance
func (s *Sound) Play() error {
	return s.Trigger(OneShot)
}

// Loop triggers an instance that loops until Stop
func (s *Sound) Loop() error {
	return s.Trigger(Looping)
}

// Trigger starts a new instance. Failures affect only this call: live
// instances keep playing and the registry is left as it was.
func (s *Sound) Trigger(mode Mode) error {
	stream, err := s.source.Decode(s.path)
	if err != nil {
		s.logger.Error("failed to decode sound", "sound", s.path, "error", err)
		return err
	}

	l, err := s.factory.AcquireLine(stream.Format)
	if err != nil {
		s.logger.Error("failed to acquire line", "sound", s.path, "format", stream.Format, "error", err)
		return fmt.Errorf("acquire line for %s: %w", s.path, err)
	}

	l.AddListener(s.onLineEvent)
	if err := l.Open(stream); err != nil {
		l.Close()
		s.logger.Error("failed to open line", "sound", s.path, "error", err)
		return fmt.Errorf("open line for %s: %w", s.path, err)
	}

	pan, gain := s.Pan(), s.Gain()
	s.negotiation.Bind(l, line.Pan, pan)
	if ctl, ok := s.negotiation.Bind(l, line.Gain, gain); ok {
		s.mutex.Lock()
		s.gainMax = ctl.Maximum()
		s.hasGainMax = true
		s.mutex.Unlock()
	}

	s.registry.Register(l)

	if mode == Looping {
		err = l.Loop(line.LoopContinuously)
	} else {
		err = l.Start()
	}
	if err != nil {
		s.registry.Release(l)
		s.logger.Error("failed to start line", "sound", s.path, "mode", mode.String(), "error", err)
		return fmt.Errorf("start %s: %w", s.path, err)
	}

	s.logger.Debug("sound triggered",
		"sound", s.path,
		"mode", mode.String(),
		"frames", stream.Frames(),
		"instances", s.registry.Len())
	return nil
}

// onLineEvent forwards transitions and releases lines once they stop
func (s *Sound) onLineEvent(e line.Event) {
	s.notifier.forward(e)
	if e.Type == line.EventStop {
		s.registry.Release(e.Line)
	}
}

// Stop stops and closes every live instance
func (s *Sound) Stop() {
	s.registry.StopAll()
}

// Instances returns the number of live instances
func (s *Sound) Instances() int {
	return s.registry.Len()
}

// Lines returns the live instances' lines
func (s *Sound) Lines() []line.Line {
	return s.registry.Snapshot()
}

// SetPan sets the pan used by future triggers. Values outside [-1, 1] are
// ignored.
func (s *Sound) SetPan(pan float64) {
	if pan < line.MinPan || pan > line.MaxPan {
		s.logger.Debug("pan out of range, ignored", "sound", s.path, "pan", pan)
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pan = pan
}

// Pan returns the pan used by future triggers
func (s *Sound) Pan() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pan
}

// SetGain sets the gain in dB used by future triggers. Values above the
// maximum reported by the last bound gain control are ignored.
func (s *Sound) SetGain(gain float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.hasGainMax && gain > s.gainMax {
		s.logger.Debug("gain above maximum, ignored", "sound", s.path, "gain", gain, "max", s.gainMax)
		return
	}
	s.gain = gain
}

// IncreaseGain adds offset to the stored gain unless that would exceed the
// known maximum
func (s *Sound) IncreaseGain(offset float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.hasGainMax && s.gain+offset > s.gainMax {
		return
	}
	s.gain += offset
}

// Gain returns the gain in dB used by future triggers
func (s *Sound) Gain() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gain
}

// AddListener subscribes l to lifecycle events of every instance
func (s *Sound) AddListener(l Listener) {
	s.notifier.add(l)
}

// Subscribe returns a channel of lifecycle events. Events are dropped when
// the buffer is full.
func (s *Sound) Subscribe(buffer int) <-chan Event {
	return s.notifier.subscribe(buffer)
}

// Unsubscribe closes a channel returned by Subscribe
func (s *Sound) Unsubscribe(ch <-chan Event) {
	s.notifier.unsubscribe(ch)
}

// Close stops every instance and closes all subscriptions
func (s *Sound) Close() {
	s.Stop()
	s.notifier.closeSubscriptions()
}

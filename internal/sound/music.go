package sound

import (
	"fmt"
	"log/slog"
	"sync"

	"hsound.dev/internal/line"
)

// Music owns a single line for its whole life and can be paused, resumed,
// stopped and looped
type Music struct {
	path        string
	logger      *slog.Logger
	line        line.Line
	negotiation *Negotiation
	notifier    *notifier
	panControl  line.Control
	gainControl line.Control

	mutex    sync.Mutex
	pausedAt int
	pan      float64
	gain     float64
}

// NewMusic decodes path and opens the line it will play on. Any failure
// here leaves nothing behind and is returned.
func NewMusic(path string, opts ...Option) (*Music, error) {
	o := buildOptions(opts)

	stream, err := o.source.Decode(path)
	if err != nil {
		o.logger.Error("failed to decode music", "music", path, "error", err)
		return nil, err
	}

	l, err := o.factory.AcquireLine(stream.Format)
	if err != nil {
		o.logger.Error("failed to acquire line", "music", path, "format", stream.Format, "error", err)
		return nil, fmt.Errorf("acquire line for %s: %w", path, err)
	}

	m := &Music{
		path:        path,
		logger:      o.logger,
		line:        l,
		negotiation: NewNegotiation(path, o.logger),
		notifier:    newNotifier(path, o.listeners),
	}
	l.AddListener(m.notifier.forward)

	if err := l.Open(stream); err != nil {
		l.Close()
		o.logger.Error("failed to open line", "music", path, "error", err)
		return nil, fmt.Errorf("open line for %s: %w", path, err)
	}

	if ctl, ok := m.negotiation.Bind(l, line.Pan, 0); ok {
		m.panControl = ctl
	}
	if ctl, ok := m.negotiation.Bind(l, line.Gain, 0); ok {
		m.gainControl = ctl
	}

	o.logger.Debug("music ready",
		"music", path,
		"frames", stream.Frames(),
		"duration", stream.Duration(),
		"pan", m.panControl != nil,
		"gain", m.gainControl != nil)
	return m, nil
}

// Path returns the locator this music plays
func (m *Music) Path() string {
	return m.path
}

// Play starts from where the last Pause left off, or from the beginning
// after Stop
func (m *Music) Play() error {
	m.mutex.Lock()
	from := m.pausedAt
	m.mutex.Unlock()

	if m.line.IsRunning() {
		m.line.Stop()
	}
	m.line.SetFramePosition(from)
	if err := m.line.Start(); err != nil {
		m.logger.Error("failed to start music", "music", m.path, "error", err)
		return err
	}
	m.logger.Debug("music playing", "music", m.path, "frame", from)
	return nil
}

// Pause stops playback and remembers the position for the next Play
func (m *Music) Pause() {
	m.mutex.Lock()
	m.pausedAt = m.line.FramePosition()
	m.mutex.Unlock()
	m.line.Stop()
}

// Stop stops playback; the next Play starts from the beginning
func (m *Music) Stop() {
	m.mutex.Lock()
	m.pausedAt = 0
	m.mutex.Unlock()
	m.line.Stop()
}

// Loop plays from the beginning, repeating until Pause or Stop
func (m *Music) Loop() error {
	if m.line.IsRunning() {
		m.line.Stop()
	}
	m.line.SetFramePosition(0)
	if err := m.line.Loop(line.LoopContinuously); err != nil {
		m.logger.Error("failed to loop music", "music", m.path, "error", err)
		return err
	}
	return nil
}

// PausedAt returns the frame the next Play resumes from
func (m *Music) PausedAt() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.pausedAt
}

// IsPlaying reports whether the line is running
func (m *Music) IsPlaying() bool {
	return m.line.IsRunning()
}

// SetGain applies gain in dB immediately. Values above the control's
// maximum are ignored, as is every call when the line has no gain control.
func (m *Music) SetGain(gain float64) {
	if m.gainControl == nil {
		return
	}
	if gain > m.gainControl.Maximum() {
		m.logger.Debug("gain above maximum, ignored", "music", m.path, "gain", gain, "max", m.gainControl.Maximum())
		return
	}
	m.mutex.Lock()
	m.gain = gain
	m.mutex.Unlock()
	m.gainControl.SetValue(gain)
}

// IncreaseGain adds offset to the gain unless the result would exceed the
// control's maximum
func (m *Music) IncreaseGain(offset float64) {
	if m.gainControl == nil {
		return
	}
	m.mutex.Lock()
	if m.gain+offset <= m.gainControl.Maximum() {
		m.gain += offset
	}
	gain := m.gain
	m.mutex.Unlock()
	m.gainControl.SetValue(gain)
}

// Gain returns the last accepted gain in dB
func (m *Music) Gain() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.gain
}

// SetPan applies pan immediately. Values outside the control's range are
// ignored, as is every call when the line has no pan control.
func (m *Music) SetPan(pan float64) {
	if m.panControl == nil {
		return
	}
	if pan < m.panControl.Minimum() || pan > m.panControl.Maximum() {
		m.logger.Debug("pan out of range, ignored", "music", m.path, "pan", pan)
		return
	}
	m.mutex.Lock()
	m.pan = pan
	m.mutex.Unlock()
	m.panControl.SetValue(pan)
}

// Pan returns the last accepted pan
func (m *Music) Pan() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.pan
}

// Progress returns the played fraction in [0, 1]; an empty track reports 0
func (m *Music) Progress() float64 {
	length := m.line.FrameLength()
	if length == 0 {
		return 0
	}
	return float64(m.line.FramePosition()) / float64(length)
}

// CurrentPositionMicros returns the playback position in microseconds
func (m *Music) CurrentPositionMicros() int64 {
	return m.line.MicrosecondPosition()
}

// LengthMicros returns the track length in microseconds
func (m *Music) LengthMicros() int64 {
	return m.line.MicrosecondLength()
}

// AddListener subscribes l to lifecycle events
func (m *Music) AddListener(l Listener) {
	m.notifier.add(l)
}

// Subscribe returns a channel of lifecycle events. Events are dropped when
// the buffer is full.
func (m *Music) Subscribe(buffer int) <-chan Event {
	return m.notifier.subscribe(buffer)
}

// Unsubscribe closes a channel returned by Subscribe
func (m *Music) Unsubscribe(ch <-chan Event) {
	m.notifier.unsubscribe(ch)
}

// Close releases the line. The music cannot be played afterwards.
func (m *Music) Close() error {
	err := m.line.Close()
	m.notifier.closeSubscriptions()
	return err
}

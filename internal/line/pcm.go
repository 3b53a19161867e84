package line

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"hsound.dev/internal/audio"
)

// driver moves rendered PCM to an output device. The owning line serializes
// every call; render may be invoked from any goroutine once started.
type driver interface {
	open(format audio.Format, render func(out []byte)) error
	start() error
	pause() error
	close() error
}

// pcmLine is the software half shared by every backend: cursor, looping,
// controls and lifecycle events. Backends only supply a driver.
type pcmLine struct {
	format    audio.Format
	frameSize int
	drv       driver
	onRelease func()

	// ctl serializes lifecycle transitions and driver calls
	ctl          sync.Mutex
	driverActive bool

	// mu guards the state read by the render path
	mu          sync.Mutex
	stream      *audio.Stream
	frames      int
	cursor      int
	loops       int
	running     bool
	pendingStop bool
	opened      bool
	closed      bool
	gainDB      float64
	pan         float64
	listeners   []func(Event)
}

func newPCMLine(format audio.Format, drv driver, onRelease func()) *pcmLine {
	return &pcmLine{
		format:    format,
		frameSize: format.FrameSize(),
		drv:       drv,
		onRelease: onRelease,
	}
}

func (l *pcmLine) Format() audio.Format {
	return l.format
}

func (l *pcmLine) Open(stream *audio.Stream) error {
	if stream == nil {
		return errors.New("cannot open line on nil stream")
	}
	if stream.Format != l.format {
		return fmt.Errorf("stream format %+v does not match line format %+v", stream.Format, l.format)
	}

	l.ctl.Lock()
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.ctl.Unlock()
		return ErrLineClosed
	}
	if l.opened {
		l.mu.Unlock()
		l.ctl.Unlock()
		return errors.New("line already open")
	}
	l.mu.Unlock()

	if err := l.drv.open(l.format, l.render); err != nil {
		l.ctl.Unlock()
		slog.Error("failed to open output", "format", l.format, "error", err)
		return fmt.Errorf("%w: %v", ErrLineUnavailable, err)
	}

	l.mu.Lock()
	l.stream = stream
	l.frames = stream.Frames()
	l.cursor = 0
	l.opened = true
	l.mu.Unlock()
	l.ctl.Unlock()

	slog.Debug("line opened",
		"channels", l.format.Channels,
		"sample_rate", l.format.SampleRate,
		"encoding", l.format.Encoding.String(),
		"frames", stream.Frames())

	l.emit(EventOpen, 0)
	return nil
}

func (l *pcmLine) Start() error {
	return l.play(0)
}

func (l *pcmLine) Loop(count int) error {
	if count < LoopContinuously {
		return fmt.Errorf("invalid loop count %d", count)
	}
	return l.play(count)
}

func (l *pcmLine) play(loops int) error {
	l.ctl.Lock()
	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		l.ctl.Unlock()
		return ErrLineClosed
	case !l.opened:
		l.mu.Unlock()
		l.ctl.Unlock()
		return ErrLineNotOpen
	case l.running:
		l.loops = loops
		l.mu.Unlock()
		l.ctl.Unlock()
		return nil
	}

	// a natural end not yet delivered belongs to the previous run
	priorStop := l.pendingStop
	priorPos := l.cursor
	l.pendingStop = false
	l.running = true
	l.loops = loops
	if loops != 0 && l.cursor >= l.frames {
		l.cursor = 0
	}
	pos := l.cursor
	l.mu.Unlock()

	var err error
	if !l.driverActive {
		if err = l.drv.start(); err == nil {
			l.driverActive = true
		} else {
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
		}
	}
	l.ctl.Unlock()

	if priorStop {
		l.emit(EventStop, priorPos)
	}
	if err != nil {
		slog.Error("failed to start output", "error", err)
		return fmt.Errorf("failed to start line: %w", err)
	}

	l.emit(EventStart, pos)
	return nil
}

func (l *pcmLine) Stop() error {
	l.ctl.Lock()
	l.mu.Lock()
	if l.closed || !(l.running || l.pendingStop) {
		l.mu.Unlock()
		l.ctl.Unlock()
		return nil
	}
	l.running = false
	l.pendingStop = false
	pos := l.cursor
	l.mu.Unlock()

	l.pauseDriver()
	l.ctl.Unlock()

	l.emit(EventStop, pos)
	return nil
}

func (l *pcmLine) Close() error {
	l.ctl.Lock()
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.ctl.Unlock()
		return nil
	}
	stopped := l.running || l.pendingStop
	wasOpen := l.opened
	l.running = false
	l.pendingStop = false
	l.closed = true
	pos := l.cursor
	l.mu.Unlock()

	l.pauseDriver()
	err := l.drv.close()
	l.ctl.Unlock()

	if l.onRelease != nil {
		l.onRelease()
	}

	if stopped {
		l.emit(EventStop, pos)
	}
	if wasOpen {
		l.emit(EventClose, pos)
	}

	if err != nil {
		slog.Warn("output did not close cleanly", "error", err)
	}
	return nil
}

// pauseDriver must be called with ctl held
func (l *pcmLine) pauseDriver() {
	if !l.driverActive {
		return
	}
	if err := l.drv.pause(); err != nil {
		slog.Warn("failed to pause output", "error", err)
	}
	l.driverActive = false
}

// finishNaturally delivers a stop detected by render. It runs on its own
// goroutine so output callbacks never wait on lifecycle locks.
func (l *pcmLine) finishNaturally() {
	l.ctl.Lock()
	l.mu.Lock()
	owned := l.pendingStop
	l.pendingStop = false
	restarted := l.running
	pos := l.cursor
	l.mu.Unlock()

	if owned && !restarted {
		l.pauseDriver()
	}
	l.ctl.Unlock()

	if owned {
		slog.Debug("line reached end of stream", "frames", pos)
		l.emit(EventStop, pos)
	}
}

// render fills out with the next frames. Stopped lines produce silence.
func (l *pcmLine) render(out []byte) {
	l.mu.Lock()
	if !l.running || l.stream == nil || l.frameSize == 0 {
		l.mu.Unlock()
		clear(out)
		return
	}

	fs := l.frameSize
	room := len(out) - len(out)%fs
	n := 0
	ended := false
	for n < room {
		if l.cursor >= l.frames {
			if l.loops != 0 && l.frames > 0 {
				l.cursor = 0
				if l.loops > 0 {
					l.loops--
				}
				continue
			}
			ended = true
			break
		}
		chunk := min(room-n, (l.frames-l.cursor)*fs)
		copy(out[n:n+chunk], l.stream.Samples[l.cursor*fs:])
		n += chunk
		l.cursor += chunk / fs
	}
	if !ended && l.cursor >= l.frames && l.loops == 0 {
		ended = true
	}
	if ended {
		l.running = false
		l.pendingStop = true
	}
	gain, pan := l.gainDB, l.pan
	l.mu.Unlock()

	applyLevels(out[:n], l.format, gain, pan)
	clear(out[n:])

	if ended {
		go l.finishNaturally()
	}
}

func (l *pcmLine) FramePosition() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

func (l *pcmLine) SetFramePosition(frame int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cursor = max(0, min(frame, l.frames))
}

func (l *pcmLine) FrameLength() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *pcmLine) MicrosecondPosition() int64 {
	return l.framesToMicros(l.FramePosition())
}

func (l *pcmLine) MicrosecondLength() int64 {
	return l.framesToMicros(l.FrameLength())
}

func (l *pcmLine) framesToMicros(frames int) int64 {
	if l.format.SampleRate == 0 {
		return 0
	}
	return int64(frames) * 1_000_000 / int64(l.format.SampleRate)
}

func (l *pcmLine) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened && !l.closed
}

func (l *pcmLine) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *pcmLine) Control(kind ControlKind) (Control, error) {
	switch kind {
	case Pan:
		if l.format.Channels != 2 {
			return nil, fmt.Errorf("%w: %s on %d-channel line", ErrControlUnsupported, kind, l.format.Channels)
		}
		return &floatControl{
			kind: Pan,
			min:  MinPan,
			max:  MaxPan,
			get:  func() float64 { return l.levels().pan },
			set:  func(v float64) { l.setLevel(func() { l.pan = v }) },
		}, nil
	case Gain:
		if l.format.Encoding == audio.EncodingU8 {
			return nil, fmt.Errorf("%w: %s on %s line", ErrControlUnsupported, kind, l.format.Encoding)
		}
		return &floatControl{
			kind: Gain,
			min:  MinGainDB,
			max:  MaxGainDB,
			get:  func() float64 { return l.levels().gain },
			set:  func(v float64) { l.setLevel(func() { l.gainDB = v }) },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrControlUnsupported, kind)
	}
}

type levelSnapshot struct {
	gain, pan float64
}

func (l *pcmLine) levels() levelSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return levelSnapshot{gain: l.gainDB, pan: l.pan}
}

func (l *pcmLine) setLevel(apply func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	apply()
}

func (l *pcmLine) AddListener(fn func(Event)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// emit runs listeners without holding any line lock
func (l *pcmLine) emit(t EventType, pos int) {
	l.mu.Lock()
	listeners := make([]func(Event), len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	event := Event{Type: t, Line: l, Position: pos}
	for _, fn := range listeners {
		fn(event)
	}
}

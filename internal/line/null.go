package line

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hsound.dev/internal/audio"
)

// budget caps the number of lines a factory has handed out and not yet closed
type budget struct {
	mu   sync.Mutex
	max  int // 0 means unlimited
	used int
}

func (b *budget) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && b.used >= b.max {
		return false
	}
	b.used++
	return true
}

func (b *budget) give() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used > 0 {
		b.used--
	}
}

func (b *budget) inUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// nullDriver discards output
type nullDriver struct{}

func (nullDriver) open(audio.Format, func([]byte)) error { return nil }
func (nullDriver) start() error                          { return nil }
func (nullDriver) pause() error                          { return nil }
func (nullDriver) close() error                          { return nil }

// realtimeTick is how often a realtime null factory advances its lines
const realtimeTick = 10 * time.Millisecond

// NullFactory produces lines with no device behind them. In manual mode
// playback only progresses through Advance; in realtime mode a ticker
// advances every line at its sample rate.
type NullFactory struct {
	budget budget

	mu     sync.Mutex
	lines  map[*pcmLine]struct{}
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewManualFactory creates a null factory driven by Advance. maxLines <= 0
// means unlimited.
func NewManualFactory(maxLines int) *NullFactory {
	return &NullFactory{
		budget: budget{max: maxLines},
		lines:  make(map[*pcmLine]struct{}),
	}
}

// NewNullFactory creates a null factory that plays in real time
func NewNullFactory(maxLines int) *NullFactory {
	f := NewManualFactory(maxLines)
	f.done = make(chan struct{})
	f.wg.Add(1)
	go f.tick()
	slog.Debug("null audio backend started", "max_lines", maxLines)
	return f
}

func (f *NullFactory) tick() {
	defer f.wg.Done()
	ticker := time.NewTicker(realtimeTick)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			for _, l := range f.snapshot() {
				frames := int(l.format.SampleRate) * int(realtimeTick) / int(time.Second)
				l.render(make([]byte, frames*l.frameSize))
			}
		}
	}
}

// Name returns "null"
func (f *NullFactory) Name() string {
	return "null"
}

// AcquireLine returns a line for any well-formed format
func (f *NullFactory) AcquireLine(format audio.Format) (Line, error) {
	if format.FrameSize() == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: invalid format %+v", ErrLineUnavailable, format)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fmt.Errorf("%w: factory closed", ErrLineUnavailable)
	}
	if !f.budget.take() {
		return nil, fmt.Errorf("%w: all %d lines in use", ErrLineUnavailable, f.budget.max)
	}

	var l *pcmLine
	l = newPCMLine(format, nullDriver{}, func() {
		f.mu.Lock()
		delete(f.lines, l)
		f.mu.Unlock()
		f.budget.give()
	})
	f.lines[l] = struct{}{}
	return l, nil
}

// Advance renders the given number of frames on every running line
func (f *NullFactory) Advance(frames int) {
	if frames <= 0 {
		return
	}
	for _, l := range f.snapshot() {
		l.render(make([]byte, frames*l.frameSize))
	}
}

// InUse returns how many acquired lines are not yet closed
func (f *NullFactory) InUse() int {
	return f.budget.inUse()
}

func (f *NullFactory) snapshot() []*pcmLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]*pcmLine, 0, len(f.lines))
	for l := range f.lines {
		lines = append(lines, l)
	}
	return lines
}

// Close closes every outstanding line and stops the realtime ticker
func (f *NullFactory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	if f.done != nil {
		close(f.done)
		f.wg.Wait()
	}

	for _, l := range f.snapshot() {
		l.Close()
	}
	return nil
}

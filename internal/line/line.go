// Package line provides hardware playback lines: a line is bound to one
// decoded stream for its whole life and is released by closing it.
package line

import (
	"errors"
	"fmt"

	"hsound.dev/internal/audio"
)

var (
	// ErrControlUnsupported is returned when a line has no control of the requested kind
	ErrControlUnsupported = errors.New("control not supported")
	// ErrLineUnavailable is returned when a factory cannot serve a line
	ErrLineUnavailable = errors.New("line unavailable")
	// ErrLineClosed is returned by operations on a closed line
	ErrLineClosed = errors.New("line closed")
	// ErrLineNotOpen is returned when starting a line that has no stream
	ErrLineNotOpen = errors.New("line not open")
	// ErrBackendNotAvailable is returned for backends missing from this build
	ErrBackendNotAvailable = errors.New("audio backend not available")
)

// LoopContinuously makes Loop repeat until the line is stopped
const LoopContinuously = -1

// EventType identifies a line lifecycle transition
type EventType int

const (
	EventOpen EventType = iota + 1
	EventStart
	EventStop
	EventClose
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is delivered to line listeners. Listeners run on whichever goroutine
// observed the transition and must not block.
type Event struct {
	Type     EventType
	Line     Line
	Position int // frame position when the event fired
}

// Line is one playback resource bound to exactly one stream.
// Lifecycle: acquired, opened, started and stopped any number of times, closed.
// A closed line cannot be reopened.
type Line interface {
	// Format is the PCM format the line was acquired for
	Format() audio.Format
	// Open binds the stream and emits EventOpen
	Open(stream *audio.Stream) error
	// Start plays from the current frame position to the end
	Start() error
	// Loop plays from the current position and restarts from frame 0 count
	// more times, or forever with LoopContinuously
	Loop(count int) error
	// Stop halts playback keeping the frame position. Stopping a stopped or
	// closed line is a no-op.
	Stop() error
	// Close releases the line. Closing a running line emits EventStop first.
	// Closing twice is a no-op.
	Close() error

	FramePosition() int
	SetFramePosition(frame int)
	FrameLength() int
	MicrosecondPosition() int64
	MicrosecondLength() int64

	IsOpen() bool
	IsRunning() bool

	// Control returns the control of the given kind or ErrControlUnsupported
	Control(kind ControlKind) (Control, error)
	// AddListener registers fn for every later lifecycle event
	AddListener(fn func(Event))
}

// Factory acquires lines sized to a stream format
type Factory interface {
	// AcquireLine returns an unopened line or an error wrapping ErrLineUnavailable
	AcquireLine(format audio.Format) (Line, error)
	// Name identifies the backend
	Name() string
	// Close releases backend resources. Lines still open are closed.
	Close() error
}

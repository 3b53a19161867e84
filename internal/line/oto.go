//go:build cgo

package line

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"hsound.dev/internal/audio"
)

// oto allows a single context per process, fixed to one output format
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat audio.Format
	otoErr    error
)

// DefaultOtoFormat is used when no output format is configured
var DefaultOtoFormat = audio.Format{Channels: 2, SampleRate: 44100, Encoding: audio.EncodingS16}

// OtoFactory mixes every line into the process-wide oto context
type OtoFactory struct {
	budget budget
	format audio.Format

	mu     sync.Mutex
	lines  map[*pcmLine]struct{}
	closed bool
}

// NewOtoFactory starts the oto context on first use. Lines can only be
// acquired for the context's format.
func NewOtoFactory(format audio.Format, maxLines int) (Factory, error) {
	if format == (audio.Format{}) {
		format = DefaultOtoFormat
	}
	otoFmt, ok := otoSampleFormat(format.Encoding)
	if !ok {
		return nil, fmt.Errorf("oto cannot output %s samples", format.Encoding)
	}

	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(format.SampleRate),
			ChannelCount: int(format.Channels),
			Format:       otoFmt,
			BufferSize:   50 * time.Millisecond,
		})
		if otoErr == nil {
			<-ready
			otoFormat = format
			slog.Info("oto context initialized",
				"channels", format.Channels,
				"sample_rate", format.SampleRate,
				"encoding", format.Encoding.String())
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("%w: oto: %v", ErrBackendNotAvailable, otoErr)
	}
	if format != otoFormat {
		return nil, fmt.Errorf("oto context already running with %+v", otoFormat)
	}

	return &OtoFactory{
		budget: budget{max: maxLines},
		format: format,
		lines:  make(map[*pcmLine]struct{}),
	}, nil
}

func otoSampleFormat(enc audio.Encoding) (oto.Format, bool) {
	switch enc {
	case audio.EncodingU8:
		return oto.FormatUnsignedInt8, true
	case audio.EncodingS16:
		return oto.FormatSignedInt16LE, true
	case audio.EncodingF32:
		return oto.FormatFloat32LE, true
	default:
		return 0, false
	}
}

// Name returns "oto"
func (f *OtoFactory) Name() string {
	return "oto"
}

// AcquireLine serves only the context format; there is no resampling
func (f *OtoFactory) AcquireLine(format audio.Format) (Line, error) {
	if format != f.format {
		return nil, fmt.Errorf("%w: oto output is %+v, stream is %+v", ErrLineUnavailable, f.format, format)
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
	l = newPCMLine(format, &otoDriver{}, func() {
		f.mu.Lock()
		delete(f.lines, l)
		f.mu.Unlock()
		f.budget.give()
	})
	f.lines[l] = struct{}{}
	return l, nil
}

// Close closes outstanding lines. The oto context lives until process exit.
func (f *OtoFactory) Close() error {
	f.mu.Lock()
	f.closed = true
	lines := make([]*pcmLine, 0, len(f.lines))
	for l := range f.lines {
		lines = append(lines, l)
	}
	f.mu.Unlock()

	for _, l := range lines {
		l.Close()
	}
	return nil
}

// renderReader adapts a render function to the io.Reader oto pulls from
type renderReader struct {
	render    func([]byte)
	frameSize int
}

func (r *renderReader) Read(p []byte) (int, error) {
	n := len(p) - len(p)%r.frameSize
	if n == 0 {
		return 0, nil
	}
	r.render(p[:n])
	return n, nil
}

// otoDriver owns one oto player
type otoDriver struct {
	player *oto.Player
}

func (d *otoDriver) open(format audio.Format, render func([]byte)) error {
	d.player = otoCtx.NewPlayer(&renderReader{render: render, frameSize: format.FrameSize()})
	return nil
}

func (d *otoDriver) start() error {
	if d.player == nil {
		return ErrLineNotOpen
	}
	d.player.Play()
	return nil
}

func (d *otoDriver) pause() error {
	if d.player != nil {
		d.player.Pause()
	}
	return nil
}

func (d *otoDriver) close() error {
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}

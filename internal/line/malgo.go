//go:build cgo

package line

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"hsound.dev/internal/audio"
)

// MalgoFactory opens one malgo playback device per line
type MalgoFactory struct {
	budget budget
	ctx    *deviceContext

	mu    sync.Mutex
	lines map[*pcmLine]struct{}
}

// NewMalgoFactory initializes a malgo context. maxLines <= 0 means unlimited.
func NewMalgoFactory(maxLines int) (Factory, error) {
	ctx, err := newDeviceContext()
	if err != nil {
		return nil, fmt.Errorf("%w: malgo: %v", ErrBackendNotAvailable, err)
	}
	return &MalgoFactory{
		budget: budget{max: maxLines},
		ctx:    ctx,
		lines:  make(map[*pcmLine]struct{}),
	}, nil
}

// Name returns "malgo"
func (f *MalgoFactory) Name() string {
	return "malgo"
}

// AcquireLine reserves a line; the device itself is created on Open
func (f *MalgoFactory) AcquireLine(format audio.Format) (Line, error) {
	if _, ok := malgoFormat(format.Encoding); !ok || format.Channels == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: malgo cannot play %+v", ErrLineUnavailable, format)
	}
	if !f.ctx.valid() {
		return nil, fmt.Errorf("%w: factory closed", ErrLineUnavailable)
	}
	if !f.budget.take() {
		return nil, fmt.Errorf("%w: all %d lines in use", ErrLineUnavailable, f.budget.max)
	}

	var l *pcmLine
	l = newPCMLine(format, &malgoDriver{ctx: f.ctx}, func() {
		f.mu.Lock()
		delete(f.lines, l)
		f.mu.Unlock()
		f.budget.give()
	})

	f.mu.Lock()
	f.lines[l] = struct{}{}
	f.mu.Unlock()
	return l, nil
}

// Close closes outstanding lines and then the malgo context
func (f *MalgoFactory) Close() error {
	f.mu.Lock()
	lines := make([]*pcmLine, 0, len(f.lines))
	for l := range f.lines {
		lines = append(lines, l)
	}
	f.mu.Unlock()

	for _, l := range lines {
		l.Close()
	}
	return f.ctx.close()
}

func malgoFormat(enc audio.Encoding) (malgo.FormatType, bool) {
	switch enc {
	case audio.EncodingU8:
		return malgo.FormatU8, true
	case audio.EncodingS16:
		return malgo.FormatS16, true
	case audio.EncodingS24:
		return malgo.FormatS24, true
	case audio.EncodingS32:
		return malgo.FormatS32, true
	case audio.EncodingF32:
		return malgo.FormatF32, true
	default:
		return malgo.FormatUnknown, false
	}
}

// malgoDriver feeds one device from the line's render function
type malgoDriver struct {
	ctx    *deviceContext
	device *malgo.Device
}

func (d *malgoDriver) open(format audio.Format, render func([]byte)) error {
	malgoFmt, _ := malgoFormat(format.Encoding)

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgoFmt
	config.Playback.Channels = format.Channels
	config.SampleRate = format.SampleRate
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, _ uint32) {
			render(output)
		},
	}

	device, err := d.ctx.initDevice(config, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	d.device = device

	slog.Debug("malgo device initialized",
		"channels", format.Channels,
		"sample_rate", format.SampleRate,
		"encoding", format.Encoding.String())
	return nil
}

func (d *malgoDriver) start() error {
	if d.device == nil {
		return ErrLineNotOpen
	}
	return d.device.Start()
}

func (d *malgoDriver) pause() error {
	if d.device == nil {
		return nil
	}
	return d.device.Stop()
}

func (d *malgoDriver) close() error {
	if d.device == nil {
		return nil
	}
	d.ctx.releaseDevice(d.device)
	d.device = nil
	return nil
}

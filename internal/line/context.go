//go:build cgo

package line

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// deviceContext owns the malgo context shared by every device of a factory
type deviceContext struct {
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	devices int
}

func newDeviceContext() (*deviceContext, error) {
	slog.Debug("initializing malgo context")

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		slog.Error("failed to initialize malgo context", "error", err)
		return nil, err
	}

	slog.Info("malgo context initialized")
	return &deviceContext{ctx: ctx}, nil
}

// initDevice creates a playback device bound to this context
func (c *deviceContext) initDevice(config malgo.DeviceConfig, callbacks malgo.DeviceCallbacks) (*malgo.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return nil, ErrLineClosed
	}

	device, err := malgo.InitDevice(c.ctx.Context, config, callbacks)
	if err != nil {
		return nil, err
	}
	c.devices++
	return device, nil
}

// releaseDevice uninitializes a device created by initDevice
func (c *deviceContext) releaseDevice(device *malgo.Device) {
	device.Uninit()

	c.mu.Lock()
	c.devices--
	c.mu.Unlock()
}

func (c *deviceContext) valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx != nil
}

// close tears down the context. malgo requires both Uninit and Free.
func (c *deviceContext) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return nil
	}
	if c.devices > 0 {
		slog.Warn("closing malgo context with live devices", "devices", c.devices)
	}

	if err := c.ctx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
		return err
	}
	c.ctx.Free()
	c.ctx = nil

	slog.Info("malgo context closed")
	return nil
}

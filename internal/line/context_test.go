//go:build cgo

package line

import (
	"testing"
)

func TestDeviceContextLifecycle(t *testing.T) {
	ctx, err := newDeviceContext()
	if err != nil {
		// No audio subsystem in this environment
		t.Skipf("malgo context unavailable: %v", err)
	}

	if !ctx.valid() {
		t.Error("context should be valid after creation")
	}

	if err := ctx.close(); err != nil {
		t.Errorf("failed to close context: %v", err)
	}

	if ctx.valid() {
		t.Error("context should be invalid after close")
	}

	if err := ctx.close(); err != nil {
		t.Errorf("double close should not error: %v", err)
	}
}

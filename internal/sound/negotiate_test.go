package sound

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsound.dev/internal/audio"
	"hsound.dev/internal/line"
)

func openTestLine(t *testing.T, f *line.NullFactory, format audio.Format) line.Line {
	t.Helper()
	l, err := f.AcquireLine(format)
	require.NoError(t, err)
	require.NoError(t, l.Open(testStream(format, 10)))
	return l
}

func TestBindClampsInitialValue(t *testing.T) {
	factory := line.NewManualFactory(0)
	defer factory.Close()
	l := openTestLine(t, factory, stereo)
	n := NewNegotiation("fx", nil)

	tests := []struct {
		kind    line.ControlKind
		initial float64
		want    float64
	}{
		{line.Gain, 0, 0},
		{line.Gain, 50, line.MaxGainDB},
		{line.Gain, -200, line.MinGainDB},
		{line.Pan, 0.3, 0.3},
		{line.Pan, -4, -1},
	}
	for _, tt := range tests {
		ctl, ok := n.Bind(l, tt.kind, tt.initial)
		require.True(t, ok, "%s should be supported", tt.kind)
		assert.Equal(t, tt.kind, ctl.Kind())
		assert.Equal(t, tt.want, ctl.Value(), "%s initial %v", tt.kind, tt.initial)
	}
	assert.False(t, n.Warned(line.Pan))
	assert.False(t, n.Warned(line.Gain))
}

func TestBindUnsupportedWarnsOncePerKind(t *testing.T) {
	factory := line.NewManualFactory(0)
	defer factory.Close()
	logger, logs := newTestLogger()
	n := NewNegotiation("beep", logger)

	u8 := audio.Format{Channels: 1, SampleRate: 1000, Encoding: audio.EncodingU8}
	for i := 0; i < 3; i++ {
		l := openTestLine(t, factory, u8)
		ctl, ok := n.Bind(l, line.Pan, 0)
		assert.False(t, ok)
		assert.Nil(t, ctl)
		_, ok = n.Bind(l, line.Gain, 0)
		assert.False(t, ok)
	}

	assert.True(t, n.Warned(line.Pan))
	assert.True(t, n.Warned(line.Gain))
	assert.Equal(t, 1, logs.count("level=WARN", "sound=beep", "control=pan"))
	assert.Equal(t, 1, logs.count("level=WARN", "sound=beep", "control=gain"))
}

func TestBindWarningsAreConcurrencySafe(t *testing.T) {
	factory := line.NewManualFactory(0)
	defer factory.Close()
	logger, logs := newTestLogger()
	n := NewNegotiation("race", logger)
	l := openTestLine(t, factory, mono)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Bind(l, line.Pan, 0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, logs.count("level=WARN", "control=pan"))
}

func TestWarnedUnknownKind(t *testing.T) {
	n := NewNegotiation("x", nil)
	assert.False(t, n.Warned(line.ControlKind(99)))
}

package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsound.dev/internal/line"
)

func TestLibraryAnnouncesItself(t *testing.T) {
	logger, logs := newTestLogger()
	lib := NewLibrary(WithLogger(logger), WithFactory(line.NewManualFactory(0)), WithSource(newFakeSource()))
	defer lib.Close()

	assert.Equal(t, 1, logs.count("level=INFO", "id=h_sound", "version=1.0", "backend=null"))
}

func TestLibrarySharesFactoryAndSounds(t *testing.T) {
	factory := line.NewManualFactory(0)
	events := &eventLog{}
	src := newFakeSource().
		add("click", testStream(stereo, 100)).
		add("theme", testStream(stereo, 100))
	lib := NewLibrary(WithFactory(factory), WithSource(src), WithListener(events))

	a, err := lib.Sound("click")
	require.NoError(t, err)
	b, err := lib.Sound("click")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, factory, lib.Factory())

	require.NoError(t, a.Loop())
	m, err := lib.Music("theme")
	require.NoError(t, err)
	require.NoError(t, m.Play())
	assert.Equal(t, 2, factory.InUse())

	lib.StopAll()
	assert.Equal(t, 0, a.Instances())
	assert.False(t, m.IsPlaying())
	assert.Equal(t, 1, factory.InUse(), "music keeps its line until closed")

	require.NoError(t, lib.Close())
	assert.Equal(t, 0, factory.InUse())
	assert.Contains(t, events.snapshot(), "close:theme")

	_, err = lib.Sound("click")
	assert.ErrorIs(t, err, ErrLibraryClosed)
	_, err = lib.Music("theme")
	assert.ErrorIs(t, err, ErrLibraryClosed)
	assert.NoError(t, lib.Close())
}

func TestLibraryMusicFailureIsReturned(t *testing.T) {
	lib := NewLibrary(WithFactory(line.NewManualFactory(0)), WithSource(newFakeSource()))
	defer lib.Close()

	m, err := lib.Music("nope")
	assert.Error(t, err)
	assert.Nil(t, m)
}

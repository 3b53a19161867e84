package fs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFactory(t *testing.T) {
	factory := NewDefaultFactory()

	_, ok := factory.Production().(*afero.OsFs)
	assert.True(t, ok, "production filesystem should be *afero.OsFs")

	_, ok = factory.Memory().(*afero.MemMapFs)
	assert.True(t, ok, "memory filesystem should be *afero.MemMapFs")
}

func TestMemoryFilesystemIsolation(t *testing.T) {
	factory := NewDefaultFactory()
	memFS1 := factory.Memory()
	memFS2 := factory.Memory()

	require.NoError(t, afero.WriteFile(memFS1, "/test1.wav", []byte("one"), 0644))
	require.NoError(t, afero.WriteFile(memFS2, "/test2.wav", []byte("two"), 0644))

	exists, _ := afero.Exists(memFS1, "/test2.wav")
	assert.False(t, exists)
	exists, _ = afero.Exists(memFS2, "/test1.wav")
	assert.False(t, exists)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	factory := NewDefaultFactory()
	mem := factory.Memory()
	require.NoError(t, afero.WriteFile(mem, "/sfx/click.wav", []byte("data"), 0644))

	ro := factory.ReadOnly(mem)
	data, err := afero.ReadFile(ro, "/sfx/click.wav")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	assert.Error(t, afero.WriteFile(ro, "/sfx/new.wav", []byte("x"), 0644))
}

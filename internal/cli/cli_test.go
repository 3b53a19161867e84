package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"

	"hsound.dev/internal/config"
	"hsound.dev/internal/line"
)

const (
	soundRoot  = "/sounds"
	testRate   = 8000
	shortSound = 400 // 50ms
	longSound  = 80000
)

// encodeWAV builds a 16-bit stereo WAV with frames frames
func encodeWAV(t *testing.T, frames int) []byte {
	t.Helper()
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = i % 1000
		samples[i].Values[1] = -(i % 1000)
	}
	var buf bytes.Buffer
	writer := wav.NewWriter(&buf, uint32(frames), 2, testRate, 16)
	require.NoError(t, writer.WriteSamples(samples))
	return buf.Bytes()
}

type testEnv struct {
	t       *testing.T
	fs      afero.Fs
	factory *line.NullFactory
}

// newTestEnv prepares an in-memory filesystem with a resource root and
// turns the journal off. Each run gets a fresh CLI.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	t.Setenv("HSOUND_RESOURCE_ROOTS", soundRoot)
	t.Setenv("HSOUND_JOURNAL", "false")
	t.Setenv("HSOUND_BACKEND", "")
	t.Setenv("HSOUND_LOG_LEVEL", "")

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(soundRoot, 0o755))
	return &testEnv{t: t, fs: fs}
}

func (e *testEnv) addSound(name string, frames int) {
	e.t.Helper()
	require.NoError(e.t, afero.WriteFile(e.fs, filepath.Join(soundRoot, name), encodeWAV(e.t, frames), 0o644))
}

func (e *testEnv) writeFile(path, content string) {
	e.t.Helper()
	require.NoError(e.t, afero.WriteFile(e.fs, path, []byte(content), 0o644))
}

func (e *testEnv) cli() *CLI {
	c := newCLI(e.fs)
	c.terminalDetector = fakeTerminal{}
	c.newFactory = func(cfg *config.Config) (line.Factory, error) {
		e.factory = line.NewNullFactory(cfg.MaxLines)
		return e.factory, nil
	}
	return c
}

func (e *testEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := e.cli().Run(append([]string{"hsound"}, args...), strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRootCommand(t *testing.T) {
	c := NewCLI()
	require.NotNil(t, c.rootCmd)
	assert.Equal(t, "hsound", c.rootCmd.Use)

	var names []string
	for _, cmd := range c.rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"play", "music", "formats", "history"})
}

func TestVersionFlag(t *testing.T) {
	env := newTestEnv(t)
	code, stdout, _ := env.run("--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "hsound version 1.0")
	assert.Contains(t, stdout, "h_sound")
}

func TestUnknownCommandAndFlag(t *testing.T) {
	env := newTestEnv(t)

	code, _, stderr := env.run("rewind")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")

	code, _, _ = env.run("formats", "--volume", "2")
	assert.Equal(t, 1, code)
}

func TestInvalidBackendIsRejected(t *testing.T) {
	env := newTestEnv(t)
	code, _, stderr := env.run("--backend", "alsa", "formats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid backend 'alsa'")
}

func TestMissingConfigFileFails(t *testing.T) {
	env := newTestEnv(t)
	code, _, stderr := env.run("--config", "/etc/hsound/missing.json", "formats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error loading config")
}

func TestFormatsCommand(t *testing.T) {
	env := newTestEnv(t)
	code, stdout, _ := env.run("--backend", "null", "formats")
	require.Equal(t, 0, code)

	for _, name := range []string{"WAV", "MP3", "AIFF", "FLAC", "OGG"} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "null (configured)")
	assert.Contains(t, stdout, "malgo")
}

func TestLogLevelFlagControlsStderr(t *testing.T) {
	env := newTestEnv(t)

	code, _, stderr := env.run("--log-level", "debug", "formats")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "logging setup completed")

	code, _, stderr = env.run("--log-level", "error", "formats")
	require.Equal(t, 0, code)
	assert.NotContains(t, stderr, "logging setup completed")
}

func TestFileLoggingWritesDebugRecords(t *testing.T) {
	env := newTestEnv(t)
	logPath := filepath.Join(t.TempDir(), "logs", "hsound.log")
	env.writeFile("/etc/hsound.json", `{
		"log_level": "error",
		"file_logging": {"enabled": true, "filename": "`+filepath.ToSlash(logPath)+`", "max_size_mb": 1}
	}`)

	code, _, stderr := env.run("--config", "/etc/hsound.json", "formats")
	require.Equal(t, 0, code)
	assert.NotContains(t, stderr, "logging setup completed")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logging setup completed")
}

func TestPlayOneShotWaitsForEveryInstance(t *testing.T) {
	env := newTestEnv(t)
	env.addSound("click.wav", shortSound)

	code, stdout, stderr := env.run("play", "click", "--count", "3")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "one-shot x3")
	assert.Equal(t, 0, env.factory.InUse())
}

func TestPlaySeveralLocators(t *testing.T) {
	env := newTestEnv(t)
	env.addSound("click.wav", shortSound)
	env.addSound("laser.wav", shortSound)

	code, stdout, stderr := env.run("play", "click.wav", "laser", "--pan", "-0.5", "--gain", "-6")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "click.wav")
	assert.Contains(t, stdout, "laser")
}

func TestPlayLoopStopsAfterDuration(t *testing.T) {
	env := newTestEnv(t)
	env.addSound("engine.wav", shortSound)

	code, stdout, stderr := env.run("play", "engine", "--loop", "--duration", "120ms")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "loop x1")
	assert.Equal(t, 0, env.factory.InUse())
}

func TestPlayMissingSoundFails(t *testing.T) {
	env := newTestEnv(t)
	env.addSound("click.wav", shortSound)

	code, stdout, stderr := env.run("play", "nope", "click")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "nope")
	assert.Contains(t, stdout, "click", "sounds that decode still play")
}

func TestPlayRejectsBadCount(t *testing.T) {
	env := newTestEnv(t)
	env.addSound("click.wav", shortSound)

	code, _, stderr := env.run("play", "click", "--count", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--count must be at least 1")
}

func TestPlayLineBudget(t *testing.T) {
	env := newTestEnv(t)
	env.addSound("click.wav", shortSound)
	t.Setenv("HSOUND_MAX_LINES", "2")

	code, stdout, stderr := env.run("play", "click", "--count", "5")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "one-shot x2")
	assert.Contains(t, stderr, "acquire line")
}

func TestPlayResolvesManifestLocators(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "/packs/retro/beep.wav", encodeWAV(t, shortSound), 0o644))
	env.writeFile("/packs/retro/pack.json", `{"name": "retro", "sounds": {"ui/confirm": "beep.wav"}}`)
	env.writeFile("/etc/hsound.json", `{"manifests": ["/packs/retro/pack.json", "/packs/missing.json"]}`)

	code, _, stderr := env.run("--config", "/etc/hsound.json", "play", "ui/confirm")
	require.Equal(t, 0, code, stderr)
}

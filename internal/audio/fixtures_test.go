package audio

import (
	"bytes"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

// encodeWAV builds a 16-bit PCM WAV file with a ramp in every channel
func encodeWAV(t *testing.T, channels int, sampleRate uint32, frames int) []byte {
	return encodePCMWAV(t, channels, 16, sampleRate, frames, func(frame, ch int) int {
		return (frame + 1) * (ch + 1)
	})
}

// encodePCMWAV builds a WAV file of any integer bit depth. value supplies
// each sample.
func encodePCMWAV(t *testing.T, channels, bits int, sampleRate uint32, frames int, value func(frame, ch int) int) []byte {
	t.Helper()

	samples := make([]wav.Sample, frames)
	for i := range samples {
		for ch := 0; ch < channels; ch++ {
			samples[i].Values[ch] = value(i, ch)
		}
	}

	var buf bytes.Buffer
	writer := wav.NewWriter(&buf, uint32(frames), uint16(channels), sampleRate, uint16(bits))
	require.NoError(t, writer.WriteSamples(samples))
	return buf.Bytes()
}

// encodeAIFF builds an AIFF file from interleaved samples. The encoder
// patches its header on Close, so it writes to a seekable in-memory file.
func encodeAIFF(t *testing.T, channels, bits, sampleRate int, data []int) []byte {
	t.Helper()

	memFs := afero.NewMemMapFs()
	file, err := memFs.Create("/fixture.aiff")
	require.NoError(t, err)

	enc := aiff.NewEncoder(file, sampleRate, bits, channels)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bits,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, file.Close())

	raw, err := afero.ReadFile(memFs, "/fixture.aiff")
	require.NoError(t, err)
	return raw
}

// repeatFrame interleaves the same frame n times
func repeatFrame(frame []int, n int) []int {
	out := make([]int, 0, len(frame)*n)
	for i := 0; i < n; i++ {
		out = append(out, frame...)
	}
	return out
}

package audio

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavDecoderEncodings(t *testing.T) {
	testCases := []struct {
		bits        int
		encoding    Encoding
		left, right int
		frame       []byte
	}{
		{8, EncodingU8, 0x90, 0x70, []byte{0x90, 0x70}},
		{16, EncodingS16, -2, 0x1234, []byte{0xFE, 0xFF, 0x34, 0x12}},
		{24, EncodingS24, -2, 0x123456, []byte{0xFE, 0xFF, 0xFF, 0x56, 0x34, 0x12}},
		{32, EncodingS32, 0x12345678, -1, []byte{0x78, 0x56, 0x34, 0x12, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d-bit", tc.bits), func(t *testing.T) {
			data := encodePCMWAV(t, 2, tc.bits, 22050, 441, func(_, ch int) int {
				if ch == 0 {
					return tc.left
				}
				return tc.right
			})

			stream, err := NewWavDecoder().Decode(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, Format{Channels: 2, SampleRate: 22050, Encoding: tc.encoding}, stream.Format)
			assert.Equal(t, 441, stream.Frames())
			assert.Equal(t, 20*time.Millisecond, stream.Duration())

			size := stream.Format.FrameSize()
			require.Len(t, stream.Samples, 441*size)
			assert.Equal(t, tc.frame, stream.Samples[:size], "first frame")
			assert.Equal(t, tc.frame, stream.Samples[len(stream.Samples)-size:], "last frame")
		})
	}
}

func TestWavDecoderKeepsChannelOrder(t *testing.T) {
	data := encodePCMWAV(t, 2, 16, 8000, 3, func(frame, ch int) int {
		return (frame+1)*10 + ch
	})

	stream, err := NewWavDecoder().Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// L0 R0 L1 R1 L2 R2 as little-endian s16
	assert.Equal(t, []byte{10, 0, 11, 0, 20, 0, 21, 0, 30, 0, 31, 0}, stream.Samples)
}

func TestWavDecoderMono(t *testing.T) {
	stream, err := NewWavDecoder().Decode(bytes.NewReader(encodeWAV(t, 1, 44100, 1000)))
	require.NoError(t, err)

	assert.Equal(t, uint32(1), stream.Format.Channels)
	assert.Equal(t, 2, stream.Format.FrameSize())
	assert.Equal(t, 1000, stream.Frames())
}

func TestWavDecoderInvalidData(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("RIFF....WAVEjunk"),
	} {
		stream, err := NewWavDecoder().Decode(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidData)
		assert.Nil(t, stream)
	}
}

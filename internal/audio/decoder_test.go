package audio

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeDecoder accepts one extension and returns a fixed stream or error
type fakeDecoder struct {
	name string
	ext  string
	err  error
}

func (f *fakeDecoder) Decode(reader io.Reader) (*Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	// one mono u8 frame per input byte
	return &Stream{Format: Format{Channels: 1, SampleRate: 8000, Encoding: EncodingU8}, Samples: data}, nil
}

func (f *fakeDecoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), f.ext)
}

func (f *fakeDecoder) FormatName() string {
	return f.name
}

func TestEncodingBytesPerSample(t *testing.T) {
	testCases := []struct {
		encoding Encoding
		bytes    int
		name     string
	}{
		{EncodingU8, 1, "u8"},
		{EncodingS16, 2, "s16"},
		{EncodingS24, 3, "s24"},
		{EncodingS32, 4, "s32"},
		{EncodingF32, 4, "f32"},
		{Encoding(0), 0, "encoding(0)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.bytes, tc.encoding.BytesPerSample())
			assert.Equal(t, tc.name, tc.encoding.String())
		})
	}
}

func TestStreamFramesAndDuration(t *testing.T) {
	stream := &Stream{
		Format:  Format{Channels: 2, SampleRate: 1000, Encoding: EncodingS16},
		Samples: make([]byte, 4*500),
	}

	assert.Equal(t, 4, stream.Format.FrameSize())
	assert.Equal(t, 500, stream.Frames())
	assert.Equal(t, 500*time.Millisecond, stream.Duration())

	empty := &Stream{}
	assert.Equal(t, 0, empty.Frames())
	assert.Equal(t, time.Duration(0), empty.Duration())
}

func TestDecoderExtensions(t *testing.T) {
	testCases := []struct {
		decoder Decoder
		accepts []string
		rejects []string
	}{
		{NewWavDecoder(), []string{"a.wav", "B.WAVE"}, []string{"a.wav.bak", "wav", ""}},
		{NewMp3Decoder(), []string{"a.mp3", "b.MPEG"}, []string{"a.mp4", "mp3"}},
		{NewAiffDecoder(), []string{"a.aif", "b.AIFF"}, []string{"a.aifc"}},
		{NewFlacDecoder(), []string{"a.flac", "B.FLAC"}, []string{"a.fla"}},
		{NewVorbisDecoder(), []string{"a.ogg", "b.oga"}, []string{"a.opus"}},
	}

	for _, tc := range testCases {
		t.Run(tc.decoder.FormatName(), func(t *testing.T) {
			for _, name := range tc.accepts {
				assert.True(t, tc.decoder.CanDecode(name), name)
			}
			for _, name := range tc.rejects {
				assert.False(t, tc.decoder.CanDecode(name), name)
			}
		})
	}
}

func TestDecodersRejectGarbage(t *testing.T) {
	inputs := map[string][]byte{
		"empty": {},
		"text":  []byte("definitely not audio"),
	}

	for _, decoder := range NewDefaultRegistry().decoders {
		for label, data := range inputs {
			t.Run(decoder.FormatName()+"/"+label, func(t *testing.T) {
				stream, err := decoder.Decode(bytes.NewReader(data))
				assert.ErrorIs(t, err, ErrInvalidData)
				assert.Nil(t, stream)
			})
		}
	}
}

func TestAppendSample(t *testing.T) {
	assert.Equal(t, []byte{0x80}, appendSample(nil, 0x80, EncodingU8))
	assert.Equal(t, []byte{0x34, 0x12}, appendSample(nil, 0x1234, EncodingS16))
	assert.Equal(t, []byte{0xFF, 0xFF}, appendSample(nil, -1, EncodingS16))
	assert.Equal(t, []byte{0x56, 0x34, 0x12}, appendSample(nil, 0x123456, EncodingS24))
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, appendSample(nil, 0x12345678, EncodingS32))
	assert.Empty(t, appendSample(nil, 1, EncodingF32))
}

func TestFloatToS16(t *testing.T) {
	assert.Equal(t, int16(0), floatToS16(0))
	assert.Equal(t, int16(32767), floatToS16(1))
	assert.Equal(t, int16(-32767), floatToS16(-1))
	assert.Equal(t, int16(32767), floatToS16(3.5), "values above full scale clip")
	assert.Equal(t, int16(-32767), floatToS16(-2), "values below full scale clip")
}

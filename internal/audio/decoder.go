package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Encoding identifies how a single sample is laid out in a Stream
type Encoding int

const (
	EncodingU8 Encoding = iota + 1
	EncodingS16
	EncodingS24
	EncodingS32
	EncodingF32
)

// BytesPerSample returns the width of one sample of this encoding
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingU8:
		return 1
	case EncodingS16:
		return 2
	case EncodingS24:
		return 3
	case EncodingS32, EncodingF32:
		return 4
	default:
		return 0
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingU8:
		return "u8"
	case EncodingS16:
		return "s16"
	case EncodingS24:
		return "s24"
	case EncodingS32:
		return "s32"
	case EncodingF32:
		return "f32"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// encodingForBits maps an integer PCM bit depth to an Encoding
func encodingForBits(bits int) (Encoding, bool) {
	switch bits {
	case 8:
		return EncodingU8, true
	case 16:
		return EncodingS16, true
	case 24:
		return EncodingS24, true
	case 32:
		return EncodingS32, true
	default:
		return 0, false
	}
}

// Format describes interleaved little-endian PCM
type Format struct {
	Channels   uint32
	SampleRate uint32
	Encoding   Encoding
}

// FrameSize is the number of bytes holding one sample for every channel
func (f Format) FrameSize() int {
	return int(f.Channels) * f.Encoding.BytesPerSample()
}

// Stream is decoded audio ready for playback. A Stream is bound to at most
// one playback line; callers decode again for every new line.
type Stream struct {
	Format  Format
	Samples []byte // Raw interleaved PCM data
}

// Frames returns the total frame count of the stream
func (s *Stream) Frames() int {
	size := s.Format.FrameSize()
	if size == 0 {
		return 0
	}
	return len(s.Samples) / size
}

// Duration returns the playing time of the whole stream
func (s *Stream) Duration() time.Duration {
	if s.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.Format.SampleRate)
}

// Decoder interface for audio format decoding
type Decoder interface {
	// Decode reads audio data from reader and returns decoded PCM data
	Decode(reader io.Reader) (*Stream, error)

	// CanDecode checks if this decoder can handle the given filename
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles
	FormatName() string
}

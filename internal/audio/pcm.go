package audio

import (
	"log/slog"
	"math"
	"strings"

	goaudio "github.com/go-audio/audio"
)

// appendSample appends one integer sample in the given encoding (little endian)
func appendSample(buf []byte, val int, enc Encoding) []byte {
	switch enc {
	case EncodingU8:
		return append(buf, byte(val))
	case EncodingS16:
		return append(buf, byte(val), byte(val>>8))
	case EncodingS24:
		return append(buf, byte(val), byte(val>>8), byte(val>>16))
	case EncodingS32:
		return append(buf, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
	default:
		return buf
	}
}

// packIntBuffer flattens an interleaved go-audio buffer into raw PCM
func packIntBuffer(buf *goaudio.IntBuffer, enc Encoding) []byte {
	raw := make([]byte, 0, len(buf.Data)*enc.BytesPerSample())
	for _, v := range buf.Data {
		raw = appendSample(raw, v, enc)
	}
	return raw
}

// floatToS16 converts a [-1, 1] float sample to a clipped 16-bit integer
func floatToS16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}

// newStream wraps decoded samples. A decoder that produced nothing saw
// invalid data.
func newStream(decoder string, format Format, samples []byte) (*Stream, error) {
	if len(samples) == 0 {
		slog.Debug("decoder produced no samples", "decoder", decoder)
		return nil, ErrInvalidData
	}
	s := &Stream{Format: format, Samples: samples}
	slog.Debug("stream decoded",
		"decoder", decoder,
		"encoding", format.Encoding.String(),
		"channels", format.Channels,
		"sample_rate", format.SampleRate,
		"frames", s.Frames(),
		"duration", s.Duration())
	return s, nil
}

// hasExtension reports whether name ends in one of exts, ignoring case
func hasExtension(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/vorbis"
)

// beepDecodeFunc matches the decode entry points of beep's codec packages
type beepDecodeFunc func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// BeepDecoder adapts a gopxl/beep codec into a Decoder producing 16-bit PCM
type BeepDecoder struct {
	name       string
	extensions []string
	decode     beepDecodeFunc
}

// NewFlacDecoder creates a FLAC decoder backed by beep/flac
func NewFlacDecoder() *BeepDecoder {
	return &BeepDecoder{
		name:       "FLAC",
		extensions: []string{".flac"},
		decode: func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(r)
		},
	}
}

// NewVorbisDecoder creates an Ogg Vorbis decoder backed by beep/vorbis
func NewVorbisDecoder() *BeepDecoder {
	return &BeepDecoder{
		name:       "OGG",
		extensions: []string{".ogg", ".oga"},
		decode:     vorbis.Decode,
	}
}

// Decode renders the whole beep stream into interleaved S16 samples
func (d *BeepDecoder) Decode(reader io.Reader) (*Stream, error) {
	streamer, format, err := d.decode(io.NopCloser(reader))
	if err != nil {
		slog.Debug("rejecting beep data", "decoder", d.name, "error", err)
		return nil, ErrInvalidData
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s with %d channels at %d Hz", ErrUnsupportedFormat, d.name, channels, format.SampleRate)
	}

	var raw []byte
	if n := streamer.Len(); n > 0 {
		raw = make([]byte, 0, n*channels*2)
	}
	buf := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			for ch := 0; ch < channels; ch++ {
				raw = appendSample(raw, int(floatToS16(frame[ch])), EncodingS16)
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	return newStream(d.name, Format{
		Channels:   uint32(channels),
		SampleRate: uint32(format.SampleRate),
		Encoding:   EncodingS16,
	}, raw)
}

func (d *BeepDecoder) CanDecode(filename string) bool {
	return hasExtension(filename, d.extensions...)
}

func (d *BeepDecoder) FormatName() string {
	return d.name
}

package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hajimehoshi/go-mp3"
)

// Mp3Decoder decodes MPEG audio with hajimehoshi/go-mp3, which always
// yields 16-bit stereo
type Mp3Decoder struct{}

func NewMp3Decoder() *Mp3Decoder {
	return &Mp3Decoder{}
}

func (d *Mp3Decoder) FormatName() string {
	return "MP3"
}

func (d *Mp3Decoder) CanDecode(filename string) bool {
	return hasExtension(filename, ".mp3", ".mpeg")
}

func (d *Mp3Decoder) Decode(reader io.Reader) (*Stream, error) {
	dec, err := mp3.NewDecoder(reader)
	if err != nil || dec.SampleRate() <= 0 {
		slog.Debug("rejecting MP3 data", "error", err)
		return nil, ErrInvalidData
	}

	samples, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	format := Format{Channels: 2, SampleRate: uint32(dec.SampleRate()), Encoding: EncodingS16}
	return newStream(d.FormatName(), format, samples)
}

package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/youpy/go-wav"
)

// WavDecoder decodes integer PCM WAV files with youpy/go-wav
type WavDecoder struct{}

func NewWavDecoder() *WavDecoder {
	return &WavDecoder{}
}

func (d *WavDecoder) FormatName() string {
	return "WAV"
}

func (d *WavDecoder) CanDecode(filename string) bool {
	return hasExtension(filename, ".wav", ".wave")
}

// Decode keeps the file's own bit depth. 8-bit WAV is unsigned and maps
// onto EncodingU8 as is.
func (d *WavDecoder) Decode(reader io.Reader) (*Stream, error) {
	// go-wav wants a ReadSeeker
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	r := wav.NewReader(bytes.NewReader(data))
	header, err := r.Format()
	if err != nil || header.NumChannels == 0 || header.SampleRate == 0 {
		slog.Debug("rejecting WAV header", "error", err)
		return nil, ErrInvalidData
	}
	encoding, ok := encodingForBits(int(header.BitsPerSample))
	if !ok {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, header.BitsPerSample)
	}

	silence := 0
	if encoding == EncodingU8 {
		silence = 0x80
	}
	channels := int(header.NumChannels)

	var samples []byte
	for {
		batch, err := r.ReadSamples()
		if err == io.EOF || (err == nil && len(batch) == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
		}
		for _, s := range batch {
			for ch := 0; ch < channels; ch++ {
				v := silence
				if ch < len(s.Values) {
					v = s.Values[ch]
				}
				samples = appendSample(samples, v, encoding)
			}
		}
	}

	format := Format{Channels: uint32(channels), SampleRate: header.SampleRate, Encoding: encoding}
	return newStream(d.FormatName(), format, samples)
}

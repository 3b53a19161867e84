package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
)

// AiffDecoder decodes AIFF files with go-audio/aiff, swapping the big-endian
// samples into little-endian PCM
type AiffDecoder struct{}

func NewAiffDecoder() *AiffDecoder {
	return &AiffDecoder{}
}

func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}

func (d *AiffDecoder) CanDecode(filename string) bool {
	return hasExtension(filename, ".aiff", ".aif")
}

func (d *AiffDecoder) Decode(reader io.Reader) (*Stream, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() || dec.SampleRate == 0 {
		return nil, ErrInvalidData
	}

	bits := int(dec.SampleBitDepth())
	// 8-bit AIFF is signed, which no Encoding represents
	encoding, ok := encodingForBits(bits)
	if !ok || encoding == EncodingU8 {
		return nil, fmt.Errorf("%w: %d-bit AIFF", ErrUnsupportedFormat, bits)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}

	format := Format{Channels: uint32(dec.NumChans), SampleRate: uint32(dec.SampleRate), Encoding: encoding}
	return newStream(d.FormatName(), format, packIntBuffer(buf, encoding))
}

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLimit bounds how much of a file is inspected for magic bytes
const sniffLimit = 512

// sniffedFormats maps detected MIME types, aliases included, onto decoder
// format names
var sniffedFormats = []struct {
	mime   string
	format string
}{
	{"audio/wav", "WAV"},
	{"audio/mpeg", "MP3"},
	{"audio/aiff", "AIFF"},
	{"audio/flac", "FLAC"},
	{"audio/ogg", "OGG"},
	{"application/ogg", "OGG"},
}

// DecoderRegistry chooses a decoder for a file, trusting its content over
// its name
type DecoderRegistry struct {
	decoders []Decoder
}

// NewDecoderRegistry creates an empty registry
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{}
}

// NewDefaultRegistry registers every built-in decoder. Earlier decoders win
// when two accept the same extension.
func NewDefaultRegistry() *DecoderRegistry {
	r := NewDecoderRegistry()
	for _, d := range []Decoder{
		NewWavDecoder(),
		NewMp3Decoder(),
		NewAiffDecoder(),
		NewFlacDecoder(),
		NewVorbisDecoder(),
	} {
		r.Register(d)
	}
	slog.Debug("decoder registry initialized", "formats", r.GetSupportedFormats())
	return r
}

// Register appends a decoder. Nil decoders are ignored.
func (r *DecoderRegistry) Register(d Decoder) {
	if d == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}
	r.decoders = append(r.decoders, d)
}

// GetSupportedFormats lists format names in registration order
func (r *DecoderRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, d := range r.decoders {
		formats = append(formats, d.FormatName())
	}
	return formats
}

func (r *DecoderRegistry) byName(name string) Decoder {
	if name == "" {
		return nil
	}
	for _, d := range r.decoders {
		if d.CanDecode(name) {
			return d
		}
	}
	return nil
}

func (r *DecoderRegistry) byFormat(format string) Decoder {
	for _, d := range r.decoders {
		if strings.EqualFold(d.FormatName(), format) {
			return d
		}
	}
	return nil
}

// sniff picks a decoder from the leading bytes of data. The detected MIME
// type is returned for logging even when no decoder matches.
func (r *DecoderRegistry) sniff(data []byte) (Decoder, string) {
	if len(data) == 0 {
		return nil, ""
	}
	if len(data) > sniffLimit {
		data = data[:sniffLimit]
	}
	mtype := mimetype.Detect(data)
	for _, f := range sniffedFormats {
		if mtype.Is(f.mime) {
			return r.byFormat(f.format), mtype.String()
		}
	}
	return nil, mtype.String()
}

// DecodeFile reads a whole file and decodes it with the decoder its content
// points to, falling back to its extension. Failures are *DecodeError values
// carrying name: read errors are IOFailure, anything else UnsupportedFormat.
func (r *DecoderRegistry) DecodeFile(name string, reader io.Reader) (*Stream, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read audio file", "file", name, "error", err)
		return nil, &DecodeError{Path: name, Kind: IOFailure, Err: fmt.Errorf("%w: %v", ErrReadFailure, err)}
	}

	decoder, mime := r.sniff(data)
	detectedBy := "content"
	if decoder == nil {
		decoder, detectedBy = r.byName(name), "extension"
	}
	if decoder == nil {
		slog.Warn("no decoder for file", "file", name, "mime", mime)
		return nil, &DecodeError{Path: name, Kind: UnsupportedFormat, Err: ErrUnsupportedFormat}
	}

	stream, err := decoder.Decode(bytes.NewReader(data))
	if err != nil {
		kind := UnsupportedFormat
		if errors.Is(err, ErrReadFailure) {
			kind = IOFailure
		}
		slog.Error("decode failed",
			"file", name,
			"format", decoder.FormatName(),
			"detected_by", detectedBy,
			"error", err)
		return nil, &DecodeError{Path: name, Kind: kind, Err: err}
	}

	slog.Debug("file decoded",
		"file", name,
		"format", decoder.FormatName(),
		"detected_by", detectedBy,
		"encoding", stream.Format.Encoding.String(),
		"frames", stream.Frames())
	return stream, nil
}

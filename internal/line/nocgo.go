//go:build !cgo

package line

import (
	"fmt"

	"hsound.dev/internal/audio"
)

// DefaultOtoFormat is used when no output format is configured
var DefaultOtoFormat = audio.Format{Channels: 2, SampleRate: 44100, Encoding: audio.EncodingS16}

// NewMalgoFactory is unavailable without cgo
func NewMalgoFactory(maxLines int) (Factory, error) {
	return nil, fmt.Errorf("%w: malgo requires cgo", ErrBackendNotAvailable)
}

// NewOtoFactory is unavailable without cgo
func NewOtoFactory(format audio.Format, maxLines int) (Factory, error) {
	return nil, fmt.Errorf("%w: oto requires cgo", ErrBackendNotAvailable)
}

package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// DecodeErrorKind classifies why a source could not be decoded
type DecodeErrorKind int

const (
	// UnsupportedFormat means no decoder accepted the data
	UnsupportedFormat DecodeErrorKind = iota + 1
	// IOFailure means the data could not be located or read
	IOFailure
)

func (k DecodeErrorKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case IOFailure:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// DecodeError reports a failed decode of one resource locator
type DecodeError struct {
	Path string
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err carries a DecodeError of the given kind
func IsDecodeError(err error, kind DecodeErrorKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}

// Source produces a ready-to-play stream for a resource locator
type Source interface {
	Decode(path string) (*Stream, error)
}

// Resolver turns an opaque resource locator into a concrete file path
type Resolver interface {
	Resolve(locator string) (string, error)
}

// Loader implements Source on top of a filesystem, a resolver and a decoder registry
type Loader struct {
	fs       afero.Fs
	resolver Resolver
	registry *DecoderRegistry
}

// NewLoader creates a Loader. A nil resolver treats locators as plain paths
// and a nil registry uses NewDefaultRegistry.
func NewLoader(fs afero.Fs, resolver Resolver, registry *DecoderRegistry) *Loader {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	slog.Debug("creating new Loader", "has_resolver", resolver != nil)
	return &Loader{
		fs:       fs,
		resolver: resolver,
		registry: registry,
	}
}

// Registry returns the decoder registry used by this loader
func (l *Loader) Registry() *DecoderRegistry {
	return l.registry
}

// Decode resolves, reads and decodes the resource at path
func (l *Loader) Decode(path string) (*Stream, error) {
	if path == "" {
		return nil, &DecodeError{Path: path, Kind: IOFailure, Err: errors.New("empty resource path")}
	}

	resolved := path
	if l.resolver != nil {
		var err error
		resolved, err = l.resolver.Resolve(path)
		if err != nil {
			slog.Error("resource resolution failed", "path", path, "error", err)
			return nil, &DecodeError{Path: path, Kind: IOFailure, Err: err}
		}
	}

	file, err := l.fs.Open(resolved)
	if err != nil {
		slog.Error("failed to open resource", "path", path, "resolved", resolved, "error", err)
		return nil, &DecodeError{Path: path, Kind: IOFailure, Err: err}
	}
	defer file.Close()

	stream, err := l.registry.DecodeFile(filepath.Base(resolved), file)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			// report the locator, not the resolved file name
			de.Path = path
			return nil, de
		}
		return nil, &DecodeError{Path: path, Kind: UnsupportedFormat, Err: err}
	}

	slog.Debug("resource decoded", "path", path, "resolved", resolved, "frames", stream.Frames())
	return stream, nil
}

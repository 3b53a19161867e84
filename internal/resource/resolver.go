// Package resource resolves opaque resource locators such as "sfx/click.wav"
// to files on an afero filesystem.
package resource

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExtensions is the extension priority used for locators without one
var DefaultExtensions = []string{".wav", ".ogg", ".flac", ".mp3", ".aiff", ".aif"}

// NotFoundError reports a locator that matched no existing file
type NotFoundError struct {
	Locator  string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s (searched: %s)", e.Locator, strings.Join(e.Searched, ", "))
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Resolver finds the first existing candidate produced by its mappers
type Resolver struct {
	fs         afero.Fs
	mappers    []Mapper
	extensions []string
}

// NewResolver creates a resolver. Mappers are consulted in order.
func NewResolver(fs afero.Fs, mappers ...Mapper) *Resolver {
	return &Resolver{
		fs:         fs,
		mappers:    mappers,
		extensions: DefaultExtensions,
	}
}

// WithExtensions replaces the fallback extension list
func (r *Resolver) WithExtensions(extensions []string) *Resolver {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	r.extensions = normalized
	return r
}

// Extensions returns the fallback extensions in priority order
func (r *Resolver) Extensions() []string {
	return r.extensions
}

// Resolve maps locator to an existing file path
func (r *Resolver) Resolve(locator string) (string, error) {
	if locator == "" {
		return "", errors.New("resource locator cannot be empty")
	}

	var searched []string

	if filepath.IsAbs(locator) {
		if found, ok := r.firstExisting(locator, &searched); ok {
			return found, nil
		}
	}

	relative := strings.TrimLeft(filepath.ToSlash(locator), "/")
	for _, mapper := range r.mappers {
		candidates, err := mapper.Candidates(relative)
		if err != nil {
			slog.Error("candidate mapping failed",
				"locator", locator,
				"mapper_name", mapper.Name(),
				"error", err)
			return "", fmt.Errorf("mapper %s failed: %w", mapper.Name(), err)
		}

		for _, candidate := range candidates {
			if found, ok := r.firstExisting(candidate, &searched); ok {
				slog.Debug("resource resolved",
					"locator", locator,
					"resolved", found,
					"mapper_kind", mapper.Kind(),
					"mapper_name", mapper.Name())
				return found, nil
			}
		}
	}

	slog.Warn("resource not resolved",
		"locator", locator,
		"candidates_checked", len(searched))

	return "", &NotFoundError{Locator: locator, Searched: searched}
}

// firstExisting checks path and, when it has no extension, path plus each
// fallback extension
func (r *Resolver) firstExisting(path string, searched *[]string) (string, bool) {
	options := []string{path}
	if filepath.Ext(path) == "" {
		for _, ext := range r.extensions {
			options = append(options, path+ext)
		}
	}

	for _, option := range options {
		*searched = append(*searched, option)
		info, err := r.fs.Stat(option)
		if err == nil && !info.IsDir() {
			return option, true
		}
	}
	return "", false
}

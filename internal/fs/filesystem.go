// Package fs hands out afero filesystems so that resource lookup and config
// can run against memory in tests.
package fs

import (
	"github.com/spf13/afero"
)

// Factory provides filesystem instances for production and testing
type Factory interface {
	// Production returns a filesystem that operates on the real OS filesystem
	Production() afero.Fs
	// Memory returns an in-memory filesystem for testing
	Memory() afero.Fs
	// ReadOnly wraps base so writes fail
	ReadOnly(base afero.Fs) afero.Fs
}

// DefaultFactory provides the standard filesystem factory implementation
type DefaultFactory struct{}

// NewDefaultFactory creates a new filesystem factory
func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

func (f *DefaultFactory) Memory() afero.Fs {
	return afero.NewMemMapFs()
}

func (f *DefaultFactory) ReadOnly(base afero.Fs) afero.Fs {
	return afero.NewReadOnlyFs(base)
}

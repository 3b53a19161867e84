package sound

import (
	"errors"
	"log/slog"
	"sync"

	"hsound.dev/internal/audio"
	"hsound.dev/internal/line"
)

const (
	// LibraryID identifies the library in logs
	LibraryID = "h_sound"
	// Version is the library version
	Version = "1.0"
)

// Library shares one source and one line factory between every Sound and
// Music it creates
type Library struct {
	source    audio.Source
	factory   line.Factory
	logger    *slog.Logger
	listeners []Listener

	mutex  sync.Mutex
	sounds map[string]*Sound
	music  []*Music
	closed bool
}

// ErrLibraryClosed is returned by a closed Library
var ErrLibraryClosed = errors.New("library closed")

// NewLibrary creates a library. Options that are not given fall back to the
// process-wide defaults.
func NewLibrary(opts ...Option) *Library {
	o := buildOptions(opts)
	o.logger.Info("using sound library", "id", LibraryID, "version", Version, "backend", o.factory.Name())
	return &Library{
		source:    o.source,
		factory:   o.factory,
		logger:    o.logger,
		listeners: o.listeners,
		sounds:    make(map[string]*Sound),
	}
}

func (lib *Library) options() []Option {
	opts := []Option{WithSource(lib.source), WithFactory(lib.factory), WithLogger(lib.logger)}
	for _, l := range lib.listeners {
		opts = append(opts, WithListener(l))
	}
	return opts
}

// Sound returns the sound for path, creating it on first use
func (lib *Library) Sound(path string) (*Sound, error) {
	lib.mutex.Lock()
	defer lib.mutex.Unlock()
	if lib.closed {
		return nil, ErrLibraryClosed
	}
	if s, ok := lib.sounds[path]; ok {
		return s, nil
	}
	s := NewSound(path, lib.options()...)
	lib.sounds[path] = s
	return s, nil
}

// Music opens a new music track for path
func (lib *Library) Music(path string) (*Music, error) {
	lib.mutex.Lock()
	if lib.closed {
		lib.mutex.Unlock()
		return nil, ErrLibraryClosed
	}
	lib.mutex.Unlock()

	m, err := NewMusic(path, lib.options()...)
	if err != nil {
		return nil, err
	}

	lib.mutex.Lock()
	defer lib.mutex.Unlock()
	if lib.closed {
		m.Close()
		return nil, ErrLibraryClosed
	}
	lib.music = append(lib.music, m)
	return m, nil
}

// Factory returns the shared line factory
func (lib *Library) Factory() line.Factory {
	return lib.factory
}

// StopAll stops every sound and music track without closing them
func (lib *Library) StopAll() {
	lib.mutex.Lock()
	sounds := make([]*Sound, 0, len(lib.sounds))
	for _, s := range lib.sounds {
		sounds = append(sounds, s)
	}
	music := append([]*Music(nil), lib.music...)
	lib.mutex.Unlock()

	for _, s := range sounds {
		s.Stop()
	}
	for _, m := range music {
		m.Stop()
	}
}

// Close stops everything, releases every line and closes the factory
func (lib *Library) Close() error {
	lib.mutex.Lock()
	if lib.closed {
		lib.mutex.Unlock()
		return nil
	}
	lib.closed = true
	sounds := lib.sounds
	music := lib.music
	lib.sounds = nil
	lib.music = nil
	lib.mutex.Unlock()

	for _, s := range sounds {
		s.Close()
	}
	var errs []error
	for _, m := range music {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := lib.factory.Close(); err != nil {
		errs = append(errs, err)
	}
	lib.logger.Debug("sound library closed", "sounds", len(sounds), "music", len(music))
	return errors.Join(errs...)
}

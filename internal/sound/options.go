package sound

import (
	"log/slog"
	"sync"

	"hsound.dev/internal/audio"
	"hsound.dev/internal/fs"
	"hsound.dev/internal/line"
	"hsound.dev/internal/resource"
)

// Option configures a Sound, Music or Library
type Option func(*options)

type options struct {
	source    audio.Source
	factory   line.Factory
	logger    *slog.Logger
	listeners []Listener
}

// WithSource sets where streams are decoded from
func WithSource(source audio.Source) Option {
	return func(o *options) { o.source = source }
}

// WithFactory sets the factory lines are acquired from
func WithFactory(factory line.Factory) Option {
	return func(o *options) { o.factory = factory }
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithListener subscribes l to lifecycle events from the start
func WithListener(l Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.source == nil {
		o.source = defaultSource()
	}
	if o.factory == nil {
		o.factory = defaultFactory()
	}
	return o
}

var (
	sharedOnce    sync.Once
	sharedFactory line.Factory
)

// defaultFactory lazily builds one auto-detected factory for the process
func defaultFactory() line.Factory {
	sharedOnce.Do(func() {
		f, err := line.NewFactory(line.Options{Backend: line.BackendAuto})
		if err != nil {
			slog.Error("no audio backend available, using null output", "error", err)
			f = line.NewNullFactory(0)
		}
		sharedFactory = f
	})
	return sharedFactory
}

// defaultSource reads locators relative to the working directory
func defaultSource() audio.Source {
	osFs := fs.NewDefaultFactory().Production()
	resolver := resource.NewResolver(osFs, resource.NewDirectoryMapper("working-directory", []string{"."}))
	return audio.NewLoader(osFs, resolver, nil)
}

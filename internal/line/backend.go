package line

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hsound.dev/internal/audio"
)

// Backend names accepted by NewFactory
const (
	BackendAuto  = "auto"
	BackendMalgo = "malgo"
	BackendOto   = "oto"
	BackendNull  = "null"
)

// SupportedBackends lists the names accepted by NewFactory
func SupportedBackends() []string {
	return []string{BackendAuto, BackendMalgo, BackendOto, BackendNull}
}

// Options configures NewFactory
type Options struct {
	Backend  string
	MaxLines int
	// OutputFormat is the fixed format of the oto context
	OutputFormat audio.Format
}

// NewFactory builds the named backend. "auto" detects the best device
// backend and falls back to the realtime null backend when no device can be
// opened.
func NewFactory(opts Options) (Factory, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Backend))
	if name == "" {
		name = BackendAuto
	}

	if name != BackendAuto {
		factory, err := buildFactory(name, opts)
		if err != nil {
			return nil, err
		}
		slog.Info("audio backend ready", "backend", factory.Name(), "max_lines", opts.MaxLines)
		return factory, nil
	}

	candidates := currentHost().autoCandidates()
	for _, candidate := range candidates {
		factory, err := buildFactory(candidate, opts)
		if err == nil {
			slog.Info("audio backend ready", "backend", factory.Name(), "detected", candidates[0])
			return factory, nil
		}
		slog.Warn("audio backend unavailable", "backend", candidate, "error", err)
	}

	slog.Warn("no audio device available, playing silently")
	return NewNullFactory(opts.MaxLines), nil
}

func buildFactory(name string, opts Options) (Factory, error) {
	switch name {
	case BackendMalgo:
		return NewMalgoFactory(opts.MaxLines)
	case BackendOto:
		return NewOtoFactory(opts.OutputFormat, opts.MaxLines)
	case BackendNull:
		return NewNullFactory(opts.MaxLines), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q (supported: %s)", name, strings.Join(SupportedBackends(), ", "))
	}
}

// IsBackendNotAvailable reports whether err means the backend is missing from this build or system
func IsBackendNotAvailable(err error) bool {
	return errors.Is(err, ErrBackendNotAvailable)
}

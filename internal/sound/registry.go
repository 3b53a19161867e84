package sound

import (
	"log/slog"
	"sync"

	"hsound.dev/internal/line"
)

// Registry owns the live lines of a multi-instance sound. Removing a line
// from the registry closes it.
type Registry struct {
	mutex sync.Mutex
	lines map[line.Line]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{lines: make(map[line.Line]struct{})}
}

// Register takes ownership of l
func (r *Registry) Register(l line.Line) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.lines[l] = struct{}{}
}

// Release removes l and closes it. It reports whether l was still owned;
// releasing a line twice is a no-op.
func (r *Registry) Release(l line.Line) bool {
	r.mutex.Lock()
	_, owned := r.lines[l]
	delete(r.lines, l)
	r.mutex.Unlock()

	if !owned {
		return false
	}
	if err := l.Close(); err != nil {
		slog.Warn("failed to close released line", "error", err)
	}
	return true
}

// Snapshot returns the lines registered at the time of the call
func (r *Registry) Snapshot() []line.Line {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	lines := make([]line.Line, 0, len(r.lines))
	for l := range r.lines {
		lines = append(lines, l)
	}
	return lines
}

// Len returns the number of registered lines
func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.lines)
}

// StopAll stops and releases every registered line. Lines that close on
// their own while this runs are skipped.
func (r *Registry) StopAll() {
	for _, l := range r.Snapshot() {
		if err := l.Stop(); err != nil {
			slog.Debug("stop failed during sweep", "error", err)
		}
		r.Release(l)
	}
}

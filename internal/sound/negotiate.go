package sound

import (
	"log/slog"
	"sync/atomic"

	"hsound.dev/internal/line"
)

// Negotiation binds optional controls for one logical sound and remembers
// which unsupported controls it has already reported
type Negotiation struct {
	id     string
	logger *slog.Logger

	panWarned  atomic.Bool
	gainWarned atomic.Bool
}

// NewNegotiation creates the negotiation state for the sound identified by id
func NewNegotiation(id string, logger *slog.Logger) *Negotiation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Negotiation{id: id, logger: logger}
}

// Bind fetches the control of the given kind from l and sets it to initial,
// clamped to the control's range. A missing control is not an error: Bind
// returns false and logs a warning the first time it happens for this kind.
func (n *Negotiation) Bind(l line.Line, kind line.ControlKind, initial float64) (line.Control, bool) {
	ctl, err := l.Control(kind)
	if err != nil {
		if flag := n.flag(kind); flag != nil && flag.CompareAndSwap(false, true) {
			n.logger.Warn("control not supported, continuing without it",
				"sound", n.id,
				"control", kind.String(),
				"error", err)
		}
		return nil, false
	}

	ctl.SetValue(initial)
	n.logger.Debug("control bound",
		"sound", n.id,
		"control", kind.String(),
		"requested", initial,
		"value", ctl.Value(),
		"min", ctl.Minimum(),
		"max", ctl.Maximum())
	return ctl, true
}

// Warned reports whether the unsupported warning for kind has been logged
func (n *Negotiation) Warned(kind line.ControlKind) bool {
	flag := n.flag(kind)
	return flag != nil && flag.Load()
}

func (n *Negotiation) flag(kind line.ControlKind) *atomic.Bool {
	switch kind {
	case line.Pan:
		return &n.panWarned
	case line.Gain:
		return &n.gainWarned
	}
	return nil
}

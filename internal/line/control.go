package line

import (
	"fmt"
	"math"
)

// ControlKind names an optional per-line capability
type ControlKind int

const (
	// Pan balances a stereo line between left (-1) and right (+1)
	Pan ControlKind = iota + 1
	// Gain is the master gain in decibels
	Gain
)

func (k ControlKind) String() string {
	switch k {
	case Pan:
		return "pan"
	case Gain:
		return "gain"
	default:
		return fmt.Sprintf("control(%d)", int(k))
	}
}

const (
	MinGainDB = -80.0
	// MaxGainDB is +6.0206 dB, a linear factor of 2
	MaxGainDB = 6.0206
	MinPan    = -1.0
	MaxPan    = 1.0
)

// Control is a bounded float value attached to a line
type Control interface {
	Kind() ControlKind
	Minimum() float64
	Maximum() float64
	Value() float64
	// SetValue clamps v into [Minimum, Maximum]
	SetValue(v float64)
}

// Clamp limits v to [min, max]
func Clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// floatControl stores its value inside the owning line
type floatControl struct {
	kind     ControlKind
	min, max float64
	get      func() float64
	set      func(float64)
}

func (c *floatControl) Kind() ControlKind { return c.kind }
func (c *floatControl) Minimum() float64  { return c.min }
func (c *floatControl) Maximum() float64  { return c.max }
func (c *floatControl) Value() float64    { return c.get() }

func (c *floatControl) SetValue(v float64) {
	if math.IsNaN(v) {
		return
	}
	c.set(Clamp(v, c.min, c.max))
}

func (c *floatControl) String() string {
	return fmt.Sprintf("%s[%g..%g]=%g", c.kind, c.min, c.max, c.get())
}

// dbToLinear converts a decibel gain to an amplitude factor
func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

package client

import "math"

// Easer approaches a moving target exponentially with time constant Tau
// (ms): alpha = 1 - exp(-dt/Tau).
type Easer struct {
	Tau float64

	value  float64
	primed bool
}

func NewEaser(tauMs float64) *Easer {
	return &Easer{Tau: tauMs}
}

// Step moves toward target over dtMs and returns the new value. The first
// step after a reset lands on target.
func (e *Easer) Step(target, dtMs float64) float64 {
	if !e.primed || e.Tau <= 0 {
		e.Snap(target)
		return e.value
	}
	alpha := 1 - math.Exp(-math.Max(0, dtMs)/e.Tau)
	e.value += (target - e.value) * alpha
	return e.value
}

func (e *Easer) Snap(v float64) {
	e.value = v
	e.primed = true
}

func (e *Easer) Value() (float64, bool) {
	return e.value, e.primed
}

func (e *Easer) Reset() {
	e.value, e.primed = 0, false
}

// JumpDetector flags moves longer than Fraction of the field diagonal.
type JumpDetector struct {
	Fraction float64
	Width    float64
	Height   float64
}

// NewJumpDetector works in normalized units on a unit field.
func NewJumpDetector(fraction float64) JumpDetector {
	return JumpDetector{Fraction: fraction, Width: 1, Height: 1}
}

func (j JumpDetector) Threshold() float64 {
	return j.Fraction * math.Hypot(j.Width, j.Height)
}

func (j JumpDetector) IsJump(x0, y0, x1, y1 float64) bool {
	return math.Hypot(x1-x0, y1-y0) > j.Threshold()
}

package services

import "math/rand"

// AssistPolicy rescues balls that only just crossed the scoring edge. A miss
// whose overshoot past the edge is at most MaxOvershoot is reflected back
// with probability Probability instead of scoring.
type AssistPolicy struct {
	Enabled      bool
	Probability  float64
	MaxOvershoot float64
}

// Rescue decides one near-miss. overshoot is the distance past the edge.
func (a AssistPolicy) Rescue(overshoot float64, rng *rand.Rand) bool {
	if !a.Enabled || overshoot < 0 || overshoot > a.MaxOvershoot {
		return false
	}
	switch {
	case a.Probability >= 1:
		return true
	case a.Probability <= 0:
		return false
	}
	return rng.Float64() < a.Probability
}

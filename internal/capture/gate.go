// SPDX-License-Identifier: MIT
package capture

// Gate holds back the start of a recording until the input gets louder than
// Threshold (linear full-scale, 0..1). A zero threshold keeps it always open.
type Gate struct {
	threshold float32
}

// NewGate clamps threshold into [0, 1].
func NewGate(threshold float64) *Gate {
	threshold = max(0, min(1, threshold))
	return &Gate{threshold: float32(threshold)}
}

// Threshold returns the clamped threshold.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold)
}

// Open reports whether any sample in buffer exceeds the threshold.
func (g *Gate) Open(buffer []float32) bool {
	if g.threshold == 0 {
		return true
	}
	return peak(buffer) > g.threshold
}

// peak returns the largest absolute sample.
func peak(buffer []float32) float32 {
	var m float32
	for _, s := range buffer {
		if s < 0 {
			s = -s
		}
		if s > m {
			m = s
		}
	}
	return m
}

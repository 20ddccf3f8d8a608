// SPDX-License-Identifier: MIT
package psd

import (
	"gonum.org/v1/gonum/floats"
)

// BinWidth is the spacing in Hz between neighbouring grid points.
func BinWidth(nFreq int, sampleRate float64) float64 {
	return (sampleRate / 2) / float64(nFreq-1)
}

// Frequencies returns the frequency axis of an nFreq-point grid, from 0 to
// sampleRate/2 inclusive.
func Frequencies(nFreq int, sampleRate float64) []float64 {
	if nFreq < 2 {
		return make([]float64, max(nFreq, 0))
	}
	return floats.Span(make([]float64, nFreq), 0, sampleRate/2)
}

// argMax returns the index and value of the largest strictly positive entry,
// or (0, 0) when there is none.
func argMax(psd []float64) (int, float64) {
	idx, best := 0, 0.0
	for i, v := range psd {
		if v > best {
			best, idx = v, i
		}
	}
	return idx, best
}

// CentralFrequency returns the frequency of the largest bin, without
// refinement.
func CentralFrequency(psd []float64, sampleRate float64) float64 {
	if len(psd) < 2 {
		return 0
	}
	idx, _ := argMax(psd)
	return float64(idx) * BinWidth(len(psd), sampleRate)
}

// CentralFrequencyInterpolated refines the largest bin with a parabola through
// the dB values of it and its neighbours. The second result is false when no
// refinement was applied: the maximum sits on an edge bin, or the three points
// are collinear and the parabola has no vertex.
func CentralFrequencyInterpolated(psd []float64, sampleRate float64) (float64, bool) {
	if len(psd) < 2 {
		return 0, false
	}
	idx, _ := argMax(psd)
	width := BinWidth(len(psd), sampleRate)
	if idx == 0 || idx == len(psd)-1 {
		return float64(idx) * width, false
	}

	offset, ok := ParabolicOffset(ToDB(psd[idx-1]), ToDB(psd[idx]), ToDB(psd[idx+1]))
	return (float64(idx) + offset) * width, ok
}

// ParabolicOffset returns the vertex offset, relative to the middle sample, of
// the parabola through (-1, left), (0, center), (1, right):
//
//	p = 0.5*(left-right) / (left - 2*center + right)
//
// When the denominator is zero the points are collinear; the offset is then 0
// and ok is false so callers can flag the estimate.
func ParabolicOffset(left, center, right float64) (offset float64, ok bool) {
	den := left - 2*center + right
	if den == 0 {
		return 0, false
	}
	return 0.5 * (left - right) / den, true
}

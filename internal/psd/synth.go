// SPDX-License-Identifier: MIT

// Package psd turns an all-pole model into a power spectral density on a
// uniform grid from DC to Nyquist, and provides the frequency-axis and decibel
// helpers shared by the peak extractor.
//
// Bin i of an nFreq-point grid sits at normalised angular frequency
// pi*i/(nFreq-1), i.e. at i*(fs/2)/(nFreq-1) Hz.
package psd

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"arpsd/internal/ar"
	applog "arpsd/internal/log"
	"arpsd/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MinGridSize is the smallest grid the peak extractor can work with: every
// candidate needs a left and a right neighbour.
const MinGridSize = 3

var ErrGridTooSmall = fmt.Errorf("frequency grid needs at least %d points", MinGridSize)

// Method selects how the model polynomial is evaluated on the grid.
type Method int

const (
	// Direct evaluates the polynomial at every bin with a twiddle recurrence.
	Direct Method = iota
	// FFT evaluates all bins with a single real FFT of length 2*(nFreq-1).
	FFT
)

func (m Method) String() string {
	switch m {
	case Direct:
		return "direct"
	case FFT:
		return "fft"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod converts a configuration name to a Method.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "direct":
		return Direct, nil
	case "fft":
		return FFT, nil
	default:
		return Direct, fmt.Errorf("unknown synthesis method %q", name)
	}
}

// Synthesize evaluates variance/|D(w)|^2 with D(w) = 1 + sum_{k>=1} a[k]e^{-jkw}
// on an nFreq-point grid over [0, pi]. coeffs[0] is assumed to be 1 and is not
// read.
//
// A grid point where D(w) == 0 produces +Inf; a negative variance produces
// negative or infinite values. Neither is an error: callers convert with ToDB,
// which clamps. A zero variance gives an all-zero grid.
func Synthesize(coeffs []float64, variance float64, nFreq int) ([]float64, error) {
	if nFreq < MinGridSize {
		return nil, fmt.Errorf("%w: got %d", ErrGridTooSmall, nFreq)
	}

	out := make([]float64, nFreq)
	for i := range out {
		omega := math.Pi * float64(i) / float64(nFreq-1)
		w := cmplx.Exp(complex(0, -omega))
		wk := w
		den := complex(1, 0)
		for k := 1; k < len(coeffs); k++ {
			den += complex(coeffs[k], 0) * wk
			wk *= w
		}
		out[i] = power(variance, cmplx.Abs(den))
	}
	return out, nil
}

// SynthesizeFFT computes the same grid as Synthesize with one forward FFT of
// the zero-padded coefficient vector. It is faster for long grids and high
// orders; the results agree to rounding error.
func SynthesizeFFT(coeffs []float64, variance float64, nFreq int) ([]float64, error) {
	if nFreq < MinGridSize {
		return nil, fmt.Errorf("%w: got %d", ErrGridTooSmall, nFreq)
	}
	size := 2 * (nFreq - 1)
	if len(coeffs) > size {
		// The polynomial would alias on this grid.
		return Synthesize(coeffs, variance, nFreq)
	}
	if !bitint.IsPowerOfTwo(size) {
		applog.Debugf("psd: FFT length %d is not a power of two (grid %d would be faster)",
			size, bitint.NextPowerOfTwo(size)/2+1)
	}

	seq := make([]float64, size)
	seq[0] = 1
	copy(seq[1:], coeffs[min(1, len(coeffs)):])

	spectrum := fourier.NewFFT(size).Coefficients(nil, seq)
	out := make([]float64, nFreq)
	for i := range out {
		out[i] = power(variance, cmplx.Abs(spectrum[i]))
	}
	return out, nil
}

// power is variance/|D|^2, with 0/0 taken as 0 so a collapsed model never
// produces NaN.
func power(variance, mag float64) float64 {
	if variance == 0 {
		return 0
	}
	return variance / (mag * mag)
}

// FromModel synthesises the spectrum of an estimated model. An unusable model
// (non-positive variance) still produces a grid; the caller decides what to do
// with it.
func FromModel(m ar.Model, nFreq int, method Method) ([]float64, error) {
	if len(m.Coeffs) == 0 {
		return nil, errors.New("model has no coefficients")
	}
	switch method {
	case FFT:
		return SynthesizeFFT(m.Coeffs, m.Variance, nFreq)
	default:
		return Synthesize(m.Coeffs, m.Variance, nFreq)
	}
}

// SPDX-License-Identifier: MIT

// Package ar fits all-pole (autoregressive) models to sampled signals with
// Burg's lattice method and scores model orders with the Akaike Information
// Criterion.
//
// A model of order p is the monic polynomial a[0..p] (a[0] == 1) together with
// the residual variance of the driving white noise. Estimation is purely
// sequential and touches no shared state, so independent signals can be
// estimated concurrently.
package ar

import (
	"errors"
	"fmt"
)

// FailedVariance is the variance reported when no model could be estimated.
// Callers must check Usable before trusting the coefficients.
const FailedVariance = 0.0

var (
	ErrShortSignal  = errors.New("signal must contain at least two samples")
	ErrInvalidOrder = errors.New("model order out of range")
)

// Model is the result of one Burg estimation.
//
// Coeffs always has Requested+1 entries. When the recursion stops early on a
// degenerate denominator, Order is smaller than Requested and the tail
// Coeffs[Order+1:] is zero.
type Model struct {
	Coeffs        []float64 // a[0..Requested], a[0] == 1
	Reflection    []float64 // k of every completed step, len == Order
	StepVariances []float64 // variance after each completed step, StepVariances[p-1] belongs to order p
	Power         float64   // mean square of the input, the order-0 variance
	Variance      float64   // residual variance after the last completed step
	Order         int       // order actually reached
	Requested     int       // order asked for
}

// Truncated reports whether the recursion stopped before the requested order.
func (m Model) Truncated() bool {
	return m.Order < m.Requested
}

// Usable reports whether the model can be turned into a spectrum. A
// non-positive variance means the fit collapsed (or never ran).
func (m Model) Usable() bool {
	return m.Variance > 0
}

// Estimate fits an AR model of the given order to signal using Burg's method.
// The signal is only read. order must satisfy 1 <= order < len(signal).
//
// A non-positive recursion denominator is not an error: the recursion stops
// and the model of the last completed order is returned.
func Estimate(signal []float64, order int) (Model, error) {
	n := len(signal)
	if n < 2 {
		return Model{Variance: FailedVariance, Requested: order}, ErrShortSignal
	}
	if order < 1 || order >= n {
		return Model{Variance: FailedVariance, Requested: order},
			fmt.Errorf("%w: order %d for %d samples (need 1 <= order < %d)", ErrInvalidOrder, order, n, n)
	}

	// Forward and backward prediction errors, double-buffered so every step
	// reads only values from the previous step.
	f, b := make([]float64, n), make([]float64, n)
	fNext, bNext := make([]float64, n), make([]float64, n)
	copy(f, signal)
	copy(b, signal)

	a, aNext := make([]float64, order+1), make([]float64, order+1)
	a[0], aNext[0] = 1, 1

	p := 0.0
	for _, x := range signal {
		p += x * x
	}
	p /= float64(n)

	m := Model{
		Power:         p,
		Requested:     order,
		Reflection:    make([]float64, 0, order),
		StepVariances: make([]float64, 0, order),
	}

	for j := 0; j < order; j++ {
		num, den := 0.0, 0.0
		for i := j + 1; i < n; i++ {
			fi, bPrev := f[i], b[i-1]
			num += fi * bPrev
			den += fi*fi + bPrev*bPrev
		}
		if den <= 0 {
			break
		}
		k := -2 * num / den

		p *= 1 - k*k

		for i := 1; i <= j; i++ {
			aNext[i] = a[i] + k*a[j-i+1]
		}
		aNext[j+1] = k
		a, aNext = aNext, a
		// Keep the spare buffer consistent for the next step's unchanged tail.
		copy(aNext, a)

		// Entries below j+1 are never read again, so only the live range is
		// written.
		for i := n - 1; i > j; i-- {
			fNext[i] = f[i] + k*b[i-1]
			bNext[i] = b[i-1] + k*f[i]
		}
		f, fNext = fNext, f
		b, bNext = bNext, b

		m.Reflection = append(m.Reflection, k)
		m.StepVariances = append(m.StepVariances, p)
		m.Order = j + 1
	}

	m.Coeffs = a
	m.Variance = p
	return m, nil
}

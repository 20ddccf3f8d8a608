// SPDX-License-Identifier: MIT
package ar

// Residual runs signal through the prediction-error (whitening) filter
// defined by coeffs:
//
//	e[n] = sum_{k=0..p} a[k] * x[n-k]
//
// with x[n] = 0 for n < 0. For a good fit the output is close to white noise
// with the model's variance.
func Residual(signal, coeffs []float64) []float64 {
	out := make([]float64, len(signal))
	for n := range signal {
		acc := 0.0
		for k, c := range coeffs {
			if n-k < 0 {
				break
			}
			acc += c * signal[n-k]
		}
		out[n] = acc
	}
	return out
}

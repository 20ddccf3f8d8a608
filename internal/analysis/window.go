// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the taper applied to a signal before estimation.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
	Rectangular
)

var windowNames = map[WindowFunc]string{
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "rect", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// ApplyWindow multiplies samples by the selected window in place and returns
// the same slice. The Hann window is
//
//	w[n] = 0.5 * (1 - cos(2*pi*n/(N-1)))
//
// so both end samples become zero. N must be at least 2.
func ApplyWindow(samples []float64, w WindowFunc) []float64 {
	switch w {
	case Hann:
		return window.Hann(samples)
	case Hamming:
		return window.Hamming(samples)
	case Blackman:
		return window.Blackman(samples)
	case BlackmanNuttall:
		return window.BlackmanNuttall(samples)
	case BartlettHann:
		return window.BartlettHann(samples)
	case Lanczos:
		return window.Lanczos(samples)
	case Nuttall:
		return window.Nuttall(samples)
	case Rectangular:
		return samples
	default:
		panic(fmt.Sprintf("analysis: unknown window %d", int(w)))
	}
}

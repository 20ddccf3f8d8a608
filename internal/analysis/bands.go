// SPDX-License-Identifier: MIT
package analysis

import (
	"arpsd/internal/psd"

	"gonum.org/v1/gonum/integrate"
)

// Band is a named frequency range.
type Band struct {
	Name   string  `json:"name" yaml:"name"`
	LowHz  float64 `json:"low_hz" yaml:"low_hz"`
	HighHz float64 `json:"high_hz" yaml:"high_hz"`
}

// BandPower is the spectrum integrated over one Band.
type BandPower struct {
	Band
	Power   float64 `json:"power"`
	PowerDB float64 `json:"power_db"`
}

// DefaultBands are the usual audio bands. Ranges above Nyquist are clipped
// when the power is computed.
func DefaultBands() []Band {
	return []Band{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: 20000},
	}
}

// BandPowers integrates spectrum over each band with the trapezoidal rule on
// the grid points inside [LowHz, HighHz]. A band holding fewer than two grid
// points has zero power.
func BandPowers(spectrum []float64, sampleRate float64, bands []Band) []BandPower {
	freqs := psd.Frequencies(len(spectrum), sampleRate)
	out := make([]BandPower, len(bands))
	for i, b := range bands {
		lo, hi := -1, -1
		for j, f := range freqs {
			if f < b.LowHz || f > b.HighHz {
				continue
			}
			if lo < 0 {
				lo = j
			}
			hi = j
		}

		var power float64
		if lo >= 0 && hi > lo {
			power = integrate.Trapezoidal(freqs[lo:hi+1], spectrum[lo:hi+1])
		}
		out[i] = BandPower{Band: b, Power: power, PowerDB: psd.ToDB(power)}
	}
	return out
}

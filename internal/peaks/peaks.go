// SPDX-License-Identifier: MIT

// Package peaks finds spectral peaks in a PSD grid and measures their centre
// frequency (with sub-bin parabolic refinement), power and -3 dB bandwidth.
package peaks

import (
	"errors"
	"fmt"

	applog "arpsd/internal/log"
	"arpsd/internal/psd"

	"gonum.org/v1/gonum/floats"
)

// HalfPowerDB is the drop below the peak level that delimits the bandwidth.
const HalfPowerDB = 3.0

var ErrSampleRate = errors.New("sample rate must be positive")

// Peak describes one accepted local maximum.
type Peak struct {
	Bin       int     `json:"bin"`          // integer grid index of the local maximum
	Index     float64 `json:"index"`        // Bin refined by parabolic interpolation
	Frequency float64 `json:"frequency_hz"` // Index converted to Hz
	PowerDB   float64 `json:"power_db"`     // level of Bin, not of the refined vertex
	WidthHz   float64 `json:"bandwidth_hz"` // -3 dB width measured from Bin, one-bin resolution
	Flat      bool    `json:"flat"`         // the three dB samples were collinear, Index == Bin
}

// Extract scans psd for strict interior local maxima whose level exceeds the
// global maximum by more than thresholdDB (a negative number, e.g. -40), and
// returns them in ascending frequency order.
//
// Bin i maps to i*(sampleRate/2)/(len(psd)-1) Hz. The centre of each peak is
// refined with a parabola through the dB levels of bins i-1, i, i+1. When
// those levels are collinear the parabola has no vertex; the peak is kept at
// its integer bin and marked Flat.
func Extract(spectrum []float64, sampleRate, thresholdDB float64) ([]Peak, error) {
	n := len(spectrum)
	if n < psd.MinGridSize {
		return nil, fmt.Errorf("%w: got %d", psd.ErrGridTooSmall, n)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrSampleRate, sampleRate)
	}

	// A spectrum with no positive value has its maximum on the dB floor.
	maxDB := psd.ToDB(max(floats.Max(spectrum), 0))
	freqPerBin := psd.BinWidth(n, sampleRate)
	db := psd.ToDBSlice(nil, spectrum)

	var out []Peak
	for i := 1; i < n-1; i++ {
		if !(spectrum[i] > spectrum[i-1] && spectrum[i] > spectrum[i+1] && db[i] > maxDB+thresholdDB) {
			continue
		}

		y0 := db[i]
		offset, ok := psd.ParabolicOffset(db[i-1], y0, db[i+1])
		if !ok {
			applog.Debugf("peaks: flat neighbourhood at bin %d (%.4f dB), keeping integer bin", i, y0)
		}
		index := float64(i) + offset

		left, right := halfPowerEdges(db, i, y0-HalfPowerDB)

		out = append(out, Peak{
			Bin:       i,
			Index:     index,
			Frequency: index * freqPerBin,
			PowerDB:   y0,
			WidthHz:   float64(right-left) * freqPerBin,
			Flat:      !ok,
		})
	}
	return out, nil
}

// halfPowerEdges walks outwards from bin while the level stays above
// threshold and returns the first bins at or below it (or the array edges).
func halfPowerEdges(db []float64, bin int, threshold float64) (left, right int) {
	left, right = bin, bin
	for left > 0 && db[left] > threshold {
		left--
	}
	for right < len(db)-1 && db[right] > threshold {
		right++
	}
	return left, right
}

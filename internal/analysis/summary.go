// SPDX-License-Identifier: MIT
package analysis

import (
	"arpsd/internal/peaks"
	"arpsd/internal/psd"
)

// Summary is the compact, serialisable view of a Result that is published and
// written as JSON. It leaves out the PSD grid and the model coefficients.
type Summary struct {
	Name             string        `json:"name"`
	SampleRate       float64       `json:"sample_rate_hz"`
	Samples          int           `json:"samples"`
	Window           string        `json:"window"`
	Method           string        `json:"method"`
	Bins             int           `json:"bins"`
	RequestedOrder   int           `json:"requested_ar_order"`
	UsedOrder        int           `json:"used_ar_order"`
	NoiseVariance    float64       `json:"noise_variance"`
	Usable           bool          `json:"usable"`
	CentralFrequency float64       `json:"central_frequency_hz"`
	ElapsedSeconds   float64       `json:"elapsed_s"`
	Peaks            []peaks.Peak  `json:"peaks"`
	Bands            []BandPower   `json:"bands,omitempty"`
	Residual         *ResidualTest `json:"residual,omitempty"`
}

// Summary builds the serialisable view of r.
func (r *Result) Summary() Summary {
	s := Summary{
		Name:           r.Name,
		SampleRate:     r.SampleRate,
		Samples:        r.Samples,
		Window:         r.Window.String(),
		Method:         r.Method.String(),
		Bins:           len(r.PSD),
		RequestedOrder: r.Model.Requested,
		UsedOrder:      r.Model.Order,
		NoiseVariance:  r.Model.Variance,
		Usable:         r.Model.Usable(),
		ElapsedSeconds: r.Elapsed.Seconds(),
		Peaks:          r.Peaks,
		Bands:          r.Bands,
		Residual:       r.Residual,
	}
	if s.Peaks == nil {
		s.Peaks = []peaks.Peak{}
	}
	if r.Model.Usable() && len(r.PSD) >= psd.MinGridSize {
		s.CentralFrequency, _ = psd.CentralFrequencyInterpolated(r.PSD, r.SampleRate)
	}
	return s
}

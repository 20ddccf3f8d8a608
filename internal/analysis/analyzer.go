// SPDX-License-Identifier: MIT

// Package analysis runs the parametric spectral pipeline on a signal:
//
//	window -> Burg AR fit -> PSD synthesis -> peak extraction
//
// and optionally validates the fit by testing the prediction-error residual
// for normality.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"arpsd/internal/ar"
	"arpsd/internal/audio"
	applog "arpsd/internal/log"
	"arpsd/internal/peaks"
	"arpsd/internal/psd"
)

// Processor turns a signal into an analysis result.
type Processor interface {
	Analyze(sig *audio.Signal) (*Result, error)
}

// Compile-time check.
var _ Processor = (*Analyzer)(nil)

// Options configures one Analyzer.
type Options struct {
	Order            int        // AR model order
	NFreq            int        // PSD grid points from DC to Nyquist
	ThresholdDB      float64    // peak acceptance relative to the global maximum, <= 0
	Window           WindowFunc // taper applied once before estimation
	Method           psd.Method // spectrum evaluation
	ValidateResidual bool       // run the residual normality test
	Bands            []Band     // bands to integrate, none when empty
}

// DefaultOptions mirrors the stock configuration file.
func DefaultOptions() Options {
	return Options{
		Order:       16,
		NFreq:       4096,
		ThresholdDB: -40,
		Window:      Hann,
		Method:      psd.Direct,
	}
}

func (o Options) validate() error {
	if o.Order < 1 {
		return fmt.Errorf("%w: order %d", ar.ErrInvalidOrder, o.Order)
	}
	if o.NFreq < psd.MinGridSize {
		return fmt.Errorf("%w: got %d", psd.ErrGridTooSmall, o.NFreq)
	}
	if o.ThresholdDB > 0 {
		return fmt.Errorf("threshold must not be positive, got %.2f dB", o.ThresholdDB)
	}
	if _, ok := windowNames[o.Window]; !ok {
		return fmt.Errorf("unknown window %d", int(o.Window))
	}
	for _, b := range o.Bands {
		if b.HighHz <= b.LowHz || b.LowHz < 0 {
			return fmt.Errorf("band %q: invalid range [%g, %g] Hz", b.Name, b.LowHz, b.HighHz)
		}
	}
	return nil
}

// Analyzer holds validated options. It keeps no per-run state and is safe for
// concurrent use.
type Analyzer struct {
	opts Options
}

// NewAnalyzer validates opts.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	applog.Debugf("analysis: order %d, %d bins, threshold %.1f dB, window %s, method %s",
		opts.Order, opts.NFreq, opts.ThresholdDB, opts.Window, opts.Method)
	return &Analyzer{opts: opts}, nil
}

// Options returns the analyzer configuration.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Result is everything one run produces.
type Result struct {
	Name       string
	SampleRate float64
	Samples    int
	Window     WindowFunc
	Method     psd.Method
	Model      ar.Model
	PSD        []float64
	Peaks      []peaks.Peak
	Bands      []BandPower
	Residual   *ResidualTest // nil unless requested and computable
	Elapsed    time.Duration
}

// Frequencies returns the frequency axis matching PSD.
func (r *Result) Frequencies() []float64 {
	return psd.Frequencies(len(r.PSD), r.SampleRate)
}

// Analyze runs the pipeline on a copy of sig.Samples; the caller's buffer is
// never modified. The window is applied exactly once.
//
// A model that collapses (non-positive variance) is not an error: the result
// carries the model and its spectrum but no peaks.
func (a *Analyzer) Analyze(sig *audio.Signal) (*Result, error) {
	if sig == nil || len(sig.Samples) == 0 {
		return nil, audio.ErrEmptySignal
	}
	if sig.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: %w", sig.Name, audio.ErrSampleRate)
	}
	if a.opts.Order >= len(sig.Samples) {
		return nil, fmt.Errorf("%s: %w: order %d needs more than %d samples",
			sig.Name, ar.ErrInvalidOrder, a.opts.Order, len(sig.Samples))
	}

	start := time.Now()

	work := make([]float64, len(sig.Samples))
	copy(work, sig.Samples)
	ApplyWindow(work, a.opts.Window)

	model, err := ar.Estimate(work, a.opts.Order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sig.Name, err)
	}
	if model.Truncated() {
		applog.Warnf("analysis: %s: recursion stopped at order %d of %d", sig.Name, model.Order, model.Requested)
	}

	spectrum, err := psd.FromModel(model, a.opts.NFreq, a.opts.Method)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sig.Name, err)
	}

	res := &Result{
		Name:       sig.Name,
		SampleRate: sig.SampleRate,
		Samples:    len(sig.Samples),
		Window:     a.opts.Window,
		Method:     a.opts.Method,
		Model:      model,
		PSD:        spectrum,
	}

	if model.Usable() {
		res.Peaks, err = peaks.Extract(spectrum, sig.SampleRate, a.opts.ThresholdDB)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sig.Name, err)
		}
		if len(a.opts.Bands) > 0 {
			res.Bands = BandPowers(spectrum, sig.SampleRate, a.opts.Bands)
		}
	} else {
		applog.Warnf("analysis: %s: model variance %.3g is not positive, skipping peak extraction", sig.Name, model.Variance)
	}

	if a.opts.ValidateResidual && model.Usable() {
		test, err := CheckResidual(sig.Samples, model)
		switch {
		case errors.Is(err, ErrResidualTooShort), errors.Is(err, ErrDegenerateResidual):
			applog.Warnf("analysis: %s: residual test skipped: %v", sig.Name, err)
		case err != nil:
			return nil, fmt.Errorf("%s: %w", sig.Name, err)
		default:
			res.Residual = test
		}
	}

	res.Elapsed = time.Since(start)
	applog.Infof("analysis: %s: order %d/%d, variance %.6g, %d peak(s) in %s",
		sig.Name, model.Order, model.Requested, model.Variance, len(res.Peaks), res.Elapsed)
	return res, nil
}

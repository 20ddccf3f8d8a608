// SPDX-License-Identifier: MIT

// Package report persists analysis results: plain numeric files for plotting,
// a key:value metrics file, a human readable report and a JSON summary.
package report

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"arpsd/internal/analysis"
	"arpsd/internal/peaks"
	"arpsd/internal/psd"
)

// PeaksHeader is the first line of a peaks file.
const PeaksHeader = "# Frequency (Hz), Power (dB), Bandwidth at -3dB (Hz)"

// WritePSD writes one linear PSD value per line.
func WritePSD(w io.Writer, spectrum []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range spectrum {
		fmt.Fprintf(bw, "%f\n", v)
	}
	return bw.Flush()
}

// WriteCoeffs writes the model polynomial a[0..p], one value per line.
func WriteCoeffs(w io.Writer, coeffs []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range coeffs {
		fmt.Fprintf(bw, "%.15f\n", v)
	}
	return bw.Flush()
}

// WritePeaks writes the header followed by one comma separated line per peak
// in ascending frequency order.
func WritePeaks(w io.Writer, list []peaks.Peak) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, PeaksHeader)
	for _, p := range list {
		fmt.Fprintf(bw, "%.4f, %.4f, %.4f\n", p.Frequency, p.PowerDB, p.WidthHz)
	}
	return bw.Flush()
}

// WriteMetrics writes key:value lines describing the run.
func WriteMetrics(w io.Writer, res *analysis.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "elapsed_s:%.6f\n", res.Elapsed.Seconds())
	fmt.Fprintf(bw, "used_ar_order:%d\n", res.Model.Order)
	fmt.Fprintf(bw, "requested_ar_order:%d\n", res.Model.Requested)
	fmt.Fprintf(bw, "noise_variance:%.12f\n", res.Model.Variance)
	return bw.Flush()
}

// WriteSummary writes the indented JSON summary.
func WriteSummary(w io.Writer, res *analysis.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Summary())
}

// WriteReport writes the human readable report. Peaks are listed strongest
// first.
func WriteReport(w io.Writer, res *analysis.Result) error {
	bw := bufio.NewWriter(w)
	sum := res.Summary()

	fmt.Fprintf(bw, "--- Spectral Analysis Report ---\n\n")
	fmt.Fprintf(bw, "File Analyzed: %s\n", res.Name)
	fmt.Fprintf(bw, "Sample Rate: %.0f Hz\n", res.SampleRate)
	fmt.Fprintf(bw, "Samples: %d (%.3f s)\n", res.Samples, float64(res.Samples)/res.SampleRate)
	fmt.Fprintf(bw, "Window: %s\n", res.Window)
	fmt.Fprintf(bw, "Spectrum: %s, %d bins (%.4f Hz/bin)\n", res.Method, len(res.PSD), psd.BinWidth(len(res.PSD), res.SampleRate))
	fmt.Fprintf(bw, "Analysis Time: %.4f s\n", res.Elapsed.Seconds())

	fmt.Fprintf(bw, "\n--- AR Model Metrics ---\n")
	fmt.Fprintf(bw, "Model Order Used: %d (requested %d)\n", res.Model.Order, res.Model.Requested)
	if res.Model.Truncated() {
		fmt.Fprintf(bw, "Note: recursion stopped early on a degenerate step\n")
	}
	fmt.Fprintf(bw, "Residual Noise Variance: %.12f\n", res.Model.Variance)
	if !res.Model.Usable() {
		fmt.Fprintf(bw, "Note: the model is not usable (variance is not positive)\n")
	} else {
		fmt.Fprintf(bw, "Central Frequency: %.2f Hz\n", sum.CentralFrequency)
	}

	fmt.Fprintf(bw, "\n--- Model Validation (Residual Gaussianity Test) ---\n")
	if rt := res.Residual; rt != nil {
		verdict := "No"
		if rt.Gaussian {
			verdict = "Yes"
		}
		fmt.Fprintf(bw, "Result: %s\n", verdict)
		fmt.Fprintf(bw, "p-value: %.4f (considered Gaussian if p >= %.2f)\n", rt.PValue, analysis.ResidualAlpha)
		fmt.Fprintf(bw, "Jarque-Bera: %.4f, skewness %.4f, excess kurtosis %.4f\n", rt.JarqueBera, rt.Skewness, rt.ExcessKurtosis)
	} else {
		fmt.Fprintf(bw, "Result: N/A\n")
	}

	if len(res.Bands) > 0 {
		fmt.Fprintf(bw, "\n--- Band Powers ---\n")
		for _, b := range res.Bands {
			fmt.Fprintf(bw, "  %-8s %8.1f - %8.1f Hz: %8.2f dB\n", b.Name, b.LowHz, b.HighHz, b.PowerDB)
		}
	}

	fmt.Fprintf(bw, "\n--- Detected Frequency Peaks ---\n")
	if len(res.Peaks) == 0 {
		fmt.Fprintf(bw, "  No significant peaks were detected.\n")
	}
	for i, p := range ByPower(res.Peaks) {
		fmt.Fprintf(bw, "  Peak #%d (sorted by power):\n", i+1)
		fmt.Fprintf(bw, "    Frequency: %.2f Hz\n", p.Frequency)
		fmt.Fprintf(bw, "    Power:   %.2f dB\n", p.PowerDB)
		fmt.Fprintf(bw, "    Width (-3dB): %.2f Hz\n", p.WidthHz)
		if p.Flat {
			fmt.Fprintf(bw, "    Note: flat neighbourhood, frequency not refined\n")
		}
	}
	return bw.Flush()
}

// ByPower returns a copy of list sorted by descending power. Equal powers keep
// their frequency order.
func ByPower(list []peaks.Peak) []peaks.Peak {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b peaks.Peak) int {
		return cmp.Compare(b.PowerDB, a.PowerDB)
	})
	return out
}

// SPDX-License-Identifier: MIT
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"arpsd/internal/analysis"
	applog "arpsd/internal/log"
)

// Files names the outputs written by Save. An empty name skips that file.
type Files struct {
	PSD     string `yaml:"psd"`
	Coeffs  string `yaml:"coeffs"`
	Peaks   string `yaml:"peaks"`
	Metrics string `yaml:"metrics"`
	Report  string `yaml:"report"`
	Summary string `yaml:"summary"`
}

// DefaultFiles returns the stock output names.
func DefaultFiles() Files {
	return Files{
		PSD:     "psd_output.txt",
		Coeffs:  "ar_coeffs.txt",
		Peaks:   "peaks_output.txt",
		Metrics: "metrics.txt",
		Report:  "report.txt",
		Summary: "summary.json",
	}
}

// Save writes every configured file for res under dir/<res.Name>/ and returns
// that directory.
func Save(dir string, files Files, res *analysis.Result) (string, error) {
	name := res.Name
	if name == "" {
		name = "signal"
	}
	out := filepath.Join(dir, name)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}

	writers := []struct {
		file  string
		write func(io.Writer) error
	}{
		{files.PSD, func(w io.Writer) error { return WritePSD(w, res.PSD) }},
		{files.Coeffs, func(w io.Writer) error { return WriteCoeffs(w, res.Model.Coeffs) }},
		{files.Peaks, func(w io.Writer) error { return WritePeaks(w, res.Peaks) }},
		{files.Metrics, func(w io.Writer) error { return WriteMetrics(w, res) }},
		{files.Report, func(w io.Writer) error { return WriteReport(w, res) }},
		{files.Summary, func(w io.Writer) error { return WriteSummary(w, res) }},
	}

	for _, wr := range writers {
		if wr.file == "" {
			continue
		}
		if err := writeFile(filepath.Join(out, wr.file), wr.write); err != nil {
			return "", err
		}
	}
	applog.Infof("report: %s written to %s", res.Name, out)
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

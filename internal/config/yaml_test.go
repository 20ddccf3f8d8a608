// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arpsd/internal/analysis"
	"arpsd/internal/psd"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Analysis.Order != DefaultOrder || cfg.Analysis.NFreq != DefaultNFreq {
		t.Errorf("defaults not applied: %+v", cfg.Analysis)
	}
	if cfg.Output.Files.PSD != "psd_output.txt" {
		t.Errorf("output files = %+v", cfg.Output.Files)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
input:
  sample_rate: 8000
analysis:
  order: 8
  n_freq: 1025
  threshold_db: -20
  window: hamming
  method: fft
  validate_residual: false
  workers: 3
  bands:
    - {name: low, low_hz: 0, high_hz: 100}
output:
  dir: out
  files:
    psd: spectrum.txt
transport:
  udp_enabled: true
  udp_target_address: "127.0.0.1:9999"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Input.SampleRate != 8000 {
		t.Errorf("top level = %q, %g", cfg.LogLevel, cfg.Input.SampleRate)
	}
	a := cfg.Analysis
	if a.Order != 8 || a.NFreq != 1025 || a.ThresholdDB != -20 || a.Workers != 3 || a.ValidateResidual {
		t.Errorf("analysis = %+v", a)
	}
	if len(a.Bands) != 1 || a.Bands[0].HighHz != 100 {
		t.Errorf("bands = %+v", a.Bands)
	}
	// Keys missing from the file keep their defaults.
	if a.MaxOrder != DefaultMaxOrder {
		t.Errorf("max_order = %d, want default %d", a.MaxOrder, DefaultMaxOrder)
	}
	if cfg.Output.Dir != "out" || cfg.Output.Files.PSD != "spectrum.txt" || cfg.Output.Files.Coeffs != "ar_coeffs.txt" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Capture.Device != DefaultDeviceID || cfg.Capture.SampleRate != DefaultCaptureRate {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "127.0.0.1:9999" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "analysis:\n  order: 0\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "analysis.order") {
		t.Errorf("expected order validation error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARPSD_ORDER", "24")
	t.Setenv("ARPSD_WINDOW", "blackman")
	t.Setenv("ARPSD_THRESHOLD_DB", "-60")
	t.Setenv("ARPSD_UDP_ENABLED", "true")
	t.Setenv("ARPSD_WORKERS", "not-a-number")

	path := writeTempConfig(t, "analysis:\n  order: 8\n  workers: 2\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Analysis.Order != 24 {
		t.Errorf("order = %d, want the environment value 24", cfg.Analysis.Order)
	}
	if cfg.Analysis.Window != "blackman" || cfg.Analysis.ThresholdDB != -60 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if !cfg.Transport.UDPEnabled {
		t.Error("udp not enabled from environment")
	}
	if cfg.Analysis.Workers != 2 {
		t.Errorf("unparsable override changed workers to %d", cfg.Analysis.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"negative rate", func(c *Config) { c.Input.SampleRate = -1 }, "input.sample_rate"},
		{"order", func(c *Config) { c.Analysis.Order = 0 }, "analysis.order"},
		{"grid", func(c *Config) { c.Analysis.NFreq = 2 }, "analysis.n_freq"},
		{"zero threshold", func(c *Config) { c.Analysis.ThresholdDB = 0 }, ""},
		{"positive threshold", func(c *Config) { c.Analysis.ThresholdDB = 3 }, "analysis.threshold_db"},
		{"window", func(c *Config) { c.Analysis.Window = "triangle" }, "analysis.window"},
		{"method", func(c *Config) { c.Analysis.Method = "goertzel" }, "analysis.method"},
		{"fft odd grid", func(c *Config) { c.Analysis.Method = "fft"; c.Analysis.NFreq = 1000 }, ""},
		{"workers", func(c *Config) { c.Analysis.Workers = -1 }, "analysis.workers"},
		{"max order", func(c *Config) { c.Analysis.MaxOrder = 0 }, "analysis.max_order"},
		{"band", func(c *Config) { c.Analysis.Bands = []analysis.Band{{Name: "x", LowHz: 10, HighHz: 5}} }, "analysis.bands"},
		{"output dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"device", func(c *Config) { c.Capture.Device = -2 }, "capture.device"},
		{"channels", func(c *Config) { c.Capture.Channels = 0 }, "capture.channels"},
		{"capture rate", func(c *Config) { c.Capture.SampleRate = 1000 }, "capture.sample_rate"},
		{"frames", func(c *Config) { c.Capture.FramesPerBuffer = MaxBufferFrames + 1 }, "capture.frames_per_buffer"},
		{"seconds", func(c *Config) { c.Capture.Seconds = 0 }, "capture.seconds"},
		{"gate", func(c *Config) { c.Capture.GateThreshold = 2 }, "capture.gate_threshold"},
		{"websocket", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketAddress = ""
		}, "transport.websocket_address"},
		{"udp missing", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = ""
		}, "transport.udp_target_address"},
		{"udp port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "missing port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Order = 0
	cfg.Capture.Channels = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"analysis.order", "capture.channels"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestAnalyzerOptions(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Window = "rect"
	cfg.Analysis.Method = "FFT"
	cfg.Analysis.Bands = analysis.DefaultBands()

	opts, err := cfg.AnalyzerOptions()
	if err != nil {
		t.Fatalf("AnalyzerOptions: %v", err)
	}
	if opts.Window != analysis.Rectangular || opts.Method != psd.FFT {
		t.Errorf("window %v, method %v", opts.Window, opts.Method)
	}
	if opts.Order != DefaultOrder || opts.NFreq != DefaultNFreq || opts.ThresholdDB != DefaultThresholdDB {
		t.Errorf("options = %+v", opts)
	}
	if !opts.ValidateResidual || len(opts.Bands) != 6 {
		t.Errorf("options = %+v", opts)
	}
	if _, err := analysis.NewAnalyzer(opts); err != nil {
		t.Errorf("default options rejected: %v", err)
	}

	cfg.Analysis.Window = "triangle"
	if _, err := cfg.AnalyzerOptions(); err == nil {
		t.Error("unknown window accepted")
	}
}

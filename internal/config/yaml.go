// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"arpsd/internal/analysis"
	applog "arpsd/internal/log"
	"arpsd/internal/psd"
	"arpsd/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "ARPSD_"

// LoadConfig loads configuration from the YAML file at path. An empty path
// looks for DefaultConfigFile in the working directory and falls back to the
// built-in defaults when it is absent. Environment overrides are applied
// after the file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applog.Debugf("configuration: loaded %s", path)

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.Input.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("input.sample_rate must not be negative, got %g", c.Input.SampleRate))
	}

	a := c.Analysis
	if a.Order < 1 {
		errs = append(errs, fmt.Errorf("analysis.order must be at least 1, got %d", a.Order))
	}
	if a.NFreq < psd.MinGridSize {
		errs = append(errs, fmt.Errorf("analysis.n_freq must be at least %d, got %d", psd.MinGridSize, a.NFreq))
	}
	if a.ThresholdDB > 0 {
		errs = append(errs, fmt.Errorf("analysis.threshold_db must not be positive, got %g", a.ThresholdDB))
	}
	if _, err := analysis.ParseWindowFunc(a.Window); err != nil {
		errs = append(errs, fmt.Errorf("analysis.window: %w", err))
	}
	method, err := psd.ParseMethod(a.Method)
	if err != nil {
		errs = append(errs, fmt.Errorf("analysis.method: %w", err))
	} else if method == psd.FFT && a.NFreq > 1 && !bitint.IsPowerOfTwo(a.NFreq-1) {
		applog.Warnf("configuration: n_freq %d gives a non radix-2 FFT length; %d is faster",
			a.NFreq, bitint.NextPowerOfTwo(a.NFreq-1)+1)
	}
	if a.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must not be negative, got %d", a.Workers))
	}
	if a.MaxOrder < 1 {
		errs = append(errs, fmt.Errorf("analysis.max_order must be at least 1, got %d", a.MaxOrder))
	}
	for _, b := range a.Bands {
		if b.LowHz < 0 || b.HighHz <= b.LowHz {
			errs = append(errs, fmt.Errorf("analysis.bands: %q has invalid range [%g, %g] Hz", b.Name, b.LowHz, b.HighHz))
		}
	}

	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir must be set"))
	}

	cp := c.Capture
	if cp.Device < DefaultDeviceID {
		errs = append(errs, fmt.Errorf("capture.device must be %d or a device index, got %d", DefaultDeviceID, cp.Device))
	}
	if cp.Channels < 1 {
		errs = append(errs, fmt.Errorf("capture.channels must be at least 1, got %d", cp.Channels))
	}
	if cp.SampleRate < MinSampleRate || cp.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("capture.sample_rate must be within [%d, %d] Hz, got %g",
			MinSampleRate, MaxSampleRate, cp.SampleRate))
	}
	if cp.FramesPerBuffer < 1 || cp.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("capture.frames_per_buffer must be within [1, %d], got %d",
			MaxBufferFrames, cp.FramesPerBuffer))
	}
	if cp.Seconds <= 0 {
		errs = append(errs, fmt.Errorf("capture.seconds must be positive, got %g", cp.Seconds))
	}
	if cp.GateThreshold < 0 || cp.GateThreshold > 1 {
		errs = append(errs, fmt.Errorf("capture.gate_threshold must be within [0, 1], got %g", cp.GateThreshold))
	}

	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.websocket_address must be set when the WebSocket server is enabled"))
	}
	if t.UDPEnabled {
		if t.UDPTargetAddress == "" {
			errs = append(errs, errors.New("transport.udp_target_address must be set when UDP is enabled"))
		} else if !strings.Contains(t.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress))
		}
	}

	return errors.Join(errs...)
}

// AnalyzerOptions converts the analysis section. The configuration must have
// passed Validate.
func (c *Config) AnalyzerOptions() (analysis.Options, error) {
	window, err := analysis.ParseWindowFunc(c.Analysis.Window)
	if err != nil {
		return analysis.Options{}, err
	}
	method, err := psd.ParseMethod(c.Analysis.Method)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Order:            c.Analysis.Order,
		NFreq:            c.Analysis.NFreq,
		ThresholdDB:      c.Analysis.ThresholdDB,
		Window:           window,
		Method:           method,
		ValidateResidual: c.Analysis.ValidateResidual,
		Bands:            c.Analysis.Bands,
	}, nil
}

// applyEnvOverrides reads ARPSD_* variables. Values that fail to parse are
// ignored with a warning.
func (c *Config) applyEnvOverrides() {
	envString("LOG_LEVEL", &c.LogLevel)
	envFloat("SAMPLE_RATE", &c.Input.SampleRate)

	// ARPSD_ORDER, ARPSD_N_FREQ, ...
	envInt("ORDER", &c.Analysis.Order)
	envInt("N_FREQ", &c.Analysis.NFreq)
	envFloat("THRESHOLD_DB", &c.Analysis.ThresholdDB)
	envString("WINDOW", &c.Analysis.Window)
	envString("METHOD", &c.Analysis.Method)
	envBool("VALIDATE_RESIDUAL", &c.Analysis.ValidateResidual)
	envInt("WORKERS", &c.Analysis.Workers)

	envString("OUTPUT_DIR", &c.Output.Dir)

	envInt("CAPTURE_DEVICE", &c.Capture.Device)

	// ARPSD_WS_*, ARPSD_UDP_*
	envBool("WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("WS_ADDRESS", &c.Transport.WebSocketAddress)
	envBool("UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
}

func lookup(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if ok {
		applog.Debugf("configuration: overriding from %s%s: %s", EnvPrefix, name, val)
	}
	return val, ok
}

func envString(name string, dst *string) {
	if val, ok := lookup(name); ok {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val, ok := lookup(name); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			applog.Warnf("configuration: ignoring %s%s: %v", EnvPrefix, name, err)
			return
		}
		*dst = n
	}
}

func envFloat(name string, dst *float64) {
	if val, ok := lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			applog.Warnf("configuration: ignoring %s%s: %v", EnvPrefix, name, err)
			return
		}
		*dst = f
	}
}

func envBool(name string, dst *bool) {
	if val, ok := lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			applog.Warnf("configuration: ignoring %s%s: %v", EnvPrefix, name, err)
			return
		}
		*dst = b
	}
}

// SPDX-License-Identifier: MIT

// Package config loads the YAML configuration shared by every command.
package config

import (
	"arpsd/internal/analysis"
	"arpsd/internal/report"
)

// Defaults for a configuration without a file.
const (
	DefaultConfigFile = "arpsd.yaml"
	DefaultLogLevel   = "info"

	DefaultOrder       = 16
	DefaultNFreq       = 4096
	DefaultThresholdDB = -40.0
	DefaultWindow      = "hann"
	DefaultMethod      = "direct"
	DefaultMaxOrder    = 32
	DefaultOutputDir   = "data"

	DefaultDeviceID        = -1
	DefaultChannels        = 1
	DefaultCaptureRate     = 44100
	DefaultFramesPerBuffer = 1024
	DefaultCaptureSeconds  = 2.0

	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"

	// Hardware limits for capture.
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
)

// Config is the root of arpsd.yaml.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error
	Input     InputConfig     `yaml:"input"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Output    OutputConfig    `yaml:"output"`
	Capture   CaptureConfig   `yaml:"capture"`
	Transport TransportConfig `yaml:"transport"`
}

// InputConfig describes how signal files are read.
type InputConfig struct {
	// SampleRate is required for text inputs. For WAV files a non-zero value
	// overrides the header rate.
	SampleRate float64 `yaml:"sample_rate"`
}

// AnalysisConfig holds the estimator settings.
type AnalysisConfig struct {
	Order            int             `yaml:"order"`
	NFreq            int             `yaml:"n_freq"`
	ThresholdDB      float64         `yaml:"threshold_db"`
	Window           string          `yaml:"window"`
	Method           string          `yaml:"method"` // direct or fft
	ValidateResidual bool            `yaml:"validate_residual"`
	Workers          int             `yaml:"workers"`   // 0 for one per CPU
	MaxOrder         int             `yaml:"max_order"` // upper bound of the order sweep
	Bands            []analysis.Band `yaml:"bands"`
}

// OutputConfig names where results are written.
type OutputConfig struct {
	Dir   string       `yaml:"dir"`
	Files report.Files `yaml:"files"`
}

// CaptureConfig holds the input device settings.
type CaptureConfig struct {
	Device          int     `yaml:"device"` // -1 for the system default
	Channels        int     `yaml:"channels"`
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	Seconds         float64 `yaml:"seconds"`
	LowLatency      bool    `yaml:"low_latency"`
	GateThreshold   float64 `yaml:"gate_threshold"` // 0 disables the gate
}

// TransportConfig holds the result publishing settings.
type TransportConfig struct {
	Log              bool   `yaml:"log"`
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"`
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Analysis: AnalysisConfig{
			Order:            DefaultOrder,
			NFreq:            DefaultNFreq,
			ThresholdDB:      DefaultThresholdDB,
			Window:           DefaultWindow,
			Method:           DefaultMethod,
			ValidateResidual: true,
			MaxOrder:         DefaultMaxOrder,
		},
		Output: OutputConfig{
			Dir:   DefaultOutputDir,
			Files: report.DefaultFiles(),
		},
		Capture: CaptureConfig{
			Device:          DefaultDeviceID,
			Channels:        DefaultChannels,
			SampleRate:      DefaultCaptureRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Seconds:         DefaultCaptureSeconds,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
	}
}

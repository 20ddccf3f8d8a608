// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"arpsd/internal/analysis"
	"arpsd/internal/audio"
	"arpsd/internal/capture"
	"arpsd/internal/config"
	applog "arpsd/internal/log"
	"arpsd/internal/report"
	"arpsd/internal/transport"
	"arpsd/internal/transport/udp"
	"arpsd/internal/tui"

	"github.com/spf13/cobra"
)

// analysisFlags override the analysis, output and transport sections of the
// configuration. Only flags given on the command line take effect.
type analysisFlags struct {
	order      int
	sampleRate float64
	nFreq      int
	threshold  float64
	window     string
	method     string
	out        string
	workers    int
	noResidual bool
	websocket  string
	udpTarget  string
	tui        bool
	hold       bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVarP(&f.order, "order", "p", config.DefaultOrder, "AR model order")
	fl.Float64VarP(&f.sampleRate, "sample-rate", "s", 0,
		"Sample rate in Hz. Required for text input, overrides the WAV header otherwise")
	fl.IntVarP(&f.nFreq, "nfreq", "n", config.DefaultNFreq, "Number of PSD points from DC to Nyquist")
	fl.Float64VarP(&f.threshold, "threshold", "t", config.DefaultThresholdDB,
		"Peak threshold in dB relative to the strongest bin")
	fl.StringVarP(&f.window, "window", "w", config.DefaultWindow, "Window function applied before estimation")
	fl.StringVar(&f.method, "method", config.DefaultMethod, "PSD evaluation: direct or fft")
	fl.StringVarP(&f.out, "out", "o", config.DefaultOutputDir, "Output directory")
	fl.IntVar(&f.workers, "workers", 0, "Signals analyzed in parallel (0 = one per CPU)")
	fl.BoolVar(&f.noResidual, "no-residual", false, "Skip the residual normality test")
	fl.StringVar(&f.websocket, "websocket", "", "Serve results over WebSocket on this address")
	fl.StringVar(&f.udpTarget, "udp", "", "Send peak packets to this UDP address")
	fl.BoolVar(&f.tui, "tui", false, "Browse the results in a terminal viewer")
	fl.BoolVar(&f.hold, "hold", false, "Keep the WebSocket server running until interrupted")
}

// apply copies every flag the user set into cfg and validates the result.
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("order") {
		cfg.Analysis.Order = f.order
	}
	if changed("sample-rate") {
		cfg.Input.SampleRate = f.sampleRate
	}
	if changed("nfreq") {
		cfg.Analysis.NFreq = f.nFreq
	}
	if changed("threshold") {
		cfg.Analysis.ThresholdDB = f.threshold
	}
	if changed("window") {
		cfg.Analysis.Window = f.window
	}
	if changed("method") {
		cfg.Analysis.Method = f.method
	}
	if changed("out") {
		cfg.Output.Dir = f.out
	}
	if changed("workers") {
		cfg.Analysis.Workers = f.workers
	}
	if f.noResidual {
		cfg.Analysis.ValidateResidual = false
	}
	if f.websocket != "" {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = f.websocket
	}
	if f.udpTarget != "" {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
	return cfg.Validate()
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	flags := &analysisFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Estimate the spectrum of WAV or text signals and extract peaks",
		Long: "Fits a Burg AR model to each input, evaluates its power spectral density,\n" +
			"extracts the peaks and writes the results under the output directory.\n" +
			"Text inputs hold whitespace separated samples and need --sample-rate.",
		Args: requireArgs(1, "input file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			signals := make([]*audio.Signal, 0, len(args))
			for _, path := range args {
				sig, err := audio.Load(path, cfg.Input.SampleRate)
				if err != nil {
					return err
				}
				applog.Debugf("analyze: loaded %s (%d samples, %.0f Hz)", path, len(sig.Samples), sig.SampleRate)
				signals = append(signals, sig)
			}
			return runAnalysis(cmd.Context(), cmd.OutOrStdout(), cfg, flags, signals)
		},
	}
	flags.register(cmd)
	return cmd
}

func newCaptureCmd(root *rootOptions) *cobra.Command {
	flags := &analysisFlags{}
	var (
		device  int
		seconds float64
		gate    float64
		save    string
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record from an input device, then analyze the recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("device") {
				cfg.Capture.Device = device
			}
			if cmd.Flags().Changed("seconds") {
				cfg.Capture.Seconds = seconds
			}
			if cmd.Flags().Changed("gate") {
				cfg.Capture.GateThreshold = gate
			}
			if cmd.Flags().Changed("sample-rate") {
				cfg.Capture.SampleRate = flags.sampleRate
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			if err := capture.Initialize(); err != nil {
				return err
			}
			defer capture.Terminate()

			sig, err := capture.Record(cmd.Context(), captureOptions(cfg.Capture))
			if err != nil {
				return err
			}
			if save != "" {
				if err := writeSignal(save, sig, 24); err != nil {
					return err
				}
				applog.Infof("capture: recording saved to %s", save)
			}
			return runAnalysis(cmd.Context(), cmd.OutOrStdout(), cfg, flags, []*audio.Signal{sig})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&device, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'devices' command to see available devices")
	cmd.Flags().Float64Var(&seconds, "seconds", config.DefaultCaptureSeconds, "Recording length in seconds")
	cmd.Flags().Float64Var(&gate, "gate", 0, "Wait until the input peak exceeds this level (0..1)")
	cmd.Flags().StringVar(&save, "save", "", "Also write the recording to this WAV or text file")
	return cmd
}

func captureOptions(c config.CaptureConfig) capture.Options {
	return capture.Options{
		Device:          c.Device,
		Channels:        c.Channels,
		SampleRate:      c.SampleRate,
		FramesPerBuffer: c.FramesPerBuffer,
		Duration:        time.Duration(c.Seconds * float64(time.Second)),
		LowLatency:      c.LowLatency,
		GateThreshold:   c.GateThreshold,
	}
}

// runAnalysis analyzes signals, saves and publishes every result, prints a
// summary to w and finally opens the viewer when asked to.
func runAnalysis(ctx context.Context, w io.Writer, cfg *config.Config, f *analysisFlags, signals []*audio.Signal) error {
	opts, err := cfg.AnalyzerOptions()
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewAnalyzer(opts)
	if err != nil {
		return err
	}

	out, err := openTransports(cfg.Transport)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			applog.Warnf("transport: close: %v", err)
		}
	}()

	results, err := analysis.RunBatch(ctx, analyzer, signals, cfg.Analysis.Workers)
	if err != nil {
		return err
	}

	for _, res := range results {
		dir, err := report.Save(cfg.Output.Dir, cfg.Output.Files, res)
		if err != nil {
			return err
		}
		if err := out.Send(res); err != nil {
			applog.Warnf("transport: %s: %v", res.Name, err)
		}
		printResult(w, res, dir)
	}

	if f.tui {
		return tui.Run(results)
	}
	if f.hold && cfg.Transport.WebSocketEnabled {
		applog.Infof("analyze: holding WebSocket server open, interrupt to exit")
		<-ctx.Done()
	}
	return nil
}

// openTransports builds the configured publishers. Results are logged when
// Log is set or nothing else is enabled.
func openTransports(c config.TransportConfig) (transport.Multi, error) {
	var out transport.Multi
	if c.Log {
		out = append(out, transport.NewLoggingTransport())
	}
	if c.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(c.WebSocketAddress)
		if err != nil {
			return nil, fmt.Errorf("websocket: %w", err)
		}
		out = append(out, ws)
	}
	if c.UDPEnabled {
		sender, err := udp.NewSender(c.UDPTargetAddress)
		if err != nil {
			out.Close()
			return nil, err
		}
		pub, err := udp.NewPublisher(sender)
		if err != nil {
			sender.Close()
			out.Close()
			return nil, err
		}
		out = append(out, pub)
	}
	if len(out) == 0 {
		out = append(out, transport.NewLoggingTransport())
	}
	return out, nil
}

func printResult(w io.Writer, res *analysis.Result, dir string) {
	s := res.Summary()
	fmt.Fprintf(w, "%s: order %d (requested %d), noise variance %.6g, %d peak(s) -> %s\n",
		res.Name, res.Model.Order, res.Model.Requested, res.Model.Variance, len(res.Peaks), dir)
	if !s.Usable {
		fmt.Fprintln(w, "  model not usable, no spectrum")
		return
	}
	for _, p := range report.ByPower(res.Peaks) {
		fmt.Fprintf(w, "  %10.4f Hz  %8.2f dB  width %.4f Hz\n", p.Frequency, p.PowerDB, p.WidthHz)
	}
}

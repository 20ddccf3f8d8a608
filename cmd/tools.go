// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"arpsd/internal/ar"
	"arpsd/internal/audio"
	"arpsd/internal/capture"
	"arpsd/internal/config"

	"github.com/spf13/cobra"
)

func newOrderCmd(root *rootOptions) *cobra.Command {
	var (
		maxOrder   int
		sampleRate float64
	)
	cmd := &cobra.Command{
		Use:   "order <file>",
		Short: "Score AR orders with the Akaike information criterion",
		Args:  requireArgs(1, "input file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("max-order") {
				cfg.Analysis.MaxOrder = maxOrder
			}
			if cmd.Flags().Changed("sample-rate") {
				cfg.Input.SampleRate = sampleRate
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			sig, err := audio.Load(args[0], cfg.Input.SampleRate)
			if err != nil {
				return err
			}
			sel, err := ar.SelectOrder(sig.Samples, cfg.Analysis.MaxOrder)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tVARIANCE\tAIC\t")
			for _, s := range sel.Scores {
				mark := ""
				if s.Order == sel.Best {
					mark = "*"
				}
				fmt.Fprintf(tw, "%d\t%.6g\t%.4f\t%s\n", s.Order, s.Variance, s.AIC, mark)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if sel.Best == 0 {
				return fmt.Errorf("%s: no order could be scored", sig.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "best order: %d\n", sel.Best)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxOrder, "max-order", config.DefaultMaxOrder, "Highest order to score")
	cmd.Flags().Float64VarP(&sampleRate, "sample-rate", "s", 0, "Sample rate in Hz for text input")
	return cmd
}

func newGenCmd() *cobra.Command {
	var (
		freqs     []float64
		amplitude float64
		rate      float64
		samples   int
		noise     float64
		seed      int64
		bitDepth  int
		out       string
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Write a synthetic test signal made of sinusoids and Gaussian noise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tones := make([]audio.Tone, len(freqs))
			for i, f := range freqs {
				tones[i] = audio.Tone{Frequency: f, Amplitude: amplitude}
			}
			sig, err := audio.Synthesize(tones, rate, samples, noise, seed)
			if err != nil {
				return err
			}
			if err := writeSignal(out, sig, bitDepth); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples at %.0f Hz to %s\n", samples, rate, out)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.Float64SliceVar(&freqs, "freq", []float64{440}, "Tone frequency in Hz, repeat for more tones")
	fl.Float64Var(&amplitude, "amplitude", 0.5, "Amplitude of every tone")
	fl.Float64Var(&rate, "rate", 44100, "Sample rate in Hz")
	fl.IntVar(&samples, "samples", 4096, "Number of samples")
	fl.Float64Var(&noise, "noise", 0, "Standard deviation of the added noise")
	fl.Int64Var(&seed, "seed", 1, "Noise generator seed")
	fl.IntVar(&bitDepth, "bit-depth", 16, "WAV bit depth: 16, 24 or 32")
	fl.StringVarP(&out, "out", "o", "tone.wav", "Output file, .wav or text")
	return cmd
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := capture.Initialize(); err != nil {
				return err
			}
			defer capture.Terminate()
			return capture.ListDevices(cmd.OutOrStdout())
		},
	}
}

// writeSignal writes sig as WAV when path ends in .wav and as text otherwise.
func writeSignal(path string, sig *audio.Signal, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return audio.WriteWAV(f, sig, bitDepth)
	}
	return audio.WriteText(f, sig.Samples)
}

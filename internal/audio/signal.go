// SPDX-License-Identifier: MIT

// Package audio loads, writes and synthesises the single-channel signals fed to
// the analyzer. Samples are float64 in roughly [-1, 1]; WAV input is
// normalised and mixed down to mono on the way in.
package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	applog "arpsd/internal/log"
)

var (
	ErrEmptySignal = errors.New("signal has no samples")
	ErrInvalidWAV  = errors.New("not a valid WAV file")
	ErrSampleRate  = errors.New("sample rate must be positive")
)

// Signal is a named mono sample buffer.
type Signal struct {
	Name       string
	Samples    []float64
	SampleRate float64
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / s.SampleRate
}

// ReadText parses whitespace separated decimal samples. Any token that is not a
// number is an error.
func ReadText(r io.Reader) ([]float64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	var samples []float64
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", len(samples), err)
		}
		samples = append(samples, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}
	return samples, nil
}

// WriteText writes one sample per line.
func WriteText(w io.Writer, samples []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range samples {
		if _, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads a signal from path. Files ending in .wav are decoded as WAV and a
// positive sampleRate overrides the header rate; anything else is read as text
// and needs a positive sampleRate.
func Load(path string, sampleRate float64) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		sig, err := ReadWAV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		sig.Name = name
		if sampleRate > 0 && sampleRate != sig.SampleRate {
			applog.Warnf("audio: %s header rate %.0f Hz overridden with %.0f Hz", path, sig.SampleRate, sampleRate)
			sig.SampleRate = sampleRate
		}
		return sig, nil
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%s: %w (text input carries no rate)", path, ErrSampleRate)
	}
	samples, err := ReadText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	applog.Debugf("audio: loaded %d samples from %s", len(samples), path)
	return &Signal{Name: name, Samples: samples, SampleRate: sampleRate}, nil
}

// Mixdown averages interleaved frames into one channel.
func Mixdown(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for _, v := range interleaved[i*channels : (i+1)*channels] {
			sum += v
		}
		out[i] = sum / float64(channels)
	}
	return out
}

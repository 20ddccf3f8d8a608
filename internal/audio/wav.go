// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"math"

	applog "arpsd/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/floats"
)

// ReadWAV decodes a PCM WAV stream, scales the integer samples to [-1, 1) and
// mixes multi-channel audio down to mono.
func ReadWAV(r io.ReadSeeker) (*Signal, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode PCM: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrEmptySignal
	}

	bitDepth := int(dec.BitDepth)
	channels := max(buf.Format.NumChannels, 1)
	if buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: header says %d", ErrSampleRate, buf.Format.SampleRate)
	}

	raw := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			// 8-bit PCM is unsigned.
			v -= 128
		}
		raw[i] = float64(v)
	}
	floats.Scale(1/math.Pow(2, float64(bitDepth-1)), raw)

	applog.Debugf("audio: WAV %d Hz, %d-bit, %d channel(s), %d frames",
		buf.Format.SampleRate, bitDepth, channels, len(raw)/channels)

	return &Signal{
		Samples:    Mixdown(raw, channels),
		SampleRate: float64(buf.Format.SampleRate),
	}, nil
}

// WriteWAV encodes sig as mono integer PCM. Samples outside [-1, 1] are
// clipped.
func WriteWAV(w io.WriteSeeker, sig *Signal, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	if sig.SampleRate <= 0 {
		return ErrSampleRate
	}
	if len(sig.Samples) == 0 {
		return ErrEmptySignal
	}

	rate := int(math.Round(sig.SampleRate))
	enc := wav.NewEncoder(w, rate, bitDepth, 1, 1)

	full := math.Pow(2, float64(bitDepth-1)) - 1
	data := make([]int, len(sig.Samples))
	clipped := 0
	for i, v := range sig.Samples {
		if v > 1 || v < -1 {
			clipped++
			v = math.Max(-1, math.Min(1, v))
		}
		data[i] = int(math.Round(v * full))
	}
	if clipped > 0 {
		applog.Warnf("audio: clipped %d of %d samples writing %s", clipped, len(data), sig.Name)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode PCM: %w", err)
	}
	return enc.Close()
}

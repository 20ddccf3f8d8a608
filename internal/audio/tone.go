// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"math/rand"
)

// Tone is one sinusoidal component of a synthetic signal.
type Tone struct {
	Frequency float64 // Hz
	Amplitude float64
	Phase     float64 // radians
}

// Synthesize sums tones over n samples and adds zero-mean Gaussian noise with
// standard deviation noise, drawn from a generator seeded with seed.
func Synthesize(tones []Tone, sampleRate float64, n int, noise float64, seed int64) (*Signal, error) {
	if sampleRate <= 0 {
		return nil, ErrSampleRate
	}
	if n <= 0 {
		return nil, ErrEmptySignal
	}
	for _, t := range tones {
		if t.Frequency < 0 || t.Frequency > sampleRate/2 {
			return nil, fmt.Errorf("tone %.2f Hz outside [0, %.2f] Hz", t.Frequency, sampleRate/2)
		}
	}

	samples := make([]float64, n)
	for _, t := range tones {
		step := 2 * math.Pi * t.Frequency / sampleRate
		for i := range samples {
			samples[i] += t.Amplitude * math.Sin(step*float64(i)+t.Phase)
		}
	}
	if noise > 0 {
		rng := rand.New(rand.NewSource(seed))
		for i := range samples {
			samples[i] += noise * rng.NormFloat64()
		}
	}

	return &Signal{Name: "tone", Samples: samples, SampleRate: sampleRate}, nil
}

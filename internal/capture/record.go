// SPDX-License-Identifier: MIT
package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"arpsd/internal/audio"
	applog "arpsd/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Options describes one recording.
type Options struct {
	Device          int // DefaultDevice for the system default
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	Duration        time.Duration
	LowLatency      bool
	GateThreshold   float64 // 0 starts recording immediately
}

func (o Options) validate() error {
	if o.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", o.Channels)
	}
	if o.SampleRate <= 0 {
		return audio.ErrSampleRate
	}
	if o.FramesPerBuffer < 1 {
		return fmt.Errorf("frames per buffer must be positive, got %d", o.FramesPerBuffer)
	}
	if o.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", o.Duration)
	}
	return nil
}

// frames returns the number of frames needed to cover Duration.
func (o Options) frames() int {
	return int(math.Ceil(o.Duration.Seconds() * o.SampleRate))
}

// Record opens a blocking input stream, reads whole buffers until Duration is
// covered and returns the capture mixed down to mono. Cancelling ctx stops the
// recording and returns ctx.Err().
func Record(ctx context.Context, opts Options) (*audio.Signal, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	device, err := inputDevice(opts.Device)
	if err != nil {
		return nil, err
	}
	latency := device.DefaultHighInputLatency
	if opts.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	buffer := make([]float32, opts.FramesPerBuffer*opts.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: opts.Channels,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: opts.FramesPerBuffer,
		SampleRate:      opts.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	want := opts.frames()
	applog.Infof("capture: recording %d frames from %s (%d ch, %.0f Hz)",
		want, device.Name, opts.Channels, opts.SampleRate)

	gate := NewGate(opts.GateThreshold)
	interleaved := make([]float64, 0, (want+opts.FramesPerBuffer)*opts.Channels)
	waiting := true
	for len(interleaved) < want*opts.Channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				applog.Warnf("capture: input overflowed, samples dropped")
				continue
			}
			return nil, fmt.Errorf("read input stream: %w", err)
		}
		if waiting {
			if !gate.Open(buffer) {
				continue
			}
			waiting = false
			applog.Debugf("capture: gate opened at %.4f", gate.Threshold())
		}
		for _, s := range buffer {
			interleaved = append(interleaved, float64(s))
		}
	}

	samples := audio.Mixdown(interleaved, opts.Channels)
	return &audio.Signal{
		Name:       "capture",
		Samples:    samples[:want],
		SampleRate: opts.SampleRate,
	}, nil
}

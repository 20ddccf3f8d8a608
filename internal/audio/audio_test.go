// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arpsd/pkg/utils"
)

func TestReadText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []float64
		wantErr error
	}{
		{"one per line", "1\n-2.5\n3e-2\n", []float64{1, -2.5, 0.03}, nil},
		{"mixed whitespace", "  0.5\t0.25 \n\n 1 ", []float64{0.5, 0.25, 1}, nil},
		{"empty", "", nil, ErrEmptySignal},
		{"blank", " \n\t\n", nil, ErrEmptySignal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadText(strings.NewReader(tt.in))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := ReadText(strings.NewReader("1 2 abc 4")); err == nil {
		t.Error("expected error on non-numeric token")
	}
}

func TestWriteTextRoundTrip(t *testing.T) {
	in := utils.GenerateSineWave(64, 1000, 50, 0.8)
	var buf bytes.Buffer
	if err := WriteText(&buf, in); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != len(in) {
		t.Errorf("%d lines, want %d", n, len(in))
	}
	out, err := ReadText(&buf)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestMixdown(t *testing.T) {
	got := Mixdown([]float64{1, 3, -2, 2, 0.5, 0.5}, 2)
	want := []float64{2, 0, 0.5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, got[i], want[i])
		}
	}

	// A trailing partial frame is dropped.
	if got := Mixdown([]float64{1, 1, 1}, 2); len(got) != 1 {
		t.Errorf("partial frame kept: %v", got)
	}

	mono := []float64{1, 2}
	got = Mixdown(mono, 1)
	got[0] = 9
	if mono[0] != 1 {
		t.Error("mono mixdown aliases its input")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		t.Run(fmt.Sprintf("%dbit", depth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tone.wav")
			sig := &Signal{
				Name:       "tone",
				Samples:    utils.GenerateSineWave(2000, 8000, 440, 0.5),
				SampleRate: 8000,
			}

			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := WriteWAV(f, sig, depth); err != nil {
				t.Fatalf("WriteWAV: %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			got, err := Load(path, 0)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Name != "tone" || got.SampleRate != 8000 {
				t.Errorf("got name %q rate %v", got.Name, got.SampleRate)
			}
			if len(got.Samples) != len(sig.Samples) {
				t.Fatalf("len = %d, want %d", len(got.Samples), len(sig.Samples))
			}
			tol := 2 / math.Pow(2, float64(depth-1))
			for i := range sig.Samples {
				if math.Abs(got.Samples[i]-sig.Samples[i]) > tol {
					t.Fatalf("sample %d = %v, want %v", i, got.Samples[i], sig.Samples[i])
				}
			}

			// An explicit rate overrides the header.
			over, err := Load(path, 16000)
			if err != nil {
				t.Fatalf("Load override: %v", err)
			}
			if over.SampleRate != 16000 {
				t.Errorf("override rate = %v", over.SampleRate)
			}
		})
	}
}

func TestWriteWAVErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sig := &Signal{Samples: []float64{0.1}, SampleRate: 8000}
	if err := WriteWAV(f, sig, 12); err == nil {
		t.Error("expected error for 12-bit")
	}
	if err := WriteWAV(f, &Signal{Samples: []float64{0.1}}, 16); !errors.Is(err, ErrSampleRate) {
		t.Errorf("err = %v, want ErrSampleRate", err)
	}
	if err := WriteWAV(f, &Signal{SampleRate: 8000}, 16); !errors.Is(err, ErrEmptySignal) {
		t.Errorf("err = %v, want ErrEmptySignal", err)
	}
}

func TestReadWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("definitely not RIFF data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, 0); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("err = %v, want ErrInvalidWAV", err)
	}
}

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.txt")
	if err := os.WriteFile(path, []byte("0.1\n0.2\n0.3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, 0); !errors.Is(err, ErrSampleRate) {
		t.Errorf("err = %v, want ErrSampleRate", err)
	}

	sig, err := Load(path, 100)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sig.Name != "signal" || len(sig.Samples) != 3 || sig.SampleRate != 100 {
		t.Errorf("got %+v", sig)
	}
	if d := sig.Duration(); math.Abs(d-0.03) > 1e-12 {
		t.Errorf("Duration = %v, want 0.03", d)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), 100); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSynthesize(t *testing.T) {
	sig, err := Synthesize([]Tone{{Frequency: 10, Amplitude: 1}}, 100, 256, 0, 1)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := utils.GenerateSineWave(256, 100, 10, 1)
	for i := range want {
		if math.Abs(sig.Samples[i]-want[i]) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, sig.Samples[i], want[i])
		}
	}

	a, _ := Synthesize(nil, 100, 64, 0.1, 7)
	b, _ := Synthesize(nil, 100, 64, 0.1, 7)
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatal("same seed produced different noise")
		}
	}

	tests := []struct {
		name  string
		tones []Tone
		fs    float64
		n     int
	}{
		{"zero rate", nil, 0, 10},
		{"no samples", nil, 100, 0},
		{"above nyquist", []Tone{{Frequency: 60, Amplitude: 1}}, 100, 10},
		{"negative frequency", []Tone{{Frequency: -1, Amplitude: 1}}, 100, 10},
	}
	for _, tt := range tests {
		if _, err := Synthesize(tt.tones, tt.fs, tt.n, 0, 0); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

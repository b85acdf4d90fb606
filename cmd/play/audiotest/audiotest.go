// Package audiotest writes small audio fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes 16-bit mono PCM samples into dir/name and returns the
// path.
func WriteWAV(t testing.TB, dir, name string, sampleRate int, samples []int) string {
	t.Helper()
	return write(t, dir, name, sampleRate, 16, samples)
}

// WriteWAV8 encodes 8-bit mono PCM. 8-bit WAV is unsigned, so samples are
// raw bytes with silence at 128.
func WriteWAV8(t testing.TB, dir, name string, sampleRate int, samples []int) string {
	t.Helper()
	return write(t, dir, name, sampleRate, 8, samples)
}

func write(t testing.TB, dir, name string, sampleRate, bitDepth int, samples []int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finish %s: %v", path, err)
	}
	return path
}

// Tone returns a sine wave at the given amplitude (0..32767).
func Tone(sampleRate int, seconds float64, freq float64, amplitude int) []int {
	n := int(float64(sampleRate) * seconds)
	out := make([]int, n)
	for i := range out {
		out[i] = int(float64(amplitude) * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// Square alternates between lo and hi every sample.
func Square(n, lo, hi int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = lo
		if i%2 == 1 {
			out[i] = hi
		}
	}
	return out
}

// Constant returns n samples all equal to v. A constant signal has an
// exactly known mean amplitude.
func Constant(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Package amplitude turns audio files into coarse loudness samples for
// waveform display.
package amplitude

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gigurra/waveseek/cmd/common"
	"github.com/gigurra/waveseek/cmd/play/audiofile"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"
)

// Scale is the value of a full-scale window.
const Scale = 128

// DefaultSamplesPerSecond matches the density of a typical waveform seek bar.
const DefaultSamplesPerSecond = 5

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Extractor produces one amplitude sample per chunk of audio.
type Extractor interface {
	Samples(ctx context.Context, path string) ([]int, error)
}

// Decoder extracts samples by decoding the whole file and averaging the
// absolute amplitude over fixed windows.
type Decoder struct {
	SamplesPerSecond int
}

func New(samplesPerSecond int) *Decoder {
	if samplesPerSecond <= 0 {
		samplesPerSecond = DefaultSamplesPerSecond
	}
	return &Decoder{SamplesPerSecond: samplesPerSecond}
}

// Samples returns values in [0, Scale]. ctx is checked between windows.
func (d *Decoder) Samples(ctx context.Context, path string) ([]int, error) {
	switch mime := common.MimeFromFilename(path); mime {
	case "":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	case common.AudioWAV:
		return d.wavSamples(ctx, path)
	default:
		return d.streamSamples(ctx, path)
	}
}

func (d *Decoder) windowFrames(sampleRate int) int {
	return max(sampleRate/d.SamplesPerSecond, 1)
}

// wavSamples reads integer PCM directly, without float conversion.
func (d *Decoder) wavSamples(ctx context.Context, path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm %s: %w", path, err)
	}

	channels := max(buf.Format.NumChannels, 1)
	// 8-bit wav is unsigned with silence at 128, wider depths are signed.
	offset := 0
	if dec.BitDepth == 8 {
		offset = 128
	}
	fullScale := float64(int(1) << (max(int(dec.BitDepth), 1) - 1))
	window := d.windowFrames(buf.Format.SampleRate)

	frames := len(buf.Data) / channels
	samples := make([]int, 0, frames/window+1)
	var acc accumulator
	for frame := 0; frame < frames; frame++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += math.Abs(float64(buf.Data[frame*channels+ch] - offset))
		}
		acc.add(sum / float64(channels) / fullScale)

		if acc.n == window {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			samples = append(samples, acc.flush())
		}
	}
	if acc.n > 0 {
		samples = append(samples, acc.flush())
	}
	return samples, nil
}

// streamSamples decodes through beep, used for compressed formats.
func (d *Decoder) streamSamples(ctx context.Context, path string) ([]int, error) {
	s, format, err := audiofile.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return d.fromStream(ctx, s, format)
}

func (d *Decoder) fromStream(ctx context.Context, s beep.Streamer, format beep.Format) ([]int, error) {
	window := d.windowFrames(int(format.SampleRate))
	buf := make([][2]float64, window)

	var samples []int
	var acc accumulator
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok := s.Stream(buf[:window-acc.n])
		for _, frame := range buf[:n] {
			acc.add((math.Abs(frame[0]) + math.Abs(frame[1])) / 2)
		}
		if acc.n == window {
			samples = append(samples, acc.flush())
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if acc.n > 0 {
		samples = append(samples, acc.flush())
	}
	return samples, nil
}

// accumulator averages normalized magnitudes over one window.
type accumulator struct {
	sum float64
	n   int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.n++
}

func (a *accumulator) flush() int {
	v := int(math.Round(math.Min(a.sum/float64(a.n), 1) * Scale))
	a.sum, a.n = 0, 0
	return v
}

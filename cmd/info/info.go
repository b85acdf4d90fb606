package info

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/waveseek/cmd/common"
	"github.com/gigurra/waveseek/cmd/play/amplitude"
	"github.com/gigurra/waveseek/cmd/play/audiofile"
	"github.com/gigurra/waveseek/cmd/play/seekbar"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type Params struct {
	Files            []string `pos:"true" required:"true" help:"Audio files to describe."`
	SamplesPerSecond int      `optional:"true" help:"Amplitude samples extracted per second of audio." default:"5"`
	Width            int      `short:"w" optional:"true" help:"Width of the waveform preview. 0 fits the terminal." default:"0"`
	Verbose          bool     `short:"v" optional:"true" help:"Log extraction details to stderr."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "info <file>...",
		Short: "Show audio file details and a waveform preview",
		Long: `Decode audio files and print their format, duration and amplitude profile.

Each file gets a table with its mime type, duration, sample rate, channel
count, the number of amplitude samples and their peak, followed by a one
line waveform preview.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "info: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// FileInfo describes one decoded audio file.
type FileInfo struct {
	Path       string
	Mime       string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Samples    []int
}

// Peak is the largest amplitude sample, 0 for silence.
func (fi FileInfo) Peak() int {
	if len(fi.Samples) == 0 {
		return 0
	}
	return lo.Max(fi.Samples)
}

func run(params *Params, stdout io.Writer) error {
	level := slog.LevelWarn
	if params.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	width := params.Width
	if width <= 0 {
		width = termWidth() - 4
	}

	ctx := context.Background()
	extractor := amplitude.New(params.SamplesPerSecond)

	failed, rendered := 0, 0
	for _, path := range params.Files {
		fi, err := Describe(ctx, extractor, path)
		if err != nil {
			slog.Warn("could not describe file", "file", path, "error", err)
			fmt.Fprintf(os.Stderr, "info: %s: %v\n", path, err)
			failed++
			continue
		}
		if rendered > 0 {
			fmt.Fprintln(stdout)
		}
		render(stdout, fi, width)
		rendered++
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(params.Files))
	}
	return nil
}

// Describe decodes path for its format and extracts its amplitude profile.
func Describe(ctx context.Context, extractor amplitude.Extractor, path string) (FileInfo, error) {
	streamer, format, err := audiofile.Open(path)
	if err != nil {
		return FileInfo{}, err
	}
	duration := format.SampleRate.D(streamer.Len())
	_ = streamer.Close()

	start := time.Now()
	samples, err := extractor.Samples(ctx, path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("extract amplitude: %w", err)
	}
	slog.Debug("extracted amplitude", "file", path, "samples", len(samples), "took", time.Since(start))

	return FileInfo{
		Path:       path,
		Mime:       common.MimeFromFilename(path),
		Duration:   duration,
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Samples:    samples,
	}, nil
}

func render(w io.Writer, fi FileInfo, width int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(filepath.Base(fi.Path))

	t.AppendRows([]table.Row{
		{"Path", fi.Path},
		{"Mime", fi.Mime},
		{"Duration", fi.Duration.Round(time.Millisecond)},
		{"Sample rate", fmt.Sprintf("%d Hz", fi.SampleRate)},
		{"Channels", fi.Channels},
		{"Amplitude samples", len(fi.Samples)},
		{"Peak", fi.Peak()},
	})
	t.Render()

	if preview := seekbar.Preview(fi.Samples, width); preview != "" {
		fmt.Fprintln(w, preview)
	}
}

func termWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

package play

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/waveseek/cmd/common"
	"github.com/gigurra/waveseek/cmd/play/amplitude"
	"github.com/gigurra/waveseek/cmd/play/picker"
	"github.com/gigurra/waveseek/cmd/play/playback"
	"github.com/gigurra/waveseek/cmd/play/viewstate"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type Params struct {
	File             string  `pos:"true" optional:"true" help:"Audio file to open. If omitted, a file is picked interactively."`
	Bars             int     `short:"b" optional:"true" help:"Number of waveform bars. 0 uses one bar per terminal column." default:"0"`
	Height           int     `optional:"true" help:"Height of the seek bar in rows." default:"8"`
	SamplesPerSecond int     `optional:"true" help:"Amplitude samples extracted per second of audio." default:"5"`
	PollMs           int     `optional:"true" help:"Playback position refresh period in milliseconds." default:"33"`
	SeekStepMs       int     `optional:"true" help:"Arrow key seek step in milliseconds." default:"5000"`
	TouchSlop        float64 `optional:"true" help:"Mouse travel in cells before a press becomes a drag." default:"1"`
	OnComplete       string  `optional:"true" help:"What to do when the track ends: hold (stay at the end) or reset (back to the picker)." default:"hold" alts:"hold,reset"`
	CacheSize        int     `optional:"true" help:"Number of extracted waveforms kept in memory." default:"16"`
	Dialog           bool    `short:"d" optional:"true" help:"Open the native file chooser on start."`
	LogFile          string  `optional:"true" help:"Log file. Defaults to waveseek.log in the user cache directory."`
	LogLevel         string  `optional:"true" help:"Log level." default:"info" alts:"debug,info,warn,error"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "play [file]",
		Short: "Play an audio file with a waveform seek bar",
		Long: `Play an audio file in the terminal.

The waveform of the file is drawn as a bar chart that doubles as a seek bar:
click a bar to jump there, or drag along it and release to seek.

Keys: space play/pause, ←/→ seek, c copy the current time, esc back to the
file picker, q quit.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// playerEngine adapts the playback player to the holder's engine contract.
type playerEngine struct {
	*playback.Player
}

func (e playerEngine) Load(path string) (time.Duration, error) {
	track, err := e.Player.Load(path)
	if err != nil {
		return 0, err
	}
	return track.Duration, nil
}

func run(params *Params) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal")
	}

	policy, err := parseCompletionPolicy(params.OnComplete)
	if err != nil {
		return err
	}

	initial := ""
	if params.File != "" {
		initial = picker.ExpandPath(params.File)
		if err := picker.Validate(initial); err != nil {
			return err
		}
	}

	closeLog, err := setupLogging(params.LogFile, params.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	extractor, err := amplitude.NewCached(amplitude.New(params.SamplesPerSecond), params.CacheSize)
	if err != nil {
		return err
	}

	player := playback.New()
	defer player.Close()
	if !playback.AudioAvailable {
		slog.Warn("built without audio output, playback is silent")
	}

	holder := viewstate.New(extractor, playerEngine{player}, viewstate.Options{
		PollInterval: common.Millis(params.PollMs),
		OnComplete:   policy,
	})
	defer holder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := ""
	if initial != "" {
		dir = filepath.Dir(initial)
	}
	m := newModel(ctx, holder, picker.Dialog{Dir: dir}, screenOptions{
		Bars:        params.Bars,
		BarHeight:   params.Height,
		TouchSlop:   params.TouchSlop,
		SeekStep:    common.Millis(params.SeekStepMs),
		OpenDialog:  params.Dialog,
		InitialFile: initial,
	})

	slog.Info("starting", "file", initial, "bars", params.Bars, "policy", policy)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func parseCompletionPolicy(s string) (viewstate.CompletionPolicy, error) {
	switch p := viewstate.CompletionPolicy(s); p {
	case viewstate.CompleteHold, viewstate.CompleteReset:
		return p, nil
	case "":
		return viewstate.CompleteHold, nil
	default:
		return "", fmt.Errorf("invalid --on-complete %q (want hold or reset)", s)
	}
}

// setupLogging points slog at a file, since the terminal belongs to the UI.
func setupLogging(path, level string) (func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	if path == "" {
		path = common.DefaultLogFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	handler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return func() { _ = logFile.Close() }, nil
}

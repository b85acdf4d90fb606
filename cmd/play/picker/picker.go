// Package picker asks the user for an audio file.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gigurra/waveseek/cmd/common"
	"github.com/ncruces/zenity"
)

var ErrNotAudio = errors.New("not a supported audio file")

// Picker returns the chosen file, or "" if the user cancelled.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// Dialog opens the native file chooser restricted to audio files.
type Dialog struct {
	Title string
	Dir   string
}

func (d Dialog) Pick(ctx context.Context) (string, error) {
	title := d.Title
	if title == "" {
		title = "Pick a song"
	}

	opts := []zenity.Option{
		zenity.Context(ctx),
		zenity.Title(title),
		zenity.FileFilters{
			{Name: "Audio files", Patterns: common.AudioPatterns, CaseFold: true},
		},
	}
	if d.Dir != "" {
		opts = append(opts, zenity.Filename(d.Dir+string(filepath.Separator)))
	}

	path, err := zenity.SelectFile(opts...)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("file dialog: %w", err)
	}
	return path, Validate(path)
}

// Validate checks that path names an existing regular file of a supported
// audio type.
func Validate(path string) error {
	if !common.IsAudio(path) {
		return fmt.Errorf("%w: %s", ErrNotAudio, filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// ExpandPath resolves a typed path: trims quotes and whitespace and expands
// a leading ~.
func ExpandPath(input string) string {
	p := strings.TrimSpace(input)
	p = strings.Trim(p, `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

package common

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMimeFromFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"song.mp3", AudioMP3},
		{"SONG.MP3", AudioMP3},
		{"/music/a b/track.flac", AudioFLAC},
		{"take.wav", AudioWAV},
		{"take.wave", AudioWAV},
		{"voice.ogg", AudioOGG},
		{"voice.oga", AudioOGG},
		{"notes.txt", ""},
		{"mp3", ""},
		{"", ""},
	}

	for _, tt := range tests {
		result := MimeFromFilename(tt.input)
		if result != tt.expected {
			t.Errorf("MimeFromFilename(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestAudioPatternsAreAudio(t *testing.T) {
	for _, p := range AudioPatterns {
		name := strings.Replace(p, "*", "file", 1)
		if !IsAudio(name) {
			t.Errorf("pattern %q does not match a supported audio type", p)
		}
	}
}

func TestDefaultLogFile(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	got := DefaultLogFile()
	want := filepath.Join("/tmp/xdg-test", "waveseek", "waveseek.log")
	if got != want {
		t.Errorf("DefaultLogFile() = %q, want %q", got, want)
	}
}

func TestMillis(t *testing.T) {
	tests := []struct {
		in   int
		want time.Duration
	}{
		{33, 33 * time.Millisecond},
		{5000, 5 * time.Second},
		{0, 0},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := Millis(tt.in); got != tt.want {
			t.Errorf("Millis(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

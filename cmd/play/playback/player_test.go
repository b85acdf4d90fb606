package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/gigurra/waveseek/cmd/play/audiofile"
	"github.com/gigurra/waveseek/cmd/play/audiotest"
)

func loadFixture(t *testing.T, seconds int) *Player {
	t.Helper()
	path := audiotest.WriteWAV(t, t.TempDir(), "fixture.wav", 8000, audiotest.Constant(8000*seconds, 1000))
	p := New()
	t.Cleanup(p.Reset)
	if _, err := p.Load(path); err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}
	return p
}

func TestLoad_PreparesTrack(t *testing.T) {
	p := loadFixture(t, 2)

	if got := p.Duration(); got != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", got)
	}
	if got := p.Position(); got != 0 {
		t.Errorf("Position() = %v, want 0", got)
	}
	if p.IsPlaying() {
		t.Error("freshly loaded track should not be playing")
	}

	status := p.Status()
	if status.State != StatePaused {
		t.Errorf("Status().State = %q, want %q", status.State, StatePaused)
	}
	if status.Track == nil || status.Track.Name != "fixture" {
		t.Errorf("Status().Track = %+v, want track named fixture", status.Track)
	}
	if status.Track.ID == "" {
		t.Error("track should have an ID")
	}
}

func TestLoad_RejectsNonAudio(t *testing.T) {
	p := New()
	if _, err := p.Load("/tmp/notes.txt"); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("Load(notes.txt) error = %v, want ErrInvalidFile", err)
	}
}

func TestLoadBytes_Empty(t *testing.T) {
	p := New()
	if _, err := p.LoadBytes("x", "", "audio/wave", nil, 0); !errors.Is(err, ErrEmptyTrack) {
		t.Errorf("LoadBytes(nil) error = %v, want ErrEmptyTrack", err)
	}
}

func TestLoadBytes_UnsupportedMime(t *testing.T) {
	p := New()
	_, err := p.LoadBytes("x", "", "audio/aiff", []byte{1, 2, 3}, 3)
	if !errors.Is(err, audiofile.ErrUnsupportedFormat) {
		t.Errorf("LoadBytes(aiff) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSeek(t *testing.T) {
	p := loadFixture(t, 2)

	tests := []struct {
		name string
		seek time.Duration
		want time.Duration
	}{
		{"middle", 500 * time.Millisecond, 500 * time.Millisecond},
		{"negative clamps to start", -time.Second, 0},
		{"past end clamps to duration", 10 * time.Second, 2 * time.Second},
		{"back to start", 0, 0},
	}

	for _, tt := range tests {
		if err := p.Seek(tt.seek); err != nil {
			t.Fatalf("%s: Seek(%v) error: %v", tt.name, tt.seek, err)
		}
		if got := p.Position(); got != tt.want {
			t.Errorf("%s: Position() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReset_Unloads(t *testing.T) {
	p := loadFixture(t, 1)
	p.Reset()

	if got := p.Duration(); got != 0 {
		t.Errorf("Duration() after reset = %v, want 0", got)
	}
	if p.Track() != nil {
		t.Error("Track() after reset should be nil")
	}
	if err := p.Seek(time.Second); !errors.Is(err, ErrNoTrack) {
		t.Errorf("Seek after reset error = %v, want ErrNoTrack", err)
	}
	if err := p.Play(); !errors.Is(err, ErrNoTrack) {
		t.Errorf("Play after reset error = %v, want ErrNoTrack", err)
	}
	if got := p.Status().State; got != StateEmpty {
		t.Errorf("Status().State = %q, want %q", got, StateEmpty)
	}
}

func TestFinished_IgnoresStaleCallbacks(t *testing.T) {
	p := loadFixture(t, 1)

	calls := 0
	p.OnCompletion(func() { calls++ })

	p.mu.Lock()
	staleID := p.loadID
	p.mu.Unlock()

	// Loading a new track invalidates callbacks from the previous one.
	path := audiotest.WriteWAV(t, t.TempDir(), "other.wav", 8000, audiotest.Constant(8000, 1))
	if _, err := p.Load(path); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	p.finished(staleID)
	if calls != 0 {
		t.Fatalf("stale completion fired %d callbacks, want 0", calls)
	}

	p.mu.Lock()
	currentID := p.loadID
	p.playing = true
	p.mu.Unlock()

	p.finished(currentID)
	if calls != 1 {
		t.Errorf("completion fired %d callbacks, want 1", calls)
	}
	if p.IsPlaying() {
		t.Error("player should not be playing after completion")
	}
}

func TestPlay_CompletesAndStartsOver(t *testing.T) {
	if AudioAvailable {
		t.Skip("needs the silent output of a build without cgo audio")
	}
	p := loadFixture(t, 1)
	t.Cleanup(p.Close)

	done := make(chan struct{}, 1)
	p.OnCompletion(func() { done <- struct{}{} })

	if err := p.Seek(800 * time.Millisecond); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false right after Play()")
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("completion callback never fired")
	}
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after the track ended")
	}
	if got := p.Position(); got != p.Duration() {
		t.Errorf("Position() after completion = %v, want %v", got, p.Duration())
	}

	if err := p.Play(); err != nil {
		t.Fatalf("Play() after completion error: %v", err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false after restarting")
	}
	if got := p.Position(); got >= 500*time.Millisecond {
		t.Errorf("Position() after restart = %v, want the track to start over", got)
	}
}

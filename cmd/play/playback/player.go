// Package playback loads audio files into memory and plays them with
// seek, pause and completion notification.
package playback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gigurra/waveseek/cmd/common"
	"github.com/gigurra/waveseek/cmd/play/audiofile"
	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
)

var (
	ErrNoTrack     = errors.New("no track loaded")
	ErrInvalidFile = errors.New("invalid file: not a supported audio format")
	ErrEmptyTrack  = errors.New("empty track")
)

// Player plays one track at a time.
type Player struct {
	mu sync.Mutex

	out *output

	track    *Track
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl

	queued  bool // ctrl is currently on the output
	playing bool
	loadID  uint64 // Incremented on every load/reset, used to ignore stale callbacks

	onComplete func()
}

// New creates a player with no track loaded.
func New() *Player {
	return &Player{out: newOutput()}
}

// Load reads an audio file from disk into memory and prepares it for
// playback, replacing the current track. The track starts paused at 0.
func (p *Player) Load(path string) (*Track, error) {
	mime := common.MimeFromFilename(path)
	if mime == "" {
		return nil, ErrInvalidFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track: %w", err)
	}

	base := filepath.Base(path)
	return p.LoadBytes(strings.TrimSuffix(base, filepath.Ext(base)), path, mime, data, int64(len(data)))
}

// LoadBytes prepares already read audio data for playback.
func (p *Player) LoadBytes(name, path, mime string, data []byte, size int64) (*Track, error) {
	if len(data) == 0 {
		return nil, ErrEmptyTrack
	}

	streamer, format, err := audiofile.Decode(mime, data)
	if err != nil {
		return nil, err
	}

	track := &Track{
		ID:       uuid.NewString(),
		Name:     name,
		Path:     path,
		Mime:     mime,
		Data:     data,
		Format:   format,
		Duration: format.SampleRate.D(streamer.Len()),
		Size:     size,
		LoadedAt: time.Now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.unloadLocked()
	p.track = track
	p.streamer = streamer
	return track, nil
}

// Play starts or resumes playback. A track that played to the end starts
// over.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return ErrNoTrack
	}
	if p.playing {
		return nil
	}
	if err := p.out.init(); err != nil {
		return fmt.Errorf("init audio output: %w", err)
	}

	if p.queued {
		p.out.lock()
		p.ctrl.Paused = false
		p.out.unlock()
		p.playing = true
		return nil
	}

	p.out.lock()
	atEnd := p.streamer.Position() >= p.streamer.Len()
	if atEnd {
		err := p.streamer.Seek(0)
		if err != nil {
			p.out.unlock()
			return err
		}
	}
	p.out.unlock()

	// Resample to match speaker sample rate
	resampled := beep.Resample(4, p.track.Format.SampleRate, p.out.sampleRate(), p.streamer)
	p.ctrl = &beep.Ctrl{Streamer: resampled, Paused: false}

	id := p.loadID
	p.out.play(beep.Seq(p.ctrl, beep.Callback(func() {
		// Run callback in separate goroutine, the output holds its lock
		// while streaming.
		go p.finished(id)
	})))
	p.queued = true
	p.playing = true
	return nil
}

// finished is called when a track plays to the end. The id is used to
// ignore callbacks from tracks that were reset or replaced in the meantime.
func (p *Player) finished(id uint64) {
	p.mu.Lock()
	if id != p.loadID {
		p.mu.Unlock()
		return
	}
	p.queued = false
	p.playing = false
	p.ctrl = nil
	onComplete := p.onComplete
	p.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

// Pause pauses playback, keeping the position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil {
		p.out.lock()
		p.ctrl.Paused = true
		p.out.unlock()
	}
	p.playing = false
}

// PlayPause toggles playback and returns whether the player is now playing.
func (p *Player) PlayPause() (bool, error) {
	if p.IsPlaying() {
		p.Pause()
		return false, nil
	}
	if err := p.Play(); err != nil {
		return false, err
	}
	return true, nil
}

// Seek sets the playback position, clamped to the track.
func (p *Player) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return ErrNoTrack
	}

	samples := p.track.Format.SampleRate.N(max(position, 0))
	samples = min(samples, p.streamer.Len())

	p.out.lock()
	defer p.out.unlock()
	return p.streamer.Seek(samples)
}

// Reset stops playback and unloads the track.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
}

// unloadLocked stops playback and drops the track (must be called with lock held).
func (p *Player) unloadLocked() {
	p.loadID++
	if p.queued {
		p.out.clear()
	}
	if p.streamer != nil {
		_ = p.streamer.Close()
	}
	p.streamer = nil
	p.ctrl = nil
	p.track = nil
	p.queued = false
	p.playing = false
}

// Close unloads the track and releases the audio output.
func (p *Player) Close() {
	p.Reset()
	p.out.close()
}

// OnCompletion registers a callback fired when a track plays to the end.
// It runs on its own goroutine.
func (p *Player) OnCompletion(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}

	p.out.lock()
	pos := p.streamer.Position()
	p.out.unlock()

	return p.track.Format.SampleRate.D(pos)
}

// Duration returns the total duration of the current track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.track == nil {
		return 0
	}
	return p.track.Duration
}

// IsPlaying returns true if a track is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Track returns the loaded track, or nil.
func (p *Player) Track() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// Status returns the current playback information.
func (p *Player) Status() PlaybackInfo {
	info := PlaybackInfo{
		Position: p.Position(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	info.Track = p.track
	switch {
	case p.track == nil:
		info.State = StateEmpty
	case p.playing:
		info.State = StatePlaying
	default:
		info.State = StatePaused
	}
	if p.track != nil {
		info.Duration = p.track.Duration
	}
	return info
}

package playback

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// Track is an audio file loaded into memory and prepared for playback.
type Track struct {
	ID       string        // Unique identifier
	Name     string        // Display name (file name without extension)
	Path     string        // Original file path
	Mime     string        // Audio mime type derived from the extension
	Data     []byte        // Raw encoded audio in memory
	Format   beep.Format   // Decoded stream format
	Duration time.Duration // Total length
	Size     int64         // Size in bytes
	LoadedAt time.Time     // When the track was loaded
}

// PlaybackState represents the current state of playback.
type PlaybackState string

const (
	StateEmpty   PlaybackState = "empty"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
)

// PlaybackInfo contains information about the current playback state.
type PlaybackInfo struct {
	State    PlaybackState
	Track    *Track
	Position time.Duration // Current position in the track
	Duration time.Duration // Length of the track
}

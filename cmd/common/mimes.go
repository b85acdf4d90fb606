package common

import (
	"path/filepath"
	"strings"
)

const (
	AudioFLAC = "audio/flac"
	AudioMP3  = "audio/mp3"
	AudioOGG  = "audio/ogg"
	AudioWAV  = "audio/wave"
)

// AudioPatterns are the glob patterns offered by file choosers.
var AudioPatterns = []string{"*.mp3", "*.wav", "*.flac", "*.ogg"}

// MimeFromFilename maps a file name onto one of the supported audio mime
// types, or "" if the extension is not a supported audio format.
func MimeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".flac":
		return AudioFLAC
	case ".mp3":
		return AudioMP3
	case ".ogg", ".oga":
		return AudioOGG
	case ".wav", ".wave":
		return AudioWAV
	default:
		return ""
	}
}

// IsAudio reports whether name has a supported audio extension.
func IsAudio(name string) bool {
	return MimeFromFilename(name) != ""
}

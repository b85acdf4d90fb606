package common

import (
	"os"
	"path/filepath"
)

func CacheDir() string {
	return filepath.Join(cacheHome(), "waveseek")
}

// DefaultLogFile is where interactive commands log, since the terminal is
// taken by the UI.
func DefaultLogFile() string {
	dir := CacheDir()
	if cacheHome() == "" {
		dir = filepath.Join(os.TempDir(), "waveseek")
	}
	return filepath.Join(dir, "waveseek.log")
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func cacheHome() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".cache")
	}
	return dir
}

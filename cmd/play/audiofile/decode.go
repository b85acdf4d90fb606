// Package audiofile decodes supported audio files into beep streams.
package audiofile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/gigurra/waveseek/cmd/common"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode opens an in-memory encoded file as a seekable stream. The mime
// type selects the decoder.
func Decode(mime string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	reader := bytes.NewReader(data)

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch mime {
	case common.AudioMP3:
		streamer, format, err = mp3.Decode(nopCloser{reader})
	case common.AudioWAV:
		streamer, format, err = wav.Decode(reader)
	case common.AudioFLAC:
		streamer, format, err = flac.Decode(reader)
	case common.AudioOGG:
		streamer, format, err = vorbis.Decode(nopCloser{reader})
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mime)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", mime, err)
	}
	return streamer, format, nil
}

// Open reads and decodes a file, picking the decoder from its extension.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	mime := common.MimeFromFilename(path)
	if mime == "" {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return Decode(mime, data)
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

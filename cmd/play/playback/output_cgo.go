//go:build (linux && cgo) || windows || darwin

package playback

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// output plays through the system speaker.
type output struct {
	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate
}

func newOutput() *output {
	return &output{
		rate: beep.SampleRate(44100), // Standard sample rate
	}
}

// init initializes the speaker if not already done.
func (o *output) init() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}
	if err := speaker.Init(o.rate, o.rate.N(time.Second/10)); err != nil {
		return err
	}
	o.initialized = true
	return nil
}

func (o *output) sampleRate() beep.SampleRate { return o.rate }

func (o *output) play(s beep.Streamer) { speaker.Play(s) }

func (o *output) lock() {
	if o.ready() {
		speaker.Lock()
	}
}

func (o *output) unlock() {
	if o.ready() {
		speaker.Unlock()
	}
}

// clear drops everything queued on the speaker.
func (o *output) clear() {
	if o.ready() {
		speaker.Clear()
	}
}

func (o *output) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		speaker.Close()
		o.initialized = false
	}
}

func (o *output) ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialized
}

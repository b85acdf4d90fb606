//go:build !((linux && cgo) || windows || darwin)

package playback

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// output is a silent sink for builds without cgo. It drains queued
// streamers in real time so positions and completion behave as they would
// through a speaker.
type output struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	mixer  *beep.Mixer
	stop   chan struct{}
	period time.Duration
}

func newOutput() *output {
	return &output{
		rate:   beep.SampleRate(44100),
		period: 10 * time.Millisecond,
	}
}

func (o *output) init() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stop != nil {
		return nil
	}
	o.mixer = &beep.Mixer{}
	o.stop = make(chan struct{})
	go o.pump(o.stop)
	return nil
}

func (o *output) pump(stop chan struct{}) {
	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	buf := make([][2]float64, o.rate.N(10*o.period))
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			n := min(o.rate.N(now.Sub(last)), len(buf))
			last = now
			o.mu.Lock()
			o.mixer.Stream(buf[:n])
			o.mu.Unlock()
		}
	}
}

func (o *output) sampleRate() beep.SampleRate { return o.rate }

func (o *output) play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mixer != nil {
		o.mixer.Add(s)
	}
}

func (o *output) lock()   { o.mu.Lock() }
func (o *output) unlock() { o.mu.Unlock() }

func (o *output) clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mixer != nil {
		o.mixer.Clear()
	}
}

func (o *output) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		close(o.stop)
		o.stop = nil
	}
}

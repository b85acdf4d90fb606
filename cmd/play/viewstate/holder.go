// Package viewstate holds what the player screen shows and mediates between
// the screen, the amplitude extractor and the playback engine.
package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gigurra/waveseek/cmd/play/amplitude"
)

// DefaultPollInterval refreshes the position about 30 times per second.
const DefaultPollInterval = time.Second / 30

type Phase int

const (
	Idle       Phase = iota // no file selected
	Extracting              // file loaded, waiting for amplitude samples
	Ready                   // samples available
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// CompletionPolicy decides what happens when a track plays to the end.
type CompletionPolicy string

const (
	// CompleteHold stops at the end and keeps the file loaded.
	CompleteHold CompletionPolicy = "hold"
	// CompleteReset returns to Idle.
	CompleteReset CompletionPolicy = "reset"
)

// State is an immutable snapshot. Samples is shared between snapshots and
// must not be modified.
type State struct {
	Phase     Phase
	File      string
	Samples   []int
	IsPlaying bool
	Position  time.Duration
	Duration  time.Duration
}

// Engine is the playback collaborator.
type Engine interface {
	// Load prepares a file and returns its duration.
	Load(path string) (time.Duration, error)
	// PlayPause toggles playback and reports whether it is now playing.
	PlayPause() (bool, error)
	Seek(position time.Duration) error
	Reset()
	Position() time.Duration
	// OnCompletion registers a callback for a track playing to the end.
	OnCompletion(fn func())
}

type Options struct {
	PollInterval time.Duration
	OnComplete   CompletionPolicy
}

// Holder is the only writer of State. Every change goes through update and
// is published to subscribers.
type Holder struct {
	mu    sync.Mutex
	state State

	extractor amplitude.Extractor
	engine    Engine
	opts      Options

	// generation identifies the current selection. Results from older
	// selections are dropped.
	generation    uint64
	cancelExtract context.CancelFunc
	cancelPoll    context.CancelFunc

	subs    map[int]chan State
	nextSub int
	closed  bool
}

func New(extractor amplitude.Extractor, engine Engine, opts Options) *Holder {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.OnComplete == "" {
		opts.OnComplete = CompleteHold
	}
	h := &Holder{
		extractor: extractor,
		engine:    engine,
		opts:      opts,
		subs:      make(map[int]chan State),
	}
	engine.OnCompletion(h.onCompletion)
	return h
}

// State returns the current snapshot.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe returns a channel that receives the current state and then
// every change. Slow readers only see the latest state. The returned func
// unsubscribes.
func (h *Holder) Subscribe() (<-chan State, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan State, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	ch <- h.state

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// OnFilePicked loads ref into the engine and starts extracting its
// amplitude samples. An empty ref is ignored. Extraction runs until it
// completes, ctx is cancelled, or the selection changes.
func (h *Holder) OnFilePicked(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	h.resetLocked()

	duration, err := h.engine.Load(ref)
	if err != nil {
		h.engine.Reset()
		return fmt.Errorf("load %s: %w", ref, err)
	}

	h.generation++
	gen := h.generation
	extractCtx, cancel := context.WithCancel(ctx)
	h.cancelExtract = cancel

	h.updateLocked(func(s *State) {
		*s = State{Phase: Extracting, File: ref, Duration: duration}
	})
	slog.Info("file picked", "file", ref, "duration", duration)

	go h.extract(extractCtx, gen, ref)
	return nil
}

func (h *Holder) extract(ctx context.Context, gen uint64, ref string) {
	start := time.Now()
	samples, err := h.extractor.Samples(ctx, ref)

	h.mu.Lock()
	defer h.mu.Unlock()

	if gen != h.generation {
		slog.Debug("dropping stale extraction result", "file", ref)
		return
	}
	h.cancelExtract = nil

	if err != nil {
		slog.Warn("amplitude extraction failed", "file", ref, "error", err)
		h.resetLocked()
		return
	}

	slog.Debug("amplitude extraction done", "file", ref, "samples", len(samples), "took", time.Since(start))
	h.updateLocked(func(s *State) {
		s.Samples = samples
		s.Phase = Ready
	})
}

// Reset stops playback, cancels extraction and returns to Idle.
func (h *Holder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetLocked()
}

func (h *Holder) resetLocked() {
	if h.state.Phase == Idle && h.cancelExtract == nil && h.cancelPoll == nil {
		return
	}
	h.generation++
	if h.cancelExtract != nil {
		h.cancelExtract()
		h.cancelExtract = nil
	}
	h.stopPollingLocked()
	h.engine.Reset()
	h.updateLocked(func(s *State) {
		*s = State{}
	})
}

// Seek moves playback to position, clamped to the track.
func (h *Holder) Seek(position time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Phase == Idle {
		return
	}
	position = min(max(position, 0), h.state.Duration)
	if err := h.engine.Seek(position); err != nil {
		slog.Warn("seek failed", "position", position, "error", err)
		return
	}
	h.updateLocked(func(s *State) {
		s.Position = position
	})
}

// SeekBy moves playback relative to the current position.
func (h *Holder) SeekBy(delta time.Duration) {
	h.Seek(h.State().Position + delta)
}

// PlayPause toggles playback. Position polling runs only while playing.
func (h *Holder) PlayPause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Phase == Idle {
		return nil
	}

	playing, err := h.engine.PlayPause()
	if err != nil {
		return err
	}

	if playing {
		h.startPollingLocked()
	} else {
		h.stopPollingLocked()
	}
	position := min(h.engine.Position(), h.state.Duration)
	h.updateLocked(func(s *State) {
		s.IsPlaying = playing
		s.Position = position
	})
	return nil
}

func (h *Holder) onCompletion() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.Phase == Idle {
		return
	}
	h.stopPollingLocked()

	if h.opts.OnComplete == CompleteReset {
		h.resetLocked()
		return
	}
	h.updateLocked(func(s *State) {
		s.IsPlaying = false
		s.Position = s.Duration
	})
}

func (h *Holder) startPollingLocked() {
	h.stopPollingLocked()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancelPoll = cancel
	go h.poll(ctx)
}

func (h *Holder) stopPollingLocked() {
	if h.cancelPoll != nil {
		h.cancelPoll()
		h.cancelPoll = nil
	}
}

func (h *Holder) poll(ctx context.Context) {
	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			position := h.engine.Position()

			h.mu.Lock()
			// Polling may have been stopped while we read the engine.
			if ctx.Err() == nil {
				h.updateLocked(func(s *State) {
					s.Position = min(position, s.Duration)
				})
			}
			h.mu.Unlock()
		}
	}
}

// Close resets the holder and closes all subscriptions.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.resetLocked()
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

// updateLocked applies fn and publishes the result (must be called with lock held).
func (h *Holder) updateLocked(fn func(s *State)) {
	fn(&h.state)
	for _, ch := range h.subs {
		publish(ch, h.state)
	}
}

// publish replaces any unread state with s.
func publish(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

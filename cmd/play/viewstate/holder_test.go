package viewstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = time.Millisecond
)

type fakeEngine struct {
	mu         sync.Mutex
	loaded     string
	duration   time.Duration
	position   time.Duration
	playing    bool
	loadErr    error
	resets     int
	seeks      []time.Duration
	onComplete func()
}

func (e *fakeEngine) Load(path string) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadErr != nil {
		return 0, e.loadErr
	}
	e.loaded = path
	e.position = 0
	return e.duration, nil
}

func (e *fakeEngine) PlayPause() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = !e.playing
	return e.playing, nil
}

func (e *fakeEngine) Seek(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	e.seeks = append(e.seeks, position)
	return nil
}

func (e *fakeEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = ""
	e.playing = false
	e.position = 0
	e.resets++
}

func (e *fakeEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) OnCompletion(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

func (e *fakeEngine) setPosition(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = d
}

func (e *fakeEngine) complete() {
	e.mu.Lock()
	e.playing = false
	fn := e.onComplete
	e.mu.Unlock()
	fn()
}

func (e *fakeEngine) resetCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

type result struct {
	samples []int
	err     error
}

// fakeExtractor blocks until a result for the path is delivered.
type fakeExtractor struct {
	mu        sync.Mutex
	results   map[string]chan result
	ignoreCtx bool
	cancelled chan string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		results:   make(map[string]chan result),
		cancelled: make(chan string, 8),
	}
}

func (x *fakeExtractor) ch(path string) chan result {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.results[path]
	if !ok {
		c = make(chan result, 1)
		x.results[path] = c
	}
	return c
}

func (x *fakeExtractor) deliver(path string, samples []int, err error) {
	x.ch(path) <- result{samples: samples, err: err}
}

func (x *fakeExtractor) Samples(ctx context.Context, path string) ([]int, error) {
	c := x.ch(path)
	if x.ignoreCtx {
		r := <-c
		return r.samples, r.err
	}
	select {
	case r := <-c:
		return r.samples, r.err
	case <-ctx.Done():
		x.cancelled <- path
		return nil, ctx.Err()
	}
}

func newHolder(t *testing.T, policy CompletionPolicy) (*Holder, *fakeEngine, *fakeExtractor) {
	t.Helper()
	engine := &fakeEngine{duration: 10 * time.Second}
	extractor := newFakeExtractor()
	h := New(extractor, engine, Options{PollInterval: 2 * time.Millisecond, OnComplete: policy})
	t.Cleanup(h.Close)
	return h, engine, extractor
}

func readyHolder(t *testing.T) (*Holder, *fakeEngine) {
	t.Helper()
	h, engine, extractor := newHolder(t, CompleteHold)
	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))
	extractor.deliver("/music/a.mp3", []int{1, 2, 3}, nil)
	require.Eventually(t, func() bool { return h.State().Phase == Ready }, waitFor, tick)
	return h, engine
}

func TestHolder_StartsIdle(t *testing.T) {
	h, _, _ := newHolder(t, CompleteHold)
	assert.Equal(t, State{}, h.State())
	assert.Equal(t, "idle", h.State().Phase.String())
}

func TestHolder_EmptyPickIgnored(t *testing.T) {
	h, engine, _ := newHolder(t, CompleteHold)
	require.NoError(t, h.OnFilePicked(context.Background(), ""))
	assert.Equal(t, Idle, h.State().Phase)
	assert.Empty(t, engine.loaded)
}

func TestHolder_PickExtractReady(t *testing.T) {
	h, engine, extractor := newHolder(t, CompleteHold)

	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))

	s := h.State()
	assert.Equal(t, Extracting, s.Phase)
	assert.Equal(t, "/music/a.mp3", s.File)
	assert.Equal(t, 10*time.Second, s.Duration)
	assert.Nil(t, s.Samples)
	assert.Equal(t, "/music/a.mp3", engine.loaded)

	extractor.deliver("/music/a.mp3", []int{4, 5, 6}, nil)
	require.Eventually(t, func() bool { return h.State().Phase == Ready }, waitFor, tick)
	assert.Equal(t, []int{4, 5, 6}, h.State().Samples)
}

func TestHolder_LoadFailureStaysIdle(t *testing.T) {
	h, engine, _ := newHolder(t, CompleteHold)
	engine.loadErr = errors.New("corrupt")

	err := h.OnFilePicked(context.Background(), "/music/bad.mp3")
	assert.ErrorContains(t, err, "corrupt")
	assert.Equal(t, Idle, h.State().Phase)
}

func TestHolder_ExtractionFailureReturnsToIdle(t *testing.T) {
	h, engine, extractor := newHolder(t, CompleteHold)
	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))

	extractor.deliver("/music/a.mp3", nil, errors.New("decode failed"))
	require.Eventually(t, func() bool { return h.State().Phase == Idle }, waitFor, tick)
	assert.GreaterOrEqual(t, engine.resetCount(), 1)
}

func TestHolder_ResetCancelsExtraction(t *testing.T) {
	h, _, extractor := newHolder(t, CompleteHold)
	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))

	h.Reset()
	assert.Equal(t, State{}, h.State())

	select {
	case path := <-extractor.cancelled:
		assert.Equal(t, "/music/a.mp3", path)
	case <-time.After(waitFor):
		t.Fatal("extraction was not cancelled")
	}
	assert.Equal(t, Idle, h.State().Phase)
}

func TestHolder_StaleExtractionDropped(t *testing.T) {
	h, _, extractor := newHolder(t, CompleteHold)
	extractor.ignoreCtx = true

	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))
	require.NoError(t, h.OnFilePicked(context.Background(), "/music/b.mp3"))

	extractor.deliver("/music/a.mp3", []int{9, 9, 9}, nil)
	// Give the stale goroutine a chance to (wrongly) publish.
	time.Sleep(20 * time.Millisecond)
	s := h.State()
	assert.Equal(t, Extracting, s.Phase)
	assert.Equal(t, "/music/b.mp3", s.File)

	extractor.deliver("/music/b.mp3", []int{1}, nil)
	require.Eventually(t, func() bool { return h.State().Phase == Ready }, waitFor, tick)
	assert.Equal(t, []int{1}, h.State().Samples)
}

func TestHolder_PlayPausePolling(t *testing.T) {
	h, engine := readyHolder(t)

	require.NoError(t, h.PlayPause())
	assert.True(t, h.State().IsPlaying)

	engine.setPosition(1500 * time.Millisecond)
	require.Eventually(t, func() bool {
		return h.State().Position == 1500*time.Millisecond
	}, waitFor, tick)

	require.NoError(t, h.PlayPause())
	assert.False(t, h.State().IsPlaying)

	engine.setPosition(3 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, h.State().Position, "polling should stop on pause")
}

func TestHolder_PlayPauseIdleIsNoop(t *testing.T) {
	h, engine, _ := newHolder(t, CompleteHold)
	require.NoError(t, h.PlayPause())
	assert.False(t, h.State().IsPlaying)
	assert.False(t, engine.playing)
}

func TestHolder_Seek(t *testing.T) {
	h, engine := readyHolder(t)

	tests := []struct {
		seek time.Duration
		want time.Duration
	}{
		{2 * time.Second, 2 * time.Second},
		{-time.Second, 0},
		{time.Minute, 10 * time.Second},
	}
	for _, tt := range tests {
		h.Seek(tt.seek)
		assert.Equal(t, tt.want, h.State().Position, "Seek(%v)", tt.seek)
		assert.Equal(t, tt.want, engine.Position(), "engine after Seek(%v)", tt.seek)
	}

	h.SeekBy(-3 * time.Second)
	assert.Equal(t, 7*time.Second, h.State().Position)
}

func TestHolder_SeekIdleIsNoop(t *testing.T) {
	h, engine, _ := newHolder(t, CompleteHold)
	h.Seek(time.Second)
	assert.Empty(t, engine.seeks)
	assert.Equal(t, time.Duration(0), h.State().Position)
}

func TestHolder_CompletionHold(t *testing.T) {
	h, engine := readyHolder(t)
	require.NoError(t, h.PlayPause())

	engine.complete()

	s := h.State()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, Ready, s.Phase)
	assert.Equal(t, s.Duration, s.Position)

	// Polling is stopped, so the position stays clamped.
	engine.setPosition(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, s.Duration, h.State().Position)
}

func TestHolder_CompletionReset(t *testing.T) {
	h, engine, extractor := newHolder(t, CompleteReset)
	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))
	extractor.deliver("/music/a.mp3", []int{1}, nil)
	require.Eventually(t, func() bool { return h.State().Phase == Ready }, waitFor, tick)
	require.NoError(t, h.PlayPause())

	engine.complete()
	assert.Equal(t, State{}, h.State())
}

func TestHolder_ResetClearsEverything(t *testing.T) {
	h, engine := readyHolder(t)
	require.NoError(t, h.PlayPause())
	before := engine.resetCount()

	h.Reset()
	assert.Equal(t, State{}, h.State())
	assert.Equal(t, before+1, engine.resetCount())
	assert.Empty(t, engine.loaded)
}

func TestHolder_Subscribe(t *testing.T) {
	h, _, extractor := newHolder(t, CompleteHold)

	states, unsubscribe := h.Subscribe()
	first := <-states
	assert.Equal(t, Idle, first.Phase)

	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))
	extractor.deliver("/music/a.mp3", []int{1, 2}, nil)
	require.Eventually(t, func() bool { return h.State().Phase == Ready }, waitFor, tick)

	// Only the latest state is kept for a slow reader.
	latest := <-states
	assert.Equal(t, Ready, latest.Phase)
	assert.Equal(t, []int{1, 2}, latest.Samples)

	unsubscribe()
	_, open := <-states
	assert.False(t, open)
}

func TestHolder_CloseClosesSubscriptions(t *testing.T) {
	h, _, _ := newHolder(t, CompleteHold)
	states, _ := h.Subscribe()
	<-states

	h.Close()
	_, open := <-states
	assert.False(t, open)

	late, _ := h.Subscribe()
	_, open = <-late
	assert.False(t, open)
	require.NoError(t, h.OnFilePicked(context.Background(), "/music/a.mp3"))
	assert.Equal(t, Idle, h.State().Phase)
}

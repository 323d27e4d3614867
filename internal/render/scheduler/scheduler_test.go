package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"montage/internal/render/compositor"
	"montage/internal/timeline"
)

const (
	testWidth  = 2
	testHeight = 2
	testSize   = testWidth * testHeight * 4
	testFPS    = 10
)

type fakeClip struct {
	id       byte
	duration float64
	tr       *timeline.Transition
	reads    int
	gapAt    map[int]bool
	closed   bool
}

func (f *fakeClip) ReadFrame(_ context.Context, _ float64) ([]byte, error) {
	call := f.reads
	f.reads++
	if f.gapAt[call] {
		return nil, nil
	}
	buf := make([]byte, testSize)
	for i := range buf {
		buf[i] = f.id
	}
	return buf, nil
}

func (f *fakeClip) Duration() float64                { return f.duration }
func (f *fakeClip) Transition() *timeline.Transition { return f.tr }
func (f *fakeClip) Close() error                     { f.closed = true; return nil }

type fakeProvider struct {
	clips []*fakeClip
	calls []int
}

func (p *fakeProvider) Count() int { return len(p.clips) }

func (p *fakeProvider) Renderer(_ context.Context, index int) (ClipSource, error) {
	p.calls = append(p.calls, index)
	return p.clips[index], nil
}

type captureSink struct {
	frames [][]byte
	failAt int
}

func newCaptureSink() *captureSink { return &captureSink{failAt: -1} }

func (s *captureSink) Write(frame []byte) error {
	if s.failAt >= 0 && len(s.frames) == s.failAt {
		return errors.New("sink rejected frame")
	}
	s.frames = append(s.frames, append([]byte(nil), frame...))
	return nil
}

// switchCompositor returns "to" past the midpoint and records every progress
// value it was handed.
type switchCompositor struct {
	progresses []float64
	buf        []byte
	closed     bool
}

func (c *switchCompositor) Blend(from, to []byte, progress float64) ([]byte, error) {
	c.progresses = append(c.progresses, progress)
	if c.buf == nil {
		c.buf = make([]byte, len(from))
	}
	if progress > 0.5 {
		copy(c.buf, to)
	} else {
		copy(c.buf, from)
	}
	return c.buf, nil
}

func (c *switchCompositor) Close() error { c.closed = true; return nil }

func newTestScheduler(t *testing.T, provider *fakeProvider, sink Sink, comp *switchCompositor) *Scheduler {
	t.Helper()
	cfg := Config{
		Width:    testWidth,
		Height:   testHeight,
		FPS:      testFPS,
		Provider: provider,
		Sink:     sink,
	}
	if comp != nil {
		cfg.NewCompositor = func(string, int, int) (compositor.Compositor, error) {
			return comp, nil
		}
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func solid(id byte) []byte {
	buf := make([]byte, testSize)
	for i := range buf {
		buf[i] = id
	}
	return buf
}

func TestRunOverlapsAdjacentClips(t *testing.T) {
	// 20-frame clip into a 30-frame clip over a 10-frame fade: the overlap
	// clamps to 5, so the output is 45 frames, not 50.
	fade := &timeline.Transition{Name: timeline.TransitionFade, Duration: 1.0, Easing: timeline.EasingLinear}
	provider := &fakeProvider{clips: []*fakeClip{
		{id: 1, duration: 2.0, tr: fade},
		{id: 2, duration: 3.0},
	}}
	sink := newCaptureSink()
	comp := &switchCompositor{}
	s := newTestScheduler(t, provider, sink, comp)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FramesWritten != 45 {
		t.Fatalf("frames written = %d, want 45", stats.FramesWritten)
	}
	if len(sink.frames) != 45 {
		t.Fatalf("sink received %d frames, want 45", len(sink.frames))
	}

	wantProgress := []float64{0, 0.2, 0.4, 0.6, 0.8}
	if len(comp.progresses) != len(wantProgress) {
		t.Fatalf("blend calls = %d, want %d", len(comp.progresses), len(wantProgress))
	}
	for i, want := range wantProgress {
		if got := comp.progresses[i]; got != want {
			t.Errorf("blend %d progress = %g, want %g", i, got, want)
		}
	}

	// Frames before the window come from the first clip, frames after it
	// from the second; the switch compositor flips at the eased midpoint.
	if !bytes.Equal(sink.frames[14], solid(1)) {
		t.Error("frame 14 should come from the first clip")
	}
	if !bytes.Equal(sink.frames[15], solid(1)) {
		t.Error("frame 15 (progress 0) should still show the first clip")
	}
	if !bytes.Equal(sink.frames[19], solid(2)) {
		t.Error("frame 19 (progress 0.8) should show the second clip")
	}
	if !bytes.Equal(sink.frames[20], solid(2)) {
		t.Error("frame 20 should come from the second clip")
	}
	if !bytes.Equal(sink.frames[44], solid(2)) {
		t.Error("final frame should come from the second clip")
	}

	if !provider.clips[0].closed || !provider.clips[1].closed {
		t.Error("both clip pipelines should be closed after the run")
	}
	if !comp.closed {
		t.Error("compositor should be closed at the clip boundary")
	}
	wantCalls := []int{0, 1}
	if len(provider.calls) != len(wantCalls) {
		t.Fatalf("provider calls = %v, want %v", provider.calls, wantCalls)
	}
}

func TestRunSingleClipSkipsCompositor(t *testing.T) {
	provider := &fakeProvider{clips: []*fakeClip{{id: 7, duration: 2.4}}}
	sink := newCaptureSink()
	created := false
	cfg := Config{
		Width: testWidth, Height: testHeight, FPS: testFPS,
		Provider: provider,
		Sink:     sink,
		NewCompositor: func(string, int, int) (compositor.Compositor, error) {
			created = true
			return &switchCompositor{}, nil
		},
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FramesWritten != 24 {
		t.Fatalf("frames written = %d, want 24", stats.FramesWritten)
	}
	if created {
		t.Error("no compositor should be created for a single clip")
	}
	if !provider.clips[0].closed {
		t.Error("clip pipeline should be closed after the run")
	}
}

func TestRunCutBoundaryHasNoOverlap(t *testing.T) {
	provider := &fakeProvider{clips: []*fakeClip{
		{id: 1, duration: 1.0, tr: &timeline.Transition{Name: timeline.TransitionCut}},
		{id: 2, duration: 1.0},
	}}
	sink := newCaptureSink()
	comp := &switchCompositor{}
	s := newTestScheduler(t, provider, sink, comp)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FramesWritten != 20 {
		t.Fatalf("frames written = %d, want 20", stats.FramesWritten)
	}
	if len(comp.progresses) != 0 {
		t.Fatalf("cut boundary triggered %d blend calls", len(comp.progresses))
	}
	if !bytes.Equal(sink.frames[9], solid(1)) || !bytes.Equal(sink.frames[10], solid(2)) {
		t.Error("cut should switch clips exactly at the boundary")
	}
}

func TestRunRepeatsLastFrameOnGap(t *testing.T) {
	provider := &fakeProvider{clips: []*fakeClip{
		{id: 3, duration: 2.4, gapAt: map[int]bool{5: true}},
	}}
	sink := newCaptureSink()
	s := newTestScheduler(t, provider, sink, nil)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FramesWritten != 24 {
		t.Fatalf("frames written = %d, want 24", stats.FramesWritten)
	}
	if !bytes.Equal(sink.frames[5], sink.frames[4]) {
		t.Error("gap frame should repeat the previous output")
	}
}

func TestRunSkipsBlendWhenIncomingClipHasGap(t *testing.T) {
	// Same 45-frame layout as the overlap test, but the second clip has no
	// frame for the first two window ticks: those ticks write the outgoing
	// clip unblended and burn no blend call, while the window still advances.
	fade := &timeline.Transition{Name: timeline.TransitionFade, Duration: 1.0, Easing: timeline.EasingLinear}
	provider := &fakeProvider{clips: []*fakeClip{
		{id: 1, duration: 2.0, tr: fade},
		{id: 2, duration: 3.0, gapAt: map[int]bool{0: true, 1: true}},
	}}
	sink := newCaptureSink()
	comp := &switchCompositor{}
	s := newTestScheduler(t, provider, sink, comp)

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FramesWritten != 45 {
		t.Fatalf("frames written = %d, want 45", stats.FramesWritten)
	}

	wantProgress := []float64{0.4, 0.6, 0.8}
	if len(comp.progresses) != len(wantProgress) {
		t.Fatalf("blend calls = %d, want %d", len(comp.progresses), len(wantProgress))
	}
	for i, want := range wantProgress {
		if got := comp.progresses[i]; got != want {
			t.Errorf("blend %d progress = %g, want %g", i, got, want)
		}
	}

	// The gap ticks pass the outgoing clip through untouched.
	if !bytes.Equal(sink.frames[15], solid(1)) || !bytes.Equal(sink.frames[16], solid(1)) {
		t.Error("gap ticks should write the outgoing clip unblended")
	}
	if !bytes.Equal(sink.frames[19], solid(2)) {
		t.Error("frame 19 (progress 0.8) should show the second clip")
	}
	if !bytes.Equal(sink.frames[44], solid(2)) {
		t.Error("final frame should come from the second clip")
	}
}

func TestRunEmitsBlackWhenFirstFrameMissing(t *testing.T) {
	provider := &fakeProvider{clips: []*fakeClip{
		{id: 3, duration: 0.3, gapAt: map[int]bool{0: true}},
	}}
	sink := newCaptureSink()
	s := newTestScheduler(t, provider, sink, nil)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(sink.frames[0], make([]byte, testSize)) {
		t.Error("missing first frame should be written as black")
	}
}

func TestRunAbortsWhenSinkRejectsFrame(t *testing.T) {
	fade := &timeline.Transition{Name: timeline.TransitionFade, Duration: 1.0}
	provider := &fakeProvider{clips: []*fakeClip{
		{id: 1, duration: 2.0, tr: fade},
		{id: 2, duration: 3.0},
	}}
	sink := newCaptureSink()
	sink.failAt = 3
	s := newTestScheduler(t, provider, sink, &switchCompositor{})

	stats, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected sink failure to abort the run")
	}
	if stats.FramesWritten != 3 {
		t.Errorf("frames written before abort = %d, want 3", stats.FramesWritten)
	}
	if !provider.clips[0].closed || !provider.clips[1].closed {
		t.Error("both clip pipelines must be closed on abort")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	provider := &fakeProvider{clips: []*fakeClip{{id: 1, duration: 10}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestScheduler(t, provider, newCaptureSink(), nil)

	if _, err := s.Run(ctx); err == nil {
		t.Fatal("expected error after context cancellation")
	}
	if !provider.clips[0].closed {
		t.Error("clip pipeline should be closed after cancellation")
	}
}

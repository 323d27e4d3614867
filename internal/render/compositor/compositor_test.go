package compositor_test

import (
	"bytes"
	"errors"
	"testing"

	"montage/internal/render/compositor"
	"montage/internal/services"
	"montage/internal/timeline"
)

func solid(size int, value byte) []byte {
	return bytes.Repeat([]byte{value}, size)
}

func TestCutSelectsByMidpoint(t *testing.T) {
	from := solid(16, 10)
	to := solid(16, 200)
	cut := compositor.Cut{}

	for _, p := range []float64{0, 0.25, 0.5} {
		got, err := cut.Blend(from, to, p)
		if err != nil {
			t.Fatalf("Blend(%v): %v", p, err)
		}
		if !bytes.Equal(got, from) {
			t.Errorf("p=%v: expected the from frame byte-for-byte", p)
		}
	}
	for _, p := range []float64{0.51, 0.9, 1} {
		got, err := cut.Blend(from, to, p)
		if err != nil {
			t.Fatalf("Blend(%v): %v", p, err)
		}
		if !bytes.Equal(got, to) {
			t.Errorf("p=%v: expected the to frame byte-for-byte", p)
		}
	}
}

func TestNewReturnsCutForEmptyName(t *testing.T) {
	c, err := compositor.New("", 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.(compositor.Cut); !ok {
		t.Fatalf("New(\"\") = %T, want Cut", c)
	}
	c, err = compositor.New(timeline.TransitionCut, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.(compositor.Cut); !ok {
		t.Fatalf("New(cut) = %T, want Cut", c)
	}
}

func TestNewRejectsUnknownEffect(t *testing.T) {
	_, err := compositor.New("teleport", 4, 4)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestFadeEndpointsAndMonotonicity(t *testing.T) {
	const w, h = 4, 4
	size := w * h * 4
	from := solid(size, 0)
	to := solid(size, 255)

	fade, err := compositor.New(timeline.TransitionFade, w, h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer fade.Close()

	atZero, err := fade.Blend(from, to, 0)
	if err != nil {
		t.Fatalf("Blend(0): %v", err)
	}
	if !bytes.Equal(atZero, from) {
		t.Error("fade at 0 should equal the from frame")
	}
	atOne, err := fade.Blend(from, to, 1)
	if err != nil {
		t.Fatalf("Blend(1): %v", err)
	}
	if !bytes.Equal(atOne, to) {
		t.Error("fade at 1 should equal the to frame")
	}

	previous := -1
	for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		frame, err := fade.Blend(from, to, p)
		if err != nil {
			t.Fatalf("Blend(%v): %v", p, err)
		}
		if int(frame[0]) < previous {
			t.Errorf("fade value decreased at p=%v", p)
		}
		previous = int(frame[0])
	}
}

func TestEffectOutputNeverAliasesInputs(t *testing.T) {
	const w, h = 2, 2
	size := w * h * 4
	from := solid(size, 100)
	to := solid(size, 50)
	fromCopy := append([]byte(nil), from...)
	toCopy := append([]byte(nil), to...)

	fade, err := compositor.New(timeline.TransitionFade, w, h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := fade.Blend(from, to, 0.5)
	if err != nil {
		t.Fatalf("Blend: %v", err)
	}
	out[0] = 0xEE
	if !bytes.Equal(from, fromCopy) || !bytes.Equal(to, toCopy) {
		t.Fatal("blend output aliases an input buffer")
	}
}

func TestEffectRejectsMismatchedSizes(t *testing.T) {
	fade, err := compositor.New(timeline.TransitionFade, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = fade.Blend(solid(64, 1), solid(32, 1), 0.5)
	if !errors.Is(err, services.ErrCompositor) {
		t.Fatalf("err = %v, want ErrCompositor", err)
	}
}

func TestWipeEndpoints(t *testing.T) {
	const w, h = 64, 8
	size := w * h * 4
	from := solid(size, 10)
	to := solid(size, 240)

	for _, name := range []string{timeline.TransitionWipeLeft, timeline.TransitionWipeRight} {
		wipe, err := compositor.New(name, w, h)
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		start, err := wipe.Blend(from, to, 0)
		if err != nil {
			t.Fatalf("Blend(0): %v", err)
		}
		if !bytes.Equal(start, from) {
			t.Errorf("%s at 0 should equal the from frame", name)
		}
		end, err := wipe.Blend(from, to, 1)
		if err != nil {
			t.Fatalf("Blend(1): %v", err)
		}
		if !bytes.Equal(end, to) {
			t.Errorf("%s at 1 should equal the to frame", name)
		}
		mid, err := wipe.Blend(from, to, 0.5)
		if err != nil {
			t.Fatalf("Blend(0.5): %v", err)
		}
		if bytes.Equal(mid, from) || bytes.Equal(mid, to) {
			t.Errorf("%s at 0.5 should mix both inputs", name)
		}
		_ = wipe.Close()
	}
}

package source

import (
	"context"
	"fmt"
)

// Windowed bounds a producer to its layer time window. Outside the window
// the producer is never invoked; inside, it receives progress normalized to
// [0,1] over the window.
type Windowed struct {
	src      Source
	start    float64
	duration float64
}

// NewWindowed wraps src with the [start, start+duration) window.
func NewWindowed(src Source, start, duration float64) (*Windowed, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source")
	}
	if start < 0 || duration <= 0 {
		return nil, fmt.Errorf("invalid window [%v, %v)", start, start+duration)
	}
	return &Windowed{src: src, start: start, duration: duration}, nil
}

// Active reports whether clip-relative time t falls inside the window.
func (w *Windowed) Active(t float64) bool {
	return t >= w.start && t < w.start+w.duration
}

// ReadAt reads the producer at clip-relative time t. Outside the window it
// returns (nil, false, nil) without touching the producer.
func (w *Windowed) ReadAt(ctx context.Context, t float64) ([]byte, bool, error) {
	if !w.Active(t) {
		return nil, false, nil
	}
	progress := (t - w.start) / w.duration
	frame, err := w.src.ReadFrame(ctx, progress)
	if err != nil {
		return nil, true, err
	}
	return frame, true, nil
}

// Close releases the underlying producer.
func (w *Windowed) Close() error {
	return w.src.Close()
}

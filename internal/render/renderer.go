package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"montage/internal/logging"
	"montage/internal/render/source"
	"montage/internal/timeline"
)

// Options fixes the output raster for a run.
type Options struct {
	Width  int
	Height int
	FPS    float64
}

// FrameSize returns the byte length of one output frame.
func (o Options) FrameSize() int {
	return o.Width * o.Height * source.Channels
}

// layerState pairs a windowed source with the last frame it produced, so a
// transient gap can repeat the previous buffer.
type layerState struct {
	index    int
	windowed *source.Windowed
	last     []byte
}

// Renderer composes one clip's layers into one frame per requested time.
type Renderer struct {
	clip   timeline.Clip
	opts   Options
	layers []*layerState
	// surface is allocated on the first tick with more than one active
	// layer; single-layer clips never pay for it.
	surface []byte
	logger  *slog.Logger
}

// setupWorkers bounds layer-initialization fan-out, since each video layer
// setup starts an external decode process.
const setupWorkers = 4

// NewRenderer constructs frame sources for every visual layer of clip.
// Layer setup is I/O-bound and independent, so it fans out across a small
// worker pool; reads afterwards are strictly sequential.
func NewRenderer(ctx context.Context, clip timeline.Clip, registry *source.Registry, opts Options, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	visual := clip.VisualLayers()
	if len(visual) == 0 {
		return nil, errors.New("clip has no visual layers")
	}

	states := make([]*layerState, len(visual))
	errs := make([]error, len(visual))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := setupWorkers
	if workers > len(visual) {
		workers = len(visual)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				states[i], errs[i] = setupLayer(ctx, visual[i], i, registry, opts)
			}
		}()
	}
	for i := range visual {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var firstErr error
	for i, err := range errs {
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("layer %d (%s): %w", i, visual[i].Type, err)
		}
	}
	if firstErr != nil {
		for _, state := range states {
			if state != nil {
				_ = state.windowed.Close()
			}
		}
		return nil, firstErr
	}

	return &Renderer{
		clip:   clip,
		opts:   opts,
		layers: states,
		logger: logging.NewComponentLogger(logger, "renderer"),
	}, nil
}

func setupLayer(ctx context.Context, layer timeline.Layer, index int, registry *source.Registry, opts Options) (*layerState, error) {
	src, err := registry.New(ctx, source.Params{
		Layer:  layer,
		Width:  opts.Width,
		Height: opts.Height,
		FPS:    opts.FPS,
	})
	if err != nil {
		return nil, err
	}
	windowed, err := source.NewWindowed(src, layer.Start, layer.Duration)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return &layerState{index: index, windowed: windowed}, nil
}

// Duration returns the clip duration in seconds.
func (r *Renderer) Duration() float64 {
	return r.clip.Duration
}

// Transition returns the clip's outgoing transition, if any.
func (r *Renderer) Transition() *timeline.Transition {
	return r.clip.Transition
}

// ReadFrame returns the composed frame at clip-relative time t. A nil frame
// with nil error means no layer produced pixels this tick; the scheduler
// repeats its last written buffer.
func (r *Renderer) ReadFrame(ctx context.Context, t float64) ([]byte, error) {
	type contribution struct {
		state *layerState
		frame []byte
	}
	active := make([]contribution, 0, len(r.layers))
	for _, state := range r.layers {
		frame, wasActive, err := state.windowed.ReadAt(ctx, t)
		if err != nil {
			return nil, err
		}
		if !wasActive {
			continue
		}
		if frame == nil {
			if state.last == nil {
				r.logger.Warn("layer produced no frame and has no previous one",
					logging.Int(logging.FieldLayer, state.index),
					logging.Float64("clip_time", t))
				continue
			}
			r.logger.Warn("layer produced no frame, repeating previous",
				logging.Int(logging.FieldLayer, state.index),
				logging.Float64("clip_time", t))
			frame = state.last
		}
		state.last = frame
		active = append(active, contribution{state: state, frame: frame})
	}

	switch len(active) {
	case 0:
		return nil, nil
	case 1:
		// One visual layer: its buffer is the frame, no surface compositing.
		return active[0].frame, nil
	}

	if r.surface == nil {
		r.surface = make([]byte, r.opts.FrameSize())
	}
	copy(r.surface, active[0].frame)
	for _, c := range active[1:] {
		alphaOver(r.surface, c.frame)
	}
	return r.surface, nil
}

// Close releases every layer source. All sources get a close attempt; the
// first error wins.
func (r *Renderer) Close() error {
	var firstErr error
	for _, state := range r.layers {
		if err := state.windowed.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// alphaOver draws src onto dst in place using straight-alpha "over"
// compositing, the painter's algorithm step for stacked layers.
func alphaOver(dst, src []byte) {
	for i := 0; i < len(dst); i += source.Channels {
		alpha := uint32(src[i+3])
		switch alpha {
		case 0:
			continue
		case 255:
			copy(dst[i:i+source.Channels], src[i:i+source.Channels])
		default:
			inverse := 255 - alpha
			for c := 0; c < 3; c++ {
				dst[i+c] = byte((uint32(src[i+c])*alpha + uint32(dst[i+c])*inverse) / 255)
			}
			outAlpha := alpha + uint32(dst[i+3])*inverse/255
			if outAlpha > 255 {
				outAlpha = 255
			}
			dst[i+3] = byte(outAlpha)
		}
	}
}

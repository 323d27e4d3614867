package layers

import (
	"context"
	"math"

	"montage/internal/render/source"
)

// staticSource serves one precomputed buffer for every tick. Used by fills,
// gradients, images, and titles, whose pixels do not depend on progress.
type staticSource struct {
	frame []byte
}

func (s *staticSource) ReadFrame(context.Context, float64) ([]byte, error) {
	return s.frame, nil
}

func (s *staticSource) Close() error { return nil }

func newFillColor(_ context.Context, params source.Params) (source.Source, error) {
	color, err := parseHexColor(params.Layer.Color)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, params.FrameSize())
	for i := 0; i < len(frame); i += source.Channels {
		copy(frame[i:], color[:])
	}
	return &staticSource{frame: frame}, nil
}

// Gradient fallbacks when the layer names no colors.
var defaultGradient = [2]string{"#0f2027", "#2c5364"}

func gradientStops(params source.Params) (rgba, rgba, error) {
	colors := params.Layer.Colors
	if len(colors) == 0 {
		colors = defaultGradient[:]
	}
	first, err := parseHexColor(colors[0])
	if err != nil {
		return rgba{}, rgba{}, err
	}
	second, err := parseHexColor(colors[1])
	if err != nil {
		return rgba{}, rgba{}, err
	}
	return first, second, nil
}

func newLinearGradient(_ context.Context, params source.Params) (source.Source, error) {
	first, second, err := gradientStops(params)
	if err != nil {
		return nil, err
	}
	width, height := params.Width, params.Height
	frame := make([]byte, params.FrameSize())
	// Diagonal sweep, top-left to bottom-right.
	span := float64(width + height - 2)
	if span <= 0 {
		span = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := float64(x+y) / span
			pixel := lerpColor(first, second, t)
			offset := (y*width + x) * source.Channels
			copy(frame[offset:], pixel[:])
		}
	}
	return &staticSource{frame: frame}, nil
}

func newRadialGradient(_ context.Context, params source.Params) (source.Source, error) {
	first, second, err := gradientStops(params)
	if err != nil {
		return nil, err
	}
	width, height := params.Width, params.Height
	frame := make([]byte, params.FrameSize())
	cx := float64(width-1) / 2
	cy := float64(height-1) / 2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 {
		maxDist = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			pixel := lerpColor(first, second, t)
			offset := (y*width + x) * source.Channels
			copy(frame[offset:], pixel[:])
		}
	}
	return &staticSource{frame: frame}, nil
}

package compositor

import (
	"fmt"
	"sync"

	"montage/internal/render/source"
	"montage/internal/services"
	"montage/internal/timeline"
)

// kernel writes the blended pixels for one call. dst is exactly frameSize
// bytes and holds no data from previous calls.
type kernel func(dst, from, to []byte, progress float64, width, height int) error

func kernelByName(name string) (kernel, error) {
	switch name {
	case timeline.TransitionFade, timeline.TransitionDissolve:
		return mixKernel, nil
	case timeline.TransitionWipeLeft:
		return wipeKernel(false), nil
	case timeline.TransitionWipeRight:
		return wipeKernel(true), nil
	default:
		return nil, fmt.Errorf("unknown transition effect %q", name)
	}
}

// effect runs a pixel kernel. Scratch output buffers are pooled; each call
// acquires one and either hands it to the caller or returns it to the pool,
// including on the failure path.
type effect struct {
	name      string
	run       kernel
	width     int
	height    int
	frameSize int
	scratch   sync.Pool
}

func newEffect(name string, run kernel, width, height int) *effect {
	frameSize := width * height * source.Channels
	e := &effect{
		name:      name,
		run:       run,
		width:     width,
		height:    height,
		frameSize: frameSize,
	}
	e.scratch.New = func() any {
		return make([]byte, frameSize)
	}
	return e
}

func (e *effect) Blend(from, to []byte, progress float64) ([]byte, error) {
	if len(from) != e.frameSize || len(to) != e.frameSize {
		return nil, services.Wrap(services.ErrCompositor, "compositor", e.name,
			fmt.Errorf("frame size mismatch: from=%d to=%d want=%d", len(from), len(to), e.frameSize))
	}
	dst := e.scratch.Get().([]byte)
	if err := e.run(dst, from, to, progress, e.width, e.height); err != nil {
		e.scratch.Put(dst)
		return nil, services.Wrap(services.ErrCompositor, "compositor", e.name, err)
	}
	// Ownership of dst moves to the caller; the pool gets fresh buffers via
	// New when it runs dry.
	return dst, nil
}

func (e *effect) Close() error { return nil }

// mixKernel is a linear per-channel crossfade.
func mixKernel(dst, from, to []byte, progress float64, _, _ int) error {
	p := clampProgress(progress)
	weight := uint32(p * 256)
	inverse := 256 - weight
	for i := range dst {
		dst[i] = byte((uint32(from[i])*inverse + uint32(to[i])*weight) >> 8)
	}
	return nil
}

// wipeKernel reveals the "to" frame behind a moving vertical edge with a
// small feathered band.
func wipeKernel(fromRight bool) kernel {
	return func(dst, from, to []byte, progress float64, width, height int) error {
		p := clampProgress(progress)
		const featherPx = 24
		edge := p * float64(width+featherPx)
		rowBytes := width * source.Channels
		for y := 0; y < height; y++ {
			row := y * rowBytes
			for x := 0; x < width; x++ {
				fx := float64(x)
				if fromRight {
					fx = float64(width - 1 - x)
				}
				// 0 before the edge, 1 after, linear across the feather band.
				local := (edge - fx) / featherPx
				offset := row + x*source.Channels
				switch {
				case local <= 0:
					copy(dst[offset:offset+source.Channels], from[offset:offset+source.Channels])
				case local >= 1:
					copy(dst[offset:offset+source.Channels], to[offset:offset+source.Channels])
				default:
					weight := uint32(local * 256)
					inverse := 256 - weight
					for c := 0; c < source.Channels; c++ {
						dst[offset+c] = byte((uint32(from[offset+c])*inverse + uint32(to[offset+c])*weight) >> 8)
					}
				}
			}
		}
		return nil
	}
}

func clampProgress(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

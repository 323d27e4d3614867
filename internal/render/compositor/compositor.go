package compositor

import (
	"fmt"

	"montage/internal/services"
	"montage/internal/timeline"
)

// Compositor produces one output frame from a "from"/"to" pair at eased
// progress p in [0,1].
type Compositor interface {
	// Blend never writes into from or to. Any error is fatal: a partially
	// blended frame must not reach the sink.
	Blend(from, to []byte, progress float64) ([]byte, error)
	// Close releases resources held across calls.
	Close() error
}

// New builds the compositor for a named transition at the given raster. The
// cut transition needs no effect state; everything else runs a pixel kernel.
func New(name string, width, height int) (Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "compositor", "invalid raster", fmt.Errorf("%dx%d", width, height))
	}
	if name == timeline.TransitionCut || name == "" {
		return Cut{}, nil
	}
	kernel, err := kernelByName(name)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "compositor", "resolve effect", err)
	}
	return newEffect(name, kernel, width, height), nil
}

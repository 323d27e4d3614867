package source

import (
	"context"
	"fmt"
	"sort"

	"montage/internal/timeline"
)

// Channels is the fixed pixel depth of every frame buffer (RGBA, 8 bits per
// channel).
const Channels = 4

// Source produces one frame per requested tick.
type Source interface {
	// ReadFrame returns the RGBA buffer for normalized progress in [0,1].
	// Returning (nil, nil) means "no frame yet"; the caller recovers by
	// repeating the layer's previous buffer. Errors are fatal.
	ReadFrame(ctx context.Context, progress float64) ([]byte, error)
	// Close releases any external resource (decode process, textures).
	Close() error
}

// Params carries everything a factory needs to set up a producer.
type Params struct {
	Layer  timeline.Layer
	Width  int
	Height int
	FPS    float64
}

// FrameSize returns the byte length of one frame at these dimensions.
func (p Params) FrameSize() int {
	return p.Width * p.Height * Channels
}

// Factory constructs a Source for one layer. Setup may be slow (it can start
// a decode process) and must respect ctx.
type Factory func(ctx context.Context, params Params) (Source, error)

// Registry dispatches layer type tags to factories, so adding a layer type
// never touches the scheduler.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a layer type tag to a factory, replacing any previous
// binding.
func (r *Registry) Register(layerType string, factory Factory) {
	r.factories[layerType] = factory
}

// Types returns the registered tags, sorted for stable output.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds a source for the layer in params.
func (r *Registry) New(ctx context.Context, params Params) (Source, error) {
	factory, ok := r.factories[params.Layer.Type]
	if !ok {
		return nil, fmt.Errorf("no frame source registered for layer type %q", params.Layer.Type)
	}
	return factory(ctx, params)
}

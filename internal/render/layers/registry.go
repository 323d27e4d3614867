package layers

import (
	"montage/internal/render/source"
	"montage/internal/services/ffmpeg"
	"montage/internal/timeline"
)

// DefaultRegistry wires every built-in producer. The audio layer type is
// deliberately absent: it feeds the audio editor, not the pixel pipeline.
func DefaultRegistry(client *ffmpeg.Client) *source.Registry {
	reg := source.NewRegistry()
	reg.Register(timeline.LayerFillColor, newFillColor)
	reg.Register(timeline.LayerLinearGradient, newLinearGradient)
	reg.Register(timeline.LayerRadialGradient, newRadialGradient)
	reg.Register(timeline.LayerImage, newImage)
	reg.Register(timeline.LayerTitle, newTitle)
	reg.Register(timeline.LayerVideo, newVideo(client))
	return reg
}

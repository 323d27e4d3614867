// Package source defines the frame-source contract that bounds each layer
// renderer to its time window inside a clip.
//
// Concrete producers (colors, gradients, images, titles, decoded video) are
// registered in a Registry keyed by the layer type tag; the scheduler and
// clip renderer only ever see the Source interface.
package source

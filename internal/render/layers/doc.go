// Package layers implements the built-in frame-source producers: solid
// fills, gradients, still images, bitmap-font titles, and decoded video.
//
// DefaultRegistry wires every producer into a source.Registry; the render
// pipeline looks them up by the layer type tag and never imports this
// package's internals.
package layers

// Package render owns the per-clip frame assembly and the top-level run
// lifecycle.
//
// A Renderer composes one clip's layer frame sources into a single buffer
// per requested time; Run wires renderers, the transition scheduler, the
// audio editor, and the encode sink into one render pass.
package render

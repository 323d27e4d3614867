// Package frames turns the arbitrarily chunked raw pixel stream of a decode
// process into exact fixed-size frame buffers.
//
// The emitted buffers are byte-identical regardless of how the input was
// chunked; a trailing partial frame at end of stream is dropped silently.
package frames

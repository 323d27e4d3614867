// Package compositor blends two same-sized frame buffers given an eased
// progress value.
//
// The cut variant selects one of the inputs with zero allocation. The effect
// variants run a per-pixel kernel into a fresh output buffer; inputs are
// read-only and never aliased into the result. Per-call scratch resources
// are acquired and released on every exit path so thousands of blends in one
// run cannot grow resident state.
package compositor

// Package scheduler drives the top-level render loop: it interleaves the
// "from" and "to" clip renderers across transition overlap windows, invokes
// the compositor inside the blend window, and writes exactly one frame per
// tick to the backpressured sink.
//
// The frame arithmetic lives in pure functions (ClipFrames, SafeOverlap,
// PlanTick, TotalFrames) so the overlap accounting is unit-testable without
// running a pipeline.
package scheduler

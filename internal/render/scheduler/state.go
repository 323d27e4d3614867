package scheduler

import (
	"math"

	"montage/internal/timeline"
)

// State is the pipeline's mutable position, owned exclusively by the
// scheduler loop and advanced monotonically within a clip pair. FromFrameAt
// is reset only at a clip-boundary advance.
type State struct {
	FromClip      int
	FromFrameAt   int
	ToFrameAt     int
	FramesWritten int64
}

// ClipFrames returns the exact frame count of a clip at fps.
func ClipFrames(duration, fps float64) int {
	return int(math.Round(duration * fps))
}

// TransitionFrames returns the configured blend length in frames. A nil
// transition and the cut transition have no blend window.
func TransitionFrames(tr *timeline.Transition, fps float64) int {
	if tr == nil || tr.Name == timeline.TransitionCut {
		return 0
	}
	return int(math.Round(tr.Duration * fps))
}

// SafeOverlap clamps the blend window so it never consumes more than half
// of either adjacent clip, whatever the configured transition duration.
// toFrames is ignored when hasTo is false (final clip).
func SafeOverlap(fromFrames, toFrames, transitionFrames int, hasTo bool) int {
	limit := fromFrames
	if hasTo && toFrames < limit {
		limit = toFrames
	}
	if transitionFrames < limit {
		limit = transitionFrames
	}
	if limit < 0 {
		limit = 0
	}
	return limit / 2
}

// Plan is the arithmetic of one output tick.
type Plan struct {
	FromFrames        int
	ToFrames          int
	TransitionFrames  int
	SafeOverlap       int
	TransitionFrameAt int

	// Advance means the "from" clip is exhausted; nothing is rendered this
	// tick and the scheduler promotes "to".
	Advance bool
	// Blending means this tick falls inside the overlap window and the "to"
	// renderer must be read.
	Blending bool

	FromTime float64
	ToTime   float64
	// Progress is the raw (un-eased) position inside the blend window.
	Progress float64
}

// PlanTick computes one tick of the state machine from pure inputs.
func PlanTick(state State, fromDuration, toDuration float64, hasTo bool, tr *timeline.Transition, fps float64) Plan {
	plan := Plan{
		FromFrames:       ClipFrames(fromDuration, fps),
		TransitionFrames: TransitionFrames(tr, fps),
	}
	if hasTo {
		plan.ToFrames = ClipFrames(toDuration, fps)
	}
	plan.SafeOverlap = SafeOverlap(plan.FromFrames, plan.ToFrames, plan.TransitionFrames, hasTo)
	plan.TransitionFrameAt = state.FromFrameAt - (plan.FromFrames - plan.SafeOverlap)

	if plan.TransitionFrameAt >= plan.SafeOverlap {
		plan.Advance = true
		return plan
	}

	if plan.FromFrames > 0 {
		plan.FromTime = fromDuration * float64(state.FromFrameAt) / float64(plan.FromFrames)
	}
	if hasTo && plan.SafeOverlap > 0 && plan.TransitionFrameAt >= 0 {
		plan.Blending = true
		plan.Progress = float64(plan.TransitionFrameAt) / float64(plan.SafeOverlap)
		if plan.ToFrames > 0 {
			plan.ToTime = toDuration * float64(state.ToFrameAt) / float64(plan.ToFrames)
		}
	}
	return plan
}

// TotalFrames returns the exact output length of a timeline: the sum of the
// per-clip frame counts minus every frame the overlap windows count twice.
func TotalFrames(tl *timeline.Timeline, fps float64) int {
	total := 0
	for i, clip := range tl.Clips {
		total += ClipFrames(clip.Duration, fps)
		if i+1 < len(tl.Clips) {
			fromFrames := ClipFrames(clip.Duration, fps)
			toFrames := ClipFrames(tl.Clips[i+1].Duration, fps)
			trFrames := TransitionFrames(clip.Transition, fps)
			total -= SafeOverlap(fromFrames, toFrames, trFrames, true)
		}
	}
	return total
}

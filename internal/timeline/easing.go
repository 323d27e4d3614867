package timeline

import "fmt"

// Easing curve names accepted in transition definitions.
const (
	EasingLinear = "linear"
	EasingIn     = "ease-in"
	EasingOut    = "ease-out"
	EasingInOut  = "ease-in-out"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(float64) float64

// EasingByName resolves an easing curve. Unknown names are an error so typos
// fail at validation time, not mid-render.
func EasingByName(name string) (Easing, error) {
	switch name {
	case EasingLinear:
		return func(p float64) float64 { return clamp01(p) }, nil
	case EasingIn:
		return func(p float64) float64 { p = clamp01(p); return p * p }, nil
	case EasingOut:
		return func(p float64) float64 { p = clamp01(p); return p * (2 - p) }, nil
	case EasingInOut, "":
		// Smoothstep.
		return func(p float64) float64 { p = clamp01(p); return p * p * (3 - 2*p) }, nil
	default:
		return nil, fmt.Errorf("unknown easing %q", name)
	}
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

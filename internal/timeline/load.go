package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"montage/internal/services"
)

// Load reads, normalizes, and validates an edit file.
func Load(path string) (*Timeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "timeline", "read edit file", err)
	}
	return Parse(raw)
}

// Parse decodes an edit document from TOML bytes.
func Parse(raw []byte) (*Timeline, error) {
	var tl Timeline
	decoder := toml.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&tl); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, services.Wrap(services.ErrConfiguration, "timeline", "unknown field in edit file", errors.New(strict.String()))
		}
		return nil, services.Wrap(services.ErrConfiguration, "timeline", "decode edit file", err)
	}
	tl.normalize()
	if err := tl.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "timeline", "validate edit file", err)
	}
	return &tl, nil
}

func (t *Timeline) normalize() {
	if t.Defaults.Transition != nil {
		normalizeTransition(t.Defaults.Transition)
	}
	for i := range t.Clips {
		clip := &t.Clips[i]
		if clip.Duration == 0 && t.Defaults.Duration > 0 {
			clip.Duration = t.Defaults.Duration
		}
		if clip.Transition == nil && t.Defaults.Transition != nil {
			// Copy so later mutation of one clip's transition cannot leak.
			tr := *t.Defaults.Transition
			clip.Transition = &tr
		}
		if clip.Transition != nil {
			normalizeTransition(clip.Transition)
		}
		for j := range clip.Layers {
			layer := &clip.Layers[j]
			layer.Type = strings.ToLower(strings.TrimSpace(layer.Type))
			if layer.Duration == 0 {
				layer.Duration = clip.Duration - layer.Start
			}
		}
	}
}

func normalizeTransition(tr *Transition) {
	tr.Name = strings.ToLower(strings.TrimSpace(tr.Name))
	if tr.Name == "" {
		tr.Name = TransitionCut
	}
	tr.Easing = strings.ToLower(strings.TrimSpace(tr.Easing))
	if tr.Easing == "" {
		tr.Easing = EasingInOut
	}
}

// Validate checks every structural invariant of the document.
func (t *Timeline) Validate() error {
	if len(t.Clips) == 0 {
		return errors.New("timeline needs at least one clip")
	}
	if t.Width < 0 || t.Height < 0 {
		return fmt.Errorf("invalid canvas size %dx%d", t.Width, t.Height)
	}
	if t.FPS < 0 {
		return fmt.Errorf("invalid fps %v", t.FPS)
	}
	for i, clip := range t.Clips {
		if err := validateClip(clip); err != nil {
			return fmt.Errorf("clip %d: %w", i, err)
		}
	}
	return nil
}

func validateClip(clip Clip) error {
	if clip.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", clip.Duration)
	}
	if len(clip.VisualLayers()) == 0 {
		return errors.New("needs at least one visual layer")
	}
	for j, layer := range clip.Layers {
		if err := validateLayer(layer, clip.Duration); err != nil {
			return fmt.Errorf("layer %d (%s): %w", j, layer.Type, err)
		}
	}
	if tr := clip.Transition; tr != nil {
		if tr.Duration < 0 {
			return fmt.Errorf("transition duration must be >= 0, got %v", tr.Duration)
		}
		if !KnownTransition(tr.Name) {
			return fmt.Errorf("unknown transition %q", tr.Name)
		}
		if _, err := EasingByName(tr.Easing); err != nil {
			return err
		}
	}
	return nil
}

func validateLayer(layer Layer, clipDuration float64) error {
	if layer.Start < 0 {
		return fmt.Errorf("start must be >= 0, got %v", layer.Start)
	}
	if layer.Duration <= 0 {
		return fmt.Errorf("window duration must be positive, got %v", layer.Duration)
	}
	if end := layer.End(); end > clipDuration+timeEpsilon {
		return fmt.Errorf("window ends at %v, beyond clip duration %v", end, clipDuration)
	}
	switch layer.Type {
	case LayerFillColor:
		if layer.Color == "" {
			return errors.New("color required")
		}
	case LayerLinearGradient, LayerRadialGradient:
		if len(layer.Colors) != 0 && len(layer.Colors) != 2 {
			return fmt.Errorf("gradients take exactly two colors, got %d", len(layer.Colors))
		}
	case LayerImage, LayerVideo, LayerAudio:
		if strings.TrimSpace(layer.Path) == "" {
			return errors.New("path required")
		}
		if layer.CutFrom < 0 || (layer.CutTo != 0 && layer.CutTo <= layer.CutFrom) {
			return fmt.Errorf("invalid cut range [%v, %v]", layer.CutFrom, layer.CutTo)
		}
	case LayerTitle:
		if strings.TrimSpace(layer.Text) == "" {
			return errors.New("text required")
		}
	default:
		return fmt.Errorf("unknown layer type %q", layer.Type)
	}
	return nil
}

// KnownTransition reports whether name maps to a compositor effect.
func KnownTransition(name string) bool {
	switch name {
	case TransitionCut, TransitionFade, TransitionDissolve, TransitionWipeLeft, TransitionWipeRight:
		return true
	default:
		return false
	}
}

// timeEpsilon absorbs float noise when layer windows are computed from clip
// durations.
const timeEpsilon = 1e-9

package timeline

// Layer type discriminators. Adding a type means registering a frame source
// for it; nothing in the scheduler changes.
const (
	LayerFillColor      = "fill-color"
	LayerLinearGradient = "linear-gradient"
	LayerRadialGradient = "radial-gradient"
	LayerImage          = "image"
	LayerTitle          = "title"
	LayerVideo          = "video"
	LayerAudio          = "audio"
)

// Transition names understood by the compositor. TransitionCut is also used
// when no transition is configured.
const (
	TransitionCut       = "cut"
	TransitionFade      = "fade"
	TransitionDissolve  = "dissolve"
	TransitionWipeLeft  = "wipe-left"
	TransitionWipeRight = "wipe-right"
)

// Timeline is the parsed, normalized edit document. It is read-only after
// Load returns.
type Timeline struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	FPS    float64 `toml:"fps"`

	Defaults Defaults `toml:"defaults"`
	Clips    []Clip   `toml:"clips"`
}

// Defaults supplies clip-level fallbacks applied during normalization.
type Defaults struct {
	Transition *Transition `toml:"transition"`
	Duration   float64     `toml:"duration"`
}

// Clip is one timed timeline segment.
type Clip struct {
	Duration   float64     `toml:"duration"`
	Layers     []Layer     `toml:"layers"`
	Transition *Transition `toml:"transition"`
}

// Layer is one visual or audio element with its own time window inside a
// clip. Type-specific parameters share the struct; Validate rejects the
// combinations that make no sense for a given type.
type Layer struct {
	Type     string  `toml:"type"`
	Start    float64 `toml:"start"`
	Duration float64 `toml:"duration"`

	// fill-color, gradients
	Color  string   `toml:"color"`
	Colors []string `toml:"colors"`

	// image, video, audio
	Path    string  `toml:"path"`
	CutFrom float64 `toml:"cut_from"`
	CutTo   float64 `toml:"cut_to"`
	Mute    bool    `toml:"mute"`

	// title
	Text      string `toml:"text"`
	TextColor string `toml:"text_color"`
}

// Transition is a time-bounded blend spanning the boundary between two
// adjacent clips. Duration is clamped at scheduling time to at most half of
// the shorter neighbouring clip.
type Transition struct {
	Name     string  `toml:"name"`
	Duration float64 `toml:"duration"`
	Easing   string  `toml:"easing"`
}

// End returns the layer's clip-relative end offset.
func (l Layer) End() float64 {
	return l.Start + l.Duration
}

// Visual reports whether the layer contributes pixels (audio layers feed the
// audio editor only).
func (l Layer) Visual() bool {
	return l.Type != LayerAudio
}

// VisualLayers returns the clip's pixel-producing layers in paint order.
func (c Clip) VisualLayers() []Layer {
	out := make([]Layer, 0, len(c.Layers))
	for _, layer := range c.Layers {
		if layer.Visual() {
			out = append(out, layer)
		}
	}
	return out
}

// HasAudio reports whether any layer can contribute to the audio track.
func (c Clip) HasAudio() bool {
	for _, layer := range c.Layers {
		if layer.Type == LayerAudio {
			return true
		}
		if layer.Type == LayerVideo && !layer.Mute {
			return true
		}
	}
	return false
}

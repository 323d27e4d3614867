package layers

import (
	"context"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"montage/internal/render/source"
)

// newTitle renders centered text over a transparent background using the
// bundled bitmap face, upscaled so the line spans roughly sixty percent of
// the canvas width. Layers below it stay visible through the transparency.
func newTitle(_ context.Context, params source.Params) (source.Source, error) {
	text := strings.TrimSpace(params.Layer.Text)
	textColor := rgba{0xFF, 0xFF, 0xFF, 0xFF}
	if params.Layer.TextColor != "" {
		parsed, err := parseHexColor(params.Layer.TextColor)
		if err != nil {
			return nil, err
		}
		textColor = parsed
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	if textWidth <= 0 {
		textWidth = 1
	}
	lineHeight := face.Metrics().Height.Ceil()

	// Draw at native face size first.
	strip := image.NewNRGBA(image.Rect(0, 0, textWidth, lineHeight))
	drawer := font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(color.NRGBA{R: textColor[0], G: textColor[1], B: textColor[2], A: textColor[3]}),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(text)

	// Upscale to the target span; nearest neighbour keeps the bitmap face
	// crisp instead of smearing it.
	targetWidth := params.Width * 6 / 10
	if targetWidth < textWidth {
		targetWidth = textWidth
	}
	targetHeight := lineHeight * targetWidth / textWidth
	if targetHeight > params.Height {
		targetHeight = params.Height
		targetWidth = textWidth * targetHeight / lineHeight
	}
	scaled := imaging.Resize(strip, targetWidth, targetHeight, imaging.NearestNeighbor)

	canvas := image.NewNRGBA(image.Rect(0, 0, params.Width, params.Height))
	positioned := imaging.PasteCenter(canvas, scaled)

	frame := make([]byte, params.FrameSize())
	copy(frame, positioned.Pix)
	return &staticSource{frame: frame}, nil
}

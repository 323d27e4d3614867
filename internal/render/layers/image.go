package layers

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"montage/internal/render/source"
)

func newImage(_ context.Context, params source.Params) (source.Source, error) {
	img, err := imaging.Open(params.Layer.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", params.Layer.Path, err)
	}
	// Cover the canvas and center-crop the overflow, matching what the
	// decode filter chain does for video layers.
	fitted := imaging.Fill(img, params.Width, params.Height, imaging.Center, imaging.Lanczos)

	frame := make([]byte, params.FrameSize())
	copy(frame, fitted.Pix)
	return &staticSource{frame: frame}, nil
}

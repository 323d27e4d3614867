package layers

import (
	"context"

	"montage/internal/render/frames"
	"montage/internal/render/source"
	"montage/internal/services"
	"montage/internal/services/ffmpeg"
)

// videoSource streams decoded RGBA frames from an external decode process.
// Frames arrive strictly in order, one per tick; the requested progress is
// implied by the read position, matching the fixed output frame rate the
// decode filter chain was set up with.
type videoSource struct {
	stream  *ffmpeg.DecodeStream
	scanner *frames.Scanner
	ended   bool
}

// newVideo builds the factory bound to a decode client.
func newVideo(client *ffmpeg.Client) source.Factory {
	return func(ctx context.Context, params source.Params) (source.Source, error) {
		layer := params.Layer
		cutTo := layer.CutTo
		if cutTo <= 0 {
			cutTo = layer.CutFrom + layer.Duration
		}
		stream, err := client.StartDecode(ctx, ffmpeg.DecodeOptions{
			Path:    layer.Path,
			Width:   params.Width,
			Height:  params.Height,
			FPS:     params.FPS,
			CutFrom: layer.CutFrom,
			CutTo:   cutTo,
		})
		if err != nil {
			return nil, err
		}
		scanner, err := frames.NewScanner(stream, params.FrameSize())
		if err != nil {
			_ = stream.Close()
			return nil, err
		}
		return &videoSource{stream: stream, scanner: scanner}, nil
	}
}

func (v *videoSource) ReadFrame(ctx context.Context, _ float64) ([]byte, error) {
	if v.ended {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v.scanner.Scan() {
		return v.scanner.Frame(), nil
	}
	v.ended = true
	if err := v.scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrDecodeStream, "video layer", "read pixel stream", err)
	}
	// The pipe ending early is either a clean exit (a transient gap, the
	// caller repeats the previous frame) or a crashed decode process. Reap
	// the process to tell them apart.
	if err := v.stream.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (v *videoSource) Close() error {
	return v.stream.Close()
}

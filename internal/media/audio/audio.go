// Package audio assembles the output audio track. It extracts each clip's
// contributing audio, pads or trims it to the clip duration, and joins the
// per-clip segments with crossfades matching the video overlap windows.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"montage/internal/logging"
	"montage/internal/render/scheduler"
	"montage/internal/services"
	"montage/internal/timeline"
)

const (
	sampleRate = 44100
	segmentExt = ".m4a"
)

// Editor builds one mixed audio track per render run.
type Editor struct {
	ffmpegBinary string
	logger       *slog.Logger
	// run executes one ffmpeg invocation; swapped out in tests.
	run func(ctx context.Context, args []string) error
}

// Option configures the editor.
type Option func(*Editor)

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logging.NewComponentLogger(logger, "audio")
		}
	}
}

// New constructs an editor around the given ffmpeg binary.
func New(ffmpegBinary string, opts ...Option) (*Editor, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	editor := &Editor{
		ffmpegBinary: ffmpegBinary,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(editor)
	}
	if editor.run == nil {
		editor.run = editor.execFFmpeg
	}
	return editor, nil
}

// Edit produces the timeline's audio track under workDir. ok is false when no
// clip contributes audio; the render then muxes video only.
func (e *Editor) Edit(ctx context.Context, tl *timeline.Timeline, workDir string) (string, bool, error) {
	if !timelineHasAudio(tl) {
		e.logger.Info("no audio layers, skipping track")
		return "", false, nil
	}

	dir := filepath.Join(workDir, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, services.Wrap(services.ErrEncodeSink, "audio", "create work dir", err)
	}

	segments := make([]string, len(tl.Clips))
	for i, clip := range tl.Clips {
		out := filepath.Join(dir, fmt.Sprintf("segment_%03d%s", i, segmentExt))
		args := segmentArgs(clip, out)
		e.logger.Info("building audio segment",
			logging.Int(logging.FieldClip, i),
			logging.Bool("silence", len(audioLayers(clip)) == 0))
		if err := e.run(ctx, args); err != nil {
			return "", false, services.Wrap(services.ErrEncodeSink, "audio", fmt.Sprintf("segment for clip %d", i), err)
		}
		segments[i] = out
	}

	track, err := e.mergeSegments(ctx, tl, dir, segments)
	if err != nil {
		return "", false, err
	}
	return track, true, nil
}

func timelineHasAudio(tl *timeline.Timeline) bool {
	for _, clip := range tl.Clips {
		if clip.HasAudio() {
			return true
		}
	}
	return false
}

// audioLayers returns the layers that feed the clip's audio segment.
func audioLayers(clip timeline.Clip) []timeline.Layer {
	out := make([]timeline.Layer, 0, len(clip.Layers))
	for _, layer := range clip.Layers {
		switch layer.Type {
		case timeline.LayerAudio:
			out = append(out, layer)
		case timeline.LayerVideo:
			if !layer.Mute {
				out = append(out, layer)
			}
		}
	}
	return out
}

// segmentArgs builds one ffmpeg invocation producing exactly clip.Duration
// seconds of audio. Clips without audio layers get encoded silence so the
// track stays aligned with the video frames.
func segmentArgs(clip timeline.Clip, out string) []string {
	layers := audioLayers(clip)
	args := []string{"-y", "-v", "error"}

	if len(layers) == 0 {
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", sampleRate),
		)
	} else {
		for _, layer := range layers {
			if layer.CutFrom > 0 {
				args = append(args, "-ss", formatSeconds(layer.CutFrom))
			}
			args = append(args, "-i", layer.Path)
		}
		if len(layers) > 1 {
			args = append(args,
				"-filter_complex",
				fmt.Sprintf("amix=inputs=%d:duration=longest,apad", len(layers)),
			)
		} else {
			args = append(args, "-af", "apad")
		}
	}

	args = append(args,
		"-t", formatSeconds(clip.Duration),
		"-vn",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "2",
		"-c:a", "aac",
		out,
	)
	return args
}

// mergeSegments folds the per-clip segments left to right. Boundaries with a
// video overlap window get an equal-length acrossfade; hard cuts get a plain
// concat.
func (e *Editor) mergeSegments(ctx context.Context, tl *timeline.Timeline, dir string, segments []string) (string, error) {
	current := segments[0]
	for i := 1; i < len(segments); i++ {
		overlap := boundaryOverlapSeconds(tl, i-1)
		out := filepath.Join(dir, fmt.Sprintf("merge_%03d%s", i, segmentExt))
		args := mergeArgs(current, segments[i], overlap, out)
		e.logger.Info("joining audio segments",
			logging.Int(logging.FieldClip, i),
			logging.Float64("crossfade_seconds", overlap))
		if err := e.run(ctx, args); err != nil {
			return "", services.Wrap(services.ErrEncodeSink, "audio", fmt.Sprintf("join at clip %d", i), err)
		}
		current = out
	}
	return current, nil
}

// boundaryOverlapSeconds mirrors the video scheduler's overlap arithmetic so
// the crossfade spans exactly the frames blended on screen.
func boundaryOverlapSeconds(tl *timeline.Timeline, fromIndex int) float64 {
	from := tl.Clips[fromIndex]
	to := tl.Clips[fromIndex+1]
	overlapFrames := scheduler.SafeOverlap(
		scheduler.ClipFrames(from.Duration, tl.FPS),
		scheduler.ClipFrames(to.Duration, tl.FPS),
		scheduler.TransitionFrames(from.Transition, tl.FPS),
		true,
	)
	if overlapFrames == 0 {
		return 0
	}
	return float64(overlapFrames) / tl.FPS
}

func mergeArgs(left, right string, overlap float64, out string) []string {
	args := []string{"-y", "-v", "error", "-i", left, "-i", right}
	if overlap > 0 {
		args = append(args,
			"-filter_complex",
			fmt.Sprintf("[0:a][1:a]acrossfade=d=%s:c1=tri:c2=tri", formatSeconds(overlap)),
		)
	} else {
		args = append(args,
			"-filter_complex",
			"[0:a][1:a]concat=n=2:v=0:a=1",
		)
	}
	args = append(args, "-c:a", "aac", out)
	return args
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (e *Editor) execFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegBinary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

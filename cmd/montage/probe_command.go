package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/render/scheduler"
	"montage/internal/services/ffmpeg"
	"montage/internal/timeline"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var mediaMode bool

	cmd := &cobra.Command{
		Use:   "probe <edit.toml>...",
		Short: "Print an edit file's timeline with computed frame counts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mediaMode {
				return probeMedia(ctx, cmd, args)
			}
			out := cmd.OutOrStdout()
			for _, path := range args {
				tl, err := timeline.Load(path)
				if err != nil {
					return err
				}
				total := scheduler.TotalFrames(tl, tl.FPS)
				fmt.Fprintf(out, "%s: %dx%d @ %g fps, %d clips, %d frames (%s)\n",
					path, tl.Width, tl.Height, tl.FPS, len(tl.Clips), total,
					frameSpan(total, tl.FPS))
				fmt.Fprintln(out, renderTable(
					[]string{"Clip", "Duration", "Frames", "Layers", "Transition", "Overlap"},
					timelineRows(tl),
					[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight},
				))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&mediaMode, "media", false, "Treat arguments as media files and probe their streams")
	return cmd
}

// timelineRows tabulates each clip with the blend window it shares with its
// successor. The overlap column shows the clamped frame count that the run
// will actually use, not the configured transition duration.
func timelineRows(tl *timeline.Timeline) [][]string {
	rows := make([][]string, 0, len(tl.Clips))
	for i, clip := range tl.Clips {
		frames := scheduler.ClipFrames(clip.Duration, tl.FPS)

		transition := "-"
		overlap := "-"
		if i+1 < len(tl.Clips) {
			transition = transitionSummary(clip.Transition)
			toFrames := scheduler.ClipFrames(tl.Clips[i+1].Duration, tl.FPS)
			trFrames := scheduler.TransitionFrames(clip.Transition, tl.FPS)
			overlap = strconv.Itoa(scheduler.SafeOverlap(frames, toFrames, trFrames, true))
		}

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%gs", clip.Duration),
			strconv.Itoa(frames),
			layerSummary(clip.Layers),
			transition,
			overlap,
		})
	}
	return rows
}

func layerSummary(layers []timeline.Layer) string {
	names := make([]string, 0, len(layers))
	for _, layer := range layers {
		names = append(names, layer.Type)
	}
	return strings.Join(names, ", ")
}

func transitionSummary(tr *timeline.Transition) string {
	if tr == nil || tr.Name == timeline.TransitionCut {
		return "cut"
	}
	return fmt.Sprintf("%s %gs", tr.Name, tr.Duration)
}

func frameSpan(frames int, fps float64) string {
	if fps <= 0 {
		return "-"
	}
	seconds := float64(frames) / fps
	return (time.Duration(seconds*float64(time.Second)) / time.Millisecond * time.Millisecond).String()
}

func probeMedia(ctx *commandContext, cmd *cobra.Command, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	client, err := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, ffmpeg.WithLogger(logger))
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(args))
	for _, path := range args {
		info, err := client.Probe(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("probe %s: %w", path, err)
		}
		rows = append(rows, probeRow(path, info))
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"File", "Duration", "Size", "FPS", "Streams"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func probeRow(path string, info ffmpeg.Info) []string {
	size := "-"
	fps := "-"
	if info.HasVideo {
		size = fmt.Sprintf("%dx%d", info.Width, info.Height)
		if info.FPS > 0 {
			fps = strconv.FormatFloat(info.FPS, 'f', -1, 64)
		}
	}
	duration := "-"
	if info.DurationSeconds > 0 {
		duration = (time.Duration(info.DurationSeconds*float64(time.Second)) / time.Millisecond * time.Millisecond).String()
	}
	return []string{path, duration, size, fps, streamSummary(info)}
}

func streamSummary(info ffmpeg.Info) string {
	switch {
	case info.HasVideo && info.HasAudio:
		return "video+audio"
	case info.HasVideo:
		return "video"
	case info.HasAudio:
		return "audio"
	default:
		return "none"
	}
}

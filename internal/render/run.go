package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"montage/internal/history"
	"montage/internal/logging"
	"montage/internal/media/audio"
	"montage/internal/render/layers"
	"montage/internal/render/scheduler"
	"montage/internal/render/source"
	"montage/internal/services"
	"montage/internal/services/ffmpeg"
	"montage/internal/timeline"
	"montage/internal/workdir"
)

// RunConfig carries everything one render run needs. The CLI assembles it
// from the tool config and command flags.
type RunConfig struct {
	EditPath   string
	OutputPath string

	WorkDir   string
	HistoryDB string

	FFmpegBinary  string
	FFprobeBinary string
	Grace         time.Duration

	// Fallback supplies the output raster when the edit file does not set
	// its own.
	Fallback     Options
	Fast         bool
	KeepScratch  bool
	AudioEnabled bool

	Logger *slog.Logger
}

// RunResult summarizes a finished render.
type RunResult struct {
	RunID         string
	OutputPath    string
	FramesWritten int64
	Clips         int
	Elapsed       time.Duration
}

// Run renders one edit file to one output file: lock the working directory,
// record the run, assemble the audio track, stream frames through the
// scheduler into the encode sink, and clean up. A fatal error anywhere
// deletes the partial output.
func Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	started := time.Now()

	tl, err := timeline.Load(cfg.EditPath)
	if err != nil {
		return RunResult{}, err
	}
	opts := resolveOptions(tl, cfg.Fallback)

	manager, err := workdir.New(cfg.WorkDir,
		workdir.WithLogger(logger),
		workdir.WithKeepScratch(cfg.KeepScratch))
	if err != nil {
		return RunResult{}, err
	}
	if err := manager.Acquire(); err != nil {
		return RunResult{}, err
	}
	defer func() {
		if err := manager.Release(); err != nil {
			logger.Warn("releasing run lock", logging.Error(err))
		}
	}()

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return RunResult{}, err
	}
	defer store.Close()

	runID, scratch, err := manager.NewRunScratch()
	if err != nil {
		return RunResult{}, err
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	if err := store.StartRun(ctx, history.Run{
		ID:         runID,
		EditPath:   cfg.EditPath,
		OutputPath: cfg.OutputPath,
		Width:      opts.Width,
		Height:     opts.Height,
		FPS:        opts.FPS,
		Clips:      len(tl.Clips),
	}); err != nil {
		return RunResult{}, err
	}

	stats, runErr := renderTimeline(ctx, cfg, tl, opts, scratch, logger)

	if err := store.FinishRun(ctx, runID, stats.FramesWritten, runErr); err != nil {
		logger.Warn("recording run outcome", logging.Error(err))
	}
	if cleanupErr := manager.Cleanup(scratch); cleanupErr != nil {
		logger.Warn("cleaning scratch directory", logging.Error(cleanupErr))
	}
	if runErr != nil {
		// Never leave a truncated output file behind.
		if removeErr := os.Remove(cfg.OutputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("removing partial output", logging.Error(removeErr))
		}
		return RunResult{RunID: runID, FramesWritten: stats.FramesWritten}, runErr
	}

	result := RunResult{
		RunID:         runID,
		OutputPath:    cfg.OutputPath,
		FramesWritten: stats.FramesWritten,
		Clips:         stats.Clips,
		Elapsed:       time.Since(started),
	}
	logger.Info("render complete",
		logging.String("output", result.OutputPath),
		logging.Int64("frames", result.FramesWritten),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// renderTimeline is the part of the run that happens inside the history row:
// everything from probing the sources to closing the encode sink.
func renderTimeline(ctx context.Context, cfg RunConfig, tl *timeline.Timeline, opts Options, scratch string, logger *slog.Logger) (scheduler.Stats, error) {
	client, err := ffmpeg.New(cfg.FFmpegBinary, cfg.FFprobeBinary,
		ffmpeg.WithLogger(logger),
		ffmpeg.WithGracePeriod(cfg.Grace))
	if err != nil {
		return scheduler.Stats{}, services.Wrap(services.ErrConfiguration, "run", "ffmpeg client", err)
	}

	if err := probeSources(ctx, client, tl, logger); err != nil {
		return scheduler.Stats{}, err
	}

	audioPath := ""
	if cfg.AudioEnabled {
		editor, err := audio.New(cfg.FFmpegBinary, audio.WithLogger(logger))
		if err != nil {
			return scheduler.Stats{}, services.Wrap(services.ErrConfiguration, "run", "audio editor", err)
		}
		track, ok, err := editor.Edit(ctx, tl, scratch)
		if err != nil {
			return scheduler.Stats{}, err
		}
		if ok {
			audioPath = track
		}
	}

	sink, err := client.StartEncode(ctx, ffmpeg.EncodeOptions{
		OutputPath: cfg.OutputPath,
		Width:      opts.Width,
		Height:     opts.Height,
		FPS:        opts.FPS,
		AudioPath:  audioPath,
		Fast:       cfg.Fast,
	})
	if err != nil {
		return scheduler.Stats{}, err
	}

	provider := &clipProvider{
		clips:    tl.Clips,
		registry: layers.DefaultRegistry(client),
		opts:     opts,
		logger:   logger,
	}
	sched, err := scheduler.New(scheduler.Config{
		Width:    opts.Width,
		Height:   opts.Height,
		FPS:      opts.FPS,
		Provider: provider,
		Sink:     sink,
		Logger:   logger,
	})
	if err != nil {
		sink.Abort()
		return scheduler.Stats{}, err
	}

	expected := scheduler.TotalFrames(tl, opts.FPS)
	logger.Info("starting render",
		logging.Int("clips", len(tl.Clips)),
		logging.Int("expected_frames", expected),
		logging.String("raster", fmt.Sprintf("%dx%d@%g", opts.Width, opts.Height, opts.FPS)))

	stats, err := sched.Run(ctx)
	if err != nil {
		sink.Abort()
		return stats, err
	}
	if err := sink.Close(); err != nil {
		return stats, err
	}
	if stats.FramesWritten != int64(expected) {
		return stats, services.Wrap(services.ErrValidation, "run", "frame accounting",
			fmt.Errorf("wrote %d frames, expected %d", stats.FramesWritten, expected))
	}
	return stats, nil
}

// resolveOptions applies the edit file's raster over the configured fallback.
func resolveOptions(tl *timeline.Timeline, fallback Options) Options {
	opts := fallback
	if tl.Width > 0 {
		opts.Width = tl.Width
	}
	if tl.Height > 0 {
		opts.Height = tl.Height
	}
	if tl.FPS > 0 {
		opts.FPS = tl.FPS
	}
	// Keep the timeline consistent for consumers that read it directly.
	tl.Width, tl.Height, tl.FPS = opts.Width, opts.Height, opts.FPS
	return opts
}

// probeSources verifies every file-backed layer before any pipeline starts,
// so a bad path fails the run in milliseconds instead of mid-render.
func probeSources(ctx context.Context, client *ffmpeg.Client, tl *timeline.Timeline, logger *slog.Logger) error {
	for i, clip := range tl.Clips {
		for j, layer := range clip.Layers {
			switch layer.Type {
			case timeline.LayerVideo, timeline.LayerAudio:
			default:
				continue
			}
			info, err := client.Probe(ctx, layer.Path)
			if err != nil {
				return fmt.Errorf("clip %d layer %d: %w", i, j, err)
			}
			if layer.Type == timeline.LayerVideo && !info.HasVideo {
				return services.Wrap(services.ErrValidation, "run", "probe",
					fmt.Errorf("clip %d layer %d: %s has no video stream", i, j, layer.Path))
			}
			if layer.Type == timeline.LayerAudio && !info.HasAudio {
				return services.Wrap(services.ErrValidation, "run", "probe",
					fmt.Errorf("clip %d layer %d: %s has no audio stream", i, j, layer.Path))
			}
			if info.DurationSeconds > 0 && layer.CutFrom >= info.DurationSeconds {
				return services.Wrap(services.ErrValidation, "run", "probe",
					fmt.Errorf("clip %d layer %d: cut_from %g is past the end of %s (%gs)",
						i, j, layer.CutFrom, layer.Path, info.DurationSeconds))
			}
			logger.Debug("probed source",
				logging.Int(logging.FieldClip, i),
				logging.Int(logging.FieldLayer, j),
				logging.String("path", layer.Path),
				logging.Float64("duration_seconds", info.DurationSeconds))
		}
	}
	return nil
}

// clipProvider builds clip renderers on demand for the scheduler.
type clipProvider struct {
	clips    []timeline.Clip
	registry *source.Registry
	opts     Options
	logger   *slog.Logger
}

func (p *clipProvider) Count() int {
	return len(p.clips)
}

func (p *clipProvider) Renderer(ctx context.Context, index int) (scheduler.ClipSource, error) {
	if index < 0 || index >= len(p.clips) {
		return nil, fmt.Errorf("clip index %d out of range", index)
	}
	p.logger.Debug("opening clip pipeline", logging.Int(logging.FieldClip, index))
	return NewRenderer(ctx, p.clips[index], p.registry, p.opts, p.logger)
}

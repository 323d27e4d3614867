package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/render"
	"montage/internal/services"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		fast       bool
		keepTemp   bool
		noAudio    bool
		width      int
		height     int
		fps        float64
	)

	cmd := &cobra.Command{
		Use:   "render <edit.toml>",
		Short: "Render an edit file to a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if strings.TrimSpace(outputPath) == "" {
				return errors.New("--output is required")
			}
			resolvedOutput, err := config.ExpandPath(outputPath)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			runCfg := render.RunConfig{
				EditPath:      args[0],
				OutputPath:    resolvedOutput,
				WorkDir:       cfg.Paths.WorkDir,
				HistoryDB:     cfg.Paths.HistoryDB,
				FFmpegBinary:  cfg.Tools.FFmpeg,
				FFprobeBinary: cfg.Tools.FFprobe,
				Grace:         time.Duration(cfg.Tools.GraceSeconds) * time.Second,
				Fallback: render.Options{
					Width:  cfg.Render.Width,
					Height: cfg.Render.Height,
					FPS:    cfg.Render.FPS,
				},
				Fast:         cfg.Render.Fast || fast,
				KeepScratch:  cfg.Render.KeepScratch || keepTemp,
				AudioEnabled: cfg.Audio.Enabled && !noAudio,
				Logger:       logger,
			}
			// Command-line raster overrides beat both config and edit file.
			if width > 0 {
				runCfg.Fallback.Width = width
			}
			if height > 0 {
				runCfg.Fallback.Height = height
			}
			if fps > 0 {
				runCfg.Fallback.FPS = fps
			}

			result, err := render.Run(cmd.Context(), runCfg)
			if err != nil {
				if hint := services.Hint(err); hint != "" {
					return fmt.Errorf("%w\nhint: %s", err, hint)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %s\n", result.OutputPath)
			fmt.Fprintf(out, "  run     %s\n", result.RunID)
			fmt.Fprintf(out, "  clips   %d\n", result.Clips)
			fmt.Fprintf(out, "  frames  %d\n", result.FramesWritten)
			fmt.Fprintf(out, "  took    %s\n", result.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output video path (required)")
	cmd.Flags().BoolVar(&fast, "fast", false, "Faster, lower quality encode for previewing")
	cmd.Flags().BoolVar(&keepTemp, "keep-temp", false, "Keep the run's scratch directory")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Skip audio track assembly")
	cmd.Flags().IntVar(&width, "width", 0, "Override output width")
	cmd.Flags().IntVar(&height, "height", 0, "Override output height")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Override output frame rate")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

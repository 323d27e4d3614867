package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"montage/internal/logging"
	"montage/internal/services"
)

// EncodeOptions configures the encode/mux process.
type EncodeOptions struct {
	OutputPath string
	Width      int
	Height     int
	FPS        float64
	// AudioPath, when non-empty, is muxed in as the finished audio track.
	AudioPath string
	// Fast trades quality for encode speed (preview renders).
	Fast bool
}

// EncodeSink accepts raw RGBA frames on the encode process's stdin. Write
// blocks until the process accepts the bytes, which is the pipeline's
// backpressure point. A dead process turns the blocked pipe write into an
// immediate EPIPE, so writes fail fast instead of hanging.
type EncodeSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	grace  func() error

	waitOnce sync.Once
	waitErr  error

	mu     sync.Mutex
	closed bool
}

// StartEncode launches the encode/mux process for one run.
func (c *Client) StartEncode(ctx context.Context, opts EncodeOptions) (*EncodeSink, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "encode", "invalid raster", fmt.Errorf("%dx%d@%v", opts.Width, opts.Height, opts.FPS))
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "encode", "output path required", nil)
	}
	args := buildEncodeArgs(opts)
	cmd := exec.CommandContext(ctx, c.ffmpegBinary, args...)
	cmd.SysProcAttr = procGroupAttr()

	stderr := newTailBuffer()
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrEncodeSink, "encode", "stdin pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrEncodeSink, "encode", "start ffmpeg", err)
	}
	c.logger.Debug("encode process started",
		logging.String("output", opts.OutputPath),
		logging.Int("pid", cmd.Process.Pid),
		logging.String("args", strings.Join(args, " ")))

	sink := &EncodeSink{cmd: cmd, stdin: stdin, stderr: stderr}
	grace := c.grace
	sink.grace = func() error { return terminate(cmd, sink.wait, grace) }
	return sink, nil
}

func buildEncodeArgs(opts EncodeOptions) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", fmt.Sprintf("%g", opts.FPS),
		"-i", "pipe:0",
	}
	if opts.AudioPath != "" {
		args = append(args,
			"-i", opts.AudioPath,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:a", "aac",
			"-shortest",
		)
	} else {
		args = append(args, "-map", "0:v:0")
	}
	preset := "medium"
	crf := "18"
	if opts.Fast {
		preset = "ultrafast"
		crf = "28"
	}
	args = append(args,
		"-vf", "format=yuv420p",
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", crf,
		"-movflags", "+faststart",
		opts.OutputPath,
	)
	return args
}

// Write sends one frame, returning only once the process accepted the bytes.
func (s *EncodeSink) Write(frame []byte) error {
	if _, err := s.stdin.Write(frame); err != nil {
		// The process is almost certainly gone; reap it so the error can
		// carry the exit status and captured stderr.
		if exitErr := s.grace(); exitErr != nil {
			err = fmt.Errorf("%w (process: %v)", err, exitErr)
		}
		return services.Wrap(services.ErrEncodeSink, "encode", "write frame", fmt.Errorf("%w%s", err, s.stderr.Suffix()))
	}
	return nil
}

// Close signals end of input and waits for the process to finish muxing.
func (s *EncodeSink) Close() error {
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if alreadyClosed {
		return nil
	}
	if err := s.stdin.Close(); err != nil {
		_ = s.grace()
		return services.Wrap(services.ErrEncodeSink, "encode", "close stdin", err)
	}
	if err := s.wait(); err != nil {
		return services.Wrap(services.ErrEncodeSink, "encode", "mux", fmt.Errorf("%w%s", err, s.stderr.Suffix()))
	}
	return nil
}

// Abort force-stops the encode process without waiting for a clean mux. Used
// on the fatal-error path where the partial output is discarded anyway.
func (s *EncodeSink) Abort() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = s.stdin.Close()
	_ = s.grace()
}

func (s *EncodeSink) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

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

// DecodeOptions selects the source window and the fixed output raster.
type DecodeOptions struct {
	Path    string
	Width   int
	Height  int
	FPS     float64
	CutFrom float64
	CutTo   float64
}

// DecodeStream is the raw RGBA byte stream of one decode process. It
// implements io.ReadCloser; Close cancels the process gracefully.
type DecodeStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
	grace  func() error

	waitOnce sync.Once
	waitErr  error
}

// StartDecode launches ffmpeg decoding opts.Path into a flat RGBA pixel
// stream at the requested raster and frame rate.
func (c *Client) StartDecode(ctx context.Context, opts DecodeOptions) (*DecodeStream, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "decode", "invalid raster", fmt.Errorf("%dx%d@%v", opts.Width, opts.Height, opts.FPS))
	}
	args := buildDecodeArgs(opts)
	cmd := exec.CommandContext(ctx, c.ffmpegBinary, args...)
	cmd.SysProcAttr = procGroupAttr()

	stderr := newTailBuffer()
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrDecodeStream, "decode", "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrDecodeStream, "decode", "start ffmpeg", err)
	}
	c.logger.Debug("decode process started",
		logging.String("input", opts.Path),
		logging.Int("pid", cmd.Process.Pid),
		logging.String("args", strings.Join(args, " ")))

	stream := &DecodeStream{cmd: cmd, stdout: stdout, stderr: stderr}
	grace := c.grace
	stream.grace = func() error { return terminate(cmd, stream.wait, grace) }
	return stream, nil
}

func buildDecodeArgs(opts DecodeOptions) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}
	if opts.CutFrom > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.6f", opts.CutFrom))
	}
	args = append(args, "-i", opts.Path)
	if opts.CutTo > opts.CutFrom {
		args = append(args, "-t", fmt.Sprintf("%.6f", opts.CutTo-opts.CutFrom))
	}
	// Scale to cover the canvas, center-crop the overflow, and normalize the
	// frame rate so one decoded frame corresponds to one output tick.
	filter := fmt.Sprintf(
		"fps=%g,scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,format=rgba",
		opts.FPS, opts.Width, opts.Height, opts.Width, opts.Height,
	)
	args = append(args,
		"-vf", filter,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	return args
}

// Read streams raw pixel bytes from the decode process.
func (d *DecodeStream) Read(p []byte) (int, error) {
	return d.stdout.Read(p)
}

// Close cancels the decode process: the pipe is closed, the process group is
// signalled, and after the bounded grace period the process is force-killed.
// A non-zero exit after cancellation is expected and not reported.
func (d *DecodeStream) Close() error {
	_ = d.stdout.Close()
	_ = d.grace()
	return nil
}

// Err surfaces a decode process failure after the stream ended early. It
// reaps the process if that has not happened yet.
func (d *DecodeStream) Err() error {
	if err := d.wait(); err != nil {
		return services.Wrap(services.ErrDecodeStream, "decode", "ffmpeg exited", fmt.Errorf("%w%s", err, d.stderr.Suffix()))
	}
	return nil
}

func (d *DecodeStream) wait() error {
	d.waitOnce.Do(func() {
		d.waitErr = d.cmd.Wait()
	})
	return d.waitErr
}

package ffmpeg

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"montage/internal/logging"
)

// Client builds and launches ffmpeg/ffprobe invocations.
type Client struct {
	ffmpegBinary  string
	ffprobeBinary string
	grace         time.Duration
	logger        *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGracePeriod bounds how long Stop waits for a process to exit before
// force-killing it.
func WithGracePeriod(grace time.Duration) Option {
	return func(c *Client) {
		if grace > 0 {
			c.grace = grace
		}
	}
}

const defaultGracePeriod = 5 * time.Second

// New constructs a client around the given binaries.
func New(ffmpegBinary, ffprobeBinary string, opts ...Option) (*Client, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if ffprobeBinary == "" {
		return nil, errors.New("ffprobe binary required")
	}
	client := &Client{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		grace:         defaultGracePeriod,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

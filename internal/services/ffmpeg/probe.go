package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"montage/internal/services"
)

// Info is the subset of probe output the pipeline needs.
type Info struct {
	DurationSeconds float64
	Width           int
	Height          int
	FPS             float64
	HasVideo        bool
	HasAudio        bool
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe inspects a media file with ffprobe.
func (c *Client) Probe(ctx context.Context, path string) (Info, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, c.ffprobeBinary, args...)
	raw, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Info{}, services.Wrap(services.ErrDecodeStream, "probe", path, err)
	}
	info, err := parseProbeOutput(raw)
	if err != nil {
		return Info{}, services.Wrap(services.ErrValidation, "probe", path, err)
	}
	return info, nil
}

func parseProbeOutput(raw []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return Info{}, fmt.Errorf("decode ffprobe json: %w", err)
	}

	var info Info
	if dur := strings.TrimSpace(out.Format.Duration); dur != "" {
		parsed, err := strconv.ParseFloat(dur, 64)
		if err != nil {
			return Info{}, fmt.Errorf("parse duration %q: %w", dur, err)
		}
		info.DurationSeconds = parsed
	}
	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.FPS = parseFrameRate(stream.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = parseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if !info.HasVideo && !info.HasAudio {
		return Info{}, fmt.Errorf("no audio or video streams found")
	}
	return info, nil
}

// parseFrameRate handles ffprobe's fractional notation ("30000/1001").
func parseFrameRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return 0
	}
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0
		}
		return n / d
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

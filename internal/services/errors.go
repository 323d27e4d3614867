package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid clip, layer, transition, or tool
	// configuration detected before the pipeline starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrDecodeStream marks a failure of an external decode process or its
	// pixel stream.
	ErrDecodeStream = errors.New("decode stream error")
	// ErrEncodeSink marks a failure of the encode/mux process or its input
	// channel.
	ErrEncodeSink = errors.New("encode sink error")
	// ErrCompositor marks a blend failure; a partially blended frame is
	// never written.
	ErrCompositor = errors.New("compositor error")
	// ErrValidation marks malformed collaborator output (probe results,
	// audio track paths).
	ErrValidation = errors.New("validation error")
	// ErrTimeout marks a bounded wait that expired.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation string, err error) error {
	detail := buildDetail(stage, operation)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err belongs to one of the classes that must abort a
// render run. Everything tagged by Wrap is fatal; untagged errors are treated
// as fatal too so nothing is silently swallowed.
func Fatal(err error) bool {
	return err != nil
}

// Hint returns a short operator-facing suggestion for a classified error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "fix the edit file or tool configuration and re-run"
	case errors.Is(err, ErrDecodeStream):
		return "inspect the decode process output; confirm the source file is readable"
	case errors.Is(err, ErrEncodeSink):
		return "inspect the encode process output; confirm the output path is writable"
	case errors.Is(err, ErrCompositor):
		return "the transition blend failed; try the cut transition to isolate the effect"
	case errors.Is(err, ErrTimeout):
		return "an external process did not finish within its grace period"
	default:
		return ""
	}
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

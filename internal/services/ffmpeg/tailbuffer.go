package ffmpeg

import (
	"strings"
	"sync"
)

// tailBuffer retains the last portion of a process's stderr so failures can
// quote it without holding unbounded output.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

const tailBufferMax = 4 * 1024

func newTailBuffer() *tailBuffer {
	return &tailBuffer{max: tailBufferMax}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

// Suffix formats the captured text for appending to an error message.
func (t *tailBuffer) Suffix() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := strings.TrimSpace(string(t.buf))
	if text == "" {
		return ""
	}
	return ": " + text
}

package frames

import (
	"errors"
	"fmt"
	"io"
)

// Size returns the byte length of one raw frame.
func Size(width, height, channels int) int {
	return width * height * channels
}

// Scanner reassembles a raw byte stream into fixed-size frames. It follows
// the bufio.Scanner shape: Scan advances to the next complete frame, Frame
// returns it, Err reports any terminal read failure.
//
// The stream is consumed once and cannot be restarted.
type Scanner struct {
	reader    io.Reader
	frameSize int

	acc    []byte // accumulation buffer, exactly frameSize bytes
	cursor int    // bytes of acc filled so far

	chunk   []byte // scratch for one read
	pending []byte // unconsumed remainder of the last chunk

	frame   []byte
	readErr error
	err     error
	done    bool
}

const defaultChunkSize = 64 * 1024

// NewScanner wraps reader so each Scan yields one frameSize-byte frame.
func NewScanner(reader io.Reader, frameSize int) (*Scanner, error) {
	if reader == nil {
		return nil, errors.New("frames: nil reader")
	}
	if frameSize <= 0 {
		return nil, fmt.Errorf("frames: invalid frame size %d", frameSize)
	}
	return &Scanner{
		reader:    reader,
		frameSize: frameSize,
		acc:       make([]byte, frameSize),
		chunk:     make([]byte, defaultChunkSize),
	}, nil
}

// Scan advances to the next complete frame. It returns false at end of
// stream or on error; a trailing partial frame is dropped, not surfaced.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	for {
		// Drain the remainder of the previous chunk first. One chunk may
		// complete several frames; we hand them out one Scan at a time.
		if len(s.pending) > 0 {
			n := copy(s.acc[s.cursor:], s.pending)
			s.cursor += n
			s.pending = s.pending[n:]
			if s.cursor == s.frameSize {
				s.emit()
				return true
			}
			continue
		}

		if s.readErr != nil {
			s.done = true
			if !errors.Is(s.readErr, io.EOF) {
				s.err = s.readErr
			}
			return false
		}

		n, err := s.reader.Read(s.chunk)
		if n > 0 {
			s.pending = s.chunk[:n]
		}
		if err != nil {
			// Consume any final bytes before surfacing the error.
			s.readErr = err
		}
	}
}

// Frame returns the frame produced by the last successful Scan. The returned
// buffer is owned by the caller; Scan never reuses it.
func (s *Scanner) Frame() []byte {
	return s.frame
}

// Err returns the first non-EOF error encountered by Scan.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) emit() {
	s.frame = s.acc
	s.acc = make([]byte, s.frameSize)
	s.cursor = 0
}

package gemini

import (
	"errors"
	"fmt"
)

// frameSplitter incrementally splits a streamed response payload into
// complete top-level JSON values. The payload is either one outer JSON
// array whose elements arrive over time, or a bare concatenation of
// JSON values; the first structural byte decides which. A leading `[`
// is always read as the envelope bracket.
//
// Bytes are pushed in as they arrive and frames come out as soon as
// they close. Parse state survives arbitrary chunk boundaries, so a
// value may span many pushes. Braces and brackets inside string
// literals never affect nesting depth.
type frameSplitter struct {
	buf      []byte // unconsumed payload bytes
	pos      int    // scan cursor into buf
	start    int    // offset of the open value, valid while depth > 0
	depth    int    // object/array nesting depth of the current value
	inString bool   // inside a quoted string literal
	escaped  bool   // previous byte was an unescaped backslash
	wrapped  bool   // payload is enveloped in an outer array
	began    bool   // first structural byte has been consumed
	closed   bool   // outer envelope has been closed
}

// Push consumes the next chunk and returns the frames it completed, in
// order. Frames are copies; the caller owns them. When a malformed byte
// is hit, frames completed before it are returned together with the
// error and the splitter must not be pushed again.
func (s *frameSplitter) Push(p []byte) ([][]byte, error) {
	s.buf = append(s.buf, p...)

	var frames [][]byte
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			}
			s.pos++
			continue
		}

		if s.depth > 0 {
			switch c {
			case '"':
				s.inString = true
			case '{', '[':
				s.depth++
			case '}', ']':
				s.depth--
				if s.depth == 0 {
					frame := make([]byte, s.pos+1-s.start)
					copy(frame, s.buf[s.start:s.pos+1])
					frames = append(frames, frame)
				}
			}
			s.pos++
			continue
		}

		// Depth zero: between values.
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.pos++
		case s.closed:
			return frames, fmt.Errorf("unexpected byte %q after end of stream envelope", c)
		case c == ',':
			s.pos++
		case c == '[' && !s.began:
			// The leading bracket opens the outer envelope. It is
			// structural and never part of a frame.
			s.wrapped = true
			s.began = true
			s.pos++
		case c == '{' || c == '[':
			s.began = true
			s.depth = 1
			s.start = s.pos
			s.pos++
		case c == ']' && s.wrapped:
			s.closed = true
			s.pos++
		default:
			return frames, fmt.Errorf("unexpected byte %q between values", c)
		}
	}

	s.compact()
	return frames, nil
}

// Finish reports whether the stream ended cleanly. A stream that ends
// mid-value or with an unclosed envelope is malformed. A stream with
// zero frames is fine.
func (s *frameSplitter) Finish() error {
	if s.depth > 0 {
		return fmt.Errorf("stream ended mid-value (depth %d)", s.depth)
	}
	if s.wrapped && !s.closed {
		return errors.New("stream ended before closing the array envelope")
	}
	return nil
}

// compact drops consumed bytes so the buffer holds at most the open
// value's prefix between pushes.
func (s *frameSplitter) compact() {
	if s.depth == 0 {
		s.buf = s.buf[:0]
		s.pos = 0
		s.start = 0
		return
	}
	if s.start > 0 {
		s.buf = append(s.buf[:0], s.buf[s.start:]...)
		s.pos -= s.start
		s.start = 0
	}
}

package stream

import (
	"bufio"
	"io"
	"strings"

	"github.com/adreach/backend/internal/observability"
	"go.uber.org/zap"
)

// Frames carrying base64 data URLs for partial images can get large.
const maxFrameSize = 16 * 1024 * 1024

// Decoder incrementally reads `data: {...}` frames from a UTF-8 byte stream.
// Lines that are not well-formed frames are skipped, never fatal: the
// transport splits JSON objects across chunk boundaries and the tail
// fragments must not poison the rest of the stream.
type Decoder struct {
	scanner   *bufio.Scanner
	log       *zap.Logger
	completed bool
	closed    bool
	malformed int
}

func NewDecoder(r io.Reader, log *zap.Logger) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxFrameSize)
	return &Decoder{scanner: sc, log: log}
}

// Next returns the next decoded event. When the underlying stream ends
// without a terminal response_complete, it synthesizes a single StreamClosed
// event so consumers always get a chance to clear loading flags, then
// returns io.EOF.
func (d *Decoder) Next() (Event, error) {
	if d.closed {
		return nil, io.EOF
	}

	for d.scanner.Scan() {
		line := d.scanner.Text()
		payload, ok := framePayload(line)
		if !ok {
			continue
		}

		ev, err := ParseEvent([]byte(payload))
		if err != nil {
			d.malformed++
			observability.StreamMalformed.Inc()
			d.log.Debug("skipping malformed frame", zap.Error(err), zap.Int("len", len(payload)))
			continue
		}

		if _, done := ev.(ResponseComplete); done {
			d.completed = true
		}
		return ev, nil
	}

	d.closed = true
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	if !d.completed {
		return StreamClosed{}, nil
	}
	return nil, io.EOF
}

// Malformed reports how many candidate frames were skipped.
func (d *Decoder) Malformed() int { return d.malformed }

// framePayload extracts the JSON candidate from an SSE line, rejecting
// fragments that cannot be a whole object: empty remainders, implausibly
// short ones, a bare `{`, anything not ending in `}`, and candidates with
// no "type" discriminant. A half frame fails these checks and is dropped;
// the retransmitted whole frame on a later line parses normally.
func framePayload(line string) (string, bool) {
	if !strings.HasPrefix(line, "data: ") {
		return "", false
	}
	s := strings.TrimSpace(line[len("data: "):])
	if s == "" || len(s) < 10 || s == "{" {
		return "", false
	}
	if strings.HasPrefix(s, `{"response`) || strings.HasPrefix(s, `{ "response`) {
		return "", false
	}
	if !strings.HasSuffix(s, "}") || !strings.Contains(s, `"type"`) {
		return "", false
	}
	return s, true
}

// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrMalformedFrame marks an inbound line that was not valid JSON or
// matched no known frame shape. The reader stays usable after
// returning it; callers log and continue.
var ErrMalformedFrame = errors.New("wire: malformed frame")

// Reader decodes newline-delimited frames from a byte stream. Not
// safe for concurrent use; each connection owns one reader goroutine.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps a stream. Frames can be large (state snapshots,
// layout trees), so the line buffer grows up to 1 MiB.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next frame. Empty lines are skipped. A line that
// fails to decode returns an error wrapping ErrMalformedFrame and
// leaves the reader positioned at the following line. Any other error
// (including io.EOF at end of stream) is terminal.
func (r *Reader) Next() (*Frame, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		if !frame.IsHandshake() && !frame.IsHandshakeAck() && !frame.IsCommand() && !frame.IsResponse() {
			return nil, fmt.Errorf("%w: unrecognized shape", ErrMalformedFrame)
		}
		return &frame, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Writer encodes frames onto a byte stream, one JSON object per line.
// Safe for concurrent use: dispatch handlers finishing on different
// goroutines share one writer per connection.
type Writer struct {
	mutex   sync.Mutex
	encoder *json.Encoder
}

// NewWriter wraps a stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

// Write encodes one frame and appends the newline delimiter.
func (w *Writer) Write(frame any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.encoder.Encode(frame)
}

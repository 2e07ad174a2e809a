// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReplaySource reads pose samples back from a JSONL log, one sample per
// line, as written by the tracker's replay tool or captured off the MQTT
// bus. Next returns io.EOF once the log is exhausted.
type ReplaySource struct {
	r      *bufio.Scanner
	closer io.Closer
	line   int
}

// NewReplaySource wraps an existing reader.
func NewReplaySource(r io.Reader) *ReplaySource {
	return &ReplaySource{r: bufio.NewScanner(r)}
}

// OpenReplay opens a JSONL pose log file for replay. Close releases the
// underlying file.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pose log: %w", err)
	}
	return &ReplaySource{r: bufio.NewScanner(f), closer: f}, nil
}

// Next returns the next sample in the log. Blank lines and lines starting
// with '#' are skipped; a malformed line is an error naming the line
// number.
func (s *ReplaySource) Next() (Sample, error) {
	for s.r.Scan() {
		s.line++
		line := strings.TrimSpace(s.r.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var sample Sample
		if err := json.Unmarshal([]byte(line), &sample); err != nil {
			return Sample{}, fmt.Errorf("pose log line %d: %w", s.line, err)
		}
		return sample, nil
	}
	if err := s.r.Err(); err != nil {
		return Sample{}, fmt.Errorf("error reading pose log: %w", err)
	}
	return Sample{}, io.EOF
}

// Close closes the underlying file, if any.
func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/relabs-tech/motion_tracker/internal/kinematics"
	"github.com/relabs-tech/motion_tracker/internal/pose"
)

// Replay runs the kinematics tracker over a recorded JSONL pose log and
// writes one report per sample to out, also as JSONL. No broker needed,
// which makes it the tool of choice for tuning and regression checks on
// captured data.
func Replay(src *pose.ReplaySource, out io.Writer) error {
	type body struct {
		tracker  *kinematics.Tracker
		lastTime float64
		haveTime bool
	}
	bodies := make(map[string]*body)

	enc := json.NewEncoder(out)
	samples := 0

	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		samples++

		b, ok := bodies[s.Source]
		if !ok {
			b = &body{tracker: kinematics.NewTracker()}
			bodies[s.Source] = b
		}

		dt := 0.0
		if b.haveTime {
			dt = s.Time - b.lastTime
		}
		b.lastTime = s.Time
		b.haveTime = true

		b.tracker.Update(s.Position(), s.Orientation(), dt)
		if err := enc.Encode(b.tracker.Report(s.Source, s.Time)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	log.Printf("replay: processed %d samples across %d sources", samples, len(bodies))
	for source, b := range bodies {
		log.Printf("replay: %-12s final speed=%.3f m/s angular=%.2f deg/s",
			source, b.tracker.Speed, b.tracker.AngularSpeed)
	}
	return nil
}

// RunReplay opens the pose log at path and replays it to out.
func RunReplay(path string, out io.Writer) error {
	src, err := pose.OpenReplay(path)
	if err != nil {
		return err
	}
	defer src.Close()
	return Replay(src, out)
}

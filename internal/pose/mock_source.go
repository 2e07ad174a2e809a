// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type mockSource struct {
	source string
	start  time.Time
}

// NewMockSource creates a mock pose source that moves the body around a
// 2 m circle at roughly walking speed while slowly spinning it about the
// vertical axis. Useful for exercising the whole pipeline without
// hardware.
func NewMockSource(source string) Source {
	return &mockSource{source: source, start: time.Now()}
}

func (m *mockSource) Next() (Sample, error) {
	elapsed := time.Since(m.start).Seconds()

	pos := mgl64.Vec3{
		2 * math.Cos(elapsed*0.5),
		2 * math.Sin(elapsed*0.5),
		0.1 * math.Sin(elapsed),
	}
	q := mgl64.QuatRotate(mgl64.DegToRad(math.Mod(elapsed*30, 360)), mgl64.Vec3{0, 0, 1})

	return New(m.source, elapsed, pos, q), nil
}

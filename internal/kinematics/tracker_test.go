// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package kinematics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outputs captures every derived field so guard tests can assert that a
// rejected update changed nothing.
type outputs struct {
	speed, accelStrength           float64
	angularSpeed, angularAccel     float64
	direction, velocity, accel     mgl64.Vec3
	angularAxis, angularVelocity   mgl64.Vec3
	angularAcceleration            mgl64.Vec3
}

func snapshot(t *Tracker) outputs {
	return outputs{
		speed:               t.Speed,
		accelStrength:       t.AccelerationStrength,
		angularSpeed:        t.AngularSpeed,
		angularAccel:        t.AngularAccelerationStrength,
		direction:           t.Direction,
		velocity:            t.Velocity,
		accel:               t.Acceleration,
		angularAxis:         t.AngularAxis,
		angularVelocity:     t.AngularVelocity,
		angularAcceleration: t.AngularAcceleration,
	}
}

func TestFirstUpdateAutoResets(t *testing.T) {
	tr := NewTracker()
	tr.Update(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent(), 0.02)

	assert.Zero(t, tr.Speed)
	assert.Equal(t, mgl64.Vec3{}, tr.Velocity)
	assert.Zero(t, tr.AccelerationStrength)
	assert.Zero(t, tr.AngularSpeed)
}

func TestUpdateIgnoresNonPositiveDeltaTime(t *testing.T) {
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
	tr.Update(mgl64.Vec3{0.02, 0, 0}, mgl64.QuatIdent(), 0.02)

	before := snapshot(tr)
	tr.Update(mgl64.Vec3{5, 5, 5}, mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0}), 0)
	assert.Equal(t, before, snapshot(tr), "deltaTime == 0 must not change outputs")

	tr.Update(mgl64.Vec3{9, 9, 9}, mgl64.QuatIdent(), -0.01)
	assert.Equal(t, before, snapshot(tr), "negative deltaTime must not change outputs")
}

func TestConstantVelocityConvergence(t *testing.T) {
	// Half a sub-window per tick keeps the slices phase-aligned, so after
	// the ring has fully turned over the estimate should be exact to float
	// precision, not just within tolerance.
	const dt = samplePeriod / 2
	v := mgl64.Vec3{0.9, -0.3, 0.2}

	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	pos := mgl64.Vec3{}
	for i := 0; i < 30; i++ {
		pos = pos.Add(v.Mul(dt))
		tr.Update(pos, mgl64.QuatIdent(), dt)
	}

	want := v.Len()
	require.InDelta(t, want, tr.Speed, 0.01*want)
	require.InDelta(t, 1.0, tr.Direction.Dot(v.Normalize()), 1e-6)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, v[i], tr.Velocity[i], 0.02*want)
	}
}

func TestNinetyHertzRampAlongX(t *testing.T) {
	// 90 Hz sampling of 0.01 m per tick, i.e. 0.9 m/s along +X.
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	const dt = 1.0 / 90.0
	for i := 1; i <= 20; i++ {
		tr.Update(mgl64.Vec3{0.01 * float64(i), 0, 0}, mgl64.QuatIdent(), dt)
	}

	require.InDelta(t, 0.9, tr.Speed, 0.09, "speed should land within 10%% of 0.9 m/s")
	require.Greater(t, tr.Direction.Dot(mgl64.Vec3{1, 0, 0}), 0.999)
}

func TestZeroMotionStaysQuiet(t *testing.T) {
	pos := mgl64.Vec3{4, 5, 6}
	tr := NewTracker()
	tr.Reset(pos, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	for i := 0; i < 50; i++ {
		tr.Update(pos, mgl64.QuatIdent(), 0.02)
	}

	assert.InDelta(t, 0, tr.Speed, 1e-12)
	assert.InDelta(t, 0, tr.AccelerationStrength, 1e-12)
	assert.Equal(t, mgl64.Vec3{}, tr.Direction, "zero-velocity reset leaves no direction")
	assert.False(t, math.IsNaN(tr.Velocity.Len()), "outputs must not NaN at rest")
}

func TestDirectionHeldAfterStopping(t *testing.T) {
	const dt = 0.02
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	pos := mgl64.Vec3{}
	for i := 0; i < 20; i++ {
		pos = pos.Add(mgl64.Vec3{0, 0.03, 0})
		tr.Update(pos, mgl64.QuatIdent(), dt)
	}
	moving := tr.Direction
	require.Greater(t, moving.Dot(mgl64.Vec3{0, 1, 0}), 0.999)

	// Freeze in place for well over a full window.
	for i := 0; i < 30; i++ {
		tr.Update(pos, mgl64.QuatIdent(), dt)
	}

	assert.InDelta(t, 0, tr.Speed, 1e-12)
	assert.InDelta(t, 1.0, tr.Direction.Dot(moving), 1e-6,
		"direction should hold its last good value at rest")
}

// rampSpeed drives the tracker along +X with per-tick speed interpolated
// from v0 to v1 and returns the tracker for inspection.
func rampSpeed(v0, v1 float64, ticks int, dt float64) *Tracker {
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{v0, 0, 0}, mgl64.Vec3{})

	pos := mgl64.Vec3{}
	for i := 0; i < ticks; i++ {
		v := v0 + (v1-v0)*float64(i+1)/float64(ticks)
		pos = pos.Add(mgl64.Vec3{v * dt, 0, 0})
		tr.Update(pos, mgl64.QuatIdent(), dt)
	}
	return tr
}

func TestAccelerationSign(t *testing.T) {
	up := rampSpeed(0.5, 2.0, 20, 0.01)
	assert.Greater(t, up.AccelerationStrength, 0.0, "speeding up must read as positive")
	assert.Greater(t, up.Acceleration.Dot(mgl64.Vec3{1, 0, 0}), 0.0)

	down := rampSpeed(2.0, 0.5, 20, 0.01)
	assert.Less(t, down.AccelerationStrength, 0.0, "slowing down must read as negative")
}

func TestSteadyRotationConverges(t *testing.T) {
	const dt = samplePeriod / 2
	const stepDeg = 2.0 // per tick, about +Y

	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	q := mgl64.QuatIdent()
	step := mgl64.QuatRotate(mgl64.DegToRad(stepDeg), mgl64.Vec3{0, 1, 0})
	for i := 0; i < 30; i++ {
		q = step.Mul(q)
		tr.Update(mgl64.Vec3{}, q, dt)
	}

	wantRate := stepDeg / dt
	require.InDelta(t, wantRate, tr.AngularSpeed, 0.02*wantRate)
	require.InDelta(t, 1.0, tr.AngularAxis.Dot(mgl64.Vec3{0, 1, 0}), 1e-3)
	assert.InDelta(t, mgl64.DegToRad(wantRate), tr.AngularVelocity.Len(), mgl64.DegToRad(0.05*wantRate))
}

func TestOscillatingRotationKeepsAxis(t *testing.T) {
	// Rock back and forth about Z. Angle-axis extraction reports the axis
	// with alternating sign; the accumulated axis must keep pointing along
	// ±Z instead of cancelling toward zero.
	const dt = 0.02
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	fwd := mgl64.QuatRotate(mgl64.DegToRad(6), mgl64.Vec3{0, 0, 1})
	q := mgl64.QuatIdent()
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			q = fwd.Mul(q)
		} else {
			q = fwd.Inverse().Mul(q)
		}
		tr.Update(mgl64.Vec3{}, q, dt)
	}

	require.Greater(t, tr.AngularAxis.Len(), 0.9, "axis must not cancel to zero")
	assert.Greater(t, math.Abs(tr.AngularAxis.Dot(mgl64.Vec3{0, 0, 1})), 0.99)
	assert.Greater(t, tr.AngularSpeed, 100.0, "oscillation still carries angular speed")
}

func TestResetSeedsKnownVelocity(t *testing.T) {
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, math.Pi})

	assert.InDelta(t, 2.0, tr.Speed, 1e-12)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, tr.Direction)
	assert.InDelta(t, 180.0, tr.AngularSpeed, 1e-9)
	assert.InDelta(t, 1.0, tr.AngularAxis.Dot(mgl64.Vec3{0, 0, 1}), 1e-12)
	assert.InDelta(t, math.Pi, tr.AngularVelocity.Len(), 1e-9)

	// The seeded window should keep the estimate warm through the next
	// updates instead of collapsing toward zero.
	const dt = samplePeriod / 2
	pos := mgl64.Vec3{}
	for i := 0; i < 4; i++ {
		pos = pos.Add(mgl64.Vec3{2 * dt, 0, 0})
		tr.Update(pos, mgl64.QuatIdent(), dt)
	}
	assert.InDelta(t, 2.0, tr.Speed, 0.05)
}

func TestResetWithZeroVelocityHasNoDirection(t *testing.T) {
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	assert.Equal(t, mgl64.Vec3{}, tr.Direction)
	assert.Equal(t, mgl64.Vec3{}, tr.AngularAxis)
	assert.Zero(t, tr.Speed)
}

func TestTinyJitterDoesNotSteerDirection(t *testing.T) {
	const dt = 0.02
	tr := NewTracker()
	tr.Reset(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{})

	pos := mgl64.Vec3{}
	for i := 0; i < 20; i++ {
		pos = pos.Add(mgl64.Vec3{0.05, 0, 0})
		tr.Update(pos, mgl64.QuatIdent(), dt)
	}
	require.Greater(t, tr.Direction.Dot(mgl64.Vec3{1, 0, 0}), 0.999)

	// Sub-millimeter wiggle across the direction of travel sits below the
	// movement noise floor and must not re-aim the direction anchor.
	for i := 0; i < 10; i++ {
		wiggle := pos.Add(mgl64.Vec3{0, 0.0004 * float64(i%2), 0})
		tr.Update(wiggle, mgl64.QuatIdent(), dt)
	}
	assert.Greater(t, tr.Direction.Dot(mgl64.Vec3{1, 0, 0}), 0.99)
	assert.False(t, math.IsNaN(tr.Direction.Len()))
}

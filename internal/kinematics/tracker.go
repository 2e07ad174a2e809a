// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package kinematics turns a stream of timestamped pose samples into
// smoothed estimates of linear velocity, linear acceleration, angular
// velocity, and angular acceleration.
//
// The filter keeps a short sliding window (125 ms split into 4 slices) of
// accumulated motion in a fixed ring buffer and lightly over-weights the
// newest slice so the estimate does not lag the latest movement. Each
// tracked body owns exactly one Tracker, updated once per tick by its
// owning goroutine; a Tracker is a plain value with no locks and no
// allocation after construction.
package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Filter tuning. samplePeriod slices divide the smoothing window;
// predictedPeriod is the artificially stretched window used for the
// velocity estimate, which the newest slice fills with its extra weight.
const (
	period          = 0.125
	steps           = 4
	samplePeriod    = period / steps
	newSampleWeight = 2.0
	additiveWeight  = newSampleWeight - 1.0
	predictedPeriod = period + samplePeriod*additiveWeight
	sampleLength    = steps + 1

	// Noise floors. Movement below minOffset (meters) or rotation below
	// minAngle (degrees) does not move the direction/rotation anchors, and
	// vectors shorter than minLength are treated as having no direction.
	minOffset = 0.001
	minAngle  = 0.5
	minLength = 1e-5
)

// sample accumulates motion over one sub-window of the smoothing period.
type sample struct {
	distance     float64
	offset       mgl64.Vec3
	angle        float64
	axisOffset   mgl64.Vec3
	speed        float64
	angularSpeed float64
	time         float64
}

// accumulate folds a time-scaled share of another sample into this one.
// Offset and axis contributions are weighted by how well they align with
// the current direction/axis anchors, so a slice whose net motion opposes
// the present travel contributes less. The speed fields are instantaneous
// markers, not accumulable quantities, so they are interpolated instead of
// summed: after a full pass they hold the oldest speed the window saw.
func (s *sample) accumulate(other *sample, scalar float64, direction, axis mgl64.Vec3) {
	s.distance += other.distance * scalar
	s.offset = s.offset.Add(other.offset.Mul(scalar * direction.Dot(other.offset)))
	s.angle += other.angle * scalar
	s.axisOffset = s.axisOffset.Add(other.axisOffset.Mul(scalar * axis.Dot(other.axisOffset)))

	blend := mgl64.Clamp(scalar, 0, 1)
	s.speed = lerp(s.speed, other.speed, blend)
	s.angularSpeed = lerp(s.angularSpeed, other.angularSpeed, blend)
	s.time += other.time * scalar
}

// Tracker estimates the kinematics of a single tracked body. The zero
// value is unusable; call NewTracker. The output fields are refreshed by
// every successful Update and must only be read by the owning goroutine.
type Tracker struct {
	// Linear outputs. Speed is m/s, Direction a unit vector (zero while no
	// direction has been established), Velocity = Direction * Speed.
	// AccelerationStrength is signed: negative means deceleration.
	Speed                float64
	Direction            mgl64.Vec3
	Velocity             mgl64.Vec3
	AccelerationStrength float64
	Acceleration         mgl64.Vec3

	// Angular outputs. AngularSpeed is deg/s, AngularVelocity and
	// AngularAccelerationStrength are in radians.
	AngularSpeed                float64
	AngularAxis                 mgl64.Vec3
	AngularVelocity             mgl64.Vec3
	AngularAccelerationStrength float64
	AngularAcceleration         mgl64.Vec3

	samples [sampleLength]sample
	current int // slice being filled; -1 until the first Reset

	lastOffsetPosition    mgl64.Vec3
	lastDirectionPosition mgl64.Vec3
	lastRotation          mgl64.Quat
}

// NewTracker returns a tracker in the uninitialized state. The first
// Update resets it to the given pose with zero velocity.
func NewTracker() *Tracker {
	return &Tracker{current: -1, lastRotation: mgl64.QuatIdent()}
}

// Reset re-anchors the tracker at a known pose, optionally with a known
// starting velocity (m/s) and angular velocity (rad/s, axis-scaled).
// The ring buffer is seeded with one full window of that constant motion,
// so the updates that follow see a warm filter instead of a cold start.
// With zero velocity the direction and axis are left as zero vectors until
// real movement establishes them.
func (t *Tracker) Reset(position mgl64.Vec3, orientation mgl64.Quat, velocity, angularVelocity mgl64.Vec3) {
	t.lastOffsetPosition = position
	t.lastDirectionPosition = position
	t.lastRotation = orientation

	t.Speed = velocity.Len()
	t.Direction = normalizeOrZero(velocity)
	t.Velocity = t.Direction.Mul(t.Speed)
	t.AccelerationStrength = 0
	t.Acceleration = mgl64.Vec3{}

	t.AngularSpeed = mgl64.RadToDeg(angularVelocity.Len())
	t.AngularAxis = normalizeOrZero(angularVelocity)
	t.AngularVelocity = t.AngularAxis.Mul(angularVelocity.Len())
	t.AngularAccelerationStrength = 0
	t.AngularAcceleration = mgl64.Vec3{}

	t.samples = [sampleLength]sample{}
	t.current = 0
	t.samples[0] = sample{
		distance:     t.Speed * period,
		offset:       t.Velocity.Mul(period),
		angle:        t.AngularSpeed * period,
		axisOffset:   t.AngularAxis.Mul(period),
		speed:        t.Speed,
		angularSpeed: t.AngularSpeed,
		time:         period,
	}
}

// Update feeds the most recent pose sample and the time elapsed since the
// previous call (seconds). A deltaTime of zero or less is ignored, which
// guards against duplicate or out-of-order timestamps. The call never
// fails: degenerate input is absorbed by the noise floors and the outputs
// degrade to the last known good direction and axis.
func (t *Tracker) Update(position mgl64.Vec3, orientation mgl64.Quat, deltaTime float64) {
	if t.current < 0 {
		// Never reset: adopt this pose at rest. No velocity can be derived
		// from a single sample.
		t.Reset(position, orientation, mgl64.Vec3{}, mgl64.Vec3{})
		return
	}
	if deltaTime <= 0 {
		return
	}

	// Raw displacement since the previous update. The offset anchor always
	// advances so the distance accumulator tracks total travel.
	currentOffset := position.Sub(t.lastOffsetPosition)
	currentDistance := currentOffset.Len()
	t.lastOffsetPosition = position

	// Direction anchor: only re-aim once movement clears the noise floor,
	// otherwise the direction would jitter while the body sits still.
	activeDirection := t.Direction
	directionOffset := position.Sub(t.lastDirectionPosition)
	if directionOffset.Len() >= minOffset {
		activeDirection = directionOffset.Normalize()
		t.lastDirectionPosition = position
	}

	// Rotation anchor, same idea.
	currentAngle, activeAxis := angleAxis(orientation.Mul(t.lastRotation.Inverse()))
	if currentAngle < minAngle {
		currentAngle = 0
		activeAxis = t.AngularAxis
	} else {
		t.lastRotation = orientation
	}

	// Confident rotations pull the accumulated axis harder than weak ones.
	axisDistance := 1 + currentAngle/90

	cur := &t.samples[t.current]
	cur.distance += currentDistance
	cur.offset = cur.offset.Add(currentOffset)
	cur.angle += currentAngle
	cur.time += deltaTime
	// Angle-axis extraction is free to hand back the mirrored axis from one
	// frame to the next; keep reinforcing the accumulated axis either way.
	if activeAxis.Dot(cur.axisOffset) < 0 {
		cur.axisOffset = cur.axisOffset.Sub(activeAxis.Mul(axisDistance))
	} else {
		cur.axisOffset = cur.axisOffset.Add(activeAxis.Mul(axisDistance))
	}

	// Combine the window, newest slice first and counted double, walking
	// back through older slices until the stretched window is filled. The
	// speed markers of the last slice reached inside the plain window are
	// the filter's value near the start of the window, kept as the far
	// endpoint for the acceleration estimate.
	var combined sample
	var accumulated, oldestSpeed, oldestAngularSpeed float64
	idx := t.current
	for i := 0; i < sampleLength && accumulated < predictedPeriod; i++ {
		s := &t.samples[idx]
		idx = (idx + 1) % sampleLength
		if s.time <= 0 {
			continue
		}
		weight := 1.0
		if i == 0 {
			weight = newSampleWeight
		}
		scalar := weight
		if remaining := predictedPeriod - accumulated; s.time*weight > remaining {
			scalar = remaining / s.time
		}
		if accumulated < period {
			oldestSpeed = s.speed
			oldestAngularSpeed = s.angularSpeed
		}
		combined.accumulate(s, scalar, activeDirection, activeAxis)
		accumulated += s.time * scalar
	}

	t.Speed = combined.distance / predictedPeriod
	if combined.offset.Len() > minLength {
		t.Direction = combined.offset.Normalize()
	} else {
		// Net displacement this window is too small to trust; ease toward
		// the instantaneous direction instead of normalizing noise.
		t.Direction = blendDirection(t.Direction, activeDirection)
	}
	t.Velocity = t.Direction.Mul(t.Speed)

	t.AngularSpeed = combined.angle / predictedPeriod
	if combined.axisOffset.Len() > minLength {
		t.AngularAxis = combined.axisOffset.Normalize()
	} else {
		t.AngularAxis = blendDirection(t.AngularAxis, activeAxis)
	}
	t.AngularVelocity = t.AngularAxis.Mul(mgl64.DegToRad(t.AngularSpeed))

	t.AccelerationStrength = (t.Speed - oldestSpeed) / period
	t.Acceleration = t.Direction.Mul(t.AccelerationStrength)
	t.AngularAccelerationStrength = mgl64.DegToRad(t.AngularSpeed-oldestAngularSpeed) / period
	t.AngularAcceleration = t.AngularAxis.Mul(t.AngularAccelerationStrength)

	// Seal the slice once it spans a full sub-window, stamping it with the
	// speeds just computed so it can serve as a future far endpoint, then
	// open the next slot as the fresh current slice.
	if cur.time >= samplePeriod {
		cur.speed = t.Speed
		cur.angularSpeed = t.AngularSpeed
		t.current = (t.current - 1 + sampleLength) % sampleLength
		t.samples[t.current] = sample{}
	}
}

// blendDirection merges a new unit direction into the previous one,
// weighting by their alignment and flipping the previous direction first
// when they point into opposite half-spaces, so near-opposite inputs do
// not blend through zero.
func blendDirection(previous, active mgl64.Vec3) mgl64.Vec3 {
	d := previous.Dot(active)
	if d < 0 {
		previous = previous.Mul(-1)
		d = -d
	}
	return normalizeOrZero(lerpVec(previous, active, d))
}

// angleAxis extracts the rotation angle (degrees) and unit axis from a
// quaternion, reduced to the shortest arc. A near-identity rotation has no
// usable axis and reports a zero vector.
func angleAxis(q mgl64.Quat) (float64, mgl64.Vec3) {
	q = q.Normalize()
	if q.W < 0 {
		q = mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	s := q.V.Len()
	if s < minLength {
		return 0, mgl64.Vec3{}
	}
	return mgl64.RadToDeg(2 * math.Atan2(s, q.W)), q.V.Mul(1 / s)
}

func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() < minLength {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation estimates a body's attitude from raw IMU samples
// using a complementary filter: gyro integration for short-term response,
// accelerometer tilt for long-term drift correction.
package orientation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Pose is roll/pitch/yaw in degrees. Yaw is gyro-integrated only (no
// magnetometer fusion yet) and will drift over long runs.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Quaternion converts the pose to a unit quaternion (ZYX order:
// yaw, then pitch, then roll).
func (p Pose) Quaternion() mgl64.Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(p.Yaw),
		mgl64.DegToRad(p.Pitch),
		mgl64.DegToRad(p.Roll),
		mgl64.ZYX,
	).Normalize()
}

// TiltFromAccel computes roll and pitch from a gravity-only accelerometer
// reading (units cancel, only ratios matter):
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func TiltFromAccel(ax, ay, az float64) Pose {
	roll := math.Atan2(ay, az)
	pitch := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))
	return Pose{
		Roll:  mgl64.RadToDeg(roll),
		Pitch: mgl64.RadToDeg(pitch),
	}
}

// Filter is a complementary attitude filter. Alpha is the gyro trust
// factor in [0,1]: higher follows the gyro more closely, lower leans on
// the accelerometer tilt. One filter per IMU, updated by one goroutine.
type Filter struct {
	alpha       float64
	pose        Pose
	initialized bool
}

// NewFilter creates a filter with the given gyro trust factor. Values
// outside (0,1) are clamped to the usual 0.98.
func NewFilter(alpha float64) *Filter {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.98
	}
	return &Filter{alpha: alpha}
}

// Update feeds one scaled IMU sample and the elapsed time since the
// previous one (seconds), returning the new attitude. The first sample
// initializes the filter from the accelerometer alone.
func (f *Filter) Update(s imu.Scaled, deltaTime float64) Pose {
	tilt := TiltFromAccel(s.Ax, s.Ay, s.Az)

	if !f.initialized || deltaTime <= 0 {
		f.pose = tilt
		f.initialized = true
		return f.pose
	}

	// Gyro rates are deg/s in the sensor frame; for small angles the
	// body-rate to euler-rate mapping is treated as identity.
	gyroRoll := f.pose.Roll + s.Gx*deltaTime
	gyroPitch := f.pose.Pitch + s.Gy*deltaTime
	gyroYaw := f.pose.Yaw + s.Gz*deltaTime

	f.pose = Pose{
		Roll:  f.alpha*gyroRoll + (1-f.alpha)*tilt.Roll,
		Pitch: f.alpha*gyroPitch + (1-f.alpha)*tilt.Pitch,
		Yaw:   wrapDegrees(gyroYaw),
	}
	return f.pose
}

// Pose returns the current attitude estimate.
func (f *Filter) Pose() Pose { return f.pose }

// Reset clears the filter back to the uninitialized state.
func (f *Filter) Reset() {
	f.pose = Pose{}
	f.initialized = false
}

// wrapDegrees keeps an angle in (-180, 180].
func wrapDegrees(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package kinematics

// Report is a single derived-kinematics snapshot suitable for JSON and
// MQTT, one per tracked source per update.
type Report struct {
	Source string  `json:"source"`
	Time   float64 `json:"t"` // sample timestamp, seconds

	Speed                float64    `json:"speed"`           // m/s
	Direction            [3]float64 `json:"direction"`       // unit vector
	Velocity             [3]float64 `json:"velocity"`        // m/s
	AccelerationStrength float64    `json:"accel_strength"`  // m/s², signed
	Acceleration         [3]float64 `json:"accel"`           // m/s²

	AngularSpeed                float64    `json:"angular_speed_dps"`      // deg/s
	AngularAxis                 [3]float64 `json:"angular_axis"`           // unit vector
	AngularVelocity             [3]float64 `json:"angular_velocity_rps"`   // rad/s
	AngularAccelerationStrength float64    `json:"angular_accel_strength"` // rad/s², signed
	AngularAcceleration         [3]float64 `json:"angular_accel"`          // rad/s²
}

// Report snapshots the tracker's current outputs for the given source and
// sample timestamp.
func (t *Tracker) Report(source string, timestamp float64) Report {
	return Report{
		Source: source,
		Time:   timestamp,

		Speed:                t.Speed,
		Direction:            [3]float64(t.Direction),
		Velocity:             [3]float64(t.Velocity),
		AccelerationStrength: t.AccelerationStrength,
		Acceleration:         [3]float64(t.Acceleration),

		AngularSpeed:                t.AngularSpeed,
		AngularAxis:                 [3]float64(t.AngularAxis),
		AngularVelocity:             [3]float64(t.AngularVelocity),
		AngularAccelerationStrength: t.AngularAccelerationStrength,
		AngularAcceleration:         [3]float64(t.AngularAcceleration),
	}
}

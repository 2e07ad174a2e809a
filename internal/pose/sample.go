// Package pose defines the pose sample that travels between producers and
// the tracker, plus the sources that generate it.
package pose

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Sample is one timestamped pose of a tracked body, suitable for JSON and
// MQTT. Position is meters in the local frame, orientation a unit
// quaternion, Time seconds on the producer's clock.
type Sample struct {
	Source string  `json:"source"`
	Time   float64 `json:"t"`

	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`

	Qw float64 `json:"qw"`
	Qx float64 `json:"qx"`
	Qy float64 `json:"qy"`
	Qz float64 `json:"qz"`
}

// New builds a sample from typed position and orientation values.
func New(source string, t float64, position mgl64.Vec3, orientation mgl64.Quat) Sample {
	return Sample{
		Source: source,
		Time:   t,
		Px:     position.X(),
		Py:     position.Y(),
		Pz:     position.Z(),
		Qw:     orientation.W,
		Qx:     orientation.X(),
		Qy:     orientation.Y(),
		Qz:     orientation.Z(),
	}
}

// Position returns the sample position as a vector.
func (s Sample) Position() mgl64.Vec3 {
	return mgl64.Vec3{s.Px, s.Py, s.Pz}
}

// Orientation returns the sample orientation as a quaternion.
func (s Sample) Orientation() mgl64.Quat {
	return mgl64.Quat{W: s.Qw, V: mgl64.Vec3{s.Qx, s.Qy, s.Qz}}
}

// Source is anything that can provide pose samples over time: the sensor
// fusion pipeline, a mock generator, or a replay from file.
type Source interface {
	Next() (Sample, error)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Meters per degree of latitude; longitude scales with cos(lat). Good to
// well under a percent over the few hundred meters a tracked body covers.
const metersPerDegree = 111320.0

// Projector turns GPS fixes into positions in a local metric frame:
// X east, Y north, Z up. The first valid fix becomes the origin.
type Projector struct {
	originLat float64
	originLon float64
	anchored  bool
}

// Anchored reports whether an origin has been established yet.
func (p *Projector) Anchored() bool { return p.anchored }

// Project converts a fix to local XY meters, with the supplied altitude
// (meters, typically barometric) as Z. The first valid fix anchors the
// origin and projects to (0, 0, altitude). Invalid fixes return false and
// leave the origin untouched.
func (p *Projector) Project(f Fix, altitude float64) (mgl64.Vec3, bool) {
	if !f.Valid() {
		return mgl64.Vec3{}, false
	}
	if !p.anchored {
		p.originLat = f.Latitude
		p.originLon = f.Longitude
		p.anchored = true
	}

	x := (f.Longitude - p.originLon) * metersPerDegree * math.Cos(mgl64.DegToRad(p.originLat))
	y := (f.Latitude - p.originLat) * metersPerDegree
	return mgl64.Vec3{x, y, altitude}, true
}

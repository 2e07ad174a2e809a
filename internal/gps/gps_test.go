package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectorAnchorsOnFirstValidFix(t *testing.T) {
	var p Projector
	require.False(t, p.Anchored())

	first := Fix{Latitude: 52.52, Longitude: 13.405, Validity: "A"}
	pos, ok := p.Project(first, 34.0)
	require.True(t, ok)
	assert.InDelta(t, 0, pos.X(), 1e-9)
	assert.InDelta(t, 0, pos.Y(), 1e-9)
	assert.InDelta(t, 34.0, pos.Z(), 1e-9)
	assert.True(t, p.Anchored())
}

func TestProjectorNorthDisplacement(t *testing.T) {
	var p Projector
	p.Project(Fix{Latitude: 52.0, Longitude: 13.0, Validity: "A"}, 0)

	// 0.001 degrees of latitude is about 111.3 m due north.
	pos, ok := p.Project(Fix{Latitude: 52.001, Longitude: 13.0, Validity: "A"}, 0)
	require.True(t, ok)
	assert.InDelta(t, 111.32, pos.Y(), 0.01)
	assert.InDelta(t, 0, pos.X(), 1e-6)
}

func TestProjectorEastScalesWithLatitude(t *testing.T) {
	var p Projector
	p.Project(Fix{Latitude: 60.0, Longitude: 10.0, Validity: "A"}, 0)

	// At 60°N a degree of longitude is half a degree of latitude.
	pos, ok := p.Project(Fix{Latitude: 60.0, Longitude: 10.001, Validity: "A"}, 0)
	require.True(t, ok)
	assert.InDelta(t, 111.32/2, pos.X(), 0.1)
}

func TestProjectorRejectsVoidFix(t *testing.T) {
	var p Projector
	_, ok := p.Project(Fix{Latitude: 52.0, Longitude: 13.0, Validity: "V"}, 0)
	assert.False(t, ok)
	assert.False(t, p.Anchored(), "void fixes must not anchor the origin")
}

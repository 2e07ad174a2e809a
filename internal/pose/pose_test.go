package pose

import (
	"io"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleAccessors(t *testing.T) {
	q := mgl64.QuatRotate(mgl64.DegToRad(45), mgl64.Vec3{0, 0, 1})
	s := New("body1", 1.5, mgl64.Vec3{1, 2, 3}, q)

	assert.Equal(t, "body1", s.Source)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, s.Position())
	assert.InDelta(t, q.W, s.Orientation().W, 1e-12)
	assert.InDelta(t, q.Z(), s.Orientation().Z(), 1e-12)
}

func TestReplaySourceReadsLog(t *testing.T) {
	log := `# captured poses
{"source":"body1","t":0.0,"px":0,"py":0,"pz":0,"qw":1,"qx":0,"qy":0,"qz":0}

{"source":"body1","t":0.02,"px":0.01,"py":0,"pz":0,"qw":1,"qx":0,"qy":0,"qz":0}
`
	src := NewReplaySource(strings.NewReader(log))

	first, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.Time)

	second, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.02, second.Time)
	assert.Equal(t, mgl64.Vec3{0.01, 0, 0}, second.Position())

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplaySourceReportsBadLine(t *testing.T) {
	src := NewReplaySource(strings.NewReader("{not json}\n"))
	_, err := src.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestMockSourceAdvances(t *testing.T) {
	src := NewMockSource("mock")
	s, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "mock", s.Source)

	// Orientation stays a unit quaternion.
	assert.InDelta(t, 1.0, s.Orientation().Len(), 1e-9)
}

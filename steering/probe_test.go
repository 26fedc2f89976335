package steering

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastAhead(t *testing.T) {
	tests := []struct {
		name        string
		world       WorldQuery
		wantBlocked bool
	}{
		{"nil world is clear", nil, false},
		{"empty world is clear", &stubWorld{}, false},
		{"blocking hit", blockAll(), true},
		{"non-blocking hit is clear", &stubWorld{blocked: func(_, _ mgl64.Vec3) bool { return true }}, false},
		{"query error is clear", &stubWorld{err: errors.New("timeout")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProbeCaster(tt.world, NewIgnoreSet(1), nil, quietLogger())
			blocked, end := p.CastAhead(mgl64.Vec3{10, 20, 30}, mgl64.Vec3{0, 1, 0}, 100)
			assert.Equal(t, tt.wantBlocked, blocked)
			assert.Equal(t, mgl64.Vec3{10, 120, 30}, end)
		})
	}
}

func TestCastConeEndPointsAndOrder(t *testing.T) {
	origin := mgl64.Vec3{1, 2, 3}
	forward := mgl64.Vec3{1, 0, 0}
	dirs := []mgl64.Vec3{{0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	// Block probes veering left or up.
	world := &stubWorld{
		blocking: true,
		blocked: func(from, to mgl64.Vec3) bool {
			d := to.Sub(from)
			return d.Y() > 0 || d.Z() > 0
		},
	}
	p := NewProbeCaster(world, nil, nil, quietLogger())

	var out ProbeResults
	p.CastCone(origin, forward, dirs, 10, &out)

	require.Len(t, out.Hit, 2)
	require.Len(t, out.Missed, 2)
	assert.Equal(t, mgl64.Vec3{11, 12, 3}, out.Hit[0])
	assert.Equal(t, mgl64.Vec3{11, 2, 13}, out.Hit[1])
	assert.Equal(t, mgl64.Vec3{11, -8, 3}, out.Missed[0])
	assert.Equal(t, mgl64.Vec3{11, 2, -7}, out.Missed[1])

	out.Reset()
	assert.Empty(t, out.Hit)
	assert.Empty(t, out.Missed)
}

func TestProbeCasterFailures(t *testing.T) {
	world := &stubWorld{err: errors.New("query failed")}
	p := NewProbeCaster(world, nil, nil, quietLogger())

	var out ProbeResults
	p.CastCone(mgl64.Vec3{}, AxisForward, BuildCone(12, 1.6180339), 500, &out)

	assert.Len(t, out.Missed, 12)
	assert.Empty(t, out.Hit)
	assert.Equal(t, 12, p.Failures())
}

func TestProbeCasterDraw(t *testing.T) {
	draw := &RecordingDraw{}
	p := NewProbeCaster(blockAll(), nil, draw, quietLogger())
	p.Check(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})

	lines := draw.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, ColorBlocked, lines[0].Color)
	assert.Equal(t, "red", lines[0].Color.String())

	draw.Reset()
	assert.Empty(t, draw.Lines())
}

func TestIgnoreSet(t *testing.T) {
	s := NewIgnoreSet(NoEntity, 3, 4)
	assert.Len(t, s, 2)
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(NoEntity))

	var empty IgnoreSet
	assert.False(t, empty.Contains(3))
}

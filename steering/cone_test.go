package steering

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConeUnitVectors(t *testing.T) {
	for _, n := range []int{2, 3, 5, 12, 13, 64, 257} {
		dirs := BuildCone(n, 1.6180339)
		require.Len(t, dirs, n, "n=%d", n)
		for i, d := range dirs {
			assert.InDelta(t, 1.0, d.Len(), 1e-9, "n=%d i=%d", n, i)
		}
	}
}

func TestBuildConeEndpoints(t *testing.T) {
	dirs := BuildCone(12, 1.6180339)

	// t=0 and t=1 sit on the poles.
	assert.True(t, vecNear(dirs[0], mgl64.Vec3{0, 0, 1}), "first = %v", dirs[0])
	assert.InDelta(t, -1.0, dirs[11].Z(), 1e-9)
}

func TestBuildConeDegenerate(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []mgl64.Vec3
	}{
		{"negative", -3, nil},
		{"zero", 0, nil},
		{"single sample is forward", 1, []mgl64.Vec3{AxisForward}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildCone(tt.n, 1.6180339))
		})
	}
}

func TestConeSamplerCache(t *testing.T) {
	s := NewConeSampler(1.6180339)

	first := s.Directions(12)
	second := s.Directions(12)
	require.Len(t, first, 12)
	assert.Same(t, &first[0], &second[0], "same count must reuse the cached slice")
	assert.Equal(t, 1, s.Builds())

	third := s.Directions(20)
	require.Len(t, third, 20)
	assert.NotSame(t, &first[0], &third[0], "new count must replace the list")
	assert.Equal(t, 2, s.Builds())
	assert.Equal(t, ConeCache{Count: 20, Directions: third}, s.Cache())

	// The old list is untouched by the rebuild.
	assert.Equal(t, BuildCone(12, 1.6180339), first)

	back := s.Directions(12)
	assert.Equal(t, 3, s.Builds())
	assert.Equal(t, first, back)
}

func TestConeSamplerTurnFraction(t *testing.T) {
	s := NewConeSampler(1.6180339)
	s.Directions(8)

	s.SetTurnFraction(1.6180339)
	s.Directions(8)
	assert.Equal(t, 1, s.Builds(), "unchanged fraction keeps the cache")

	s.SetTurnFraction(0.5)
	got := s.Directions(8)
	assert.Equal(t, 2, s.Builds())
	assert.Equal(t, BuildCone(8, 0.5), got)
}

func TestConeSamplerEmpty(t *testing.T) {
	s := NewConeSampler(1.6180339)
	dirs := s.Directions(0)
	assert.NotNil(t, dirs)
	assert.Empty(t, dirs)

	s.Directions(0)
	assert.Equal(t, 1, s.Builds())
}

func TestConeCacheStale(t *testing.T) {
	assert.True(t, ConeCache{}.Stale(0))
	c := ConeCache{Count: 4, Directions: BuildCone(4, 1.6180339)}
	assert.False(t, c.Stale(4))
	assert.True(t, c.Stale(5))
}

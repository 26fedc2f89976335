package arena

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/schooling/config"
)

func TestGenerateReefDeterministic(t *testing.T) {
	cfg := config.Defaults().Arena
	cfg.Reef.Threshold = 0.55

	a := GenerateReef(cfg, 42)
	require.NotEmpty(t, a)
	b := GenerateReef(cfg, 42)
	assert.Equal(t, a, b)

	c := GenerateReef(cfg, 43)
	assert.NotEqual(t, a, c)
}

func TestGenerateReefRespectsBounds(t *testing.T) {
	cfg := config.Defaults().Arena
	cfg.Reef.Threshold = 0.5 // dense enough to exercise every branch

	rocks := GenerateReef(cfg, 7)
	require.NotEmpty(t, rocks)

	center := mgl64.Vec3{cfg.Width / 2, cfg.Depth / 2, cfg.Height / 2}
	for _, r := range rocks {
		assert.GreaterOrEqual(t, r.Radius, cfg.Reef.MinRadius)
		assert.LessOrEqual(t, r.Radius, cfg.Reef.MaxRadius)
		assert.GreaterOrEqual(t, r.Center.Sub(center).Len(), cfg.Reef.ClearRadius+r.Radius,
			"rock %v intrudes on the spawn bubble", r.Center)
	}
}

func TestGenerateReefDisabled(t *testing.T) {
	cfg := config.Defaults().Arena
	cfg.Reef.Spacing = 0
	assert.Empty(t, GenerateReef(cfg, 1))

	cfg = config.Defaults().Arena
	cfg.Reef.Threshold = 1.5
	assert.Empty(t, GenerateReef(cfg, 1))
}

func TestBuild(t *testing.T) {
	cfg := config.Defaults()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := Build(cfg, 42, log)
	counts := w.Counts()

	assert.Equal(t, 6, counts[KindWall])
	assert.Equal(t, len(cfg.Arena.Triggers), counts[KindTrigger])
	assert.Equal(t, len(GenerateReef(cfg.Arena, 42)), counts[KindRock])

	// The spawn bubble is open water.
	_, hit := w.Collides(w.Center(), cfg.School.BodyRadius, nil)
	assert.False(t, hit)
	assert.True(t, w.InBounds(w.Center()))
	assert.False(t, w.InBounds(mgl64.Vec3{-1, 0, 0}))
}

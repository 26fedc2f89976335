package arena

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/schooling/config"
)

const (
	// Extra density near the floor so the reef reads as a bed rather than a cloud.
	floorBias = 0.12
	// Noise offset used for position jitter, far from the density field.
	jitterOffset = 1000.0
)

// Rock is one generated reef sphere.
type Rock struct {
	Center mgl64.Vec3
	Radius float64
}

// GenerateReef samples normalized simplex noise on a lattice over the tank and
// places a rock wherever the (floor-biased) density exceeds the threshold.
// Rocks never intrude on the clear bubble around the tank centre. The result
// depends only on cfg and seed.
func GenerateReef(cfg config.ArenaConfig, seed int64) []Rock {
	r := cfg.Reef
	if r.Spacing <= 0 || cfg.Width <= 0 || cfg.Depth <= 0 || cfg.Height <= 0 {
		return nil
	}

	noise := opensimplex.NewNormalized(seed)
	center := mgl64.Vec3{cfg.Width / 2, cfg.Depth / 2, cfg.Height / 2}
	span := 1 - r.Threshold
	if span <= 0 {
		span = 1
	}

	var rocks []Rock
	for z := r.Spacing / 2; z < cfg.Height; z += r.Spacing {
		bias := floorBias * (1 - z/cfg.Height)
		for y := r.Spacing / 2; y < cfg.Depth; y += r.Spacing {
			for x := r.Spacing / 2; x < cfg.Width; x += r.Spacing {
				density := noise.Eval3(x*r.NoiseScale, y*r.NoiseScale, z*r.NoiseScale) + bias
				if density <= r.Threshold {
					continue
				}

				strength := (density - r.Threshold) / span
				if strength > 1 {
					strength = 1
				}
				radius := r.MinRadius + strength*(r.MaxRadius-r.MinRadius)

				// Jitter within the lattice cell so rocks do not line up.
				jx := (noise.Eval3(x*r.NoiseScale+jitterOffset, y*r.NoiseScale, z*r.NoiseScale) - 0.5) * r.Spacing * 0.5
				jy := (noise.Eval3(x*r.NoiseScale, y*r.NoiseScale+jitterOffset, z*r.NoiseScale) - 0.5) * r.Spacing * 0.5
				jz := (noise.Eval3(x*r.NoiseScale, y*r.NoiseScale, z*r.NoiseScale+jitterOffset) - 0.5) * r.Spacing * 0.5
				pos := mgl64.Vec3{x + jx, y + jy, z + jz}

				if pos.Sub(center).Len() < r.ClearRadius+radius {
					continue
				}
				rocks = append(rocks, Rock{Center: pos, Radius: radius})
			}
		}
	}
	return rocks
}

// Build creates the full arena described by cfg: walls, reef and triggers.
func Build(cfg *config.Config, seed int64, log *slog.Logger) *World {
	if log == nil {
		log = slog.Default()
	}
	a := cfg.Arena
	size := mgl64.Vec3{a.Width, a.Depth, a.Height}

	cellSize := a.Reef.Spacing
	if cellSize <= 0 {
		cellSize = 1000
	}
	w := NewWorld(size, cellSize)

	if a.WallThickness > 0 {
		w.AddWalls(a.WallThickness)
	}
	for _, rock := range GenerateReef(a, seed) {
		w.AddSphere(KindRock, rock.Center, rock.Radius)
	}
	for _, t := range a.Triggers {
		w.AddTrigger(t.Name, mgl64.Vec3(t.Center), t.Radius)
	}

	counts := w.Counts()
	log.Info("arena built",
		"size", size,
		"rocks", counts[KindRock],
		"walls", counts[KindWall],
		"triggers", counts[KindTrigger],
		"seed", seed,
	)
	return w
}

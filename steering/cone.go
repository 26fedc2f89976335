package steering

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BuildCone returns n unit directions spread over the sphere with the
// golden-angle spiral: for i in [0, n), t = i/(n-1), inclination = acos(1-2t),
// azimuth = 2π·turnFraction·i.
//
// n <= 0 yields nil. n == 1 yields the pure forward direction, since t is
// undefined for a single sample.
func BuildCone(n int, turnFraction float64) []mgl64.Vec3 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []mgl64.Vec3{AxisForward}
	}

	dirs := make([]mgl64.Vec3, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		inclination := math.Acos(1 - 2*t)
		azimuth := 2 * math.Pi * turnFraction * float64(i)

		sinInc := math.Sin(inclination)
		dirs[i] = mgl64.Vec3{
			sinInc * math.Cos(azimuth),
			sinInc * math.Sin(azimuth),
			math.Cos(inclination),
		}
	}
	return dirs
}

// ConeCache remembers the last built cone. It is stale whenever the requested
// count differs from Count.
type ConeCache struct {
	Count      int
	Directions []mgl64.Vec3
}

// Stale reports whether the cache must be rebuilt for n samples.
func (c ConeCache) Stale(n int) bool {
	return c.Directions == nil || c.Count != n
}

// ConeSampler memoizes BuildCone against the last requested sample count.
type ConeSampler struct {
	turnFraction float64
	cache        ConeCache
	builds       int
}

// NewConeSampler creates a sampler using the given azimuthal turn fraction.
func NewConeSampler(turnFraction float64) *ConeSampler {
	return &ConeSampler{turnFraction: turnFraction}
}

// Directions returns the cone for n samples, rebuilding it wholesale only when
// n differs from the last build. The returned slice is shared; do not modify it.
func (s *ConeSampler) Directions(n int) []mgl64.Vec3 {
	if s.cache.Stale(n) {
		s.cache = ConeCache{Count: n, Directions: BuildCone(n, s.turnFraction)}
		if s.cache.Directions == nil {
			s.cache.Directions = []mgl64.Vec3{}
		}
		s.builds++
	}
	return s.cache.Directions
}

// SetTurnFraction changes the azimuthal step and invalidates the cache.
func (s *ConeSampler) SetTurnFraction(f float64) {
	if f == s.turnFraction {
		return
	}
	s.turnFraction = f
	s.cache = ConeCache{}
}

// Cache returns the current cache value.
func (s *ConeSampler) Cache() ConeCache {
	return s.cache
}

// Builds returns how many times the cone has been rebuilt.
func (s *ConeSampler) Builds() int {
	return s.builds
}

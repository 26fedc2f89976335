package steering

import "math/rand"

// RandomSource supplies the randomness used by avoidance and wander.
// Swap in a seeded source for deterministic runs.
type RandomSource interface {
	// FloatRange returns a uniform value in [min, max].
	FloatRange(min, max float64) float64
	// IntRange returns a uniform integer in [min, max], both inclusive.
	IntRange(min, max int) int
}

// rngSource adapts *rand.Rand to RandomSource.
type rngSource struct {
	rng *rand.Rand
}

// NewRandomSource returns a RandomSource seeded with seed.
func NewRandomSource(seed int64) RandomSource {
	return &rngSource{rng: rand.New(rand.NewSource(seed))}
}

// WrapRand adapts an existing *rand.Rand.
func WrapRand(rng *rand.Rand) RandomSource {
	return &rngSource{rng: rng}
}

func (r *rngSource) FloatRange(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.rng.Float64()*(max-min)
}

func (r *rngSource) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.Intn(max-min+1)
}

// Chance reports true with probability 1/outOf: a uniform draw in [1, outOf]
// must land exactly on outOf. outOf <= 1 always succeeds.
func Chance(rng RandomSource, outOf int) bool {
	if outOf <= 1 {
		return true
	}
	return rng.IntRange(1, outOf) == outOf
}

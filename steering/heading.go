package steering

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Outcome classifies a steering decision.
type Outcome uint8

const (
	OutcomeClear       Outcome = iota // Ahead probe clear, no avoidance needed
	OutcomeAvoid                      // Steer toward Decision.Target
	OutcomeNoDirection                // Blocked, but no candidate direction; keep heading
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeClear:
		return "clear"
	case OutcomeAvoid:
		return "avoid"
	case OutcomeNoDirection:
		return "no_direction"
	}
	return "unknown"
}

// PolicyInput is everything a steering policy sees for one decision.
type PolicyInput struct {
	Origin       mgl64.Vec3
	Orientation  mgl64.Quat
	AheadBlocked bool
	Probes       ProbeResults
	Last         mgl64.Vec3 // Previous avoidance point, valid when HasLast
	HasLast      bool
}

// Decision is the output of a steering policy.
type Decision struct {
	Outcome Outcome
	Target  mgl64.Vec3 // World-space point to steer toward (OutcomeAvoid only)
	Pitch   float64    // Degrees per second
	Yaw     float64    // Degrees per second
}

// SteeringPolicy turns probe results into a heading change.
type SteeringPolicy interface {
	Decide(in PolicyInput) Decision
}

// HeadingSelector is the default SteeringPolicy.
//
// While blocked it keeps steering toward the previous avoidance point as long
// as the cone reports nothing blocked; once any cone probe hits (or there is no
// previous point) it picks a random clear probe, or failing that the blocked
// probe reaching farthest.
type HeadingSelector struct {
	rng RandomSource
}

// NewHeadingSelector creates a selector drawing random choices from rng.
func NewHeadingSelector(rng RandomSource) *HeadingSelector {
	return &HeadingSelector{rng: rng}
}

// Decide implements SteeringPolicy.
func (h *HeadingSelector) Decide(in PolicyInput) Decision {
	if !in.AheadBlocked {
		return Decision{Outcome: OutcomeClear}
	}

	selected, found := in.Last, in.HasLast

	// With nothing seeded a clear probe is taken even though the cone saw no
	// hit, so an agent meeting its first wall turns on that same tick.
	if len(in.Probes.Hit) > 0 || !found {
		if len(in.Probes.Missed) > 0 {
			selected, found = SelectRandom(in.Probes.Missed, h.rng), true
		} else if far, ok := SelectFarthest(in.Origin, in.Probes.Hit); ok {
			selected, found = far, true
		}
	}

	if !found {
		return Decision{Outcome: OutcomeNoDirection}
	}

	yaw, pitch := YawPitchFromVector(toLocal(in.Orientation, selected.Sub(in.Origin)))
	return Decision{
		Outcome: OutcomeAvoid,
		Target:  selected,
		Pitch:   pitch,
		Yaw:     yaw,
	}
}

// toLocal expresses a world-space direction in the frame of q.
func toLocal(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	if q.Len() == 0 {
		return v
	}
	return q.Inverse().Rotate(v)
}

// SelectRandom returns a uniformly chosen element of points.
// points must not be empty.
func SelectRandom(points []mgl64.Vec3, rng RandomSource) mgl64.Vec3 {
	return points[rng.IntRange(0, len(points)-1)]
}

// SelectFarthest returns the point farthest from origin. Ties keep the first
// point encountered. When every point sits on the origin the origin itself is
// returned. ok is false only when points is empty.
func SelectFarthest(origin mgl64.Vec3, points []mgl64.Vec3) (mgl64.Vec3, bool) {
	if len(points) == 0 {
		return mgl64.Vec3{}, false
	}
	best, bestDist := origin, 0.0
	for _, p := range points {
		if d := distance(origin, p); d > bestDist {
			best, bestDist = p, d
		}
	}
	return best, true
}

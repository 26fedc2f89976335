package arena

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/schooling/steering"
)

// Kind classifies an obstacle.
type Kind uint8

const (
	KindRock    Kind = iota // Reef rock, blocking
	KindWall                // Tank wall slab, blocking
	KindTrigger             // Pass-through volume
	KindAgent               // Another agent's body, blocking
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRock:
		return "rock"
	case KindWall:
		return "wall"
	case KindTrigger:
		return "trigger"
	case KindAgent:
		return "agent"
	}
	return "unknown"
}

// Shape is the geometric primitive of an obstacle.
type Shape uint8

const (
	ShapeSphere Shape = iota
	ShapeBox
)

// Obstacle is a sphere or axis-aligned box in the arena.
type Obstacle struct {
	ID    steering.EntityID
	Name  string
	Kind  Kind
	Shape Shape

	// Sphere
	Center mgl64.Vec3
	Radius float64

	// Box
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Blocking reports whether the obstacle stops a probe.
func (o *Obstacle) Blocking() bool {
	return o.Kind != KindTrigger
}

// Bounds returns the obstacle's axis-aligned bounding box.
func (o *Obstacle) Bounds() (mgl64.Vec3, mgl64.Vec3) {
	if o.Shape == ShapeBox {
		return o.Min, o.Max
	}
	r := mgl64.Vec3{o.Radius, o.Radius, o.Radius}
	return o.Center.Sub(r), o.Center.Add(r)
}

// Contains reports whether p lies inside the obstacle.
func (o *Obstacle) Contains(p mgl64.Vec3) bool {
	if o.Shape == ShapeBox {
		return pointInBox(p, o.Min, o.Max)
	}
	return p.Sub(o.Center).LenSqr() <= o.Radius*o.Radius
}

// Overlaps reports whether a sphere of radius r at p touches the obstacle.
func (o *Obstacle) Overlaps(p mgl64.Vec3, r float64) bool {
	if o.Shape == ShapeBox {
		// Distance from p to the closest point of the box.
		var d2 float64
		for i := 0; i < 3; i++ {
			v := p[i]
			if v < o.Min[i] {
				d2 += (o.Min[i] - v) * (o.Min[i] - v)
			} else if v > o.Max[i] {
				d2 += (v - o.Max[i]) * (v - o.Max[i])
			}
		}
		return d2 <= r*r
	}
	rr := o.Radius + r
	return p.Sub(o.Center).LenSqr() <= rr*rr
}

// Intersect returns the segment parameter t in [0, 1] of the first contact
// between from -> to and the obstacle. A segment starting inside reports t = 0.
func (o *Obstacle) Intersect(from, to mgl64.Vec3) (float64, bool) {
	if o.Shape == ShapeBox {
		return segmentBox(from, to, o.Min, o.Max)
	}
	return segmentSphere(from, to, o.Center, o.Radius)
}

func pointInBox(p, min, max mgl64.Vec3) bool {
	return p[0] >= min[0] && p[0] <= max[0] &&
		p[1] >= min[1] && p[1] <= max[1] &&
		p[2] >= min[2] && p[2] <= max[2]
}

// segmentSphere solves |from + t*d - c|^2 = r^2 for the smallest t in [0, 1].
func segmentSphere(from, to, center mgl64.Vec3, radius float64) (float64, bool) {
	d := to.Sub(from)
	f := from.Sub(center)

	c := f.Dot(f) - radius*radius
	if c <= 0 {
		return 0, true
	}

	a := d.Dot(d)
	if a == 0 {
		return 0, false
	}
	b := 2 * f.Dot(d)
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// segmentBox is the slab test clipped to the segment range [0, 1].
func segmentBox(from, to, min, max mgl64.Vec3) (float64, bool) {
	d := to.Sub(from)
	tmin, tmax := 0.0, 1.0

	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			// Parallel to this slab
			if from[i] < min[i] || from[i] > max[i] {
				return 0, false
			}
			continue
		}

		invD := 1.0 / d[i]
		t0 := (min[i] - from[i]) * invD
		t1 := (max[i] - from[i]) * invD
		if invD < 0 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmax < tmin {
			return 0, false
		}
	}
	return tmin, true
}

// Package arena is a bounded 3D tank of obstacles that answers presence checks
// for steering agents.
package arena

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/schooling/steering"
)

// ErrInvalidSegment is returned for probes with non-finite end points.
var ErrInvalidSegment = errors.New("arena: segment has non-finite coordinates")

const (
	// Static obstacles spanning more cells than this skip the grid and are
	// tested on every query.
	maxGridSpan = 64

	// Entity ids below this are reserved for agents.
	firstObstacleID steering.EntityID = 1 << 32
)

// Body is a dynamic sphere, typically another agent.
type Body struct {
	ID     steering.EntityID
	Center mgl64.Vec3
	Radius float64
}

// World is the arena. Mutating methods must not run concurrently with queries;
// concurrent CastPresence calls between mutations are safe.
type World struct {
	size mgl64.Vec3

	static []Obstacle
	large  []int32 // Static obstacles kept out of the grid
	grid   *Grid

	bodies   []Obstacle
	bodyGrid *Grid

	nextID steering.EntityID
}

// NewWorld creates an empty tank spanning [0, size] on each axis.
func NewWorld(size mgl64.Vec3, cellSize float64) *World {
	if cellSize <= 0 {
		cellSize = 1000
	}
	return &World{
		size:     size,
		grid:     NewGrid(size, cellSize),
		bodyGrid: NewGrid(size, cellSize),
		nextID:   firstObstacleID,
	}
}

// Size returns the tank extents.
func (w *World) Size() mgl64.Vec3 {
	return w.size
}

// Center returns the middle of the tank.
func (w *World) Center() mgl64.Vec3 {
	return w.size.Mul(0.5)
}

// InBounds reports whether p lies inside the tank.
func (w *World) InBounds(p mgl64.Vec3) bool {
	return pointInBox(p, mgl64.Vec3{}, w.size)
}

func (w *World) add(o Obstacle) steering.EntityID {
	o.ID = w.nextID
	w.nextID++

	idx := int32(len(w.static))
	w.static = append(w.static, o)

	min, max := o.Bounds()
	if w.grid.CellSpan(min, max) > maxGridSpan {
		w.large = append(w.large, idx)
	} else {
		w.grid.Insert(idx, min, max)
	}
	return o.ID
}

// AddSphere adds a static sphere.
func (w *World) AddSphere(kind Kind, center mgl64.Vec3, radius float64) steering.EntityID {
	return w.add(Obstacle{Kind: kind, Shape: ShapeSphere, Center: center, Radius: radius})
}

// AddBox adds a static axis-aligned box.
func (w *World) AddBox(kind Kind, min, max mgl64.Vec3) steering.EntityID {
	return w.add(Obstacle{Kind: kind, Shape: ShapeBox, Min: min, Max: max})
}

// AddTrigger adds a named non-blocking sphere.
func (w *World) AddTrigger(name string, center mgl64.Vec3, radius float64) steering.EntityID {
	return w.add(Obstacle{Name: name, Kind: KindTrigger, Shape: ShapeSphere, Center: center, Radius: radius})
}

// AddWalls encloses the tank in six slabs of the given thickness, placed
// outside [0, size].
func (w *World) AddWalls(thickness float64) {
	s := w.size
	t := thickness
	w.AddBox(KindWall, mgl64.Vec3{-t, -t, -t}, mgl64.Vec3{0, s[1] + t, s[2] + t})
	w.AddBox(KindWall, mgl64.Vec3{s[0], -t, -t}, mgl64.Vec3{s[0] + t, s[1] + t, s[2] + t})
	w.AddBox(KindWall, mgl64.Vec3{-t, -t, -t}, mgl64.Vec3{s[0] + t, 0, s[2] + t})
	w.AddBox(KindWall, mgl64.Vec3{-t, s[1], -t}, mgl64.Vec3{s[0] + t, s[1] + t, s[2] + t})
	w.AddBox(KindWall, mgl64.Vec3{-t, -t, -t}, mgl64.Vec3{s[0] + t, s[1] + t, 0})
	w.AddBox(KindWall, mgl64.Vec3{-t, -t, s[2]}, mgl64.Vec3{s[0] + t, s[1] + t, s[2] + t})
}

// SetBodies replaces the dynamic bodies. Call between ticks.
func (w *World) SetBodies(bodies []Body) {
	w.bodies = w.bodies[:0]
	w.bodyGrid.Clear()
	for i, b := range bodies {
		o := Obstacle{ID: b.ID, Kind: KindAgent, Shape: ShapeSphere, Center: b.Center, Radius: b.Radius}
		w.bodies = append(w.bodies, o)
		min, max := o.Bounds()
		w.bodyGrid.Insert(int32(i), min, max)
	}
}

// Obstacles returns the static obstacles. The slice is shared.
func (w *World) Obstacles() []Obstacle {
	return w.static
}

// Bodies returns the dynamic bodies. The slice is shared.
func (w *World) Bodies() []Obstacle {
	return w.bodies
}

// CastPresence implements steering.WorldQuery. The nearest blocking contact
// wins; a probe touching only triggers reports the nearest trigger with
// Blocking false.
func (w *World) CastPresence(from, to mgl64.Vec3, ignore steering.IgnoreSet) (steering.HitInfo, bool, error) {
	if !finite(from) || !finite(to) {
		return steering.HitInfo{}, false, fmt.Errorf("cast %v -> %v: %w", from, to, ErrInvalidSegment)
	}

	var best, bestTrigger hitCandidate
	min, max := segmentBounds(from, to)

	var buf [64]int32
	candidates := w.grid.QueryInto(buf[:0], min, max)
	candidates = append(candidates, w.large...)
	for _, idx := range candidates {
		w.consider(&w.static[idx], from, to, ignore, &best, &bestTrigger)
	}

	candidates = w.bodyGrid.QueryInto(candidates[:0], min, max)
	for _, idx := range candidates {
		w.consider(&w.bodies[idx], from, to, ignore, &best, &bestTrigger)
	}

	switch {
	case best.ok:
		return best.hit(from, to, true), true, nil
	case bestTrigger.ok:
		return bestTrigger.hit(from, to, false), true, nil
	}
	return steering.HitInfo{}, false, nil
}

type hitCandidate struct {
	ok     bool
	t      float64
	entity steering.EntityID
}

func (c hitCandidate) hit(from, to mgl64.Vec3, blocking bool) steering.HitInfo {
	return steering.HitInfo{
		Entity:   c.entity,
		Point:    from.Add(to.Sub(from).Mul(c.t)),
		Blocking: blocking,
	}
}

func (w *World) consider(o *Obstacle, from, to mgl64.Vec3, ignore steering.IgnoreSet, best, bestTrigger *hitCandidate) {
	if ignore.Contains(o.ID) {
		return
	}
	t, ok := o.Intersect(from, to)
	if !ok {
		return
	}
	target := best
	if !o.Blocking() {
		target = bestTrigger
	}
	if !target.ok || t < target.t {
		*target = hitCandidate{ok: true, t: t, entity: o.ID}
	}
}

// Collides reports the first blocking obstacle overlapping a sphere of radius r
// at p, skipping ignored entities.
func (w *World) Collides(p mgl64.Vec3, r float64, ignore steering.IgnoreSet) (steering.EntityID, bool) {
	pad := mgl64.Vec3{r, r, r}
	min, max := p.Sub(pad), p.Add(pad)

	var buf [64]int32
	candidates := w.grid.QueryInto(buf[:0], min, max)
	candidates = append(candidates, w.large...)
	for _, idx := range candidates {
		o := &w.static[idx]
		if o.Blocking() && !ignore.Contains(o.ID) && o.Overlaps(p, r) {
			return o.ID, true
		}
	}

	candidates = w.bodyGrid.QueryInto(candidates[:0], min, max)
	for _, idx := range candidates {
		o := &w.bodies[idx]
		if !ignore.Contains(o.ID) && o.Overlaps(p, r) {
			return o.ID, true
		}
	}
	return steering.NoEntity, false
}

// TriggersAt returns the names of trigger volumes containing p.
func (w *World) TriggersAt(p mgl64.Vec3) []string {
	var names []string
	var buf [64]int32
	for _, idx := range w.grid.QueryInto(buf[:0], p, p) {
		o := &w.static[idx]
		if o.Kind == KindTrigger && o.Contains(p) && !containsName(names, o.Name) {
			names = append(names, o.Name)
		}
	}
	for _, idx := range w.large {
		o := &w.static[idx]
		if o.Kind == KindTrigger && o.Contains(p) && !containsName(names, o.Name) {
			names = append(names, o.Name)
		}
	}
	return names
}

// Counts returns the number of static obstacles of each kind.
func (w *World) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for i := range w.static {
		counts[w.static[i].Kind]++
	}
	return counts
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

package steering

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// EntityID identifies something in the host world.
type EntityID uint64

// NoEntity is the zero EntityID.
const NoEntity EntityID = 0

// IgnoreSet lists entities a probe must pass through.
type IgnoreSet map[EntityID]struct{}

// NewIgnoreSet builds an IgnoreSet from ids, skipping NoEntity.
func NewIgnoreSet(ids ...EntityID) IgnoreSet {
	set := make(IgnoreSet, len(ids))
	for _, id := range ids {
		if id != NoEntity {
			set[id] = struct{}{}
		}
	}
	return set
}

// Contains reports whether id is ignored.
func (s IgnoreSet) Contains(id EntityID) bool {
	_, ok := s[id]
	return ok
}

// HitInfo describes the first thing a presence check touched.
type HitInfo struct {
	Entity   EntityID
	Point    mgl64.Vec3
	Blocking bool // Non-blocking hits (triggers) count as a clear probe
}

// WorldQuery performs presence checks against the host world.
type WorldQuery interface {
	// CastPresence checks the segment from -> to, skipping ignored entities.
	// ok is false when nothing was touched.
	CastPresence(from, to mgl64.Vec3, ignore IgnoreSet) (hit HitInfo, ok bool, err error)
}

// ProbeResults partitions cone probe end points by outcome, in cone order.
type ProbeResults struct {
	Missed []mgl64.Vec3
	Hit    []mgl64.Vec3
}

// Reset empties both sequences, keeping capacity.
func (r *ProbeResults) Reset() {
	r.Missed = r.Missed[:0]
	r.Hit = r.Hit[:0]
}

// ProbeCaster casts the ahead probe and the cone probes for one agent.
type ProbeCaster struct {
	world  WorldQuery
	ignore IgnoreSet
	draw   DebugDraw
	log    *slog.Logger

	failures int
}

// NewProbeCaster creates a caster. The ignore set is fixed for its lifetime.
// draw and log may be nil.
func NewProbeCaster(world WorldQuery, ignore IgnoreSet, draw DebugDraw, log *slog.Logger) *ProbeCaster {
	if draw == nil {
		draw = NopDraw{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProbeCaster{
		world:  world,
		ignore: ignore,
		draw:   draw,
		log:    log,
	}
}

// Check casts one presence check and reports whether a blocking obstruction
// lies on the segment. Query failures are logged and treated as clear.
func (p *ProbeCaster) Check(from, to mgl64.Vec3) bool {
	blocked := false
	if p.world != nil {
		hit, ok, err := p.world.CastPresence(from, to, p.ignore)
		switch {
		case err != nil:
			p.failures++
			p.log.Warn("world query failed, treating probe as clear",
				"from", from,
				"to", to,
				"error", err,
			)
		case ok:
			blocked = hit.Blocking
		}
	}

	color := ColorClear
	if blocked {
		color = ColorBlocked
	}
	p.draw.Line(from, to, color)

	return blocked
}

// CastAhead probes straight along forward for traceLength.
func (p *ProbeCaster) CastAhead(origin, forward mgl64.Vec3, traceLength float64) (bool, mgl64.Vec3) {
	end := origin.Add(forward.Mul(traceLength))
	return p.Check(origin, end), end
}

// CastCone probes origin -> origin + (forward+d)*traceLength for every cone
// direction d, appending each end point to Missed or Hit in cone order.
func (p *ProbeCaster) CastCone(origin, forward mgl64.Vec3, dirs []mgl64.Vec3, traceLength float64, out *ProbeResults) {
	for _, d := range dirs {
		end := origin.Add(forward.Add(d).Mul(traceLength))
		if p.Check(origin, end) {
			out.Hit = append(out.Hit, end)
		} else {
			out.Missed = append(out.Missed, end)
		}
	}
}

// Failures returns how many world queries have failed.
func (p *ProbeCaster) Failures() int {
	return p.failures
}

// Draw returns the debug sink.
func (p *ProbeCaster) Draw() DebugDraw {
	return p.draw
}

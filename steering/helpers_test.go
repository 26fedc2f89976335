package steering

import (
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// stubWorld answers presence checks with a predicate over the probe segment.
type stubWorld struct {
	blocked  func(from, to mgl64.Vec3) bool
	err      error
	calls    int
	ignores  []IgnoreSet
	blocking bool
}

func (w *stubWorld) CastPresence(from, to mgl64.Vec3, ignore IgnoreSet) (HitInfo, bool, error) {
	w.calls++
	w.ignores = append(w.ignores, ignore)
	if w.err != nil {
		return HitInfo{}, false, w.err
	}
	if w.blocked != nil && w.blocked(from, to) {
		return HitInfo{Entity: 99, Point: to, Blocking: w.blocking}, true, nil
	}
	return HitInfo{}, false, nil
}

// blockSegmentEnd blocks only probes ending at end.
func blockSegmentEnd(end mgl64.Vec3) *stubWorld {
	return &stubWorld{
		blocking: true,
		blocked: func(_, to mgl64.Vec3) bool {
			return vecNear(to, end)
		},
	}
}

// blockAll blocks every probe.
func blockAll() *stubWorld {
	return &stubWorld{
		blocking: true,
		blocked:  func(_, _ mgl64.Vec3) bool { return true },
	}
}

// fixedSource returns the lower bound for floats and a fixed int.
type fixedSource struct {
	intVal int
}

func (f fixedSource) FloatRange(min, _ float64) float64 { return min }

func (f fixedSource) IntRange(min, max int) int {
	if f.intVal < min {
		return min
	}
	if f.intVal > max {
		return max
	}
	return f.intVal
}

// vecNear compares absolutely; mgl64's ApproxEqual is relative and fails
// against exact zero components.
func vecNear(a, b mgl64.Vec3) bool {
	return a.Sub(b).Len() < 1e-9
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func containsPoint(points []mgl64.Vec3, p mgl64.Vec3) bool {
	for _, q := range points {
		if vecNear(q, p) {
			return true
		}
	}
	return false
}

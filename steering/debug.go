package steering

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is a hint for debug line rendering.
type Color uint8

const (
	ColorClear    Color = iota // Probe found nothing blocking
	ColorBlocked               // Probe hit a blocking obstruction
	ColorSelected              // Chosen avoidance direction
)

// String returns the color name.
func (c Color) String() string {
	switch c {
	case ColorClear:
		return "green"
	case ColorBlocked:
		return "red"
	case ColorSelected:
		return "yellow"
	}
	return "unknown"
}

// DebugDraw receives probe lines for visualization. It must not influence the
// simulation.
type DebugDraw interface {
	Line(from, to mgl64.Vec3, color Color)
}

// NopDraw discards all lines.
type NopDraw struct{}

// Line implements DebugDraw.
func (NopDraw) Line(mgl64.Vec3, mgl64.Vec3, Color) {}

// DebugLine is one recorded debug line.
type DebugLine struct {
	From, To mgl64.Vec3
	Color    Color
}

// RecordingDraw keeps every line it receives. Safe for concurrent use.
type RecordingDraw struct {
	mu    sync.Mutex
	lines []DebugLine
}

// Line implements DebugDraw.
func (r *RecordingDraw) Line(from, to mgl64.Vec3, color Color) {
	r.mu.Lock()
	r.lines = append(r.lines, DebugLine{From: from, To: to, Color: color})
	r.mu.Unlock()
}

// Lines returns a copy of the recorded lines.
func (r *RecordingDraw) Lines() []DebugLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DebugLine, len(r.lines))
	copy(out, r.lines)
	return out
}

// Reset discards recorded lines.
func (r *RecordingDraw) Reset() {
	r.mu.Lock()
	r.lines = r.lines[:0]
	r.mu.Unlock()
}

package arena

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Grid is a uniform 3D bucket grid over the tank. Each cell lists the indices
// of obstacles whose bounds overlap it. Positions outside the tank clamp to the
// border cells.
type Grid struct {
	cellSize float64
	cols     int
	rows     int
	layers   int
	cells    [][]int32
}

// NewGrid creates a grid covering [0, size] with cubic cells.
func NewGrid(size mgl64.Vec3, cellSize float64) *Grid {
	cols := int(size.X()/cellSize) + 1
	rows := int(size.Y()/cellSize) + 1
	layers := int(size.Z()/cellSize) + 1

	cells := make([][]int32, cols*rows*layers)
	for i := range cells {
		cells[i] = make([]int32, 0, 4)
	}

	return &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		layers:   layers,
		cells:    cells,
	}
}

// Clear empties every cell, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds idx to every cell overlapping [min, max].
func (g *Grid) Insert(idx int32, min, max mgl64.Vec3) {
	c0, r0, l0 := g.cellCoords(min)
	c1, r1, l1 := g.cellCoords(max)
	for l := l0; l <= l1; l++ {
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				i := g.index(c, r, l)
				g.cells[i] = append(g.cells[i], idx)
			}
		}
	}
}

// QueryInto appends the indices stored in cells overlapping [min, max] to dst.
// An index may appear more than once.
func (g *Grid) QueryInto(dst []int32, min, max mgl64.Vec3) []int32 {
	c0, r0, l0 := g.cellCoords(min)
	c1, r1, l1 := g.cellCoords(max)
	for l := l0; l <= l1; l++ {
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				dst = append(dst, g.cells[g.index(c, r, l)]...)
			}
		}
	}
	return dst
}

// CellSpan returns how many cells [min, max] covers.
func (g *Grid) CellSpan(min, max mgl64.Vec3) int {
	c0, r0, l0 := g.cellCoords(min)
	c1, r1, l1 := g.cellCoords(max)
	return (c1 - c0 + 1) * (r1 - r0 + 1) * (l1 - l0 + 1)
}

func (g *Grid) index(c, r, l int) int {
	return (l*g.rows+r)*g.cols + c
}

func (g *Grid) cellCoords(p mgl64.Vec3) (int, int, int) {
	return clampCell(p.X(), g.cellSize, g.cols),
		clampCell(p.Y(), g.cellSize, g.rows),
		clampCell(p.Z(), g.cellSize, g.layers)
}

func clampCell(v, cellSize float64, n int) int {
	i := int(math.Floor(v / cellSize))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// segmentBounds returns the AABB of a segment.
func segmentBounds(from, to mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	min := mgl64.Vec3{math.Min(from[0], to[0]), math.Min(from[1], to[1]), math.Min(from[2], to[2])}
	max := mgl64.Vec3{math.Max(from[0], to[0]), math.Max(from[1], to[1]), math.Max(from[2], to[2])}
	return min, max
}

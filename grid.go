package isomesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidGrid is returned (wrapped) when a Grid can not be extracted.
var ErrInvalidGrid = errors.New("invalid grid")

// Grid describes a vertex-centered sampling lattice. A grid of Cells
// (nx, ny, nz) has (nx+1)*(ny+1)*(nz+1) samples and lattice vertex (i,j,k)
// lies at Origin + (i*CellSize.X, j*CellSize.Y, k*CellSize.Z).
type Grid struct {
	// Cells is the number of cells along each axis.
	Cells [3]int
	// Origin is the world-space position of lattice vertex (0,0,0).
	Origin r3.Vec
	// CellSize is the per-axis spacing between lattice vertices.
	CellSize r3.Vec
	// IsoLevel is the density threshold of the extracted surface.
	// Densities below IsoLevel are inside.
	IsoLevel float64
}

// Validate returns a non-nil error wrapping ErrInvalidGrid if the grid
// can not be sampled.
func (g Grid) Validate() error {
	for axis, n := range g.Cells {
		if n < 1 {
			return fmt.Errorf("%w: cells[%d]=%d must be at least 1", ErrInvalidGrid, axis, n)
		}
	}
	if !d3.IsFinite(g.CellSize) || d3.LTEZero(g.CellSize) {
		return fmt.Errorf("%w: cell size %v must be finite and positive", ErrInvalidGrid, g.CellSize)
	}
	if !d3.IsFinite(g.Origin) {
		return fmt.Errorf("%w: origin %v not finite", ErrInvalidGrid, g.Origin)
	}
	if math.IsNaN(g.IsoLevel) || math.IsInf(g.IsoLevel, 0) {
		return fmt.Errorf("%w: iso level %v not finite", ErrInvalidGrid, g.IsoLevel)
	}
	// Edge ids are stored as int32 by the extraction pipeline.
	const maxVertices = math.MaxInt32 / 3
	nv := 1
	for axis, n := range g.Cells {
		if n >= maxVertices || nv > maxVertices/(n+1) {
			return fmt.Errorf("%w: cells %v exceeds %d addressable lattice vertices (axis %d)", ErrInvalidGrid, g.Cells, maxVertices, axis)
		}
		nv *= n + 1
	}
	return nil
}

// NumCells returns the total amount of cells in the grid.
func (g Grid) NumCells() int {
	return g.Cells[0] * g.Cells[1] * g.Cells[2]
}

// LatticeSize returns the amount of samples along each axis.
func (g Grid) LatticeSize() [3]int {
	return [3]int{g.Cells[0] + 1, g.Cells[1] + 1, g.Cells[2] + 1}
}

// NumVertices returns the total amount of lattice vertices (samples).
func (g Grid) NumVertices() int {
	return (g.Cells[0] + 1) * (g.Cells[1] + 1) * (g.Cells[2] + 1)
}

// Contains reports whether (i,j,k) is a valid lattice index.
func (g Grid) Contains(i, j, k int) bool {
	return i >= 0 && j >= 0 && k >= 0 &&
		i <= g.Cells[0] && j <= g.Cells[1] && k <= g.Cells[2]
}

// VertexIndex returns the linear index of lattice vertex (i,j,k) with X
// varying fastest. It panics if the index is outside the lattice.
func (g Grid) VertexIndex(i, j, k int) int {
	g.mustContain(i, j, k)
	nx, ny := g.Cells[0]+1, g.Cells[1]+1
	return i + nx*(j+ny*k)
}

// Position returns the world-space position of lattice vertex (i,j,k).
// It panics if the index is outside the lattice.
func (g Grid) Position(i, j, k int) r3.Vec {
	g.mustContain(i, j, k)
	return r3.Vec{
		X: g.Origin.X + float64(i)*g.CellSize.X,
		Y: g.Origin.Y + float64(j)*g.CellSize.Y,
		Z: g.Origin.Z + float64(k)*g.CellSize.Z,
	}
}

// Bounds returns the world-space box spanned by the lattice.
func (g Grid) Bounds() r3.Box {
	size := d3.MulElem(g.CellSize, r3.Vec{
		X: float64(g.Cells[0]),
		Y: float64(g.Cells[1]),
		Z: float64(g.Cells[2]),
	})
	return r3.Box{Min: g.Origin, Max: r3.Add(g.Origin, size)}
}

func (g Grid) mustContain(i, j, k int) {
	if !g.Contains(i, j, k) {
		panic(fmt.Sprintf("lattice index (%d,%d,%d) out of range [0,%v]", i, j, k, g.Cells))
	}
}

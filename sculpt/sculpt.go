// Package sculpt implements an editable scalar field whose densities are
// stored on the lattice and modified interactively with brushes.
package sculpt

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

var errBadBrush = errors.New("bad brush")

// Field is a ScalarField backed by a dense lattice of densities. A Field must
// not be modified while it is being extracted.
type Field struct {
	grid    isomesh.Grid
	density []float64
	initial []float64
	version uint64
}

var _ isomesh.ScalarField = (*Field)(nil)

// NewField samples s on the lattice of g and returns an editable field
// initialised with the sampled densities.
func NewField(g isomesh.Grid, s isomesh.Shape) (*Field, error) {
	if s == nil {
		return nil, errors.New("nil shape")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	f := &Field{
		grid:    g,
		density: make([]float64, g.NumVertices()),
	}
	size := g.LatticeSize()
	for k := 0; k < size[2]; k++ {
		for j := 0; j < size[1]; j++ {
			for i := 0; i < size[0]; i++ {
				f.density[g.VertexIndex(i, j, k)] = s.Evaluate(g.Position(i, j, k))
			}
		}
	}
	f.initial = append([]float64(nil), f.density...)
	return f, nil
}

// Grid returns the field's lattice.
func (f *Field) Grid() isomesh.Grid { return f.grid }

// Sample returns the stored density at (i,j,k) minus the iso level.
func (f *Field) Sample(i, j, k int) float64 {
	return f.density[f.grid.VertexIndex(i, j, k)] - f.grid.IsoLevel
}

// Gradient returns the central difference gradient at (i,j,k).
func (f *Field) Gradient(i, j, k int) r3.Vec {
	return isomesh.CentralDifference(f, i, j, k)
}

// SampledGradient reports true: Gradient always differences the stored densities.
func (f *Field) SampledGradient() bool { return true }

// Density returns the raw stored density at (i,j,k).
func (f *Field) Density(i, j, k int) float64 {
	return f.density[f.grid.VertexIndex(i, j, k)]
}

// Version is incremented each time the densities change. Frame loops
// compare versions to skip re-extraction of an unchanged field.
func (f *Field) Version() uint64 { return f.version }

// Reset restores the densities the field was created with.
func (f *Field) Reset() {
	copy(f.density, f.initial)
	f.version++
}

// Brush adds or removes material around a point.
type Brush struct {
	Center r3.Vec
	// Radius of influence. Lattice vertices farther than Radius from
	// Center are not modified.
	Radius float64
	// Strength is the change of density per unit time at the brush center.
	Strength float64
	// Carve removes material when set. Otherwise material is added.
	Carve bool
}

func (b Brush) validate() error {
	switch {
	case !(b.Radius > 0) || math.IsInf(b.Radius, 0):
		return fmt.Errorf("%w: radius %v must be finite and positive", errBadBrush, b.Radius)
	case math.IsNaN(b.Strength) || math.IsInf(b.Strength, 0) || b.Strength < 0:
		return fmt.Errorf("%w: strength %v must be finite and non-negative", errBadBrush, b.Strength)
	case !d3.IsFinite(b.Center):
		return fmt.Errorf("%w: center %v not finite", errBadBrush, b.Center)
	}
	return nil
}

// Influence returns the brush weight in [0,1] at distance d from the center.
// The weight falls off smoothly to zero at the brush radius.
func (b Brush) Influence(d float64) float64 {
	if d >= b.Radius {
		return 0
	}
	x := 1 - d/b.Radius
	return x * x * (3 - 2*x)
}

// Apply applies brush b for a time step dt and returns the number of
// lattice vertices modified. Adding material lowers the density since
// negative densities are inside.
func (f *Field) Apply(b Brush, dt float64) (int, error) {
	if err := b.validate(); err != nil {
		return 0, err
	}
	if !(dt >= 0) || math.IsInf(dt, 0) {
		return 0, fmt.Errorf("%w: time step %v", errBadBrush, dt)
	}
	amount := b.Strength * dt
	if !b.Carve {
		amount = -amount
	}
	lo, hi, ok := f.brushRange(b)
	if !ok || amount == 0 {
		return 0, nil
	}
	modified := 0
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				w := b.Influence(r3.Norm(r3.Sub(f.grid.Position(i, j, k), b.Center)))
				if w == 0 {
					continue
				}
				f.density[f.grid.VertexIndex(i, j, k)] += w * amount
				modified++
			}
		}
	}
	if modified > 0 {
		f.version++
	}
	return modified, nil
}

// brushRange returns the inclusive lattice index range of the vertices
// that can be influenced by b.
func (f *Field) brushRange(b Brush) (lo, hi [3]int, ok bool) {
	g := f.grid
	lower := r3.Sub(r3.Sub(b.Center, d3.Elem(b.Radius)), g.Origin)
	upper := r3.Sub(r3.Add(b.Center, d3.Elem(b.Radius)), g.Origin)
	h := [3]float64{g.CellSize.X, g.CellSize.Y, g.CellSize.Z}
	mn := [3]float64{lower.X, lower.Y, lower.Z}
	mx := [3]float64{upper.X, upper.Y, upper.Z}
	for axis := 0; axis < 3; axis++ {
		l := math.Ceil(mn[axis] / h[axis])
		u := math.Floor(mx[axis] / h[axis])
		l = math.Max(l, 0)
		u = math.Min(u, float64(g.Cells[axis]))
		if l > u {
			return lo, hi, false
		}
		lo[axis], hi[axis] = int(l), int(u)
	}
	return lo, hi, true
}

package isomesh

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ScalarField is a density field sampled on a lattice. Implementations must
// be safe for concurrent reads and immutable for the duration of an extraction.
type ScalarField interface {
	// Grid returns the lattice the field is sampled on.
	Grid() Grid
	// Sample returns the density minus the grid's iso level at lattice
	// vertex (i,j,k). Negative values are inside the surface.
	// Indices outside [0, Cells] cause a panic.
	Sample(i, j, k int) float64
	// Gradient returns the density gradient at lattice vertex (i,j,k),
	// pointing towards increasing density (outside). It need not be normalized.
	Gradient(i, j, k int) r3.Vec
}

// Shape is a world-space density function such as a signed distance field.
type Shape interface {
	// Evaluate returns the density at p. The value is negative
	// if p is contained within the shape.
	Evaluate(p r3.Vec) float64
	// Bounds returns the bounding box that completely contains the shape.
	Bounds() r3.Box
}

// Gradienter is implemented by shapes with an analytic gradient.
type Gradienter interface {
	Gradient(p r3.Vec) r3.Vec
}

// SampledGradient is implemented by fields that can report whether their
// Gradient is the CentralDifference of their samples. Extractors holding a
// copy of the samples may then difference them directly.
type SampledGradient interface {
	SampledGradient() bool
}

// Procedural is a ScalarField that evaluates a Shape at the lattice vertices.
type Procedural struct {
	grid  Grid
	shape Shape
	grad  Gradienter
}

var (
	_ ScalarField     = (*Procedural)(nil)
	_ SampledGradient = (*Procedural)(nil)
)

// NewProcedural returns a ScalarField sampling s over g.
func NewProcedural(g Grid, s Shape) (*Procedural, error) {
	if s == nil {
		return nil, errors.New("nil shape")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	p := &Procedural{grid: g, shape: s}
	p.grad, _ = s.(Gradienter)
	return p, nil
}

// Grid returns the field's lattice.
func (p *Procedural) Grid() Grid { return p.grid }

// Shape returns the shape sampled by the field.
func (p *Procedural) Shape() Shape { return p.shape }

// Sample evaluates the shape at lattice vertex (i,j,k) relative to the iso level.
func (p *Procedural) Sample(i, j, k int) float64 {
	return p.shape.Evaluate(p.grid.Position(i, j, k)) - p.grid.IsoLevel
}

// Gradient returns the analytic gradient of the shape if available
// and the lattice central difference otherwise.
func (p *Procedural) Gradient(i, j, k int) r3.Vec {
	if p.grad != nil {
		return p.grad.Gradient(p.grid.Position(i, j, k))
	}
	return CentralDifference(p, i, j, k)
}

// SampledGradient reports whether Gradient falls back to the lattice
// central difference because the shape has no analytic gradient.
func (p *Procedural) SampledGradient() bool { return p.grad == nil }

// CentralDifference approximates the gradient of f at lattice vertex (i,j,k)
// using neighbouring samples. One-sided differences are used on the lattice
// boundary so no out of range samples are requested.
func CentralDifference(f ScalarField, i, j, k int) r3.Vec {
	g := f.Grid()
	g.mustContain(i, j, k)
	return r3.Vec{
		X: axisDifference(f, g, [3]int{i, j, k}, 0),
		Y: axisDifference(f, g, [3]int{i, j, k}, 1),
		Z: axisDifference(f, g, [3]int{i, j, k}, 2),
	}
}

func axisDifference(f ScalarField, g Grid, idx [3]int, axis int) float64 {
	lo, hi := idx, idx
	if idx[axis] > 0 {
		lo[axis]--
	}
	if idx[axis] < g.Cells[axis] {
		hi[axis]++
	}
	var h float64
	switch axis {
	case 0:
		h = g.CellSize.X
	case 1:
		h = g.CellSize.Y
	default:
		h = g.CellSize.Z
	}
	span := float64(hi[axis]-lo[axis]) * h
	return (f.Sample(hi[0], hi[1], hi[2]) - f.Sample(lo[0], lo[1], lo[2])) / span
}

package isomesh

import (
	"fmt"

	"github.com/soypat/isomesh/internal/d3"
	"github.com/soypat/isomesh/shape"
	"gonum.org/v1/gonum/spatial/r3"
)

// Params is the parameter block supplied by an editing layer to describe a
// procedurally defined blob: the sampling lattice and a sphere shape.
type Params struct {
	Cells    [3]int  `toml:"cells"`
	Origin   r3.Vec  `toml:"origin"`
	CellSize r3.Vec  `toml:"cell_size"`
	IsoLevel float64 `toml:"iso_level"`
	Center   r3.Vec  `toml:"center"`
	Radius   float64 `toml:"radius"`
}

// CenteredParams returns parameters for a sphere of the given radius at the
// origin sampled by cellsPerAxis cells along each axis. The lattice is
// centered at the origin and spans the sphere's diameter, so the sphere
// touches the lattice boundary at the axis extremes.
func CenteredParams(radius float64, cellsPerAxis int) Params {
	n := float64(cellsPerAxis)
	h := 2 * radius / n
	size := d3.Elem(n * h)
	return Params{
		Cells:    [3]int{cellsPerAxis, cellsPerAxis, cellsPerAxis},
		Origin:   r3.Scale(-0.5, size),
		CellSize: d3.Elem(h),
		Radius:   radius,
	}
}

// Grid returns the sampling lattice described by the parameters.
func (p Params) Grid() Grid {
	return Grid{
		Cells:    p.Cells,
		Origin:   p.Origin,
		CellSize: p.CellSize,
		IsoLevel: p.IsoLevel,
	}
}

// Sphere returns the sphere shape described by the parameters.
func (p Params) Sphere() (shape.Sphere, error) {
	return shape.NewSphere(p.Center, p.Radius)
}

// Field returns the procedural field described by the parameters.
func (p Params) Field() (*Procedural, error) {
	s, err := p.Sphere()
	if err != nil {
		return nil, fmt.Errorf("blob parameters: %w", err)
	}
	return NewProcedural(p.Grid(), s)
}

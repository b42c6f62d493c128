package isomesh_test

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"github.com/soypat/isomesh/shape"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGridValidate(t *testing.T) {
	good := isomesh.Grid{Cells: [3]int{2, 3, 4}, Origin: d3.Elem(-1), CellSize: r3.Vec{X: 0.5, Y: 1, Z: 2}}
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		name   string
		modify func(g *isomesh.Grid)
	}{
		{"zero cells", func(g *isomesh.Grid) { g.Cells[1] = 0 }},
		{"negative cells", func(g *isomesh.Grid) { g.Cells[2] = -3 }},
		{"zero cell size", func(g *isomesh.Grid) { g.CellSize.X = 0 }},
		{"negative cell size", func(g *isomesh.Grid) { g.CellSize.Z = -1 }},
		{"nan cell size", func(g *isomesh.Grid) { g.CellSize.Y = math.NaN() }},
		{"inf origin", func(g *isomesh.Grid) { g.Origin.X = math.Inf(-1) }},
		{"nan iso", func(g *isomesh.Grid) { g.IsoLevel = math.NaN() }},
		{"too large", func(g *isomesh.Grid) { g.Cells = [3]int{2000, 2000, 2000} }},
		{"overflowing lattice", func(g *isomesh.Grid) { g.Cells = [3]int{1 << 21, 1 << 21, 1 << 21} }},
		{"max int cells", func(g *isomesh.Grid) { g.Cells = [3]int{math.MaxInt, 1, 1} }},
		{"max int last axis", func(g *isomesh.Grid) { g.Cells = [3]int{1, 1, math.MaxInt} }},
	}
	for _, test := range tests {
		g := good
		test.modify(&g)
		if err := g.Validate(); !errors.Is(err, isomesh.ErrInvalidGrid) {
			t.Errorf("%s: got %v, want ErrInvalidGrid", test.name, err)
		}
	}
}

func TestGridIndexing(t *testing.T) {
	g := isomesh.Grid{Cells: [3]int{2, 3, 4}, Origin: r3.Vec{X: 1, Y: 2, Z: 3}, CellSize: r3.Vec{X: 0.5, Y: 1, Z: 2}}
	if g.NumCells() != 24 || g.NumVertices() != 60 {
		t.Fatalf("got %d cells %d vertices, want 24 and 60", g.NumCells(), g.NumVertices())
	}
	if g.LatticeSize() != [3]int{3, 4, 5} {
		t.Errorf("lattice size %v", g.LatticeSize())
	}
	seen := make(map[int]bool)
	sz := g.LatticeSize()
	for k := 0; k < sz[2]; k++ {
		for j := 0; j < sz[1]; j++ {
			for i := 0; i < sz[0]; i++ {
				idx := g.VertexIndex(i, j, k)
				if idx < 0 || idx >= g.NumVertices() || seen[idx] {
					t.Fatalf("bad vertex index %d for (%d,%d,%d)", idx, i, j, k)
				}
				seen[idx] = true
			}
		}
	}
	if g.VertexIndex(1, 0, 0) != 1 || g.VertexIndex(0, 1, 0) != 3 || g.VertexIndex(0, 0, 1) != 12 {
		t.Error("X must vary fastest, then Y, then Z")
	}
	if p := g.Position(2, 3, 4); p != (r3.Vec{X: 2, Y: 5, Z: 11}) {
		t.Errorf("position %v", p)
	}
	bb := g.Bounds()
	if bb.Min != g.Origin || bb.Max != (r3.Vec{X: 2, Y: 5, Z: 11}) {
		t.Errorf("bounds %v", bb)
	}
	if !g.Contains(2, 3, 4) || g.Contains(3, 0, 0) || g.Contains(0, -1, 0) {
		t.Error("bad Contains")
	}
}

func TestGridOutOfRangePanics(t *testing.T) {
	g := isomesh.Grid{Cells: [3]int{1, 1, 1}, CellSize: d3.Elem(1)}
	f, err := isomesh.NewProcedural(g, shape.MustSphere(r3.Vec{}, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		name string
		fn   func()
	}{
		{"VertexIndex", func() { g.VertexIndex(2, 0, 0) }},
		{"Position", func() { g.Position(0, 0, -1) }},
		{"Sample", func() { f.Sample(0, 2, 0) }},
		{"Gradient", func() { f.Gradient(-1, 0, 0) }},
		{"CentralDifference", func() { isomesh.CentralDifference(f, 0, 0, 2) }},
	}
	for _, test := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", test.name)
				}
			}()
			test.fn()
		}()
	}
}

func TestCenteredParams(t *testing.T) {
	p := isomesh.CenteredParams(0.175, 80)
	g := p.Grid()
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	h := 2 * 0.175 / 80
	if !d3.EqualWithin(g.CellSize, d3.Elem(h), 1e-15) {
		t.Errorf("cell size %v, want %v", g.CellSize, h)
	}
	bb := g.Bounds()
	if !d3.EqualWithin(bb.Min, d3.Elem(-0.175), 1e-12) || !d3.EqualWithin(bb.Max, d3.Elem(0.175), 1e-12) {
		t.Errorf("bounds %v not centered on the blob", bb)
	}
	s, err := p.Sphere()
	if err != nil {
		t.Fatal(err)
	}
	if s.Radius != 0.175 || s.Center != (r3.Vec{}) {
		t.Errorf("sphere %+v", s)
	}
	f, err := p.Field()
	if err != nil {
		t.Fatal(err)
	}
	// Center of the lattice is deepest inside the blob.
	if v := f.Sample(40, 40, 40); math.Abs(v+0.175) > 1e-12 {
		t.Errorf("center sample %v, want %v", v, -0.175)
	}

	p.Radius = 0
	if _, err := p.Field(); !errors.Is(err, shape.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

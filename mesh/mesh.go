// Package mesh defines the triangle mesh produced by isosurface extraction
// and its GPU-ready vertex and index buffer layout.
package mesh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a mesh vertex. Its memory layout is 6 consecutive 32-bit floats.
type Vertex struct {
	Position ms3.Vec
	// Normal is of unit length and points towards increasing density.
	Normal ms3.Vec
}

// Mesh is an indexed triangle mesh. Every three consecutive indices describe
// a triangle wound counter-clockwise when seen from outside the surface.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool { return len(m.Indices) == 0 }

// Triangle returns the vertex positions of the i'th triangle.
func (m *Mesh) Triangle(i int) [3]r3.Vec {
	idx := m.Indices[3*i : 3*i+3]
	return [3]r3.Vec{
		d3.FromMS3(m.Vertices[idx[0]].Position),
		d3.FromMS3(m.Vertices[idx[1]].Position),
		d3.FromMS3(m.Vertices[idx[2]].Position),
	}
}

// TriangleNormal returns the non-normalized normal of the i'th triangle
// calculated from its winding. Its length is twice the triangle's area.
func (m *Mesh) TriangleNormal(i int) r3.Vec {
	t := m.Triangle(i)
	return r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
}

// Area returns the total surface area of the mesh.
func (m *Mesh) Area() (area float64) {
	for i := 0; i < m.TriangleCount(); i++ {
		area += 0.5 * r3.Norm(m.TriangleNormal(i))
	}
	return area
}

// Bounds returns the bounding box of the mesh vertices.
// An empty mesh has a zero box.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Vertices) == 0 {
		return ms3.Box{}
	}
	bb := d3.EmptyBox()
	for _, v := range m.Vertices {
		bb = bb.Include(d3.FromMS3(v.Position))
	}
	return ms3.Box{Min: d3.ToMS3(bb.Min), Max: d3.ToMS3(bb.Max)}
}

const normalTolerance = 1e-3

var errIndexCount = errors.New("index count not multiple of 3")

// Validate checks the mesh invariants: indices reference existing vertices,
// positions and normals are finite and normals are of unit length.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: have %d indices", errIndexCount, len(m.Indices))
	}
	nv := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= nv {
			return fmt.Errorf("index %d references vertex %d of %d", i, idx, nv)
		}
	}
	for i, v := range m.Vertices {
		if bad3F32(v.Position) {
			return fmt.Errorf("inf/NaN vertex %d position %v", i, v.Position)
		}
		if bad3F32(v.Normal) {
			return fmt.Errorf("inf/NaN vertex %d normal %v", i, v.Normal)
		}
		n := v.Normal
		if l := math32.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z); math32.Abs(l-1) > normalTolerance {
			return fmt.Errorf("vertex %d normal length %g not unit", i, l)
		}
	}
	return nil
}

func bad3F32(f ms3.Vec) bool {
	return math32.IsNaN(f.X) || math32.IsInf(f.X, 0) ||
		math32.IsNaN(f.Y) || math32.IsInf(f.Y, 0) ||
		math32.IsNaN(f.Z) || math32.IsInf(f.Z, 0)
}

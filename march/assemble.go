package march

import (
	"fmt"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"github.com/soypat/isomesh/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// lattice holds the samples of a field cached for the duration of one
// extraction. It is read-only once filled so slab tasks share it freely.
type lattice struct {
	field   isomesh.ScalarField
	grid    isomesh.Grid
	nx, ny  int // Lattice vertices along X and Y.
	nz      int
	samples []float64
	// sampled is set when the field gradient is the central difference
	// of its samples, which are then differenced from the cache.
	sampled bool
}

func newLattice(f isomesh.ScalarField) *lattice {
	g := f.Grid()
	sz := g.LatticeSize()
	sg, ok := f.(isomesh.SampledGradient)
	return &lattice{
		field:   f,
		grid:    g,
		nx:      sz[0],
		ny:      sz[1],
		nz:      sz[2],
		samples: make([]float64, g.NumVertices()),
		sampled: ok && sg.SampledGradient(),
	}
}

func (l *lattice) index(i, j, k int) int { return i + l.nx*(j+l.ny*k) }

func (l *lattice) at(i, j, k int) float64 { return l.samples[l.index(i, j, k)] }

// fillLayer samples lattice layer k.
func (l *lattice) fillLayer(k int) {
	base := l.index(0, 0, k)
	for j := 0; j < l.ny; j++ {
		for i := 0; i < l.nx; i++ {
			l.samples[base+i+j*l.nx] = l.field.Sample(i, j, k)
		}
	}
}

// corners returns the 8 cached values of the cell with origin vertex (i,j,k)
// in canonical corner order.
func (l *lattice) corners(i, j, k int) (v [8]float64) {
	for n, off := range mcCorners {
		v[n] = l.at(i+off[0], j+off[1], k+off[2])
	}
	return v
}

// edgeVertex interpolates the surface crossing on the lattice edge starting
// at vertex a and running one cell along axis. Every cell sharing the edge
// calls it with the same arguments so results are bit-identical.
func (l *lattice) edgeVertex(a [3]int, axis uint8) mesh.Vertex {
	b := a
	b[axis]++
	pos, normal := Interpolate(
		l.at(a[0], a[1], a[2]), l.at(b[0], b[1], b[2]),
		l.grid.Position(a[0], a[1], a[2]), l.grid.Position(b[0], b[1], b[2]),
		l.gradient(a), l.gradient(b),
	)
	return mesh.Vertex{Position: d3.ToMS3(pos), Normal: d3.ToMS3(normal)}
}

// gradient returns the field gradient at lattice vertex idx. It matches
// isomesh.CentralDifference exactly when the lattice holds sampled gradients.
func (l *lattice) gradient(idx [3]int) r3.Vec {
	if !l.sampled {
		return l.field.Gradient(idx[0], idx[1], idx[2])
	}
	return r3.Vec{
		X: l.difference(idx, 0, l.grid.CellSize.X),
		Y: l.difference(idx, 1, l.grid.CellSize.Y),
		Z: l.difference(idx, 2, l.grid.CellSize.Z),
	}
}

func (l *lattice) difference(idx [3]int, axis int, h float64) float64 {
	lo, hi := idx, idx
	if idx[axis] > 0 {
		lo[axis]--
	}
	if idx[axis] < l.grid.Cells[axis] {
		hi[axis]++
	}
	span := float64(hi[axis]-lo[axis]) * h
	return (l.at(hi[0], hi[1], hi[2]) - l.at(lo[0], lo[1], lo[2])) / span
}

// cellEdgeStart returns the lower lattice vertex of edge e of cell (i,j,k).
func cellEdgeStart(i, j, k int, e uint8) [3]int {
	off := mcCorners[mcEdges[e][0]]
	return [3]int{i + off[0], j + off[1], k + off[2]}
}

// cellLayer is the per Z-layer bookkeeping of the cell passes.
type cellLayer struct {
	masks     []uint8 // One per cell in the layer.
	triangles int
}

// classifyLayer computes the masks of cell layer k and counts its triangles.
func (l *lattice) classifyLayer(k int, layer *cellLayer) {
	cx, cy := l.nx-1, l.ny-1
	if cap(layer.masks) < cx*cy {
		layer.masks = make([]uint8, cx*cy)
	}
	layer.masks = layer.masks[:cx*cy]
	layer.triangles = 0
	for j := 0; j < cy; j++ {
		for i := 0; i < cx; i++ {
			mask := cornerMask(l.corners(i, j, k))
			layer.masks[i+j*cx] = mask
			layer.triangles += len(mcTriangleTable[mask]) / 3
		}
	}
}

// prefixSum replaces counts with their exclusive prefix sum and returns the total.
func prefixSum(counts []int) (total int) {
	for i, c := range counts {
		counts[i] = total
		total += c
	}
	return total
}

// writeUnsharedLayer writes three fresh vertices per triangle of cell layer
// k starting at triangle offset tri. end is the first triangle belonging to
// the next layer.
func (l *lattice) writeUnsharedLayer(k int, layer *cellLayer, tri, end int, m *mesh.Mesh) {
	cx, cy := l.nx-1, l.ny-1
	for j := 0; j < cy; j++ {
		for i := 0; i < cx; i++ {
			edges := mcTriangleTable[layer.masks[i+j*cx]]
			if len(edges) == 0 {
				continue
			}
			if tri+len(edges)/3 > end {
				panic(fmt.Sprintf("bug: cell layer %d writes past triangle capacity %d", k, end))
			}
			for n, e := range edges {
				v := 3*tri + n
				m.Vertices[v] = l.edgeVertex(cellEdgeStart(i, j, k, e), mcEdgeAxis[e])
				m.Indices[v] = uint32(v)
			}
			tri += len(edges) / 3
		}
	}
	if tri != end {
		panic(fmt.Sprintf("bug: cell layer %d wrote %d triangles short of %d", k, end-tri, end))
	}
}

// noVertex marks an owned edge not crossed by the surface.
const noVertex = -1

// edgeID returns the global id of the edge starting at lattice vertex
// index vi along axis. Each lattice vertex owns its +X, +Y and +Z edges.
func edgeID(vi int, axis uint8) int { return 3*vi + int(axis) }

// crossed reports whether the edge from lattice vertex a along axis changes sign.
func (l *lattice) crossed(i, j, k int, axis int) bool {
	a := l.at(i, j, k)
	var b float64
	switch axis {
	case 0:
		if i+1 >= l.nx {
			return false
		}
		b = l.at(i+1, j, k)
	case 1:
		if j+1 >= l.ny {
			return false
		}
		b = l.at(i, j+1, k)
	default:
		if k+1 >= l.nz {
			return false
		}
		b = l.at(i, j, k+1)
	}
	return (a < 0) != (b < 0)
}

// countOwnedEdges counts the crossed edges owned by lattice layer k.
func (l *lattice) countOwnedEdges(k int) (n int) {
	for j := 0; j < l.ny; j++ {
		for i := 0; i < l.nx; i++ {
			for axis := 0; axis < 3; axis++ {
				if l.crossed(i, j, k, axis) {
					n++
				}
			}
		}
	}
	return n
}

// writeOwnedEdges interpolates the crossed edges owned by lattice layer k
// starting at vertex index vert and records their vertex index in edgeVertex.
// Layer k is the only writer of its vertices and edge ids.
func (l *lattice) writeOwnedEdges(k, vert, end int, edgeVertex []int32, m *mesh.Mesh) {
	for j := 0; j < l.ny; j++ {
		for i := 0; i < l.nx; i++ {
			vi := l.index(i, j, k)
			for axis := uint8(0); axis < 3; axis++ {
				id := edgeID(vi, axis)
				if !l.crossed(i, j, k, int(axis)) {
					edgeVertex[id] = noVertex
					continue
				}
				if vert >= end {
					panic(fmt.Sprintf("bug: lattice layer %d writes past vertex capacity %d", k, end))
				}
				m.Vertices[vert] = l.edgeVertex([3]int{i, j, k}, axis)
				edgeVertex[id] = int32(vert)
				vert++
			}
		}
	}
	if vert != end {
		panic(fmt.Sprintf("bug: lattice layer %d wrote %d vertices short of %d", k, end-vert, end))
	}
}

// writeSharedLayer writes the indices of the triangles of cell layer k
// starting at triangle offset tri by looking up owned edge vertices.
func (l *lattice) writeSharedLayer(k int, layer *cellLayer, tri, end int, edgeVertex []int32, m *mesh.Mesh) {
	cx, cy := l.nx-1, l.ny-1
	for j := 0; j < cy; j++ {
		for i := 0; i < cx; i++ {
			edges := mcTriangleTable[layer.masks[i+j*cx]]
			if len(edges) == 0 {
				continue
			}
			if tri+len(edges)/3 > end {
				panic(fmt.Sprintf("bug: cell layer %d writes past triangle capacity %d", k, end))
			}
			for n, e := range edges {
				a := cellEdgeStart(i, j, k, e)
				vert := edgeVertex[edgeID(l.index(a[0], a[1], a[2]), mcEdgeAxis[e])]
				if vert == noVertex {
					panic(fmt.Sprintf("bug: cell (%d,%d,%d) edge %d not crossed", i, j, k, e))
				}
				m.Indices[3*tri+n] = uint32(vert)
			}
			tri += len(edges) / 3
		}
	}
	if tri != end {
		panic(fmt.Sprintf("bug: cell layer %d wrote %d triangles short of %d", k, end-tri, end))
	}
}

package mesh

import (
	"errors"
	"math"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = weldPoints{}
	_ kdtree.SortSlicer = weldPlane{}
	_ kdtree.Comparable = weldPoint{}
)

var errBadWeldTolerance = errors.New("weld tolerance must be finite and non-negative")

// Weld returns a copy of m where vertices closer than tol to an earlier
// vertex are merged into it. Triangles that collapse after merging are
// dropped. The first vertex of every merged group keeps its normal.
// Welding an unshared extraction yields the shared extraction's topology.
func Weld(m *Mesh, tol float64) (*Mesh, error) {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		return nil, errBadWeldTolerance
	}
	if len(m.Vertices) == 0 {
		return &Mesh{}, nil
	}
	pts := make(weldPoints, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = weldPoint{pos: d3.FromMS3(v.Position), idx: i}
	}
	// kdtree.New reorders its argument so we hand it a copy.
	tree := kdtree.New(append(weldPoints(nil), pts...), false)

	const unset = -1
	remap := make([]int, len(pts))
	for i := range remap {
		remap[i] = unset
	}
	welded := &Mesh{Vertices: make([]Vertex, 0, len(m.Vertices))}
	tol2 := tol * tol
	for i, p := range pts {
		if remap[i] != unset {
			continue
		}
		rep := len(welded.Vertices)
		welded.Vertices = append(welded.Vertices, m.Vertices[i])
		remap[i] = rep
		keeper := kdtree.NewDistKeeper(tol2)
		tree.NearestSet(keeper, p)
		for _, found := range keeper.Heap {
			if found.Comparable == nil {
				continue // Keeper sentinel.
			}
			j := found.Comparable.(weldPoint).idx
			if remap[j] == unset {
				remap[j] = rep
			}
		}
	}

	welded.Indices = make([]uint32, 0, len(m.Indices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a := uint32(remap[m.Indices[t]])
		b := uint32(remap[m.Indices[t+1]])
		c := uint32(remap[m.Indices[t+2]])
		if a == b || b == c || c == a {
			continue // Collapsed triangle.
		}
		welded.Indices = append(welded.Indices, a, b, c)
	}
	return welded, nil
}

type weldPoint struct {
	pos r3.Vec
	idx int
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a weldPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return weldComp(a, b.(weldPoint), d)
}

// Dims returns the number of dimensions described in the Comparable.
func (a weldPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the receiver and
// the parameter.
func (a weldPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.pos, b.(weldPoint).pos))
}

// c = a.dim - b.dim
func weldComp(a, b weldPoint, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return a.pos.X - b.pos.X
	case 1:
		return a.pos.Y - b.pos.Y
	default:
		return a.pos.Z - b.pos.Z
	}
}

type weldPoints []weldPoint

func (k weldPoints) Index(i int) kdtree.Comparable { return k[i] }

// Len returns the length of the list.
func (k weldPoints) Len() int { return len(k) }

// Pivot partitions the list based on the dimension specified.
func (k weldPoints) Pivot(d kdtree.Dim) int {
	p := weldPlane{dim: d, points: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (k weldPoints) Slice(start, end int) kdtree.Interface { return k[start:end] }

type weldPlane struct {
	dim    kdtree.Dim
	points weldPoints
}

func (p weldPlane) Less(i, j int) bool {
	return weldComp(p.points[i], p.points[j], p.dim) < 0
}
func (p weldPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p weldPlane) Len() int { return len(p.points) }
func (p weldPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

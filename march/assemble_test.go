package march

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"github.com/soypat/isomesh/mesh"
	"github.com/soypat/isomesh/shape"
	"gonum.org/v1/gonum/spatial/r3"
)

func filledLattice(t *testing.T, s isomesh.Shape) (*lattice, *isomesh.Procedural) {
	t.Helper()
	g := isomesh.Grid{
		Cells:    [3]int{4, 5, 4},
		Origin:   d3.Elem(-1),
		CellSize: r3.Vec{X: 0.5, Y: 0.4, Z: 0.5},
	}
	f, err := isomesh.NewProcedural(g, s)
	if err != nil {
		t.Fatal(err)
	}
	lat := newLattice(f)
	for k := 0; k < lat.nz; k++ {
		lat.fillLayer(k)
	}
	return lat, f
}

func mustPanicBug(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		msg, _ := r.(string)
		if !strings.HasPrefix(msg, "bug:") {
			t.Errorf("%s: recovered %v, want bug panic", name, r)
		}
	}()
	fn()
}

func TestCapacityMismatchPanics(t *testing.T) {
	lat, _ := filledLattice(t, shape.MustSphere(r3.Vec{}, 0.8))
	const k = 1
	var layer cellLayer
	lat.classifyLayer(k, &layer)
	ntri := layer.triangles
	if ntri == 0 {
		t.Fatalf("cell layer %d has no triangles", k)
	}

	vertOffsets := make([]int, lat.nz+1)
	for kk := 0; kk < lat.nz; kk++ {
		vertOffsets[kk] = lat.countOwnedEdges(kk)
	}
	nvert := prefixSum(vertOffsets)
	vertOffsets[lat.nz] = nvert
	if vertOffsets[k+1] == vertOffsets[k] {
		t.Fatalf("lattice layer %d owns no crossed edges", k)
	}
	edgeVertex := make([]int32, 3*len(lat.samples))
	shared := &mesh.Mesh{
		Vertices: make([]mesh.Vertex, nvert),
		Indices:  make([]uint32, 3*(ntri+1)),
	}
	for kk := 0; kk < lat.nz; kk++ {
		lat.writeOwnedEdges(kk, vertOffsets[kk], vertOffsets[kk+1], edgeVertex, shared)
	}
	unshared := &mesh.Mesh{
		Vertices: make([]mesh.Vertex, 3*(ntri+1)),
		Indices:  make([]uint32, 3*(ntri+1)),
	}
	// Exact capacities write without complaint.
	lat.writeUnsharedLayer(k, &layer, 0, ntri, unshared)
	lat.writeSharedLayer(k, &layer, 0, ntri, edgeVertex, shared)

	lo, hi := vertOffsets[k], vertOffsets[k+1]
	var tests = []struct {
		name string
		fn   func()
	}{
		{"unshared past capacity", func() { lat.writeUnsharedLayer(k, &layer, 0, ntri-1, unshared) }},
		{"unshared short", func() { lat.writeUnsharedLayer(k, &layer, 0, ntri+1, unshared) }},
		{"shared past capacity", func() { lat.writeSharedLayer(k, &layer, 0, ntri-1, edgeVertex, shared) }},
		{"shared short", func() { lat.writeSharedLayer(k, &layer, 0, ntri+1, edgeVertex, shared) }},
		{"owned edges past capacity", func() { lat.writeOwnedEdges(k, lo, hi-1, edgeVertex, shared) }},
		{"owned edges short", func() { lat.writeOwnedEdges(k, lo, hi+1, edgeVertex, shared) }},
	}
	for _, test := range tests {
		mustPanicBug(t, test.name, test.fn)
	}
}

func TestLatticeGradient(t *testing.T) {
	ellipsoid, err := shape.Func(func(p r3.Vec) float64 {
		return p.X*p.X + 2*p.Y*p.Y + 0.5*p.Z*p.Z*p.Z - 0.6
	}, r3.Box{Min: d3.Elem(-1), Max: d3.Elem(1)})
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		name    string
		s       isomesh.Shape
		sampled bool
	}{
		{"numeric", ellipsoid, true},
		{"analytic", shape.MustSphere(r3.Vec{}, 0.8), false},
	}
	for _, test := range tests {
		lat, f := filledLattice(t, test.s)
		if lat.sampled != test.sampled {
			t.Fatalf("%s: sampled=%v, want %v", test.name, lat.sampled, test.sampled)
		}
		for k := 0; k < lat.nz; k++ {
			for j := 0; j < lat.ny; j++ {
				for i := 0; i < lat.nx; i++ {
					want := f.Gradient(i, j, k)
					if test.sampled {
						want = isomesh.CentralDifference(f, i, j, k)
					}
					if got := lat.gradient([3]int{i, j, k}); got != want {
						t.Fatalf("%s: gradient at (%d,%d,%d) = %v, want %v", test.name, i, j, k, got, want)
					}
				}
			}
		}
	}
}

func TestForEachLayer(t *testing.T) {
	errLayer := errors.New("layer failed")
	for _, workers := range []int{1, 3} {
		e := &Extractor{cfg: Config{Workers: workers}}
		var visited atomic.Int32
		err := e.forEachLayer(7, layerTask(func(k int) { visited.Add(1) }))
		if err != nil || visited.Load() != 7 {
			t.Errorf("workers=%d: visited %d layers, err %v", workers, visited.Load(), err)
		}
		err = e.forEachLayer(7, func(k int) error {
			if k == 4 {
				return errLayer
			}
			return nil
		})
		if !errors.Is(err, errLayer) {
			t.Errorf("workers=%d: got %v, want layer error", workers, err)
		}
	}
}

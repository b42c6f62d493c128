// Package march implements parallel Marching Cubes isosurface extraction
// of scalar fields sampled on a regular lattice.
package march

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/mesh"
	"golang.org/x/sync/errgroup"
)

// Mode selects how vertices on edges shared between cells are emitted.
type Mode uint8

const (
	// Unshared emits three vertices per triangle. Indices are 0,1,2,...
	Unshared Mode = iota
	// Shared emits one vertex per crossed lattice edge referenced by all
	// adjacent triangles.
	Shared
)

func (m Mode) String() string {
	switch m {
	case Unshared:
		return "unshared"
	case Shared:
		return "shared"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// State is the lifecycle stage of an Extractor.
type State int32

const (
	// Idle extractors have not run or their last extraction failed.
	Idle State = iota
	// Extracting is held for the duration of Extract.
	Extracting
	// Done extractors completed their last extraction.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// ErrBusy is returned by Extract when an extraction is already
// running on the same Extractor.
var ErrBusy = errors.New("extraction already in progress")

var errMeshTooLarge = errors.New("mesh exceeds uint32 index range")

// Config configures an Extractor. The zero value is ready to use.
type Config struct {
	Mode Mode
	// Workers limits the number of concurrent slab tasks.
	// Zero or negative means runtime.GOMAXPROCS(0).
	Workers int
}

// Extractor converts scalar fields into triangle meshes. An Extractor runs at
// most one extraction at a time and retains nothing between extractions.
type Extractor struct {
	cfg   Config
	state atomic.Int32
}

// NewExtractor returns an Extractor with the given configuration.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.Mode > Shared {
		return nil, fmt.Errorf("invalid extraction mode %v", cfg.Mode)
	}
	return &Extractor{cfg: cfg}, nil
}

// State returns the current state of the extractor.
func (e *Extractor) State() State { return State(e.state.Load()) }

// Extract extracts the isosurface of f. The field must not change during
// extraction. Cancellation of ctx is observed between passes in which case
// no mesh is returned. Output does not depend on the number of workers.
func (e *Extractor) Extract(ctx context.Context, f isomesh.ScalarField) (*mesh.Mesh, error) {
	for {
		s := e.state.Load()
		if State(s) == Extracting {
			return nil, ErrBusy
		}
		if e.state.CompareAndSwap(s, int32(Extracting)) {
			break
		}
	}
	m, err := e.extract(ctx, f)
	if err != nil {
		e.state.Store(int32(Idle))
		return nil, err
	}
	e.state.Store(int32(Done))
	return m, nil
}

// Extract extracts the isosurface of f in Unshared mode using all available CPUs.
func Extract(f isomesh.ScalarField) (*mesh.Mesh, error) {
	var e Extractor
	return e.Extract(context.Background(), f)
}

func (e *Extractor) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// forEachLayer runs fn for every layer in [0,n) limiting concurrency to the
// configured amount of workers. It returns the first error returned by fn.
func (e *Extractor) forEachLayer(n int, fn func(k int) error) error {
	var g errgroup.Group
	g.SetLimit(e.workers())
	for k := 0; k < n; k++ {
		g.Go(func() error { return fn(k) })
	}
	return g.Wait()
}

// layerTask adapts a layer pass that can not fail.
func layerTask(fn func(k int)) func(k int) error {
	return func(k int) error {
		fn(k)
		return nil
	}
}

func (e *Extractor) extract(ctx context.Context, f isomesh.ScalarField) (*mesh.Mesh, error) {
	if f == nil {
		return nil, errors.New("nil scalar field")
	}
	grid := f.Grid()
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	log := Logger()
	start := time.Now()
	lat := newLattice(f)
	nz := grid.Cells[2]

	// Sample cache.
	if err := e.forEachLayer(lat.nz, layerTask(lat.fillLayer)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(err, "sample")
	}

	// Classification and triangle count.
	layers := make([]cellLayer, nz)
	triOffsets := make([]int, nz+1)
	err := e.forEachLayer(nz, layerTask(func(k int) {
		lat.classifyLayer(k, &layers[k])
		triOffsets[k] = layers[k].triangles
	}))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(err, "classify")
	}
	ntri := prefixSum(triOffsets)

	var m *mesh.Mesh
	switch e.cfg.Mode {
	case Shared:
		m, err = e.assembleShared(ctx, lat, layers, triOffsets, ntri)
	default:
		m, err = e.assembleUnshared(ctx, lat, layers, triOffsets, ntri)
	}
	if err != nil {
		return nil, err
	}
	active := 0
	for _, layer := range layers {
		for _, mask := range layer.masks {
			if mask != 0 && mask != 0xff {
				active++
			}
		}
	}
	log.Debug("extracted isosurface",
		slogMode(e.cfg.Mode),
		"cells", grid.NumCells(),
		"active", active,
		"triangles", m.TriangleCount(),
		"vertices", m.VertexCount(),
		"workers", e.workers(),
		"elapsed", time.Since(start),
	)
	return m, nil
}

func (e *Extractor) assembleUnshared(ctx context.Context, lat *lattice, layers []cellLayer, triOffsets []int, ntri int) (*mesh.Mesh, error) {
	if uint64(3*ntri) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d triangles", errMeshTooLarge, ntri)
	}
	m := &mesh.Mesh{
		Vertices: make([]mesh.Vertex, 3*ntri),
		Indices:  make([]uint32, 3*ntri),
	}
	triOffsets[len(layers)] = ntri
	err := e.forEachLayer(len(layers), layerTask(func(k int) {
		lat.writeUnsharedLayer(k, &layers[k], triOffsets[k], triOffsets[k+1], m)
	}))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(err, "triangles")
	}
	return m, nil
}

func (e *Extractor) assembleShared(ctx context.Context, lat *lattice, layers []cellLayer, triOffsets []int, ntri int) (*mesh.Mesh, error) {
	// Owned edge vertices.
	vertOffsets := make([]int, lat.nz+1)
	err := e.forEachLayer(lat.nz, layerTask(func(k int) {
		vertOffsets[k] = lat.countOwnedEdges(k)
	}))
	if err != nil {
		return nil, err
	}
	nvert := prefixSum(vertOffsets)
	vertOffsets[lat.nz] = nvert
	if uint64(3*ntri) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d triangles", errMeshTooLarge, ntri)
	}
	m := &mesh.Mesh{
		Vertices: make([]mesh.Vertex, nvert),
		Indices:  make([]uint32, 3*ntri),
	}
	edgeVertex := make([]int32, 3*len(lat.samples))
	err = e.forEachLayer(lat.nz, layerTask(func(k int) {
		lat.writeOwnedEdges(k, vertOffsets[k], vertOffsets[k+1], edgeVertex, m)
	}))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(err, "vertices")
	}

	// Triangle indices.
	triOffsets[len(layers)] = ntri
	err = e.forEachLayer(len(layers), layerTask(func(k int) {
		lat.writeSharedLayer(k, &layers[k], triOffsets[k], triOffsets[k+1], edgeVertex, m)
	}))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(err, "triangles")
	}
	return m, nil
}

func (e *Extractor) cancelled(err error, pass string) error {
	Logger().Warn("extraction cancelled", "pass", pass, slogMode(e.cfg.Mode), "err", err)
	return err
}

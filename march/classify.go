package march

// Case is the triangulation of one of the 256 corner configurations of a cell.
type Case struct {
	// Mask has bit n set when corner n is inside the surface.
	Mask uint8
	// Edges has bit e set when edge e is crossed by the surface.
	Edges uint16
	// Triangles holds edge indices, three per triangle. It references
	// static table data and must not be modified.
	Triangles []uint8
}

// NumTriangles returns the amount of triangles the case generates.
func (c Case) NumTriangles() int { return len(c.Triangles) / 3 }

// Crossed reports whether edge e is crossed by the surface.
func (c Case) Crossed(e int) bool { return c.Edges&(1<<e) != 0 }

// LookupCase returns the triangulation of a corner mask.
func LookupCase(mask uint8) Case {
	return Case{
		Mask:      mask,
		Edges:     mcEdgeTable[mask],
		Triangles: mcTriangleTable[mask],
	}
}

// Classify computes the corner mask of a cell from its 8 corner values
// (density minus iso level, canonical corner order) and looks up its case.
// Corner n is inside when v[n] < 0.
func Classify(v [8]float64) (uint8, Case) {
	m := cornerMask(v)
	return m, LookupCase(m)
}

func cornerMask(v [8]float64) (mask uint8) {
	for n := range v {
		if v[n] < 0 {
			mask |= 1 << n
		}
	}
	return mask
}

// EdgeCorners returns the two canonical corners joined by edge e, lower
// lattice coordinate first.
func EdgeCorners(e int) (a, b int) {
	return int(mcEdges[e][0]), int(mcEdges[e][1])
}

// CornerOffset returns the lattice offset of corner n from the cell origin.
func CornerOffset(n int) [3]int { return mcCorners[n] }

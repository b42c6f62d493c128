package march

import (
	"math"
	"testing"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestInterpolate(t *testing.T) {
	const tol = 1e-12
	var (
		pA = r3.Vec{}
		pB = r3.Vec{X: 2}
		gX = r3.Vec{X: 3}
	)
	var tests = []struct {
		vA, vB     float64
		gA, gB     r3.Vec
		wantPos    r3.Vec
		wantNormal r3.Vec
	}{
		{vA: -1, vB: 1, gA: gX, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{X: 1}},
		{vA: -1, vB: 3, gA: gX, gB: gX, wantPos: r3.Vec{X: 0.5}, wantNormal: r3.Vec{X: 1}},
		// Equal values interpolate to the midpoint.
		{vA: 2, vB: 2, gA: gX, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{X: 1}},
		{vA: 0, vB: 0, gA: gX, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{X: 1}},
		// Fraction is clamped for values of equal sign.
		{vA: 1, vB: 3, gA: gX, gB: gX, wantPos: r3.Vec{}, wantNormal: r3.Vec{X: 1}},
		{vA: 3, vB: 1, gA: gX, gB: gX, wantPos: pB, wantNormal: r3.Vec{X: 1}},
		// Degenerate gradients fall back to +Y.
		{vA: -1, vB: 1, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{Y: 1}},
		{vA: -1, vB: 1, gA: gX, gB: r3.Scale(-1, gX), wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{Y: 1}},
		{vA: -1, vB: 1, gA: r3.Vec{Z: math.Inf(1)}, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{Y: 1}},
		{vA: -1, vB: 1, gA: r3.Vec{Z: math.NaN()}, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{Y: 1}},
		// Non-finite samples do not leak NaN positions.
		{vA: math.Inf(-1), vB: math.Inf(1), gA: gX, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{X: 1}},
		{vA: math.NaN(), vB: 1, gA: gX, gB: gX, wantPos: r3.Vec{X: 1}, wantNormal: r3.Vec{X: 1}},
	}
	for _, test := range tests {
		pos, normal := Interpolate(test.vA, test.vB, pA, pB, test.gA, test.gB)
		if !d3.EqualWithin(pos, test.wantPos, tol) {
			t.Errorf("Interpolate(%v, %v) position %v, want %v", test.vA, test.vB, pos, test.wantPos)
		}
		if !d3.EqualWithin(normal, test.wantNormal, tol) {
			t.Errorf("Interpolate(%v, %v) normal %v, want %v", test.vA, test.vB, normal, test.wantNormal)
		}
	}
}

func TestEdgeFractionSymmetry(t *testing.T) {
	// Interpolating an edge from either end must find the same point.
	for _, v := range [][2]float64{{-1, 2}, {0.3, -0.1}, {-1e-9, 5}, {7, -7}} {
		t1 := edgeFraction(v[0], v[1])
		t2 := edgeFraction(v[1], v[0])
		if math.Abs(t1+t2-1) > 1e-12 {
			t.Errorf("edgeFraction(%v) = %v, reversed %v", v, t1, t2)
		}
	}
}

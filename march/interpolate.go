package march

import (
	"math"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// fallbackNormal replaces normals of zero length.
var fallbackNormal = r3.Vec{Y: 1}

// minNormalLength is the gradient magnitude below which a normal is degenerate.
const minNormalLength = 1e-12

// Interpolate returns the surface crossing between edge endpoints A and B
// with values vA, vB (density minus iso level), positions pA, pB and
// gradients gA, gB. The fraction t = vA/(vA-vB) is clamped to [0,1] and equal
// values give t = 0.5. The normal is the normalized interpolated gradient;
// a degenerate gradient yields +Y. Results are never NaN for finite inputs.
func Interpolate(vA, vB float64, pA, pB, gA, gB r3.Vec) (pos, normal r3.Vec) {
	t := edgeFraction(vA, vB)
	pos = d3.Lerp(pA, pB, t)
	normal = unitOrFallback(d3.Lerp(gA, gB, t))
	return pos, normal
}

func edgeFraction(vA, vB float64) float64 {
	den := vA - vB
	if den == 0 {
		return 0.5
	}
	t := vA / den
	if math.IsNaN(t) {
		return 0.5
	}
	return math.Max(0, math.Min(1, t))
}

func unitOrFallback(g r3.Vec) r3.Vec {
	n := r3.Norm(g)
	if !(n > minNormalLength) || math.IsInf(n, 0) {
		return fallbackNormal
	}
	return r3.Scale(1/n, g)
}

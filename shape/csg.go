package shape

import (
	"fmt"
	"math"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinFunc is a minimum function for SDF blending.
type MinFunc func(a, b float64) float64

// PolyMin returns a polynomial smooth minimum function. A bigger k gives a
// bigger fillet. k <= 0 is the hard minimum.
func PolyMin(k float64) MinFunc {
	if k <= 0 {
		return math.Min
	}
	return func(a, b float64) float64 {
		h := clamp(0.5+0.5*(b-a)/k, 0, 1)
		return mix(b, a, h) - k*h*(1-h)
	}
}

// union3 is a union of SDF3s.
type union3 struct {
	sdf []SDF3
	min MinFunc
	bb  r3.Box
}

// Union returns the union of multiple SDF3 objects.
func Union(sdf ...SDF3) (SDF3, error) {
	u, err := union(math.Min, sdf)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SmoothUnion returns the union of multiple SDF3 objects blended with a
// polynomial smooth minimum of radius k, the operation used to merge blobs.
func SmoothUnion(k float64, sdf ...SDF3) (SDF3, error) {
	if k < 0 || math.IsNaN(k) {
		return nil, fmt.Errorf("%w: smoothing %v", ErrInvalidArgument, k)
	}
	u, err := union(PolyMin(k), sdf)
	if err != nil {
		return nil, err
	}
	// Blending grows the shape by at most k/4.
	u.bb = r3.Box(d3.Box(u.bb).Enlarge(d3.Elem(k / 2)))
	return u, nil
}

func union(min MinFunc, sdf []SDF3) (*union3, error) {
	if len(sdf) == 0 {
		return nil, fmt.Errorf("%w: union requires at least 1 sdf", ErrInvalidArgument)
	}
	for i, x := range sdf {
		if x == nil {
			return nil, fmt.Errorf("%w: nil sdf argument (%d) to union", ErrInvalidArgument, i)
		}
	}
	bb := d3.Box(sdf[0].Bounds())
	for _, x := range sdf[1:] {
		bb = bb.Extend(d3.Box(x.Bounds()))
	}
	return &union3{sdf: sdf, min: min, bb: r3.Box(bb)}, nil
}

// Evaluate returns the minimum distance to an SDF3 union.
func (s *union3) Evaluate(p r3.Vec) float64 {
	d := s.sdf[0].Evaluate(p)
	for _, x := range s.sdf[1:] {
		d = s.min(d, x.Evaluate(p))
	}
	return d
}

// Bounds returns the bounding box of an SDF3 union.
func (s *union3) Bounds() r3.Box { return s.bb }

// diff3 is the difference of two SDF3s, s0 - s1.
type diff3 struct {
	s0 SDF3
	s1 SDF3
}

// Difference returns the difference of two SDF3s, s0 - s1.
func Difference(s0, s1 SDF3) (SDF3, error) {
	if s0 == nil || s1 == nil {
		return nil, fmt.Errorf("%w: nil argument to Difference", ErrInvalidArgument)
	}
	return &diff3{s0: s0, s1: s1}, nil
}

// Evaluate returns the minimum distance to the SDF3 difference.
func (s *diff3) Evaluate(p r3.Vec) float64 {
	return math.Max(s.s0.Evaluate(p), -s.s1.Evaluate(p))
}

// Bounds returns the bounding box of the SDF3 difference.
func (s *diff3) Bounds() r3.Box { return s.s0.Bounds() }

// intersection3 is the intersection of two SDF3s.
type intersection3 struct {
	s0 SDF3
	s1 SDF3
	bb r3.Box
}

// Intersection returns the intersection of two SDF3s.
func Intersection(s0, s1 SDF3) (SDF3, error) {
	if s0 == nil || s1 == nil {
		return nil, fmt.Errorf("%w: nil argument to Intersection", ErrInvalidArgument)
	}
	b0, b1 := s0.Bounds(), s1.Bounds()
	bb := r3.Box{Min: d3.MaxElem(b0.Min, b1.Min), Max: d3.MinElem(b0.Max, b1.Max)}
	// Disjoint bounds are kept as an empty box at the overlap corner.
	bb.Max = d3.MaxElem(bb.Min, bb.Max)
	return &intersection3{s0: s0, s1: s1, bb: bb}, nil
}

// Evaluate returns the minimum distance to the SDF3 intersection.
func (s *intersection3) Evaluate(p r3.Vec) float64 {
	return math.Max(s.s0.Evaluate(p), s.s1.Evaluate(p))
}

// Bounds returns the bounding box of the intersection.
func (s *intersection3) Bounds() r3.Box { return s.bb }

// translate3 is a translated SDF3.
type translate3 struct {
	sdf SDF3
	v   r3.Vec
	bb  r3.Box
}

// Translate returns s moved by v.
func Translate(s SDF3, v r3.Vec) (SDF3, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil argument to Translate", ErrInvalidArgument)
	}
	if !d3.IsFinite(v) {
		return nil, fmt.Errorf("%w: translation %v", ErrInvalidArgument, v)
	}
	return &translate3{sdf: s, v: v, bb: r3.Box(d3.Box(s.Bounds()).Translate(v))}, nil
}

func (s *translate3) Evaluate(p r3.Vec) float64 {
	return s.sdf.Evaluate(r3.Sub(p, s.v))
}

func (s *translate3) Bounds() r3.Box { return s.bb }

// Clamp x between a and b, assume a <= b
func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

// mix does a linear interpolation from x to y, a = [0,1]
func mix(x, y, a float64) float64 {
	return x + (a * (y - x))
}

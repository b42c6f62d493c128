// Package shape provides world-space density functions for procedural fields.
// All shapes are signed distance fields or bounds of one: negative inside,
// positive outside and zero on the surface.
package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/isomesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidArgument is returned (wrapped) by shape constructors.
var ErrInvalidArgument = errors.New("invalid shape argument")

// SDF3 is the interface to a 3d signed distance function object.
type SDF3 interface {
	// Evaluate takes a point in 3D space as input and returns
	// the minimum distance of the SDF3 to the point. The distance
	// is negative if the point is contained within the SDF3.
	Evaluate(p r3.Vec) float64
	// Bounds returns the bounding box that completely contains
	// the SDF3.
	Bounds() r3.Box
}

// Sphere is a sphere with an analytic gradient.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// NewSphere returns a sphere of positive radius.
func NewSphere(center r3.Vec, radius float64) (Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Sphere{}, fmt.Errorf("%w: sphere radius %v", ErrInvalidArgument, radius)
	}
	if !d3.IsFinite(center) {
		return Sphere{}, fmt.Errorf("%w: sphere center %v", ErrInvalidArgument, center)
	}
	return Sphere{Center: center, Radius: radius}, nil
}

// MustSphere is like NewSphere but panics on invalid arguments.
func MustSphere(center r3.Vec, radius float64) Sphere {
	s, err := NewSphere(center, radius)
	if err != nil {
		panic(err)
	}
	return s
}

// Evaluate returns the minimum distance to the sphere.
func (s Sphere) Evaluate(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, s.Center)) - s.Radius
}

// Gradient returns the unit direction from the center to p.
// The gradient at the center is the zero vector.
func (s Sphere) Gradient(p r3.Vec) r3.Vec {
	d := r3.Sub(p, s.Center)
	n := r3.Norm(d)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, d)
}

// Bounds returns the bounding box of the sphere.
func (s Sphere) Bounds() r3.Box {
	r := d3.Elem(s.Radius)
	return r3.Box{Min: r3.Sub(s.Center, r), Max: r3.Add(s.Center, r)}
}

// box is a 3d box centered at the origin.
type box struct {
	size  r3.Vec // half size minus rounding
	round float64
	bb    r3.Box
}

// Box returns an SDF3 for a 3d box centered at the origin
// (rounded corners with round > 0).
func Box(size r3.Vec, round float64) (SDF3, error) {
	if d3.LTEZero(size) || !d3.IsFinite(size) {
		return nil, fmt.Errorf("%w: box size %v", ErrInvalidArgument, size)
	}
	if round < 0 || 2*round > d3.Min(size) {
		return nil, fmt.Errorf("%w: box rounding %v", ErrInvalidArgument, round)
	}
	size = r3.Scale(0.5, size)
	return &box{
		size:  r3.Sub(size, d3.Elem(round)),
		round: round,
		bb:    r3.Box{Min: r3.Scale(-1, size), Max: size},
	}, nil
}

// Evaluate returns the minimum distance to a 3d box.
func (s *box) Evaluate(p r3.Vec) float64 {
	q := r3.Sub(d3.AbsElem(p), s.size)
	outside := r3.Norm(d3.MaxElem(q, r3.Vec{}))
	inside := math.Min(d3.Max(q), 0)
	return outside + inside - s.round
}

// Bounds returns the bounding box of the box.
func (s *box) Bounds() r3.Box { return s.bb }

// torus is a torus lying on the XY plane centered at the origin.
type torus struct {
	greater float64
	ring    float64
	bb      r3.Box
}

// Torus returns a torus around the Z axis. greaterRadius is the distance from
// the center to the middle of the ring and ringRadius is the radius of the ring.
func Torus(greaterRadius, ringRadius float64) (SDF3, error) {
	if !(ringRadius > 0) || !(greaterRadius > ringRadius) {
		return nil, fmt.Errorf("%w: torus radii %v,%v", ErrInvalidArgument, greaterRadius, ringRadius)
	}
	outer := greaterRadius + ringRadius
	return &torus{
		greater: greaterRadius,
		ring:    ringRadius,
		bb: r3.Box{
			Min: r3.Vec{X: -outer, Y: -outer, Z: -ringRadius},
			Max: r3.Vec{X: outer, Y: outer, Z: ringRadius},
		},
	}, nil
}

// Evaluate returns the minimum distance to the torus.
func (t *torus) Evaluate(p r3.Vec) float64 {
	q := math.Hypot(p.X, p.Y) - t.greater
	return math.Hypot(q, p.Z) - t.ring
}

// Bounds returns the bounding box of the torus.
func (t *torus) Bounds() r3.Box { return t.bb }

// funcSDF adapts a plain function to SDF3.
type funcSDF struct {
	f  func(r3.Vec) float64
	bb r3.Box
}

// Func returns an SDF3 for an arbitrary density function with the given bounds.
func Func(f func(p r3.Vec) float64, bounds r3.Box) (SDF3, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidArgument)
	}
	return &funcSDF{f: f, bb: bounds}, nil
}

func (s *funcSDF) Evaluate(p r3.Vec) float64 { return s.f(p) }

func (s *funcSDF) Bounds() r3.Box { return s.bb }

package shape

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// sdfxSDF3 wraps a deadsy/sdfx solid.
type sdfxSDF3 struct {
	s  sdf.SDF3
	bb r3.Box
}

// FromSDFX adapts a github.com/deadsy/sdfx solid so it can be sampled as a field.
func FromSDFX(s sdf.SDF3) (SDF3, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil sdfx solid", ErrInvalidArgument)
	}
	bb := s.BoundingBox()
	return &sdfxSDF3{
		s: s,
		bb: r3.Box{
			Min: r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
			Max: r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
		},
	}, nil
}

func (s *sdfxSDF3) Evaluate(p r3.Vec) float64 {
	return s.s.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}

func (s *sdfxSDF3) Bounds() r3.Box { return s.bb }

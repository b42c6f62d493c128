package d3

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestBox(t *testing.T) {
	bb := EmptyBox()
	for _, p := range []r3.Vec{{X: 1, Y: -2}, {Z: 3}, {X: -1, Y: 1, Z: 1}} {
		bb = bb.Include(p)
	}
	want := Box{Min: r3.Vec{X: -1, Y: -2}, Max: r3.Vec{X: 1, Y: 1, Z: 3}}
	if bb != want {
		t.Errorf("got %v, want %v", bb, want)
	}
	if got := bb.Enlarge(Elem(2)); got.Min != r3.Sub(want.Min, Elem(1)) || got.Max != r3.Add(want.Max, Elem(1)) {
		t.Errorf("enlarged %v", got)
	}
	if got := bb.Translate(r3.Vec{X: 1}); got.Min.X != 0 || got.Max.X != 2 {
		t.Errorf("translated %v", got)
	}
	if got := EmptyBox().Extend(bb); got != bb {
		t.Errorf("extending empty box: %v", got)
	}
}

func TestLerp(t *testing.T) {
	a, b := r3.Vec{X: 1}, r3.Vec{X: 3, Y: 4}
	if Lerp(a, b, 0) != a || Lerp(a, b, 1) != b || Lerp(a, b, 0.5) != (r3.Vec{X: 2, Y: 2}) {
		t.Error("bad Lerp")
	}
	if FromMS3(ToMS3(b)) != b {
		t.Error("float32 round trip of representable vector")
	}
}

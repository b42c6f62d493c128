package preview

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/march"
	"github.com/soypat/isomesh/mesh"
	"gonum.org/v1/plot/cmpimg"
)

// imgDelta a normalized imgDelta parameter to describe how close the matching
// should be performed (imgDelta=0: perfect match, imgDelta=1, loose match)
const imgDelta = 0

func blobMesh(t testing.TB, workers int) *mesh.Mesh {
	f, err := isomesh.CenteredParams(0.175, 24).Field()
	if err != nil {
		t.Fatal(err)
	}
	ex, err := march.NewExtractor(march.Config{Mode: march.Shared, Workers: workers})
	if err != nil {
		t.Fatal(err)
	}
	m, err := ex.Extract(t.Context(), f)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func encodePNG(t testing.TB, m *mesh.Mesh) []byte {
	img, err := Render(m, Config{Width: 160, Height: 120, Scale: 2}, DefaultView())
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
		t.Fatalf("image size %v", b)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRenderDeterministic(t *testing.T) {
	b1 := encodePNG(t, blobMesh(t, 1))
	b2 := encodePNG(t, blobMesh(t, 4))
	equal, err := cmpimg.EqualApprox("png", b1, b2, imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("previews of identical extractions differ")
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.png")
	m := blobMesh(t, 0)
	if err := SavePNG(path, m, Config{Width: 64, Height: 64}, DefaultView()); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	img, err := png.Decode(fp)
	if err != nil {
		t.Fatal(err)
	}
	// The blob covers the image center.
	bg := img.At(0, 0)
	if img.At(32, 32) == bg {
		t.Error("image center shows background")
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := Render(&mesh.Mesh{}, Config{Width: 10, Height: 10}, DefaultView()); err == nil {
		t.Error("expected error rendering empty mesh")
	}
	if _, err := Render(blobMesh(t, 0), Config{Width: 0, Height: 10}, DefaultView()); err == nil {
		t.Error("expected error for zero width")
	}
}

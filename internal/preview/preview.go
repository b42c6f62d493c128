// Package preview renders extracted meshes to images for inspection.
package preview

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/isomesh/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures the camera.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye located at (point)
	Eye  r3.Vec
	Near float64
	Far  float64
	// vertical field of view in degrees
	FovY float64
}

// DefaultView looks at the origin from a corner of the bi-unit cube.
func DefaultView() View {
	return View{
		Eye:  r3.Vec{X: 3, Y: 3, Z: 2.5},
		Up:   r3.Vec{Z: 1},
		Near: 1,
		Far:  10,
		FovY: 30,
	}
}

// Config sets the output image size.
type Config struct {
	Width, Height int
	// Supersampling factor for antialiasing. Values below 1 are treated as 1.
	Scale int
}

// Render draws m with a Phong shader after fitting it inside a bi-unit cube
// centered at the origin.
func Render(m *mesh.Mesh, cfg Config, view View) (image.Image, error) {
	if m.IsEmpty() {
		return nil, errors.New("empty mesh")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("image dimensions must be positive")
	}
	scale := max(cfg.Scale, 1)
	fm := toFauxgl(m)
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor("#468966")
	)
	fm.BiUnitCube()
	context := fauxgl.NewContext(cfg.Width*scale, cfg.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(cfg.Width) / float64(cfg.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.FovY, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(fm)
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(cfg.Width), uint(cfg.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG renders m and saves the result as a PNG file.
func SavePNG(path string, m *mesh.Mesh, cfg Config, view View) error {
	img, err := Render(m, cfg, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func toFauxgl(m *mesh.Mesh) *fauxgl.Mesh {
	tris := make([]*fauxgl.Triangle, 0, m.TriangleCount())
	vert := func(idx uint32) fauxgl.Vertex {
		v := m.Vertices[idx]
		return fauxgl.Vertex{
			Position: fauxgl.V(float64(v.Position.X), float64(v.Position.Y), float64(v.Position.Z)),
			Normal:   fauxgl.V(float64(v.Normal.X), float64(v.Normal.Y), float64(v.Normal.Z)),
		}
	}
	for t := 0; t < m.TriangleCount(); t++ {
		idx := m.Indices[3*t : 3*t+3]
		tris = append(tris, fauxgl.NewTriangle(vert(idx[0]), vert(idx[1]), vert(idx[2])))
	}
	return fauxgl.NewTriangleMesh(tris)
}

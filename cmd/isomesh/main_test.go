package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/d3"
	"github.com/soypat/isomesh/march"
	"gonum.org/v1/gonum/spatial/r3"
)

const blobTOML = `
mode = "unshared"
workers = 2

[blob]
cells = [10, 10, 10]
origin = {X = 0.5, Y = -0.5, Z = 0.0}
cell_size = {X = 0.1, Y = 0.1, Z = 0.1}
iso_level = 0.05
center = {X = 1.0, Y = 0.0, Z = 0.5}
radius = 0.4

[brush]
radius = 0.5
strength = 2.0
carve = true
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blob.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg := defaultConfig()
	if err := loadConfig(writeConfig(t, blobTOML), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "unshared" || cfg.Workers != 2 {
		t.Errorf("mode %q workers %d", cfg.Mode, cfg.Workers)
	}
	want := isomesh.Params{
		Cells:    [3]int{10, 10, 10},
		Origin:   r3.Vec{X: 0.5, Y: -0.5},
		CellSize: d3.Elem(0.1),
		IsoLevel: 0.05,
		Center:   r3.Vec{X: 1, Z: 0.5},
		Radius:   0.4,
	}
	if cfg.Blob != want {
		t.Errorf("blob %+v, want %+v", cfg.Blob, want)
	}
	if cfg.Brush != (brushConfig{Radius: 0.5, Strength: 2, Carve: true}) {
		t.Errorf("brush %+v", cfg.Brush)
	}

	cfg = defaultConfig()
	if err := loadConfig(writeConfig(t, "colour = 3\n"), &cfg); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := loadConfig(writeConfig(t, "mode = \n"), &cfg); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestResizeBlob(t *testing.T) {
	cfg := defaultConfig()
	if err := loadConfig(writeConfig(t, blobTOML), &cfg); err != nil {
		t.Fatal(err)
	}
	p := resizeBlob(cfg.Blob, 0.5, 20)
	if p.IsoLevel != 0.05 || p.Center != cfg.Blob.Center {
		t.Errorf("resizing lost iso level or center: %+v", p)
	}
	if p.Cells != [3]int{20, 20, 20} || p.Radius != 0.5 {
		t.Errorf("cells %v radius %v", p.Cells, p.Radius)
	}
	if !d3.EqualWithin(p.CellSize, d3.Elem(0.05), 1e-15) {
		t.Errorf("cell size %v", p.CellSize)
	}
	// The lattice stays centered on the blob.
	bb := p.Grid().Bounds()
	if c := r3.Scale(0.5, r3.Add(bb.Min, bb.Max)); !d3.EqualWithin(c, p.Center, 1e-12) {
		t.Errorf("lattice center %v, want %v", c, p.Center)
	}
}

func TestParseMode(t *testing.T) {
	var tests = []struct {
		s    string
		want march.Mode
		ok   bool
	}{
		{"", march.Shared, true},
		{"shared", march.Shared, true},
		{"Unshared", march.Unshared, true},
		{"welded", 0, false},
	}
	for _, test := range tests {
		got, err := parseMode(test.s)
		if (err == nil) != test.ok || got != test.want {
			t.Errorf("parseMode(%q) = %v, %v", test.s, got, err)
		}
	}
}

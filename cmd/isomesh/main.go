// Command isomesh extracts the isosurface of a sculpted blob and reports
// per-frame mesh statistics. It optionally renders a PNG preview and dumps
// the raw vertex and index buffers for consumption by a renderer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/isomesh"
	"github.com/soypat/isomesh/internal/preview"
	"github.com/soypat/isomesh/march"
	"github.com/soypat/isomesh/mesh"
	"github.com/soypat/isomesh/sculpt"
	"gonum.org/v1/gonum/spatial/r3"
)

// config is the contents of the optional TOML parameter file.
type config struct {
	Blob    isomesh.Params `toml:"blob"`
	Mode    string         `toml:"mode"`
	Workers int            `toml:"workers"`
	Brush   brushConfig    `toml:"brush"`
}

type brushConfig struct {
	// Radius of the brush relative to the blob radius.
	Radius   float64 `toml:"radius"`
	Strength float64 `toml:"strength"`
	Carve    bool    `toml:"carve"`
}

func defaultConfig() config {
	return config{
		Blob: isomesh.CenteredParams(0.175, 80),
		Mode: "shared",
		Brush: brushConfig{
			Radius:   0.3,
			Strength: 0.1,
		},
	}
}

func main() {
	var (
		cfgPath = flag.String("config", "", "TOML parameter file")
		radius  = flag.Float64("radius", 0.175, "blob radius")
		cells   = flag.Int("cells", 80, "cells per axis")
		mode    = flag.String("mode", "shared", "vertex mode: shared or unshared")
		workers = flag.Int("workers", 0, "extraction workers (0 uses all CPUs)")
		frames  = flag.Int("frames", 1, "sculpt frames to extract")
		dt      = flag.Duration("dt", time.Second/60, "simulated time between frames")
		pngOut  = flag.String("png", "", "write a preview of the last frame to this PNG file")
		vbufOut = flag.String("vbuf", "", "write the last frame's vertex buffer to this file")
		ibufOut = flag.String("ibuf", "", "write the last frame's index buffer to this file")
		verbose = flag.Bool("v", false, "log extraction statistics")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	march.SetLogger(log)

	cfg := defaultConfig()
	if *cfgPath != "" {
		if err := loadConfig(*cfgPath, &cfg); err != nil {
			fatal(log, "loading config", err)
		}
	}
	// Explicit flags take precedence over the parameter file.
	blobRadius, blobCells, resized := cfg.Blob.Radius, cfg.Blob.Cells[0], false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "radius":
			blobRadius, resized = *radius, true
		case "cells":
			blobCells, resized = *cells, true
		case "mode":
			cfg.Mode = *mode
		case "workers":
			cfg.Workers = *workers
		}
	})
	if resized {
		cfg.Blob = resizeBlob(cfg.Blob, blobRadius, blobCells)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	m, err := run(ctx, log, cfg, *frames, dt.Seconds())
	if err != nil {
		fatal(log, "extraction failed", err)
	}
	if *pngOut != "" {
		err = preview.SavePNG(*pngOut, m, preview.Config{Width: 800, Height: 600, Scale: 2}, preview.DefaultView())
		if err != nil {
			fatal(log, "writing preview", err)
		}
	}
	if *vbufOut != "" {
		if err := os.WriteFile(*vbufOut, m.AppendVertexBuffer(nil), 0o644); err != nil {
			fatal(log, "writing vertex buffer", err)
		}
	}
	if *ibufOut != "" {
		if err := os.WriteFile(*ibufOut, m.AppendIndexBuffer(nil), 0o644); err != nil {
			fatal(log, "writing index buffer", err)
		}
	}
}

func run(ctx context.Context, log *slog.Logger, cfg config, frames int, dt float64) (*mesh.Mesh, error) {
	mode, err := parseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	sphere, err := cfg.Blob.Sphere()
	if err != nil {
		return nil, err
	}
	field, err := sculpt.NewField(cfg.Blob.Grid(), sphere)
	if err != nil {
		return nil, err
	}
	ex, err := march.NewExtractor(march.Config{Mode: mode, Workers: cfg.Workers})
	if err != nil {
		return nil, err
	}
	brush := sculpt.Brush{
		// Sits on the blob surface along +X.
		Center:   r3.Add(sphere.Center, r3.Vec{X: sphere.Radius}),
		Radius:   cfg.Brush.Radius * sphere.Radius,
		Strength: cfg.Brush.Strength,
		Carve:    cfg.Brush.Carve,
	}
	var (
		m       *mesh.Mesh
		version uint64
	)
	for frame := 0; frame < max(frames, 1); frame++ {
		if frame > 0 {
			if _, err := field.Apply(brush, dt); err != nil {
				return nil, err
			}
		}
		if m != nil && field.Version() == version {
			continue // Unchanged field.
		}
		version = field.Version()
		start := time.Now()
		m, err = ex.Extract(ctx, field)
		if err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
		log.Info("frame",
			"n", frame,
			"triangles", m.TriangleCount(),
			"vertices", m.VertexCount(),
			"area", m.Area(),
			"elapsed", time.Since(start),
		)
	}
	return m, nil
}

// resizeBlob fits a lattice of cells per axis around a blob of the given
// radius. The blob center and iso level are kept.
func resizeBlob(p isomesh.Params, radius float64, cells int) isomesh.Params {
	fit := isomesh.CenteredParams(radius, cells)
	p.Cells = fit.Cells
	p.CellSize = fit.CellSize
	p.Origin = r3.Add(p.Center, fit.Origin)
	p.Radius = radius
	return p
}

func parseMode(s string) (march.Mode, error) {
	switch strings.ToLower(s) {
	case "", "shared":
		return march.Shared, nil
	case "unshared":
		return march.Unshared, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func loadConfig(path string, cfg *config) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = toml.NewDecoder(fp).DisallowUnknownFields().Decode(cfg)
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
	}
	return err
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}

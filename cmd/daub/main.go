// daub - paint a UV-mapped mesh from the command line.
// Strokes are world-space paths; the painted layer is saved as a PNG and
// can be previewed in the terminal.
//
// Examples:
//
//	daub -color 200,40,40 -radius 0.2 -out red.png
//	daub -prim cube -stroke "-0.8,0.8,1;0.8,-0.8,1" -preview
//	daub -preset brushes/leaf.toml model.glb
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/daub/pkg/brush"
	"github.com/taigrr/daub/pkg/math3d"
	"github.com/taigrr/daub/pkg/models"
	"github.com/taigrr/daub/pkg/pixel"
	"github.com/taigrr/daub/pkg/preview"
)

var (
	layerSize   = flag.Int("size", 512, "Layer size in pixels (square)")
	layerFormat = flag.String("format", "rgba8", "Layer pixel format (e.g. rgba8, rgb16, gray32f)")
	presetPath  = flag.String("preset", "", "Brush preset (TOML)")
	radius      = flag.Float64("radius", 0, "Brush radius in world units (overrides preset)")
	strength    = flag.Float64("strength", -1, "Brush strength 0-1 (overrides preset)")
	brushColor  = flag.String("color", "", "Brush color R,G,B (0-255, overrides preset)")
	bgColor     = flag.String("bg", "255,255,255", "Layer background color (R,G,B)")
	strokePath  = flag.String("stroke", "", "World-space stroke path \"x,y,z;x,y,z;...\"")
	outPath     = flag.String("out", "painted.png", "Output PNG")
	undoLast    = flag.Bool("undo", false, "Undo the stroke before saving")
	showPreview = flag.Bool("preview", false, "Show the layer in the terminal")
	verbose     = flag.Bool("v", false, "Debug logging")
	primitive   = flag.String("prim", "plane", "Built-in mesh when no model is given (plane or cube)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "daub - paint UV-mapped meshes\n\n")
		fmt.Fprintf(os.Stderr, "Usage: daub [options] [model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	brush.SetLogger(logger)

	mesh, base, err := loadMesh(modelPath)
	if err != nil {
		return err
	}
	logger.Info("mesh loaded", "name", mesh.Name, "points", len(mesh.Points), "polygons", len(mesh.Polygons))

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	layer, err := newLayer(base)
	if err != nil {
		return err
	}

	path := defaultStroke(mesh)
	if *strokePath != "" {
		if path, err = parsePath(*strokePath); err != nil {
			return err
		}
	}

	painter := brush.NewPainter(mesh, settings)
	painter.Projector = brush.NewProjector(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), 1)

	stats, err := painter.Stroke(ctx, layer, path)
	if err != nil {
		return fmt.Errorf("paint stroke: %w", err)
	}
	logger.Info("stroke painted",
		"dabs", len(brush.Resample(path, settings.Spacing*settings.Radius)),
		"triangles", stats.Triangles,
		"degenerate", stats.Degenerate,
		"pixels", stats.Pixels,
		"dirty", stats.Dirty)

	if *undoLast && !layer.Undo() {
		return errors.New("undo: nothing to undo")
	}

	if err := layer.Bitmap.SavePNG(*outPath); err != nil {
		return fmt.Errorf("save layer: %w", err)
	}
	logger.Info("saved", "path", *outPath, "format", layer.Bitmap.Format)

	if *showPreview {
		return showLayer(ctx, layer)
	}
	return nil
}

// loadMesh loads a model, or builds the -prim mesh when path is empty. The
// model's base texture, if any, is returned too.
func loadMesh(path string) (*models.Mesh, image.Image, error) {
	if path == "" {
		switch strings.ToLower(*primitive) {
		case "plane":
			return models.NewPlane(2, 8), nil, nil
		case "cube":
			return models.NewCube(2), nil, nil
		default:
			return nil, nil, fmt.Errorf("unknown primitive %q", *primitive)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
	default:
		return nil, nil, fmt.Errorf("unsupported model format: %s", ext)
	}

	mesh, err := models.LoadGLB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load model: %w", err)
	}
	if !mesh.HasUVs() {
		return nil, nil, fmt.Errorf("load model: %w", brush.ErrNoUVs)
	}
	base, err := models.LoadBaseTexture(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load base texture: %w", err)
	}
	return mesh, base, nil
}

// loadSettings reads the -preset file and applies flag overrides.
func loadSettings() (brush.Settings, error) {
	s := brush.DefaultSettings()
	s.Radius = 0.2
	if *presetPath != "" {
		p, err := brush.LoadPreset(*presetPath)
		if err != nil {
			return s, err
		}
		if s, err = p.Settings(); err != nil {
			return s, fmt.Errorf("preset %s: %w", *presetPath, err)
		}
	}

	if *radius > 0 {
		s.Radius = *radius
	}
	if *strength >= 0 {
		s.Strength = *strength
	}
	if *brushColor != "" {
		c, err := parseRGB(*brushColor)
		if err != nil {
			return s, fmt.Errorf("parse color: %w", err)
		}
		s.Color = c
	}
	return s, nil
}

// newLayer creates the paint layer, seeded from base when the model has a
// texture and filled with -bg otherwise.
func newLayer(base image.Image) (*brush.Layer, error) {
	f, err := pixel.ParseFormat(*layerFormat)
	if err != nil {
		return nil, err
	}
	layer, err := brush.NewLayer("paint", *layerSize, *layerSize, f)
	if err != nil {
		return nil, err
	}

	if base != nil {
		seeded, err := pixel.FromImage(pixel.Resize(base, *layerSize, *layerSize), f)
		if err != nil {
			return nil, fmt.Errorf("seed layer: %w", err)
		}
		layer.Bitmap = seeded
		return layer, nil
	}

	bg, err := parseRGB(*bgColor)
	if err != nil {
		return nil, fmt.Errorf("parse bg: %w", err)
	}
	layer.Bitmap.Fill(bg)
	return layer, nil
}

// showLayer draws the layer in the alternate screen until a key is
// pressed or ctx is cancelled.
func showLayer(ctx context.Context, layer *brush.Layer) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	draw := func() error {
		term.Erase()
		bmp := layer.Bitmap
		preview.Draw(term, bmp, preview.Fit(bmp.Width, bmp.Height, width, height))
		return term.Display()
	}
	if err := draw(); err != nil {
		return fmt.Errorf("draw preview: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-term.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Resize(width, height)
				if err := draw(); err != nil {
					return fmt.Errorf("draw preview: %w", err)
				}
			case uv.KeyPressEvent:
				return nil
			}
		}
	}
}

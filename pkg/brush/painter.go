package brush

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/daub/pkg/math3d"
	"github.com/taigrr/daub/pkg/models"
	"github.com/taigrr/daub/pkg/pixel"
	"github.com/taigrr/daub/pkg/raster"
	"github.com/taigrr/daub/pkg/undo"
)

// stabilizerFPS is the step rate of the stroke stabilizer, one step per dab.
const stabilizerFPS = 60

// Stats summarizes the work done by one or more dabs.
type Stats struct {
	Polygons   int // Polygons near the dab
	Triangles  int // Triangles rasterized
	Degenerate int // Triangles skipped for having no area in UV space
	Spans      int
	Pixels     int             // Pixels visited
	Dirty      image.Rectangle // Pixels changed
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	s.Polygons += o.Polygons
	s.Triangles += o.Triangles
	s.Degenerate += o.Degenerate
	s.Spans += o.Spans
	s.Pixels += o.Pixels
	s.Dirty = s.Dirty.Union(o.Dirty)
	return s
}

// Painter applies dabs of one brush to the layers of one mesh. A Painter
// may paint into different layers concurrently; it must not be modified
// while painting.
type Painter struct {
	Mesh      *models.Mesh
	Settings  Settings
	Projector *Projector // Required for Stencil sources
}

// NewPainter creates a painter for mesh.
func NewPainter(mesh *models.Mesh, s Settings) *Painter {
	return &Painter{Mesh: mesh, Settings: s}
}

// DabAt builds a dab from the brush settings at center, oriented by the
// average normal of the polygons it touches.
func (p *Painter) DabAt(center math3d.Vec3) Dab {
	s := p.Settings.normalized()
	var normal math3d.Vec3
	for _, i := range p.Mesh.PolygonsNear(center, s.Radius) {
		normal = normal.Add(p.Mesh.PolygonNormal(i))
	}
	if normal.LenSq() == 0 && p.Projector != nil {
		normal = p.Projector.Forward().Scale(-1)
	}
	return Dab{
		Center:   center,
		Normal:   normal.Normalize(),
		Radius:   s.Radius,
		Strength: s.Strength,
		Falloff:  s.Falloff,
	}
}

// PaintDab paints one dab into layer. A dab with zero strength does
// nothing. When the layer has an open undo stroke, every tile the dab may
// touch is captured first.
func (p *Painter) PaintDab(layer *Layer, dab Dab) (Stats, error) {
	if layer == nil || layer.Bitmap == nil {
		return Stats{}, ErrNoLayer
	}
	dab.Strength = clamp01(dab.Strength)
	if dab.Strength == 0 {
		return Stats{}, nil
	}
	if !p.Mesh.HasUVs() {
		return Stats{}, ErrNoUVs
	}

	s := p.Settings.normalized()
	if s.SourceKind == Stencil && p.Projector == nil {
		return Stats{}, ErrNoProjector
	}

	layer.mu.Lock()
	defer layer.mu.Unlock()

	bmp := layer.Bitmap
	size := math3d.V2(float64(bmp.Width), float64(bmp.Height))
	sw := newSpanWriter(bmp, p.shader(s, dab))

	polys := p.Mesh.PolygonsNear(dab.Center, dab.Radius)
	stats := Stats{Polygons: len(polys)}
	log := Logger()

	for _, pi := range polys {
		for _, tri := range p.Mesh.Triangles(pi) {
			var rt raster.Triangle
			for k, idx := range tri.Index {
				rt.World[k] = p.Mesh.Points[idx]
				d := tri.UV[k].Mul(size)
				rt.Dest[k] = raster.P2(float32(d.X), float32(d.Y))
			}
			if s.SourceKind != NoSource {
				if !p.sourceTriangle(s, dab, &rt) {
					log.Debug("triangle behind projector", "polygon", pi)
					continue
				}
			}
			stats.Triangles++

			if layer.History != nil {
				err := layer.History.CaptureRect(bmp, rt.Bounds())
				if err != nil && !errors.Is(err, undo.ErrNoStroke) {
					return stats, fmt.Errorf("capture undo: %w", err)
				}
			}

			res, err := raster.Rasterize(rt, sw, raster.WithClip(bmp.Bounds()))
			stats.Spans += res.Spans
			stats.Pixels += res.Pixels
			if err != nil {
				stats.Dirty = sw.dirty
				return stats, fmt.Errorf("paint polygon %d: %w", pi, err)
			}
			if res.Degenerate {
				stats.Degenerate++
				log.Debug("degenerate triangle skipped", "polygon", pi, "uv", tri.UV)
			}
		}
	}

	stats.Dirty = sw.dirty
	log.Debug("dab",
		"layer", layer.Name,
		"center", dab.Center,
		"polygons", stats.Polygons,
		"spans", stats.Spans,
		"pixels", stats.Pixels,
		"dirty", stats.Dirty)
	return stats, nil
}

// sourceTriangle fills the source coordinates of rt. It reports false when
// a vertex cannot be mapped.
func (p *Painter) sourceTriangle(s Settings, dab Dab, rt *raster.Triangle) bool {
	b := s.Source.Bounds()
	for k, pos := range rt.World {
		var x, y float64
		switch s.SourceKind {
		case Stamp:
			x, y = dab.StampCoords(pos, b.Dx(), b.Dy())
		case Stencil:
			var ok bool
			if x, y, ok = p.Projector.StencilCoords(pos, b.Dx(), b.Dy()); !ok {
				return false
			}
		}
		if math.IsNaN(x) || math.IsNaN(y) {
			return false
		}
		rt.Source[k] = raster.P2(float32(x), float32(y))
	}
	rt.Textured = true
	return true
}

// shade computes the colour and blend weight of one fragment. ok is false
// when the fragment must be left untouched.
type shadeFunc func(f raster.Fragment) (c pixel.Color, weight float32, ok bool)

func (p *Painter) shader(s Settings, dab Dab) shadeFunc {
	strength := float32(dab.Strength)
	useSource := s.SourceKind != NoSource
	var bounds image.Rectangle
	if useSource {
		bounds = s.Source.Bounds()
	}
	// Stamps never tile; samples outside the stamp are skipped.
	tileX := s.TileX && s.SourceKind == Stencil
	tileY := s.TileY && s.SourceKind == Stencil

	var region Region
	if s.Mode == Fill {
		region = s.FillArea
		if region == nil {
			region = Sphere{Center: dab.Center, Radius: dab.Radius}
		}
	}

	return func(f raster.Fragment) (pixel.Color, float32, bool) {
		var weight float32
		switch {
		case s.Mode == Fill:
			if !region.Contains(f.World) {
				return pixel.Color{}, 0, false
			}
			weight = strength
		case s.SourceKind == Stamp && !s.UseSourceFalloff:
			weight = strength
		default:
			weight = float32(dab.FalloffAt(f.World)) * strength
		}
		if weight <= 0 {
			return pixel.Color{}, 0, false
		}

		if !useSource {
			return s.Color, weight * s.Color.A, true
		}
		x, ok := wrap(f.Source.X, bounds.Dx(), tileX)
		if !ok {
			return pixel.Color{}, 0, false
		}
		y, ok := wrap(f.Source.Y, bounds.Dy(), tileY)
		if !ok {
			return pixel.Color{}, 0, false
		}
		c := s.Source.ColorAt(bounds.Min.X+x, bounds.Min.Y+y)
		return c, weight * c.A, true
	}
}

// wrap maps a source coordinate to a pixel index in [0, n), tiling when
// tile is set and rejecting it otherwise.
func wrap(v float32, n int, tile bool) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	i := int(math.Floor(float64(v)))
	if tile {
		i %= n
		if i < 0 {
			i += n
		}
		return i, true
	}
	return i, i >= 0 && i < n
}

// spanWriter is the raster.SpanHandler that blends fragments into a
// pixel.PixelSink one row at a time.
type spanWriter struct {
	sink   pixel.PixelSink
	format pixel.Format
	bpp    int
	shade  shadeFunc

	row     []byte // Reused between spans
	src     []byte // One encoded pixel
	last    pixel.Color
	encoded bool

	x1      int
	changed bool
	minX    int
	maxX    int
	dirty   image.Rectangle
}

func newSpanWriter(sink pixel.PixelSink, shade shadeFunc) *spanWriter {
	f := sink.PixelFormat()
	return &spanWriter{
		sink:   sink,
		format: f,
		bpp:    f.BytesPerPixel(),
		shade:  shade,
		src:    make([]byte, f.BytesPerPixel()),
	}
}

// BeginSpan implements raster.SpanHandler.
func (w *spanWriter) BeginSpan(y, x1, x2 int) error {
	n := (x2 - x1) * w.bpp
	if cap(w.row) < n {
		w.row = make([]byte, n)
	}
	w.row = w.row[:n]
	w.x1 = x1
	w.changed = false
	return w.sink.ReadRow(x1, y, x2-x1, w.row)
}

// Fragment implements raster.SpanHandler.
func (w *spanWriter) Fragment(f raster.Fragment) {
	c, weight, ok := w.shade(f)
	if !ok {
		return
	}
	if !w.encoded || c != w.last {
		pixel.Encode(w.format, c, w.src)
		w.last, w.encoded = c, true
	}

	off := (f.X - w.x1) * w.bpp
	pixel.Blend(w.format, w.row[off:off+w.bpp], w.src, weight)

	if !w.changed {
		w.minX, w.changed = f.X, true
	}
	w.maxX = f.X
}

// EndSpan implements raster.SpanHandler.
func (w *spanWriter) EndSpan(y, x1, x2 int) error {
	if !w.changed {
		return nil
	}
	w.dirty = w.dirty.Union(image.Rect(w.minX, y, w.maxX+1, y+1))
	return w.sink.WriteRow(x1, y, x2-x1, w.row)
}

// BeginStroke opens an undo stroke on every layer.
func (p *Painter) BeginStroke(layers ...*Layer) error {
	for _, l := range layers {
		if l == nil {
			return ErrNoLayer
		}
		if l.History == nil {
			l.History = &undo.History{}
		}
		if err := l.History.Begin(); err != nil {
			return fmt.Errorf("begin stroke on %q: %w", l.Name, err)
		}
	}
	Logger().Info("stroke begin", "layers", len(layers))
	return nil
}

// EndStroke closes the undo stroke on every layer.
func (p *Painter) EndStroke(layers ...*Layer) {
	tiles := 0
	for _, l := range layers {
		if l == nil || l.History == nil {
			continue
		}
		if s := l.History.End(); s != nil {
			tiles += s.Len()
		}
	}
	Logger().Info("stroke end", "layers", len(layers), "tiles", tiles)
}

// PaintDabLayers paints the same dab into several layers concurrently.
func (p *Painter) PaintDabLayers(ctx context.Context, dab Dab, layers ...*Layer) (Stats, error) {
	var (
		mu    sync.Mutex
		total Stats
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range layers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := p.PaintDab(l, dab)
			mu.Lock()
			total = total.Add(st)
			mu.Unlock()
			if err != nil && l != nil {
				return fmt.Errorf("layer %q: %w", l.Name, err)
			}
			return err
		})
	}
	err := g.Wait()
	return total, err
}

// Stroke paints dabs along a world-space path inside one undo stroke. The
// path is resampled every Spacing*Radius and smoothed by the stabilizer.
func (p *Painter) Stroke(ctx context.Context, layer *Layer, path []math3d.Vec3) (Stats, error) {
	if err := p.BeginStroke(layer); err != nil {
		return Stats{}, err
	}
	defer p.EndStroke(layer)

	s := p.Settings.normalized()
	stab := NewStabilizer(s.Lazy, stabilizerFPS)

	var total Stats
	for _, pt := range Resample(path, s.Spacing*s.Radius) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := p.PaintDab(layer, p.DabAt(stab.Update(pt)))
		total = total.Add(st)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Resample returns points along path spaced step apart, starting with the
// first point. The last point is kept when it is more than half a step past
// the final sample.
func Resample(path []math3d.Vec3, step float64) []math3d.Vec3 {
	if len(path) == 0 {
		return nil
	}
	out := []math3d.Vec3{path[0]}
	if step <= 0 {
		return append(out, path[1:]...)
	}

	eps := step * 1e-9
	next := step
	walked := 0.0
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		seg := a.Distance(b)
		for seg > 0 && next <= walked+seg+eps {
			t := math.Min((next-walked)/seg, 1)
			out = append(out, a.Lerp(b, t))
			next += step
		}
		walked += seg
	}

	last := path[len(path)-1]
	if out[len(out)-1].Distance(last) > step/2 {
		out = append(out, last)
	}
	return out
}

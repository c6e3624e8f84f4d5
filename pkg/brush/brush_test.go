package brush

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/daub/pkg/math3d"
	"github.com/taigrr/daub/pkg/models"
	"github.com/taigrr/daub/pkg/pixel"
)

var (
	white = pixel.RGB(1, 1, 1)
	red   = pixel.RGB(1, 0, 0)
	blue  = pixel.RGB(0, 0, 1)
	green = pixel.RGB(0, 1, 0)
)

// The 2x2 plane maps world (x, y) to layer pixel (16x+16, 16-16y) on a
// 32x32 layer.
func pixelOf(x, y float64) (int, int) {
	return int(math.Round(16*x + 16)), int(math.Round(16 - 16*y))
}

func newWhiteLayer(t *testing.T, f pixel.Format) *Layer {
	t.Helper()
	l, err := NewLayer("base", 32, 32, f)
	require.NoError(t, err)
	l.Bitmap.Fill(white)
	return l
}

func redBrush() Settings {
	s := DefaultSettings()
	s.Radius = 0.53
	s.Color = red
	s.Falloff = Constant
	return s
}

// halves is a 2x2 stamp: left column blue, right column green.
func halves(t *testing.T) *pixel.Bitmap {
	t.Helper()
	bmp, err := pixel.NewBitmap(2, 2, pixel.RGBA8)
	require.NoError(t, err)
	for y := range 2 {
		bmp.SetColor(0, y, blue)
		bmp.SetColor(1, y, green)
	}
	return bmp
}

func TestFalloffEval(t *testing.T) {
	tests := []struct {
		name    string
		falloff Falloff
		d, r    float64
		want    float64
	}{
		{"constant inside", Constant, 0.9, 1, 1},
		{"constant outside", Constant, 1.1, 1, 0},
		{"linear centre", Linear, 0, 2, 1},
		{"linear half", Linear, 1, 2, 0.5},
		{"linear rim", Linear, 2, 2, 0},
		{"smooth half", Smooth, 0.5, 1, 0.5},
		{"smooth quarter", Smooth, 0.75, 1, 0.15625},
		{"zero radius", Smooth, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.falloff.Eval(tt.d, tt.r), 1e-12)
		})
	}
}

func TestParseEnums(t *testing.T) {
	f, err := ParseFalloff("Linear")
	require.NoError(t, err)
	assert.Equal(t, Linear, f)

	m, err := ParseMode("fill")
	require.NoError(t, err)
	assert.Equal(t, Fill, m)

	k, err := ParseSourceKind("stencil")
	require.NoError(t, err)
	assert.Equal(t, Stencil, k)
	assert.Equal(t, "stencil", k.String())

	_, err = ParseMode("smudge")
	assert.Error(t, err)
}

func TestRegions(t *testing.T) {
	box := Box{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(0, 1, 1)}
	assert.True(t, box.Contains(math3d.V3(0, 0, 0)))
	assert.False(t, box.Contains(math3d.V3(0.1, 0, 0)))

	sph := Sphere{Center: math3d.V3(1, 0, 0), Radius: 0.5}
	assert.True(t, sph.Contains(math3d.V3(1.5, 0, 0)))
	assert.False(t, sph.Contains(math3d.V3(0, 0, 0)))
}

func TestStampCoords(t *testing.T) {
	d := Dab{Center: math3d.V3(1, 1, 0), Normal: math3d.V3(0, 0, 1), Radius: 0.5}

	x, y := d.StampCoords(math3d.V3(1, 1, 0), 10, 20)
	assert.InDelta(t, 5, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	x, y = d.StampCoords(math3d.V3(0.5, 1.5, 3), 10, 20) // left, top, off-plane
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	d.Radius = 0
	x, _ = d.StampCoords(math3d.V3(1, 1, 0), 10, 10)
	assert.True(t, math.IsNaN(x))
}

func TestStencilCoords(t *testing.T) {
	p := NewProjector(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), 1)

	x, y, ok := p.StencilCoords(math3d.V3(0, 0, 0), 100, 50)
	require.True(t, ok)
	assert.InDelta(t, 50, x, 1e-9)
	assert.InDelta(t, 25, y, 1e-9)

	x, y, ok = p.StencilCoords(math3d.V3(1, 1, 0), 100, 50)
	require.True(t, ok)
	assert.Greater(t, x, 50.0)
	assert.Less(t, y, 25.0)

	_, _, ok = p.StencilCoords(math3d.V3(0, 0, 10), 100, 50)
	assert.False(t, ok)
}

func TestPaintDab(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	p := NewPainter(mesh, redBrush())

	stats, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Polygons)
	assert.Equal(t, 2, stats.Triangles)
	assert.Equal(t, 0, stats.Degenerate)
	assert.Equal(t, 63, stats.Spans)
	assert.Equal(t, 32*32, stats.Pixels)
	assert.Equal(t, image.Rect(8, 8, 25, 25), stats.Dirty)

	bmp := layer.Bitmap
	assert.Equal(t, red, bmp.ColorAt(16, 16))
	assert.Equal(t, red, bmp.ColorAt(23, 16))
	assert.Equal(t, white, bmp.ColorAt(25, 16))
	assert.Equal(t, white, bmp.ColorAt(0, 0))
}

func TestPaintDabStrength(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	p := NewPainter(mesh, redBrush())

	dab := p.DabAt(math3d.V3(0, 0, 0))
	dab.Strength = 0.5
	_, err := p.PaintDab(layer, dab)
	require.NoError(t, err)

	px := layer.Bitmap.Pix[layer.Bitmap.PixOffset(16, 16):]
	assert.Equal(t, []byte{255, 128, 128, 255}, px[:4])
}

func TestPaintDabFalloff(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA32F)
	s := redBrush()
	s.Falloff = Linear
	s.Radius = 1
	p := NewPainter(mesh, s)

	_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)

	// Half way to the rim blends half red into white.
	x, y := pixelOf(0.5, 0)
	c := layer.Bitmap.ColorAt(x, y)
	assert.InDelta(t, 1, c.R, 1e-4)
	assert.InDelta(t, 0.5, c.G, 1e-4)
	assert.InDelta(t, 0, layer.Bitmap.ColorAt(16, 16).G, 1e-4)
}

func TestPaintDabZeroStrength(t *testing.T) {
	layer := newWhiteLayer(t, pixel.RGBA8)
	before := layer.Bitmap.Clone()

	// No UVs either: the strength check comes first.
	mesh := models.NewPlane(2, 1)
	for i := range mesh.Polygons {
		mesh.Polygons[i].UV = [4]math3d.Vec2{}
	}
	p := NewPainter(mesh, redBrush())
	dab := p.DabAt(math3d.V3(0, 0, 0))
	dab.Strength = 0

	stats, err := p.PaintDab(layer, dab)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, before.Pix, layer.Bitmap.Pix)
}

func TestPaintDabErrors(t *testing.T) {
	plane := models.NewPlane(2, 1)

	p := NewPainter(plane, redBrush())
	_, err := p.PaintDab(nil, p.DabAt(math3d.V3(0, 0, 0)))
	assert.ErrorIs(t, err, ErrNoLayer)

	bare := models.NewPlane(2, 1)
	for i := range bare.Polygons {
		bare.Polygons[i].UV = [4]math3d.Vec2{}
	}
	p = NewPainter(bare, redBrush())
	_, err = p.PaintDab(newWhiteLayer(t, pixel.RGBA8), p.DabAt(math3d.V3(0, 0, 0)))
	assert.ErrorIs(t, err, ErrNoUVs)

	s := redBrush()
	s.Source = halves(t)
	s.SourceKind = Stencil
	p = NewPainter(plane, s)
	_, err = p.PaintDab(newWhiteLayer(t, pixel.RGBA8), p.DabAt(math3d.V3(0, 0, 0)))
	assert.ErrorIs(t, err, ErrNoProjector)
}

func TestPaintDabDegenerateUVs(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	// Collapse one triangle onto a line in UV space.
	mesh.Polygons[0].UV[2] = mesh.Polygons[0].UV[0].Lerp(mesh.Polygons[0].UV[1], 0.5)

	layer := newWhiteLayer(t, pixel.RGBA8)
	p := NewPainter(mesh, redBrush())
	stats, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Degenerate)
	assert.Equal(t, 2, stats.Triangles)
}

func TestPaintDabFill(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	s := redBrush()
	s.Mode = Fill
	s.Radius = 2
	s.Falloff = Linear // ignored in fill mode
	s.FillArea = Box{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(0, 1, 1)}
	p := NewPainter(mesh, s)

	_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)

	assert.Equal(t, red, layer.Bitmap.ColorAt(3, 30))
	assert.Equal(t, red, layer.Bitmap.ColorAt(15, 2))
	assert.Equal(t, white, layer.Bitmap.ColorAt(20, 5))
}

func TestPaintDabStamp(t *testing.T) {
	mesh := models.NewPlane(2, 1)

	tests := []struct {
		name  string
		tileX bool
	}{
		{"clipped", false},
		{"tile flag ignored", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := newWhiteLayer(t, pixel.RGBA8)
			s := redBrush()
			s.Radius = 0.5
			s.Source = halves(t)
			s.SourceKind = Stamp
			s.TileX = tt.tileX
			p := NewPainter(mesh, s)

			_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
			require.NoError(t, err)

			bmp := layer.Bitmap
			assert.Equal(t, blue, bmp.ColorAt(pixelOf(-0.25, 0.125)))
			assert.Equal(t, green, bmp.ColorAt(pixelOf(0.25, 0.125)))
			// Outside the stamp square nothing is painted.
			assert.Equal(t, white, bmp.ColorAt(pixelOf(-0.75, 0.125)))
		})
	}
}

func TestPaintDabStencil(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	s := redBrush()
	s.Source = halves(t)
	s.SourceKind = Stencil
	p := NewPainter(mesh, s)
	p.Projector = NewProjector(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), 1)

	_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)

	bmp := layer.Bitmap
	assert.Equal(t, blue, bmp.ColorAt(pixelOf(-0.25, 0.125)))
	assert.Equal(t, green, bmp.ColorAt(pixelOf(0.25, -0.25)))
	// The stencil covers the screen but the dab falloff still bounds it.
	assert.Equal(t, white, bmp.ColorAt(pixelOf(-0.75, 0.5)))
	assert.Equal(t, white, bmp.ColorAt(pixelOf(-0.9, 0.9)))
}

func TestPaintDabStencilFalloffIgnoresFlag(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	s := redBrush()
	s.Radius = 0.1
	s.Source = halves(t)
	s.SourceKind = Stencil
	s.UseSourceFalloff = false
	p := NewPainter(mesh, s)
	p.Projector = NewProjector(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), 1)

	_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)

	assert.Equal(t, white, layer.Bitmap.ColorAt(pixelOf(-0.9, 0.9)))
	assert.Equal(t, white, layer.Bitmap.ColorAt(pixelOf(0.5, -0.5)))
}

func TestPaintDabStencilTiling(t *testing.T) {
	mesh := models.NewPlane(2, 1)

	tests := []struct {
		name  string
		tileX bool
		edge  pixel.Color
	}{
		{"clipped", false, white},
		{"tiled", true, green},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := newWhiteLayer(t, pixel.RGBA8)
			s := redBrush()
			s.Radius = 2
			s.Source = halves(t)
			s.SourceKind = Stencil
			s.TileX = tt.tileX
			p := NewPainter(mesh, s)
			// Close enough that the plane's left edge falls off screen.
			p.Projector = NewProjector(math3d.V3(0, 0, 1.5), math3d.V3(0, 0, 0), 1)

			_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
			require.NoError(t, err)

			bmp := layer.Bitmap
			assert.Equal(t, blue, bmp.ColorAt(pixelOf(-0.25, 0)))
			assert.Equal(t, tt.edge, bmp.ColorAt(pixelOf(-0.95, 0)))
		})
	}
}

func TestPaintDabColorAlpha(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGB8)
	s := redBrush()
	s.Color = pixel.Color{R: 1, A: 0.5}
	p := NewPainter(mesh, s)

	_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)

	px := layer.Bitmap.Pix[layer.Bitmap.PixOffset(16, 16):]
	assert.Equal(t, []byte{255, 128, 128}, px[:3])
}

func TestPaintDabUndo(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	before := layer.Bitmap.Clone()
	p := NewPainter(mesh, redBrush())

	require.NoError(t, p.BeginStroke(layer))
	_, err := p.PaintDab(layer, p.DabAt(math3d.V3(0, 0, 0)))
	require.NoError(t, err)
	p.EndStroke(layer)
	after := layer.Bitmap.Clone()

	require.True(t, layer.Undo())
	assert.Equal(t, before.Pix, layer.Bitmap.Pix)
	require.True(t, layer.Redo())
	assert.Equal(t, after.Pix, layer.Bitmap.Pix)
}

func TestPaintDabLayers(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	color := newWhiteLayer(t, pixel.RGBA8)
	gray := newWhiteLayer(t, pixel.Gray16)
	p := NewPainter(mesh, redBrush())

	stats, err := p.PaintDabLayers(context.Background(), p.DabAt(math3d.V3(0, 0, 0)), color, gray)
	require.NoError(t, err)
	assert.Equal(t, 2*32*32, stats.Pixels)
	assert.Equal(t, red, color.Bitmap.ColorAt(16, 16))
	assert.InDelta(t, red.Luma(), gray.Bitmap.ColorAt(16, 16).R, 1e-4)

	_, err = p.PaintDabLayers(context.Background(), p.DabAt(math3d.V3(0, 0, 0)), color, nil)
	assert.ErrorIs(t, err, ErrNoLayer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PaintDabLayers(ctx, p.DabAt(math3d.V3(0, 0, 0)), color)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStroke(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	before := layer.Bitmap.Clone()
	s := redBrush()
	s.Radius = 0.2
	s.Spacing = 0.25
	p := NewPainter(mesh, s)

	path := []math3d.Vec3{math3d.V3(-0.5, 0, 0), math3d.V3(0.5, 0, 0)}
	stats, err := p.Stroke(context.Background(), layer, path)
	require.NoError(t, err)
	assert.Equal(t, 21*32*32, stats.Pixels)

	bmp := layer.Bitmap
	assert.Equal(t, red, bmp.ColorAt(pixelOf(-0.5, 0)))
	assert.Equal(t, red, bmp.ColorAt(pixelOf(0.5, 0)))
	assert.Equal(t, red, bmp.ColorAt(pixelOf(0.1, 0.1)))
	assert.Equal(t, white, bmp.ColorAt(pixelOf(0, -0.75)))

	require.True(t, layer.Undo())
	assert.Equal(t, before.Pix, bmp.Pix)
	assert.False(t, layer.Undo())
}

func TestStrokeCancelled(t *testing.T) {
	mesh := models.NewPlane(2, 1)
	layer := newWhiteLayer(t, pixel.RGBA8)
	p := NewPainter(mesh, redBrush())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Stroke(ctx, layer, []math3d.Vec3{math3d.V3(0, 0, 0)})
	assert.ErrorIs(t, err, context.Canceled)

	// The stroke was closed, so a new one can begin.
	require.NoError(t, p.BeginStroke(layer))
	p.EndStroke(layer)
}

func TestResample(t *testing.T) {
	tests := []struct {
		name string
		path []math3d.Vec3
		step float64
		want int
	}{
		{"empty", nil, 0.1, 0},
		{"single point", []math3d.Vec3{math3d.V3(1, 2, 3)}, 0.1, 1},
		{"exact steps", []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0)}, 0.25, 5},
		{"keeps far end", []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0)}, 0.6, 3},
		{"drops near end", []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(0.9, 0, 0)}, 0.4, 3},
		{"polyline", []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0)}, 0.5, 5},
		{"no step", []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0)}, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(tt.path, tt.step)
			assert.Len(t, got, tt.want)
		})
	}

	pts := Resample([]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0)}, 0.5)
	assert.InDelta(t, 1, pts[3].X, 1e-12)
	assert.InDelta(t, 0.5, pts[3].Y, 1e-12)
}

func TestStabilizer(t *testing.T) {
	off := NewStabilizer(0, 60)
	assert.Equal(t, math3d.V3(3, 2, 1), off.Update(math3d.V3(3, 2, 1)))

	s := NewStabilizer(0.5, 60)
	assert.Equal(t, math3d.V3(0, 0, 0), s.Update(math3d.V3(0, 0, 0)))

	target := math3d.V3(1, 0, 0)
	first := s.Update(target)
	assert.Greater(t, first.X, 0.0)
	assert.Less(t, first.X, 1.0)

	var pos math3d.Vec3
	for range 600 {
		pos = s.Update(target)
	}
	assert.InDelta(t, 1, pos.X, 1e-3)

	s.Reset()
	assert.Equal(t, math3d.V3(5, 5, 5), s.Update(math3d.V3(5, 5, 5)))
}

func TestStatsAdd(t *testing.T) {
	a := Stats{Polygons: 1, Pixels: 10, Dirty: image.Rect(0, 0, 2, 2)}
	b := Stats{Polygons: 2, Spans: 3, Dirty: image.Rect(5, 5, 6, 6)}
	sum := a.Add(b)
	assert.Equal(t, 3, sum.Polygons)
	assert.Equal(t, 3, sum.Spans)
	assert.Equal(t, image.Rect(0, 0, 6, 6), sum.Dirty)
	assert.Equal(t, a.Dirty, a.Add(Stats{}).Dirty)
}

func TestLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	mesh := models.NewPlane(2, 1)
	p := NewPainter(mesh, redBrush())
	layer := newWhiteLayer(t, pixel.RGBA8)
	_, err := p.Stroke(context.Background(), layer, []math3d.Vec3{math3d.V3(0, 0, 0)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "stroke begin")
	assert.Contains(t, out, "msg=dab")
	assert.Contains(t, out, "stroke end")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

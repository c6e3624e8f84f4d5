package raster

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/taigrr/daub/pkg/math3d"
)

// Fragment is one covered destination pixel.
type Fragment struct {
	X, Y     int
	World    math3d.Vec3 // Interpolated along the span
	Factor   float64     // Position within the unclipped span, 0 at X1
	Bary     Bary        // Against the float destination coordinates
	Source   Point2      // Only valid when Textured is set
	Textured bool
}

// SpanHandler receives the output of Rasterize. For each non-empty span,
// BeginSpan is called once, then Fragment for every pixel in [x1, x2) in
// ascending X, then EndSpan. A handler typically reads the destination row in
// BeginSpan, modifies it per fragment and writes it back in EndSpan.
//
// If BeginSpan returns an error, no fragment or EndSpan call follows for
// that span and Rasterize stops.
type SpanHandler interface {
	BeginSpan(y, x1, x2 int) error
	Fragment(f Fragment)
	EndSpan(y, x1, x2 int) error
}

// FragmentFunc adapts a per-pixel callback to a SpanHandler.
type FragmentFunc func(f Fragment)

// BeginSpan implements SpanHandler.
func (fn FragmentFunc) BeginSpan(y, x1, x2 int) error { return nil }

// Fragment implements SpanHandler.
func (fn FragmentFunc) Fragment(f Fragment) { fn(f) }

// EndSpan implements SpanHandler.
func (fn FragmentFunc) EndSpan(y, x1, x2 int) error { return nil }

// Result summarizes one Rasterize call.
type Result struct {
	Spans      int  // Non-empty spans delivered to the handler
	Pixels     int  // Fragments delivered to the handler
	Degenerate bool // The destination triangle had no area
}

// Empty reports whether nothing was drawn.
func (r Result) Empty() bool {
	return r.Pixels == 0
}

// Add accumulates o into r. Degenerate is set if either is.
func (r Result) Add(o Result) Result {
	return Result{
		Spans:      r.Spans + o.Spans,
		Pixels:     r.Pixels + o.Pixels,
		Degenerate: r.Degenerate || o.Degenerate,
	}
}

// Option configures a Rasterize call.
type Option func(*config)

type config struct {
	clip    image.Rectangle
	clipped bool
}

// WithClip restricts output to pixels inside r. Factors, world positions and
// barycentric coordinates still refer to the unclipped triangle.
func WithClip(r image.Rectangle) Option {
	return func(c *config) {
		c.clip = r
		c.clipped = true
	}
}

// rasterizer holds the per-call state of Rasterize.
type rasterizer struct {
	tri Triangle
	h   SpanHandler
	cfg config
	den float32
	res Result
}

// Rasterize walks the pixels covered by tri in scanline order and delivers
// them to h.
//
// The three edges are sorted by Y and the edge with the greatest height is
// paired with each of the other two in turn, covering the upper and lower
// part of the triangle. An edge pair in which either edge has no height
// produces no spans, and a span of zero width produces no pixels; the right
// end of each span and the last scanline are exclusive, so triangles that
// share an edge do not overlap.
//
// A triangle whose destination coordinates have zero area (or are not
// finite) is reported as Degenerate and visits no pixel. The only error
// returned is one from the handler.
func Rasterize(tri Triangle, h SpanHandler, opts ...Option) (Result, error) {
	r := rasterizer{tri: tri, h: h}
	for _, opt := range opts {
		opt(&r.cfg)
	}

	det := tri.Area2()
	if det == 0 || math32.IsNaN(det) || math32.IsInf(det, 0) {
		return Result{Degenerate: true}, nil
	}
	r.den = 1 / det

	edges := tri.Edges()
	long := LongEdge(edges)
	short1 := (long + 1) % 3
	short2 := (long + 2) % 3

	if err := r.fillBetween(edges[long], edges[short1]); err != nil {
		return r.res, err
	}
	if err := r.fillBetween(edges[long], edges[short2]); err != nil {
		return r.res, err
	}
	return r.res, nil
}

// fillBetween emits the spans between the long edge e1 and the short edge
// e2, one per scanline in [e2.Y1, e2.Y2) that lies inside the clip.
func (r *rasterizer) fillBetween(e1, e2 Edge) error {
	h1 := e1.Height()
	if h1 == 0 {
		return nil
	}
	h2 := e2.Height()
	if h2 == 0 {
		return nil
	}

	dx1 := e1.X2 - e1.X1
	dx2 := e2.X2 - e2.X1

	y1, y2 := e2.Y1, e2.Y2
	if r.cfg.clipped {
		y1 = max(y1, r.cfg.clip.Min.Y)
		y2 = min(y2, r.cfg.clip.Max.Y)
	}

	for y := y1; y < y2; y++ {

		t1 := y - e1.Y1
		t2 := y - e2.Y1
		span := NewSpan(
			e1.P1.Lerp(e1.P2, float64(t1)/float64(h1)), e1.X1+dx1*t1/h1,
			e2.P1.Lerp(e2.P2, float64(t2)/float64(h2)), e2.X1+dx2*t2/h2,
		)

		if err := r.drawSpan(span, y); err != nil {
			return err
		}
	}
	return nil
}

// drawSpan delivers one span to the handler.
func (r *rasterizer) drawSpan(span Span, y int) error {
	width := span.Width()
	if width == 0 {
		return nil
	}

	x1, x2 := span.X1, span.X2
	if r.cfg.clipped {
		x1 = max(x1, r.cfg.clip.Min.X)
		x2 = min(x2, r.cfg.clip.Max.X)
		if x1 >= x2 {
			return nil
		}
	}

	if err := r.h.BeginSpan(y, x1, x2); err != nil {
		return fmt.Errorf("begin span y=%d: %w", y, err)
	}

	d := r.tri.Dest
	s := r.tri.Source
	step := 1.0 / float64(width)
	diff := span.P2.Sub(span.P1)
	fy := float32(y)

	for x := x1; x < x2; x++ {
		factor := float64(x-span.X1) * step
		f := Fragment{
			X:      x,
			Y:      y,
			World:  span.P1.Add(diff.Scale(factor)),
			Factor: factor,
			Bary:   Barycentric(r.den, float32(x), fy, d[0], d[1], d[2]),
		}
		if r.tri.Textured {
			f.Textured = true
			f.Source = f.Bary.Point(s[0], s[1], s[2])
		}
		r.h.Fragment(f)
	}

	if err := r.h.EndSpan(y, x1, x2); err != nil {
		return fmt.Errorf("end span y=%d: %w", y, err)
	}

	r.res.Spans++
	r.res.Pixels += x2 - x1
	return nil
}

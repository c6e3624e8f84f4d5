// Package raster provides the scanline triangle rasterizer used by the paint
// brush. Triangles are given in destination-bitmap coordinates and every
// covered pixel is reported with its interpolated world position and its
// barycentric coordinates.
package raster

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/taigrr/daub/pkg/math3d"
)

// Point2 is a 2D bitmap coordinate.
type Point2 struct {
	X, Y float32
}

// P2 creates a new Point2.
func P2(x, y float32) Point2 {
	return Point2{x, y}
}

// Round rounds a bitmap coordinate to the nearest pixel, halves rounding up.
func Round(v float32) int {
	return int(math32.Floor(v + 0.5))
}

// Triangle is one polygon piece to rasterize. Dest holds the destination
// bitmap coordinates of each vertex and World the matching world positions.
// When Textured is set, Source holds the source-bitmap coordinate of each
// vertex and fragments carry an interpolated source position.
type Triangle struct {
	World    [3]math3d.Vec3
	Dest     [3]Point2
	Source   [3]Point2
	Textured bool
}

// Area2 returns twice the signed area of the destination triangle.
func (t Triangle) Area2() float32 {
	return determinant(t.Dest[0], t.Dest[1], t.Dest[2])
}

// Bounds returns the pixel rectangle spanned by the rounded destination
// coordinates. Max is exclusive.
func (t Triangle) Bounds() image.Rectangle {
	var r image.Rectangle
	for i, p := range t.Dest {
		x, y := Round(p.X), Round(p.Y)
		if i == 0 {
			r = image.Rect(x, y, x+1, y+1)
			continue
		}
		r = r.Union(image.Rect(x, y, x+1, y+1))
	}
	return r
}

// Edges returns the three edges (v0,v1), (v1,v2), (v2,v0) with their
// destination coordinates rounded to pixels.
func (t Triangle) Edges() [3]Edge {
	var x, y [3]int
	for i := range 3 {
		x[i] = Round(t.Dest[i].X)
		y[i] = Round(t.Dest[i].Y)
	}
	return [3]Edge{
		NewEdge(t.World[0], x[0], y[0], t.World[1], x[1], y[1]),
		NewEdge(t.World[1], x[1], y[1], t.World[2], x[2], y[2]),
		NewEdge(t.World[2], x[2], y[2], t.World[0], x[0], y[0]),
	}
}

// Edge is a triangle edge with its endpoints ordered so that Y1 <= Y2.
type Edge struct {
	P1, P2         math3d.Vec3
	X1, Y1, X2, Y2 int
}

// NewEdge creates an edge, swapping the endpoints if needed so the first
// one has the smaller Y.
func NewEdge(p1 math3d.Vec3, x1, y1 int, p2 math3d.Vec3, x2, y2 int) Edge {
	if y1 < y2 {
		return Edge{P1: p1, X1: x1, Y1: y1, P2: p2, X2: x2, Y2: y2}
	}
	return Edge{P1: p2, X1: x2, Y1: y2, P2: p1, X2: x1, Y2: y1}
}

// Height returns the vertical extent of the edge in pixels.
func (e Edge) Height() int {
	return e.Y2 - e.Y1
}

// LongEdge returns the index of the first edge with the greatest height.
func LongEdge(edges [3]Edge) int {
	maxHeight, long := 0, 0
	for i, e := range edges {
		if h := e.Height(); h > maxHeight {
			maxHeight = h
			long = i
		}
	}
	return long
}

// Span is a horizontal run of pixels [X1, X2) on one scanline, with the
// world positions of its two ends.
type Span struct {
	P1, P2 math3d.Vec3
	X1, X2 int
}

// NewSpan creates a span, swapping the ends if needed so X1 <= X2.
func NewSpan(p1 math3d.Vec3, x1 int, p2 math3d.Vec3, x2 int) Span {
	if x1 < x2 {
		return Span{P1: p1, X1: x1, P2: p2, X2: x2}
	}
	return Span{P1: p2, X1: x2, P2: p1, X2: x1}
}

// Width returns the number of pixels in the span.
func (s Span) Width() int {
	return s.X2 - s.X1
}

package raster

import "github.com/chewxy/math32"

// Bary holds barycentric coordinates. L0, L1 and L2 weight the first,
// second and third triangle vertex.
type Bary struct {
	L0, L1, L2 float32
}

// Sum returns L0 + L1 + L2.
func (b Bary) Sum() float32 {
	return b.L0 + b.L1 + b.L2
}

// Finite reports whether all three coordinates are finite numbers.
func (b Bary) Finite() bool {
	for _, v := range [3]float32{b.L0, b.L1, b.L2} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Point returns the point weighted by b over p0, p1 and p2.
func (b Bary) Point(p0, p1, p2 Point2) Point2 {
	return Point2{
		X: b.L0*p0.X + b.L1*p1.X + b.L2*p2.X,
		Y: b.L0*p0.Y + b.L1*p1.Y + b.L2*p2.Y,
	}
}

func determinant(a, b, c Point2) float32 {
	return (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
}

// Denominator returns the reciprocal of the barycentric determinant of the
// triangle a, b, c. It is computed once per triangle and passed to
// Barycentric for each pixel.
//
// Denominator does not validate its input: a zero-area triangle yields an
// infinite or NaN result. Rasterize screens such triangles out before
// calling it.
func Denominator(a, b, c Point2) float32 {
	return 1 / determinant(a, b, c)
}

// Barycentric returns the barycentric coordinates of (x, y) in the triangle
// a, b, c. L2 is derived as 1 - L0 - L1, so the coordinates sum to one.
func Barycentric(den, x, y float32, a, b, c Point2) Bary {
	var l Bary
	l.L0 = ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) * den
	l.L1 = ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) * den
	l.L2 = 1 - l.L0 - l.L1
	return l
}

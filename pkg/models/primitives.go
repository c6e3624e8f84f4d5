package models

import "github.com/taigrr/daub/pkg/math3d"

// NewPlane creates a square plane in XY facing +Z, split into
// segments×segments quads. UVs cover 0..1 with V=0 at the top edge.
func NewPlane(size float64, segments int) *Mesh {
	segments = max(segments, 1)
	m := NewMesh("plane")
	half := size / 2
	n := segments + 1

	for j := range n {
		for i := range n {
			u := float64(i) / float64(segments)
			v := float64(j) / float64(segments)
			m.Points = append(m.Points, math3d.V3(-half+u*size, -half+v*size, 0))
		}
	}

	uv := func(i, j int) math3d.Vec2 {
		return math3d.V2(float64(i)/float64(segments), 1-float64(j)/float64(segments))
	}
	for j := range segments {
		for i := range segments {
			a := j*n + i
			m.Polygons = append(m.Polygons, Quad(a, a+1, a+n+1, a+n, [4]math3d.Vec2{
				uv(i, j), uv(i+1, j), uv(i+1, j+1), uv(i, j+1),
			}))
		}
	}

	m.CalculateBounds()
	return m
}

// cubeFaces lists each face's corners, counter-clockwise seen from
// outside. Corner index bits are x | y<<1 | z<<2.
var cubeFaces = [6][4]int{
	{4, 5, 7, 6}, // +Z
	{1, 0, 2, 3}, // -Z
	{5, 1, 3, 7}, // +X
	{0, 4, 6, 2}, // -X
	{6, 7, 3, 2}, // +Y
	{0, 1, 5, 4}, // -Y
}

// NewCube creates a cube centred at the origin. Each face maps to its own
// cell of a 3×2 UV atlas.
func NewCube(size float64) *Mesh {
	m := NewMesh("cube")
	half := size / 2

	for c := range 8 {
		p := math3d.V3(-half, -half, -half)
		if c&1 != 0 {
			p.X = half
		}
		if c&2 != 0 {
			p.Y = half
		}
		if c&4 != 0 {
			p.Z = half
		}
		m.Points = append(m.Points, p)
	}

	for f, corners := range cubeFaces {
		u0, u1 := float64(f%3)/3, float64(f%3+1)/3
		v0, v1 := float64(f/3)/2, float64(f/3+1)/2
		m.Polygons = append(m.Polygons, Quad(corners[0], corners[1], corners[2], corners[3], [4]math3d.Vec2{
			math3d.V2(u0, v1), math3d.V2(u1, v1), math3d.V2(u1, v0), math3d.V2(u0, v0),
		}))
	}

	m.CalculateBounds()
	return m
}

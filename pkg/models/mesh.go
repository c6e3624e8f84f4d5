// Package models provides paintable polygon meshes: UV-mapped triangles
// and quads loaded from glTF or built from primitives.
package models

import (
	"errors"
	"math"

	"github.com/taigrr/daub/pkg/math3d"
)

// ErrNoGeometry is returned when a model contains no paintable polygons.
var ErrNoGeometry = errors.New("model has no polygons")

// Polygon is a triangle or quad with one UV per corner. A triangle
// repeats its last index (C == D).
type Polygon struct {
	A, B, C, D int
	UV         [4]math3d.Vec2
}

// Tri creates a triangle polygon.
func Tri(a, b, c int, uva, uvb, uvc math3d.Vec2) Polygon {
	return Polygon{A: a, B: b, C: c, D: c, UV: [4]math3d.Vec2{uva, uvb, uvc, uvc}}
}

// Quad creates a quad polygon with corners in winding order.
func Quad(a, b, c, d int, uv [4]math3d.Vec2) Polygon {
	return Polygon{A: a, B: b, C: c, D: d, UV: uv}
}

// IsTriangle reports whether the polygon has three corners.
func (p Polygon) IsTriangle() bool { return p.C == p.D }

// Triangle is one rasterizable piece of a polygon.
type Triangle struct {
	Index [3]int // Indices into Mesh.Points
	UV    [3]math3d.Vec2
}

// Mesh is a set of points and the UV-mapped polygons between them.
type Mesh struct {
	Name     string
	Points   []math3d.Vec3
	Polygons []Polygon

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3

	spheres []sphere // Per-polygon bounds, parallel to Polygons
}

type sphere struct {
	center math3d.Vec3
	radius float64
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// Triangles splits polygon i into (a,b,c), plus (a,c,d) for a quad.
func (m *Mesh) Triangles(i int) []Triangle {
	p := m.Polygons[i]
	tris := []Triangle{{
		Index: [3]int{p.A, p.B, p.C},
		UV:    [3]math3d.Vec2{p.UV[0], p.UV[1], p.UV[2]},
	}}
	if !p.IsTriangle() {
		tris = append(tris, Triangle{
			Index: [3]int{p.A, p.C, p.D},
			UV:    [3]math3d.Vec2{p.UV[0], p.UV[2], p.UV[3]},
		})
	}
	return tris
}

// corners returns the distinct point indices of p.
func (p Polygon) corners() []int {
	if p.IsTriangle() {
		return []int{p.A, p.B, p.C}
	}
	return []int{p.A, p.B, p.C, p.D}
}

func (m *Mesh) boundingSphere(p Polygon) sphere {
	idx := p.corners()
	var c math3d.Vec3
	for _, i := range idx {
		c = c.Add(m.Points[i])
	}
	c = c.Scale(1 / float64(len(idx)))

	var r float64
	for _, i := range idx {
		r = math.Max(r, c.Distance(m.Points[i]))
	}
	return sphere{c, r}
}

// PolygonsNear returns the indices of polygons whose bounding sphere
// intersects the sphere at center with the given radius.
func (m *Mesh) PolygonsNear(center math3d.Vec3, radius float64) []int {
	var out []int
	cached := len(m.spheres) == len(m.Polygons)
	for i, p := range m.Polygons {
		var s sphere
		if cached {
			s = m.spheres[i]
		} else {
			s = m.boundingSphere(p)
		}
		if s.center.Distance(center) <= s.radius+radius {
			out = append(out, i)
		}
	}
	return out
}

// PolygonNormal returns the unit normal of polygon i, following its
// winding. Quads use their diagonals.
func (m *Mesh) PolygonNormal(i int) math3d.Vec3 {
	p := m.Polygons[i]
	a, b, c := m.Points[p.A], m.Points[p.B], m.Points[p.C]
	if p.IsTriangle() {
		return b.Sub(a).Cross(c.Sub(a)).Normalize()
	}
	d := m.Points[p.D]
	return c.Sub(a).Cross(d.Sub(b)).Normalize()
}

// HasUVs reports whether any polygon carries a non-zero UV.
func (m *Mesh) HasUVs() bool {
	for _, p := range m.Polygons {
		for _, uv := range p.UV {
			if uv.X != 0 || uv.Y != 0 {
				return true
			}
		}
	}
	return false
}

// CalculateBounds computes the axis-aligned bounding box and the
// per-polygon bounding spheres used by PolygonsNear.
func (m *Mesh) CalculateBounds() {
	m.spheres = m.spheres[:0]
	for _, p := range m.Polygons {
		m.spheres = append(m.spheres, m.boundingSphere(p))
	}

	if len(m.Points) == 0 {
		return
	}

	m.BoundsMin = m.Points[0]
	m.BoundsMax = m.Points[0]

	for _, v := range m.Points[1:] {
		m.BoundsMin = m.BoundsMin.Min(v)
		m.BoundsMax = m.BoundsMax.Max(v)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// Transform applies a transformation matrix to all points.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Points {
		m.Points[i] = mat.MulVec3(m.Points[i])
	}
	m.CalculateBounds()
}

// Normalize centres the mesh at the origin and scales it so its largest
// dimension spans two units.
func (m *Mesh) Normalize() {
	m.CalculateBounds()
	size := m.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim == 0 {
		return
	}
	m.Transform(math3d.ScaleUniform(2 / maxDim).Mul(math3d.Translate(m.Center().Scale(-1))))
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Points:    make([]math3d.Vec3, len(m.Points)),
		Polygons:  make([]Polygon, len(m.Polygons)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Points, m.Points)
	copy(clone.Polygons, m.Polygons)
	clone.spheres = append([]sphere(nil), m.spheres...)
	return clone
}

package brush

import (
	"math"

	"github.com/taigrr/daub/pkg/math3d"
)

// Dab is a single application of the brush at a point on the surface.
type Dab struct {
	Center   math3d.Vec3
	Normal   math3d.Vec3 // Surface normal; orients stamps
	Radius   float64
	Strength float64
	Falloff  Falloff
}

// FalloffAt returns the dab's falloff at a world position, not yet scaled
// by strength.
func (d Dab) FalloffAt(pos math3d.Vec3) float64 {
	return d.Falloff.Eval(d.Center.Distance(pos), d.Radius)
}

// StampCoords projects pos onto the dab's tangent plane and maps the
// square [-Radius, Radius]² onto a w×h stamp, +tangent to the right and
// +bitangent to the top row.
func (d Dab) StampCoords(pos math3d.Vec3, w, h int) (x, y float64) {
	if d.Radius <= 0 {
		return math.NaN(), math.NaN()
	}
	tangent, bitangent := d.Normal.Basis()
	off := pos.Sub(d.Center)
	u := off.Dot(tangent) / d.Radius
	v := off.Dot(bitangent) / d.Radius

	x = (u + 1) * 0.5 * float64(w)
	y = (1 - (v+1)*0.5) * float64(h)
	return x, y
}

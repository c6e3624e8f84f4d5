package brush

import (
	"math"

	"github.com/taigrr/daub/pkg/math3d"
)

// Projector is the viewing camera a stencil is pinned to.
type Projector struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane
}

// NewProjector creates a camera at position looking at target with a
// 60 degree field of view.
func NewProjector(position, target math3d.Vec3, aspect float64) *Projector {
	return &Projector{
		Position:    position,
		Target:      target,
		Up:          math3d.V3(0, 1, 0),
		FOV:         math.Pi / 3,
		AspectRatio: aspect,
		Near:        0.1,
		Far:         1000,
	}
}

// Forward returns the unit viewing direction.
func (p *Projector) Forward() math3d.Vec3 {
	return p.Target.Sub(p.Position).Normalize()
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (p *Projector) ViewProjectionMatrix() math3d.Mat4 {
	view := math3d.LookAt(p.Position, p.Target, p.Up)
	proj := math3d.Perspective(p.FOV, p.AspectRatio, p.Near, p.Far)
	return proj.Mul(view)
}

// StencilCoords projects a world position into a w×h stencil stretched
// over the screen. ok is false when pos is behind the camera.
func (p *Projector) StencilCoords(pos math3d.Vec3, w, h int) (x, y float64, ok bool) {
	clip := p.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(pos, 1))
	if clip.W <= 0 {
		return 0, 0, false
	}
	ndc := clip.PerspectiveDivide()

	x = (ndc.X + 1) * 0.5 * float64(w)
	y = (1 - ndc.Y) * 0.5 * float64(h) // Y is flipped
	return x, y, true
}

package brush

import (
	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/daub/pkg/math3d"
)

// Stabilizer smooths a stroke by letting the brush trail the input on a
// critically damped spring per axis.
type Stabilizer struct {
	spring harmonica.Spring
	lazy   float64
	pos    [3]float64
	vel    [3]float64
	primed bool
}

// NewStabilizer creates a stabilizer stepped fps times per second. lazy
// runs from 0 (no smoothing) to 1 (heaviest); higher values lower the
// spring frequency.
func NewStabilizer(lazy float64, fps int) *Stabilizer {
	lazy = clamp01(lazy)
	freq := 0.5 + 11.5*(1-lazy)
	return &Stabilizer{
		spring: harmonica.NewSpring(harmonica.FPS(fps), freq, 1.0),
		lazy:   lazy,
	}
}

// Update advances one step toward target and returns the brush position.
// The first update jumps straight to target.
func (s *Stabilizer) Update(target math3d.Vec3) math3d.Vec3 {
	if s.lazy == 0 {
		return target
	}
	t := [3]float64{target.X, target.Y, target.Z}
	if !s.primed {
		s.pos, s.vel, s.primed = t, [3]float64{}, true
		return target
	}
	for i := range 3 {
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], t[i])
	}
	return math3d.V3(s.pos[0], s.pos[1], s.pos[2])
}

// Reset forgets the current position.
func (s *Stabilizer) Reset() {
	s.primed = false
}

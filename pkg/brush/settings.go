// Package brush paints dabs onto the UV-mapped layers of a mesh. Each dab
// gathers the polygons it touches, rasterizes them into layer space and
// blends the brush colour, or a stamp or stencil image, into every covered
// pixel.
package brush

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/daub/pkg/math3d"
	"github.com/taigrr/daub/pkg/pixel"
)

var (
	// ErrNoLayer is returned when painting into a nil layer.
	ErrNoLayer = errors.New("no paint layer")
	// ErrNoUVs is returned when the mesh has no texture coordinates.
	ErrNoUVs = errors.New("mesh has no UVs")
	// ErrNoProjector is returned for stencil painting without a projector.
	ErrNoProjector = errors.New("stencil requires a projector")
)

// Falloff shapes dab strength from the centre to the rim.
type Falloff uint8

const (
	Constant Falloff = iota
	Linear
	Smooth
)

var falloffNames = []string{"constant", "linear", "smooth"}

func (f Falloff) String() string {
	if int(f) < len(falloffNames) {
		return falloffNames[f]
	}
	return fmt.Sprintf("falloff(%d)", f)
}

// Eval returns the falloff at distance d from the centre of a dab with
// radius r: 1 at the centre, 0 beyond the rim.
func (f Falloff) Eval(d, r float64) float64 {
	if r <= 0 || d > r {
		return 0
	}
	t := 1 - d/r
	switch f {
	case Linear:
		return t
	case Smooth:
		return t * t * (3 - 2*t)
	default:
		return 1
	}
}

// Mode selects what a dab does to the pixels it covers.
type Mode uint8

const (
	// Paint blends the brush, weighted by its falloff.
	Paint Mode = iota
	// Fill blends at full strength wherever the fill area contains the
	// surface.
	Fill
)

var modeNames = []string{"paint", "fill"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// SourceKind selects how a source image is mapped onto the surface.
type SourceKind uint8

const (
	NoSource SourceKind = iota
	// Stamp maps the image onto the dab's tangent plane.
	Stamp
	// Stencil pins the image to the screen through the projector.
	Stencil
)

var sourceNames = []string{"none", "stamp", "stencil"}

func (k SourceKind) String() string {
	if int(k) < len(sourceNames) {
		return sourceNames[k]
	}
	return fmt.Sprintf("source(%d)", k)
}

func parseEnum(kind, s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (want one of %s)", kind, s, strings.Join(names, ", "))
}

// ParseFalloff parses a falloff name.
func ParseFalloff(s string) (Falloff, error) {
	i, err := parseEnum("falloff", s, falloffNames)
	return Falloff(i), err
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	i, err := parseEnum("mode", s, modeNames)
	return Mode(i), err
}

// ParseSourceKind parses a source kind name.
func ParseSourceKind(s string) (SourceKind, error) {
	i, err := parseEnum("source", s, sourceNames)
	return SourceKind(i), err
}

// Region is a volume of world space.
type Region interface {
	Contains(p math3d.Vec3) bool
}

// Box is an axis-aligned region, bounds inclusive.
type Box struct {
	Min, Max math3d.Vec3
}

// Contains implements Region.
func (b Box) Contains(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Sphere is a ball-shaped region.
type Sphere struct {
	Center math3d.Vec3
	Radius float64
}

// Contains implements Region.
func (s Sphere) Contains(p math3d.Vec3) bool {
	return s.Center.Distance(p) <= s.Radius
}

// Settings configures a Painter.
type Settings struct {
	Radius   float64 // World units
	Strength float64 // 0..1
	Color    pixel.Color
	Falloff  Falloff
	Mode     Mode

	// Source replaces Color when SourceKind is Stamp or Stencil.
	Source           pixel.Sampler
	SourceKind       SourceKind
	UseSourceFalloff bool // Weight stamp pixels by the dab falloff; stencils always are
	TileX, TileY     bool // Wrap a stencil instead of clipping it

	Spacing float64 // Stroke dab spacing as a fraction of Radius
	Lazy    float64 // Stroke stabilization, 0 (off) to 1

	// FillArea limits Fill mode. When nil, the dab sphere is used.
	FillArea Region
}

// DefaultSettings returns a soft white brush.
func DefaultSettings() Settings {
	return Settings{
		Radius:   0.1,
		Strength: 1,
		Color:    pixel.RGB(1, 1, 1),
		Falloff:  Smooth,
		Spacing:  0.25,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// normalized returns s with its ranges enforced.
func (s Settings) normalized() Settings {
	s.Strength = clamp01(s.Strength)
	s.Lazy = clamp01(s.Lazy)
	s.Radius = math.Max(0, s.Radius)
	if s.Spacing <= 0 {
		s.Spacing = DefaultSettings().Spacing
	}
	if s.Source == nil {
		s.SourceKind = NoSource
	}
	return s
}

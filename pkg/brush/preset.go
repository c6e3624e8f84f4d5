package brush

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/daub/pkg/pixel"
)

// Preset is the TOML form of brush Settings. Zero fields keep their
// defaults.
//
//	radius = 0.2
//	strength = 0.8
//	color = [1.0, 0.2, 0.2]
//	falloff = "smooth"
//	source = "stamp"
//	source_path = "stamps/leaf.png"
type Preset struct {
	Radius           float64   `toml:"radius"`
	Strength         *float64  `toml:"strength"`
	Color            []float32 `toml:"color"`
	Falloff          string    `toml:"falloff"`
	Mode             string    `toml:"mode"`
	Source           string    `toml:"source"`
	SourcePath       string    `toml:"source_path"`
	StampSize        int       `toml:"stamp_size"` // Resample the source to this edge length
	UseSourceFalloff bool      `toml:"use_source_falloff"`
	TileX            bool      `toml:"tile_x"`
	TileY            bool      `toml:"tile_y"`
	Spacing          float64   `toml:"spacing"`
	Lazy             float64   `toml:"lazy"`

	dir string // Resolves a relative SourcePath
}

// ParsePreset decodes a TOML preset. Unknown keys are rejected.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	return &p, nil
}

// LoadPreset reads a TOML preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	p, err := ParsePreset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Settings validates the preset and converts it, loading the source image
// if one is named.
func (p *Preset) Settings() (Settings, error) {
	s := DefaultSettings()
	if p.Radius < 0 {
		return s, fmt.Errorf("radius %v is negative", p.Radius)
	}
	if p.Radius > 0 {
		s.Radius = p.Radius
	}
	if p.Strength != nil {
		s.Strength = clamp01(*p.Strength)
	}
	if p.Spacing > 0 {
		s.Spacing = p.Spacing
	}
	s.Lazy = clamp01(p.Lazy)
	s.UseSourceFalloff = p.UseSourceFalloff
	s.TileX, s.TileY = p.TileX, p.TileY

	switch len(p.Color) {
	case 0:
	case 3:
		s.Color = pixel.RGB(p.Color[0], p.Color[1], p.Color[2])
	case 4:
		s.Color = pixel.Color{R: p.Color[0], G: p.Color[1], B: p.Color[2], A: p.Color[3]}
	default:
		return s, fmt.Errorf("color needs 3 or 4 components, got %d", len(p.Color))
	}

	var err error
	if p.Falloff != "" {
		if s.Falloff, err = ParseFalloff(p.Falloff); err != nil {
			return s, err
		}
	}
	if p.Mode != "" {
		if s.Mode, err = ParseMode(p.Mode); err != nil {
			return s, err
		}
	}
	if p.Source != "" {
		if s.SourceKind, err = ParseSourceKind(p.Source); err != nil {
			return s, err
		}
	}

	if s.SourceKind == NoSource {
		return s, nil
	}
	if p.SourcePath == "" {
		return s, fmt.Errorf("source %q needs source_path", s.SourceKind)
	}
	if s.Source, err = p.loadSource(); err != nil {
		return s, err
	}
	return s, nil
}

func (p *Preset) loadSource() (pixel.Sampler, error) {
	path := p.SourcePath
	if !filepath.IsAbs(path) && p.dir != "" {
		path = filepath.Join(p.dir, path)
	}
	img, err := pixel.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	if p.StampSize > 0 {
		img = pixel.Resize(img, p.StampSize, p.StampSize)
	}
	bmp, err := pixel.FromImage(img, pixel.RGBA32F)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	return bmp, nil
}

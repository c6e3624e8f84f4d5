package brush

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/daub/pkg/pixel"
)

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset([]byte(`
radius = 0.25
strength = 1.5
color = [1.0, 0.5, 0.0]
falloff = "linear"
mode = "fill"
spacing = 0.5
lazy = 0.3
tile_x = true
`))
	require.NoError(t, err)

	s, err := p.Settings()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, s.Radius, 1e-12)
	assert.InDelta(t, 1, s.Strength, 1e-12, "strength is clamped")
	assert.Equal(t, pixel.RGB(1, 0.5, 0), s.Color)
	assert.Equal(t, Linear, s.Falloff)
	assert.Equal(t, Fill, s.Mode)
	assert.InDelta(t, 0.5, s.Spacing, 1e-12)
	assert.InDelta(t, 0.3, s.Lazy, 1e-12)
	assert.True(t, s.TileX)
	assert.False(t, s.TileY)
	assert.Equal(t, NoSource, s.SourceKind)
}

func TestPresetDefaults(t *testing.T) {
	p, err := ParsePreset(nil)
	require.NoError(t, err)
	s, err := p.Settings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	zero := 0.0
	p.Strength = &zero
	s, err = p.Settings()
	require.NoError(t, err)
	assert.Zero(t, s.Strength)
}

func TestPresetErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"unknown key", `size = 3`},
		{"bad falloff", `falloff = "spiky"`},
		{"bad mode", `mode = "smear"`},
		{"bad source", `source = "video"`},
		{"short color", `color = [1.0, 0.0]`},
		{"negative radius", `radius = -1.0`},
		{"source without path", `source = "stamp"`},
		{"missing source file", "source = \"stamp\"\nsource_path = \"/nonexistent/stamp.png\""},
		{"not toml", `radius = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePreset([]byte(tt.toml))
			if err == nil {
				_, err = p.Settings()
			}
			assert.Error(t, err)
		})
	}
}

func TestLoadPresetWithStamp(t *testing.T) {
	dir := t.TempDir()
	stamp, err := pixel.NewBitmap(4, 4, pixel.RGBA8)
	require.NoError(t, err)
	stamp.Fill(pixel.RGB(0, 1, 0))
	require.NoError(t, stamp.SavePNG(filepath.Join(dir, "stamp.png")))

	path := filepath.Join(dir, "leaf.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
source = "stamp"
source_path = "stamp.png"
stamp_size = 16
use_source_falloff = true
`), 0o644))

	p, err := LoadPreset(path)
	require.NoError(t, err)
	s, err := p.Settings()
	require.NoError(t, err)

	assert.Equal(t, Stamp, s.SourceKind)
	assert.True(t, s.UseSourceFalloff)
	require.NotNil(t, s.Source)
	assert.Equal(t, 16, s.Source.Bounds().Dx())
	assert.InDelta(t, 1, s.Source.ColorAt(8, 8).G, 1e-2)

	_, err = LoadPreset(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/daub/pkg/math3d"
	"github.com/taigrr/daub/pkg/models"
	"github.com/taigrr/daub/pkg/pixel"
)

func TestParseRGB(t *testing.T) {
	tests := []struct {
		in      string
		want    pixel.Color
		wantErr bool
	}{
		{"255,0,0", pixel.RGB(1, 0, 0), false},
		{" 0, 255 , 0", pixel.RGB(0, 1, 0), false},
		{"1,2", pixel.Color{}, true},
		{"1,2,300", pixel.Color{}, true},
		{"a,b,c", pixel.Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRGB(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePath(t *testing.T) {
	path, err := parsePath("0,0,1; 1.5,-2,1;")
	require.NoError(t, err)
	assert.Equal(t, []math3d.Vec3{math3d.V3(0, 0, 1), math3d.V3(1.5, -2, 1)}, path)

	for _, bad := range []string{"", ";", "1,2", "1,2,x"} {
		_, err := parsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestDefaultStroke(t *testing.T) {
	path := defaultStroke(models.NewCube(2))
	require.Len(t, path, 2)
	assert.InDelta(t, -0.8, path[0].X, 1e-9)
	assert.InDelta(t, 0.8, path[0].Y, 1e-9)
	assert.InDelta(t, 1, path[0].Z, 1e-9)
	assert.InDelta(t, 0.8, path[1].X, 1e-9)
	assert.InDelta(t, -0.8, path[1].Y, 1e-9)
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taigrr/daub/pkg/math3d"
	"github.com/taigrr/daub/pkg/models"
	"github.com/taigrr/daub/pkg/pixel"
)

// parseRGB parses "R,G,B" with components in 0-255.
func parseRGB(s string) (pixel.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return pixel.Color{}, fmt.Errorf("want R,G,B, got %q", s)
	}
	var c [3]float32
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return pixel.Color{}, fmt.Errorf("component %d: %w", i+1, err)
		}
		if v < 0 || v > 255 {
			return pixel.Color{}, fmt.Errorf("component %d out of range: %d", i+1, v)
		}
		c[i] = float32(v) / 255
	}
	return pixel.RGB(c[0], c[1], c[2]), nil
}

// parsePath parses "x,y,z;x,y,z;..." into world-space points.
func parsePath(s string) ([]math3d.Vec3, error) {
	var path []math3d.Vec3
	for i, pt := range strings.Split(s, ";") {
		pt = strings.TrimSpace(pt)
		if pt == "" {
			continue
		}
		parts := strings.Split(pt, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("point %d: want x,y,z, got %q", i+1, pt)
		}
		var v [3]float64
		for j, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i+1, err)
			}
			v[j] = f
		}
		path = append(path, math3d.V3(v[0], v[1], v[2]))
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("empty stroke path")
	}
	return path, nil
}

// defaultStroke runs diagonally across the front (+Z) of the mesh bounds,
// from top left to bottom right.
func defaultStroke(m *models.Mesh) []math3d.Vec3 {
	lo, hi := m.BoundsMin, m.BoundsMax
	c := m.Center()
	inset := 0.8
	return []math3d.Vec3{
		math3d.V3(c.X+(lo.X-c.X)*inset, c.Y+(hi.Y-c.Y)*inset, hi.Z),
		math3d.V3(c.X+(hi.X-c.X)*inset, c.Y+(lo.Y-c.Y)*inset, hi.Z),
	}
}

// Package preview draws paint layers into terminal cells with half-block
// characters, two pixels per cell.
package preview

import (
	"image"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/chewxy/math32"

	"github.com/taigrr/daub/pkg/pixel"
)

// CellSetter is the part of a terminal screen Draw needs. uv.Screen
// satisfies it.
type CellSetter interface {
	SetCell(x, y int, c *uv.Cell)
}

// Draw renders src into area, given in cells. The image is resampled
// (nearest) to area.Dx() columns and 2*area.Dy() rows; each cell is an
// upper half block with the top pixel as foreground and the bottom pixel
// as background.
func Draw(dst CellSetter, src pixel.Sampler, area image.Rectangle) {
	b := src.Bounds()
	cols, rows := area.Dx(), area.Dy()*2
	if cols <= 0 || rows <= 0 || b.Empty() {
		return
	}

	at := func(col, row int) color.Color {
		x := b.Min.X + col*b.Dx()/cols
		y := b.Min.Y + row*b.Dy()/rows
		return toColor(src.ColorAt(x, y))
	}

	for cy := range area.Dy() {
		for cx := range cols {
			dst.SetCell(area.Min.X+cx, area.Min.Y+cy, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: at(cx, cy*2),
					Bg: at(cx, cy*2+1),
				},
			})
		}
	}
}

// toColor converts a pixel colour for the terminal; fully transparent
// pixels become nil so the terminal background shows through.
func toColor(c pixel.Color) color.Color {
	if c.A <= 0 {
		return nil
	}
	to8 := func(v float32) uint8 {
		return uint8(math32.Max(0, math32.Min(1, v))*255 + 0.5)
	}
	return color.NRGBA{to8(c.R), to8(c.G), to8(c.B), to8(c.A)}
}

// Fit returns the largest area of at most cols×rows cells, anchored at the
// origin, that shows an image of size w×h without distortion. Cells are
// taken to be one pixel wide and two tall.
func Fit(w, h, cols, rows int) image.Rectangle {
	if w <= 0 || h <= 0 || cols <= 0 || rows <= 0 {
		return image.Rectangle{}
	}
	c := cols
	r := (c*h/w + 1) / 2
	if r > rows {
		r = rows
		c = max(1, 2*r*w/h)
	}
	return image.Rect(0, 0, c, max(1, r))
}

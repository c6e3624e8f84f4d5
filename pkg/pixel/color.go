package pixel

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// Color is a straight (non-premultiplied) colour with channels in 0..1.
type Color struct {
	R, G, B, A float32
}

// RGB creates an opaque colour.
func RGB(r, g, b float32) Color {
	return Color{r, g, b, 1}
}

// Luma returns the Rec. 601 luminance of c.
func (c Color) Luma() float32 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// codec reads and writes one channel of a given depth in native units:
// 0..255, 0..65535, or a float.
type codec struct {
	size  int
	scale float32 // Native value of a full channel
	get   func(b []byte) float32
	put   func(b []byte, v float32)
}

var codecs = map[int]codec{
	8: {
		size:  1,
		scale: 255,
		get:   func(b []byte) float32 { return float32(b[0]) },
		put:   func(b []byte, v float32) { b[0] = uint8(clamp(v, 0, 255) + 0.5) },
	},
	16: {
		size:  2,
		scale: 65535,
		get:   func(b []byte) float32 { return float32(binary.LittleEndian.Uint16(b)) },
		put: func(b []byte, v float32) {
			binary.LittleEndian.PutUint16(b, uint16(clamp(v, 0, 65535)+0.5))
		},
	},
	32: {
		size:  4,
		scale: 1,
		get:   func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) },
		put:   func(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) },
	},
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// channelValues lists the normalized channel values of c in f's layout.
func channelValues(f Format, c Color) []float32 {
	i := f.info()
	var vals []float32
	switch i.layout {
	case layoutAlpha:
		return []float32{c.A}
	case layoutGray:
		vals = []float32{c.Luma()}
	case layoutRGB:
		vals = []float32{c.R, c.G, c.B}
	default:
		return nil
	}
	if i.alpha {
		vals = append(vals, c.A)
	}
	return vals
}

// Encode writes c into dst in format f. dst must hold at least
// f.BytesPerPixel() bytes. Unsupported formats leave dst untouched.
func Encode(f Format, c Color, dst []byte) {
	cd, ok := codecs[f.Depth()]
	if !ok || !f.Supported() {
		return
	}
	for ch, v := range channelValues(f, c) {
		cd.put(dst[ch*cd.size:], v*cd.scale)
	}
}

// Decode reads one pixel of format f from src. Gray formats expand to equal
// R, G and B; formats without alpha decode as opaque.
func Decode(f Format, src []byte) Color {
	cd, ok := codecs[f.Depth()]
	if !ok || !f.Supported() {
		return Color{}
	}
	ch := func(n int) float32 { return cd.get(src[n*cd.size:]) / cd.scale }

	i := f.info()
	c := Color{A: 1}
	switch i.layout {
	case layoutAlpha:
		c.A = ch(0)
		return c
	case layoutGray:
		c.R = ch(0)
		c.G, c.B = c.R, c.R
	case layoutRGB:
		c.R, c.G, c.B = ch(0), ch(1), ch(2)
	}
	if i.alpha {
		c.A = ch(i.channels - 1)
	}
	return c
}

// Blend mixes one pixel of src into dst, both in format f, channel by
// channel: dst = dst*(1-falloff) + src*falloff. A falloff of zero or less
// leaves dst unchanged; falloff is capped at one.
func Blend(f Format, dst, src []byte, falloff float32) {
	if falloff <= 0 || !f.Supported() {
		return
	}
	cd := codecs[f.Depth()]
	falloff = math32.Min(falloff, 1)
	keep := 1 - falloff

	for off := 0; off < f.BytesPerPixel(); off += cd.size {
		d := dst[off:]
		cd.put(d, cd.get(d)*keep+cd.get(src[off:])*falloff)
	}
}

// Package pixel provides the paint-layer bitmaps, their pixel formats and
// the blend routine the brush applies per fragment.
package pixel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for formats that cannot be painted.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	// ErrOutOfBounds is returned when a row access leaves the bitmap.
	ErrOutOfBounds = errors.New("pixel access out of bounds")
	// ErrBufferSize is returned when a row buffer is too small.
	ErrBufferSize = errors.New("pixel buffer too small")
)

// Format identifies the channel layout and bit depth of a bitmap.
type Format uint8

const (
	Alpha8 Format = iota
	Gray8
	GrayA8
	RGB8
	RGBA8
	Gray16
	GrayA16
	RGB16
	RGBA16
	Gray32F
	GrayA32F
	RGB32F
	RGBA32F
	CMYK8 // Recognised but not paintable
	Mask8 // Recognised but not paintable
	formatCount
)

// layout describes how a colour maps onto a format's channels.
type layout uint8

const (
	layoutAlpha layout = iota
	layoutGray
	layoutRGB
	layoutCMYK
	layoutMask
)

type formatInfo struct {
	name      string
	layout    layout
	alpha     bool // Trailing alpha channel
	channels  int
	depth     int // Bits per channel
	supported bool
}

var formats = [formatCount]formatInfo{
	Alpha8:   {"alpha8", layoutAlpha, false, 1, 8, true},
	Gray8:    {"gray8", layoutGray, false, 1, 8, true},
	GrayA8:   {"graya8", layoutGray, true, 2, 8, true},
	RGB8:     {"rgb8", layoutRGB, false, 3, 8, true},
	RGBA8:    {"rgba8", layoutRGB, true, 4, 8, true},
	Gray16:   {"gray16", layoutGray, false, 1, 16, true},
	GrayA16:  {"graya16", layoutGray, true, 2, 16, true},
	RGB16:    {"rgb16", layoutRGB, false, 3, 16, true},
	RGBA16:   {"rgba16", layoutRGB, true, 4, 16, true},
	Gray32F:  {"gray32f", layoutGray, false, 1, 32, true},
	GrayA32F: {"graya32f", layoutGray, true, 2, 32, true},
	RGB32F:   {"rgb32f", layoutRGB, false, 3, 32, true},
	RGBA32F:  {"rgba32f", layoutRGB, true, 4, 32, true},
	CMYK8:    {"cmyk8", layoutCMYK, false, 4, 8, false},
	Mask8:    {"mask8", layoutMask, false, 1, 8, false},
}

func (f Format) info() formatInfo {
	if f >= formatCount {
		return formatInfo{name: fmt.Sprintf("format(%d)", f)}
	}
	return formats[f]
}

// String returns the lower-case format name, e.g. "rgba8".
func (f Format) String() string { return f.info().name }

// Channels returns the number of channels per pixel.
func (f Format) Channels() int { return f.info().channels }

// Depth returns the bits per channel: 8, 16 or 32 (float).
func (f Format) Depth() int { return f.info().depth }

// BytesPerPixel returns the size of one pixel in bytes.
func (f Format) BytesPerPixel() int { return f.Channels() * f.Depth() / 8 }

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	i := f.info()
	return i.alpha || i.layout == layoutAlpha
}

// Supported reports whether the brush can paint into this format.
func (f Format) Supported() bool { return f.info().supported }

// ParseFormat returns the format with the given name (case-insensitive).
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f := range formatCount {
		if formats[f].name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("parse format %q: %w", name, ErrUnsupportedFormat)
}

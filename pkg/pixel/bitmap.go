package pixel

import (
	"fmt"
	"image"
)

// PixelSink is the row-level access the brush needs from a paint target.
type PixelSink interface {
	Bounds() image.Rectangle
	PixelFormat() Format
	ReadRow(x, y, n int, dst []byte) error
	WriteRow(x, y, n int, src []byte) error
}

// Sampler is a read-only colour source, such as a stamp or stencil image.
type Sampler interface {
	Bounds() image.Rectangle
	ColorAt(x, y int) Color
}

// Bitmap is a row-major pixel buffer in one of the supported formats.
type Bitmap struct {
	Width  int
	Height int
	Format Format
	Stride int    // Bytes per row
	Pix    []byte // Row-major pixel data
}

var (
	_ PixelSink = (*Bitmap)(nil)
	_ Sampler   = (*Bitmap)(nil)
)

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(width, height int, f Format) (*Bitmap, error) {
	if !f.Supported() {
		return nil, fmt.Errorf("new bitmap %s: %w", f, ErrUnsupportedFormat)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("new bitmap %dx%d: %w", width, height, ErrOutOfBounds)
	}
	stride := width * f.BytesPerPixel()
	return &Bitmap{
		Width:  width,
		Height: height,
		Format: f,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}, nil
}

// Bounds returns the bitmap rectangle, anchored at the origin.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// PixelFormat returns the bitmap's format.
func (b *Bitmap) PixelFormat() Format { return b.Format }

// PixOffset returns the index of the first byte of pixel (x, y).
func (b *Bitmap) PixOffset(x, y int) int {
	return y*b.Stride + x*b.Format.BytesPerPixel()
}

func (b *Bitmap) checkRow(x, y, n, buf int) error {
	if n < 0 || y < 0 || y >= b.Height || x < 0 || x+n > b.Width {
		return fmt.Errorf("row y=%d x=%d n=%d: %w", y, x, n, ErrOutOfBounds)
	}
	if need := n * b.Format.BytesPerPixel(); buf < need {
		return fmt.Errorf("row y=%d: need %d bytes, have %d: %w", y, need, buf, ErrBufferSize)
	}
	return nil
}

// ReadRow copies n pixels starting at (x, y) into dst.
func (b *Bitmap) ReadRow(x, y, n int, dst []byte) error {
	if err := b.checkRow(x, y, n, len(dst)); err != nil {
		return fmt.Errorf("read %w", err)
	}
	off := b.PixOffset(x, y)
	copy(dst, b.Pix[off:off+n*b.Format.BytesPerPixel()])
	return nil
}

// WriteRow copies n pixels from src into the bitmap starting at (x, y).
func (b *Bitmap) WriteRow(x, y, n int, src []byte) error {
	if err := b.checkRow(x, y, n, len(src)); err != nil {
		return fmt.Errorf("write %w", err)
	}
	off := b.PixOffset(x, y)
	copy(b.Pix[off:], src[:n*b.Format.BytesPerPixel()])
	return nil
}

// ColorAt returns the colour at (x, y), or transparent black outside the
// bitmap.
func (b *Bitmap) ColorAt(x, y int) Color {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return Color{}
	}
	return Decode(b.Format, b.Pix[b.PixOffset(x, y):])
}

// SetColor sets the pixel at (x, y). Bounds checking is performed.
func (b *Bitmap) SetColor(x, y int, c Color) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	Encode(b.Format, c, b.Pix[b.PixOffset(x, y):])
}

// Fill sets every pixel to c.
func (b *Bitmap) Fill(c Color) {
	bpp := b.Format.BytesPerPixel()
	if b.Width == 0 || b.Height == 0 {
		return
	}
	px := make([]byte, bpp)
	Encode(b.Format, c, px)

	row := b.Pix[:b.Width*bpp]
	for x := 0; x < len(row); x += bpp {
		copy(row[x:], px)
	}
	for y := 1; y < b.Height; y++ {
		copy(b.Pix[y*b.Stride:], row)
	}
}

// Clone returns a deep copy of b.
func (b *Bitmap) Clone() *Bitmap {
	c := *b
	c.Pix = append([]byte(nil), b.Pix...)
	return &c
}

// CopyRect returns the pixels of r clipped to the bitmap, row by row with
// no padding, together with the clipped rectangle.
func (b *Bitmap) CopyRect(r image.Rectangle) ([]byte, image.Rectangle) {
	r = r.Intersect(b.Bounds())
	if r.Empty() {
		return nil, r
	}
	rowLen := r.Dx() * b.Format.BytesPerPixel()
	out := make([]byte, 0, rowLen*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := b.PixOffset(r.Min.X, y)
		out = append(out, b.Pix[off:off+rowLen]...)
	}
	return out, r
}

// PasteRect writes data, as produced by CopyRect, back into r.
func (b *Bitmap) PasteRect(r image.Rectangle, data []byte) error {
	if !r.In(b.Bounds()) {
		return fmt.Errorf("paste rect %v: %w", r, ErrOutOfBounds)
	}
	rowLen := r.Dx() * b.Format.BytesPerPixel()
	if len(data) < rowLen*r.Dy() {
		return fmt.Errorf("paste rect %v: %w", r, ErrBufferSize)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := (y - r.Min.Y) * rowLen
		copy(b.Pix[b.PixOffset(r.Min.X, y):], data[i:i+rowLen])
	}
	return nil
}

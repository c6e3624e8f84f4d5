package pixel

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// FromImage converts img into a new bitmap of format f.
func FromImage(img image.Image, f Format) (*Bitmap, error) {
	bounds := img.Bounds()
	bmp, err := NewBitmap(bounds.Dx(), bounds.Dy(), f)
	if err != nil {
		return nil, err
	}

	for y := range bmp.Height {
		for x := range bmp.Width {
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			bmp.SetColor(x, y, Color{
				R: float32(c.R) / 0xffff,
				G: float32(c.G) / 0xffff,
				B: float32(c.B) / 0xffff,
				A: float32(c.A) / 0xffff,
			})
		}
	}
	return bmp, nil
}

func to8(v float32) uint8   { return uint8(clamp(v, 0, 1)*0xff + 0.5) }
func to16(v float32) uint16 { return uint16(clamp(v, 0, 1)*0xffff + 0.5) }

// ToImage converts the bitmap to a standard Go image. Opaque gray formats
// give *image.Gray or *image.Gray16, 8-bit formats give *image.NRGBA and
// deeper formats give *image.NRGBA64.
func (b *Bitmap) ToImage() image.Image {
	rect := b.Bounds()
	gray := b.Format.info().layout == layoutGray && !b.Format.HasAlpha()

	switch {
	case gray && b.Format.Depth() == 8:
		img := image.NewGray(rect)
		for y := range b.Height {
			for x := range b.Width {
				img.SetGray(x, y, color.Gray{Y: to8(b.ColorAt(x, y).R)})
			}
		}
		return img
	case gray:
		img := image.NewGray16(rect)
		for y := range b.Height {
			for x := range b.Width {
				img.SetGray16(x, y, color.Gray16{Y: to16(b.ColorAt(x, y).R)})
			}
		}
		return img
	case b.Format.Depth() == 8:
		img := image.NewNRGBA(rect)
		for y := range b.Height {
			for x := range b.Width {
				c := b.ColorAt(x, y)
				img.SetNRGBA(x, y, color.NRGBA{to8(c.R), to8(c.G), to8(c.B), to8(c.A)})
			}
		}
		return img
	default:
		img := image.NewNRGBA64(rect)
		for y := range b.Height {
			for x := range b.Width {
				c := b.ColorAt(x, y)
				img.SetNRGBA64(x, y, color.NRGBA64{to16(c.R), to16(c.G), to16(c.B), to16(c.A)})
			}
		}
		return img
	}
}

// Resize scales img to w×h with bilinear filtering.
func Resize(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes the bitmap as a PNG file.
func (b *Bitmap) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, b.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

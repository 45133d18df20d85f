package codec

import (
	"image"

	"golang.org/x/image/draw"
)

// Converter scales and converts arbitrary images into an RGBA image of a
// fixed size. The destination is reused, so each result is only valid until
// the next Convert.
type Converter struct {
	dst    *image.RGBA
	scaler draw.Scaler
}

// NewConverter creates a Converter producing width x height images.
func NewConverter(width, height int) *Converter {
	return &Converter{
		dst:    image.NewRGBA(image.Rect(0, 0, width, height)),
		scaler: draw.ApproxBiLinear,
	}
}

// Size returns the output dimensions.
func (c *Converter) Size() (int, int) {
	b := c.dst.Bounds()
	return b.Dx(), b.Dy()
}

// Convert returns src as an RGBA image of the converter's size. An RGBA
// source that already matches is returned as is.
func (c *Converter) Convert(src image.Image) *image.RGBA {
	sb := src.Bounds()
	db := c.dst.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && sb == db {
		return rgba
	}
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		draw.Draw(c.dst, db, src, sb.Min, draw.Src)
		return c.dst
	}
	c.scaler.Scale(c.dst, db, src, sb, draw.Src, nil)
	return c.dst
}

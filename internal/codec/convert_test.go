package codec

import (
	"image"
	"image/color"
	"testing"
)

func TestConverterPassthrough(t *testing.T) {
	t.Parallel()
	c := NewConverter(4, 4)
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if got := c.Convert(src); got != src {
		t.Error("matching RGBA source should be returned unchanged")
	}
}

func TestConverterScales(t *testing.T) {
	t.Parallel()
	c := NewConverter(4, 2)
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 255, 255
	}

	got := c.Convert(src)
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 4x2", b)
	}
	if px := got.RGBAAt(1, 1); px.R < 250 || px.G != 0 || px.B != 0 || px.A < 250 {
		t.Errorf("pixel = %v, want opaque red", px)
	}
	if w, h := c.Size(); w != 4 || h != 2 {
		t.Errorf("Size = %dx%d, want 4x2", w, h)
	}
}

func TestConverterConvertsColorModel(t *testing.T) {
	t.Parallel()
	c := NewConverter(2, 2)
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(0, 0, color.Gray{Y: 128})

	got := c.Convert(src)
	if px := got.RGBAAt(0, 0); px != (color.RGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Errorf("pixel = %v, want gray 128", px)
	}
}

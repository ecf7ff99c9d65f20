package imaging

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

const (
	// Ink is the bitmap value of a dark (marked) pixel.
	Ink uint8 = 255

	// Paper is the bitmap value of a light pixel.
	Paper uint8 = 0

	// darkLevel is the value above which a bitmap pixel counts as dark.
	darkLevel uint8 = 100
)

// Bitmap is a binarized single-channel scan where dark pixels hold Ink
// and light pixels hold Paper.
//
// All accessors are bounds-checked against the bitmap extent: reads
// outside the bitmap return Paper and writes outside it are ignored. The
// origin is always (0,0) regardless of the source image bounds.
type Bitmap struct {
	gray *image.Gray
}

// NewBitmap returns an all-paper bitmap of the given size.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{gray: image.NewGray(image.Rect(0, 0, width, height))}
}

// BitmapFromGray wraps g, rebased to a (0,0) origin. The pixels are
// copied so that the bitmap owns its buffer.
func BitmapFromGray(g *image.Gray) *Bitmap {
	return &Bitmap{gray: toGray(g)}
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int {
	return b.gray.Rect.Dx()
}

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int {
	return b.gray.Rect.Dy()
}

// Bounds returns the bitmap rectangle, always anchored at (0,0).
func (b *Bitmap) Bounds() image.Rectangle {
	return b.gray.Rect
}

// Contains reports whether (x, y) lies inside the bitmap.
func (b *Bitmap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width() && y < b.Height()
}

// At returns the raw value at (x, y), or Paper outside the bitmap.
func (b *Bitmap) At(x, y int) uint8 {
	if !b.Contains(x, y) {
		return Paper
	}
	return b.gray.Pix[y*b.gray.Stride+x]
}

// Set stores v at (x, y). Writes outside the bitmap are ignored.
func (b *Bitmap) Set(x, y int, v uint8) {
	if !b.Contains(x, y) {
		return
	}
	b.gray.Pix[y*b.gray.Stride+x] = v
}

// Dark reports whether the pixel at (x, y) is dark.
func (b *Bitmap) Dark(x, y int) bool {
	return b.At(x, y) > darkLevel
}

// FillRect sets every pixel of r (clipped to the bitmap) to v.
func (b *Bitmap) FillRect(r image.Rectangle, v uint8) {
	r = r.Intersect(b.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.gray.Pix[y*b.gray.Stride+x] = v
		}
	}
}

// Clone returns an independent copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	return BitmapFromGray(b.gray)
}

// Sub returns a copy of the region r of the bitmap, clipped to its
// bounds and rebased to (0,0).
func (b *Bitmap) Sub(r image.Rectangle) *Bitmap {
	return BitmapFromGray(b.gray.SubImage(r.Intersect(b.Bounds())).(*image.Gray))
}

// Paste copies src into the bitmap with the origin of src at at. Pixels
// falling outside the bitmap are dropped.
func (b *Bitmap) Paste(src *Bitmap, at image.Point) {
	r := src.Bounds().Add(at).Intersect(b.Bounds())
	draw.Draw(b.gray, r, src.gray, r.Min.Sub(at), draw.Src)
}

// Rotate180 turns the bitmap upside down in place, so that the pixel at
// (x, y) moves to (W-1-x, H-1-y).
func (b *Bitmap) Rotate180() {
	b.gray = toGray(imaging.Rotate180(b.gray))
}

// Gray exposes the underlying image, for encoding and drawing.
func (b *Bitmap) Gray() *image.Gray {
	return b.gray
}

// Image renders the bitmap the way it would be printed: ink black on a
// white background.
func (b *Bitmap) Image() *image.Gray {
	out := image.NewGray(b.gray.Rect)
	for i, v := range b.gray.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// toGray converts any image to a *image.Gray anchored at (0,0).
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < bounds.Dy(); y++ {
			copy(out.Pix[y*out.Stride:], g.Pix[y*g.Stride:y*g.Stride+bounds.Dx()])
		}
		return out
	}
	draw.Draw(out, out.Rect, img, bounds.Min, draw.Src)
	return out
}

package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Report palette.
var (
	Blue  = mustHex("#2645df")
	Rose  = mustHex("#df26cb")
	Green = mustHex("#3cc67f")
	Red   = mustHex("#c11d1b")
	White = mustHex("#ffffff")
)

func mustHex(s string) color.NRGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("imaging: bad palette color %q: %v", s, err))
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// RandomColor returns a bright, saturated color, used to tell components
// apart on a report.
func RandomColor() color.NRGBA {
	r, g, b := colorful.FastHappyColor().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Overlay is a color image on which detection and measurement results are
// drawn. Drawing outside the image is clipped.
type Overlay struct {
	img *image.NRGBA
}

// NewOverlay returns an overlay holding a copy of img.
func NewOverlay(img image.Image) *Overlay {
	return &Overlay{img: imaging.Clone(img)}
}

// NewBlankOverlay returns a black overlay of the given size.
func NewBlankOverlay(width, height int) *Overlay {
	return &Overlay{img: imaging.New(width, height, color.NRGBA{A: 255})}
}

// Image returns the overlay pixels.
func (o *Overlay) Image() *image.NRGBA {
	return o.img
}

// Bounds returns the overlay rectangle.
func (o *Overlay) Bounds() image.Rectangle {
	return o.img.Bounds()
}

// SetPixel paints a single pixel.
func (o *Overlay) SetPixel(x, y int, c color.Color) {
	if !image.Pt(x, y).In(o.img.Rect) {
		return
	}
	o.img.Set(x, y, c)
}

// DrawLine draws a one pixel wide segment from p to q (Bresenham).
func (o *Overlay) DrawLine(p, q image.Point, c color.Color) {
	dx, dy := abs(q.X-p.X), -abs(q.Y-p.Y)
	sx, sy := 1, 1
	if p.X > q.X {
		sx = -1
	}
	if p.Y > q.Y {
		sy = -1
	}
	e := dx + dy
	x, y := p.X, p.Y
	for {
		o.SetPixel(x, y, c)
		if x == q.X && y == q.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// DrawPolygon draws the closed outline through pts.
func (o *Overlay) DrawPolygon(pts []image.Point, c color.Color) {
	for i := range pts {
		o.DrawLine(pts[i], pts[(i+1)%len(pts)], c)
	}
}

// DrawRect draws the outline of r, Max inclusive.
func (o *Overlay) DrawRect(r image.Rectangle, c color.Color) {
	o.DrawPolygon([]image.Point{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}, c)
}

// Annotate writes text with its baseline starting at (x, y). height is the
// line height in pixels; the 7x13 face is scaled to it.
func (o *Overlay) Annotate(text string, x, y int, height float64, c color.Color) {
	face := basicfont.Face7x13
	m := face.Metrics()
	ascent, lineHeight := m.Ascent.Ceil(), m.Ascent.Ceil()+m.Descent.Ceil()

	d := &font.Drawer{Src: image.NewUniform(c), Face: face}
	w := d.MeasureString(text).Ceil()
	if w <= 0 {
		return
	}
	glyphs := image.NewNRGBA(image.Rect(0, 0, w, lineHeight))
	d.Dst = glyphs
	d.Dot = fixed.P(0, ascent)
	d.DrawString(text)

	scale := 1.0
	if height > 0 {
		scale = height / float64(lineHeight)
	}
	var src image.Image = glyphs
	if scale != 1 {
		sw := max(1, int(float64(w)*scale+0.5))
		sh := max(1, int(float64(lineHeight)*scale+0.5))
		src = imaging.Resize(glyphs, sw, sh, imaging.Linear)
	}

	top := y - int(float64(ascent)*scale+0.5)
	r := src.Bounds().Add(image.Pt(x, top))
	draw.Draw(o.img, r, src, src.Bounds().Min, draw.Over)
}

// Rotate180 turns the overlay upside down.
func (o *Overlay) Rotate180() {
	o.img = imaging.Rotate180(o.img)
}

// Save writes the overlay to path, the format being chosen from the file
// extension.
func (o *Overlay) Save(path string) error {
	return SaveImage(o.img, path)
}

// OverlayFromBitmap renders a bitmap, ink black on white, as an overlay.
func OverlayFromBitmap(b *Bitmap) *Overlay {
	out := image.NewNRGBA(b.Bounds())
	draw.Draw(out, out.Rect, b.Image(), image.Point{}, draw.Src)
	return &Overlay{img: out}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package imaging

import (
	"github.com/anthonynsimon/bild/effect"
)

// Close removes holes in ink regions narrower than about the given radius:
// a dilation of the ink followed by an erosion, both with a square of side
// 2*radius+1. The bitmap is modified in place.
//
// The cost grows with the bitmap area times the square's area; the
// detector runs it on small windows around mark candidates only.
func (b *Bitmap) Close(radius int) {
	if radius <= 0 {
		return
	}
	r := float64(radius)
	b.gray = toGray(effect.Erode(effect.Dilate(b.gray, r), r))
}

// Open removes ink specks smaller than about the given radius: an erosion
// followed by a dilation. The bitmap is modified in place.
func (b *Bitmap) Open(radius int) {
	if radius <= 0 {
		return
	}
	r := float64(radius)
	b.gray = toGray(effect.Dilate(effect.Erode(b.gray, r), r))
}

package sampler

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
)

// ErrProp is returned when the shrink proportion is not in (0, 1].
var ErrProp = errors.New("sampler: proportion must be in (0, 1]")

// Visitor is called for every sampled pixel.
type Visitor func(x, y int, dark bool)

// Measurement is the darkness of one box.
type Measurement struct {
	// Dark is the number of sampled dark pixels, Total the number of
	// sampled pixels.
	Dark  int
	Total int

	// Footprint is the box in scan pixels before shrinking; Corners after.
	Footprint [4]geometry.Point
	Corners   [4]geometry.Point

	// Rect is the scanned pixel rectangle, clamped to the bitmap, Max
	// exclusive.
	Rect image.Rectangle
}

// Ratio returns Dark/Total, or 0 when nothing was sampled.
func (m Measurement) Ratio() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Dark) / float64(m.Total)
}

// Measure counts the dark pixels of bm inside box, after shrinking the box
// toward its center so that only the proportion prop of each dimension is
// kept.
//
// # Shrinking
//
// With delta = (1-prop)/2, opposite corners 0 and 2, then 1 and 3, move
// toward each other by delta of their distance, each axis separately. For
// a LayoutBounds the layout rectangle shrinks the same way.
//
// # Sampling
//
// Every pixel of the shrunk corners' bounding rectangle (clamped to the
// bitmap) is tested: a ScanQuad against the half planes of its edges, a
// LayoutBounds by mapping the pixel back to layout space and testing the
// rectangle or stadium there.
func Measure(bm *imaging.Bitmap, box Box, prop float64, visit Visitor) (Measurement, error) {
	var m Measurement
	if math.IsNaN(prop) || prop <= 0 || prop > 1 {
		return m, fmt.Errorf("%w: got %v", ErrProp, prop)
	}
	delta := (1 - prop) / 2

	m.Footprint = box.Quad()
	c := m.Footprint
	c[0], c[2] = geometry.MoveCloser(c[0], c[2], delta)
	c[1], c[3] = geometry.MoveCloser(c[1], c[3], delta)
	m.Corners = c

	m.Rect = pixelRect(c, bm.Width(), bm.Height())
	inside := insideTest(box, c, delta)

	for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
		for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
			if !inside(float64(x), float64(y)) {
				continue
			}
			dark := bm.Dark(x, y)
			m.Total++
			if dark {
				m.Dark++
			}
			if visit != nil {
				visit(x, y, dark)
			}
		}
	}
	return m, nil
}

// insideTest builds the per-pixel membership test of box, given its shrunk
// scan corners.
func insideTest(box Box, c [4]geometry.Point, delta float64) func(x, y float64) bool {
	switch b := box.(type) {
	case LayoutBounds:
		xmin, xmax := geometry.CloserXY(b.XMin, b.XMax, delta)
		ymin, ymax := geometry.CloserXY(b.YMin, b.YMax, delta)
		if b.Shape == Oval {
			s := newStadium(xmin, xmax, ymin, ymax)
			return func(x, y float64) bool {
				return s.contains(b.Back.ApplyXY(x, y))
			}
		}
		return func(x, y float64) bool {
			ox, oy := b.Back.ApplyXY(x, y)
			return ox >= xmin && ox <= xmax && oy >= ymin && oy <= ymax
		}
	default:
		var edges [4]geometry.Line
		for i := range edges {
			edges[i] = geometry.LineThrough(c[i], c[(i+1)%4])
		}
		return func(x, y float64) bool {
			for _, l := range edges {
				if !l.Inside(x, y) {
					return false
				}
			}
			return true
		}
	}
}

// pixelRect returns the integer bounding rectangle of pts clamped to a
// width x height image. Coordinates are truncated.
func pixelRect(pts [4]geometry.Point, width, height int) image.Rectangle {
	xmin, ymin := width-1, height-1
	xmax, ymax := 0, 0
	for _, p := range pts {
		if p.X < float64(xmin) {
			xmin = truncate(p.X)
		}
		if p.X > float64(xmax) {
			xmax = truncate(p.X)
		}
		if p.Y < float64(ymin) {
			ymin = truncate(p.Y)
		}
		if p.Y > float64(ymax) {
			ymax = truncate(p.Y)
		}
	}
	xmin, xmax = clamp(xmin, 0, width-1), clamp(xmax, 0, width-1)
	ymin, ymax = clamp(ymin, 0, height-1), clamp(ymax, 0, height-1)
	if xmax < xmin || ymax < ymin {
		return image.Rectangle{}
	}
	return image.Rect(xmin, ymin, xmax+1, ymax+1)
}

// truncate converts to int toward zero, saturating far outside the int
// range so that wild coordinates still clamp correctly.
func truncate(v float64) int {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package sampler

import (
	"strings"

	"github.com/ironsheep/scan-detect/internal/geometry"
)

// Shape is the printed shape of an answer box.
type Shape int

const (
	// Square boxes are sampled over their whole rectangle.
	Square Shape = iota

	// Oval boxes are stadiums: a rectangle capped by two half discs along
	// the long axis.
	Oval
)

// ParseShape maps a protocol shape name to a Shape. Anything other than
// "oval" is a square.
func ParseShape(name string) Shape {
	if strings.EqualFold(name, "oval") {
		return Oval
	}
	return Square
}

func (s Shape) String() string {
	if s == Oval {
		return "oval"
	}
	return "square"
}

// Box is the region to measure: either a ScanQuad or a LayoutBounds.
type Box interface {
	// Quad returns the box corners in scan pixels, in drawing order.
	Quad() [4]geometry.Point

	isBox()
}

// ScanQuad is a box given directly as four scan-space corners. Points are
// inside when they lie on the inner side of the four edges 0-1, 1-2, 2-3
// and 3-0.
type ScanQuad struct {
	Corners [4]geometry.Point
}

// Quad implements Box.
func (q ScanQuad) Quad() [4]geometry.Point { return q.Corners }

func (ScanQuad) isBox() {}

// LayoutBounds is an axis-aligned box in layout coordinates. Its scan
// footprint comes from the Direct transform; scan pixels are mapped back
// through Back for the inside test.
type LayoutBounds struct {
	Shape                  Shape
	XMin, XMax, YMin, YMax float64

	Direct geometry.Transform
	Back   geometry.Transform
}

// Quad implements Box. The corners are the layout rectangle corners
// (xmin,ymin), (xmax,ymin), (xmax,ymax), (xmin,ymax) mapped to the scan.
func (b LayoutBounds) Quad() [4]geometry.Point {
	return [4]geometry.Point{
		b.Direct.Apply(geometry.Pt(b.XMin, b.YMin)),
		b.Direct.Apply(geometry.Pt(b.XMax, b.YMin)),
		b.Direct.Apply(geometry.Pt(b.XMax, b.YMax)),
		b.Direct.Apply(geometry.Pt(b.XMin, b.YMax)),
	}
}

func (LayoutBounds) isBox() {}

// stadium is the inside test of an Oval LayoutBounds in layout space.
type stadium struct {
	vertical bool
	r2       float64

	// Cap centers lie on the long axis at lo and hi; center is the
	// coordinate of that axis on the short one.
	lo, hi, center float64

	// Straight part bounds across the short axis.
	min, max float64
}

func newStadium(xmin, xmax, ymin, ymax float64) stadium {
	if xmax-xmin < ymax-ymin {
		r := (xmax - xmin) / 2
		return stadium{
			vertical: true,
			r2:       r * r,
			lo:       ymin + r,
			hi:       ymax - r,
			center:   (xmin + xmax) / 2,
			min:      xmin,
			max:      xmax,
		}
	}
	r := (ymax - ymin) / 2
	return stadium{
		r2:     r * r,
		lo:     xmin + r,
		hi:     xmax - r,
		center: (ymin + ymax) / 2,
		min:    ymin,
		max:    ymax,
	}
}

func (s stadium) contains(x, y float64) bool {
	along, across := x, y
	if s.vertical {
		along, across = y, x
	}
	switch {
	case along <= s.lo:
		return sq(along-s.lo)+sq(across-s.center) <= s.r2
	case along >= s.hi:
		return sq(along-s.hi)+sq(across-s.center) <= s.r2
	default:
		return across >= s.min && across <= s.max
	}
}

func sq(v float64) float64 { return v * v }

package detection

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
)

// ErrInsufficientMarks is returned when fewer components of the expected
// mark size than Params.MinMarks are found. The Detection returned with it
// still holds a full (degraded) CornerSet.
var ErrInsufficientMarks = errors.New("detection: not enough corner marks detected")

// DefaultMinMarks is the default minimum number of correctly sized
// components.
const DefaultMinMarks = 3

// marginProportion is the width of the page margin band, as a fraction of
// the scan size, used for the blank-page check.
const marginProportion = 0.1

// Corner indices into a CornerSet.
const (
	NW = iota
	NE
	SE
	SW
)

// CornerSet holds the four corner mark centers in NW, NE, SE, SW order.
type CornerSet [4]geometry.Point

// Swap180 exchanges opposite corners (NW with SE, NE with SW), which is
// how the set reads once the page is known to be upside down.
func (c *CornerSet) Swap180() {
	c[NW], c[SE] = c[SE], c[NW]
	c[NE], c[SW] = c[SW], c[NE]
}

// Flip maps every corner into the frame of a width x height image turned
// by 180 degrees.
func (c *CornerSet) Flip(width, height int) {
	for i := range c {
		c[i] = geometry.Pt(float64(width-1)-c[i].X, float64(height-1)-c[i].Y)
	}
}

// Points returns the corners as a slice.
func (c CornerSet) Points() []geometry.Point {
	return c[:]
}

// Tracker keeps the most extreme points of a sequence in each diagonal
// direction. It is seeded with the image's own corners so that its
// CornerSet is always fully populated.
type Tracker struct {
	corners CornerSet
}

// NewTracker returns a tracker seeded for a width x height image: each
// corner starts at the opposite extreme so any real point replaces it.
func NewTracker(width, height int) *Tracker {
	w, h := float64(width), float64(height)
	return &Tracker{corners: CornerSet{
		NW: geometry.Pt(w, h),
		NE: geometry.Pt(0, h),
		SE: geometry.Pt(0, 0),
		SW: geometry.Pt(w, 0),
	}}
}

// Add offers a point to the tracker.
func (t *Tracker) Add(p geometry.Point) {
	c := &t.corners
	if p.X+p.Y < c[NW].X+c[NW].Y {
		c[NW] = p
	}
	if p.X+p.Y > c[SE].X+c[SE].Y {
		c[SE] = p
	}
	if p.X-p.Y > c[NE].X-c[NE].Y {
		c[NE] = p
	}
	if p.X-p.Y < c[SW].X-c[SW].Y {
		c[SW] = p
	}
}

// Corners returns the current extremes.
func (t *Tracker) Corners() CornerSet {
	return t.corners
}

// Params describes the expected registration marks.
type Params struct {
	// LayoutWidth and LayoutHeight are the size of the original page, in
	// layout units.
	LayoutWidth  float64
	LayoutHeight float64

	// MarkDiameter is the diameter of a corner mark, in layout units.
	MarkDiameter float64

	// TolPlus and TolMinus widen the accepted diameter band above and
	// below the target, as fractions of it.
	TolPlus  float64
	TolMinus float64

	// MinMarks is the minimum number of correctly sized components.
	// Zero selects DefaultMinMarks.
	MinMarks int
}

// Band returns the accepted mark size range in scan pixels for a
// width x height scan.
func (p Params) Band(width, height int) (min, max float64) {
	var rx, ry float64
	if p.LayoutWidth > 0 {
		rx = float64(width) / p.LayoutWidth
	}
	if p.LayoutHeight > 0 {
		ry = float64(height) / p.LayoutHeight
	}
	target := p.MarkDiameter * (rx + ry) / 2
	return target * (1 - p.TolMinus), target * (1 + p.TolPlus)
}

func (p Params) minMarks() int {
	if p.MinMarks <= 0 {
		return DefaultMinMarks
	}
	return p.MinMarks
}

// Detection is the outcome of Detect.
type Detection struct {
	// Corners is the corner mark estimate, degraded to image corners when
	// not enough marks were found.
	Corners CornerSet

	// TargetMin and TargetMax are the accepted mark size band in pixels.
	TargetMin float64
	TargetMax float64

	// HoleRadius and SpeckRadius are the morphology radii used.
	HoleRadius  int
	SpeckRadius int

	// Marks are the components whose size fell inside the band.
	Marks []Component

	// Components is the number of ink groups large enough to survive the
	// speck removal.
	Components int

	// ContentComponents counts those groups reaching into the content
	// area, that is not entirely inside the margin band.
	ContentComponents int

	// MaybeBlank is set when no component reaches the content area.
	MaybeBlank bool
}

// Detect finds the four corner registration marks of a binarized scan.
//
// # Algorithm
//
//  1. The target diameter is the layout diameter scaled by the mean of the
//     horizontal and vertical scan/layout ratios; the accepted band is
//     [target*(1-TolMinus), target*(1+TolPlus)].
//  2. Connected components are extracted from the scan and grouped when
//     their bounding boxes are close enough for a closing of radius
//     HoleRadius (about 1/8 of the target) to join them.
//  3. Groups narrower than the opening square of radius SpeckRadius
//     (about 1/20 of the target) are specks; the others are counted for
//     the blank page heuristic against the margin band.
//  4. Groups that could hold a mark are cut out with a margin, closed and
//     opened, and their components whose width and height both lie in the
//     band feed their centers to the extremes Tracker.
//
// The morphology only runs on the candidate windows, which are written
// back into bm. When fewer than MinMarks components are kept, the
// Detection is still returned, together with ErrInsufficientMarks.
func Detect(bm *imaging.Bitmap, p Params) (*Detection, error) {
	width, height := bm.Width(), bm.Height()
	det := &Detection{}
	det.TargetMin, det.TargetMax = p.Band(width, height)

	avg := (det.TargetMin + det.TargetMax) / 2
	det.HoleRadius = 1 + int(avg/8)
	det.SpeckRadius = 1 + int(avg/20)

	groups := groupComponents(FindComponents(bm), 2*det.HoleRadius)
	minSide := 2*det.SpeckRadius + 1

	tracker := NewTracker(width, height)
	var processed []window
	for _, g := range groups {
		if g.Dx() < minSide || g.Dy() < minSide {
			continue
		}
		det.Components++
		if reachesContent(g, width, height) {
			det.ContentComponents++
		}

		if !det.mayHoldMark(g) {
			continue
		}
		w, marks := det.refine(bm, g)
		processed = append(processed, w)
		for _, c := range marks {
			tracker.Add(c.Center())
			det.Marks = append(det.Marks, c)
		}
	}
	for _, w := range processed {
		bm.Paste(w.bitmap, w.at)
	}
	det.Corners = tracker.Corners()
	det.MaybeBlank = det.ContentComponents == 0

	if len(det.Marks) < p.minMarks() {
		return det, fmt.Errorf("%w: %d found, %d required", ErrInsufficientMarks, len(det.Marks), p.minMarks())
	}
	return det, nil
}

func (det *Detection) inBand(r image.Rectangle) bool {
	w, h := float64(r.Dx()), float64(r.Dy())
	return w >= det.TargetMin && w <= det.TargetMax && h >= det.TargetMin && h <= det.TargetMax
}

// mayHoldMark reports whether a group is worth refining. Closing never
// grows a bounding box, so a group smaller than the band cannot hold a
// mark; a larger one may, once attached specks are opened away.
func (det *Detection) mayHoldMark(g image.Rectangle) bool {
	w, h := float64(g.Dx()), float64(g.Dy())
	return w >= det.TargetMin && h >= det.TargetMin && w <= 2*det.TargetMax && h <= 2*det.TargetMax
}

// window is a processed cut of the scan.
type window struct {
	bitmap *imaging.Bitmap
	at     image.Point
}

// refine runs the morphology on a window around group and returns the
// processed window with the marks found in it, in scan coordinates.
// Components touching a cut edge of the window belong to neighbouring ink
// and are ignored.
func (det *Detection) refine(bm *imaging.Bitmap, group image.Rectangle) (window, []Component) {
	pad := 2*det.HoleRadius + det.SpeckRadius + 1
	r := group.Inset(-pad).Intersect(bm.Bounds())

	sub := bm.Sub(r)
	sub.Close(det.HoleRadius)
	sub.Open(det.SpeckRadius)

	var marks []Component
	for _, c := range FindComponents(sub) {
		c.Bounds = c.Bounds.Add(r.Min)
		if touchesCut(c.Bounds, r, bm.Bounds()) || !det.inBand(c.Bounds) {
			continue
		}
		marks = append(marks, c)
	}
	return window{bitmap: sub, at: r.Min}, marks
}

// touchesCut reports whether b reaches an edge of win that is not an edge
// of the image.
func touchesCut(b, win, img image.Rectangle) bool {
	return (b.Min.X == win.Min.X && win.Min.X > img.Min.X) ||
		(b.Min.Y == win.Min.Y && win.Min.Y > img.Min.Y) ||
		(b.Max.X == win.Max.X && win.Max.X < img.Max.X) ||
		(b.Max.Y == win.Max.Y && win.Max.Y < img.Max.Y)
}

// groupComponents merges components whose bounding boxes are at most gap
// pixels apart on both axes and returns the merged boxes in raster order.
func groupComponents(cs []Component, gap int) []image.Rectangle {
	sorted := make([]Component, len(cs))
	copy(sorted, cs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bounds.Min.X < sorted[j].Bounds.Min.X })

	parent := make([]int, len(sorted))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range sorted {
		a := sorted[i].Bounds
		for j := i + 1; j < len(sorted) && sorted[j].Bounds.Min.X-a.Max.X <= gap; j++ {
			if near(a, sorted[j].Bounds, gap) {
				parent[find(j)] = find(i)
			}
		}
	}

	merged := make(map[int]image.Rectangle)
	for i, c := range sorted {
		root := find(i)
		if r, ok := merged[root]; ok {
			merged[root] = r.Union(c.Bounds)
		} else {
			merged[root] = c.Bounds
		}
	}

	groups := make([]image.Rectangle, 0, len(merged))
	for _, r := range merged {
		groups = append(groups, r)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Min.Y != groups[j].Min.Y {
			return groups[i].Min.Y < groups[j].Min.Y
		}
		return groups[i].Min.X < groups[j].Min.X
	})
	return groups
}

// near reports whether the paper gap between a and b is at most gap
// pixels horizontally and vertically.
func near(a, b image.Rectangle, gap int) bool {
	dx := max(a.Min.X-b.Max.X, b.Min.X-a.Max.X)
	dy := max(a.Min.Y-b.Max.Y, b.Min.Y-a.Max.Y)
	return dx <= gap && dy <= gap
}

// reachesContent reports whether a bounding box is not entirely inside
// the margin band around the page edges.
func reachesContent(b image.Rectangle, width, height int) bool {
	w, h := float64(width), float64(height)
	return !(float64(b.Max.X) <= w*marginProportion ||
		float64(b.Min.X) >= w*(1-marginProportion) ||
		float64(b.Max.Y) <= h*marginProportion ||
		float64(b.Min.Y) >= h*(1-marginProportion))
}

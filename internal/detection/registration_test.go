package detection

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
)

// testParams describe a 200x300 layout scanned at 2 pixels per unit, with
// 10-unit marks: the accepted band is [16, 24] pixels.
var testParams = Params{
	LayoutWidth:  200,
	LayoutHeight: 300,
	MarkDiameter: 10,
	TolPlus:      0.2,
	TolMinus:     0.2,
}

const (
	testWidth  = 400
	testHeight = 600
	markSize   = 20
)

// markOrigins are the top-left corners of the four marks, NW, NE, SE, SW.
var markOrigins = []image.Point{
	{X: 20, Y: 20},
	{X: 360, Y: 24},
	{X: 356, Y: 560},
	{X: 18, Y: 556},
}

// createSheet creates a blank bitmap with the given marks drawn as filled
// squares.
func createSheet(origins []image.Point) *imaging.Bitmap {
	bm := imaging.NewBitmap(testWidth, testHeight)
	for _, o := range origins {
		bm.FillRect(image.Rect(o.X, o.Y, o.X+markSize, o.Y+markSize), imaging.Ink)
	}
	return bm
}

func markCenter(o image.Point) geometry.Point {
	return geometry.Pt(float64(o.X)+float64(markSize-1)/2, float64(o.Y)+float64(markSize-1)/2)
}

func TestDetect_FourMarks(t *testing.T) {
	bm := createSheet(markOrigins)
	// Dust that the opening must remove.
	bm.Set(200, 5, imaging.Ink)
	bm.FillRect(image.Rect(100, 580, 102, 582), imaging.Ink)

	det, err := Detect(bm, testParams)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if math.Abs(det.TargetMin-16) > 1e-9 || math.Abs(det.TargetMax-24) > 1e-9 {
		t.Errorf("band: got [%v, %v], want [16, 24]", det.TargetMin, det.TargetMax)
	}
	if len(det.Marks) != 4 {
		t.Fatalf("marks: got %d, want 4", len(det.Marks))
	}

	for i, o := range markOrigins {
		want := markCenter(o)
		got := det.Corners[i]
		if math.Abs(got.X-want.X) > 1 || math.Abs(got.Y-want.Y) > 1 {
			t.Errorf("corner %d: got (%.1f, %.1f), want (%.1f, %.1f)", i, got.X, got.Y, want.X, want.Y)
		}
	}
}

func TestDetect_IgnoresWrongSizes(t *testing.T) {
	bm := createSheet(markOrigins)
	// Too large (answer text block) and too small (tick), both in content.
	bm.FillRect(image.Rect(100, 200, 300, 240), imaging.Ink)
	bm.FillRect(image.Rect(150, 400, 160, 410), imaging.Ink)

	det, err := Detect(bm, testParams)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(det.Marks) != 4 {
		t.Errorf("marks: got %d, want 4", len(det.Marks))
	}
	if det.MaybeBlank {
		t.Error("page with content reported as maybe blank")
	}
	if det.ContentComponents != 2 {
		t.Errorf("content components: got %d, want 2", det.ContentComponents)
	}
}

func TestDetect_InsufficientMarks(t *testing.T) {
	bm := createSheet(markOrigins[:2])

	det, err := Detect(bm, testParams)
	if !errors.Is(err, ErrInsufficientMarks) {
		t.Fatalf("expected ErrInsufficientMarks, got %v", err)
	}
	if det == nil {
		t.Fatal("Detection must be returned with ErrInsufficientMarks")
	}
	if len(det.Marks) != 2 {
		t.Errorf("marks: got %d, want 2", len(det.Marks))
	}

	// SE and SW still hold the degraded estimate, never a zero value.
	for i, c := range det.Corners {
		if math.IsNaN(c.X) || math.IsNaN(c.Y) {
			t.Errorf("corner %d is NaN", i)
		}
	}
}

func TestDetect_MinMarksParameter(t *testing.T) {
	p := testParams
	p.MinMarks = 2
	if _, err := Detect(createSheet(markOrigins[:2]), p); err != nil {
		t.Errorf("two marks with MinMarks=2: unexpected error %v", err)
	}

	p.MinMarks = 4
	if _, err := Detect(createSheet(markOrigins[:3]), p); !errors.Is(err, ErrInsufficientMarks) {
		t.Errorf("three marks with MinMarks=4: expected ErrInsufficientMarks, got %v", err)
	}
}

func TestDetect_MaybeBlank(t *testing.T) {
	tests := []struct {
		name      string
		extra     []image.Rectangle
		wantBlank bool
	}{
		{"marks only", nil, true},
		{"margin scribble", []image.Rectangle{image.Rect(100, 2, 200, 10)}, true},
		{"content mark", []image.Rectangle{image.Rect(190, 290, 198, 298)}, false},
		{"straddles margin", []image.Rectangle{image.Rect(30, 100, 50, 110)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm := createSheet(markOrigins)
			for _, r := range tt.extra {
				bm.FillRect(r, imaging.Ink)
			}
			det, err := Detect(bm, testParams)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if det.MaybeBlank != tt.wantBlank {
				t.Errorf("MaybeBlank: got %v, want %v (content=%d)", det.MaybeBlank, tt.wantBlank, det.ContentComponents)
			}
		})
	}
}

func TestDetect_EmptyImage(t *testing.T) {
	bm := imaging.NewBitmap(testWidth, testHeight)
	det, err := Detect(bm, testParams)
	if !errors.Is(err, ErrInsufficientMarks) {
		t.Fatalf("expected ErrInsufficientMarks, got %v", err)
	}
	if !det.MaybeBlank {
		t.Error("empty page should be maybe blank")
	}

	// With no candidates the tracker keeps its seeds.
	want := CornerSet{
		geometry.Pt(testWidth, testHeight),
		geometry.Pt(0, testHeight),
		geometry.Pt(0, 0),
		geometry.Pt(testWidth, 0),
	}
	if det.Corners != want {
		t.Errorf("corners: got %v, want %v", det.Corners, want)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker(100, 100)
	for _, p := range []geometry.Point{
		geometry.Pt(50, 50),
		geometry.Pt(10, 12),
		geometry.Pt(90, 8),
		geometry.Pt(88, 91),
		geometry.Pt(7, 93),
		geometry.Pt(60, 40),
	} {
		tr.Add(p)
	}

	want := CornerSet{geometry.Pt(10, 12), geometry.Pt(90, 8), geometry.Pt(88, 91), geometry.Pt(7, 93)}
	if got := tr.Corners(); got != want {
		t.Errorf("corners: got %v, want %v", got, want)
	}
}

func TestCornerSet_Swap180AndFlip(t *testing.T) {
	c := CornerSet{geometry.Pt(1, 2), geometry.Pt(3, 4), geometry.Pt(5, 6), geometry.Pt(7, 8)}
	c.Swap180()
	want := CornerSet{geometry.Pt(5, 6), geometry.Pt(7, 8), geometry.Pt(1, 2), geometry.Pt(3, 4)}
	if c != want {
		t.Errorf("Swap180: got %v, want %v", c, want)
	}

	c.Flip(11, 21)
	want = CornerSet{geometry.Pt(5, 14), geometry.Pt(3, 12), geometry.Pt(9, 18), geometry.Pt(7, 16)}
	if c != want {
		t.Errorf("Flip: got %v, want %v", c, want)
	}
}

func TestDetect_BrokenMark(t *testing.T) {
	bm := createSheet(markOrigins[1:])
	// NW mark split by a two pixel paper stripe: the closing joins it.
	o := markOrigins[NW]
	bm.FillRect(image.Rect(o.X, o.Y, o.X+9, o.Y+markSize), imaging.Ink)
	bm.FillRect(image.Rect(o.X+11, o.Y, o.X+markSize, o.Y+markSize), imaging.Ink)

	det, err := Detect(bm, testParams)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(det.Marks) != 4 {
		t.Fatalf("marks: got %d, want 4", len(det.Marks))
	}
	want := markCenter(o)
	if got := det.Corners[NW]; math.Abs(got.X-want.X) > 1 || math.Abs(got.Y-want.Y) > 1 {
		t.Errorf("NW: got (%.1f, %.1f), want (%.1f, %.1f)", got.X, got.Y, want.X, want.Y)
	}
	// The processed window is written back.
	if !bm.Dark(o.X+10, o.Y+10) {
		t.Error("closing should have filled the stripe in the bitmap")
	}
}

func TestDetect_MarkWithSpeck(t *testing.T) {
	bm := createSheet(markOrigins)
	// Dust close to the NE mark is grouped with it, then opened away.
	o := markOrigins[NE]
	bm.FillRect(image.Rect(o.X+markSize+3, o.Y+6, o.X+markSize+5, o.Y+8), imaging.Ink)

	det, err := Detect(bm, testParams)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	want := markCenter(o)
	if got := det.Corners[NE]; math.Abs(got.X-want.X) > 1 || math.Abs(got.Y-want.Y) > 1 {
		t.Errorf("NE: got (%.1f, %.1f), want (%.1f, %.1f)", got.X, got.Y, want.X, want.Y)
	}
}

func TestDetect_A4At150DPI(t *testing.T) {
	const w, h = 1240, 1754
	p := Params{LayoutWidth: 210, LayoutHeight: 297, MarkDiameter: 3, TolPlus: 0.2, TolMinus: 0.2}

	bm := imaging.NewBitmap(w, h)
	origins := []image.Point{{60, 60}, {w - 78, 60}, {w - 78, h - 78}, {60, h - 78}}
	for _, o := range origins {
		bm.FillRect(image.Rect(o.X, o.Y, o.X+18, o.Y+18), imaging.Ink)
	}
	// Lines of printed text: glyphs close enough to merge into words.
	for y := 200; y < h-200; y += 20 {
		for x := 150; x < w-150; x += 12 {
			bm.FillRect(image.Rect(x, y, x+6, y+9), imaging.Ink)
		}
	}

	start := time.Now()
	det, err := Detect(bm, p)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(det.Marks) != 4 {
		t.Errorf("marks: got %d, want 4", len(det.Marks))
	}
	if det.MaybeBlank {
		t.Error("page with text reported as maybe blank")
	}
	if elapsed > time.Second {
		t.Errorf("Detect on %dx%d took %v, want under 1s", w, h, elapsed)
	}
}

func TestGroupComponents(t *testing.T) {
	cs := []Component{
		{Bounds: image.Rect(50, 0, 60, 10)},
		{Bounds: image.Rect(0, 0, 10, 10)},
		{Bounds: image.Rect(14, 2, 20, 8)},
		{Bounds: image.Rect(0, 30, 10, 40)},
	}
	got := groupComponents(cs, 4)
	want := []image.Rectangle{
		image.Rect(0, 0, 20, 10),
		image.Rect(50, 0, 60, 10),
		image.Rect(0, 30, 10, 40),
	}
	if len(got) != len(want) {
		t.Fatalf("groups: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("group %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

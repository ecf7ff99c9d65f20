package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestPalette(t *testing.T) {
	if Blue != (color.NRGBA{0x26, 0x45, 0xdf, 255}) {
		t.Errorf("Blue: got %v", Blue)
	}
	if Rose != (color.NRGBA{0xdf, 0x26, 0xcb, 255}) {
		t.Errorf("Rose: got %v", Rose)
	}
	if c := RandomColor(); c.A != 255 {
		t.Errorf("RandomColor should be opaque, got %v", c)
	}
}

func TestOverlay_DrawLine(t *testing.T) {
	o := NewBlankOverlay(20, 20)
	o.DrawLine(image.Pt(2, 3), image.Pt(12, 3), White)
	o.DrawLine(image.Pt(0, 10), image.Pt(5, 15), Red)

	for x := 2; x <= 12; x++ {
		if o.Image().NRGBAAt(x, 3) != White {
			t.Errorf("horizontal line missing at x=%d", x)
		}
	}
	for i := 0; i <= 5; i++ {
		if o.Image().NRGBAAt(i, 10+i) != Red {
			t.Errorf("diagonal line missing at %d", i)
		}
	}
	if o.Image().NRGBAAt(13, 3) == White {
		t.Error("line overran its end point")
	}
}

func TestOverlay_DrawRectClipped(t *testing.T) {
	o := NewBlankOverlay(10, 10)
	o.DrawRect(image.Rect(5, 5, 15, 15), Green)

	if o.Image().NRGBAAt(5, 9) != Green || o.Image().NRGBAAt(9, 5) != Green {
		t.Error("visible part of the rectangle not drawn")
	}
	if o.Image().NRGBAAt(7, 7) == Green {
		t.Error("rectangle interior should not be filled")
	}
}

func TestOverlay_Annotate(t *testing.T) {
	o := NewBlankOverlay(80, 20)
	o.Annotate("AB", 2, 14, 13, Blue)

	found := false
	for y := 0; y < 20 && !found; y++ {
		for x := 0; x < 80; x++ {
			if o.Image().NRGBAAt(x, y) == Blue {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("annotation drew nothing")
	}
}

func TestOverlay_AnnotateScaled(t *testing.T) {
	inked := func(o *Overlay) image.Rectangle {
		var r image.Rectangle
		img := o.Image()
		for y := 0; y < img.Rect.Dy(); y++ {
			for x := 0; x < img.Rect.Dx(); x++ {
				if c := img.NRGBAAt(x, y); c.R|c.G|c.B != 0 {
					r = r.Union(image.Rect(x, y, x+1, y+1))
				}
			}
		}
		return r
	}

	small := NewBlankOverlay(200, 100)
	small.Annotate("AB", 10, 80, 13, Blue)
	large := NewBlankOverlay(200, 100)
	large.Annotate("AB", 10, 80, 52, Blue)

	rs, rl := inked(small), inked(large)
	if rs.Empty() || rl.Empty() {
		t.Fatalf("annotation drew nothing: %v %v", rs, rl)
	}
	if rl.Dy() < 3*rs.Dy() || rl.Dx() < 3*rs.Dx() {
		t.Errorf("text at height 52 should be about 4x the 13 pixel text: got %v, base %v", rl, rs)
	}
	if rl.Max.Y > 85 {
		t.Errorf("glyphs should sit on the baseline, got bottom %d", rl.Max.Y)
	}
}

func TestOverlay_Rotate180(t *testing.T) {
	o := NewBlankOverlay(6, 4)
	o.SetPixel(0, 0, Red)
	o.SetPixel(-1, 0, Red)
	o.Rotate180()
	if o.Image().NRGBAAt(5, 3) != Red {
		t.Error("pixel (0,0) should move to (5,3)")
	}
}

func TestOverlayFromBitmap(t *testing.T) {
	bm := NewBitmap(3, 3)
	bm.Set(1, 1, Ink)
	o := OverlayFromBitmap(bm)

	if got := o.Image().NRGBAAt(1, 1); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("ink pixel: got %v, want black", got)
	}
	if got := o.Image().NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("paper pixel: got %v, want white", got)
	}
}

func TestOverlay_Save(t *testing.T) {
	o := NewOverlay(createPatternImage(10, 10))
	path := filepath.Join(t.TempDir(), "report.png")
	if err := o.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := LoadColor(path); err != nil {
		t.Errorf("saved overlay unreadable: %v", err)
	}
}

package session

import (
	"fmt"
	"image/color"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
	"github.com/ironsheep/scan-detect/internal/sampler"
)

// MeasureQuad measures a box given by four scan-space corners.
func (s *Session) MeasureQuad(prop float64, quad [4]geometry.Point) *Reply {
	r := &Reply{}
	if !s.ready(r) {
		return r
	}
	s.measure(r, sampler.ScanQuad{Corners: quad}, prop)
	return r
}

// MeasureLayout measures a box given by its layout bounds, mapped to the
// scan through the current transform.
func (s *Session) MeasureLayout(prop float64, shape sampler.Shape, xmin, xmax, ymin, ymax float64) *Reply {
	r := &Reply{}
	if !s.ready(r) {
		return r
	}

	box := sampler.LayoutBounds{
		Shape: shape,
		XMin:  xmin, XMax: xmax, YMin: ymin, YMax: ymax,
		Direct: s.transform,
		Back:   s.back,
	}
	for _, p := range box.Quad() {
		r.printf("TCORNER %.3f,%.3f", p.X, p.Y)
	}
	s.measure(r, box, prop)
	return r
}

// ready checks that a measurement can run.
func (s *Session) ready(r *Reply) bool {
	if s.scan == nil {
		r.fail(&Fault{Kind: InputError, Tag: "NOSCAN", Message: "No scan loaded."})
		return false
	}
	if s.state < Fitted {
		r.fail(&Fault{Kind: InputError, Tag: "NOFIT", Message: "Measure before any transform is fitted.", Err: errNotFitted})
		return false
	}
	return true
}

func (s *Session) measure(r *Reply, box sampler.Box, prop float64) {
	defer func() { s.id.Student = -1 }()

	var visit sampler.Visitor
	if s.overlay != nil && s.opts.Illustrate == IllustratePixels {
		visit = func(x, y int, dark bool) {
			c := color.NRGBA{G: 128, B: 255, A: 255}
			if dark {
				c.B = 0
			}
			s.overlay.SetPixel(x, y, c)
		}
	}

	if s.overlay != nil && s.opts.Illustrate == IllustrateBoxes {
		s.overlay.DrawPolygon(polygon(box.Quad()), imaging.Blue)
	}

	m, err := sampler.Measure(s.scan, box, prop, visit)
	if err != nil {
		r.fail(&Fault{Kind: InputError, Tag: "PROP", Message: fmt.Sprintf("Invalid proportion %v.", prop), Err: err})
		return
	}
	s.state = Measuring

	for _, c := range m.Corners {
		r.printf("COIN %.3f,%.3f", c.X, c.Y)
	}

	shrunk := polygon(m.Corners)
	if s.components != nil {
		s.components.DrawPolygon(shrunk, imaging.White)
	}
	if s.overlay != nil && s.opts.Illustrate == IllustrateBoxes {
		s.overlay.DrawPolygon(shrunk, imaging.Rose)
	}

	if s.zoomsDir != "" && s.id.Student >= 0 {
		s.zoom(r, m)
	}

	s.debugf("box %+v: %d/%d dark", s.id, m.Dark, m.Total)
	r.printf("PIX %d %d", m.Dark, m.Total)
}

// zoom saves the zoom of the measured box, cut from the report overlay
// or, without one, from the scan bitmap.
func (s *Session) zoom(r *Reply, m sampler.Measurement) {
	src := s.overlay
	if src == nil {
		src = imaging.OverlayFromBitmap(s.scan)
	}

	name, err := sampler.SaveZoom(src.Image(), s.zoomsDir, s.id.Question, s.id.Answer, m.Footprint)
	if err != nil {
		tag, msg := zoomFault(err)
		r.fail(&Fault{Kind: ResourceError, Tag: tag, Message: fmt.Sprintf("%s [%s]", msg, s.zoomsDir), Err: err})
		s.logger.Printf("zoom: %v", err)
		return
	}
	r.printf("ZOOM %s", name)
}

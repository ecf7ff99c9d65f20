package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/ironsheep/scan-detect/internal/detection"
	"github.com/ironsheep/scan-detect/internal/fit"
	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
)

// State is the position of a sheet in the processing sequence.
type State int

const (
	Empty State = iota
	Loaded
	Registered
	Fitted
	Measuring
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Registered:
		return "registered"
	case Fitted:
		return "fitted"
	case Measuring:
		return "measuring"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Illustration selects what measurements draw on the report overlay.
type Illustration int

const (
	// IllustrateBoxes outlines each box and its shrunk measuring area.
	IllustrateBoxes Illustration = iota

	// IllustratePixels paints every sampled pixel.
	IllustratePixels
)

// Options configures a Session.
type Options struct {
	Detection detection.Params
	Load      imaging.LoadOptions

	// Output is the report image written by Close. It can be changed
	// later with SetOutput.
	Output string

	// ComponentReport keeps a report of the detected components on a
	// black background; Close writes it next to Output.
	ComponentReport bool

	// PostProcess builds the report overlay from the processed bitmap
	// instead of the color scan.
	PostProcess bool

	Illustrate Illustration

	// Logger receives debug output when Debug is set. Nil discards it.
	Logger *log.Logger
	Debug  bool
}

// BoxID identifies the box being measured. Student is -1 when unknown.
type BoxID struct {
	Student, Page, Question, Answer int
}

// Session holds the state of one scan-processing process: the current
// sheet, its registration and transform, and where reports go.
type Session struct {
	opts   Options
	logger *log.Logger

	state  State
	status Status

	scan       *imaging.Bitmap
	overlay    *imaging.Overlay
	components *imaging.Overlay

	corners    detection.CornerSet
	upsideDown bool

	layout     [4]geometry.Point
	haveLayout bool
	transform  geometry.Transform
	back       geometry.Transform

	id       BoxID
	output   string
	zoomsDir string
}

// New returns an empty session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		opts:      opts,
		logger:    logger,
		output:    opts.Output,
		transform: geometry.Identity(),
		back:      geometry.Identity(),
		id:        BoxID{Student: -1},
	}
}

// State returns the current processing state.
func (s *Session) State() State { return s.state }

// Status returns the numeric processing status.
func (s *Session) Status() Status { return s.status }

// Halted reports whether a fatal fault occurred since the last load.
func (s *Session) Halted() bool { return s.status != StatusOK }

// Corners returns the current corner set.
func (s *Session) Corners() detection.CornerSet { return s.corners }

// Transform returns the current layout-to-scan transform and its inverse.
func (s *Session) Transform() (direct, back geometry.Transform) { return s.transform, s.back }

// UpsideDown reports whether a rotation is pending.
func (s *Session) UpsideDown() bool { return s.upsideDown }

// ID returns the current box identity.
func (s *Session) ID() BoxID { return s.id }

// Bitmap returns the loaded scan, or nil.
func (s *Session) Bitmap() *imaging.Bitmap { return s.scan }

// Overlay returns the report overlay, or nil.
func (s *Session) Overlay() *imaging.Overlay { return s.overlay }

func (s *Session) debugf(format string, args ...interface{}) {
	if s.opts.Debug {
		s.logger.Printf(format, args...)
	}
}

// Load discards the current sheet, loads and binarizes the scan at path
// and looks for its registration marks.
//
// Unreadable files halt the session. Missing marks do not: the corners
// are then degraded and the state stays Loaded instead of Registered.
func (s *Session) Load(path string) *Reply {
	r := &Reply{}
	s.reset()
	s.debugf("load %s", path)

	if s.output != "" && !s.opts.PostProcess {
		bg, err := imaging.LoadColor(path)
		if err != nil {
			s.status = StatusOverlay
			r.fail(&Fault{Kind: InputError, Tag: "LOAD", Message: fmt.Sprintf("Error loading scan file in COLOR [%s]", path), Err: err})
			return r
		}
		s.overlay = imaging.NewOverlay(bg)
		r.print(": Image background loaded")
	}

	scan, err := imaging.LoadScan(path, s.opts.Load)
	if err != nil {
		s.status = statusOf(err)
		s.overlay = nil
		msg := fmt.Sprintf("Error loading scan file [%s]", path)
		if s.status == StatusChannels {
			msg = fmt.Sprintf("Unsupported scan file channels [%s]", path)
		}
		r.fail(&Fault{Kind: InputError, Tag: "LOAD", Message: msg, Err: err})
		return r
	}
	s.scan = scan.Bitmap
	s.state = Loaded
	r.print(": Image loaded")
	s.debugf("scan %dx%d max=%d level=%d", s.scan.Width(), s.scan.Height(), scan.Max, scan.Level)

	work := s.scan.Clone()
	det, err := detection.Detect(work, s.opts.Detection)
	s.corners = det.Corners
	s.report(work, det, err == nil)

	r.printf("Target size: %.1f ; %.1f", det.TargetMin, det.TargetMax)
	r.print("Detected connected components:")
	for _, c := range det.Marks {
		b := c.Bounds
		r.printf("(%d;%d)+(%d;%d)", b.Min.X, b.Min.Y, b.Dx(), b.Dy())
	}

	if err != nil {
		r.fail(&Fault{Kind: kindOf(err), Tag: "NMARKS", Arg: fmt.Sprint(len(det.Marks)), Message: "Not enough corner marks detected.", Err: err})
		if det.MaybeBlank {
			r.fail(&Fault{Kind: InsufficientMarks, Tag: "MAYBE_BLANK", Message: "This page seems to be blank."})
		}
		s.logger.Printf("%s: %v", path, err)
		return r
	}

	for i, c := range det.Corners {
		r.printf("Frame[%d]: %.1f ; %.1f", i, c.X, c.Y)
	}
	s.state = Registered
	return r
}

// reset discards everything tied to the previous sheet.
func (s *Session) reset() {
	s.status = StatusOK
	s.state = Empty
	s.scan = nil
	s.overlay = nil
	s.components = nil
	s.corners = detection.CornerSet{}
	s.upsideDown = false
	s.layout = [4]geometry.Point{}
	s.haveLayout = false
	s.transform = geometry.Identity()
	s.back = geometry.Identity()
}

// report draws the detection on the overlays.
func (s *Session) report(work *imaging.Bitmap, det *detection.Detection, found bool) {
	var post *imaging.Overlay
	if s.opts.PostProcess {
		post = imaging.OverlayFromBitmap(work)
	}
	if s.opts.ComponentReport {
		s.components = imaging.NewBlankOverlay(work.Width(), work.Height())
	}

	for _, c := range det.Marks {
		r := c.Bounds
		r.Max = r.Max.Sub(image.Pt(1, 1))
		if s.components != nil {
			s.components.DrawRect(r, imaging.RandomColor())
		}
		if post != nil {
			post.DrawRect(r, imaging.Green)
		}
	}

	if found {
		frame := polygon(det.Corners)
		if s.components != nil {
			s.components.DrawPolygon(frame, imaging.White)
		}
		if post != nil {
			post.DrawPolygon(frame, imaging.Red)
		}
		if s.overlay != nil {
			s.overlay.DrawPolygon(frame, imaging.Blue)
		}
	}

	if s.output != "" && s.overlay == nil {
		s.overlay = post
	}
}

// polygon truncates corner coordinates to pixels.
func polygon(c [4]geometry.Point) []image.Point {
	pts := make([]image.Point, len(c))
	for i, p := range c {
		pts[i] = image.Pt(int(p.X), int(p.Y))
	}
	return pts
}

// Fit computes the transform from layout coordinates to the scan, using
// the four layout mark positions (NW, NE, SE, SW) and the current corners.
// A nil layout reuses the points of the previous fit. With robust set,
// each mark is left out in turn and the most orthonormal fit is kept.
//
// A singular system keeps the previous transform.
func (s *Session) Fit(layout *[4]geometry.Point, robust bool) *Reply {
	r := &Reply{}
	if layout != nil {
		s.layout = *layout
		s.haveLayout = true
	}
	if !s.haveLayout {
		r.fail(&Fault{Kind: InputError, Tag: "NOPTS", Message: "No layout points to fit."})
		return r
	}
	if s.scan == nil {
		r.fail(&Fault{Kind: InputError, Tag: "NOSCAN", Message: "No scan loaded."})
		return r
	}

	src, dst := s.layout[:], s.corners.Points()
	var (
		t       geometry.Transform
		mse     string
		quality string
		err     error
	)
	if robust {
		var res fit.RobustResult
		res, err = fit.RobustFit(src, dst)
		for _, a := range res.Attempts {
			if a.Err == nil {
				r.printf("OMIT_CORNER=%d Q2=%f", a.Omit, a.Score)
			}
		}
		t = res.Transform
		mse = "MSE=0.0"
		quality = fmt.Sprintf("QUALITY=%f", res.Quality())
		s.debugf("robust fit omits corner %d, score %g", res.Omit, res.Score)
	} else {
		var rmse float64
		t, rmse, err = fit.Fit(src, dst, -1)
		mse = fmt.Sprintf("MSE=%f", rmse)
	}

	var back geometry.Transform
	if err == nil {
		back, err = t.Invert()
	}
	if err != nil {
		r.fail(&Fault{Kind: kindOf(err), Tag: "NONINV", Message: "Non-invertible system.", Err: err})
		s.logger.Printf("fit: %v", err)
		return r
	}

	s.transform, s.back = t, back
	s.state = Fitted
	r.print("Transfo:")
	r.print(t.Lines("")...)
	r.print(mse)
	if quality != "" {
		r.print(quality)
	}
	r.print("Back:")
	r.print(back.Lines("'")...)
	return r
}

// Rotate180 records that the sheet is upside down: opposite corners are
// exchanged, no pixel moves until RotateOK.
func (s *Session) Rotate180() *Reply {
	r := &Reply{}
	s.corners.Swap180()
	s.upsideDown = !s.upsideDown
	upside := 0
	if s.upsideDown {
		upside = 1
	}
	r.printf("UpsideDown=%d", upside)
	return r
}

// RotateOK commits a pending rotation: the scan and overlays are turned
// by 180 degrees and the transform and corners are moved to the new
// frame. It does nothing when no rotation is pending.
func (s *Session) RotateOK() *Reply {
	r := &Reply{}
	if !s.upsideDown {
		return r
	}
	if s.scan == nil {
		r.fail(&Fault{Kind: InputError, Tag: "NOSCAN", Message: "No scan loaded."})
		return r
	}

	w, h := s.scan.Width(), s.scan.Height()
	t := s.transform
	t.A, t.B, t.C, t.D = -t.A, -t.B, -t.C, -t.D
	t.E = float64(w-1) - t.E
	t.F = float64(h-1) - t.F

	back, err := t.Invert()
	if err != nil {
		r.fail(&Fault{Kind: DegenerateGeometry, Tag: "NONINV", Message: "Non-invertible system.", Err: err})
		return r
	}

	s.scan.Rotate180()
	if s.overlay != nil {
		s.overlay.Rotate180()
	}
	if s.components != nil {
		s.components.Rotate180()
	}
	s.corners.Flip(w, h)
	s.upsideDown = false
	s.transform, s.back = t, back

	r.print("Transfo:")
	r.print(t.Lines("")...)
	r.print("Back:")
	r.print(back.Lines("'")...)
	return r
}

// SetID sets the identity of the next box to measure.
func (s *Session) SetID(id BoxID) *Reply {
	s.id = id
	return &Reply{}
}

// SetOutput sets the report image path. It takes effect from the next
// load.
func (s *Session) SetOutput(path string) *Reply {
	s.output = path
	return &Reply{}
}

// SetZoomsDir sets the directory zooms are written to.
func (s *Session) SetZoomsDir(dir string) *Reply {
	s.zoomsDir = dir
	return &Reply{}
}

// Annotate writes text at the top left of the report overlay.
func (s *Session) Annotate(text string) *Reply {
	r := &Reply{}
	if s.overlay == nil || s.scan == nil {
		return r
	}
	fh := float64(s.scan.Height()) / 50
	s.overlay.Annotate(text, 10, int(1.6*fh), fh, imaging.Blue)
	return r
}

// Close writes the report images, if any.
func (s *Session) Close() *Reply {
	r := &Reply{}
	if s.output == "" || s.overlay == nil {
		return r
	}

	r.printf(": Saving layout image to %s", s.output)
	if err := s.overlay.Save(s.output); err != nil {
		r.fail(&Fault{Kind: ResourceError, Tag: "LAYS", Message: fmt.Sprintf("Layout image save error [%v]", err), Err: err})
		s.logger.Printf("report: %v", err)
	}

	if s.components != nil {
		path := componentsPath(s.output)
		if err := s.components.Save(path); err != nil {
			r.fail(&Fault{Kind: ResourceError, Tag: "LAYS", Message: fmt.Sprintf("Components image save error [%v]", err), Err: err})
			s.logger.Printf("report: %v", err)
		}
	}
	return r
}

// componentsPath derives the component report file name from the report
// file name: "page.jpg" gives "page-components.jpg".
func componentsPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "-components" + ext
}

// errNotFitted is wrapped by measurement faults issued before any fit.
var errNotFitted = errors.New("session: no transform fitted")

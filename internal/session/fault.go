package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/scan-detect/internal/detection"
	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
	"github.com/ironsheep/scan-detect/internal/sampler"
)

// Kind classifies a Fault.
type Kind int

const (
	// InputError covers unreadable files, malformed requests, out-of-range
	// values and commands issued out of sequence.
	InputError Kind = iota

	// DegenerateGeometry is a singular system: the previous transform is
	// kept and processing continues.
	DegenerateGeometry

	// InsufficientMarks means fewer registration marks than required were
	// found. The corners are degraded but a fit is still allowed.
	InsufficientMarks

	// ResourceError is a file-system failure while writing zooms or the
	// report image. It is logged and processing continues.
	ResourceError
)

func (k Kind) String() string {
	switch k {
	case InputError:
		return "input"
	case DegenerateGeometry:
		return "degenerate geometry"
	case InsufficientMarks:
		return "insufficient marks"
	case ResourceError:
		return "resource"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Status is the numeric processing status. Any value other than StatusOK
// halts the session until the next load.
type Status int

const (
	StatusOK         Status = 0
	StatusChannels   Status = 2
	StatusUnreadable Status = 3
	StatusOverlay    Status = 4
)

// Fault is a tagged error reported on the protocol as
//
//	! TAG: message
//
// or, when Arg is set, "! TAG=arg: message".
type Fault struct {
	Kind    Kind
	Tag     string
	Arg     string
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.tag(), f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.tag(), f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Line renders the fault as a protocol line.
func (f *Fault) Line() string {
	return "! " + f.tag() + ": " + f.Message
}

func (f *Fault) tag() string {
	if f.Arg != "" {
		return f.Tag + "=" + f.Arg
	}
	return f.Tag
}

// kindOf maps a package sentinel to its fault kind.
func kindOf(err error) Kind {
	switch {
	case errors.Is(err, geometry.ErrDegenerate):
		return DegenerateGeometry
	case errors.Is(err, detection.ErrInsufficientMarks):
		return InsufficientMarks
	case errors.Is(err, sampler.ErrResource):
		return ResourceError
	}
	return InputError
}

// statusOf maps a load error to the status that halts the session.
func statusOf(err error) Status {
	if errors.Is(err, imaging.ErrChannels) {
		return StatusChannels
	}
	return StatusUnreadable
}

// zoomFault maps a zoom failure to its protocol tag and message.
func zoomFault(err error) (tag, msg string) {
	switch {
	case errors.Is(err, sampler.ErrZoomDirCreate):
		return "ZOOMDC", "Zoom dir creation error"
	case errors.Is(err, sampler.ErrZoomDirStat):
		return "ZOOMDS", "Zoom dir stat error"
	case errors.Is(err, sampler.ErrZoomNotDir):
		return "ZOOMDP", "Zoom dir is not a directory"
	}
	return "ZOOMS", "Zoom save error"
}

// Reply collects the output of one command: plain lines and faults, in
// the order they were produced.
type Reply struct {
	Lines  []string
	Faults []*Fault
}

func (r *Reply) printf(format string, args ...interface{}) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

func (r *Reply) print(lines ...string) {
	r.Lines = append(r.Lines, lines...)
}

// fail records a fault; its line goes to the output at the current
// position.
func (r *Reply) fail(f *Fault) *Fault {
	r.Faults = append(r.Faults, f)
	r.Lines = append(r.Lines, f.Line())
	return f
}

// Err returns the faults of the reply joined, or nil.
func (r *Reply) Err() error {
	if len(r.Faults) == 0 {
		return nil
	}
	errs := make([]error, len(r.Faults))
	for i, f := range r.Faults {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Has reports whether the reply carries a fault with the given tag.
func (r *Reply) Has(tag string) bool {
	for _, f := range r.Faults {
		if f.Tag == tag {
			return true
		}
	}
	return false
}

// String returns the reply lines joined with newlines.
func (r *Reply) String() string {
	return strings.Join(r.Lines, "\n")
}

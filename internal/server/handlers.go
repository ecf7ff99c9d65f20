package server

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/sampler"
	"github.com/ironsheep/scan-detect/internal/session"
)

// errSyntax marks a request that does not match its verb's arguments.
var errSyntax = errors.New("server: syntax error")

// handleLine dispatches one request line to its verb handler.
//
// Unknown verbs and malformed arguments are answered with the echoed line
// and a SYNERR fault. While the session is halted every verb but load is
// refused.
func (s *Server) handleLine(line string) *session.Reply {
	name, args, _ := strings.Cut(line, " ")

	if s.session.Halted() && name != "load" {
		return faultReply(&session.Fault{
			Kind:    session.InputError,
			Tag:     "ERROR",
			Message: "not responding due to previous error.",
		})
	}

	v, ok := lookupVerb(name)
	if !ok {
		s.logger.Printf("unknown verb %q", name)
		return syntaxReply(line, fmt.Errorf("%w: unknown verb %q", errSyntax, name))
	}

	reply, err := v.handle(s, args)
	if err != nil {
		s.logger.Printf("%s: %v", name, err)
		return syntaxReply(line, err)
	}
	return reply
}

func faultReply(f *session.Fault) *session.Reply {
	return &session.Reply{Lines: []string{f.Line()}, Faults: []*session.Fault{f}}
}

func syntaxReply(line string, err error) *session.Reply {
	f := &session.Fault{Kind: session.InputError, Tag: "SYNERR", Message: "Syntax error.", Err: err}
	return &session.Reply{Lines: []string{": " + line, f.Line()}, Faults: []*session.Fault{f}}
}

func (s *Server) handleOutput(args string) (*session.Reply, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	return s.session.SetOutput(path), nil
}

func (s *Server) handleZooms(args string) (*session.Reply, error) {
	dir, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	return s.session.SetZoomsDir(dir), nil
}

func (s *Server) handleLoad(args string) (*session.Reply, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	return s.session.Load(path), nil
}

func (s *Server) handleOptim(args string) (*session.Reply, error) {
	layout, err := parseLayoutPoints(args)
	if err != nil {
		return nil, err
	}
	return s.session.Fit(&layout, false), nil
}

func (s *Server) handleReoptim(args string) (*session.Reply, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}
	return s.session.Fit(nil, false), nil
}

func (s *Server) handleOptim3(args string) (*session.Reply, error) {
	layout, err := parseLayoutPoints(args)
	if err != nil {
		return nil, err
	}
	return s.session.Fit(&layout, true), nil
}

func (s *Server) handleReoptim3(args string) (*session.Reply, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}
	return s.session.Fit(nil, true), nil
}

func (s *Server) handleRotate180(args string) (*session.Reply, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}
	return s.session.Rotate180(), nil
}

func (s *Server) handleRotateOK(args string) (*session.Reply, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}
	return s.session.RotateOK(), nil
}

func (s *Server) handleID(args string) (*session.Reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: id takes 4 integers, got %d fields", errSyntax, len(fields))
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errSyntax, err)
		}
		v[i] = n
	}
	return s.session.SetID(session.BoxID{Student: v[0], Page: v[1], Question: v[2], Answer: v[3]}), nil
}

func (s *Server) handleMesure(args string) (*session.Reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 9 {
		return nil, fmt.Errorf("%w: mesure takes 9 numbers, got %d fields", errSyntax, len(fields))
	}
	v, err := parseFloats(fields)
	if err != nil {
		return nil, err
	}
	var quad [4]geometry.Point
	for i := range quad {
		quad[i] = geometry.Pt(v[1+2*i], v[2+2*i])
	}
	return s.session.MeasureQuad(v[0], quad), nil
}

func (s *Server) handleMesure0(args string) (*session.Reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: mesure0 takes 6 arguments, got %d", errSyntax, len(fields))
	}
	shape := sampler.ParseShape(fields[1])
	v, err := parseFloats(append([]string{fields[0]}, fields[2:]...))
	if err != nil {
		return nil, err
	}
	return s.session.MeasureLayout(v[0], shape, v[1], v[2], v[3], v[4]), nil
}

func (s *Server) handleAnnote(args string) (*session.Reply, error) {
	if strings.TrimSpace(args) == "" {
		return nil, fmt.Errorf("%w: annote needs a text", errSyntax)
	}
	return s.session.Annotate(args), nil
}

// pathArg returns the rest of the line as a path. Inner spaces are kept.
func pathArg(args string) (string, error) {
	if strings.TrimSpace(args) == "" {
		return "", fmt.Errorf("%w: missing path", errSyntax)
	}
	return args, nil
}

func noArgs(args string) error {
	if strings.TrimSpace(args) != "" {
		return fmt.Errorf("%w: unexpected arguments %q", errSyntax, args)
	}
	return nil
}

// parseLayoutPoints reads the four "x,y" layout mark positions, NW NE SE
// SW.
func parseLayoutPoints(args string) ([4]geometry.Point, error) {
	var pts [4]geometry.Point
	fields := strings.Fields(args)
	if len(fields) != len(pts) {
		return pts, fmt.Errorf("%w: expected 4 x,y points, got %d fields", errSyntax, len(fields))
	}
	for i, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return pts, fmt.Errorf("%w: point %q is not x,y", errSyntax, f)
		}
		v, err := parseFloats([]string{xs, ys})
		if err != nil {
			return pts, err
		}
		pts[i] = geometry.Pt(v[0], v[1])
	}
	return pts, nil
}

// parseFloats parses finite numbers in the C locale.
func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errSyntax, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q is not finite", errSyntax, f)
		}
		out[i] = v
	}
	return out, nil
}

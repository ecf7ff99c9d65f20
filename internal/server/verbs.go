package server

import "github.com/ironsheep/scan-detect/internal/session"

// Verb describes one protocol command.
type Verb struct {
	Name        string
	Usage       string
	Description string

	handle func(s *Server, args string) (*session.Reply, error)
}

// Verbs returns the protocol commands, in the order they are usually sent
// for a sheet.
func Verbs() []Verb {
	return verbs
}

var verbs = []Verb{
	{
		Name:        "output",
		Usage:       "output <file>",
		Description: "Set the report image written at exit; applies from the next load.",
		handle:      (*Server).handleOutput,
	},
	{
		Name:        "zooms",
		Usage:       "zooms <dir>",
		Description: "Set the directory box zooms are written to.",
		handle:      (*Server).handleZooms,
	},
	{
		Name:        "load",
		Usage:       "load <scan>",
		Description: "Load a scan and detect its corner marks.",
		handle:      (*Server).handleLoad,
	},
	{
		Name:        "optim",
		Usage:       "optim x,y x,y x,y x,y",
		Description: "Fit the layout-to-scan transform from the layout mark centers (NW NE SE SW).",
		handle:      (*Server).handleOptim,
	},
	{
		Name:        "reoptim",
		Usage:       "reoptim",
		Description: "Fit again with the mark centers of the last optim.",
		handle:      (*Server).handleReoptim,
	},
	{
		Name:        "optim3",
		Usage:       "optim3 x,y x,y x,y x,y",
		Description: "Fit leaving out each mark in turn and keep the most orthonormal transform.",
		handle:      (*Server).handleOptim3,
	},
	{
		Name:        "reoptim3",
		Usage:       "reoptim3",
		Description: "Robust fit with the mark centers of the last optim.",
		handle:      (*Server).handleReoptim3,
	},
	{
		Name:        "rotate180",
		Usage:       "rotate180",
		Description: "Mark the scan as upside down (swaps opposite corners).",
		handle:      (*Server).handleRotate180,
	},
	{
		Name:        "rotateOK",
		Usage:       "rotateOK",
		Description: "Commit a pending rotation: turn the scan and move the transform.",
		handle:      (*Server).handleRotateOK,
	},
	{
		Name:        "id",
		Usage:       "id <student> <page> <question> <answer>",
		Description: "Set the identity of the next box.",
		handle:      (*Server).handleID,
	},
	{
		Name:        "mesure",
		Usage:       "mesure <prop> x y x y x y x y",
		Description: "Measure a box given by four scan corners.",
		handle:      (*Server).handleMesure,
	},
	{
		Name:        "mesure0",
		Usage:       "mesure0 <prop> <square|oval> <xmin> <xmax> <ymin> <ymax>",
		Description: "Measure a box given by its layout bounds.",
		handle:      (*Server).handleMesure0,
	},
	{
		Name:        "annote",
		Usage:       "annote <text>",
		Description: "Write text at the top of the report image.",
		handle:      (*Server).handleAnnote,
	},
}

func lookupVerb(name string) (Verb, bool) {
	for _, v := range verbs {
		if v.Name == name {
			return v, true
		}
	}
	return Verb{}, false
}

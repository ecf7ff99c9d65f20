// Package config parses the command line of the scan-detect engine.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/scan-detect/internal/detection"
	"github.com/ironsheep/scan-detect/internal/imaging"
	"github.com/ironsheep/scan-detect/internal/session"
)

// EnvLogLevel names the environment variable that enables debug logging
// when set to "debug".
const EnvLogLevel = "SCAN_DETECT_LOG_LEVEL"

// ErrInvalid is returned for option values outside their domain.
var ErrInvalid = errors.New("config: invalid option value")

// Config is the engine configuration.
type Config struct {
	Detection detection.Params
	Load      imaging.LoadOptions

	// Output is the report image written at exit.
	Output string

	ComponentReport bool
	PostProcess     bool
	PixelReport     bool

	Debug bool
}

// Parse reads the options in args (without the program name).
//
//	-x width   layout page width
//	-y height  layout page height
//	-d diam    corner mark diameter, layout units
//	-p tol     tolerance above the mark diameter, as a fraction
//	-m tol     tolerance below the mark diameter, as a fraction
//	-c n       minimum number of corner marks (3)
//	-t th      binarization threshold, fraction of the brightest value (0.6)
//	-o file    report image
//	-v         keep a report of the detected components
//	-P         draw the report on the processed scan
//	-r         keep only the red channel of color scans
//	-k         paint sampled pixels instead of box outlines
func Parse(args []string) (Config, error) {
	var c Config
	fs := flag.NewFlagSet("scan-detect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Float64Var(&c.Detection.LayoutWidth, "x", 0, "layout page width")
	fs.Float64Var(&c.Detection.LayoutHeight, "y", 0, "layout page height")
	fs.Float64Var(&c.Detection.MarkDiameter, "d", 0, "corner mark diameter")
	fs.Float64Var(&c.Detection.TolPlus, "p", 0, "tolerance above the mark diameter")
	fs.Float64Var(&c.Detection.TolMinus, "m", 0, "tolerance below the mark diameter")
	fs.IntVar(&c.Detection.MinMarks, "c", detection.DefaultMinMarks, "minimum number of corner marks")
	fs.Float64Var(&c.Load.Threshold, "t", imaging.DefaultThreshold, "binarization threshold")
	fs.StringVar(&c.Output, "o", "", "report image file")
	fs.BoolVar(&c.ComponentReport, "v", false, "component report")
	fs.BoolVar(&c.PostProcess, "P", false, "report on the processed scan")
	fs.BoolVar(&c.Load.IgnoreRed, "r", false, "keep only the red channel")
	fs.BoolVar(&c.PixelReport, "k", false, "paint sampled pixels")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected argument %q", ErrInvalid, fs.Arg(0))
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}

	c.Debug = os.Getenv(EnvLogLevel) == "debug"
	return c, nil
}

func (c Config) validate() error {
	d := c.Detection
	switch {
	case d.LayoutWidth <= 0 || d.LayoutHeight <= 0:
		return fmt.Errorf("%w: layout size %gx%g", ErrInvalid, d.LayoutWidth, d.LayoutHeight)
	case d.MarkDiameter <= 0:
		return fmt.Errorf("%w: mark diameter %g", ErrInvalid, d.MarkDiameter)
	case d.TolPlus < 0 || d.TolMinus < 0 || d.TolMinus >= 1:
		return fmt.Errorf("%w: tolerances +%g -%g", ErrInvalid, d.TolPlus, d.TolMinus)
	case d.MinMarks < 1 || d.MinMarks > 4:
		return fmt.Errorf("%w: minimum marks %d", ErrInvalid, d.MinMarks)
	case c.Load.Threshold <= 0 || c.Load.Threshold > 1:
		return fmt.Errorf("%w: threshold %g", ErrInvalid, c.Load.Threshold)
	}
	return nil
}

// SessionOptions returns the session options for this configuration.
func (c Config) SessionOptions(logger *log.Logger) session.Options {
	opts := session.Options{
		Detection:       c.Detection,
		Load:            c.Load,
		Output:          c.Output,
		ComponentReport: c.ComponentReport,
		PostProcess:     c.PostProcess,
		Logger:          logger,
		Debug:           c.Debug,
	}
	if c.PixelReport {
		opts.Illustrate = session.IllustratePixels
	}
	return opts
}

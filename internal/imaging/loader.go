package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

var (
	// ErrUnreadable is returned when a scan file cannot be opened or decoded.
	ErrUnreadable = errors.New("imaging: unreadable scan file")

	// ErrChannels is returned when a scan has a channel layout the loader
	// cannot reduce to a single channel.
	ErrChannels = errors.New("imaging: unsupported channel count")
)

// DefaultThreshold is the fraction of the brightest scan value below which
// a pixel is considered ink.
const DefaultThreshold = 0.6

// LoadOptions controls how a scan is reduced to a bitmap.
type LoadOptions struct {
	// Threshold is the binarization level as a fraction (0..1) of the
	// brightest pixel value. Zero selects DefaultThreshold.
	Threshold float64

	// IgnoreRed keeps only the red channel of color scans, so that marks
	// printed or written in red disappear from the bitmap.
	IgnoreRed bool
}

// Scan is a loaded and binarized scan.
type Scan struct {
	// Bitmap holds ink (dark) pixels as Ink and paper as Paper.
	Bitmap *Bitmap

	// Max is the brightest single-channel value found before smoothing.
	Max uint8

	// Level is the single-channel value at or above which a pixel is
	// paper. It is 256 when max*threshold reaches 255 and nothing is.
	Level int
}

// LoadScan reads an image file and converts it to a binarized bitmap.
//
// Supported formats are those registered with the standard image package
// plus TIFF and BMP (through github.com/disintegration/imaging).
//
// # Processing
//
//  1. Channel reduction: grayscale scans are used as-is. Color scans are
//     reduced to their luminance, or to their red channel when IgnoreRed
//     is set. Alpha-only images are rejected with ErrChannels.
//  2. The brightest value is recorded.
//  3. The image is smoothed with a small Gaussian blur (sigma 1).
//  4. Pixels strictly brighter than Max*Threshold become paper, all
//     others become ink. A cut at 255 or more leaves only ink.
func LoadScan(path string, opts LoadOptions) (*Scan, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return Binarize(img, opts)
}

// Binarize applies the LoadScan processing to an already decoded image.
func Binarize(img image.Image, opts LoadOptions) (*Scan, error) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	gray, err := singleChannel(img, opts.IgnoreRed)
	if err != nil {
		return nil, err
	}

	var max uint8
	for _, v := range gray.Pix {
		if v > max {
			max = v
		}
	}

	smoothed := toGray(imaging.Blur(gray, 1))

	cut := math.Floor(float64(max) * threshold)
	if cut >= 255 {
		// No 8-bit value lies above the cut: the whole scan is ink.
		bm := NewBitmap(gray.Rect.Dx(), gray.Rect.Dy())
		bm.FillRect(bm.Bounds(), Ink)
		return &Scan{Bitmap: bm, Max: max, Level: 256}, nil
	}
	level := int(cut) + 1

	// segment.Threshold whitens values >= level: that is paper. The
	// bitmap stores the complement so ink reads as Ink.
	paper := segment.Threshold(smoothed, uint8(level))
	bm := BitmapFromGray(paper)
	for i, v := range bm.gray.Pix {
		bm.gray.Pix[i] = 255 - v
	}

	return &Scan{Bitmap: bm, Max: max, Level: level}, nil
}

// LoadColor reads an image file as an 8-bit RGBA copy, for use as a
// report background.
func LoadColor(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return imaging.Clone(img), nil
}

// singleChannel reduces img to one 8-bit channel.
func singleChannel(img image.Image, ignoreRed bool) (*image.Gray, error) {
	switch src := img.(type) {
	case *image.Gray:
		return toGray(src), nil
	case *image.Gray16:
		return toGray(src), nil
	case *image.Alpha, *image.Alpha16:
		return nil, fmt.Errorf("%w: alpha-only image", ErrChannels)
	}

	if !ignoreRed {
		return toGray(img), nil
	}

	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			out.Pix[y*out.Stride+x] = c.R
		}
	}
	return out, nil
}

package sampler

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
)

// ErrResource is the root of every zoom file-system failure.
var ErrResource = errors.New("sampler: zoom resource error")

var (
	ErrZoomDirCreate = fmt.Errorf("%w: zoom dir creation error", ErrResource)
	ErrZoomDirStat   = fmt.Errorf("%w: zoom dir stat error", ErrResource)
	ErrZoomNotDir    = fmt.Errorf("%w: zoom dir is not a directory", ErrResource)
	ErrZoomSave      = fmt.Errorf("%w: zoom save error", ErrResource)
)

// ZoomName is the file name of the zoom of one answer box.
func ZoomName(question, answer int) string {
	return fmt.Sprintf("%d-%d.png", question, answer)
}

// ZoomRect returns the pixel rectangle saved as the zoom of a box on a
// width x height image: the bounding box of its truncated footprint,
// enlarged on each side by one twentieth of its width plus height.
//
// The bounds are seeded with the image extent (min at the far edge, max at
// zero), so a footprint lying wholly beyond one side collapses onto that
// edge.
func ZoomRect(footprint [4]geometry.Point, width, height int) image.Rectangle {
	xmin, xmax := width-1, 0
	ymin, ymax := height-1, 0
	for _, p := range footprint {
		x, y := truncate(p.X), truncate(p.Y)
		xmin, xmax = min(xmin, x), max(xmax, x)
		ymin, ymax = min(ymin, y), max(ymax, y)
	}
	d := (xmax - xmin + ymax - ymin) / 20
	return image.Rect(xmin-d, ymin-d, xmax+d, ymax+d)
}

// EnsureDir makes sure dir exists and is a directory, creating it (one
// level) when missing.
func EnsureDir(dir string) (created bool, err error) {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.Mkdir(dir, 0o755); err != nil {
			return false, fmt.Errorf("%w [%s]: %v", ErrZoomDirCreate, dir, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("%w [%s]: %v", ErrZoomDirStat, dir, err)
	case !info.IsDir():
		return false, fmt.Errorf("%w [%s]", ErrZoomNotDir, dir)
	}
	return false, nil
}

// SaveZoom crops the zoom of a box out of img and writes it as
// dir/question-answer.png. It returns the file name written.
func SaveZoom(img image.Image, dir string, question, answer int, footprint [4]geometry.Point) (string, error) {
	if _, err := EnsureDir(dir); err != nil {
		return "", err
	}

	name := ZoomName(question, answer)
	b := img.Bounds()
	zoom, err := imaging.Crop(img, ZoomRect(footprint, b.Dx(), b.Dy()), 0)
	if err != nil {
		return "", fmt.Errorf("%w [%s]: %v", ErrZoomSave, name, err)
	}
	if err := imaging.SaveImage(zoom, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrZoomSave, err)
	}
	return name, nil
}

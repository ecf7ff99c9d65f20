package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Crop extracts the region r of img, enlarged by margin pixels on every
// side and clipped to the image bounds.
func Crop(img image.Image, r image.Rectangle, margin int) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
		return nil, fmt.Errorf("invalid crop region %v: min must not exceed max", r)
	}

	region := r.Inset(-margin).Intersect(bounds)
	if region.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	return imaging.Crop(img, region), nil
}

// SaveImage writes img to path. The format is chosen from the file
// extension (png, jpg, tif, bmp, gif).
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Package imaging loads answer-sheet scans and provides the pixel-level
// primitives the detector and the box sampler work on.
//
// # Bitmaps
//
// A scan is reduced to a single channel, smoothed, and thresholded into a
// Bitmap where ink holds Ink (255) and paper holds Paper (0). A pixel is
// dark when its value is above 100, so the same test also works on images
// that went through grayscale morphology. Bitmap accessors are
// bounds-checked: reads outside return Paper, writes outside are dropped.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Bitmaps and overlays are always
// anchored at (0,0) whatever the bounds of the decoded image.
//
// # Reports
//
// An Overlay is a color copy of the scan (or a rendering of the bitmap) on
// which the detected frame, measured boxes, sampled pixels and annotations
// are drawn, then saved as the report image or cropped into zooms.
package imaging

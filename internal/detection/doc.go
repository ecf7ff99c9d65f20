// Package detection locates the four corner registration marks of a
// binarized answer-sheet scan.
//
// The marks are solid discs of known diameter printed near the page
// corners. Their expected size on the scan follows from the ratio between
// the scan size and the layout page size; a tolerance band around it
// filters the connected components of the bitmap, and the accepted
// components feed an extremes tracker that keeps the most north-west,
// north-east, south-east and south-west centers.
//
// # Coordinate System
//
// Coordinates are scan pixels, origin at the top-left. Component bounding
// boxes use inclusive Min and exclusive Max; centers are the midpoint of
// the first and last pixel, (x + (w-1)/2, y + (h-1)/2).
//
// # Degraded Results
//
// Detect always returns a fully populated CornerSet. When fewer than the
// required marks are found it also returns ErrInsufficientMarks; the
// corners then come partly from the tracker seeds and should not be
// trusted for a fit.
package detection

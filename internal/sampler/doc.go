// Package sampler measures how dark an answer box is on a binarized scan.
//
// A box is either a ScanQuad, four corners given directly in scan pixels,
// or a LayoutBounds, an axis-aligned rectangle in layout units together
// with the fitted transform and its inverse. Both are shrunk toward their
// center before sampling so that the printed box outline is not counted.
//
// Oval boxes are sampled as stadiums: along the long axis the two ends
// are half discs whose radius is half the short side, and in between only
// the short-axis bounds apply. An oval and a square of the same bounds
// therefore differ only near the four corners.
//
// Zooms are small images of a box cut out of the report overlay and
// written to a per-student directory, one file per question and answer.
package sampler

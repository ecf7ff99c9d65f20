// Package geometry provides the small numeric kernel shared by the fitter,
// the registration detector and the box sampler.
//
// # Coordinate System
//
// Points are real-valued and may live in either of two spaces:
//   - Layout space: the idealized coordinates of the blank original page.
//   - Scan space: pixel coordinates of the scanned image, (0,0) at the
//     top-left corner, X increasing rightward and Y increasing downward.
//
// A Transform maps layout space to scan space; its inverse (the back
// transform) maps scan pixels back to the layout.
//
// # Degenerate Systems
//
// Operations that divide by a determinant (Solve22, Transform.Invert) fail
// with ErrDegenerate when that determinant is exactly zero. They never
// panic, and they never return partially updated values: callers keep
// whatever they had before.
package geometry

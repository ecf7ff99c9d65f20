package geometry

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// ErrDegenerate is returned when a linear system or transform has a zero
// determinant.
var ErrDegenerate = errors.New("geometry: non-invertible system")

// Point represents a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// MoveCloser moves p and q toward each other by the proportion delta of
// the distance between them, independently on each axis.
func MoveCloser(p, q Point, delta float64) (Point, Point) {
	p.X, q.X = CloserXY(p.X, q.X, delta)
	p.Y, q.Y = CloserXY(p.Y, q.Y, delta)
	return p, q
}

// CloserXY moves two values toward each other by the proportion delta of
// their difference.
func CloserXY(m1, m2, delta float64) (float64, float64) {
	d := (m2 - m1) * delta
	return m1 + d, m2 - d
}

// Line is the line a*x + b*y + c = 0.
type Line struct {
	A, B, C float64
}

// LineThrough returns the line through p and q. The normal (A, B) is
// chosen so that points on the right of p->q (in image coordinates, with
// Y pointing down) give a non-positive value.
func LineThrough(p, q Point) Line {
	a := q.Y - p.Y
	b := -(q.X - p.X)
	return Line{A: a, B: b, C: -p.X*a - p.Y*b}
}

// Eval returns a*x + b*y + c.
func (l Line) Eval(x, y float64) float64 {
	return l.A*x + l.B*y + l.C
}

// Inside reports whether (x, y) lies in the closed half-plane Eval <= 0.
func (l Line) Inside(x, y float64) bool {
	return l.Eval(x, y) <= 0
}

// Solve22 solves the 2x2 system
//
//	a*x + b*y = e
//	c*x + d*y = f
//
// When ad - bc is exactly zero it returns ErrDegenerate and zero values;
// the caller is expected to keep its previous solution.
func Solve22(a, b, c, d, e, f float64) (x, y float64, err error) {
	delta := a*d - b*c
	if delta == 0 {
		return 0, 0, ErrDegenerate
	}
	return (d*e - b*f) / delta, (a*f - c*e) / delta, nil
}

// omitWeights returns unit weights for n samples, with a zero weight at
// index omit. A negative or out-of-range omit excludes nothing.
func omitWeights(n, omit int) []float64 {
	w := make([]float64, n)
	for i := range w {
		if i != omit {
			w[i] = 1
		}
	}
	return w
}

// Mean returns the mean of xs, excluding index omit when omit >= 0.
func Mean(xs []float64, omit int) float64 {
	return stat.Mean(xs, omitWeights(len(xs), omit))
}

// ScalarProduct returns the population covariance of xs and ys,
// mean(x*y) - mean(x)*mean(y), excluding index omit when omit >= 0.
func ScalarProduct(xs, ys []float64, omit int) float64 {
	w := omitWeights(len(xs), omit)
	xy := make([]float64, len(xs))
	for i := range xs {
		xy[i] = xs[i] * ys[i]
	}
	return stat.Mean(xy, w) - stat.Mean(xs, w)*stat.Mean(ys, w)
}

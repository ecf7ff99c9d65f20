// Package fit estimates the affine transform between the layout positions
// of the registration marks and their detected positions on a scan.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"gonum.org/v1/gonum/floats"
)

// ErrPointCount is returned when the source and target point sets differ
// in length or are too short to constrain an affine transform.
var ErrPointCount = errors.New("fit: invalid point sets")

// Fit computes the affine transform T minimizing the sum of squared
// distances from T(src[i]) to dst[i]. The point at index omit is left out
// when omit >= 0.
//
// The linear part comes from the normal equations built on the centered
// scalar products of the coordinates; the translation is then derived from
// the means. The returned rmse is the root mean square residual distance
// over the points that took part in the fit.
func Fit(src, dst []geometry.Point, omit int) (geometry.Transform, float64, error) {
	n := len(src)
	used := n
	if omit >= 0 && omit < n {
		used--
	}
	if n != len(dst) || used < 3 {
		return geometry.Transform{}, 0, fmt.Errorf("%w: %d sources, %d targets, omit %d", ErrPointCount, n, len(dst), omit)
	}

	x, y := split(src)
	xp, yp := split(dst)

	sxx := geometry.ScalarProduct(x, x, omit)
	sxy := geometry.ScalarProduct(x, y, omit)
	syy := geometry.ScalarProduct(y, y, omit)

	sxxp := geometry.ScalarProduct(x, xp, omit)
	syxp := geometry.ScalarProduct(y, xp, omit)
	sxyp := geometry.ScalarProduct(x, yp, omit)
	syyp := geometry.ScalarProduct(y, yp, omit)

	var t geometry.Transform
	var err error
	if t.A, t.B, err = geometry.Solve22(sxx, sxy, sxy, syy, sxxp, syxp); err != nil {
		return geometry.Transform{}, 0, err
	}
	if t.C, t.D, err = geometry.Solve22(sxx, sxy, sxy, syy, sxyp, syyp); err != nil {
		return geometry.Transform{}, 0, err
	}

	mx, my := geometry.Mean(x, omit), geometry.Mean(y, omit)
	t.E = geometry.Mean(xp, omit) - (t.A*mx + t.B*my)
	t.F = geometry.Mean(yp, omit) - (t.C*mx + t.D*my)

	residuals := make([]float64, 0, 2*used)
	for i := range src {
		if i == omit {
			continue
		}
		p := t.Apply(src[i])
		residuals = append(residuals, dst[i].X-p.X, dst[i].Y-p.Y)
	}
	rmse := math.Sqrt(floats.Dot(residuals, residuals) / float64(used))

	return t, rmse, nil
}

// OrthonormalityDeviation returns a squared distance from the linear part
// of t to the nearest similarity transform:
//
//	((c+b)^2 + (d-a)^2) / (a^2 + b^2)
//
// It is zero for any rotation combined with a uniform scale and
// translation. A transform with a = b = 0 scores +Inf.
func OrthonormalityDeviation(t geometry.Transform) float64 {
	den := t.A*t.A + t.B*t.B
	if den == 0 {
		return math.Inf(1)
	}
	return ((t.C+t.B)*(t.C+t.B) + (t.D-t.A)*(t.D-t.A)) / den
}

// Attempt is one leave-one-out fit.
type Attempt struct {
	Omit      int
	Transform geometry.Transform
	Score     float64
	Err       error
}

// RobustResult is the outcome of RobustFit.
type RobustResult struct {
	// Transform is the most orthonormal of the leave-one-out fits.
	Transform geometry.Transform

	// Omit is the index of the point excluded from the chosen fit.
	Omit int

	// Score is the orthonormality deviation of the chosen fit.
	Score float64

	// Attempts lists every leave-one-out fit in index order.
	Attempts []Attempt
}

// Quality returns the square root of the chosen fit's score.
func (r RobustResult) Quality() float64 {
	return math.Sqrt(r.Score)
}

// RobustFit fits the transform len(src) times, leaving out one point each
// time, and keeps the fit whose linear part is closest to a similarity
// (lowest OrthonormalityDeviation). A single badly detected mark is
// therefore dropped without any explicit outlier threshold. Ties keep the
// lowest index. Attempts that fail as degenerate are skipped; if all of
// them fail the last error is returned.
func RobustFit(src, dst []geometry.Point) (RobustResult, error) {
	res := RobustResult{Omit: -1}
	var lastErr error
	for i := range src {
		t, _, err := Fit(src, dst, i)
		a := Attempt{Omit: i, Transform: t, Err: err}
		if err != nil {
			a.Score = math.Inf(1)
			lastErr = err
			res.Attempts = append(res.Attempts, a)
			continue
		}
		a.Score = OrthonormalityDeviation(t)
		res.Attempts = append(res.Attempts, a)
		if res.Omit < 0 || a.Score < res.Score {
			res.Omit = i
			res.Score = a.Score
			res.Transform = t
		}
	}
	if res.Omit < 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: %d points", ErrPointCount, len(src))
		}
		return res, lastErr
	}
	return res, nil
}

func split(pts []geometry.Point) (xs, ys []float64) {
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

package fit

import (
	"math"
	"testing"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layoutMarks are the four corner mark centers of an A4-like layout, in
// NW, NE, SE, SW order.
var layoutMarks = []geometry.Point{
	geometry.Pt(12, 12),
	geometry.Pt(198, 12),
	geometry.Pt(198, 285),
	geometry.Pt(12, 285),
}

func similarity(scale, degrees, tx, ty float64) geometry.Transform {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return geometry.Transform{A: scale * c, B: -scale * s, C: scale * s, D: scale * c, E: tx, F: ty}
}

func applyAll(t geometry.Transform, pts []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

func assertTransformNear(t *testing.T, want, got geometry.Transform, delta float64) {
	t.Helper()
	assert.InDelta(t, want.A, got.A, delta, "a")
	assert.InDelta(t, want.B, got.B, delta, "b")
	assert.InDelta(t, want.C, got.C, delta, "c")
	assert.InDelta(t, want.D, got.D, delta, "d")
	assert.InDelta(t, want.E, got.E, delta*100, "e")
	assert.InDelta(t, want.F, got.F, delta*100, "f")
}

func TestFit_ExactAffine(t *testing.T) {
	want := geometry.Transform{A: 11.7, B: 0.3, C: -0.2, D: 11.9, E: 35, F: -18}
	targets := applyAll(want, layoutMarks)

	got, rmse, err := Fit(layoutMarks, targets, -1)
	require.NoError(t, err)
	assertTransformNear(t, want, got, 1e-9)
	assert.InDelta(t, 0, rmse, 1e-9)
}

func TestFit_OmitIgnoresPoint(t *testing.T) {
	want := similarity(11.8, 0.7, 40, 60)
	targets := applyAll(want, layoutMarks)
	targets[1] = geometry.Pt(targets[1].X+80, targets[1].Y-35)

	got, rmse, err := Fit(layoutMarks, targets, 1)
	require.NoError(t, err)
	assertTransformNear(t, want, got, 1e-9)
	assert.InDelta(t, 0, rmse, 1e-9)

	_, rmseAll, err := Fit(layoutMarks, targets, -1)
	require.NoError(t, err)
	assert.Greater(t, rmseAll, 1.0)
}

func TestFit_Degenerate(t *testing.T) {
	// Collinear sources make the normal equations singular.
	src := []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 1), geometry.Pt(2, 2), geometry.Pt(3, 3)}
	dst := []geometry.Point{geometry.Pt(5, 5), geometry.Pt(6, 7), geometry.Pt(7, 9), geometry.Pt(8, 11)}

	_, _, err := Fit(src, dst, -1)
	assert.ErrorIs(t, err, geometry.ErrDegenerate)
}

func TestFit_PointCount(t *testing.T) {
	_, _, err := Fit(layoutMarks, layoutMarks[:3], -1)
	assert.ErrorIs(t, err, ErrPointCount)

	_, _, err = Fit(layoutMarks[:3], layoutMarks[:3], 0)
	assert.ErrorIs(t, err, ErrPointCount)
}

func TestOrthonormalityDeviation(t *testing.T) {
	assert.InDelta(t, 0, OrthonormalityDeviation(similarity(3, 17, 5, 9)), 1e-12)
	assert.InDelta(t, 0, OrthonormalityDeviation(geometry.Identity()), 1e-12)

	// Pure shear: (c+b)^2 = 0.25, (d-a)^2 = 0, a^2+b^2 = 1.25.
	shear := geometry.Transform{A: 1, B: 0.5, C: 0, D: 1}
	assert.InDelta(t, 0.2, OrthonormalityDeviation(shear), 1e-12)

	assert.True(t, math.IsInf(OrthonormalityDeviation(geometry.Transform{C: 1, D: 1}), 1))
}

func TestRobustFit_RejectsCorruptedMark(t *testing.T) {
	want := similarity(11.8, 1.2, 40, 60)

	for bad := range layoutMarks {
		targets := applyAll(want, layoutMarks)
		targets[bad] = geometry.Pt(targets[bad].X+45, targets[bad].Y-30)

		res, err := RobustFit(layoutMarks, targets)
		require.NoError(t, err)
		require.Len(t, res.Attempts, 4)

		assert.Equal(t, bad, res.Omit, "corrupted index %d", bad)
		for _, a := range res.Attempts {
			if a.Omit != bad {
				assert.Greater(t, a.Score, res.Score, "attempt omitting %d", a.Omit)
			}
		}
		assertTransformNear(t, want, res.Transform, 1e-8)
		assert.InDelta(t, 0, res.Quality(), 1e-6)
	}
}

func TestRobustFit_AllDegenerate(t *testing.T) {
	src := []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 1), geometry.Pt(2, 2), geometry.Pt(3, 3)}
	res, err := RobustFit(src, src)
	assert.ErrorIs(t, err, geometry.ErrDegenerate)
	assert.Equal(t, -1, res.Omit)
}

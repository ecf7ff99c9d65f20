package geometry

import "fmt"

// Transform is the affine map
//
//	x' = a*x + b*y + e
//	y' = c*x + d*y + f
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Apply applies the transform to a point.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.B*p.Y + t.E,
		Y: t.C*p.X + t.D*p.Y + t.F,
	}
}

// ApplyXY applies the transform to raw coordinates.
func (t Transform) ApplyXY(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.E, t.C*x + t.D*y + t.F
}

// Det returns the determinant of the linear part.
func (t Transform) Det() float64 {
	return t.A*t.D - t.B*t.C
}

// Usable reports whether the transform can be inverted.
func (t Transform) Usable() bool {
	return t.Det() != 0
}

// Invert returns the closed-form inverse. It returns ErrDegenerate when
// the determinant is exactly zero.
func (t Transform) Invert() (Transform, error) {
	delta := t.Det()
	if delta == 0 {
		return Transform{}, ErrDegenerate
	}
	return Transform{
		A: t.D / delta,
		B: -t.B / delta,
		E: (t.B*t.F - t.E*t.D) / delta,
		C: -t.C / delta,
		D: t.A / delta,
		F: (t.E*t.C - t.A*t.F) / delta,
	}, nil
}

// Lines renders the coefficients one per line, with the given suffix
// after each name ("" for a direct transform, "'" for a back transform).
func (t Transform) Lines(suffix string) []string {
	return []string{
		fmt.Sprintf("a%s=%f", suffix, t.A),
		fmt.Sprintf("b%s=%f", suffix, t.B),
		fmt.Sprintf("c%s=%f", suffix, t.C),
		fmt.Sprintf("d%s=%f", suffix, t.D),
		fmt.Sprintf("e%s=%f", suffix, t.E),
		fmt.Sprintf("f%s=%f", suffix, t.F),
	}
}

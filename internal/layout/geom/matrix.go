package geom

import (
	"errors"
	"math"
)

// ErrSingular is returned when a matrix has no inverse.
var ErrSingular = errors.New("matrix is not invertible")

// Matrix is a 2D affine transform.
// [ a c e ]
// [ b d f ]
// [ 0 0 1 ]
type Matrix struct {
	A, B, C, D, E, F float32
}

// Identity returns the matrix that leaves points unchanged.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// IsIdentity reports whether m is the identity within tolerance.
func (m Matrix) IsIdentity() bool {
	return Approx(m.A, 1) && Approx(m.B, 0) && Approx(m.C, 0) && Approx(m.D, 1) && Approx(m.E, 0) && Approx(m.F, 0)
}

// Multiply returns m * n. n is applied first.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// ApplyRect returns the bounding box of the transformed rectangle.
func (m Matrix) ApplyRect(r Rect) Rect {
	pts := [4]Point{
		m.Apply(Point{X: r.X, Y: r.Y}),
		m.Apply(Point{X: r.Right(), Y: r.Y}),
		m.Apply(Point{X: r.X, Y: r.Bottom()}),
		m.Apply(Point{X: r.Right(), Y: r.Bottom()}),
	}
	x0, y0, x1, y1 := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		x0, y0 = Min(x0, p.X), Min(y0, p.Y)
		x1, y1 = Max(x1, p.X), Max(y1, p.Y)
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inverse calculates the inverse transform. A zero determinant yields ErrSingular.
func (m Matrix) Inverse() (Matrix, error) {
	det := float64(m.A)*float64(m.D) - float64(m.B)*float64(m.C)
	if math.Abs(det) < 1e-12 {
		return Matrix{}, ErrSingular
	}
	inv := 1 / det
	a, b, c, d := float64(m.A), float64(m.B), float64(m.C), float64(m.D)
	e, f := float64(m.E), float64(m.F)
	return Matrix{
		A: float32(d * inv),
		B: float32(-b * inv),
		C: float32(-c * inv),
		D: float32(a * inv),
		E: float32((c*f - d*e) * inv),
		F: float32((b*e - a*f) * inv),
	}, nil
}

func Translate(tx, ty float32) Matrix {
	return Matrix{A: 1, D: 1, E: tx, F: ty}
}

func Scale(sx, sy float32) Matrix {
	return Matrix{A: sx, D: sy}
}

// Rotate builds a rotation. Angle is in radians, clockwise in screen space.
func Rotate(angle float32) Matrix {
	s, c := math.Sincos(float64(angle))
	return Matrix{A: float32(c), B: float32(s), C: float32(-s), D: float32(c)}
}

// Skew builds a skew. Angles are in radians.
func Skew(ax, ay float32) Matrix {
	return Matrix{A: 1, B: float32(math.Tan(float64(ay))), C: float32(math.Tan(float64(ax))), D: 1}
}

// About wraps m so it applies around the origin point o.
func (m Matrix) About(o Point) Matrix {
	return Translate(o.X, o.Y).Multiply(m).Multiply(Translate(-o.X, -o.Y))
}

package layout

import (
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// transformMatrix builds the matrix of a transform list applied about the
// transform origin of the physical border box. The rightmost function is
// applied to points first.
func transformMatrix(st *style.ComputedStyle, box geom.Rect) geom.Matrix {
	m := geom.Identity()
	for _, fn := range st.Transform {
		m = m.Multiply(transformFunc(fn, box))
	}
	ox := st.TransformOrigin[0].ResolveOr(box.W, true, box.W/2)
	oy := st.TransformOrigin[1].ResolveOr(box.H, true, box.H/2)
	return m.About(geom.Point{X: box.X + ox, Y: box.Y + oy})
}

func transformFunc(fn style.TransformFunc, box geom.Rect) geom.Matrix {
	switch fn.Kind {
	case style.TransformTranslate:
		return geom.Translate(fn.X.ResolveOr(box.W, true, 0), fn.Y.ResolveOr(box.H, true, 0))
	case style.TransformScale:
		return geom.Scale(fn.SX, fn.SY)
	case style.TransformRotate:
		return geom.Rotate(fn.Angle)
	case style.TransformSkew:
		return geom.Skew(fn.Angle, fn.AngleY)
	case style.TransformMatrix:
		return fn.Matrix
	}
	return geom.Identity()
}

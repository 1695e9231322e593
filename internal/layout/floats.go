package layout

import (
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

type floatBox struct {
	side style.Float
	// rect is the margin box in the content coordinates of the block
	// formatting context root.
	rect geom.LogicalRect
}

// floatContext tracks the floats placed so far in one block formatting
// context. Left floats sit at the line-left edge (inline 0).
type floatContext struct {
	boxes   []floatBox
	lastTop float32
}

func newFloatContext() *floatContext { return &floatContext{} }

func (fc *floatContext) empty() bool { return fc == nil || len(fc.boxes) == 0 }

// overlaps reports whether a float intersects the block range [y0, y1).
// A zero-height query still hits the float it starts inside.
func (f floatBox) overlaps(y0, y1 float32) bool {
	if y1 <= y0 {
		y1 = y0 + geom.Epsilon
	}
	return f.rect.Size.Block > 0 && f.rect.Origin.Block < y1 && f.rect.BlockEnd() > y0
}

// band returns the inline interval left free by floats in [y0, y1), within
// the bounds [ls, le].
func (fc *floatContext) band(y0, y1, ls, le float32) (float32, float32) {
	start, end := ls, le
	if fc == nil {
		return start, end
	}
	for _, f := range fc.boxes {
		if !f.overlaps(y0, y1) {
			continue
		}
		if f.side == style.FloatLeft {
			start = geom.Max(start, f.rect.InlineEnd())
		} else {
			end = geom.Min(end, f.rect.Origin.Inline)
		}
	}
	return start, end
}

// clearY is the block position below every float the clear value names.
func (fc *floatContext) clearY(c style.Clear) float32 {
	var y float32
	if fc == nil {
		return y
	}
	for _, f := range fc.boxes {
		if clearsSide(c, f.side) {
			y = geom.Max(y, f.rect.BlockEnd())
		}
	}
	return y
}

// hasSide reports whether any float the clear value names has been placed.
func (fc *floatContext) hasSide(c style.Clear) bool {
	if fc == nil || c == style.ClearNone {
		return false
	}
	for _, f := range fc.boxes {
		if clearsSide(c, f.side) {
			return true
		}
	}
	return false
}

func clearsSide(c style.Clear, side style.Float) bool {
	switch c {
	case style.ClearBoth:
		return true
	case style.ClearLeft:
		return side == style.FloatLeft
	case style.ClearRight:
		return side == style.FloatRight
	}
	return false
}

// nextBottom returns the closest float bottom strictly below y.
func (fc *floatContext) nextBottom(y float32) (float32, bool) {
	best, ok := float32(0), false
	if fc == nil {
		return best, ok
	}
	for _, f := range fc.boxes {
		if b := f.rect.BlockEnd(); b > y+geom.Epsilon && (!ok || b < best) {
			best, ok = b, true
		}
	}
	return best, ok
}

// maxBottom is the lowest float bottom, used to grow BFC roots.
func (fc *floatContext) maxBottom() float32 {
	var y float32
	if fc == nil {
		return y
	}
	for _, f := range fc.boxes {
		y = geom.Max(y, f.rect.BlockEnd())
	}
	return y
}

// fit finds the first block position at or below y where a box of the given
// margin box size fits between floats inside [ls, le]. When nothing fits it
// returns the position below the last float.
func (fc *floatContext) fit(w, h, y, ls, le float32) (top, start, end float32) {
	for {
		s, e := fc.band(y, y+h, ls, le)
		if e-s >= w-geom.Epsilon {
			return y, s, e
		}
		ny, ok := fc.nextBottom(y)
		if !ok {
			return y, s, e
		}
		y = ny
	}
}

// place positions a float margin box no higher than minY or any earlier
// float and records it.
func (fc *floatContext) place(w, h float32, side style.Float, minY, ls, le float32) geom.LogicalRect {
	y := geom.Max(minY, fc.lastTop)
	y, s, e := fc.fit(w, h, y, ls, le)
	x := s
	if side == style.FloatRight {
		x = e - w
	}
	r := geom.LogicalRect{
		Origin: geom.LogicalPoint{Inline: x, Block: y},
		Size:   geom.LogicalSize{Inline: w, Block: h},
	}
	fc.boxes = append(fc.boxes, floatBox{side: side, rect: r})
	fc.lastTop = y
	return r
}

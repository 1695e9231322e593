package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprox(t *testing.T) {
	assert.True(t, Approx(1.0, 1.005))
	assert.False(t, Approx(1.0, 1.02))
	assert.True(t, LessOrApprox(10.005, 10))
}

func TestRoundHalfAway(t *testing.T) {
	assert.Equal(t, float32(3), RoundHalfAway(2.5))
	assert.Equal(t, float32(-3), RoundHalfAway(-2.5))
	assert.Equal(t, float32(2), RoundHalfAway(2.49))
}

func TestRectContainsIsHalfOpen(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.True(t, r.Contains(Point{X: 0, Y: 0}))
	assert.True(t, r.Contains(Point{X: 9.99, Y: 9.99}))
	assert.False(t, r.Contains(Point{X: 10, Y: 5}))
}

func TestRectIntersectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	assert.Equal(t, Rect{X: 5, Y: 5, W: 5, H: 5}, a.Intersect(b))
	assert.Equal(t, Rect{X: 0, Y: 0, W: 15, H: 15}, a.Union(b))
	assert.Equal(t, Rect{}, a.Intersect(Rect{X: 20, Y: 20, W: 1, H: 1}))
	assert.Equal(t, b, Rect{}.Union(b))
}

func TestWritingModeRectToPhysical(t *testing.T) {
	r := LogicalRect{Origin: LogicalPoint{Inline: 10, Block: 20}, Size: LogicalSize{Inline: 100, Block: 30}}
	container := Size{W: 400, H: 300}

	assert.Equal(t, Rect{X: 10, Y: 20, W: 100, H: 30}, HorizontalTB.RectToPhysical(r, container))
	assert.Equal(t, Rect{X: 20, Y: 10, W: 30, H: 100}, VerticalLR.RectToPhysical(r, container))
	assert.Equal(t, Rect{X: 350, Y: 10, W: 30, H: 100}, VerticalRL.RectToPhysical(r, container))
}

func TestWritingModeEdgesRoundTrip(t *testing.T) {
	e := LogicalEdges{InlineStart: 1, InlineEnd: 2, BlockStart: 3, BlockEnd: 4}
	for _, w := range []WritingMode{HorizontalTB, VerticalLR, VerticalRL} {
		assert.Equal(t, e, w.EdgesToLogical(w.EdgesToPhysical(e)), w.String())
	}
}

func TestMatrixInverse(t *testing.T) {
	m := Translate(10, 20).Multiply(Rotate(math.Pi / 4)).Multiply(Scale(2, 3))
	inv, err := m.Inverse()
	require.NoError(t, err)

	p := Point{X: 7, Y: -3}
	back := inv.Apply(m.Apply(p))
	assert.InDelta(t, p.X, back.X, 0.01)
	assert.InDelta(t, p.Y, back.Y, 0.01)

	_, err = Scale(0, 1).Inverse()
	assert.ErrorIs(t, err, ErrSingular)
}

func TestMatrixAbout(t *testing.T) {
	m := Scale(2, 2).About(Point{X: 50, Y: 50})
	p := m.Apply(Point{X: 50, Y: 50})
	assert.InDelta(t, 50, p.X, 0.01)
	assert.InDelta(t, 50, p.Y, 0.01)
	assert.True(t, Identity().IsIdentity())
}

func TestSnapRect(t *testing.T) {
	r := SnapRect(Rect{X: 0.4, Y: 0.5, W: 10.2, H: 9.9}, 1)
	assert.Equal(t, Rect{X: 0, Y: 1, W: 11, H: 9}, r)
}

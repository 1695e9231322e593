package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

func newBuilder(t *testing.T, debug bool) (*Builder, *diag.Collector) {
	t.Helper()
	c := diag.NewCollector(zaptest.NewLogger(t))
	return NewBuilder(1, debug, c), c
}

func TestBalancedListValidates(t *testing.T) {
	b, c := newBuilder(t, true)
	b.PushTransform(PushTransform{Node: 1, Matrix: geom.Translate(5, 5)})
	b.PushClip(PushClip{Node: 1, Rect: geom.Rect{W: 100, H: 100}})
	b.Draw(Rectangle{Node: 2, Rect: geom.Rect{X: 10, Y: 10, W: 20, H: 20}, Color: style.Black})
	b.Pop(KindPopClip)
	b.Pop(KindPopTransform)

	list := b.Finish()
	require.NoError(t, list.Validate())
	assert.Equal(t, 5, list.Len())
	assert.Equal(t, 1, list.Count(KindRectangle))
	assert.Empty(t, c.Messages())
}

func TestValidateRejectsMismatchedPop(t *testing.T) {
	list := &List{Items: []Item{PushClip{Node: 1}, PopTransform{Node: 1}}}
	assert.ErrorIs(t, list.Validate(), ErrUnbalanced)

	list = &List{Items: []Item{PushOpacity{Node: 1, Opacity: 0.5}}}
	assert.ErrorIs(t, list.Validate(), ErrUnbalanced)
}

func TestDrawSnapsRects(t *testing.T) {
	b, _ := newBuilder(t, false)
	b.Draw(Rectangle{Rect: geom.Rect{X: 0.4, Y: 0.6, W: 10.2, H: 9.8}})
	r := b.Finish().Items[0].Bounds()
	assert.Equal(t, geom.Rect{X: 0, Y: 1, W: 11, H: 9}, r)
}

func TestUnbalancedFragmentDroppedInRelease(t *testing.T) {
	b, c := newBuilder(t, false)
	b.Draw(Rectangle{Node: 1, Rect: geom.Rect{W: 10, H: 10}})

	m := b.Begin(2)
	b.PushClip(PushClip{Node: 2, Rect: geom.Rect{W: 5, H: 5}})
	b.Draw(Rectangle{Node: 3, Rect: geom.Rect{W: 2, H: 2}})
	b.End(m)

	list := b.Finish()
	require.NoError(t, list.Validate())
	assert.Equal(t, 1, list.Len(), "only the item before the fragment survives")
	assert.True(t, c.Has(diag.CodeUnbalancedClip))
}

func TestUnbalancedFragmentPanicsInDebug(t *testing.T) {
	b, _ := newBuilder(t, true)
	m := b.Begin(2)
	b.PushClip(PushClip{Node: 2, Rect: geom.Rect{W: 5, H: 5}})
	assert.Panics(t, func() { b.End(m) })
}

func TestMismatchedPopIsIgnoredInRelease(t *testing.T) {
	b, c := newBuilder(t, false)
	b.PushOpacity(PushOpacity{Node: 1, Opacity: 0.5})
	b.Pop(KindPopClip)
	b.Pop(KindPopOpacity)

	list := b.Finish()
	require.NoError(t, list.Validate())
	assert.True(t, c.Has(diag.CodeUnbalancedClip))
}

func TestPopTakesPopKinds(t *testing.T) {
	b, _ := newBuilder(t, true)
	b.PushClip(PushClip{Node: 1, Rect: geom.Rect{W: 5, H: 5}})
	assert.Panics(t, func() { b.Pop(KindPushClip) }, "a push kind never closes an entry")
	assert.Panics(t, func() { b.Pop(KindPopOpacity) })
	assert.NotPanics(t, func() { b.Pop(KindPopClip) })
	require.NoError(t, b.Finish().Validate())
}

func TestFinishClosesOpenEntries(t *testing.T) {
	b, c := newBuilder(t, false)
	b.PushTransform(PushTransform{Node: 1, Matrix: geom.Identity()})
	b.PushClip(PushClip{Node: 1, Rect: geom.Rect{W: 5, H: 5}})

	list := b.Finish()
	require.NoError(t, list.Validate())
	assert.Equal(t, KindPopClip, list.Items[2].Kind())
	assert.Equal(t, KindPopTransform, list.Items[3].Kind())
	assert.True(t, c.Has(diag.CodeUnbalancedClip))
}

func TestWindowFiltersAndTranslates(t *testing.T) {
	list := &List{Items: []Item{
		Rectangle{Node: 1, Rect: geom.Rect{Y: 100, W: 50, H: 50}},
		Rectangle{Node: 2, Rect: geom.Rect{Y: 600, W: 50, H: 50}},
		PushTransform{Node: 3, Matrix: geom.Scale(2, 2)},
		Rectangle{Node: 4, Rect: geom.Rect{Y: 900, W: 10, H: 10}},
		PopTransform{Node: 3},
	}}

	page := list.Window(geom.Rect{Y: 500, W: 800, H: 500})
	require.NoError(t, page.Validate())

	var owners []int32
	for _, it := range page.Items {
		if it.Kind() == KindRectangle {
			owners = append(owners, int32(it.Owner()))
		}
	}
	assert.Equal(t, []int32{2, 4}, owners, "items under a transform are kept")

	shift, ok := page.Items[0].(PushTransform)
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 0, Y: 100}, shift.Matrix.Apply(geom.Point{Y: 600}))
}

func TestShadowBoundsIncludeBlurAndOffset(t *testing.T) {
	s := BoxShadow{Rect: geom.Rect{W: 10, H: 10}, Offset: geom.Point{X: 5, Y: 5}, Blur: 2, Spread: 1}
	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 18, H: 18}, s.Bounds())

	s.Inset = true
	assert.Equal(t, s.Rect, s.Bounds())
}

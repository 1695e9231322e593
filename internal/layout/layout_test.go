package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

var red = style.Color{R: 255, A: 255}

func itemsOf(l *display.List, node tree.NodeID, k display.Kind) int {
	n := 0
	for _, it := range l.Items {
		if it.Kind() == k && it.Owner() == node {
			n++
		}
	}
	return n
}

func TestFlexGrowSharesFreeSpace(t *testing.T) {
	d := newDoc(blockStyle(nil))
	row := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Display = style.DisplayFlex
	}))
	var items []tree.NodeID
	for range 3 {
		items = append(items, d.el(row, "div", blockStyle(func(st *style.ComputedStyle) {
			st.FlexGrow = 1
			st.FlexBasis = style.Px(0)
			st.Height = style.Px(50)
		})))
	}

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	for i, id := range items {
		r := rectOf(t, res, id)
		assert.InDelta(t, 800.0/3, r.Rect.W, 0.01)
		assert.InDelta(t, float32(i)*800/3, r.Rect.X, 0.01)
		assert.InDelta(t, 0, r.Rect.Y, 0.01)
	}
	assert.InDelta(t, 50, rectOf(t, res, row).Rect.H, 0.01)
}

func TestFlexJustifyCenterAndStretch(t *testing.T) {
	d := newDoc(blockStyle(nil))
	row := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Display = style.DisplayFlex
		st.JustifyContent = style.JustifyCenter
		st.Height = style.Px(80)
	}))
	a := d.el(row, "div", blockStyle(func(st *style.ComputedStyle) { st.Width = style.Px(100) }))
	b := d.el(row, "div", blockStyle(sized(100, 30)))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	ra, rb := rectOf(t, res, a), rectOf(t, res, b)
	assert.InDelta(t, 300, ra.Rect.X, 0.01)
	assert.InDelta(t, 400, rb.Rect.X, 0.01)
	assert.InDelta(t, 80, ra.Rect.H, 0.01, "auto height items stretch to the line")
	assert.InDelta(t, 30, rb.Rect.H, 0.01)
}

func TestTableColumnsShareWidth(t *testing.T) {
	d := newDoc(blockStyle(nil))
	table := d.el(d.root, "table", blockStyle(func(st *style.ComputedStyle) {
		st.Display = style.DisplayTable
		st.Width = style.Px(300)
	}))
	row := d.el(table, "tr", blockStyle(func(st *style.ComputedStyle) { st.Display = style.DisplayTableRow }))
	var cells []tree.NodeID
	for range 2 {
		cell := d.el(row, "td", blockStyle(func(st *style.ComputedStyle) { st.Display = style.DisplayTableCell }))
		d.el(cell, "div", blockStyle(sized(100, 20)))
		cells = append(cells, cell)
	}

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	assert.InDelta(t, 0, rectOf(t, res, cells[0]).Rect.X, 0.01)
	assert.InDelta(t, 150, rectOf(t, res, cells[1]).Rect.X, 0.01)
	for _, c := range cells {
		assert.InDelta(t, 150, rectOf(t, res, c).Rect.W, 0.01)
		assert.InDelta(t, 20, rectOf(t, res, c).Rect.H, 0.01)
	}
	assert.InDelta(t, 20, rectOf(t, res, table).Rect.H, 0.01)
}

func TestAbsoluteInsetsStretchWidth(t *testing.T) {
	d := newDoc(blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(400) }))
	abs := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Position = style.PositionAbsolute
		st.Inset = style.Sides{Top: style.Px(30), Left: style.Px(10), Right: style.Px(10), Bottom: style.Auto}
		st.Height = style.Px(20)
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	r := rectOf(t, res, abs)
	assert.Equal(t, geom.Rect{X: 10, Y: 30, W: 780, H: 20}, r.Rect)
	assert.InDelta(t, 400, rectOf(t, res, d.root).Rect.H, 0.01, "out-of-flow boxes do not size their container")
}

func TestRelativeOffsetMovesOnlyTheBox(t *testing.T) {
	d := newDoc(blockStyle(nil))
	rel := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Position = style.PositionRelative
		st.Inset.Top, st.Inset.Left = style.Px(10), style.Px(5)
		st.Height = style.Px(20)
	}))
	next := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(20) }))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	r := rectOf(t, res, rel)
	assert.InDelta(t, 10, r.Rect.Y, 0.01)
	assert.InDelta(t, 5, r.Rect.X, 0.01)
	assert.InDelta(t, 20, rectOf(t, res, next).Rect.Y, 0.01)
}

func TestPointerEventsNoneIsTransparentToHits(t *testing.T) {
	d := newDoc(blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(200) }))
	under := d.el(d.root, "div", blockStyle(sized(100, 100)))
	over := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Position = style.PositionAbsolute
		st.Inset.Top, st.Inset.Left = style.Px(0), style.Px(0)
		sized(100, 100)(st)
		st.PointerEvents = style.PointerEventsNone
		st.BackgroundColor = red
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	hit, ok := res.Hit(geom.Point{X: 50, Y: 50})
	require.True(t, ok)
	assert.Equal(t, under, hit)
	assert.Equal(t, 1, itemsOf(res.DisplayList, over, display.KindRectangle), "still painted")
}

func TestHiddenBoxIsNotPaintedOrHit(t *testing.T) {
	d := newDoc(blockStyle(nil))
	hidden := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		sized(100, 100)(st)
		st.Visibility = style.Hidden
		st.BackgroundColor = red
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	assert.Zero(t, itemsOf(res.DisplayList, hidden, display.KindRectangle))
	hit, ok := res.Hit(geom.Point{X: 50, Y: 50})
	require.True(t, ok)
	assert.Equal(t, d.root, hit)
}

func TestTransformMovesPaintAndHitArea(t *testing.T) {
	d := newDoc(blockStyle(nil))
	box := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		sized(100, 100)(st)
		st.BackgroundColor = red
		st.Transform = []style.TransformFunc{{Kind: style.TransformTranslate, X: style.Px(200), Y: style.Px(0)}}
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 100, H: 100}, rectOf(t, res, box).Rect, "geometry is reported before transforms")
	assert.Equal(t, 1, res.DisplayList.Count(display.KindPushTransform))
	hit, ok := res.Hit(geom.Point{X: 250, Y: 50})
	require.True(t, ok)
	assert.Equal(t, box, hit)
	hit, ok = res.Hit(geom.Point{X: 50, Y: 50})
	require.True(t, ok)
	assert.Equal(t, d.root, hit)
	assert.Equal(t, d.root, rectOf(t, res, box).StackingContext)
}

func TestSingularTransformSkipsSubtree(t *testing.T) {
	d := newDoc(blockStyle(nil))
	box := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		sized(100, 100)(st)
		st.BackgroundColor = red
		st.Transform = []style.TransformFunc{{Kind: style.TransformScale, SX: 0, SY: 0}}
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	assert.Zero(t, itemsOf(res.DisplayList, box, display.KindRectangle))
	assert.True(t, hasCode(res.Messages, diag.CodeSingularTransform))
	assert.NoError(t, res.DisplayList.Validate())
}

func TestOverflowClipLimitsHits(t *testing.T) {
	d := newDoc(blockStyle(nil))
	clip := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		sized(100, 100)(st)
		st.Position = style.PositionRelative
		st.OverflowX, st.OverflowY = style.OverflowHidden, style.OverflowHidden
	}))
	child := d.el(clip, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Position = style.PositionAbsolute
		st.Inset.Left, st.Inset.Top = style.Px(80), style.Px(0)
		sized(50, 50)(st)
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	assert.InDelta(t, 80, rectOf(t, res, child).Rect.X, 0.01)
	hit, _ := res.Hit(geom.Point{X: 90, Y: 10})
	assert.Equal(t, child, hit)
	hit, _ = res.Hit(geom.Point{X: 120, Y: 10})
	assert.Equal(t, d.root, hit, "the part outside the clip cannot be hit")
	assert.GreaterOrEqual(t, res.DisplayList.Count(display.KindPushClip), 1)
	assert.NoError(t, res.DisplayList.Validate())

	require.Len(t, res.Overflow, 1)
	o := res.Overflow[0]
	assert.Equal(t, clip, o.Node)
	assert.InDelta(t, 130, o.ScrollSize.W, 0.01)
	assert.InDelta(t, 100, o.ScrollSize.H, 0.01)
	assert.True(t, o.Scrolls())
}

func TestOpacityCreatesStackingContext(t *testing.T) {
	d := newDoc(blockStyle(nil))
	group := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Opacity = 0.5 }))
	inner := d.el(group, "div", blockStyle(sized(10, 10)))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	assert.Equal(t, group, rectOf(t, res, inner).StackingContext)
	assert.Equal(t, d.root, rectOf(t, res, group).StackingContext)
	assert.Equal(t, 1, res.DisplayList.Count(display.KindPushOpacity))
	assert.NoError(t, res.DisplayList.Validate())
}

func TestInlineBoxSplitsIntoPieces(t *testing.T) {
	d := newDoc(blockStyle(nil))
	para := d.el(d.root, "p", blockStyle(func(st *style.ComputedStyle) {
		st.Width = style.Px(50)
		st.FontSize = 20
	}))
	spanStyle := style.InheritFrom(d.t.Style(para))
	spanStyle.BackgroundColor = red
	span := d.el(para, "span", spanStyle)
	d.text(span, "aaaa bbbb", nil)

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	r := rectOf(t, res, span)
	require.Len(t, r.Pieces, 2)
	assert.Greater(t, r.Pieces[1].Y, r.Pieces[0].Y)
	assert.Equal(t, 2, itemsOf(res.DisplayList, span, display.KindRectangle))
	assert.Len(t, textRuns(res.DisplayList), 2)

	p := r.Pieces[1]
	hit, ok := res.Hit(geom.Point{X: p.X + 1, Y: p.Y + p.H/2})
	require.True(t, ok)
	assert.Equal(t, span, hit)
}

func TestSecondPassIsIdenticalAndUsesCache(t *testing.T) {
	d := newDoc(blockStyle(nil))
	para := d.el(d.root, "p", blockStyle(func(st *style.ComputedStyle) { st.Width = style.Px(120) }))
	d.text(para, "the quick brown fox jumps over the lazy dog", nil)
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Float = style.FloatRight
		sized(40, 40)(st)
	}))

	eng := newTestEngine(t, nil)
	first := eng.Layout(d.t, viewport(400, 300))
	second := eng.Layout(d.t, viewport(400, 300))

	opts := cmp.Options{cmp.AllowUnexported(PositionedRect{}), cmpopts.IgnoreFields(PositionedRect{}, "Lines")}
	assert.Empty(t, cmp.Diff(first.Rects, second.Rects, opts))
	assert.Empty(t, cmp.Diff(first.DisplayList, second.DisplayList))
	assert.NotEqual(t, first.PassID, second.PassID)
	assert.Positive(t, second.Stats.Runs.Hits+second.Stats.Subtrees.Hits)
}

func TestLeftFloatsStackAndDropBelow(t *testing.T) {
	d := newDoc(blockStyle(nil))
	float := func(w, h float32) *style.ComputedStyle {
		return blockStyle(func(st *style.ComputedStyle) {
			st.Float = style.FloatLeft
			sized(w, h)(st)
		})
	}
	a := d.el(d.root, "div", float(100, 50))
	b := d.el(d.root, "div", float(100, 30))
	c := d.el(d.root, "div", float(100, 20))

	res := newTestEngine(t, nil).Layout(d.t, viewport(250, 400))

	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 100, H: 50}, rectOf(t, res, a).Rect)
	assert.Equal(t, geom.Rect{X: 100, Y: 0, W: 100, H: 30}, rectOf(t, res, b).Rect)
	assert.Equal(t, geom.Rect{X: 100, Y: 30, W: 100, H: 20}, rectOf(t, res, c).Rect,
		"c does not fit beside b and moves down until it fits beside a")
}

func TestMarginCollapseMixedSignsAndEmptyBlock(t *testing.T) {
	d := newDoc(blockStyle(nil))
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Height = style.Px(10)
		st.Margin.Bottom = style.Px(-5)
	}))
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Margin.Top = style.Px(30)
		st.Margin.Bottom = style.Px(12)
	}))
	next := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Margin.Top = style.Px(20)
		st.Height = style.Px(10)
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(400, 300))
	assert.InDelta(t, 35, rectOf(t, res, next).Rect.Y, 0.01, "largest positive 30 plus most negative -5")

	d = newDoc(blockStyle(nil))
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Height = style.Px(10)
		st.Margin.Bottom = style.Px(-5)
	}))
	next = d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Margin.Top = style.Px(-15)
		st.Height = style.Px(10)
	}))

	res = newTestEngine(t, nil).Layout(d.t, viewport(400, 300))
	assert.InDelta(t, -5, rectOf(t, res, next).Rect.Y, 0.01, "only the most negative margin counts")
}

func TestNegativeZIndexPaintsBehindFlow(t *testing.T) {
	d := newDoc(blockStyle(nil))
	positioned := func(pos style.Position, z style.ZIndex) *style.ComputedStyle {
		return blockStyle(func(st *style.ComputedStyle) {
			st.Position = pos
			st.Inset.Left, st.Inset.Top = style.Px(0), style.Px(0)
			sized(50, 50)(st)
			st.ZIndex = z
			st.BackgroundColor = red
		})
	}
	// Document order is the reverse of the expected paint order.
	top := d.el(d.root, "div", positioned(style.PositionAbsolute, style.ZIndex{Value: 5}))
	auto := d.el(d.root, "div", positioned(style.PositionRelative, style.ZIndex{Auto: true}))
	flow := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		sized(50, 50)(st)
		st.BackgroundColor = red
	}))
	minus1 := d.el(d.root, "div", positioned(style.PositionAbsolute, style.ZIndex{Value: -1}))
	minus2 := d.el(d.root, "div", positioned(style.PositionAbsolute, style.ZIndex{Value: -2}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(400, 300))

	var order []tree.NodeID
	for _, it := range res.DisplayList.Items {
		if r, ok := it.(display.Rectangle); ok {
			order = append(order, r.Node)
		}
	}
	assert.Equal(t, []tree.NodeID{minus2, minus1, flow, auto, top}, order)
	require.NoError(t, res.DisplayList.Validate())
}

func TestBreakInsideAvoidMovesBlockToNextPage(t *testing.T) {
	build := func(avoid bool) (*docBuilder, tree.NodeID) {
		d := newDoc(blockStyle(nil))
		d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(200) }))
		keep := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
			if avoid {
				st.BreakInside = style.BreakAvoid
			}
		}))
		d.el(keep, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(150) }))
		return d, keep
	}
	vp := viewport(400, 300)
	vp.Paged = true

	d, keep := build(false)
	res := newTestEngine(t, nil).Layout(d.t, vp)
	assert.InDelta(t, 200, rectOf(t, res, keep).Rect.Y, 0.01)
	assert.Len(t, res.FragmentsOf(keep), 2, "without avoid the block splits across the boundary")

	d, keep = build(true)
	res = newTestEngine(t, nil).Layout(d.t, vp)
	r := rectOf(t, res, keep)
	assert.InDelta(t, 300, r.Rect.Y, 0.01)
	assert.Equal(t, 1, r.Page)
	frags := res.FragmentsOf(keep)
	require.Len(t, frags, 1)
	assert.Equal(t, 1, frags[0].Page)
}

func TestCachedPassAfterStyleEditMatchesFreshEngine(t *testing.T) {
	d := newDoc(blockStyle(nil))
	para := d.el(d.root, "p", blockStyle(func(st *style.ComputedStyle) { st.Width = style.Px(120) }))
	d.text(para, "the quick brown fox jumps over the lazy dog", nil)
	box := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		sized(40, 40)(st)
		st.BackgroundColor = red
	}))

	eng := newTestEngine(t, nil)
	eng.Layout(d.t, viewport(400, 300))

	edited := d.t.Style(box).Clone()
	edited.Width = style.Px(200)
	edited.Margin.Top = style.Px(15)
	d.t.SetStyle(box, edited)

	cached := eng.Layout(d.t, viewport(400, 300))
	fresh := newTestEngine(t, nil).Layout(d.t, viewport(400, 300))

	opts := cmp.Options{cmp.AllowUnexported(PositionedRect{}), cmpopts.IgnoreFields(PositionedRect{}, "Lines")}
	assert.Empty(t, cmp.Diff(fresh.Rects, cached.Rects, opts))
	assert.Empty(t, cmp.Diff(fresh.DisplayList, cached.DisplayList))
	assert.InDelta(t, 200, rectOf(t, cached, box).Rect.W, 0.01)
	assert.Positive(t, cached.Stats.Runs.Hits, "the untouched paragraph reuses its shaped runs")
}

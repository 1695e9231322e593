package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/trellis/internal/fonts"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

func rectOf(t *testing.T, res *Result, id tree.NodeID) *PositionedRect {
	t.Helper()
	r, ok := res.Rect(id)
	require.True(t, ok, "node %d was not laid out", id)
	return r
}

func textRuns(l *display.List) []display.TextRun {
	var out []display.TextRun
	for _, it := range l.Items {
		if tr, ok := it.(display.TextRun); ok {
			out = append(out, tr)
		}
	}
	return out
}

func TestBodyMarginCollapse(t *testing.T) {
	d := newDoc(blockStyle(nil))
	body := d.el(d.root, "body", blockStyle(func(st *style.ComputedStyle) {
		st.Margin = style.Uniform(style.Px(20))
	}))
	p := d.el(body, "p", blockStyle(func(st *style.ComputedStyle) {
		st.Margin.Top = style.Px(30)
		st.Margin.Bottom = style.Px(10)
		st.Height = style.Px(50)
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	pr := rectOf(t, res, p)
	assert.InDelta(t, 30, pr.Rect.Y, 0.01, "body and p top margins collapse to 30")
	assert.InDelta(t, 80, pr.Rect.Bottom(), 0.01)
	assert.InDelta(t, 20, pr.Rect.X, 0.01)
	assert.InDelta(t, 760, pr.Rect.W, 0.01)

	br := rectOf(t, res, body)
	assert.InDelta(t, 30, br.Rect.Y, 0.01)
	assert.InDelta(t, 50, br.Rect.H, 0.01, "p bottom margin collapses through the body bottom")

	root := rectOf(t, res, d.root)
	assert.InDelta(t, 100, root.Rect.H, 0.01, "collapsed bottom margin of 20 stays inside the root")
}

func TestFloatWithClear(t *testing.T) {
	d := newDoc(blockStyle(nil))
	f := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Float = style.FloatLeft
		sized(100, 50)(st)
	}))
	p := d.el(d.root, "p", blockStyle(func(st *style.ComputedStyle) {
		st.Clear = style.ClearLeft
		st.Height = style.Px(20)
	}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(600, 400))

	fr := rectOf(t, res, f)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 100, H: 50}, fr.Rect)
	pr := rectOf(t, res, p)
	assert.InDelta(t, 50, pr.Rect.Y, 0.01)
	assert.InDelta(t, 0, pr.Rect.X, 0.01)
	assert.InDelta(t, 600, pr.Rect.W, 0.01)
}

func TestJustifiedLineGlyphPositions(t *testing.T) {
	d := newDoc(blockStyle(func(st *style.ComputedStyle) {
		st.FontSize = 160
		st.TextAlign = style.TextAlignJustify
	}))
	d.text(d.root, "A B C", nil)

	eng := NewEngine(fonts.NewFixed(0.5, 0), nil, Options{DebugAssertions: true}, zaptest.NewLogger(t))
	res := eng.Layout(d.t, viewport(300, 400))

	runs := textRuns(res.DisplayList)
	require.Len(t, runs, 1)
	require.Len(t, runs[0].Glyphs, 5)
	assert.InDelta(t, 0, runs[0].Glyphs[0].X, 0.01)
	assert.InDelta(t, 110, runs[0].Glyphs[2].X, 0.01)
	assert.InDelta(t, 220, runs[0].Glyphs[4].X, 0.01)
	assert.Equal(t, "A B C", runs[0].Text)
}

func TestStackingOrderDecidesHit(t *testing.T) {
	d := newDoc(blockStyle(nil))
	abs := func(z int32, c style.Color) *style.ComputedStyle {
		return blockStyle(func(st *style.ComputedStyle) {
			st.Position = style.PositionAbsolute
			st.Inset.Left, st.Inset.Top = style.Px(0), style.Px(0)
			sized(100, 100)(st)
			st.ZIndex = style.ZIndex{Value: z}
			st.BackgroundColor = c
		})
	}
	b := d.el(d.root, "div", abs(2, style.Color{R: 0, G: 0, B: 255, A: 255}))
	a := d.el(d.root, "div", abs(1, style.Color{R: 255, G: 0, B: 0, A: 255}))

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	hit, ok := res.Hit(geom.Point{X: 50, Y: 50})
	require.True(t, ok)
	assert.Equal(t, b, hit)
	assert.Equal(t, []tree.NodeID{b, a}, res.HitTest.HitAll(geom.Point{X: 50, Y: 50}), "the root has no in-flow content and no height")

	var order []tree.NodeID
	for _, it := range res.DisplayList.Items {
		if r, ok := it.(display.Rectangle); ok {
			order = append(order, r.Node)
		}
	}
	assert.Equal(t, []tree.NodeID{a, b}, order, "higher z paints later")
	assert.Equal(t, d.root, rectOf(t, res, a).StackingContext)
	assert.NoError(t, res.DisplayList.Validate())
}

func TestPagedOverflowFragments(t *testing.T) {
	d := newDoc(blockStyle(nil))
	tall := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Height = style.Px(1200)
	}))

	vp := viewport(800, 500)
	vp.Paged = true
	res := newTestEngine(t, nil).Layout(d.t, vp)

	require.Len(t, res.Pages, 3)
	frags := res.FragmentsOf(tall)
	require.Len(t, frags, 3)
	for i, f := range frags {
		assert.Equal(t, i, f.Page)
		assert.InDelta(t, 0, f.Rect.Y, 0.01)
	}
	assert.InDelta(t, 500, frags[0].Rect.H, 0.01)
	assert.InDelta(t, 500, frags[1].Rect.H, 0.01)
	assert.InDelta(t, 200, frags[2].Rect.H, 0.01)
	assert.InDelta(t, 1500, res.DocumentSize.H, 0.01)
}

func TestUnbreakableWordOverflowsContainer(t *testing.T) {
	d := newDoc(blockStyle(nil))
	box := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Width = style.Px(100)
		st.FontSize = 20
	}))
	d.text(box, strings.Repeat("W", 100), nil)

	res := newTestEngine(t, nil).Layout(d.t, viewport(800, 600))

	r := rectOf(t, res, box)
	require.Len(t, r.Lines, 1)
	assert.InDelta(t, 1000, r.Lines[0].Width, 0.01)
	assert.True(t, r.Lines[0].Overflow)
	assert.InDelta(t, 100, r.Rect.W, 0.01, "the container keeps its width")

	runs := textRuns(res.DisplayList)
	require.Len(t, runs, 1)
	assert.InDelta(t, 1000, runs[0].Width, 0.01)
}

func TestMonolithicBoxTallerThanPageWarns(t *testing.T) {
	images := fakeImages{7: {W: 100, H: 800}}
	d := newDoc(blockStyle(nil))
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(100) }))
	img := d.t.AddReplaced(tree.ReplacedImage, 7, blockStyle(nil))
	d.t.AppendChild(d.root, img)

	vp := viewport(400, 500)
	vp.Paged = true
	res := newTestEngine(t, images).Layout(d.t, vp)

	r := rectOf(t, res, img)
	assert.InDelta(t, 100, r.Rect.Y, 0.01, "a box taller than a page is not moved")
	assert.InDelta(t, 800, r.Rect.H, 0.01)
	assert.True(t, hasCode(res.Messages, diag.CodeMonolithicOverflow))
}

func TestMonolithicBoxMovesToNextPage(t *testing.T) {
	images := fakeImages{7: {W: 100, H: 200}}
	d := newDoc(blockStyle(nil))
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(400) }))
	img := d.t.AddReplaced(tree.ReplacedImage, 7, blockStyle(nil))
	d.t.AppendChild(d.root, img)
	after := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(10) }))

	vp := viewport(400, 500)
	vp.Paged = true
	res := newTestEngine(t, images).Layout(d.t, vp)

	r := rectOf(t, res, img)
	assert.InDelta(t, 500, r.Rect.Y, 0.01)
	assert.Equal(t, 1, r.Page)
	assert.InDelta(t, 700, rectOf(t, res, after).Rect.Y, 0.01)
	assert.InDelta(t, 710, rectOf(t, res, d.root).Rect.H, 0.01, "the container grows by the inserted space")
}

func TestForcedPageBreak(t *testing.T) {
	d := newDoc(blockStyle(nil))
	d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) { st.Height = style.Px(50) }))
	second := d.el(d.root, "div", blockStyle(func(st *style.ComputedStyle) {
		st.Height = style.Px(50)
		st.BreakBefore = style.BreakPage
	}))

	vp := viewport(400, 300)
	vp.Paged = true
	res := newTestEngine(t, nil).Layout(d.t, vp)

	r := rectOf(t, res, second)
	assert.InDelta(t, 300, r.Rect.Y, 0.01)
	require.Len(t, res.Pages, 2)
	frags := res.FragmentsOf(second)
	require.Len(t, frags, 1)
	assert.Equal(t, 1, frags[0].Page)
	assert.InDelta(t, 0, frags[0].Rect.Y, 0.01)
}

func hasCode(msgs []diag.Message, code diag.Code) bool {
	for _, m := range msgs {
		if m.Code == code {
			return true
		}
	}
	return false
}

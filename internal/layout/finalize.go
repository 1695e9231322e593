package layout

import (
	"math"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// geometry turns solver frames into document coordinates. Raw positions
// come straight from the frames; placed positions include the moves made
// by pagination.
type geometry struct {
	lt        *boxtree.LayoutTree
	frames    []Frame
	wm        geom.WritingMode
	container geom.Size
	pager     *pager

	rawContent []geom.LogicalPoint
	border     []geom.LogicalRect
}

func newGeometry(lt *boxtree.LayoutTree, frames []Frame, wm geom.WritingMode, vp Viewport) *geometry {
	return &geometry{
		lt:         lt,
		frames:     frames,
		wm:         wm,
		container:  vp.Size,
		rawContent: make([]geom.LogicalPoint, len(frames)),
		border:     make([]geom.LogicalRect, len(frames)),
	}
}

func (g *geometry) posParent(id tree.NodeID) tree.NodeID {
	for a := g.lt.Box(id).Parent; a != tree.None; a = g.lt.Box(a).Parent {
		if g.lt.Box(a).Role != boxtree.RoleInline {
			return a
		}
	}
	return tree.None
}

// relChain is the relative offset of id plus those of the inline boxes
// between it and its posParent, which move it along with them.
func (g *geometry) relChain(id tree.NodeID) geom.LogicalPoint {
	rel := g.frames[id].Rel
	for a := g.lt.Box(id).Parent; a != tree.None && g.lt.Box(a).Role == boxtree.RoleInline; a = g.lt.Box(a).Parent {
		rel = rel.Add(g.frames[a].Rel)
	}
	return rel
}

// base is the raw content box origin of the posParent of id.
func (g *geometry) base(id tree.NodeID) geom.LogicalPoint {
	if pp := g.posParent(id); pp != tree.None {
		return g.rawContent[pp]
	}
	return geom.LogicalPoint{}
}

// resolveRaw computes raw document positions in tree order.
func (g *geometry) resolveRaw() {
	root := g.lt.Root
	if root == tree.None {
		return
	}
	g.lt.Walk(root, func(id tree.NodeID) bool {
		f := &g.frames[id]
		if !f.Laid {
			return false
		}
		o := g.base(id).Add(f.Origin).Add(g.relChain(id))
		g.rawContent[id] = o.Add(f.contentOffset())
		g.border[id] = geom.LogicalRect{Origin: o, Size: f.Size}
		return true
	})
}

// place applies pagination moves to every border box.
func (g *geometry) place() {
	if g.pager == nil {
		return
	}
	for id := range g.border {
		if !g.frames[id].Laid {
			continue
		}
		r := g.border[id]
		top := g.pager.top(r.Origin.Block)
		bottom := g.pager.bottom(r.BlockEnd())
		g.border[id].Origin.Block = top
		g.border[id].Size.Block = geom.Max(0, bottom-top)
	}
}

// rawLineTop is the raw document block position of line i of id.
func (g *geometry) rawLineTop(id tree.NodeID, i int) float32 {
	return g.rawContent[id].Block + g.frames[id].Lines[i].Top
}

// lineDelta is how far pagination moved line i of id.
func (g *geometry) lineDelta(id tree.NodeID, i int) float32 {
	if g.pager == nil {
		return 0
	}
	return g.pager.shift(g.rawLineTop(id, i), true)
}

// physical converts a document logical rect.
func (g *geometry) physical(r geom.LogicalRect) geom.Rect {
	return g.wm.RectToPhysical(r, g.container)
}

// physicalPoint converts a document logical point.
func (g *geometry) physicalPoint(p geom.LogicalPoint) geom.Point {
	r := g.wm.RectToPhysical(geom.LogicalRect{Origin: p}, g.container)
	return geom.Point{X: r.X, Y: r.Y}
}

// contentOrigin is the placed content box origin of id.
func (g *geometry) contentOrigin(id tree.NodeID) geom.LogicalPoint {
	return g.border[id].Origin.Add(g.frames[id].contentOffset())
}

// piece returns the placed document rect of an inline box piece.
func (g *geometry) piece(id tree.NodeID, r geom.LogicalRect) geom.LogicalRect {
	r.Origin = r.Origin.Add(g.base(id)).Add(g.relChain(id))
	if g.pager != nil {
		r.Origin.Block += g.pager.shift(r.Origin.Block+r.Size.Block/2, true)
	}
	return r
}

// cut records that content at or below at moves down by delta.
type cut struct {
	at, delta float32
}

// pager moves monolithic content that straddles a page boundary to the
// next page and honors forced breaks. Splittable boxes grow by the
// inserted space and are sliced into fragments afterwards.
type pager struct {
	height float32
	cuts   []cut
	diag   *diag.Collector
}

func (pg *pager) shift(y float32, inclusive bool) float32 {
	var d float32
	for _, c := range pg.cuts {
		if c.at < y || inclusive && c.at <= y {
			d += c.delta
		}
	}
	return d
}

func (pg *pager) top(y float32) float32    { return y + pg.shift(y, true) }
func (pg *pager) bottom(y float32) float32 { return y + pg.shift(y, false) }

func (pg *pager) pageOf(y float32) int {
	return int(math.Floor(float64((y + geom.Epsilon) / pg.height)))
}

// atPageTop reports whether a placed position starts a page.
func (pg *pager) atPageTop(y float32) bool {
	p := pg.pageOf(y)
	return geom.Approx(y, float32(p)*pg.height)
}

// monolith keeps an unsplittable unit on one page when it fits.
func (pg *pager) monolith(id tree.NodeID, rawTop, h float32) {
	if h <= geom.Epsilon {
		return
	}
	t := pg.top(rawTop)
	end := float32(pg.pageOf(t)+1) * pg.height
	if t+h <= end+geom.Epsilon {
		return
	}
	if h > pg.height+geom.Epsilon {
		pg.diag.Warnf(diag.CodeMonolithicOverflow, int32(id), "unbreakable content of %.2fpx overflows a %.2fpx page", h, pg.height)
		return
	}
	pg.cuts = append(pg.cuts, cut{at: rawTop, delta: end - t})
}

// forceBreak moves content at or below rawAt to the next page top. strict
// measures rawAt as the end of the box before the break.
func (pg *pager) forceBreak(rawAt float32, strict bool) {
	t := rawAt + pg.shift(rawAt, !strict)
	if pg.atPageTop(t) {
		return
	}
	end := float32(pg.pageOf(t)+1) * pg.height
	pg.cuts = append(pg.cuts, cut{at: rawAt, delta: end - t})
}

// paginate walks in-flow content in document order and records the moves.
func (g *geometry) paginate(height float32, c *diag.Collector) {
	pg := &pager{height: height, diag: c}
	g.pager = pg
	var walk func(id tree.NodeID, first bool)
	walk = func(id tree.NodeID, first bool) {
		b := g.lt.Box(id)
		f := &g.frames[id]
		if !f.Laid || b.IsOutOfFlow() {
			return
		}
		r := g.border[id]
		st := b.Style
		if st != nil && st.BreakBefore == style.BreakPage && !first {
			pg.forceBreak(r.Origin.Block-f.Margin.BlockStart, false)
		}
		switch {
		case b.Inner == boxtree.InnerReplaced, b.Role == boxtree.RoleTableRow, b.IsAtomicInline(), st != nil && st.BreakInside == style.BreakAvoid:
			pg.monolith(id, r.Origin.Block, r.Size.Block)
		case len(f.Lines) > 0:
			for i := range f.Lines {
				pg.monolith(id, g.rawLineTop(id, i), f.Lines[i].Height())
			}
			for _, c := range g.lt.Children(id) {
				if g.lt.Box(c).IsFloat() {
					walk(c, false)
				}
			}
		default:
			firstChild := true
			for _, c := range g.lt.Children(id) {
				if !g.lt.Box(c).IsInlineLevel() {
					walk(c, first && firstChild)
					firstChild = false
				}
			}
		}
		if st != nil && st.BreakAfter == style.BreakPage {
			pg.forceBreak(r.BlockEnd()+f.Margin.BlockEnd, true)
		}
	}
	if g.lt.Root != tree.None {
		walk(g.lt.Root, true)
	}
}

// documentExtent is the logical size covered by laid boxes.
func (g *geometry) documentExtent() geom.LogicalSize {
	var ext geom.LogicalSize
	for id, r := range g.border {
		if !g.frames[id].Laid {
			continue
		}
		m := g.frames[id].Margin
		ext.Inline = geom.Max(ext.Inline, r.InlineEnd()+m.InlineEnd)
		ext.Block = geom.Max(ext.Block, r.BlockEnd()+m.BlockEnd)
	}
	return ext
}

// fragments slices every block-level box at page boundaries.
func (g *geometry) fragments(icb geom.LogicalSize) ([]Fragment, []Page) {
	pg := g.pager
	if pg == nil {
		return nil, nil
	}
	ext := g.documentExtent()
	count := max(1, int(math.Ceil(float64((ext.Block-geom.Epsilon)/pg.height))))
	pageSize := g.wm.SizeToPhysical(geom.LogicalSize{Inline: icb.Inline, Block: pg.height})

	pages := make([]Page, count)
	for i := range pages {
		r := geom.LogicalRect{
			Origin: geom.LogicalPoint{Block: float32(i) * pg.height},
			Size:   geom.LogicalSize{Inline: icb.Inline, Block: pg.height},
		}
		pages[i] = Page{Index: i, Rect: g.physical(r)}
	}

	var out []Fragment
	if g.lt.Root == tree.None {
		return out, pages
	}
	g.lt.Walk(g.lt.Root, func(id tree.NodeID) bool {
		if !g.frames[id].Laid {
			return false
		}
		b := g.lt.Box(id)
		if b.Role == boxtree.RoleText || b.Role == boxtree.RoleLineBreak || b.Role == boxtree.RoleInline {
			return true
		}
		r := g.border[id]
		first := pg.pageOf(r.Origin.Block)
		last := pg.pageOf(geom.Max(r.Origin.Block, r.BlockEnd()-2*geom.Epsilon))
		for p := first; p <= last; p++ {
			top := float32(p) * pg.height
			lo := geom.Max(r.Origin.Block, top)
			hi := geom.Min(r.BlockEnd(), top+pg.height)
			local := geom.LogicalRect{
				Origin: geom.LogicalPoint{Inline: r.Origin.Inline, Block: lo - top},
				Size:   geom.LogicalSize{Inline: r.Size.Inline, Block: geom.Max(0, hi-lo)},
			}
			out = append(out, Fragment{Node: id, Page: p, Rect: g.wm.RectToPhysical(local, pageSize)})
		}
		return true
	})
	return out, pages
}

package layout

import (
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// strut accumulates adjoining margins. The collapsed margin is the largest
// positive margin plus the most negative one, so merging is idempotent and
// order independent.
type strut struct {
	pos float32
	neg float32
}

func (s strut) add(m float32) strut {
	if m > 0 {
		s.pos = geom.Max(s.pos, m)
	} else {
		s.neg = geom.Min(s.neg, m)
	}
	return s
}

func (s strut) merge(o strut) strut {
	return strut{pos: geom.Max(s.pos, o.pos), neg: geom.Min(s.neg, o.neg)}
}

func (s strut) resolve() float32 { return s.pos + s.neg }

// flowContainer reports a block container whose margins may collapse with
// its children.
func (p *pass) flowContainer(id tree.NodeID) bool {
	b := p.box(id)
	return id != p.lt.Root && b.Inner == boxtree.InnerFlow && !b.EstablishesBFC()
}

func (p *pass) topAdjoins(id tree.NodeID) bool {
	f := &p.frames[id]
	return p.flowContainer(id) && f.Border.BlockStart == 0 && f.Padding.BlockStart == 0
}

func (p *pass) bottomAdjoins(id tree.NodeID) bool {
	f := &p.frames[id]
	return p.flowContainer(id) && f.Border.BlockEnd == 0 && f.Padding.BlockEnd == 0
}

// collapsesThrough reports an in-flow block whose block-start and block-end
// margins adjoin: no border, padding, height or in-flow content.
func (p *pass) collapsesThrough(id tree.NodeID) bool {
	if !p.flowContainer(id) {
		return false
	}
	b := p.box(id)
	f := &p.frames[id]
	if f.Border.BlockSum() != 0 || f.Padding.BlockSum() != 0 {
		return false
	}
	size, mn, _ := b.Style.BlockSize(p.wm)
	if !size.IsAuto() && size.ResolveOr(0, false, 1) != 0 {
		return false
	}
	if mn.ResolveOr(0, false, 0) > 0 {
		return false
	}
	if p.hasInlineChildren(id) {
		return !p.inlineHasContent(id)
	}
	inner := f.contentSize().Inline
	for _, c := range p.lt.Children(id) {
		cb := p.box(c)
		if cb.IsOutOfFlow() || cb.IsFloat() {
			continue
		}
		if cb.Style.Clear != style.ClearNone {
			return false
		}
		p.setEdges(c, inner)
		if !p.collapsesThrough(c) {
			return false
		}
	}
	return true
}

// inlineHasContent reports whether inline children would produce a line box.
func (p *pass) inlineHasContent(id tree.NodeID) bool {
	for _, c := range p.lt.Children(id) {
		b := p.box(c)
		switch {
		case b.IsOutOfFlow() || b.IsFloat():
		case b.Role == boxtree.RoleText:
			ws := b.Style.WhiteSpace
			if !ws.CollapsesSpaces() && b.Text != "" {
				return true
			}
			if ws.PreservesNewlines() && strings.Contains(b.Text, "\n") {
				return true
			}
			if strings.Trim(b.Text, " \t\n\r\f") != "" {
				return true
			}
		case b.Role == boxtree.RoleInline:
			m, bd, pd := p.edgesOf(c, 0)
			if m.InlineSum() != 0 || bd.InlineSum() != 0 || pd.InlineSum() != 0 {
				return true
			}
			if p.inlineHasContent(c) {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// leadingStrut returns the margins that collapse into the block-start
// margin of id: its own and, while the edges adjoin, those of its first
// in-flow descendants and of empty blocks in front of them.
func (p *pass) leadingStrut(id tree.NodeID, fc *floatContext) strut {
	f := &p.frames[id]
	s := strut{}.add(f.Margin.BlockStart)
	if !p.topAdjoins(id) || p.hasInlineChildren(id) {
		return s
	}
	inner := f.contentSize().Inline
	for _, c := range p.lt.Children(id) {
		cb := p.box(c)
		if cb.IsOutOfFlow() || cb.IsFloat() {
			continue
		}
		if fc.hasSide(cb.Style.Clear) {
			break
		}
		p.setEdges(c, inner)
		if p.flowContainer(c) {
			p.frames[c].Size.Inline = p.blockInlineSize(c, inner)
		}
		s = s.merge(p.leadingStrut(c, fc))
		if !p.collapsesThrough(c) {
			break
		}
		s = s.add(p.frames[c].Margin.BlockEnd)
	}
	return s
}

// layoutChild lays out the content of id once its edges and border box
// inline size are known. base is the content box origin of id in the
// coordinates of fc. The returned strut holds the margins escaping through
// the block-end edge.
func (p *pass) layoutChild(id tree.NodeID, inline, cbBlock float32, cbDef bool, fc *floatContext, base geom.LogicalPoint) strut {
	b := p.box(id)
	f := &p.frames[id]
	f.Size.Inline = inline
	key, cacheable := p.subtreeKey(id, inline, cbBlock, cbDef)
	if cacheable && p.restoreSubtree(id, key) {
		return strut{}
	}

	var end strut
	switch b.Inner {
	case boxtree.InnerReplaced:
		p.layoutReplaced(id, cbBlock, cbDef)
	case boxtree.InnerFlex:
		p.layoutFlex(id, cbBlock, cbDef)
	case boxtree.InnerTable:
		p.layoutTable(id, cbBlock, cbDef)
	default:
		end = p.layoutFlowBox(id, cbBlock, cbDef, fc, base)
	}
	p.layoutPositionedOf(id)
	f.Laid = true
	if cacheable {
		p.storeSubtree(id, key)
	}
	return end
}

func (p *pass) layoutReplaced(id tree.NodeID, cbBlock float32, cbDef bool) {
	f := &p.frames[id]
	sz := p.replacedContentSize(id, f.cbInline, cbBlock, cbDef)
	f.Size.Block = sz.Block + p.blockBP(id)
	f.ContentExtent = sz
	f.HasBaseline = false
}

// layoutFlowBox lays out a block container: its line boxes or its
// block-level children, then resolves its block size.
func (p *pass) layoutFlowBox(id tree.NodeID, cbBlock float32, cbDef bool, fc *floatContext, base geom.LogicalPoint) strut {
	b := p.box(id)
	f := &p.frames[id]
	bfc := b.EstablishesBFC() || id == p.lt.Root || fc == nil
	if bfc {
		fc = newFloatContext()
		base = geom.LogicalPoint{}
	}
	spec, definite := p.specifiedBlock(id, cbBlock, cbDef)
	bp := p.blockBP(id)
	childCB := geom.Max(0, spec-bp)

	var extent float32
	var end strut
	f.Lines, f.HasBaseline = nil, false
	if p.hasInlineChildren(id) {
		extent = p.layoutInline(id, f.contentSize().Inline, fc, base)
	} else {
		extent, end = p.layoutBlockChildren(id, childCB, definite, fc, base)
	}

	escapes := !definite && p.bottomAdjoins(id)
	if !escapes {
		extent += end.resolve()
		end = strut{}
	}
	if bfc {
		extent = geom.Max(extent, fc.maxBottom())
	}
	extent = geom.Max(0, extent)

	size := extent + bp
	if definite {
		size = spec
	}
	used := p.clampBlock(id, size, cbBlock, cbDef)
	if escapes && !geom.Approx(used, size) {
		end = strut{}
	}
	f.Size.Block = used
	f.ContentExtent = geom.LogicalSize{Inline: f.contentSize().Inline, Block: extent}
	return end
}

// layoutBlockChildren stacks the block-level children of id. It returns the
// block position after the last in-flow child and the trailing strut.
func (p *pass) layoutBlockChildren(id tree.NodeID, cbBlock float32, cbDef bool, fc *floatContext, base geom.LogicalPoint) (float32, strut) {
	f := &p.frames[id]
	inner := f.contentSize().Inline
	adjoin := p.topAdjoins(id)

	var pen float32
	var s strut
	atStart := true
	for _, c := range p.lt.Children(id) {
		cb := p.box(c)
		cf := &p.frames[c]
		consumed := atStart && adjoin
		switch {
		case cb.IsOutOfFlow():
			cf.Static = geom.LogicalPoint{Block: pen}
			if !consumed {
				cf.Static.Block += s.resolve()
			}
			continue
		case cb.IsFloat():
			y := pen
			if !consumed {
				y += s.resolve()
			}
			p.layoutFloat(c, inner, fc, base, y)
			continue
		}

		p.setEdges(c, inner)
		cf.Size.Inline = p.blockInlineSize(c, inner)
		clear := cb.Style.Clear
		clears := fc.hasSide(clear)
		lead := p.leadingStrut(c, fc)
		through := !clears && p.collapsesThrough(c)

		top := pen
		if !(consumed && !clears) {
			top = pen + s.merge(lead).resolve()
		}
		if clears {
			if cy := fc.clearY(clear) - base.Block; top < cy {
				top = cy
			}
		}
		cf.Origin = geom.LogicalPoint{Inline: cf.Margin.InlineStart, Block: top}

		var end strut
		if p.avoidsFloats(c) && !fc.empty() {
			top = p.placeBesideFloats(c, inner, top, cbBlock, cbDef, fc, base)
		} else {
			childBase := base.Add(cf.Origin).Add(cf.contentOffset())
			end = p.layoutChild(c, cf.Size.Inline, cbBlock, cbDef, fc, childBase)
		}
		if through {
			if !consumed {
				s = s.merge(lead).add(cf.Margin.BlockEnd)
			}
			continue
		}
		pen = top + cf.Size.Block
		s = end.add(cf.Margin.BlockEnd)
		atStart = false
	}
	return pen, s
}

// avoidsFloats reports in-flow boxes whose border box may not overlap
// floats of the enclosing formatting context.
func (p *pass) avoidsFloats(id tree.NodeID) bool {
	b := p.box(id)
	return b.EstablishesBFC() || b.Inner != boxtree.InnerFlow
}

// placeBesideFloats moves a float-avoiding box down until its border box
// fits next to the floats, narrowing an auto inline size to the free band.
func (p *pass) placeBesideFloats(id tree.NodeID, inner, top, cbBlock float32, cbDef bool, fc *floatContext, base geom.LogicalPoint) float32 {
	b := p.box(id)
	f := &p.frames[id]
	_, fixed := p.specifiedInline(id, inner, true)
	fixed = fixed || b.Inner == boxtree.InnerReplaced
	original := f.Size.Inline
	y := top
	for {
		ls, le := fc.band(base.Block+y, base.Block+y, base.Inline, base.Inline+inner)
		w := original
		if !fixed {
			w = p.clampInline(id, geom.Min(original, le-ls-f.Margin.InlineSum()), inner)
		}
		p.layoutChild(id, w, cbBlock, cbDef, nil, geom.LogicalPoint{})
		ls, le = fc.band(base.Block+y, base.Block+y+f.Size.Block, base.Inline, base.Inline+inner)
		next, more := fc.nextBottom(base.Block + y)
		if le-ls >= w+f.Margin.InlineSum()-geom.Epsilon || !more {
			f.Origin = geom.LogicalPoint{Inline: ls - base.Inline + f.Margin.InlineStart, Block: y}
			return y
		}
		y = next - base.Block
	}
}

// floatInlineSize sizes floats and inline-level atomic boxes: specified,
// natural or shrink-to-fit. Auto margins are zero.
func (p *pass) floatInlineSize(id tree.NodeID, cbInline float32) float32 {
	b := p.box(id)
	if b.Inner == boxtree.InnerReplaced {
		return p.replacedContentSize(id, cbInline, 0, false).Inline + p.inlineBP(id)
	}
	if w, ok := p.specifiedInline(id, cbInline, true); ok {
		return p.clampInline(id, w, cbInline)
	}
	f := &p.frames[id]
	return p.clampInline(id, p.shrinkToFit(id, cbInline-f.Margin.InlineSum()), cbInline)
}

// layoutFloat lays out a float and places it at or below y, given in the
// content coordinates of its containing block.
func (p *pass) layoutFloat(id tree.NodeID, cbInline float32, fc *floatContext, base geom.LogicalPoint, y float32) {
	b := p.box(id)
	f := &p.frames[id]
	p.setEdges(id, cbInline)
	w := p.floatInlineSize(id, cbInline)
	p.layoutChild(id, w, 0, false, nil, geom.LogicalPoint{})

	if c := b.Style.Clear; fc.hasSide(c) {
		y = geom.Max(y, fc.clearY(c)-base.Block)
	}
	side := style.FloatLeft
	if b.Role == boxtree.RoleFloatRight {
		side = style.FloatRight
	}
	r := fc.place(w+f.Margin.InlineSum(), f.Size.Block+f.Margin.BlockSum(), side, base.Block+y, base.Inline, base.Inline+cbInline)
	f.Origin = geom.LogicalPoint{
		Inline: r.Origin.Inline - base.Inline + f.Margin.InlineStart,
		Block:  r.Origin.Block - base.Block + f.Margin.BlockStart,
	}
}

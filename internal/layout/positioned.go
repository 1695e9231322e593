package layout

import (
	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// posParent is the box whose content box Origin is measured from: the
// nearest ancestor that is not an inline box.
func (p *pass) posParent(id tree.NodeID) tree.NodeID {
	for a := p.box(id).Parent; a != tree.None; a = p.box(a).Parent {
		if p.box(a).Role != boxtree.RoleInline {
			return a
		}
	}
	return tree.None
}

// layoutPositionedOf lays out the absolute and fixed boxes whose containing
// block is cb, once cb has its final size.
func (p *pass) layoutPositionedOf(cb tree.NodeID) {
	for _, id := range p.box(cb).Positioned {
		p.layoutAbsolute(id, cb)
	}
}

// containingRect returns the padding box of cb and the box whose content
// coordinates it is expressed in. A tree.None cb is the viewport.
func (p *pass) containingRect(cb tree.NodeID) (tree.NodeID, geom.LogicalRect) {
	if cb == tree.None {
		return tree.None, geom.LogicalRect{Size: p.icb}
	}
	f := &p.frames[cb]
	if p.box(cb).Role != boxtree.RoleInline {
		pb := f.paddingBox()
		pb.Origin = geom.LogicalPoint{Inline: -f.Padding.InlineStart, Block: -f.Padding.BlockStart}
		return cb, pb
	}
	// An inline containing block spans its fragments, from the start edge
	// of the first to the end edge of the last.
	r := geom.LogicalRect{Origin: f.Origin, Size: f.Size}
	if len(f.Pieces) > 0 {
		r = f.Pieces[0]
		for _, piece := range f.Pieces[1:] {
			r = unionLogical(r, piece)
		}
	}
	r = r.Deflate(f.Border)
	return p.posParent(cb), r
}

// offsetTo is the position of the content box of from in the content
// coordinates of ref, which must be on its posParent chain.
func (p *pass) offsetTo(from, ref tree.NodeID) geom.LogicalPoint {
	var off geom.LogicalPoint
	for x := from; x != ref && x != tree.None; x = p.posParent(x) {
		f := &p.frames[x]
		off = off.Add(f.Origin).Add(f.contentOffset())
	}
	return off
}

// insetPair resolves the start and end insets of one axis.
type insetPair struct {
	start, end     float32
	startOK, endOK bool
}

func resolveInsets(is, ie style.Length, basis float32) insetPair {
	var ip insetPair
	ip.start, ip.startOK = is.Resolve(basis, true)
	ip.end, ip.endOK = ie.Resolve(basis, true)
	return ip
}

// placeOnAxis solves the position constraint of one axis for a box of
// known size. It returns the border box start and the used margins.
// endWins drops the start inset when the axis is over-constrained.
func (p *pass) placeOnAxis(id tree.NodeID, cb float32, ip insetPair, static, size, ms, me float32, msAuto, meAuto, endWins bool) (float32, float32, float32) {
	switch {
	case !ip.startOK && !ip.endOK:
		return static + ms, ms, me
	case !ip.endOK:
		return ip.start + ms, ms, me
	case !ip.startOK:
		return cb - ip.end - me - size, ms, me
	}
	free := cb - ip.start - ip.end - size - ms - me
	switch {
	case msAuto && meAuto:
		switch {
		case free >= 0:
			ms, me = free/2, free/2
		case endWins:
			ms = free
		default:
			me = free
		}
	case msAuto:
		ms = free
	case meAuto:
		me = free
	default:
		if !geom.Approx(free, 0) {
			p.diag.Infof(diag.CodeOverConstrained, int32(id), "over-constrained position, one inset ignored")
		}
		if endWins {
			return cb - ip.end - me - size, ms, me
		}
	}
	return ip.start + ms, ms, me
}

// layoutAbsolute sizes and places an absolutely positioned box against its
// containing block and stores its Origin relative to its posParent.
func (p *pass) layoutAbsolute(id tree.NodeID, cb tree.NodeID) {
	b := p.box(id)
	f := &p.frames[id]
	st := b.Style
	ref, cbRect := p.containingRect(cb)
	cbSize := cbRect.Size
	parent := p.posParent(id)
	off := p.offsetTo(parent, ref)
	static := f.Static.Add(off)
	static.Inline -= cbRect.Origin.Inline
	static.Block -= cbRect.Origin.Block

	p.setEdges(id, cbSize.Inline)
	delete(p.blockOverride, id)
	insets := style.LogicalSides(st.Inset, p.wm)
	margins := style.LogicalSides(st.Margin, p.wm)
	ii := resolveInsets(insets[0], insets[1], cbSize.Inline)
	bi := resolveInsets(insets[2], insets[3], cbSize.Block)
	rtl := st.Direction == style.RTL

	// Inline size.
	replaced := b.Inner == boxtree.InnerReplaced
	var natural geom.LogicalSize
	if replaced {
		natural = p.replacedContentSize(id, cbSize.Inline, cbSize.Block, true)
	}
	w, ok := p.specifiedInline(id, cbSize.Inline, true)
	switch {
	case replaced:
		w = natural.Inline + p.inlineBP(id)
	case ok:
		w = p.clampInline(id, w, cbSize.Inline)
	case ii.startOK && ii.endOK:
		w = p.clampInline(id, cbSize.Inline-ii.start-ii.end-f.Margin.InlineSum(), cbSize.Inline)
	default:
		avail := cbSize.Inline - f.Margin.InlineSum()
		switch {
		case ii.startOK:
			avail -= ii.start
		case ii.endOK:
			avail -= ii.end
		default:
			avail -= static.Inline
		}
		w = p.clampInline(id, p.shrinkToFit(id, geom.Max(0, avail)), cbSize.Inline)
	}
	x, ms, me := p.placeOnAxis(id, cbSize.Inline, ii, static.Inline, w, f.Margin.InlineStart, f.Margin.InlineEnd, margins[0].IsAuto(), margins[1].IsAuto(), rtl)
	f.Margin.InlineStart, f.Margin.InlineEnd = ms, me

	// Block size: specified, stretched between both insets, or content.
	if replaced {
		p.blockOverride[id] = natural.Block + p.blockBP(id)
	} else if _, ok := p.specifiedBlock(id, cbSize.Block, true); !ok && bi.startOK && bi.endOK {
		p.blockOverride[id] = p.clampBlock(id, cbSize.Block-bi.start-bi.end-f.Margin.BlockSum(), cbSize.Block, true)
	}
	p.layoutChild(id, w, cbSize.Block, true, nil, geom.LogicalPoint{})
	h := f.Size.Block
	y, mt, mb := p.placeOnAxis(id, cbSize.Block, bi, static.Block, h, f.Margin.BlockStart, f.Margin.BlockEnd, margins[2].IsAuto(), margins[3].IsAuto(), false)
	f.Margin.BlockStart, f.Margin.BlockEnd = mt, mb

	f.Origin = geom.LogicalPoint{
		Inline: cbRect.Origin.Inline + x - off.Inline,
		Block:  cbRect.Origin.Block + y - off.Block,
	}
}

// applyRelative records the offsets of relatively positioned boxes.
// Sticky boxes keep their in-flow position.
func (p *pass) applyRelative(root tree.NodeID) {
	p.lt.Walk(root, func(id tree.NodeID) bool {
		b := p.box(id)
		if b.Style == nil || b.Style.Position != style.PositionRelative {
			return true
		}
		var basis geom.LogicalSize
		if parent := p.posParent(id); parent != tree.None {
			basis = p.frames[parent].contentSize()
		} else {
			basis = p.icb
		}
		insets := style.LogicalSides(b.Style.Inset, p.wm)
		ii := resolveInsets(insets[0], insets[1], basis.Inline)
		bi := resolveInsets(insets[2], insets[3], basis.Block)
		var rel geom.LogicalPoint
		switch {
		case ii.startOK && ii.endOK && b.Style.Direction == style.RTL:
			rel.Inline = -ii.end
		case ii.startOK:
			rel.Inline = ii.start
		case ii.endOK:
			rel.Inline = -ii.end
		}
		switch {
		case bi.startOK:
			rel.Block = bi.start
		case bi.endOK:
			rel.Block = -bi.end
		}
		p.frames[id].Rel = rel
		return true
	})
}

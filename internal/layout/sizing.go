package layout

import (
	"fmt"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Default object size for replaced elements without a natural size.
var iframeSize = geom.Size{W: 300, H: 150}

// setEdges resolves margins, borders and padding of id. Percentages refer
// to the containing block's inline size on both axes.
func (p *pass) setEdges(id tree.NodeID, cbInline float32) {
	f := &p.frames[id]
	f.cbInline = cbInline
	f.Margin, f.Border, f.Padding = p.edgesOf(id, cbInline)
}

// edgesOf resolves the margin, border and padding of id without storing
// them.
func (p *pass) edgesOf(id tree.NodeID, cbInline float32) (margin, border, padding geom.LogicalEdges) {
	b := p.box(id)
	if b.Role == boxtree.RoleText || b.Role == boxtree.RoleLineBreak {
		return
	}
	st := b.Style
	m := style.LogicalSides(st.Margin, p.wm)
	pd := style.LogicalSides(st.Padding, p.wm)
	margin = geom.LogicalEdges{
		InlineStart: m[0].ResolveOr(cbInline, true, 0),
		InlineEnd:   m[1].ResolveOr(cbInline, true, 0),
		BlockStart:  m[2].ResolveOr(cbInline, true, 0),
		BlockEnd:    m[3].ResolveOr(cbInline, true, 0),
	}
	padding = geom.LogicalEdges{
		InlineStart: geom.Max(0, pd[0].ResolveOr(cbInline, true, 0)),
		InlineEnd:   geom.Max(0, pd[1].ResolveOr(cbInline, true, 0)),
		BlockStart:  geom.Max(0, pd[2].ResolveOr(cbInline, true, 0)),
		BlockEnd:    geom.Max(0, pd[3].ResolveOr(cbInline, true, 0)),
	}
	border = p.wm.EdgesToLogical(st.Border.Widths())
	return margin, border, padding
}

func (p *pass) autoMargins(id tree.NodeID) (start, end bool) {
	m := style.LogicalSides(p.box(id).Style.Margin, p.wm)
	return m[0].IsAuto(), m[1].IsAuto()
}

func (p *pass) inlineBP(id tree.NodeID) float32 {
	f := &p.frames[id]
	return f.Border.InlineSum() + f.Padding.InlineSum()
}

func (p *pass) blockBP(id tree.NodeID) float32 {
	f := &p.frames[id]
	return f.Border.BlockSum() + f.Padding.BlockSum()
}

// toBorderBox converts a specified size to a border box size.
func toBorderBox(st *style.ComputedStyle, v, bp float32) float32 {
	if st.BoxSizing == style.BorderBox {
		return geom.Max(v, bp)
	}
	return geom.Max(0, v) + bp
}

// specifiedInline returns the border box inline size when inline-size is
// not auto.
func (p *pass) specifiedInline(id tree.NodeID, cbInline float32, definite bool) (float32, bool) {
	st := p.box(id).Style
	size, _, _ := st.InlineSize(p.wm)
	v, ok := size.Resolve(cbInline, definite)
	if !ok {
		return 0, false
	}
	return toBorderBox(st, v, p.inlineBP(id)), true
}

// specifiedBlock returns the border box block size when block-size is not
// auto and its percentage basis is definite.
func (p *pass) specifiedBlock(id tree.NodeID, cbBlock float32, definite bool) (float32, bool) {
	if v, ok := p.blockOverride[id]; ok {
		return v, true
	}
	st := p.box(id).Style
	size, _, _ := st.BlockSize(p.wm)
	v, ok := size.Resolve(cbBlock, definite)
	if !ok {
		return 0, false
	}
	return toBorderBox(st, v, p.blockBP(id)), true
}

// clampInline applies min and max inline size to a border box size.
func (p *pass) clampInline(id tree.NodeID, v, cbInline float32) float32 {
	st := p.box(id).Style
	_, mn, mx := st.InlineSize(p.wm)
	bp := p.inlineBP(id)
	if x, ok := mx.Resolve(cbInline, true); ok {
		v = geom.Min(v, toBorderBox(st, x, bp))
	}
	if x, ok := mn.Resolve(cbInline, true); ok {
		v = geom.Max(v, toBorderBox(st, x, bp))
	}
	return geom.Max(v, bp)
}

// clampBlock applies min and max block size to a border box size.
func (p *pass) clampBlock(id tree.NodeID, v, cbBlock float32, definite bool) float32 {
	st := p.box(id).Style
	_, mn, mx := st.BlockSize(p.wm)
	bp := p.blockBP(id)
	if x, ok := mx.Resolve(cbBlock, definite); ok {
		v = geom.Min(v, toBorderBox(st, x, bp))
	}
	if x, ok := mn.Resolve(cbBlock, definite); ok {
		v = geom.Max(v, toBorderBox(st, x, bp))
	}
	return geom.Max(v, bp)
}

// blockInlineSize computes the used border box inline size of a block-level
// box in normal flow and resolves its auto inline margins.
func (p *pass) blockInlineSize(id tree.NodeID, cbInline float32) float32 {
	b := p.box(id)
	f := &p.frames[id]
	w, ok := p.specifiedInline(id, cbInline, true)
	switch {
	case b.Inner == boxtree.InnerReplaced:
		w, ok = p.replacedContentSize(id, cbInline, 0, false).Inline+p.inlineBP(id), true
	case !ok && b.Inner == boxtree.InnerTable:
		w, ok = p.shrinkToFit(id, cbInline-f.Margin.InlineSum()), true
	}
	if !ok {
		avail := cbInline - f.Margin.InlineSum()
		w = p.clampInline(id, avail, cbInline)
		if geom.Approx(w, avail) {
			return w
		}
	} else {
		w = p.clampInline(id, w, cbInline)
	}
	p.distributeInlineMargins(id, w, cbInline)
	return w
}

// distributeInlineMargins resolves auto inline margins for a box of inline
// size w, or the over-constrained end margin.
func (p *pass) distributeInlineMargins(id tree.NodeID, w, cbInline float32) {
	f := &p.frames[id]
	as, ae := p.autoMargins(id)
	free := cbInline - w - f.Margin.InlineSum()
	switch {
	case as && ae:
		half := geom.Max(0, free/2)
		f.Margin.InlineStart, f.Margin.InlineEnd = half, half
	case as:
		f.Margin.InlineStart += free
	case ae:
		f.Margin.InlineEnd += free
	case p.box(id).Style.Direction == style.RTL:
		f.Margin.InlineStart += free
	default:
		f.Margin.InlineEnd += free
	}
}

// shrinkToFit is min(max(min-content, available), max-content) on the
// border box.
func (p *pass) shrinkToFit(id tree.NodeID, avail float32) float32 {
	in := p.intrinsic(id)
	return geom.Min(geom.Max(in.Min, avail), in.Max)
}

// naturalSize returns the physical natural size of a replaced box.
func (p *pass) naturalSize(id tree.NodeID) (geom.Size, bool) {
	b := p.box(id)
	if b.Replaced == tree.ReplacedIframe {
		return iframeSize, true
	}
	if p.ctx.Images != nil {
		if sz, ok := p.ctx.Images.IntrinsicSize(b.Image); ok {
			return sz, true
		}
	}
	p.diag.Resource(diag.CodeMissingImage, int32(id), fmt.Sprintf("image:%d", b.Image), "image unavailable, laid out with zero natural size")
	return geom.Size{}, false
}

// replacedContentSize resolves the content box of a replaced element from
// its specified sizes, natural size and aspect ratio.
func (p *pass) replacedContentSize(id tree.NodeID, cbInline, cbBlock float32, cbDef bool) geom.LogicalSize {
	natPhys, _ := p.naturalSize(id)
	nat := p.wm.SizeToLogical(natPhys)
	var ratio float32
	if nat.Block > 0 {
		ratio = nat.Inline / nat.Block
	}
	bpI, bpB := p.inlineBP(id), p.blockBP(id)
	wb, wok := p.specifiedInline(id, cbInline, true)
	hb, hok := p.specifiedBlock(id, cbBlock, cbDef)
	w, h := wb-bpI, hb-bpB
	switch {
	case wok && hok:
	case wok:
		h = nat.Block
		if ratio > 0 {
			h = w / ratio
		}
	case hok:
		w = nat.Inline
		if ratio > 0 {
			w = h * ratio
		}
	default:
		w, h = nat.Inline, nat.Block
	}
	cw := p.clampInline(id, w+bpI, cbInline) - bpI
	ch := p.clampBlock(id, h+bpB, cbBlock, cbDef) - bpB
	if ratio > 0 && !wok && !hok {
		// Keep the ratio when only one axis was clamped.
		switch {
		case !geom.Approx(cw, w) && geom.Approx(ch, h):
			ch = p.clampBlock(id, cw/ratio+bpB, cbBlock, cbDef) - bpB
		case !geom.Approx(ch, h) && geom.Approx(cw, w):
			cw = p.clampInline(id, ch*ratio+bpI, cbInline) - bpI
		}
	}
	return geom.LogicalSize{Inline: geom.Max(0, cw), Block: geom.Max(0, ch)}
}

// intrinsic returns the min-content and max-content border box inline
// sizes of id, memoized for the pass and across passes by fingerprint.
func (p *pass) intrinsic(id tree.NodeID) cache.Intrinsic {
	if v, ok := p.intrinsics[id]; ok {
		return v
	}
	key := cache.IntrinsicKey{Fingerprint: p.fingerprint(id), WritingMode: p.wm}
	if v, ok := p.cache.Intrinsic(key); ok {
		p.intrinsics[id] = v
		return v
	}
	v := p.computeIntrinsic(id)
	p.intrinsics[id] = v
	p.cache.StoreIntrinsic(key, v)
	return v
}

// outerIntrinsic adds fixed inline margins to the intrinsic sizes.
func (p *pass) outerIntrinsic(id tree.NodeID) cache.Intrinsic {
	in := p.intrinsic(id)
	m := style.LogicalSides(p.box(id).Style.Margin, p.wm)
	extra := m[0].ResolveOr(0, false, 0) + m[1].ResolveOr(0, false, 0)
	return cache.Intrinsic{Min: in.Min + extra, Max: in.Max + extra}
}

func (p *pass) computeIntrinsic(id tree.NodeID) cache.Intrinsic {
	b := p.box(id)
	saved := p.frames[id]
	p.setEdges(id, 0)
	bp := p.inlineBP(id)
	defer func() {
		// Measuring must not leave edges resolved against a zero basis.
		f := &p.frames[id]
		f.Margin, f.Border, f.Padding, f.cbInline = saved.Margin, saved.Border, saved.Padding, saved.cbInline
	}()

	if w, ok := p.specifiedInline(id, 0, false); ok {
		w = p.clampIntrinsic(id, w)
		return cache.Intrinsic{Min: w, Max: w}
	}

	var in cache.Intrinsic
	switch {
	case b.Inner == boxtree.InnerReplaced:
		size, _, _ := b.Style.InlineSize(p.wm)
		w := p.replacedContentSize(id, 0, 0, false).Inline
		in = cache.Intrinsic{Min: w, Max: w}
		if size.IsPercent() {
			in.Min = 0
		}
	case b.Inner == boxtree.InnerFlex:
		in = p.flexIntrinsic(id)
	case b.Inner == boxtree.InnerTable:
		in = p.tableIntrinsic(id)
	case p.hasInlineChildren(id):
		in = p.inlineIntrinsic(id)
	default:
		for _, c := range p.lt.Children(id) {
			cb := p.box(c)
			if cb.IsOutOfFlow() {
				continue
			}
			ci := p.outerIntrinsic(c)
			in.Min = geom.Max(in.Min, ci.Min)
			in.Max = geom.Max(in.Max, ci.Max)
		}
	}
	in.Min = p.clampIntrinsic(id, in.Min+bp)
	in.Max = p.clampIntrinsic(id, geom.Max(in.Max+bp, in.Min))
	return in
}

// clampIntrinsic applies fixed min and max inline sizes; percentages do
// not constrain intrinsic contributions.
func (p *pass) clampIntrinsic(id tree.NodeID, v float32) float32 {
	st := p.box(id).Style
	_, mn, mx := st.InlineSize(p.wm)
	bp := p.inlineBP(id)
	if x, ok := mx.Resolve(0, false); ok {
		v = geom.Min(v, toBorderBox(st, x, bp))
	}
	if x, ok := mn.Resolve(0, false); ok {
		v = geom.Max(v, toBorderBox(st, x, bp))
	}
	return geom.Max(v, bp)
}

// inlineIntrinsic measures the paragraph of a block container with inline
// children. Floats contribute side by side to max-content.
func (p *pass) inlineIntrinsic(id tree.NodeID) cache.Intrinsic {
	var floats cache.Intrinsic
	items, hoisted, _ := p.collectInline(id, 0, true)
	for _, fl := range hoisted {
		fi := p.outerIntrinsic(fl)
		floats.Min = geom.Max(floats.Min, fi.Min)
		floats.Max += fi.Max
	}
	st := p.box(id).Style
	prep := p.shaper.Prepare(&text.Paragraph{Items: items, Style: st, Owner: int32(id), Indent: st.TextIndent.ResolveOr(0, false, 0)})
	mn, mx := prep.IntrinsicWidths()
	if st.WhiteSpace == style.WhiteSpaceNowrap || st.WhiteSpace == style.WhiteSpacePre {
		mn = mx
	}
	// Atomic inlines were measured at max-content; their min-content may be
	// narrower.
	for _, it := range items {
		if it.Kind == text.ItemAtomic && it.Owner >= 0 {
			if p.box(tree.NodeID(it.Owner)).IsOutOfFlow() {
				continue
			}
			ai := p.outerIntrinsic(tree.NodeID(it.Owner))
			mn = geom.Max(mn, ai.Min)
		}
	}
	return cache.Intrinsic{Min: geom.Max(mn, floats.Min), Max: mx + floats.Max}
}

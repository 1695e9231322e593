package layout

import (
	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// inlineMarker remembers where an out-of-flow box sat in the inline
// content: next is the index of the first item after it.
type inlineMarker struct {
	id   tree.NodeID
	next int
}

func (p *pass) hasInlineChildren(id tree.NodeID) bool {
	for _, c := range p.lt.Children(id) {
		if p.box(c).IsInlineLevel() {
			return true
		}
	}
	return false
}

// collectInline flattens the inline-level descendants of id into paragraph
// items. Floats are hoisted out and returned separately. In measure mode
// atomic boxes contribute their max-content size and nothing is laid out.
func (p *pass) collectInline(id tree.NodeID, cbInline float32, measure bool) ([]text.Item, []tree.NodeID, []inlineMarker) {
	var items []text.Item
	var floats []tree.NodeID
	var marks []inlineMarker
	var walk func(parent tree.NodeID)
	walk = func(parent tree.NodeID) {
		for _, c := range p.lt.Children(parent) {
			b := p.box(c)
			switch {
			case b.IsFloat():
				floats = append(floats, c)
			case b.IsOutOfFlow():
				marks = append(marks, inlineMarker{id: c, next: len(items)})
			case b.Role == boxtree.RoleText:
				items = append(items, text.Item{Kind: text.ItemText, Owner: int32(c), Text: b.Text, Style: b.Style})
			case b.Role == boxtree.RoleLineBreak:
				items = append(items, text.Item{Kind: text.ItemBreak, Owner: int32(c), Style: b.Style})
			case b.Role == boxtree.RoleInline:
				m, bd, pd := p.edgesOf(c, cbInline)
				if !measure {
					p.setEdges(c, cbInline)
				}
				items = append(items, text.Item{Kind: text.ItemOpen, Owner: int32(c), Style: b.Style, Width: m.InlineStart + bd.InlineStart + pd.InlineStart})
				walk(c)
				items = append(items, text.Item{Kind: text.ItemClose, Owner: int32(c), Style: b.Style, Width: m.InlineEnd + bd.InlineEnd + pd.InlineEnd})
			default:
				items = append(items, p.atomicItem(c, cbInline, measure))
			}
		}
	}
	walk(id)
	return items, floats, marks
}

// atomicItem lays out an inline-block or inline replaced box and describes
// it to the line breaker by its margin box and baseline.
func (p *pass) atomicItem(id tree.NodeID, cbInline float32, measure bool) text.Item {
	b := p.box(id)
	if measure {
		return text.Item{Kind: text.ItemAtomic, Owner: int32(id), Style: b.Style, Width: p.outerIntrinsic(id).Max}
	}
	p.setEdges(id, cbInline)
	f := &p.frames[id]
	w := p.floatInlineSize(id, cbInline)
	p.layoutChild(id, w, 0, false, nil, geom.LogicalPoint{})

	total := f.Size.Block + f.Margin.BlockSum()
	ascent := total
	if f.HasBaseline && b.Inner == boxtree.InnerFlow && !b.Style.ClipsOverflow() {
		ascent = f.Margin.BlockStart + f.LastBaseline
	}
	return text.Item{
		Kind:    text.ItemAtomic,
		Owner:   int32(id),
		Style:   b.Style,
		Width:   w + f.Margin.InlineSum(),
		Ascent:  ascent,
		Descent: total - ascent,
	}
}

func (p *pass) breakCache() text.BreakCache {
	if !p.cache.Enabled() {
		return nil
	}
	return p.cache
}

// layoutInline establishes an inline formatting context in id and returns
// the block size of its line boxes.
func (p *pass) layoutInline(id tree.NodeID, contentInline float32, fc *floatContext, base geom.LogicalPoint) float32 {
	b := p.box(id)
	f := &p.frames[id]
	st := b.Style

	items, floats, marks := p.collectInline(id, contentInline, false)
	for _, fl := range floats {
		p.layoutFloat(fl, contentInline, fc, base, 0)
	}

	indent := st.TextIndent.ResolveOr(contentInline, true, 0)
	prep := p.shaper.Prepare(&text.Paragraph{Items: items, Style: st, Owner: int32(id), Indent: indent})
	if !prep.HasContent() {
		for _, m := range marks {
			p.frames[m.id].Static = geom.LogicalPoint{}
		}
		p.finishInlineContainers(id)
		return 0
	}

	strutH := prep.Strut.Ascent + prep.Strut.Descent
	uniform := fc.empty()
	space := func(i int) (float32, float32) {
		if uniform {
			return 0, contentInline
		}
		y := base.Block + float32(i)*strutH
		s, e := fc.band(y, y+strutH, base.Inline, base.Inline+contentInline)
		return s - base.Inline, geom.Max(0, e-s)
	}
	lines := p.shaper.BreakParagraph(prep, text.BreakOptions{Space: space, Uniform: uniform, Cache: p.breakCache()})

	var y float32
	for i := range lines {
		l := &lines[i]
		l.Top = y
		if !uniform {
			s, _ := fc.band(base.Block+y, base.Block+y+l.Height(), base.Inline, base.Inline+contentInline)
			planned, _ := space(i)
			l.Translate(s - base.Inline - planned)
		}
		y += l.Height()
	}

	p.placeInlineContent(lines)
	f.Lines = lines
	if len(lines) > 0 {
		off := f.Border.BlockStart + f.Padding.BlockStart
		f.Baseline = lines[0].Baseline() + off
		f.LastBaseline = lines[len(lines)-1].Baseline() + off
		f.HasBaseline = true
	}
	for _, m := range marks {
		p.frames[m.id].Static = staticInLines(lines, items, m, y)
	}
	p.finishInlineContainers(id)
	return y
}

// staticInLines finds where an out-of-flow box would have been: at the
// first fragment of the content that followed it, or after the last line.
func staticInLines(lines []text.LineBox, items []text.Item, m inlineMarker, bottom float32) geom.LogicalPoint {
	for k := m.next; k < len(items); k++ {
		owner := items[k].Owner
		for li := range lines {
			for _, fr := range lines[li].Fragments {
				if fr.Owner == owner {
					return geom.LogicalPoint{Inline: fr.X, Block: lines[li].Top}
				}
			}
		}
	}
	return geom.LogicalPoint{Block: bottom}
}

// placeInlineContent turns line fragments into frames for the text, atomic
// and inline boxes of a paragraph, in the container's content coordinates.
func (p *pass) placeInlineContent(lines []text.LineBox) {
	textRects := map[tree.NodeID]geom.LogicalRect{}
	pieces := map[tree.NodeID][]geom.LogicalRect{}
	for li := range lines {
		l := &lines[li]
		baseline := l.Baseline()
		for _, fr := range l.Fragments {
			id := tree.NodeID(fr.Owner)
			switch fr.Kind {
			case text.FragmentGlyphs, text.FragmentHyphen:
				r := geom.LogicalRect{
					Origin: geom.LogicalPoint{Inline: fr.X, Block: baseline + fr.Shift - fr.Ascent},
					Size:   geom.LogicalSize{Inline: fr.Width, Block: fr.Ascent + fr.Descent},
				}
				if prev, ok := textRects[id]; ok {
					r = unionLogical(prev, r)
				}
				textRects[id] = r
			case text.FragmentAtomic:
				cf := &p.frames[id]
				top := baseline + fr.Shift - fr.Ascent
				cf.Origin = geom.LogicalPoint{Inline: fr.X + cf.Margin.InlineStart, Block: top + cf.Margin.BlockStart}
			}
		}
		for _, ib := range l.InlineBoxes {
			id := tree.NodeID(ib.Owner)
			cf := &p.frames[id]
			x, w := ib.X, ib.Width
			left, right := cf.Margin.InlineStart, cf.Margin.InlineEnd
			first, last := ib.First, ib.Last
			if ib.Style != nil && ib.Style.Direction == style.RTL {
				left, right = right, left
				first, last = last, first
			}
			if first {
				x += left
				w -= left
			}
			if last {
				w -= right
			}
			top := baseline + ib.Shift - ib.Font.Ascent - cf.Padding.BlockStart - cf.Border.BlockStart
			h := ib.Font.Ascent + ib.Font.Descent + cf.Padding.BlockSum() + cf.Border.BlockSum()
			pieces[id] = append(pieces[id], geom.LogicalRect{
				Origin: geom.LogicalPoint{Inline: x, Block: top},
				Size:   geom.LogicalSize{Inline: geom.Max(0, w), Block: h},
			})
		}
	}
	for id, r := range textRects {
		f := &p.frames[id]
		f.Origin, f.Size, f.Laid = r.Origin, r.Size, true
	}
	for id, ps := range pieces {
		f := &p.frames[id]
		u := ps[0]
		for _, r := range ps[1:] {
			u = unionLogical(u, r)
		}
		f.Origin, f.Size, f.Pieces, f.Laid = u.Origin, u.Size, ps, true
	}
}

// finishInlineContainers marks inline boxes laid out and positions the
// out-of-flow boxes they contain.
func (p *pass) finishInlineContainers(id tree.NodeID) {
	var walk func(parent tree.NodeID)
	walk = func(parent tree.NodeID) {
		for _, c := range p.lt.Children(parent) {
			b := p.box(c)
			switch b.Role {
			case boxtree.RoleInline:
				p.frames[c].Laid = true
				walk(c)
				p.layoutPositionedOf(c)
			case boxtree.RoleText, boxtree.RoleLineBreak:
				p.frames[c].Laid = true
			}
		}
	}
	walk(id)
}

func unionLogical(a, b geom.LogicalRect) geom.LogicalRect {
	i0 := geom.Min(a.Origin.Inline, b.Origin.Inline)
	b0 := geom.Min(a.Origin.Block, b.Origin.Block)
	i1 := geom.Max(a.InlineEnd(), b.InlineEnd())
	b1 := geom.Max(a.BlockEnd(), b.BlockEnd())
	return geom.LogicalRect{
		Origin: geom.LogicalPoint{Inline: i0, Block: b0},
		Size:   geom.LogicalSize{Inline: i1 - i0, Block: b1 - b0},
	}
}

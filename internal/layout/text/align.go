package text

import (
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// lineAlignment picks text-align or text-align-last for a line. An auto
// text-align-last follows text-align, so a single justified line is
// justified too.
func lineAlignment(st *style.ComputedStyle, line *LineBox) style.TextAlign {
	a := st.TextAlign
	if (line.Last || line.Forced) && st.TextAlignLast != style.TextAlignAuto {
		a = st.TextAlignLast
	}
	return style.ResolvedTextAlign(a, st.Direction)
}

// alignLine justifies, reorders and positions the fragments of a line.
func (s *Shaper) alignLine(p *Prepared, line *LineBox, content []Node) {
	align := lineAlignment(p.Style, line)

	if align == style.TextAlignJustify && !line.Overflow {
		justify(line, content)
	}

	levels := make([]uint8, len(line.Fragments))
	for i, f := range line.Fragments {
		levels[i] = f.Level
	}
	order := VisualOrder(levels)
	visual := make([]Fragment, len(order))
	for i, idx := range order {
		f := line.Fragments[idx]
		if f.Level%2 == 1 && len(f.Glyphs) > 1 && f.Kind == FragmentGlyphs {
			rev := make([]Glyph, len(f.Glyphs))
			for j, g := range f.Glyphs {
				rev[len(rev)-1-j] = g
			}
			f.Glyphs = rev
		}
		visual[i] = f
	}
	line.Fragments = visual

	slack := line.Available - line.Width
	var offset float32
	rtl := p.Style.Direction == style.RTL
	switch {
	case slack < 0:
		if rtl {
			offset = slack
		}
	case align == style.TextAlignRight:
		offset = slack
	case align == style.TextAlignCenter:
		offset = slack / 2
	case align == style.TextAlignJustify && rtl:
		offset = slack
	}

	x := line.Offset + offset
	for i := range line.Fragments {
		line.Fragments[i].X = x
		x += line.Fragments[i].Width
	}

	for i := range line.InlineBoxes {
		line.InlineBoxes[i].X = -1
	}
	for _, f := range line.Fragments {
		for _, bi := range f.boxes {
			ib := &line.InlineBoxes[bi]
			if ib.X < 0 {
				ib.X, ib.Width = f.X, f.Width
				continue
			}
			lo, hi := min(ib.X, f.X), max(ib.X+ib.Width, f.X+f.Width)
			ib.X, ib.Width = lo, hi-lo
		}
	}
	for i := range line.InlineBoxes {
		if line.InlineBoxes[i].X < 0 {
			line.InlineBoxes[i].X = line.Offset + offset
		}
	}
}

// justify spreads the remaining width over the line's glue in proportion to
// stretch, or evenly when no glue can stretch.
func justify(line *LineBox, content []Node) {
	extra := line.Available - line.Width
	if extra <= 0.01 {
		return
	}
	var total float32
	count := 0
	for _, n := range content {
		if n.Kind == NodeGlue && !n.Fill && n.Item >= 0 {
			total += n.Stretch
			count++
		}
	}
	if count == 0 {
		return
	}
	at := make(map[int]float32, count)
	for _, n := range content {
		if n.Kind != NodeGlue || n.Fill || n.Item < 0 {
			continue
		}
		share := extra / float32(count)
		if total > 0 {
			share = extra * n.Stretch / total
		}
		at[n.Range.Start] += share
	}
	for i := range line.Fragments {
		f := &line.Fragments[i]
		if f.Kind != FragmentGlyphs {
			continue
		}
		for j := range f.Glyphs {
			if add, ok := at[f.Glyphs[j].Cluster.Start]; ok {
				f.Glyphs[j].Advance += add
				f.Width += add
				line.Width += add
				delete(at, f.Glyphs[j].Cluster.Start)
			}
		}
	}
}

package text

import (
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

type FragmentKind uint8

const (
	FragmentGlyphs FragmentKind = iota
	FragmentAtomic
	FragmentOpen
	FragmentClose
	FragmentHyphen
	FragmentSpacer
)

// Fragment is one positioned piece of a line box. X is relative to the
// container's content box inline start; Shift is the baseline offset from
// the line baseline, positive downwards.
type Fragment struct {
	Kind  FragmentKind
	Owner int32
	Item  int
	Style *style.ComputedStyle
	Run   *ShapedRun
	Range ByteRange
	// Text is the processed source text of a glyph fragment.
	Text    string
	Level   uint8
	Glyphs  []Glyph
	X       float32
	Width   float32
	Shift   float32
	Ascent  float32
	Descent float32

	boxes []int
}

// InlineBoxExtent is the part of an inline box that falls on one line.
type InlineBoxExtent struct {
	Owner int32
	Style *style.ComputedStyle
	X     float32
	Width float32
	Shift float32
	Font  FontMetrics
	// First and Last mark the line where the box opens and closes, which
	// decides whether start and end edges are drawn.
	First bool
	Last  bool
}

// LineBox is one laid out line. Top is set by the block that stacks lines.
type LineBox struct {
	Fragments   []Fragment
	InlineBoxes []InlineBoxExtent
	Offset      float32
	Available   float32
	Width       float32
	Top         float32
	Ascent      float32
	Descent     float32
	Range       ByteRange
	Overflow    bool
	Forced      bool
	Last        bool
}

func (l *LineBox) Height() float32   { return l.Ascent + l.Descent }
func (l *LineBox) Baseline() float32 { return l.Top + l.Ascent }

// Translate shifts every fragment horizontally, used when float avoidance
// moves a line after breaking.
func (l *LineBox) Translate(dx float32) {
	if dx == 0 {
		return
	}
	l.Offset += dx
	for i := range l.Fragments {
		l.Fragments[i].X += dx
	}
	for i := range l.InlineBoxes {
		l.InlineBoxes[i].X += dx
	}
}

// LineSpaceFunc returns the inline offset and available width of line i.
type LineSpaceFunc func(line int) (offset, width float32)

// BreakOptions controls one call to BreakParagraph.
type BreakOptions struct {
	Space LineSpaceFunc
	// Uniform is true when every line has the same width, which makes the
	// result cacheable.
	Uniform bool
	Cache   BreakCache
}

type openBox struct {
	owner int32
	style *style.ComputedStyle
	shift float32
	font  FontMetrics
	first bool
}

// BreakParagraph breaks a prepared paragraph into positioned line boxes.
func (s *Shaper) BreakParagraph(p *Prepared, opts BreakOptions) []LineBox {
	widths := func(i int) float32 {
		_, w := opts.Space(i)
		return w
	}
	nodes := p.Nodes
	var res BreakResult
	key := BreakKey{Content: p.contentHash, Style: p.styleHash, Indent: p.Indent}
	key.Width = widths(0)
	cached := false
	if opts.Uniform && opts.Cache != nil {
		if breaks, ok := opts.Cache.LineBreaks(key); ok && validBreaks(breaks, nodes) {
			res = BreakResult{Breaks: breaks, Overfull: make([]bool, len(breaks))}
			cached = true
		}
	}
	if !cached {
		res = BreakLines(nodes, widths, s.params)
		if anyTrue(res.Overfull) && p.allowsEmergencyWrap() {
			emergency := s.buildNodes(p, true)
			if alt := BreakLines(emergency, widths, s.params); len(alt.Breaks) > 0 {
				nodes, res = emergency, alt
			}
		} else if opts.Uniform && opts.Cache != nil {
			opts.Cache.StoreLineBreaks(key, res.Breaks)
		}
	}

	lines := make([]LineBox, 0, len(res.Breaks))
	var stack []openBox
	prev := -1
	for li, b := range res.Breaks {
		start := prev + 1
		if prev >= 0 {
			for start < b && (nodes[start].Kind == NodeGlue || (nodes[start].Kind == NodePenalty && !nodes[start].Forced())) {
				start++
			}
		}
		end := b
		for end > start && (nodes[end-1].Kind == NodeGlue || nodes[end-1].Kind == NodePenalty) {
			end--
		}
		offset, avail := opts.Space(li)
		line := s.buildLine(p, nodes, start, end, b, &stack)
		line.Offset = offset
		line.Available = avail
		line.Forced = nodes[b].Forced()
		line.Last = li == len(res.Breaks)-1
		line.Overflow = line.Width > avail+0.01
		s.alignLine(p, &line, nodes[start:end])
		lines = append(lines, line)
		prev = b
	}
	return lines
}

func validBreaks(breaks []int, nodes []Node) bool {
	for _, b := range breaks {
		if b < 0 || b >= len(nodes) {
			return false
		}
	}
	return len(breaks) > 0 && breaks[len(breaks)-1] == len(nodes)-1
}

func anyTrue(v []bool) bool {
	for _, b := range v {
		if b {
			return true
		}
	}
	return false
}

func (p *Prepared) allowsEmergencyWrap() bool {
	for _, it := range p.Items {
		if it.Kind == ItemText && it.Style.OverflowWrap != style.OverflowWrapNormal {
			return true
		}
	}
	return false
}

// buildLine converts nodes[start:end] (plus a hyphen when breaking at a
// flagged penalty b) into fragments in logical order.
func (s *Shaper) buildLine(p *Prepared, nodes []Node, start, end, b int, stack *[]openBox) LineBox {
	var line LineBox
	var frags []Fragment
	line.Range = ByteRange{Start: -1}

	appendText := func(idx int, r ByteRange) {
		if n := len(frags); n > 0 && frags[n-1].Kind == FragmentGlyphs && frags[n-1].Item == idx && frags[n-1].Range.End == r.Start {
			frags[n-1].Range.End = r.End
			return
		}
		it := &p.Items[idx]
		frags = append(frags, Fragment{Kind: FragmentGlyphs, Owner: it.Owner, Item: idx, Style: it.Style, Range: r})
	}

	for i := start; i < end; i++ {
		n := nodes[i]
		if n.Kind == NodePenalty {
			continue
		}
		if n.Item < 0 {
			if n.Kind == NodeBox && n.Width != 0 {
				frags = append(frags, Fragment{Kind: FragmentSpacer, Owner: p.Owner, Item: -1, Width: n.Width, Style: p.Style, Level: BaseLevel(p.Style.Direction)})
			}
			continue
		}
		it := &p.Items[n.Item]
		switch it.Kind {
		case ItemText:
			appendText(n.Item, n.Range)
		case ItemAtomic:
			frags = append(frags, Fragment{Kind: FragmentAtomic, Owner: it.Owner, Item: n.Item, Style: it.Style, Range: it.Range, Width: it.Width, Ascent: it.Ascent, Descent: it.Descent})
		case ItemOpen:
			frags = append(frags, Fragment{Kind: FragmentOpen, Owner: it.Owner, Item: n.Item, Style: it.Style, Range: it.Range, Width: it.Width})
		case ItemClose:
			frags = append(frags, Fragment{Kind: FragmentClose, Owner: it.Owner, Item: n.Item, Style: it.Style, Range: it.Range, Width: it.Width})
		}
	}
	if pen := nodes[b]; pen.Kind == NodePenalty && pen.Flagged && pen.Item >= 0 {
		if run, ok := p.hyphenRuns[pen.Item]; ok {
			it := &p.Items[pen.Item]
			frags = append(frags, Fragment{Kind: FragmentHyphen, Owner: it.Owner, Item: pen.Item, Style: it.Style, Run: run, Glyphs: run.Glyphs, Width: run.Advance, Text: "-", Range: ByteRange{Start: pen.Range.Start, End: pen.Range.Start}})
		}
	}

	// Split text fragments at shaped run boundaries and pick their glyphs.
	var out []Fragment
	for _, f := range frags {
		if f.Kind != FragmentGlyphs {
			if f.Kind != FragmentSpacer && f.Kind != FragmentHyphen {
				f.Level = levelAt(p, f.Range.Start)
			} else if f.Kind == FragmentHyphen {
				f.Level = levelAt(p, max(f.Range.Start-1, 0))
			}
			out = append(out, f)
			continue
		}
		it := &p.Items[f.Item]
		for _, run := range it.Runs {
			lo, hi := max(run.Range.Start, f.Range.Start), min(run.Range.End, f.Range.End)
			if lo >= hi {
				continue
			}
			g := f
			g.Run = run
			g.Range = ByteRange{Start: lo, End: hi}
			if hi <= len(p.Text) {
				g.Text = p.Text[lo:hi]
			}
			g.Level = run.Level
			for _, gl := range run.Glyphs {
				abs := run.Range.Start + gl.Cluster.Start
				if abs >= lo && abs < hi {
					gl.Cluster = ByteRange{Start: abs, End: run.Range.Start + gl.Cluster.End}
					g.Glyphs = append(g.Glyphs, gl)
					g.Width += gl.Advance
				}
			}
			out = append(out, g)
		}
	}
	out = mergeHyphen(out)
	for _, f := range out {
		if f.Kind == FragmentGlyphs || f.Kind == FragmentHyphen {
			if line.Range.Start < 0 || f.Range.Start < line.Range.Start {
				line.Range.Start = f.Range.Start
			}
			if f.Range.End > line.Range.End {
				line.Range.End = f.Range.End
			}
		}
		line.Width += f.Width
	}
	if line.Range.Start < 0 {
		line.Range = ByteRange{}
	}
	line.Fragments = out
	s.verticalMetrics(p, &line, stack)
	return line
}

// mergeHyphen folds a trailing hyphen into the glyph fragment it follows
// when both share a shaped style, so the line carries one run whose text
// ends in "-". A soft hyphen at the end of that run is dropped from the
// text along with its zero-width glyph.
func mergeHyphen(out []Fragment) []Fragment {
	n := len(out)
	if n < 2 || out[n-1].Kind != FragmentHyphen {
		return out
	}
	h, prev := out[n-1], &out[n-2]
	if prev.Kind != FragmentGlyphs || prev.Owner != h.Owner || prev.Level != h.Level ||
		prev.Range.End != h.Range.Start || prev.Run == nil || h.Run == nil || prev.Run.Style != h.Run.Style {
		return out
	}
	trimmed := strings.TrimSuffix(prev.Text, "\u00ad")
	cut := prev.Range.Start + len(trimmed)
	glyphs := make([]Glyph, 0, len(prev.Glyphs)+len(h.Glyphs))
	for _, gl := range prev.Glyphs {
		if gl.Cluster.Start >= cut && gl.Advance == 0 {
			continue
		}
		glyphs = append(glyphs, gl)
	}
	for _, gl := range h.Glyphs {
		gl.Cluster = ByteRange{Start: cut, End: cut + 1}
		glyphs = append(glyphs, gl)
	}
	prev.Glyphs = glyphs
	prev.Text = trimmed + "-"
	prev.Width += h.Width
	return out[:n-1]
}

func levelAt(p *Prepared, off int) uint8 {
	if off >= 0 && off < len(p.Levels) {
		return p.Levels[off]
	}
	return BaseLevel(p.Style.Direction)
}

// baselineShift computes the vertical-align offset for a box with the given
// layout bounds inside a parent with font metrics pf and size ps. The second
// result is 1 for top, 2 for bottom, which resolve against the line.
func baselineShift(va style.VerticalAlign, own LineMetrics, pf FontMetrics, ps float32) (float32, int) {
	switch va {
	case style.VerticalAlignSub:
		return ps * 0.2, 0
	case style.VerticalAlignSuper:
		return -ps * 0.34, 0
	case style.VerticalAlignTextTop:
		return own.Ascent - pf.Ascent, 0
	case style.VerticalAlignTextBottom:
		return pf.Descent - own.Descent, 0
	case style.VerticalAlignMiddle:
		xh := pf.XHeight
		if xh == 0 {
			xh = ps * 0.5
		}
		return -xh/2 - (own.Descent-own.Ascent)/2, 0
	case style.VerticalAlignTop:
		return 0, 1
	case style.VerticalAlignBottom:
		return 0, 2
	}
	return 0, 0
}

// verticalMetrics resolves fragment shifts and the line's ascent and
// descent, starting from the container strut.
func (s *Shaper) verticalMetrics(p *Prepared, line *LineBox, stack *[]openBox) {
	line.Ascent, line.Descent = p.Strut.Ascent, p.Strut.Descent
	parentFont, parentSize := p.Strut.Font, p.Style.FontSize
	special := make([]int, len(line.Fragments))

	cur := func() (float32, FontMetrics, float32) {
		if n := len(*stack); n > 0 {
			top := (*stack)[n-1]
			return top.shift, top.font, top.style.FontSize
		}
		return 0, parentFont, parentSize
	}

	extents := map[int32]int{}
	touch := func(owner int32, st *style.ComputedStyle, shift float32, font FontMetrics, first bool) int {
		if i, ok := extents[owner]; ok {
			return i
		}
		line.InlineBoxes = append(line.InlineBoxes, InlineBoxExtent{Owner: owner, Style: st, Shift: shift, Font: font, First: first, X: -1})
		extents[owner] = len(line.InlineBoxes) - 1
		return len(line.InlineBoxes) - 1
	}
	for _, ob := range *stack {
		touch(ob.owner, ob.style, ob.shift, ob.font, false)
	}

	members := func() []int {
		out := make([]int, 0, len(*stack))
		for _, ob := range *stack {
			out = append(out, extents[ob.owner])
		}
		return out
	}
	for i := range line.Fragments {
		f := &line.Fragments[i]
		base, pf, ps := cur()
		if f.Kind != FragmentOpen {
			f.boxes = members()
		}
		switch f.Kind {
		case FragmentOpen:
			rf := s.Resolve(f.Style, f.Owner)
			bounds := LayoutBounds(f.Style, rf.Metrics)
			shift, sp := baselineShift(f.Style.VerticalAlign, bounds, pf, ps)
			special[i] = sp
			f.Shift = base + shift
			f.Ascent, f.Descent = bounds.Ascent, bounds.Descent
			*stack = append(*stack, openBox{owner: f.Owner, style: f.Style, shift: f.Shift, font: rf.Metrics, first: true})
			touch(f.Owner, f.Style, f.Shift, rf.Metrics, true)
			f.boxes = members()
		case FragmentClose:
			f.Shift = base
			if n := len(*stack); n > 0 {
				top := (*stack)[n-1]
				f.Ascent, f.Descent = top.font.Ascent, top.font.Descent
				line.InlineBoxes[touch(top.owner, top.style, top.shift, top.font, false)].Last = true
				*stack = (*stack)[:n-1]
			}
		case FragmentAtomic:
			own := LineMetrics{Ascent: f.Ascent, Descent: f.Descent}
			shift, sp := baselineShift(f.Style.VerticalAlign, own, pf, ps)
			special[i] = sp
			f.Shift = base + shift
		case FragmentSpacer:
			f.Ascent, f.Descent = 0, 0
		default:
			var fm FontMetrics
			if f.Run != nil {
				fm = f.Run.Metrics
			}
			bounds := LayoutBounds(f.Style, fm)
			f.Ascent, f.Descent = bounds.Ascent, bounds.Descent
			f.Shift = base
		}
		if special[i] == 0 && f.Kind != FragmentSpacer {
			line.Ascent = max(line.Ascent, f.Ascent-f.Shift)
			line.Descent = max(line.Descent, f.Descent+f.Shift)
		}
	}
	for i := range line.Fragments {
		f := &line.Fragments[i]
		h := f.Ascent + f.Descent
		switch special[i] {
		case 1:
			if h > line.Ascent+line.Descent {
				line.Descent = h - line.Ascent
			}
		case 2:
			if h > line.Ascent+line.Descent {
				line.Ascent = h - line.Descent
			}
		}
	}
	for i := range line.Fragments {
		f := &line.Fragments[i]
		switch special[i] {
		case 1:
			f.Shift = -line.Ascent + f.Ascent
		case 2:
			f.Shift = line.Descent - f.Descent
		}
	}
}

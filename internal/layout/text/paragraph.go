package text

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// ItemKind classifies inline content fed to a paragraph.
type ItemKind uint8

const (
	ItemText ItemKind = iota
	// ItemAtomic is an inline-level box laid out on its own (inline-block,
	// replaced element, inline flex or table).
	ItemAtomic
	// ItemOpen and ItemClose bracket the content of an inline box; Width is
	// the margin, border and padding on that side.
	ItemOpen
	ItemClose
	// ItemBreak is a forced break such as <br>.
	ItemBreak
)

// Item is one piece of inline content in logical order.
type Item struct {
	Kind  ItemKind
	Owner int32
	Text  string
	Style *style.ComputedStyle
	Width float32
	// Ascent and Descent position atomic boxes against the baseline.
	Ascent  float32
	Descent float32
}

// Paragraph is the inline content of one block container.
type Paragraph struct {
	Items []Item
	// Style is the block container's style; it supplies the strut,
	// direction and alignment.
	Style  *style.ComputedStyle
	Owner  int32
	Indent float32
}

const objectReplacement = "\ufffc"

type preparedItem struct {
	Item
	Range ByteRange
	Runs  []*ShapedRun
}

// Prepared is a paragraph after white-space processing, bidi resolution,
// shaping and conversion to Knuth-Plass nodes.
type Prepared struct {
	Text   string
	Items  []preparedItem
	Levels []uint8
	Nodes  []Node
	Strut  LineMetrics
	Style  *style.ComputedStyle
	Owner  int32
	Indent float32

	contentHash uint64
	styleHash   uint64
	emergency   bool
	hyphenRuns  map[int]*ShapedRun
}

// LineMetrics are the ascent and descent of a layout bound around a
// baseline, half-leading included.
type LineMetrics struct {
	Ascent  float32
	Descent float32
	// Font holds the raw font metrics before leading.
	Font FontMetrics
}

// LayoutBounds applies the half-leading model for a style and its font.
func LayoutBounds(st *style.ComputedStyle, fm FontMetrics) LineMetrics {
	contentH := fm.Ascent + fm.Descent
	lh := st.LineHeight.Resolve(st.FontSize)
	if st.LineHeight.Kind == style.LineHeightNormal && fm.LineGap > 0 {
		lh = contentH + fm.LineGap
	}
	half := (lh - contentH) / 2
	return LineMetrics{Ascent: fm.Ascent + half, Descent: fm.Descent + half, Font: fm}
}

// Prepare runs every pre-breaking step over a paragraph.
func (s *Shaper) Prepare(p *Paragraph) *Prepared {
	prep := &Prepared{Style: p.Style, Owner: p.Owner, Indent: p.Indent, hyphenRuns: map[int]*ShapedRun{}}
	strutFont := s.Resolve(p.Style, p.Owner)
	prep.Strut = LayoutBounds(p.Style, strutFont.Metrics)

	var b strings.Builder
	ws := NewWhiteSpaceState()
	for _, it := range p.Items {
		st := it.Style
		if st == nil {
			st = p.Style
			it.Style = st
		}
		switch it.Kind {
		case ItemText:
			pieces := ProcessWhiteSpace(it.Text, st.WhiteSpace, &ws)
			for i, piece := range pieces {
				if i > 0 {
					start := b.Len()
					b.WriteByte('\n')
					prep.Items = append(prep.Items, preparedItem{Item: Item{Kind: ItemBreak, Owner: it.Owner, Style: st}, Range: ByteRange{Start: start, End: b.Len()}})
				}
				if piece == "" {
					continue
				}
				start := b.Len()
				b.WriteString(piece)
				ti := it
				ti.Text = piece
				prep.Items = append(prep.Items, preparedItem{Item: ti, Range: ByteRange{Start: start, End: b.Len()}})
			}
		case ItemAtomic:
			start := b.Len()
			b.WriteString(objectReplacement)
			ws.PendingSpace = false
			prep.Items = append(prep.Items, preparedItem{Item: it, Range: ByteRange{Start: start, End: b.Len()}})
		case ItemBreak:
			start := b.Len()
			b.WriteByte('\n')
			ws = NewWhiteSpaceState()
			prep.Items = append(prep.Items, preparedItem{Item: it, Range: ByteRange{Start: start, End: b.Len()}})
		default:
			prep.Items = append(prep.Items, preparedItem{Item: it, Range: ByteRange{Start: b.Len(), End: b.Len()}})
		}
	}
	prep.Text = b.String()
	prep.trimTrailingSpace()
	prep.Levels = ResolveLevels(prep.Text, p.Style.Direction)

	h := style.NewHasher()
	h.String(prep.Text)
	sh := style.NewHasher()
	sh.U64(p.Style.LayoutHash())
	for i := range prep.Items {
		it := &prep.Items[i]
		h.U8(uint8(it.Kind))
		h.F32(it.Width)
		h.F32(it.Ascent)
		if it.Style != nil {
			sh.U64(it.Style.LayoutHash())
		}
		if it.Kind == ItemText {
			it.Runs = s.shapeItem(prep, it)
		}
	}
	prep.contentHash = h.Sum()
	prep.styleHash = sh.Sum()
	prep.Nodes = s.buildNodes(prep, false)
	return prep
}

// trimTrailingSpace drops a collapsible space at the very end of the
// paragraph.
func (p *Prepared) trimTrailingSpace() {
	for i := len(p.Items) - 1; i >= 0; i-- {
		it := &p.Items[i]
		if it.Kind == ItemOpen || it.Kind == ItemClose {
			continue
		}
		if it.Kind != ItemText || !it.Style.WhiteSpace.CollapsesSpaces() {
			return
		}
		if strings.HasSuffix(it.Text, " ") && it.Range.End == len(p.Text) {
			it.Text = it.Text[:len(it.Text)-1]
			it.Range.End--
			p.Text = p.Text[:len(p.Text)-1]
			for j := i + 1; j < len(p.Items); j++ {
				p.Items[j].Range = ByteRange{Start: len(p.Text), End: len(p.Text)}
			}
			if it.Range.Len() == 0 {
				p.Items = append(p.Items[:i], p.Items[i+1:]...)
			}
		}
		return
	}
}

// shapeItem splits a text item at script and bidi level changes and shapes
// each piece.
func (s *Shaper) shapeItem(p *Prepared, it *preparedItem) []*ShapedRun {
	var runs []*ShapedRun
	local := p.Text[it.Range.Start:it.Range.End]
	for _, sr := range ItemizeScripts(local) {
		start := sr.Range.Start
		for i := sr.Range.Start; i <= sr.Range.End; i++ {
			atEnd := i == sr.Range.End
			if !atEnd && (i == start || p.Levels[it.Range.Start+i] == p.Levels[it.Range.Start+start]) {
				continue
			}
			lvl := p.Levels[it.Range.Start+start]
			runs = append(runs, s.ShapeRange(local[start:i], it.Range.Start+start, sr.Script, lvl, it.Style, it.Owner))
			start = i
		}
	}
	return runs
}

// advance sums glyph advances whose cluster starts inside r.
func (it *preparedItem) advance(r ByteRange) float32 {
	var w float32
	for _, run := range it.Runs {
		if run.Range.End <= r.Start || run.Range.Start >= r.End {
			continue
		}
		for _, g := range run.Glyphs {
			if r.Contains(run.Range.Start + g.Cluster.Start) {
				w += g.Advance
			}
		}
	}
	return w
}

func glueFor(it *preparedItem, r ByteRange) Node {
	w := it.advance(r)
	stretch := w / 2
	if floor := it.Style.FontSize / 6; stretch < floor {
		stretch = floor
	}
	return Node{Kind: NodeGlue, Width: w, Stretch: stretch, Item: -1, Range: r}
}

func (s *Shaper) hyphenNode(p *Prepared, idx int, it *preparedItem, at int) Node {
	run, ok := p.hyphenRuns[idx]
	if !ok {
		run = s.ShapeString("-", it.Style, it.Owner)
		p.hyphenRuns[idx] = run
	}
	return Node{Kind: NodePenalty, Width: run.Advance, Penalty: s.HyphenPenalty, Flagged: true, Item: idx, Range: ByteRange{Start: at, End: at}}
}

// buildNodes converts the prepared paragraph to boxes, glue and penalties.
// In emergency mode words whose overflow-wrap allows it get a break
// opportunity between every grapheme cluster.
func (s *Shaper) buildNodes(p *Prepared, emergency bool) []Node {
	opps := BreakOpportunities(p.Text)
	oppAt := make(map[int]bool, len(opps))
	for _, o := range opps {
		oppAt[o.Offset] = o.Mandatory || oppAt[o.Offset]
	}
	isOpp := func(off int) (bool, bool) {
		m, ok := oppAt[off]
		return ok, m
	}

	nodes := make([]Node, 0, len(p.Items)*4)
	if p.Indent != 0 {
		nodes = append(nodes, Node{Kind: NodeBox, Width: p.Indent, Item: -1, Range: ByteRange{}})
	}
	for idx := range p.Items {
		it := &p.Items[idx]
		switch it.Kind {
		case ItemOpen, ItemClose:
			nodes = append(nodes, Node{Kind: NodeBox, Width: it.Width, Item: idx, Range: it.Range})
		case ItemAtomic:
			nodes = append(nodes, Node{Kind: NodeBox, Width: it.Width, Item: idx, Range: it.Range})
			if ok, _ := isOpp(it.Range.End); ok && it.Range.End < len(p.Text) {
				nodes = append(nodes, Node{Kind: NodePenalty, Item: idx, Range: ByteRange{Start: it.Range.End, End: it.Range.End}})
			}
		case ItemBreak:
			nodes = appendForcedBreak(nodes, idx, it.Range)
		case ItemText:
			nodes = s.textNodes(p, idx, it, nodes, isOpp, emergency)
		}
	}
	return appendForcedBreak(nodes, -1, ByteRange{Start: len(p.Text), End: len(p.Text)})
}

// appendForcedBreak ends a line with finishing glue that cannot itself be
// chosen as a break.
func appendForcedBreak(nodes []Node, item int, r ByteRange) []Node {
	return append(nodes,
		Node{Kind: NodePenalty, Penalty: Infinity, Item: -1},
		Node{Kind: NodeGlue, Fill: true, Item: -1},
		Node{Kind: NodePenalty, Penalty: -Infinity, Item: item, Range: r})
}

func (s *Shaper) textNodes(p *Prepared, idx int, it *preparedItem, nodes []Node, isOpp func(int) (bool, bool), emergency bool) []Node {
	ws := it.Style.WhiteSpace
	wraps := ws.Wraps()
	var cuts []int
	for off := it.Range.Start + 1; off < it.Range.End; off++ {
		if ok, _ := isOpp(off); ok {
			cuts = append(cuts, off)
		}
	}
	cuts = append(cuts, it.Range.End)

	start := it.Range.Start
	for _, end := range cuts {
		seg := p.Text[start:end]
		opp, mandatory := isOpp(end)
		if end == len(p.Text) {
			opp = false
		}
		wordEnd := end
		if wraps {
			wordEnd = start + len(strings.TrimRight(seg, " "))
		}
		if wordEnd > start {
			nodes = s.wordNodes(p, idx, it, ByteRange{Start: start, End: wordEnd}, nodes, emergency)
		}
		switch {
		case wordEnd < end:
			nodes = append(nodes, glueFor(it, ByteRange{Start: wordEnd, End: end}))
			nodes[len(nodes)-1].Item = idx
			if mandatory {
				nodes = appendForcedBreak(nodes, idx, ByteRange{Start: end, End: end})
			}
		case opp && mandatory:
			nodes = appendForcedBreak(nodes, idx, ByteRange{Start: end, End: end})
		case opp && wraps:
			if strings.HasSuffix(seg, "\u00ad") {
				if it.Style.Hyphens != style.HyphensNone {
					nodes = append(nodes, s.hyphenNode(p, idx, it, end))
				}
			} else {
				nodes = append(nodes, Node{Kind: NodePenalty, Item: idx, Range: ByteRange{Start: end, End: end}})
			}
		}
		start = end
	}
	return nodes
}

// wordNodes emits the boxes for one unbreakable word, split at automatic
// hyphenation points or, in emergency mode, at grapheme boundaries.
func (s *Shaper) wordNodes(p *Prepared, idx int, it *preparedItem, r ByteRange, nodes []Node, emergency bool) []Node {
	var splits []int
	hyphenate := false
	if emergency && it.Style.OverflowWrap != style.OverflowWrapNormal && it.Style.WhiteSpace.Wraps() {
		for _, e := range GraphemeBoundaries(p.Text[r.Start:r.End]) {
			splits = append(splits, r.Start+e)
		}
	} else if it.Style.Hyphens == style.HyphensAuto && s.hyph != nil && it.Style.WhiteSpace.Wraps() {
		for _, off := range s.hyph.Hyphenate(p.Text[r.Start:r.End], ParseLanguage(it.Style.Language)) {
			if off > 0 && off < r.Len() {
				splits = append(splits, r.Start+off)
			}
		}
		sort.Ints(splits)
		splits = append(splits, r.End)
		hyphenate = true
	}
	if len(splits) == 0 {
		return append(nodes, Node{Kind: NodeBox, Width: it.advance(r), Item: idx, Range: r})
	}
	start := r.Start
	for _, end := range splits {
		if end <= start {
			continue
		}
		piece := ByteRange{Start: start, End: end}
		nodes = append(nodes, Node{Kind: NodeBox, Width: it.advance(piece), Item: idx, Range: piece})
		if end < r.End {
			if hyphenate {
				nodes = append(nodes, s.hyphenNode(p, idx, it, end))
			} else {
				nodes = append(nodes, Node{Kind: NodePenalty, Penalty: s.HyphenPenalty, Item: idx, Range: ByteRange{Start: end, End: end}})
			}
		}
		start = end
	}
	return nodes
}

// IntrinsicWidths returns the min-content and max-content inline sizes of
// the paragraph.
func (p *Prepared) IntrinsicWidths() (minContent, maxContent float32) {
	var word, line, pendingGlue float32
	for i, n := range p.Nodes {
		switch n.Kind {
		case NodeBox:
			word += n.Width
			line += pendingGlue + n.Width
			pendingGlue = 0
		case NodeGlue:
			if i > 0 && p.Nodes[i-1].Kind == NodeBox && word > minContent {
				minContent = word
			}
			if i > 0 && p.Nodes[i-1].Kind == NodeBox {
				word = 0
			}
			if !n.Fill {
				pendingGlue += n.Width
			}
		case NodePenalty:
			if n.Penalty < Infinity {
				if word+n.Width > minContent {
					minContent = word + n.Width
				}
				word = 0
			}
			if n.Forced() {
				if line > maxContent {
					maxContent = line
				}
				line, pendingGlue = 0, 0
			}
		}
	}
	if word > minContent {
		minContent = word
	}
	if line > maxContent {
		maxContent = line
	}
	return minContent, maxContent
}

// HasContent reports whether the paragraph produces any line box. Empty
// inline boxes without borders or padding generate nothing.
func (p *Prepared) HasContent() bool {
	for _, it := range p.Items {
		switch it.Kind {
		case ItemText, ItemAtomic, ItemBreak:
			return true
		case ItemOpen, ItemClose:
			if it.Width != 0 {
				return true
			}
		}
	}
	return false
}

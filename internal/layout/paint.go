package layout

import (
	"slices"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/hittest"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// painter walks stacking contexts in paint order, emitting display items
// and hit test entries side by side so both agree on what is on top.
type painter struct {
	lt     *boxtree.LayoutTree
	frames []Frame
	g      *geometry
	b      *display.Builder
	hits   *hittest.Index
	diag   *diag.Collector
	images ImageProvider

	// inverse maps document coordinates into the current local space.
	inverse geom.Matrix
	clips   []hittest.Clip
	context tree.NodeID
}

func newPainter(lt *boxtree.LayoutTree, frames []Frame, g *geometry, b *display.Builder, c *diag.Collector, images ImageProvider) *painter {
	return &painter{
		lt:      lt,
		frames:  frames,
		g:       g,
		b:       b,
		hits:    hittest.New(),
		diag:    c,
		images:  images,
		inverse: geom.Identity(),
		context: tree.None,
	}
}

func (p *painter) paint() {
	root := p.lt.Root
	if root == tree.None || !p.frames[root].Laid {
		return
	}
	p.paintContext(root)
}

func (p *painter) box(id tree.NodeID) *boxtree.Box { return p.lt.Box(id) }

// borderRect is the placed physical border box of a non-inline box.
func (p *painter) borderRect(id tree.NodeID) geom.Rect {
	return p.g.physical(p.g.border[id])
}

func (p *painter) paddingRect(id tree.NodeID) geom.Rect {
	return p.borderRect(id).Inset(p.g.wm.EdgesToPhysical(p.frames[id].Border))
}

func (p *painter) visible(id tree.NodeID) bool {
	st := p.box(id).Style
	return st == nil || st.Visibility == style.Visible
}

// clips reports whether id clips its descendants.
func (p *painter) clipsOverflow(id tree.NodeID) bool {
	b := p.box(id)
	return b.Style != nil && b.Role != boxtree.RoleInline && b.Style.ClipsOverflow()
}

// pushClip opens the padding box clip of id for both outputs.
func (p *painter) pushClip(id tree.NodeID) {
	r := p.paddingRect(id)
	st := p.box(id).Style
	p.b.PushClip(display.PushClip{Node: id, Rect: r, Radii: st.Radius})
	p.clips = append(p.clips, hittest.Clip{Rect: r, Inverse: p.inverse})
}

func (p *painter) popClip() {
	p.b.Pop(display.KindPopClip)
	p.clips = p.clips[:len(p.clips)-1]
}

// addHit registers r as the hit area of id in the current space.
func (p *painter) addHit(id tree.NodeID, r geom.Rect) {
	b := p.box(id)
	if b.Kind != tree.KindElement && b.Kind != tree.KindReplaced {
		return
	}
	if b.Style != nil && (b.Style.PointerEvents == style.PointerEventsNone || b.Style.Visibility != style.Visible) {
		return
	}
	p.hits.Add(hittest.Entry{
		Node:    id,
		Rect:    r,
		Inverse: p.inverse,
		Clips:   slices.Clone(p.clips),
		Context: p.context,
	})
}

// paintContext paints a stacking context root and everything in it.
func (p *painter) paintContext(id tree.NodeID) {
	m := p.b.Begin(id)
	defer p.b.End(m)

	prevInverse, prevContext := p.inverse, p.context
	defer func() { p.inverse, p.context = prevInverse, prevContext }()

	st := p.box(id).Style
	if st != nil && st.HasTransform() {
		mat := transformMatrix(st, p.borderRect(id))
		inv, err := mat.Inverse()
		if err != nil {
			p.diag.Warnf(diag.CodeSingularTransform, int32(id), "transform is not invertible, subtree not painted")
			return
		}
		p.b.PushTransform(display.PushTransform{Node: id, Matrix: mat})
		defer p.b.Pop(display.KindPopTransform)
		p.inverse = inv.Multiply(p.inverse)
	}
	if st != nil && st.Opacity < 1 {
		p.b.PushOpacity(display.PushOpacity{Node: id, Opacity: st.Opacity})
		defer p.b.Pop(display.KindPopOpacity)
	}
	p.context = id

	layers := collectLayers(p.lt, p.frames, id)
	p.paintOwn(id)
	i := 0
	for ; i < len(layers) && layers[i].z < 0; i++ {
		p.paintLayer(layers[i].id, id)
	}
	p.paintContents(id)
	for ; i < len(layers); i++ {
		p.paintLayer(layers[i].id, id)
	}
}

// paintLayer paints one layer of ctx inside the clips of the ancestors
// between them that apply to it.
func (p *painter) paintLayer(id, ctx tree.NodeID) {
	var chain []tree.NodeID
	for a := p.box(id).Parent; a != tree.None; a = p.box(a).Parent {
		if p.clipsOverflow(a) && clippedBy(p.lt, id, a) {
			chain = append(chain, a)
		}
		if a == ctx {
			break
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		p.pushClip(chain[i])
	}
	if isContext(p.lt, id) {
		p.paintContext(id)
	} else {
		m := p.b.Begin(id)
		p.paintOwn(id)
		p.paintContents(id)
		p.b.End(m)
	}
	for range chain {
		p.popClip()
	}
}

// paintOwn draws the decorations of a layer root.
func (p *painter) paintOwn(id tree.NodeID) {
	if p.box(id).Role == boxtree.RoleInline {
		p.inlineDecorations(id)
		return
	}
	p.decorations(id)
}

// paintContents draws what a layer root contains in flow.
func (p *painter) paintContents(id tree.NodeID) {
	if p.box(id).Role == boxtree.RoleInline {
		if c := p.g.posParent(id); c != tree.None {
			p.paintLines(c, id)
		}
		return
	}
	if p.clipsOverflow(id) {
		p.pushClip(id)
		defer p.popClip()
	}
	p.paintFlow(id)
}

// paintAtomic paints a float, inline-block or clipping block as a unit.
func (p *painter) paintAtomic(id tree.NodeID) {
	m := p.b.Begin(id)
	p.decorations(id)
	p.paintContents(id)
	p.b.End(m)
}

// paintFlow paints the in-flow content of root: block decorations first,
// then floats, then line content.
func (p *painter) paintFlow(root tree.NodeID) {
	var floats, owners []tree.NodeID
	if len(p.frames[root].Lines) > 0 {
		owners = append(owners, root)
	}
	var visit func(id tree.NodeID)
	visit = func(id tree.NodeID) {
		for _, c := range p.lt.Children(id) {
			b := p.box(c)
			if !p.frames[c].Laid || isLayer(p.lt, c) || b.IsOutOfFlow() {
				continue
			}
			switch {
			case b.IsFloat():
				floats = append(floats, c)
			case b.Role == boxtree.RoleInline:
				visit(c)
			case b.IsInlineLevel():
			case p.clipsOverflow(c):
				p.paintAtomic(c)
			default:
				p.decorations(c)
				if len(p.frames[c].Lines) > 0 {
					owners = append(owners, c)
				}
				visit(c)
			}
		}
	}
	visit(root)
	for _, f := range floats {
		p.paintAtomic(f)
	}
	for _, o := range owners {
		p.paintLines(o, tree.None)
	}
}

// inLayer reports whether id, or an ancestor below stop, paints as a layer
// other than within.
func (p *painter) inLayer(id, stop, within tree.NodeID) bool {
	for x := id; x != tree.None && x != stop; x = p.box(x).Parent {
		if x == within {
			return false
		}
		if isLayer(p.lt, x) {
			return true
		}
	}
	return within != tree.None
}

// paintLines draws the line content of owner. With within set, only the
// fragments of that inline layer are drawn; otherwise inline layers are
// skipped.
func (p *painter) paintLines(owner, within tree.NodeID) {
	f := &p.frames[owner]
	seen := map[tree.NodeID]int{}
	for li := range f.Lines {
		l := &f.Lines[li]
		delta := p.g.lineDelta(owner, li)
		for _, ib := range l.InlineBoxes {
			id := tree.NodeID(ib.Owner)
			k := seen[id]
			seen[id] = k + 1
			if p.inLayer(id, owner, within) || id == within {
				continue
			}
			p.inlinePiece(id, k)
		}
		for _, fr := range l.Fragments {
			id := tree.NodeID(fr.Owner)
			if p.inLayer(id, owner, within) {
				continue
			}
			switch fr.Kind {
			case text.FragmentGlyphs, text.FragmentHyphen:
				p.textRun(owner, l, &fr, delta)
			case text.FragmentAtomic:
				if p.frames[id].Laid {
					p.paintAtomic(id)
				}
			}
		}
	}
}

// inlineDecorations draws every piece of an inline box.
func (p *painter) inlineDecorations(id tree.NodeID) {
	for k := range p.frames[id].Pieces {
		p.inlinePiece(id, k)
	}
}

// inlinePiece draws piece k of an inline box. Start and end edges only
// appear on the first and last piece.
func (p *painter) inlinePiece(id tree.NodeID, k int) {
	f := &p.frames[id]
	if k >= len(f.Pieces) {
		return
	}
	st := p.box(id).Style
	r := p.g.physical(p.g.piece(id, f.Pieces[k]))
	border := f.Border
	first, last := k == 0, k == len(f.Pieces)-1
	if st != nil && st.Direction == style.RTL {
		first, last = last, first
	}
	if !first {
		border.InlineStart = 0
	}
	if !last {
		border.InlineEnd = 0
	}
	padding := r.Inset(p.g.wm.EdgesToPhysical(border))
	if p.visible(id) && st != nil {
		p.boxDecorations(id, st, r, border)
	}
	p.addHit(id, padding)
}

// decorations draws the shadows, background, border and replaced content
// of a non-inline box and registers its hit area.
func (p *painter) decorations(id tree.NodeID) {
	b := p.box(id)
	r := p.borderRect(id)
	if p.visible(id) && b.Style != nil {
		p.boxDecorations(id, b.Style, r, p.frames[id].Border)
		if b.Inner == boxtree.InnerReplaced {
			p.replaced(id)
		}
	}
	p.addHit(id, r.Inset(p.g.wm.EdgesToPhysical(p.frames[id].Border)))
}

func (p *painter) boxDecorations(id tree.NodeID, st *style.ComputedStyle, r geom.Rect, border geom.LogicalEdges) {
	for _, s := range st.BoxShadows {
		if !s.Inset && !s.Color.IsTransparent() {
			p.b.Draw(display.BoxShadow{Node: id, Rect: r, Offset: geom.Point{X: s.OffsetX, Y: s.OffsetY}, Blur: s.Blur, Spread: s.Spread, Color: s.Color, Radii: st.Radius})
		}
	}
	widths := p.g.wm.EdgesToPhysical(border)
	pad := r.Inset(widths)
	if !st.BackgroundColor.IsTransparent() {
		p.b.Draw(display.Rectangle{Node: id, Rect: r, Color: st.BackgroundColor, Radii: st.Radius})
	}
	if st.BackgroundImage != 0 {
		if p.imageKnown(id, st.BackgroundImage) {
			p.b.Draw(display.Image{Node: id, Rect: pad, Handle: st.BackgroundImage, Background: true, Radii: st.Radius})
		}
	}
	for _, s := range st.BoxShadows {
		if s.Inset && !s.Color.IsTransparent() {
			p.b.Draw(display.BoxShadow{Node: id, Rect: pad, Offset: geom.Point{X: s.OffsetX, Y: s.OffsetY}, Blur: s.Blur, Spread: s.Spread, Color: s.Color, Inset: true, Radii: st.Radius})
		}
	}
	if widths != (geom.Edges{}) {
		bs := st.Border
		p.b.Draw(display.Border{
			Node:   id,
			Rect:   r,
			Widths: widths,
			Styles: [4]style.BorderStyle{bs.Top.Style, bs.Right.Style, bs.Bottom.Style, bs.Left.Style},
			Colors: [4]style.Color{bs.Top.Color, bs.Right.Color, bs.Bottom.Color, bs.Left.Color},
			Radii:  st.Radius,
		})
	}
}

func (p *painter) imageKnown(id tree.NodeID, h style.ImageHandle) bool {
	if p.images == nil {
		p.diag.Warnf(diag.CodeMissingImage, int32(id), "no image provider for image %d", h)
		return false
	}
	if _, ok := p.images.IntrinsicSize(h); !ok {
		p.diag.Warnf(diag.CodeMissingImage, int32(id), "image %d is not available", h)
		return false
	}
	return true
}

// replaced draws replaced content into the content box.
func (p *painter) replaced(id tree.NodeID) {
	b := p.box(id)
	if b.Replaced != tree.ReplacedImage || b.Image == 0 {
		return
	}
	if !p.imageKnown(id, b.Image) {
		return
	}
	f := &p.frames[id]
	content := p.paddingRect(id).Inset(p.g.wm.EdgesToPhysical(f.Padding))
	p.b.Draw(display.Image{Node: id, Rect: content, Handle: b.Image, Radii: b.Style.Radius})
}

// textRun emits one glyph fragment of line l of owner.
func (p *painter) textRun(owner tree.NodeID, l *text.LineBox, fr *text.Fragment, delta float32) {
	id := tree.NodeID(fr.Owner)
	st := fr.Style
	if st == nil {
		st = p.box(id).Style
	}
	if st == nil || st.Visibility != style.Visible || len(fr.Glyphs) == 0 {
		return
	}
	origin := p.g.rawContent[owner].Add(p.g.relChain(id))
	baseline := origin.Block + l.Baseline() + fr.Shift + delta
	pen := origin.Inline + fr.X
	run := display.TextRun{
		Node:     id,
		Origin:   p.g.physicalPoint(geom.LogicalPoint{Inline: pen, Block: baseline}),
		Color:    st.Color,
		Text:     fr.Text,
		Ascent:   fr.Ascent,
		Descent:  fr.Descent,
		Width:    fr.Width,
		Vertical: p.g.wm.IsVertical(),
		Glyphs:   make([]display.PositionedGlyph, 0, len(fr.Glyphs)),
	}
	if fr.Run != nil {
		run.FontHash = fr.Run.Style.FontHash
		run.Size = fr.Run.Style.Size
	} else {
		run.FontHash = fr.Glyphs[0].FontHash
		run.Size = st.FontSize
	}
	base := fr.Range.Start
	for _, gl := range fr.Glyphs {
		pt := p.g.physicalPoint(geom.LogicalPoint{Inline: pen + gl.Offset.X, Block: baseline + gl.Offset.Y})
		cl := text.ByteRange{Start: gl.Cluster.Start - base, End: gl.Cluster.End - base}
		if cl.Start < 0 || cl.End > len(fr.Text) {
			cl = text.ByteRange{}
		}
		run.Glyphs = append(run.Glyphs, display.PositionedGlyph{ID: gl.ID, X: pt.X, Y: pt.Y, Advance: gl.Advance, Cluster: cl})
		pen += gl.Advance
	}
	p.b.Draw(run)
}

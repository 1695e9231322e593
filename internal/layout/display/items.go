package display

import (
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Kind tags a display item.
type Kind uint8

const (
	KindRectangle Kind = iota
	KindBorder
	KindBoxShadow
	KindTextRun
	KindImage
	KindPushClip
	KindPopClip
	KindPushTransform
	KindPopTransform
	KindPushOpacity
	KindPopOpacity
)

var kindNames = [...]string{
	"rectangle", "border", "box-shadow", "text-run", "image",
	"push-clip", "pop-clip", "push-transform", "pop-transform",
	"push-opacity", "pop-opacity",
}

func (k Kind) String() string { return kindNames[k] }

// IsPush reports the opening half of a stack pair.
func (k Kind) IsPush() bool {
	return k == KindPushClip || k == KindPushTransform || k == KindPushOpacity
}

// IsPop reports the closing half of a stack pair.
func (k Kind) IsPop() bool {
	return k == KindPopClip || k == KindPopTransform || k == KindPopOpacity
}

// pairOf maps a pop to the push it closes.
func pairOf(k Kind) Kind {
	switch k {
	case KindPopClip:
		return KindPushClip
	case KindPopTransform:
		return KindPushTransform
	case KindPopOpacity:
		return KindPushOpacity
	}
	return k
}

// Item is one drawing or state command. Coordinates are physical pixels in
// the space established by enclosing transforms.
type Item interface {
	Kind() Kind
	// Bounds is the area the item can touch, zero for state pops.
	Bounds() geom.Rect
	// Owner is the node that produced the item.
	Owner() tree.NodeID
}

type Rectangle struct {
	Node  tree.NodeID
	Rect  geom.Rect
	Color style.Color
	Radii style.Radii
}

func (Rectangle) Kind() Kind           { return KindRectangle }
func (r Rectangle) Bounds() geom.Rect  { return r.Rect }
func (r Rectangle) Owner() tree.NodeID { return r.Node }

// Border strokes the four edges of Rect inward by Widths.
type Border struct {
	Node   tree.NodeID
	Rect   geom.Rect
	Widths geom.Edges
	Styles [4]style.BorderStyle
	Colors [4]style.Color
	Radii  style.Radii
}

func (Border) Kind() Kind           { return KindBorder }
func (b Border) Bounds() geom.Rect  { return b.Rect }
func (b Border) Owner() tree.NodeID { return b.Node }

// BoxShadow is drawn from the border box Rect. Outer shadows paint outside
// the box, inset shadows inside the padding box.
type BoxShadow struct {
	Node   tree.NodeID
	Rect   geom.Rect
	Offset geom.Point
	Blur   float32
	Spread float32
	Color  style.Color
	Inset  bool
	Radii  style.Radii
}

func (BoxShadow) Kind() Kind { return KindBoxShadow }

func (s BoxShadow) Bounds() geom.Rect {
	if s.Inset {
		return s.Rect
	}
	grow := s.Spread + s.Blur
	r := s.Rect.Translate(s.Offset.X, s.Offset.Y).Outset(geom.Edges{Top: grow, Right: grow, Bottom: grow, Left: grow})
	return r.Union(s.Rect)
}

func (s BoxShadow) Owner() tree.NodeID { return s.Node }

// PositionedGlyph is a glyph with its pen position on the baseline.
type PositionedGlyph struct {
	ID      text.GlyphID
	X       float32
	Y       float32
	Advance float32
	// Cluster indexes the run's Text.
	Cluster text.ByteRange
}

// TextRun is one maximal same-style piece of a line. Origin is the start of
// the baseline; glyph positions are absolute.
type TextRun struct {
	Node     tree.NodeID
	Origin   geom.Point
	Glyphs   []PositionedGlyph
	FontHash uint64
	Size     float32
	Color    style.Color
	Text     string
	Ascent   float32
	Descent  float32
	Width    float32
	Vertical bool
}

func (TextRun) Kind() Kind { return KindTextRun }

func (t TextRun) Bounds() geom.Rect {
	if t.Vertical {
		return geom.Rect{X: t.Origin.X - t.Descent, Y: t.Origin.Y, W: t.Ascent + t.Descent, H: t.Width}
	}
	return geom.Rect{X: t.Origin.X, Y: t.Origin.Y - t.Ascent, W: t.Width, H: t.Ascent + t.Descent}
}

func (t TextRun) Owner() tree.NodeID { return t.Node }

// Image draws a decoded image into Rect. Background images set Background.
type Image struct {
	Node       tree.NodeID
	Rect       geom.Rect
	Handle     style.ImageHandle
	Background bool
	Radii      style.Radii
}

func (Image) Kind() Kind           { return KindImage }
func (i Image) Bounds() geom.Rect  { return i.Rect }
func (i Image) Owner() tree.NodeID { return i.Node }

// PushClip restricts painting to Rect, rounded by Radii when set.
type PushClip struct {
	Node  tree.NodeID
	Rect  geom.Rect
	Radii style.Radii
}

func (PushClip) Kind() Kind           { return KindPushClip }
func (c PushClip) Bounds() geom.Rect  { return c.Rect }
func (c PushClip) Owner() tree.NodeID { return c.Node }

type PopClip struct{ Node tree.NodeID }

func (PopClip) Kind() Kind           { return KindPopClip }
func (PopClip) Bounds() geom.Rect    { return geom.Rect{} }
func (c PopClip) Owner() tree.NodeID { return c.Node }

// PushTransform concatenates Matrix onto the current transform.
type PushTransform struct {
	Node   tree.NodeID
	Matrix geom.Matrix
}

func (PushTransform) Kind() Kind           { return KindPushTransform }
func (PushTransform) Bounds() geom.Rect    { return geom.Rect{} }
func (t PushTransform) Owner() tree.NodeID { return t.Node }

type PopTransform struct{ Node tree.NodeID }

func (PopTransform) Kind() Kind           { return KindPopTransform }
func (PopTransform) Bounds() geom.Rect    { return geom.Rect{} }
func (t PopTransform) Owner() tree.NodeID { return t.Node }

// PushOpacity composites everything up to the matching pop as one group.
type PushOpacity struct {
	Node    tree.NodeID
	Opacity float32
}

func (PushOpacity) Kind() Kind           { return KindPushOpacity }
func (PushOpacity) Bounds() geom.Rect    { return geom.Rect{} }
func (o PushOpacity) Owner() tree.NodeID { return o.Node }

type PopOpacity struct{ Node tree.NodeID }

func (PopOpacity) Kind() Kind           { return KindPopOpacity }
func (PopOpacity) Bounds() geom.Rect    { return geom.Rect{} }
func (o PopOpacity) Owner() tree.NodeID { return o.Node }

// popFor returns the pop item matching a push.
func popFor(it Item) Item {
	switch it.Kind() {
	case KindPushClip:
		return PopClip{Node: it.Owner()}
	case KindPushTransform:
		return PopTransform{Node: it.Owner()}
	case KindPushOpacity:
		return PopOpacity{Node: it.Owner()}
	}
	return nil
}

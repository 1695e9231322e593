package style

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
)

// Hasher accumulates a 64-bit FNV-1a fingerprint from typed values.
type Hasher struct {
	h   hash.Hash64
	buf [8]byte
}

func NewHasher() *Hasher {
	return &Hasher{h: fnv.New64a()}
}

func (h *Hasher) U64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.h.Write(h.buf[:])
}

func (h *Hasher) U32(v uint32) {
	binary.LittleEndian.PutUint32(h.buf[:4], v)
	h.h.Write(h.buf[:4])
}

func (h *Hasher) U8(v uint8) {
	h.buf[0] = v
	h.h.Write(h.buf[:1])
}

func (h *Hasher) F32(v float32) { h.U32(math.Float32bits(v)) }

func (h *Hasher) Bool(v bool) {
	if v {
		h.U8(1)
	} else {
		h.U8(0)
	}
}

func (h *Hasher) String(s string) {
	h.U32(uint32(len(s)))
	h.h.Write([]byte(s))
}

func (h *Hasher) Length(l Length) {
	h.U8(uint8(l.Unit))
	h.F32(l.Value)
}

func (h *Hasher) Sides(s Sides) {
	h.Length(s.Top)
	h.Length(s.Right)
	h.Length(s.Bottom)
	h.Length(s.Left)
}

func (h *Hasher) Sum() uint64 { return h.h.Sum64() }

// FontKey hashes the properties that select and size a font.
func (s *ComputedStyle) FontKey(h *Hasher) {
	h.U32(uint32(len(s.FontFamily)))
	for _, f := range s.FontFamily {
		h.String(f)
	}
	h.F32(s.FontSize)
	h.U32(uint32(s.FontWeight))
	h.U8(uint8(s.FontStyle))
	h.Bool(s.SmallCaps)
	h.String(s.Language)
	h.F32(s.LetterSpacing)
	h.F32(s.WordSpacing)
}

// LayoutHash fingerprints every property that can change geometry.
func (s *ComputedStyle) LayoutHash() uint64 {
	h := NewHasher()
	h.U8(uint8(s.Display))
	h.U8(uint8(s.Position))
	h.U8(uint8(s.Float))
	h.U8(uint8(s.Clear))
	h.U8(uint8(s.BoxSizing))
	for _, l := range []Length{s.Width, s.Height, s.MinWidth, s.MinHeight, s.MaxWidth, s.MaxHeight, s.FlexBasis, s.TextIndent} {
		h.Length(l)
	}
	h.Sides(s.Margin)
	h.Sides(s.Padding)
	h.Sides(s.Inset)
	w := s.Border.Widths()
	h.F32(w.Top)
	h.F32(w.Right)
	h.F32(w.Bottom)
	h.F32(w.Left)
	h.U8(uint8(s.OverflowX))
	h.U8(uint8(s.OverflowY))
	h.U8(uint8(s.FlexDirection))
	h.U8(uint8(s.FlexWrap))
	h.U8(uint8(s.JustifyContent))
	h.U8(uint8(s.AlignItems))
	h.U8(uint8(s.AlignSelf))
	h.U8(uint8(s.AlignContent))
	h.F32(s.FlexGrow)
	h.F32(s.FlexShrink)
	h.U32(uint32(s.Order))
	h.F32(s.RowGap)
	h.F32(s.ColumnGap)
	h.U8(uint8(s.WritingMode))
	h.U8(uint8(s.Direction))
	s.FontKey(h)
	h.U8(uint8(s.LineHeight.Kind))
	h.F32(s.LineHeight.Value)
	h.U8(uint8(s.TextAlign))
	h.U8(uint8(s.TextAlignLast))
	h.U8(uint8(s.WhiteSpace))
	h.U8(uint8(s.Hyphens))
	h.U8(uint8(s.OverflowWrap))
	h.U8(uint8(s.VerticalAlign))
	h.U8(uint8(s.BreakBefore))
	h.U8(uint8(s.BreakAfter))
	h.U8(uint8(s.BreakInside))
	h.Bool(s.ZIndex.Auto)
	h.U32(uint32(s.ZIndex.Value))
	h.Bool(s.CreatesStackingContext())
	for _, g := range []*Generated{s.Before, s.After} {
		if g == nil {
			h.U8(0)
			continue
		}
		h.U8(1)
		h.String(g.Text)
		h.U64(uint64(g.Image))
		if g.Style != nil {
			h.U64(g.Style.LayoutHash())
		}
	}
	return h.Sum()
}

// PaintHash fingerprints the properties that only affect painting.
func (s *ComputedStyle) PaintHash() uint64 {
	h := NewHasher()
	for _, c := range []Color{s.Color, s.BackgroundColor, s.Border.Top.Color, s.Border.Right.Color, s.Border.Bottom.Color, s.Border.Left.Color} {
		h.U32(uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A))
	}
	h.U64(uint64(s.BackgroundImage))
	for _, r := range s.Radius {
		h.F32(r)
	}
	for _, b := range s.BoxShadows {
		h.F32(b.OffsetX)
		h.F32(b.OffsetY)
		h.F32(b.Blur)
		h.F32(b.Spread)
		h.Bool(b.Inset)
	}
	h.F32(s.Opacity)
	for _, t := range s.Transform {
		h.U8(uint8(t.Kind))
		h.Length(t.X)
		h.Length(t.Y)
		h.F32(t.SX)
		h.F32(t.SY)
		h.F32(t.Angle)
		h.F32(t.AngleY)
	}
	h.String(s.Filter)
	h.U8(uint8(s.Visibility))
	h.U8(uint8(s.PointerEvents))
	return h.Sum()
}

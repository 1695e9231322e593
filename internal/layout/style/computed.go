package style

import (
	"github.com/xkilldash9x/trellis/internal/layout/geom"
)

// ImageHandle is an opaque token resolved by the image provider.
type ImageHandle uint64

// Color is a non-premultiplied RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

var (
	Transparent = Color{}
	Black       = Color{A: 255}
	White       = Color{R: 255, G: 255, B: 255, A: 255}
)

// IsTransparent reports a fully transparent color.
func (c Color) IsTransparent() bool { return c.A == 0 }

// BorderSide is one computed border edge.
type BorderSide struct {
	Width float32     `json:"width"`
	Style BorderStyle `json:"style"`
	Color Color       `json:"color"`
}

// UsedWidth is zero when the style does not paint.
func (b BorderSide) UsedWidth() float32 {
	if !b.Style.Visible() {
		return 0
	}
	return b.Width
}

type BorderSides struct {
	Top    BorderSide `json:"top"`
	Right  BorderSide `json:"right"`
	Bottom BorderSide `json:"bottom"`
	Left   BorderSide `json:"left"`
}

// Widths returns the used physical border widths.
func (b BorderSides) Widths() geom.Edges {
	return geom.Edges{Top: b.Top.UsedWidth(), Right: b.Right.UsedWidth(), Bottom: b.Bottom.UsedWidth(), Left: b.Left.UsedWidth()}
}

// Radii holds corner radii: top-left, top-right, bottom-right, bottom-left.
type Radii [4]float32

// IsZero reports square corners.
func (r Radii) IsZero() bool { return r == Radii{} }

type BoxShadow struct {
	OffsetX float32 `json:"offset_x"`
	OffsetY float32 `json:"offset_y"`
	Blur    float32 `json:"blur"`
	Spread  float32 `json:"spread"`
	Color   Color   `json:"color"`
	Inset   bool    `json:"inset"`
}

type TransformKind uint8

const (
	TransformTranslate TransformKind = iota
	TransformScale
	TransformRotate
	TransformSkew
	TransformMatrix
)

// TransformFunc is one entry of a transform list. Translations may be
// percentages of the border box.
type TransformFunc struct {
	Kind   TransformKind `json:"kind"`
	X      Length        `json:"x"`
	Y      Length        `json:"y"`
	SX     float32       `json:"sx"`
	SY     float32       `json:"sy"`
	Angle  float32       `json:"angle"`
	AngleY float32       `json:"angle_y"`
	Matrix geom.Matrix   `json:"matrix"`
}

// ZIndex is either auto or an integer.
type ZIndex struct {
	Auto  bool  `json:"auto"`
	Value int32 `json:"value"`
}

// Generated is ::before or ::after content.
type Generated struct {
	Text  string         `json:"text"`
	Image ImageHandle    `json:"image"`
	Style *ComputedStyle `json:"style"`
}

// ComputedStyle is the flat record of computed values the engine reads.
// Lengths are already in px except percentages and keywords.
type ComputedStyle struct {
	Display   Display   `json:"display"`
	Position  Position  `json:"position"`
	Float     Float     `json:"float"`
	Clear     Clear     `json:"clear"`
	BoxSizing BoxSizing `json:"box_sizing"`

	Width     Length `json:"width"`
	Height    Length `json:"height"`
	MinWidth  Length `json:"min_width"`
	MinHeight Length `json:"min_height"`
	MaxWidth  Length `json:"max_width"`
	MaxHeight Length `json:"max_height"`

	Margin  Sides       `json:"margin"`
	Padding Sides       `json:"padding"`
	Border  BorderSides `json:"border"`
	Radius  Radii       `json:"radius"`
	Inset   Sides       `json:"inset"`

	OverflowX Overflow `json:"overflow_x"`
	OverflowY Overflow `json:"overflow_y"`
	ZIndex    ZIndex   `json:"z_index"`

	// Flex container and item properties.
	FlexDirection  FlexDirection  `json:"flex_direction"`
	FlexWrap       FlexWrap       `json:"flex_wrap"`
	JustifyContent JustifyContent `json:"justify_content"`
	AlignItems     AlignItems     `json:"align_items"`
	AlignSelf      AlignItems     `json:"align_self"`
	AlignContent   AlignItems     `json:"align_content"`
	FlexGrow       float32        `json:"flex_grow"`
	FlexShrink     float32        `json:"flex_shrink"`
	FlexBasis      Length         `json:"flex_basis"`
	Order          int32          `json:"order"`
	RowGap         float32        `json:"row_gap"`
	ColumnGap      float32        `json:"column_gap"`

	// Inherited text properties.
	WritingMode   geom.WritingMode `json:"writing_mode"`
	Direction     Direction        `json:"direction"`
	FontFamily    []string         `json:"font_family"`
	FontSize      float32          `json:"font_size"`
	FontWeight    uint16           `json:"font_weight"`
	FontStyle     FontStyle        `json:"font_style"`
	SmallCaps     bool             `json:"small_caps"`
	Language      string           `json:"language"`
	LineHeight    LineHeight       `json:"line_height"`
	LetterSpacing float32          `json:"letter_spacing"`
	WordSpacing   float32          `json:"word_spacing"`
	TextIndent    Length           `json:"text_indent"`
	TextAlign     TextAlign        `json:"text_align"`
	TextAlignLast TextAlign        `json:"text_align_last"`
	WhiteSpace    WhiteSpace       `json:"white_space"`
	Hyphens       Hyphens          `json:"hyphens"`
	OverflowWrap  OverflowWrap     `json:"overflow_wrap"`
	Color         Color            `json:"color"`
	Visibility    Visibility       `json:"visibility"`
	PointerEvents PointerEvents    `json:"pointer_events"`

	VerticalAlign VerticalAlign `json:"vertical_align"`

	// Paint properties.
	BackgroundColor Color           `json:"background_color"`
	BackgroundImage ImageHandle     `json:"background_image"`
	BoxShadows      []BoxShadow     `json:"box_shadows"`
	Opacity         float32         `json:"opacity"`
	Transform       []TransformFunc `json:"transform"`
	TransformOrigin [2]Length       `json:"transform_origin"`
	Filter          string          `json:"filter"`
	WillChange      []string        `json:"will_change"`

	// Fragmentation.
	BreakBefore BreakValue `json:"break_before"`
	BreakAfter  BreakValue `json:"break_after"`
	BreakInside BreakValue `json:"break_inside"`

	Before *Generated `json:"before,omitempty"`
	After  *Generated `json:"after,omitempty"`
}

// DefaultFontSize is the initial font-size.
const DefaultFontSize float32 = 16

// Initial returns a style holding the CSS initial value of every property.
func Initial() *ComputedStyle {
	return &ComputedStyle{
		Display:         DisplayInline,
		Width:           Auto,
		Height:          Auto,
		MinWidth:        Auto,
		MinHeight:       Auto,
		MaxWidth:        None,
		MaxHeight:       None,
		Margin:          Uniform(Zero),
		Padding:         Uniform(Zero),
		Inset:           Uniform(Auto),
		ZIndex:          ZIndex{Auto: true},
		FlexShrink:      1,
		FlexBasis:       Auto,
		AlignItems:      AlignStretch,
		AlignSelf:       AlignAuto,
		AlignContent:    AlignStretch,
		FontFamily:      []string{"sans-serif"},
		FontSize:        DefaultFontSize,
		FontWeight:      400,
		TextIndent:      Zero,
		TextAlignLast:   TextAlignAuto,
		Color:           Black,
		Opacity:         1,
		TransformOrigin: [2]Length{Percent(50), Percent(50)},
	}
}

// Clone returns a shallow copy that can be mutated independently.
func (s *ComputedStyle) Clone() *ComputedStyle {
	c := *s
	return &c
}

// InheritFrom returns the initial style with the inherited properties of
// parent copied in.
func InheritFrom(parent *ComputedStyle) *ComputedStyle {
	s := Initial()
	if parent == nil {
		return s
	}
	s.WritingMode = parent.WritingMode
	s.Direction = parent.Direction
	s.FontFamily = parent.FontFamily
	s.FontSize = parent.FontSize
	s.FontWeight = parent.FontWeight
	s.FontStyle = parent.FontStyle
	s.SmallCaps = parent.SmallCaps
	s.Language = parent.Language
	s.LineHeight = parent.LineHeight
	s.LetterSpacing = parent.LetterSpacing
	s.WordSpacing = parent.WordSpacing
	s.TextIndent = parent.TextIndent
	s.TextAlign = parent.TextAlign
	s.TextAlignLast = parent.TextAlignLast
	s.WhiteSpace = parent.WhiteSpace
	s.Hyphens = parent.Hyphens
	s.OverflowWrap = parent.OverflowWrap
	s.Color = parent.Color
	s.Visibility = parent.Visibility
	s.PointerEvents = parent.PointerEvents
	return s
}

// AnonymousFrom builds the style of an anonymous box generated inside parent.
func AnonymousFrom(parent *ComputedStyle, display Display) *ComputedStyle {
	s := InheritFrom(parent)
	s.Display = display
	return s
}

// -- Derived accessors --

// OuterDisplay applies blockification for floats and out-of-flow boxes.
func (s *ComputedStyle) OuterDisplay() Display {
	if s.Float != FloatNone || s.Position.IsOutOfFlow() {
		return s.Display.Blockified()
	}
	return s.Display
}

// IsFloated reports an in-flow float. Absolute positioning wins over float.
func (s *ComputedStyle) IsFloated() bool {
	return s.Float != FloatNone && !s.Position.IsOutOfFlow()
}

// ClipsOverflow reports whether either axis clips.
func (s *ComputedStyle) ClipsOverflow() bool {
	return s.OverflowX.Clips() || s.OverflowY.Clips()
}

// HasTransform reports a non-empty transform list.
func (s *ComputedStyle) HasTransform() bool { return len(s.Transform) > 0 }

// CreatesStackingContext reports whether the box starts its own stacking context.
func (s *ComputedStyle) CreatesStackingContext() bool {
	if s.Position.IsPositioned() && !s.ZIndex.Auto {
		return true
	}
	if s.Position == PositionFixed || s.Position == PositionSticky {
		return true
	}
	if s.Opacity < 1 || s.HasTransform() || s.Filter != "" {
		return true
	}
	for _, w := range s.WillChange {
		switch w {
		case "transform", "opacity", "filter", "z-index":
			return true
		}
	}
	return false
}

// InlineSize returns the length along the inline axis for the writing mode.
func (s *ComputedStyle) InlineSize(wm geom.WritingMode) (size, min, max Length) {
	if wm.IsVertical() {
		return s.Height, s.MinHeight, s.MaxHeight
	}
	return s.Width, s.MinWidth, s.MaxWidth
}

// BlockSize returns the length along the block axis for the writing mode.
func (s *ComputedStyle) BlockSize(wm geom.WritingMode) (size, min, max Length) {
	if wm.IsVertical() {
		return s.Width, s.MinWidth, s.MaxWidth
	}
	return s.Height, s.MinHeight, s.MaxHeight
}

// LogicalSides maps physical sides onto flow-relative order:
// inline-start, inline-end, block-start, block-end.
func LogicalSides(sides Sides, wm geom.WritingMode) [4]Length {
	switch wm {
	case geom.VerticalLR:
		return [4]Length{sides.Top, sides.Bottom, sides.Left, sides.Right}
	case geom.VerticalRL:
		return [4]Length{sides.Top, sides.Bottom, sides.Right, sides.Left}
	default:
		return [4]Length{sides.Left, sides.Right, sides.Top, sides.Bottom}
	}
}

// UsedLineHeight resolves line-height for this style.
func (s *ComputedStyle) UsedLineHeight() float32 {
	return s.LineHeight.Resolve(s.FontSize)
}

// ResolvedTextAlign maps start/end through direction onto a physical side.
func ResolvedTextAlign(a TextAlign, dir Direction) TextAlign {
	switch a {
	case TextAlignStart:
		if dir == RTL {
			return TextAlignRight
		}
		return TextAlignLeft
	case TextAlignEnd:
		if dir == RTL {
			return TextAlignLeft
		}
		return TextAlignRight
	}
	return a
}

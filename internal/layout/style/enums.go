package style

type Display uint8

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayInlineBlock
	DisplayListItem
	DisplayFlex
	DisplayInlineFlex
	DisplayTable
	DisplayInlineTable
	DisplayTableRowGroup
	DisplayTableHeaderGroup
	DisplayTableFooterGroup
	DisplayTableRow
	DisplayTableCell
	DisplayTableCaption
	DisplayTableColumn
	DisplayTableColumnGroup
	DisplayNone
)

var displayNames = [...]string{
	"inline", "block", "inline-block", "list-item", "flex", "inline-flex",
	"table", "inline-table", "table-row-group", "table-header-group",
	"table-footer-group", "table-row", "table-cell", "table-caption",
	"table-column", "table-column-group", "none",
}

func (d Display) String() string {
	if int(d) < len(displayNames) {
		return displayNames[d]
	}
	return "unknown"
}

// ParseDisplay maps a CSS keyword onto a Display value.
func ParseDisplay(s string) (Display, bool) {
	for i, n := range displayNames {
		if n == s {
			return Display(i), true
		}
	}
	return DisplayInline, false
}

// IsInlineLevel reports whether the outer display type is inline.
func (d Display) IsInlineLevel() bool {
	switch d {
	case DisplayInline, DisplayInlineBlock, DisplayInlineFlex, DisplayInlineTable:
		return true
	}
	return false
}

// IsTableInternal reports displays that need a table ancestor.
func (d Display) IsTableInternal() bool {
	switch d {
	case DisplayTableRowGroup, DisplayTableHeaderGroup, DisplayTableFooterGroup,
		DisplayTableRow, DisplayTableCell, DisplayTableCaption,
		DisplayTableColumn, DisplayTableColumnGroup:
		return true
	}
	return false
}

// IsRowGroup reports the three row group displays.
func (d Display) IsRowGroup() bool {
	return d == DisplayTableRowGroup || d == DisplayTableHeaderGroup || d == DisplayTableFooterGroup
}

// Blockified returns the block-level equivalent used for floated and
// absolutely positioned boxes and for flex items.
func (d Display) Blockified() Display {
	switch d {
	case DisplayInline, DisplayInlineBlock, DisplayTableRowGroup, DisplayTableHeaderGroup,
		DisplayTableFooterGroup, DisplayTableRow, DisplayTableCell, DisplayTableCaption,
		DisplayTableColumn, DisplayTableColumnGroup:
		return DisplayBlock
	case DisplayInlineFlex:
		return DisplayFlex
	case DisplayInlineTable:
		return DisplayTable
	}
	return d
}

type Position uint8

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

// IsPositioned reports positions that establish a containing block for
// absolutely positioned descendants.
func (p Position) IsPositioned() bool { return p != PositionStatic }

// IsOutOfFlow reports absolute and fixed positioning.
func (p Position) IsOutOfFlow() bool { return p == PositionAbsolute || p == PositionFixed }

type Float uint8

const (
	FloatNone Float = iota
	FloatLeft
	FloatRight
)

type Clear uint8

const (
	ClearNone Clear = iota
	ClearLeft
	ClearRight
	ClearBoth
)

type BoxSizing uint8

const (
	ContentBox BoxSizing = iota
	BorderBox
)

type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
	OverflowAuto
	OverflowClip
)

// Clips reports whether content is clipped to the padding box.
func (o Overflow) Clips() bool { return o != OverflowVisible }

// IsScrollContainer reports whether the box scrolls its overflow.
func (o Overflow) IsScrollContainer() bool {
	return o == OverflowHidden || o == OverflowScroll || o == OverflowAuto
}

type WhiteSpace uint8

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNowrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

// CollapsesSpaces reports whether runs of spaces and tabs collapse.
func (w WhiteSpace) CollapsesSpaces() bool {
	return w == WhiteSpaceNormal || w == WhiteSpaceNowrap || w == WhiteSpacePreLine
}

// PreservesNewlines reports whether segment breaks are forced breaks.
func (w WhiteSpace) PreservesNewlines() bool {
	return w == WhiteSpacePre || w == WhiteSpacePreWrap || w == WhiteSpacePreLine
}

// Wraps reports whether soft wrap opportunities are honored.
func (w WhiteSpace) Wraps() bool {
	return w != WhiteSpaceNowrap && w != WhiteSpacePre
}

type TextAlign uint8

const (
	TextAlignStart TextAlign = iota
	TextAlignEnd
	TextAlignLeft
	TextAlignRight
	TextAlignCenter
	TextAlignJustify
	// TextAlignAuto is only valid for text-align-last.
	TextAlignAuto
)

type Direction uint8

const (
	LTR Direction = iota
	RTL
)

type VerticalAlign uint8

const (
	VerticalAlignBaseline VerticalAlign = iota
	VerticalAlignTop
	VerticalAlignBottom
	VerticalAlignMiddle
	VerticalAlignTextTop
	VerticalAlignTextBottom
	VerticalAlignSub
	VerticalAlignSuper
)

type FontStyle uint8

const (
	FontStyleNormal FontStyle = iota
	FontStyleItalic
	FontStyleOblique
)

type Hyphens uint8

const (
	HyphensManual Hyphens = iota
	HyphensNone
	HyphensAuto
)

type OverflowWrap uint8

const (
	OverflowWrapNormal OverflowWrap = iota
	OverflowWrapAnywhere
	OverflowWrapBreakWord
)

type FlexDirection uint8

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

// IsColumn reports whether the main axis is the block axis.
func (f FlexDirection) IsColumn() bool { return f == FlexColumn || f == FlexColumnReverse }

// IsReverse reports reversed main axis directions.
func (f FlexDirection) IsReverse() bool { return f == FlexRowReverse || f == FlexColumnReverse }

type FlexWrap uint8

const (
	FlexNoWrap FlexWrap = iota
	FlexWrapOn
	FlexWrapReverse
)

type JustifyContent uint8

const (
	JustifyFlexStart JustifyContent = iota
	JustifyFlexEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// AlignItems is shared by align-items, align-self and align-content.
type AlignItems uint8

const (
	AlignAuto AlignItems = iota
	AlignStretch
	AlignFlexStart
	AlignFlexEnd
	AlignCenter
	AlignBaseline
	AlignSpaceBetween
	AlignSpaceAround
)

type BreakValue uint8

const (
	BreakAuto BreakValue = iota
	BreakPage
	BreakAvoid
)

type PointerEvents uint8

const (
	PointerEventsAuto PointerEvents = iota
	PointerEventsNone
)

type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
	Collapse
)

type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderHidden
	BorderSolid
	BorderDashed
	BorderDotted
	BorderDouble
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

var borderStyleNames = [...]string{
	"none", "hidden", "solid", "dashed", "dotted", "double", "groove", "ridge", "inset", "outset",
}

func (b BorderStyle) String() string { return borderStyleNames[b] }

// Visible reports whether the style paints and takes up space.
func (b BorderStyle) Visible() bool { return b != BorderNone && b != BorderHidden }

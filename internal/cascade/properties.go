package cascade

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

var (
	errUnknownProperty = errors.New("unknown property")
	errInvalidValue    = errors.New("invalid value")
)

// declaration is one property: value pair from a rule or a style attribute.
type declaration struct {
	property  string
	value     string
	important bool
}

var (
	positions = map[string]style.Position{
		"static": style.PositionStatic, "relative": style.PositionRelative,
		"absolute": style.PositionAbsolute, "fixed": style.PositionFixed, "sticky": style.PositionSticky,
	}
	floats = map[string]style.Float{"none": style.FloatNone, "left": style.FloatLeft, "right": style.FloatRight}
	clears = map[string]style.Clear{
		"none": style.ClearNone, "left": style.ClearLeft, "right": style.ClearRight, "both": style.ClearBoth,
	}
	boxSizings = map[string]style.BoxSizing{"content-box": style.ContentBox, "border-box": style.BorderBox}
	overflows  = map[string]style.Overflow{
		"visible": style.OverflowVisible, "hidden": style.OverflowHidden, "scroll": style.OverflowScroll,
		"auto": style.OverflowAuto, "clip": style.OverflowClip,
	}
	whiteSpaces = map[string]style.WhiteSpace{
		"normal": style.WhiteSpaceNormal, "nowrap": style.WhiteSpaceNowrap, "pre": style.WhiteSpacePre,
		"pre-wrap": style.WhiteSpacePreWrap, "pre-line": style.WhiteSpacePreLine,
	}
	textAligns = map[string]style.TextAlign{
		"start": style.TextAlignStart, "end": style.TextAlignEnd, "left": style.TextAlignLeft,
		"right": style.TextAlignRight, "center": style.TextAlignCenter, "justify": style.TextAlignJustify,
		"auto": style.TextAlignAuto,
	}
	directions     = map[string]style.Direction{"ltr": style.LTR, "rtl": style.RTL}
	verticalAligns = map[string]style.VerticalAlign{
		"baseline": style.VerticalAlignBaseline, "top": style.VerticalAlignTop, "bottom": style.VerticalAlignBottom,
		"middle": style.VerticalAlignMiddle, "text-top": style.VerticalAlignTextTop,
		"text-bottom": style.VerticalAlignTextBottom, "sub": style.VerticalAlignSub, "super": style.VerticalAlignSuper,
	}
	fontStyles = map[string]style.FontStyle{
		"normal": style.FontStyleNormal, "italic": style.FontStyleItalic, "oblique": style.FontStyleOblique,
	}
	hyphenModes = map[string]style.Hyphens{
		"manual": style.HyphensManual, "none": style.HyphensNone, "auto": style.HyphensAuto,
	}
	overflowWraps = map[string]style.OverflowWrap{
		"normal": style.OverflowWrapNormal, "anywhere": style.OverflowWrapAnywhere,
		"break-word": style.OverflowWrapBreakWord,
	}
	flexDirections = map[string]style.FlexDirection{
		"row": style.FlexRow, "row-reverse": style.FlexRowReverse,
		"column": style.FlexColumn, "column-reverse": style.FlexColumnReverse,
	}
	flexWraps = map[string]style.FlexWrap{
		"nowrap": style.FlexNoWrap, "wrap": style.FlexWrapOn, "wrap-reverse": style.FlexWrapReverse,
	}
	justifies = map[string]style.JustifyContent{
		"flex-start": style.JustifyFlexStart, "start": style.JustifyFlexStart, "flex-end": style.JustifyFlexEnd,
		"end": style.JustifyFlexEnd, "center": style.JustifyCenter, "space-between": style.JustifySpaceBetween,
		"space-around": style.JustifySpaceAround, "space-evenly": style.JustifySpaceEvenly,
	}
	aligns = map[string]style.AlignItems{
		"auto": style.AlignAuto, "normal": style.AlignStretch, "stretch": style.AlignStretch,
		"flex-start": style.AlignFlexStart, "start": style.AlignFlexStart, "flex-end": style.AlignFlexEnd,
		"end": style.AlignFlexEnd, "center": style.AlignCenter, "baseline": style.AlignBaseline,
		"space-between": style.AlignSpaceBetween, "space-around": style.AlignSpaceAround,
	}
	breaks = map[string]style.BreakValue{
		"auto": style.BreakAuto, "page": style.BreakPage, "always": style.BreakPage,
		"avoid": style.BreakAvoid, "avoid-page": style.BreakAvoid,
	}
	pointerEvents = map[string]style.PointerEvents{"auto": style.PointerEventsAuto, "none": style.PointerEventsNone}
	visibilities  = map[string]style.Visibility{"visible": style.Visible, "hidden": style.Hidden, "collapse": style.Collapse}
	borderStyles  = map[string]style.BorderStyle{
		"none": style.BorderNone, "hidden": style.BorderHidden, "solid": style.BorderSolid,
		"dashed": style.BorderDashed, "dotted": style.BorderDotted, "double": style.BorderDouble,
		"groove": style.BorderGroove, "ridge": style.BorderRidge, "inset": style.BorderInset,
		"outset": style.BorderOutset,
	}
	writingModes = map[string]geom.WritingMode{
		"horizontal-tb": geom.HorizontalTB, "vertical-lr": geom.VerticalLR, "vertical-rl": geom.VerticalRL,
	}
	borderWidths = map[string]float32{"thin": 1, "medium": 3, "thick": 5}
)

// keyword looks v up in table and stores it in dst.
func keyword[T any](table map[string]T, v string, dst *T) error {
	k, ok := table[strings.ToLower(v)]
	if !ok {
		return errInvalidValue
	}
	*dst = k
	return nil
}

// applyFontSize resolves font-size against the parent before anything else
// on the element reads em.
func applyFontSize(st, parent *style.ComputedStyle, v string, u units) error {
	base := style.DefaultFontSize
	if parent != nil {
		base = parent.FontSize
	}
	switch strings.ToLower(v) {
	case "xx-small":
		st.FontSize = 9
	case "x-small":
		st.FontSize = 10
	case "small":
		st.FontSize = 13
	case "medium":
		st.FontSize = 16
	case "large":
		st.FontSize = 18
	case "x-large":
		st.FontSize = 24
	case "xx-large":
		st.FontSize = 32
	case "smaller":
		st.FontSize = base / 1.2
	case "larger":
		st.FontSize = base * 1.2
	default:
		u.em = base
		l, ok := u.length(v)
		switch {
		case !ok || l.IsAuto() || l.IsNone():
			return errInvalidValue
		case l.IsPercent():
			st.FontSize = base * l.Value / 100
		default:
			st.FontSize = l.Value
		}
	}
	return nil
}

// apply sets one declaration on st. The resolver loads url() images.
func (c *computer) apply(st, parent *style.ComputedStyle, d declaration, u units) error {
	v := strings.TrimSpace(d.value)
	if v == "" {
		return errInvalidValue
	}
	lower := strings.ToLower(v)
	switch d.property {
	case "font-size":
		return nil // applied first by compute
	case "display":
		disp, ok := style.ParseDisplay(lower)
		if !ok {
			return errInvalidValue
		}
		st.Display = disp
	case "position":
		return keyword(positions, v, &st.Position)
	case "float":
		return keyword(floats, v, &st.Float)
	case "clear":
		return keyword(clears, v, &st.Clear)
	case "box-sizing":
		return keyword(boxSizings, v, &st.BoxSizing)
	case "width":
		return lengthInto(u, v, &st.Width)
	case "height":
		return lengthInto(u, v, &st.Height)
	case "min-width":
		return lengthInto(u, v, &st.MinWidth)
	case "min-height":
		return lengthInto(u, v, &st.MinHeight)
	case "max-width":
		return lengthInto(u, v, &st.MaxWidth)
	case "max-height":
		return lengthInto(u, v, &st.MaxHeight)
	case "margin":
		return sidesInto(u, v, &st.Margin)
	case "margin-top":
		return lengthInto(u, v, &st.Margin.Top)
	case "margin-right":
		return lengthInto(u, v, &st.Margin.Right)
	case "margin-bottom":
		return lengthInto(u, v, &st.Margin.Bottom)
	case "margin-left":
		return lengthInto(u, v, &st.Margin.Left)
	case "padding":
		return sidesInto(u, v, &st.Padding)
	case "padding-top":
		return lengthInto(u, v, &st.Padding.Top)
	case "padding-right":
		return lengthInto(u, v, &st.Padding.Right)
	case "padding-bottom":
		return lengthInto(u, v, &st.Padding.Bottom)
	case "padding-left":
		return lengthInto(u, v, &st.Padding.Left)
	case "inset":
		return sidesInto(u, v, &st.Inset)
	case "top":
		return lengthInto(u, v, &st.Inset.Top)
	case "right":
		return lengthInto(u, v, &st.Inset.Right)
	case "bottom":
		return lengthInto(u, v, &st.Inset.Bottom)
	case "left":
		return lengthInto(u, v, &st.Inset.Left)
	case "border":
		for _, side := range []*style.BorderSide{&st.Border.Top, &st.Border.Right, &st.Border.Bottom, &st.Border.Left} {
			if err := borderInto(u, v, st.Color, side); err != nil {
				return err
			}
		}
	case "border-top":
		return borderInto(u, v, st.Color, &st.Border.Top)
	case "border-right":
		return borderInto(u, v, st.Color, &st.Border.Right)
	case "border-bottom":
		return borderInto(u, v, st.Color, &st.Border.Bottom)
	case "border-left":
		return borderInto(u, v, st.Color, &st.Border.Left)
	case "border-width", "border-style", "border-color":
		return borderPartInto(u, d.property, v, st)
	case "border-top-width", "border-right-width", "border-bottom-width", "border-left-width",
		"border-top-style", "border-right-style", "border-bottom-style", "border-left-style",
		"border-top-color", "border-right-color", "border-bottom-color", "border-left-color":
		parts := strings.SplitN(d.property, "-", 3)
		side := map[string]*style.BorderSide{
			"top": &st.Border.Top, "right": &st.Border.Right, "bottom": &st.Border.Bottom, "left": &st.Border.Left,
		}[parts[1]]
		return borderFieldInto(u, parts[2], v, st.Color, side)
	case "border-radius":
		var radii []float32
		for _, f := range fields(strings.SplitN(v, "/", 2)[0]) {
			r, ok := u.absolute(f)
			if !ok {
				return errInvalidValue
			}
			radii = append(radii, r)
		}
		tl, tr, br, bl, ok := sides(radii)
		if !ok {
			return errInvalidValue
		}
		st.Radius = style.Radii{tl, tr, br, bl}
	case "overflow":
		f := fields(lower)
		if len(f) == 0 || len(f) > 2 {
			return errInvalidValue
		}
		if err := keyword(overflows, f[0], &st.OverflowX); err != nil {
			return err
		}
		return keyword(overflows, f[len(f)-1], &st.OverflowY)
	case "overflow-x":
		return keyword(overflows, v, &st.OverflowX)
	case "overflow-y":
		return keyword(overflows, v, &st.OverflowY)
	case "z-index":
		if lower == "auto" {
			st.ZIndex = style.ZIndex{Auto: true}
			return nil
		}
		z, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errInvalidValue
		}
		st.ZIndex = style.ZIndex{Value: int32(z)}
	case "flex-direction":
		return keyword(flexDirections, v, &st.FlexDirection)
	case "flex-wrap":
		return keyword(flexWraps, v, &st.FlexWrap)
	case "flex-flow":
		for _, f := range fields(lower) {
			if keyword(flexDirections, f, &st.FlexDirection) != nil && keyword(flexWraps, f, &st.FlexWrap) != nil {
				return errInvalidValue
			}
		}
	case "justify-content":
		return keyword(justifies, v, &st.JustifyContent)
	case "align-items":
		return keyword(aligns, v, &st.AlignItems)
	case "align-self":
		return keyword(aligns, v, &st.AlignSelf)
	case "align-content":
		return keyword(aligns, v, &st.AlignContent)
	case "flex-grow":
		return numberInto(v, &st.FlexGrow)
	case "flex-shrink":
		return numberInto(v, &st.FlexShrink)
	case "flex-basis":
		if lower == "content" {
			st.FlexBasis = style.Auto
			return nil
		}
		return lengthInto(u, v, &st.FlexBasis)
	case "flex":
		return flexInto(u, lower, st)
	case "order":
		o, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errInvalidValue
		}
		st.Order = int32(o)
	case "gap", "grid-gap":
		f := fields(v)
		if len(f) == 0 || len(f) > 2 {
			return errInvalidValue
		}
		row, ok := u.absolute(f[0])
		col, ok2 := u.absolute(f[len(f)-1])
		if !ok || !ok2 {
			return errInvalidValue
		}
		st.RowGap, st.ColumnGap = row, col
	case "row-gap":
		return absoluteInto(u, v, &st.RowGap)
	case "column-gap":
		return absoluteInto(u, v, &st.ColumnGap)
	case "writing-mode":
		return keyword(writingModes, v, &st.WritingMode)
	case "direction":
		return keyword(directions, v, &st.Direction)
	case "font-family":
		var fams []string
		for _, f := range splitTop(v, ',') {
			if f = unquote(strings.TrimSpace(f)); f != "" {
				fams = append(fams, f)
			}
		}
		if len(fams) == 0 {
			return errInvalidValue
		}
		st.FontFamily = fams
	case "font-weight":
		return fontWeightInto(lower, parent, st)
	case "font-style":
		return keyword(fontStyles, strings.Fields(lower)[0], &st.FontStyle)
	case "font-variant":
		st.SmallCaps = lower == "small-caps"
	case "line-height":
		return lineHeightInto(u, lower, st)
	case "letter-spacing":
		if lower == "normal" {
			st.LetterSpacing = 0
			return nil
		}
		return absoluteInto(u, v, &st.LetterSpacing)
	case "word-spacing":
		if lower == "normal" {
			st.WordSpacing = 0
			return nil
		}
		return absoluteInto(u, v, &st.WordSpacing)
	case "text-indent":
		return lengthInto(u, v, &st.TextIndent)
	case "text-align":
		return keyword(textAligns, v, &st.TextAlign)
	case "text-align-last":
		return keyword(textAligns, v, &st.TextAlignLast)
	case "white-space":
		return keyword(whiteSpaces, v, &st.WhiteSpace)
	case "hyphens":
		return keyword(hyphenModes, v, &st.Hyphens)
	case "overflow-wrap", "word-wrap":
		return keyword(overflowWraps, v, &st.OverflowWrap)
	case "color":
		col, ok := color(v, parentColor(parent))
		if !ok {
			return errInvalidValue
		}
		st.Color = col
	case "visibility":
		return keyword(visibilities, v, &st.Visibility)
	case "pointer-events":
		return keyword(pointerEvents, v, &st.PointerEvents)
	case "vertical-align":
		return keyword(verticalAligns, v, &st.VerticalAlign)
	case "background-color":
		col, ok := color(v, st.Color)
		if !ok {
			return errInvalidValue
		}
		st.BackgroundColor = col
	case "background-image":
		if lower == "none" {
			st.BackgroundImage = 0
			return nil
		}
		return c.imageInto(v, &st.BackgroundImage)
	case "background":
		for _, f := range fields(v) {
			if col, ok := color(f, st.Color); ok {
				st.BackgroundColor = col
				continue
			}
			if _, ok := url(f); ok {
				if err := c.imageInto(f, &st.BackgroundImage); err != nil {
					return err
				}
			}
		}
	case "box-shadow":
		return boxShadowsInto(u, v, st)
	case "opacity":
		o, ok := number(v)
		if num, pct := strings.CutSuffix(v, "%"); pct {
			o, ok = number(num)
			o /= 100
		}
		if !ok {
			return errInvalidValue
		}
		st.Opacity = geom.Clamp(o, 0, 1)
	case "transform":
		return transformInto(u, lower, st)
	case "transform-origin":
		return transformOriginInto(u, lower, st)
	case "filter":
		if lower == "none" {
			st.Filter = ""
			return nil
		}
		st.Filter = v
	case "will-change":
		st.WillChange = nil
		for _, f := range splitTop(lower, ',') {
			st.WillChange = append(st.WillChange, strings.TrimSpace(f))
		}
	case "break-before", "page-break-before":
		return keyword(breaks, v, &st.BreakBefore)
	case "break-after", "page-break-after":
		return keyword(breaks, v, &st.BreakAfter)
	case "break-inside", "page-break-inside":
		return keyword(breaks, v, &st.BreakInside)
	default:
		return errUnknownProperty
	}
	return nil
}

func parentColor(parent *style.ComputedStyle) style.Color {
	if parent == nil {
		return style.Black
	}
	return parent.Color
}

func lengthInto(u units, v string, dst *style.Length) error {
	l, ok := u.length(v)
	if !ok {
		return errInvalidValue
	}
	*dst = l
	return nil
}

func absoluteInto(u units, v string, dst *float32) error {
	f, ok := u.absolute(v)
	if !ok {
		return errInvalidValue
	}
	*dst = f
	return nil
}

func numberInto(v string, dst *float32) error {
	f, ok := number(v)
	if !ok || f < 0 {
		return errInvalidValue
	}
	*dst = f
	return nil
}

func sidesInto(u units, v string, dst *style.Sides) error {
	var ls []style.Length
	for _, f := range fields(v) {
		l, ok := u.length(f)
		if !ok {
			return errInvalidValue
		}
		ls = append(ls, l)
	}
	t, r, b, l, ok := sides(ls)
	if !ok {
		return errInvalidValue
	}
	*dst = style.Sides{Top: t, Right: r, Bottom: b, Left: l}
	return nil
}

// borderInto parses the width style color shorthand in any order. Omitted
// parts reset to their initial values.
func borderInto(u units, v string, current style.Color, side *style.BorderSide) error {
	out := style.BorderSide{Width: borderWidths["medium"], Color: current}
	for _, f := range fields(v) {
		if bs, ok := borderStyles[strings.ToLower(f)]; ok {
			out.Style = bs
			continue
		}
		if w, ok := borderWidths[strings.ToLower(f)]; ok {
			out.Width = w
			continue
		}
		if w, ok := u.absolute(f); ok {
			out.Width = w
			continue
		}
		col, ok := color(f, current)
		if !ok {
			return errInvalidValue
		}
		out.Color = col
	}
	*side = out
	return nil
}

func borderFieldInto(u units, field, v string, current style.Color, side *style.BorderSide) error {
	switch field {
	case "width":
		if w, ok := borderWidths[strings.ToLower(v)]; ok {
			side.Width = w
			return nil
		}
		return absoluteInto(u, v, &side.Width)
	case "style":
		return keyword(borderStyles, v, &side.Style)
	case "color":
		col, ok := color(v, current)
		if !ok {
			return errInvalidValue
		}
		side.Color = col
		return nil
	}
	return errUnknownProperty
}

func borderPartInto(u units, prop, v string, st *style.ComputedStyle) error {
	field := strings.TrimPrefix(prop, "border-")
	vals := fields(v)
	t, r, b, l, ok := sides(vals)
	if !ok {
		return errInvalidValue
	}
	for i, side := range []*style.BorderSide{&st.Border.Top, &st.Border.Right, &st.Border.Bottom, &st.Border.Left} {
		if err := borderFieldInto(u, field, [4]string{t, r, b, l}[i], st.Color, side); err != nil {
			return err
		}
	}
	return nil
}

// flexInto expands the flex shorthand.
func flexInto(u units, v string, st *style.ComputedStyle) error {
	switch v {
	case "none":
		st.FlexGrow, st.FlexShrink, st.FlexBasis = 0, 0, style.Auto
		return nil
	case "auto":
		st.FlexGrow, st.FlexShrink, st.FlexBasis = 1, 1, style.Auto
		return nil
	case "initial":
		st.FlexGrow, st.FlexShrink, st.FlexBasis = 0, 1, style.Auto
		return nil
	}
	grow, shrink, basis := float32(1), float32(1), style.Px(0)
	var nums []float32
	for _, f := range fields(v) {
		if n, ok := number(f); ok && len(nums) < 2 {
			nums = append(nums, n)
			continue
		}
		l, ok := u.length(f)
		if !ok {
			return errInvalidValue
		}
		basis = l
	}
	if len(nums) > 0 {
		grow = nums[0]
	}
	if len(nums) > 1 {
		shrink = nums[1]
	}
	st.FlexGrow, st.FlexShrink, st.FlexBasis = grow, shrink, basis
	return nil
}

func fontWeightInto(v string, parent *style.ComputedStyle, st *style.ComputedStyle) error {
	base := uint16(400)
	if parent != nil {
		base = parent.FontWeight
	}
	switch v {
	case "normal":
		st.FontWeight = 400
	case "bold":
		st.FontWeight = 700
	case "bolder":
		switch {
		case base < 350:
			st.FontWeight = 400
		case base < 550:
			st.FontWeight = 700
		default:
			st.FontWeight = 900
		}
	case "lighter":
		switch {
		case base < 550:
			st.FontWeight = 100
		case base < 750:
			st.FontWeight = 400
		default:
			st.FontWeight = 700
		}
	default:
		w, err := strconv.ParseUint(v, 10, 16)
		if err != nil || w < 1 || w > 1000 {
			return errInvalidValue
		}
		st.FontWeight = uint16(w)
	}
	return nil
}

func lineHeightInto(u units, v string, st *style.ComputedStyle) error {
	if v == "normal" {
		st.LineHeight = style.LineHeight{}
		return nil
	}
	if n, ok := number(v); ok {
		st.LineHeight = style.LineHeight{Kind: style.LineHeightNumber, Value: n}
		return nil
	}
	l, ok := u.length(v)
	switch {
	case !ok || l.IsAuto() || l.IsNone():
		return errInvalidValue
	case l.IsPercent():
		st.LineHeight = style.LineHeight{Kind: style.LineHeightLength, Value: st.FontSize * l.Value / 100}
	default:
		st.LineHeight = style.LineHeight{Kind: style.LineHeightLength, Value: l.Value}
	}
	return nil
}

func boxShadowsInto(u units, v string, st *style.ComputedStyle) error {
	if strings.EqualFold(v, "none") {
		st.BoxShadows = nil
		return nil
	}
	var out []style.BoxShadow
	for _, layer := range splitTop(v, ',') {
		sh := style.BoxShadow{Color: st.Color}
		var lens []float32
		for _, f := range fields(layer) {
			if strings.EqualFold(f, "inset") {
				sh.Inset = true
				continue
			}
			if n, ok := u.absolute(f); ok {
				lens = append(lens, n)
				continue
			}
			col, ok := color(f, st.Color)
			if !ok {
				return errInvalidValue
			}
			sh.Color = col
		}
		if len(lens) < 2 || len(lens) > 4 {
			return errInvalidValue
		}
		sh.OffsetX, sh.OffsetY = lens[0], lens[1]
		if len(lens) > 2 {
			sh.Blur = lens[2]
		}
		if len(lens) > 3 {
			sh.Spread = lens[3]
		}
		out = append(out, sh)
	}
	st.BoxShadows = out
	return nil
}

// transformInto parses a transform list of 2D functions.
func transformInto(u units, v string, st *style.ComputedStyle) error {
	if v == "none" {
		st.Transform = nil
		return nil
	}
	var out []style.TransformFunc
	for _, f := range fields(v) {
		name, args, ok := strings.Cut(f, "(")
		if !ok || !strings.HasSuffix(args, ")") {
			return errInvalidValue
		}
		var parts []string
		for _, a := range strings.Split(strings.TrimSuffix(args, ")"), ",") {
			parts = append(parts, strings.TrimSpace(a))
		}
		fn, err := transformFunc(u, name, parts)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, fn)
	}
	st.Transform = out
	return nil
}

func transformFunc(u units, name string, args []string) (style.TransformFunc, error) {
	lengthArg := func(i int) (style.Length, error) {
		if i >= len(args) {
			return style.Zero, nil
		}
		l, ok := u.length(args[i])
		if !ok || l.IsAuto() || l.IsNone() {
			return l, errInvalidValue
		}
		return l, nil
	}
	numberArg := func(i int, def float32) (float32, error) {
		if i >= len(args) {
			return def, nil
		}
		n, ok := number(args[i])
		if !ok {
			return 0, errInvalidValue
		}
		return n, nil
	}
	angleArg := func(i int) (float32, error) {
		if i >= len(args) {
			return 0, nil
		}
		a, ok := angle(args[i])
		if !ok {
			return 0, errInvalidValue
		}
		return a, nil
	}

	fn := style.TransformFunc{X: style.Zero, Y: style.Zero}
	var err, err2 error
	switch name {
	case "translate":
		fn.Kind = style.TransformTranslate
		fn.X, err = lengthArg(0)
		fn.Y, err2 = lengthArg(1)
	case "translatex":
		fn.Kind = style.TransformTranslate
		fn.X, err = lengthArg(0)
	case "translatey":
		fn.Kind = style.TransformTranslate
		fn.Y, err = lengthArg(0)
	case "scale":
		fn.Kind = style.TransformScale
		fn.SX, err = numberArg(0, 1)
		fn.SY, err2 = numberArg(1, fn.SX)
	case "scalex":
		fn.Kind = style.TransformScale
		fn.SX, err = numberArg(0, 1)
		fn.SY = 1
	case "scaley":
		fn.Kind = style.TransformScale
		fn.SX = 1
		fn.SY, err = numberArg(0, 1)
	case "rotate":
		fn.Kind = style.TransformRotate
		fn.Angle, err = angleArg(0)
	case "skew":
		fn.Kind = style.TransformSkew
		fn.Angle, err = angleArg(0)
		fn.AngleY, err2 = angleArg(1)
	case "skewx":
		fn.Kind = style.TransformSkew
		fn.Angle, err = angleArg(0)
	case "skewy":
		fn.Kind = style.TransformSkew
		fn.AngleY, err = angleArg(0)
	case "matrix":
		if len(args) != 6 {
			return fn, errInvalidValue
		}
		var m [6]float32
		for i := range m {
			if m[i], err = numberArg(i, 0); err != nil {
				return fn, err
			}
		}
		fn.Kind = style.TransformMatrix
		fn.Matrix = geom.Matrix{A: m[0], B: m[1], C: m[2], D: m[3], E: m[4], F: m[5]}
	default:
		return fn, errUnknownProperty
	}
	return fn, errors.Join(err, err2)
}

func transformOriginInto(u units, v string, st *style.ComputedStyle) error {
	f := fields(v)
	if len(f) == 0 || len(f) > 3 {
		return errInvalidValue
	}
	origin := [2]style.Length{style.Percent(50), style.Percent(50)}
	for i, part := range f[:min(len(f), 2)] {
		switch part {
		case "center":
			continue
		case "left":
			origin[0] = style.Percent(0)
			continue
		case "right":
			origin[0] = style.Percent(100)
			continue
		case "top":
			origin[1] = style.Percent(0)
			continue
		case "bottom":
			origin[1] = style.Percent(100)
			continue
		}
		l, ok := u.length(part)
		if !ok || l.IsAuto() || l.IsNone() {
			return errInvalidValue
		}
		origin[i] = l
	}
	st.TransformOrigin = origin
	return nil
}

// imageInto resolves url() through the image loader.
func (c *computer) imageInto(v string, dst *style.ImageHandle) error {
	src, ok := url(v)
	if !ok {
		return errInvalidValue
	}
	h, err := c.image(src)
	if err != nil {
		return err
	}
	*dst = h
	return nil
}

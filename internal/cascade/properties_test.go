package cascade

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// applyAll runs declarations through a computer with no image loader.
func applyAll(t *testing.T, decls map[string]string) *style.ComputedStyle {
	t.Helper()
	c := newComputer(Options{Viewport: geom.Size{W: 800, H: 600}})
	st := style.Initial()
	u := units{em: st.FontSize, rem: st.FontSize, viewport: c.opts.Viewport}
	for prop, value := range decls {
		require.NoError(t, c.apply(st, nil, declaration{property: prop, value: value}, u), prop)
	}
	return st
}

func TestBoxProperties(t *testing.T) {
	st := applyAll(t, map[string]string{
		"display":       "inline-block",
		"position":      "absolute",
		"margin":        "1px 2px 3px",
		"padding":       "10%",
		"border-radius": "4px 8px",
		"overflow":      "hidden auto",
		"z-index":       "-3",
		"box-sizing":    "border-box",
	})
	assert.Equal(t, style.DisplayInlineBlock, st.Display)
	assert.Equal(t, style.PositionAbsolute, st.Position)
	assert.Equal(t, style.Px(1), st.Margin.Top)
	assert.Equal(t, style.Px(2), st.Margin.Right)
	assert.Equal(t, style.Px(3), st.Margin.Bottom)
	assert.Equal(t, style.Px(2), st.Margin.Left)
	assert.Equal(t, style.Percent(10), st.Padding.Left)
	assert.Equal(t, style.Radii{4, 8, 4, 8}, st.Radius)
	assert.Equal(t, style.OverflowHidden, st.OverflowX)
	assert.Equal(t, style.OverflowAuto, st.OverflowY)
	assert.Equal(t, style.ZIndex{Value: -3}, st.ZIndex)
	assert.Equal(t, style.BorderBox, st.BoxSizing)
}

func TestFlexShorthand(t *testing.T) {
	st := applyAll(t, map[string]string{"flex": "2 3 40px"})
	assert.Equal(t, float32(2), st.FlexGrow)
	assert.Equal(t, float32(3), st.FlexShrink)
	assert.Equal(t, style.Px(40), st.FlexBasis)

	st = applyAll(t, map[string]string{"flex": "1"})
	assert.Equal(t, float32(1), st.FlexGrow)
	assert.Equal(t, style.Px(0), st.FlexBasis)

	st = applyAll(t, map[string]string{"flex": "none"})
	assert.Zero(t, st.FlexGrow)
	assert.Zero(t, st.FlexShrink)
}

func TestBoxShadows(t *testing.T) {
	st := applyAll(t, map[string]string{"box-shadow": "1px 2px 3px red, inset 0 0 4px 5px rgba(0,0,0,0.5)"})
	require.Len(t, st.BoxShadows, 2)
	assert.Equal(t, style.BoxShadow{OffsetX: 1, OffsetY: 2, Blur: 3, Color: style.Color{R: 255, A: 255}}, st.BoxShadows[0])
	assert.True(t, st.BoxShadows[1].Inset)
	assert.Equal(t, float32(5), st.BoxShadows[1].Spread)
}

func TestTransforms(t *testing.T) {
	st := applyAll(t, map[string]string{
		"transform":        "translate(10px, 50%) rotate(90deg) scale(2) matrix(1, 0, 0, 1, 5, 6)",
		"transform-origin": "left top",
	})
	require.Len(t, st.Transform, 4)
	assert.Equal(t, style.TransformTranslate, st.Transform[0].Kind)
	assert.Equal(t, style.Px(10), st.Transform[0].X)
	assert.Equal(t, style.Percent(50), st.Transform[0].Y)
	assert.InDelta(t, math.Pi/2, st.Transform[1].Angle, 1e-5)
	assert.Equal(t, float32(2), st.Transform[2].SY)
	assert.Equal(t, geom.Matrix{A: 1, D: 1, E: 5, F: 6}, st.Transform[3].Matrix)
	assert.Equal(t, [2]style.Length{style.Percent(0), style.Percent(0)}, st.TransformOrigin)
}

func TestTextProperties(t *testing.T) {
	st := applyAll(t, map[string]string{
		"font-weight":    "bolder",
		"line-height":    "1.4",
		"text-align":     "justify",
		"letter-spacing": "2px",
		"white-space":    "pre-wrap",
		"writing-mode":   "vertical-rl",
	})
	assert.Equal(t, uint16(700), st.FontWeight)
	assert.Equal(t, style.LineHeight{Kind: style.LineHeightNumber, Value: 1.4}, st.LineHeight)
	assert.Equal(t, style.TextAlignJustify, st.TextAlign)
	assert.Equal(t, float32(2), st.LetterSpacing)
	assert.Equal(t, geom.VerticalRL, st.WritingMode)
}

func TestInvalidDeclarations(t *testing.T) {
	c := newComputer(Options{})
	st := style.Initial()
	u := units{em: 16, rem: 16}
	for prop, value := range map[string]string{
		"width":            "wide",
		"color":            "#zzz",
		"display":          "grid-ish",
		"z-index":          "1.5",
		"box-shadow":       "1px",
		"transform":        "spin(1turn)",
		"background-image": "url(a.png)",
	} {
		assert.Error(t, c.apply(st, nil, declaration{property: prop, value: value}, u), prop)
	}
	assert.ErrorIs(t, c.apply(st, nil, declaration{property: "grid-template", value: "none"}, u), errUnknownProperty)
	assert.Equal(t, style.Initial(), st, "failed declarations leave the style untouched")
}

package cascade

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

func TestCompileSelector(t *testing.T) {
	tests := []struct {
		src    string
		xpath  string
		spec   Specificity
		pseudo string
	}{
		{"p", "//p", Specificity{0, 0, 1}, ""},
		{"*", "//*", Specificity{}, ""},
		{"div p", "//div//p", Specificity{0, 0, 2}, ""},
		{"ul > li", "//ul/li", Specificity{0, 0, 2}, ""},
		{"ul>li", "//ul/li", Specificity{0, 0, 2}, ""},
		{"#main", "//*[@id='main']", Specificity{1, 0, 0}, ""},
		{"a[href]", "//a[@href]", Specificity{0, 1, 1}, ""},
		{"input[type=text]", "//input[@type='text']", Specificity{0, 1, 1}, ""},
		{"li:first-child", "//li[not(preceding-sibling::*)]", Specificity{0, 1, 1}, ""},
		{":root", "//*[not(parent::*)]", Specificity{0, 1, 0}, ""},
		{"p::before", "//p", Specificity{0, 0, 1}, "before"},
		{"p:after", "//p", Specificity{0, 0, 1}, "after"},
		{".a.b", "//*[contains(concat(' ', normalize-space(@class), ' '), ' a ')]" +
			"[contains(concat(' ', normalize-space(@class), ' '), ' b ')]", Specificity{0, 2, 0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			sel, err := CompileSelector(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.xpath, sel.XPath)
			assert.Equal(t, tt.spec, sel.Specificity)
			assert.Equal(t, tt.pseudo, sel.Pseudo)
		})
	}
}

func TestCompileSelectorRejects(t *testing.T) {
	for _, src := range []string{"", "a:hover", "p + p", "> p", "p >", "p::marker", "a[href", ".", "p ~ p"} {
		_, err := CompileSelector(src)
		assert.Error(t, err, src)
	}
}

func TestSpecificityLess(t *testing.T) {
	assert.True(t, Specificity{0, 0, 9}.Less(Specificity{0, 1, 0}))
	assert.True(t, Specificity{0, 9, 9}.Less(Specificity{1, 0, 0}))
	assert.False(t, Specificity{0, 1, 0}.Less(Specificity{0, 1, 0}))
}

func TestParseStylesheet(t *testing.T) {
	sheet := ParseStylesheet(`
		/* comment { not: a rule } */
		@import url(other.css);
		@media screen { p { color: red } }
		h1, h2:hover, h3 { margin: 0; color: blue !important; ; bogus }
		p { }
	`)
	require.Len(t, sheet.Rules, 2)
	assert.Empty(t, sheet.Rules[1].declarations)
	rule := sheet.Rules[0]
	require.Len(t, rule.Selectors, 2)
	assert.Equal(t, "h1", rule.Selectors[0].Source)
	assert.Equal(t, "h3", rule.Selectors[1].Source)
	assert.Len(t, sheet.Skipped, 1)

	require.Len(t, rule.declarations, 2)
	assert.Equal(t, declaration{property: "margin", value: "0"}, rule.declarations[0])
	assert.Equal(t, declaration{property: "color", value: "blue", important: true}, rule.declarations[1])
}

func TestUserAgentSheetCompiles(t *testing.T) {
	sheet := ParseStylesheet(userAgentCSS)
	assert.Empty(t, sheet.Skipped)
	assert.NotEmpty(t, sheet.Rules)
}

func TestLengths(t *testing.T) {
	u := units{em: 10, rem: 16, viewport: geom.Size{W: 200, H: 100}}
	tests := []struct {
		in   string
		want style.Length
		ok   bool
	}{
		{"auto", style.Auto, true},
		{"0", style.Px(0), true},
		{"12px", style.Px(12), true},
		{"2em", style.Px(20), true},
		{"1.5rem", style.Px(24), true},
		{"50%", style.Percent(50), true},
		{"10vw", style.Px(20), true},
		{"10vh", style.Px(10), true},
		{"1in", style.Px(96), true},
		{"12", style.Length{}, false},
		{"px", style.Length{}, false},
	}
	for _, tt := range tests {
		got, ok := u.length(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want.Unit, got.Unit, tt.in)
			assert.InDelta(t, tt.want.Value, got.Value, 0.001, tt.in)
		}
	}
}

func TestColors(t *testing.T) {
	current := style.Color{R: 1, G: 2, B: 3, A: 255}
	tests := []struct {
		in   string
		want style.Color
		ok   bool
	}{
		{"red", style.Color{R: 255, A: 255}, true},
		{"#0f0", style.Color{G: 255, A: 255}, true},
		{"#11223380", style.Color{R: 0x11, G: 0x22, B: 0x33, A: 0x80}, true},
		{"rgb(10, 20, 30)", style.Color{R: 10, G: 20, B: 30, A: 255}, true},
		{"rgba(10, 20, 30, 0.5)", style.Color{R: 10, G: 20, B: 30, A: 128}, true},
		{"rgb(100% 0% 0% / 50%)", style.Color{R: 255, A: 128}, true},
		{"currentColor", current, true},
		{"#12345", style.Color{}, false},
		{"rgb(1, 2)", style.Color{}, false},
		{"chartreuse-ish", style.Color{}, false},
	}
	for _, tt := range tests {
		got, ok := color(tt.in, current)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAngles(t *testing.T) {
	for in, want := range map[string]float64{
		"90deg":   math.Pi / 2,
		"200grad": math.Pi,
		"0.5turn": math.Pi,
		"1rad":    1,
		"0":       0,
	} {
		got, ok := angle(in)
		require.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-5, in)
	}
	_, ok := angle("90")
	assert.False(t, ok)
}

func TestFieldsRespectsParensAndQuotes(t *testing.T) {
	assert.Equal(t, []string{"rotate(10deg)", "translate(1px, 2px)"}, fields("rotate(10deg)  translate(1px, 2px)"))
	assert.Equal(t, []string{`"a b"`, "c"}, fields(`"a b" c`))
	assert.Equal(t, []string{"a", " b(c;d)"}, splitTop("a; b(c;d)", ';'))
}

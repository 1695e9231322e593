package cascade

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

var (
	red    = style.Color{R: 255, A: 255}
	green  = style.Color{G: 128, A: 255}
	blue   = style.Color{B: 255, A: 255}
	yellow = style.Color{R: 255, G: 255, A: 255}
)

func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseHTML(strings.NewReader(src), Options{
		Viewport: geom.Size{W: 800, H: 600},
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return doc
}

func byID(t *testing.T, doc *Document, id string) tree.NodeID {
	t.Helper()
	n, ok := doc.ElementByID(id)
	require.True(t, ok, "element #%s", id)
	return n
}

type fakeLoader struct {
	paths []string
}

func (f *fakeLoader) RegisterFile(path string) (style.ImageHandle, error) {
	if strings.Contains(path, "missing") {
		return 0, errors.New("not found")
	}
	f.paths = append(f.paths, path)
	return style.ImageHandle(len(f.paths)), nil
}

func TestParseHTMLBuildsStyledTree(t *testing.T) {
	doc := parse(t, `<html><head><title>x</title><style>p { margin: 4px 0 }</style></head>`+
		`<body><p id="a">Hi</p><script>var x</script></body></html>`)
	tr := doc.Tree

	root := tr.Root()
	assert.Equal(t, "html", tr.Node(root).Tag)
	assert.Equal(t, style.DisplayBlock, tr.Style(root).Display)

	kids := tr.Children(root)
	require.Len(t, kids, 1, "head is not rendered")
	body := kids[0]
	assert.Equal(t, "body", tr.Node(body).Tag)
	assert.Equal(t, style.Px(8), tr.Style(body).Margin.Top)

	p := byID(t, doc, "a")
	assert.Equal(t, []tree.NodeID{p}, tr.Children(body), "script is dropped")
	assert.Equal(t, style.Px(4), tr.Style(p).Margin.Top)
	assert.Equal(t, style.Px(0), tr.Style(p).Margin.Left)

	text := tr.Children(p)
	require.Len(t, text, 1)
	assert.Equal(t, tree.KindText, tr.Node(text[0]).Kind)
	assert.Equal(t, "Hi", tr.Node(text[0]).Text)
}

func TestParseHTMLRejectsEmptyInput(t *testing.T) {
	_, err := ParseHTML(strings.NewReader("  \n\t"), Options{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestCascadeOrder(t *testing.T) {
	tests := []struct {
		name   string
		css    string
		inline string
		want   style.Color
	}{
		{"type selector", `p { color: red }`, "", red},
		{"later rule wins", `p { color: red } p { color: blue }`, "", blue},
		{"class beats type", `.note { color: blue } p { color: red }`, "", blue},
		{"id beats class", `#a { color: green } .note { color: blue }`, "", green},
		{"inline beats id", `#a { color: green }`, "color: yellow", yellow},
		{"important beats inline", `p { color: red !important }`, "color: yellow", red},
		{"inline important wins", `#a { color: red !important }`, "color: blue !important", blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `<html><head><style>` + tt.css + `</style></head><body>` +
				`<p id="a" class="note" style="` + tt.inline + `">x</p></body></html>`
			doc := parse(t, src)
			st := doc.Tree.Style(byID(t, doc, "a"))
			assert.Equal(t, tt.want, st.Color)
		})
	}
}

func TestPresentationalHintsLoseToAuthorRules(t *testing.T) {
	doc := parse(t, `<html><head><style>#b { direction: ltr }</style></head><body>`+
		`<div id="a" dir="rtl" lang="ar"><span id="s">x</span></div><div id="b" dir="rtl"></div>`+
		`<div id="h" hidden></div></body></html>`)
	a := doc.Tree.Style(byID(t, doc, "a"))
	assert.Equal(t, style.RTL, a.Direction)
	assert.Equal(t, "ar", a.Language)

	s := doc.Tree.Style(byID(t, doc, "s"))
	assert.Equal(t, style.RTL, s.Direction, "direction inherits")
	assert.Equal(t, "ar", s.Language, "language inherits")

	assert.Equal(t, style.LTR, doc.Tree.Style(byID(t, doc, "b")).Direction)
	assert.Equal(t, style.DisplayNone, doc.Tree.Style(byID(t, doc, "h")).Display)
}

func TestRelativeFontSizes(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(`<html><head><style>
		html { font-size: 20px }
		#outer { font-size: 1.5em; padding-left: 2em }
		#inner { font-size: 50%; margin-top: 1rem; width: 10vw }
	</style></head><body><div id="outer"><div id="inner"></div></div></body></html>`),
		Options{Viewport: geom.Size{W: 1000, H: 500}, DefaultFontSize: 12, LineHeightFactor: 1.5})
	require.NoError(t, err)

	root := doc.Tree.Style(doc.Tree.Root())
	assert.InDelta(t, 20, root.FontSize, 0.001)
	assert.Equal(t, style.LineHeight{Kind: style.LineHeightNumber, Value: 1.5}, root.LineHeight)

	outer := doc.Tree.Style(byID(t, doc, "outer"))
	assert.InDelta(t, 30, outer.FontSize, 0.001)
	assert.InDelta(t, 60, outer.Padding.Left.Value, 0.001, "em uses the element's own font size")

	inner := doc.Tree.Style(byID(t, doc, "inner"))
	assert.InDelta(t, 15, inner.FontSize, 0.001)
	assert.InDelta(t, 20, inner.Margin.Top.Value, 0.001, "rem uses the root font size")
	assert.InDelta(t, 100, inner.Width.Value, 0.001)
}

func TestCurrentColorFollowsColorDeclaration(t *testing.T) {
	doc := parse(t, `<html><head><style>
		#a { border: 2px solid; color: red }
	</style></head><body><div id="a"></div></body></html>`)
	st := doc.Tree.Style(byID(t, doc, "a"))
	assert.Equal(t, red, st.Border.Top.Color)
	assert.InDelta(t, 2, st.Border.Left.Width, 0.001)
}

func TestGeneratedContent(t *testing.T) {
	loader := &fakeLoader{}
	doc, err := ParseHTML(strings.NewReader(`<html><head><style>
		q::before { content: "» " "["; color: blue }
		q:after { content: url(mark.png) }
		p::before { content: none }
	</style></head><body><q id="q">x</q><p id="p">y</p></body></html>`),
		Options{Images: loader, BaseDir: "/assets"})
	require.NoError(t, err)

	q := doc.Tree.Style(byID(t, doc, "q"))
	require.NotNil(t, q.Before)
	assert.Equal(t, "» [", q.Before.Text)
	assert.Equal(t, blue, q.Before.Style.Color)
	require.NotNil(t, q.After)
	assert.Equal(t, style.ImageHandle(1), q.After.Image)
	assert.Equal(t, []string{"/assets/mark.png"}, loader.paths)

	assert.Nil(t, doc.Tree.Style(byID(t, doc, "p")).Before)
}

func TestImagesBecomeReplacedNodes(t *testing.T) {
	loader := &fakeLoader{}
	doc, err := ParseHTML(strings.NewReader(`<html><body>`+
		`<img id="a" src="a.png" width="40" height="30">`+
		`<img id="b" src="a.png">`+
		`<img id="c" src="missing.png">`+
		`<iframe id="f"></iframe></body></html>`),
		Options{Images: loader, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	a := doc.Tree.Node(byID(t, doc, "a"))
	assert.Equal(t, tree.KindReplaced, a.Kind)
	assert.Equal(t, tree.ReplacedImage, a.Replaced)
	assert.Equal(t, style.ImageHandle(1), a.Image)
	assert.Equal(t, style.Px(40), a.Style.Width)
	assert.Equal(t, style.Px(30), a.Style.Height)

	assert.Equal(t, style.ImageHandle(1), doc.Tree.Node(byID(t, doc, "b")).Image, "sources load once")
	assert.Len(t, loader.paths, 1)

	c := doc.Tree.Node(byID(t, doc, "c"))
	assert.Equal(t, tree.KindReplaced, c.Kind, "a missing image still lays out")
	assert.Zero(t, c.Image)

	assert.Equal(t, tree.ReplacedIframe, doc.Tree.Node(byID(t, doc, "f")).Replaced)
}

func TestSelectAndQuery(t *testing.T) {
	doc := parse(t, `<html><body><ul id="list"><li class="x">1</li><li>2</li><li class="x y">3</li></ul>`+
		`<script>ignored</script></body></html>`)

	ids, err := doc.Query("ul > li.x")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = doc.Select("//li[last()]")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "li", doc.Tree.Node(ids[0]).Tag)

	ids, err = doc.Select("//script")
	require.NoError(t, err)
	assert.Empty(t, ids, "unrendered elements are not selectable")

	_, err = doc.Select("//li[")
	assert.Error(t, err)
	_, err = doc.Query("li::before")
	assert.Error(t, err)
}

func TestSetInlineStyleRestylesSubtree(t *testing.T) {
	doc := parse(t, `<html><head><style>#c { color: blue }</style></head><body>`+
		`<div id="a"><p id="b">text</p><p id="c">more</p></div></body></html>`)
	a, b, c := byID(t, doc, "a"), byID(t, doc, "b"), byID(t, doc, "c")
	gen := doc.Tree.Generation()

	require.NoError(t, doc.SetInlineStyle(a, "color: red; font-size: 20px"))
	assert.Greater(t, doc.Tree.Generation(), gen)
	assert.Equal(t, red, doc.Tree.Style(a).Color)
	assert.Equal(t, red, doc.Tree.Style(b).Color)
	assert.InDelta(t, 20, doc.Tree.Style(b).FontSize, 0.001)
	text := doc.Tree.Children(b)[0]
	assert.Equal(t, red, doc.Tree.Style(text).Color)
	assert.Equal(t, blue, doc.Tree.Style(c).Color, "author rules still apply below")
	assert.Contains(t, doc.HTML(), `style="color: red; font-size: 20px"`)

	require.NoError(t, doc.SetInlineStyle(a, ""))
	assert.Equal(t, style.Black, doc.Tree.Style(b).Color)

	assert.Error(t, doc.SetInlineStyle(text, "color: red"))
}

func TestSetText(t *testing.T) {
	doc := parse(t, `<html><body><p id="a">old</p></body></html>`)
	p := byID(t, doc, "a")
	text := doc.Tree.Children(p)[0]

	require.NoError(t, doc.SetText(text, "new"))
	assert.Equal(t, "new", doc.Tree.Node(text).Text)
	assert.Contains(t, doc.HTML(), "<p id=\"a\">new</p>")
	assert.Error(t, doc.SetText(p, "nope"))
}

func TestExtraCSSAppliesAfterDocumentSheets(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(`<html><head><style>p { color: red }</style></head>`+
		`<body><p id="a">x</p></body></html>`), Options{ExtraCSS: "p { color: blue } @media print { p { color: green } }"})
	require.NoError(t, err)
	assert.Equal(t, blue, doc.Tree.Style(byID(t, doc, "a")).Color)
}

func TestUnsupportedSelectorsAreReported(t *testing.T) {
	doc := parse(t, `<html><head><style>a:hover { color: red } p + p { color: red } p { color: blue }</style></head>`+
		`<body><p id="a">x</p></body></html>`)
	assert.NotEmpty(t, doc.Skipped)
	assert.Equal(t, blue, doc.Tree.Style(byID(t, doc, "a")).Color)
}

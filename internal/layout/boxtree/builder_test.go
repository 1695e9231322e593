package boxtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

func block() *style.ComputedStyle {
	s := style.Initial()
	s.Display = style.DisplayBlock
	return s
}

func withDisplay(d style.Display) *style.ComputedStyle {
	s := style.Initial()
	s.Display = d
	return s
}

func TestMixedContentGetsAnonymousBlock(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	txt := st.AddText("hello", nil)
	p := st.AddElement("p", block())
	st.AppendChild(root, txt)
	st.AppendChild(root, p)

	lt := Build(st, nil)
	kids := lt.Children(root)
	require.Len(t, kids, 2)
	wrap := lt.Box(kids[0])
	assert.Equal(t, tree.KindAnonymous, wrap.Kind)
	assert.Equal(t, tree.AnonBlockWrapper, wrap.Anonymous)
	assert.Equal(t, RoleBlock, wrap.Role)
	assert.Equal(t, []tree.NodeID{txt}, lt.Children(kids[0]))
	assert.Equal(t, p, kids[1])
	assert.GreaterOrEqual(t, int(kids[0]), lt.StyledLen)
	assert.Equal(t, root, wrap.Source)
}

func TestWhitespaceBetweenBlocksIsDropped(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	a := st.AddElement("p", block())
	ws := st.AddText("\n   ", nil)
	b := st.AddElement("p", block())
	st.AppendChild(root, a)
	st.AppendChild(root, ws)
	st.AppendChild(root, b)

	lt := Build(st, nil)
	assert.Equal(t, []tree.NodeID{a, b}, lt.Children(root))
	assert.Equal(t, lt.StyledLen, lt.Len(), "no anonymous boxes expected")
}

func TestPreservedWhitespaceIsWrapped(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	a := st.AddElement("p", block())
	pre := style.Initial()
	pre.WhiteSpace = style.WhiteSpacePre
	ws := st.AddText("   ", pre)
	st.AppendChild(root, a)
	st.AppendChild(root, ws)

	lt := Build(st, nil)
	require.Len(t, lt.Children(root), 2)
	assert.Equal(t, tree.KindAnonymous, lt.Box(lt.Children(root)[1]).Kind)
}

func TestDisplayNoneAndColumnsProduceNoBox(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	hidden := st.AddElement("p", withDisplay(style.DisplayNone))
	inner := st.AddText("gone", nil)
	st.AppendChild(hidden, inner)
	st.AppendChild(root, hidden)

	lt := Build(st, nil)
	assert.Empty(t, lt.Children(root))
	assert.False(t, lt.Present(hidden))
	assert.False(t, lt.Present(inner))
}

func TestTableFixup(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	cell := st.AddElement("td", withDisplay(style.DisplayTableCell))
	txt := st.AddText("x", nil)
	st.AppendChild(cell, txt)
	st.AppendChild(root, cell)

	lt := Build(st, nil)
	kids := lt.Children(root)
	require.Len(t, kids, 1)
	table := lt.Box(kids[0])
	assert.Equal(t, RoleTable, table.Role)
	assert.Equal(t, InnerTable, table.Inner)
	assert.Equal(t, tree.AnonTable, table.Anonymous)

	groups := lt.Children(kids[0])
	require.Len(t, groups, 1)
	assert.Equal(t, RoleTableRowGroup, lt.Box(groups[0]).Role)
	rows := lt.Children(groups[0])
	require.Len(t, rows, 1)
	assert.Equal(t, RoleTableRow, lt.Box(rows[0]).Role)
	assert.Equal(t, []tree.NodeID{cell}, lt.Children(rows[0]))
	assert.Equal(t, rows[0], lt.Box(cell).Parent)
}

func TestTableWrapsLooseContentInCell(t *testing.T) {
	st := tree.New()
	root := st.AddElement("table", withDisplay(style.DisplayTable))
	row := st.AddElement("tr", withDisplay(style.DisplayTableRow))
	txt := st.AddText("loose", nil)
	st.AppendChild(root, row)
	st.AppendChild(row, txt)

	lt := Build(st, nil)
	groups := lt.Children(root)
	require.Len(t, groups, 1)
	assert.Equal(t, []tree.NodeID{row}, lt.Children(groups[0]))
	cells := lt.Children(row)
	require.Len(t, cells, 1)
	assert.Equal(t, RoleTableCell, lt.Box(cells[0]).Role)
	assert.Equal(t, []tree.NodeID{txt}, lt.Children(cells[0]))
}

func TestFlexItemsAreBlockified(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", withDisplay(style.DisplayFlex))
	span := st.AddElement("span", nil)
	txt := st.AddText("loose text", nil)
	st.AppendChild(root, span)
	st.AppendChild(root, txt)

	lt := Build(st, nil)
	kids := lt.Children(root)
	require.Len(t, kids, 2)
	assert.Equal(t, RoleBlock, lt.Box(span).Role)
	assert.Equal(t, tree.AnonBlockWrapper, lt.Box(kids[1]).Anonymous)
	assert.Equal(t, []tree.NodeID{txt}, lt.Children(kids[1]))
}

func TestOutOfFlowContainingBlocks(t *testing.T) {
	st := tree.New()
	root := st.AddElement("html", block())
	rel := block()
	rel.Position = style.PositionRelative
	outer := st.AddElement("div", rel)
	mid := st.AddElement("div", block())
	abs := block()
	abs.Position = style.PositionAbsolute
	a := st.AddElement("div", abs)
	fix := block()
	fix.Position = style.PositionFixed
	f := st.AddElement("div", fix)
	st.AppendChild(root, outer)
	st.AppendChild(outer, mid)
	st.AppendChild(mid, a)
	st.AppendChild(mid, f)

	lt := Build(st, nil)
	assert.Equal(t, outer, lt.Box(a).ContainingBlock)
	assert.Equal(t, []tree.NodeID{a}, lt.Box(outer).Positioned)
	assert.Equal(t, tree.None, lt.Box(f).ContainingBlock)
	assert.Equal(t, []tree.NodeID{f}, lt.Viewport)
	// Placeholders stay in the flow child list.
	assert.Equal(t, []tree.NodeID{a, f}, lt.Children(mid))
	assert.True(t, lt.Box(a).IsOutOfFlow())
}

func TestTransformCapturesFixedDescendants(t *testing.T) {
	st := tree.New()
	root := st.AddElement("html", block())
	tf := block()
	tf.Transform = []style.TransformFunc{{Kind: style.TransformTranslate, X: style.Px(5)}}
	host := st.AddElement("div", tf)
	fix := block()
	fix.Position = style.PositionFixed
	f := st.AddElement("div", fix)
	st.AppendChild(root, host)
	st.AppendChild(host, f)

	lt := Build(st, nil)
	assert.Equal(t, host, lt.Box(f).ContainingBlock)
	assert.Empty(t, lt.Viewport)
}

func TestPseudoElements(t *testing.T) {
	st := tree.New()
	s := block()
	s.Before = &style.Generated{Text: "» "}
	s.After = &style.Generated{Text: ""}
	root := st.AddElement("p", s)
	txt := st.AddText("body", nil)
	st.AppendChild(root, txt)

	lt := Build(st, nil)
	kids := lt.Children(root)
	require.Len(t, kids, 2)
	before := lt.Box(kids[0])
	assert.Equal(t, tree.AnonPseudoBefore, before.Anonymous)
	assert.Equal(t, RoleInline, before.Role)
	gen := lt.Children(kids[0])
	require.Len(t, gen, 1)
	assert.Equal(t, "» ", lt.Box(gen[0]).Text)
	assert.Equal(t, txt, kids[1])
}

func TestBlockInsideInlineBecomesBlock(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	span := st.AddElement("span", nil)
	p := st.AddElement("p", block())
	st.AppendChild(root, span)
	st.AppendChild(span, p)

	c := diag.NewCollector(nil)
	lt := Build(st, c)
	assert.Equal(t, RoleBlock, lt.Box(span).Role)
	assert.True(t, c.Has(diag.CodeUnsupported))
}

func TestRootIsBlockified(t *testing.T) {
	st := tree.New()
	root := st.AddElement("span", nil)
	lt := Build(st, nil)
	assert.Equal(t, root, lt.Root)
	assert.Equal(t, RoleBlock, lt.Box(root).Role)
}

func TestLineBreakRole(t *testing.T) {
	st := tree.New()
	root := st.AddElement("p", block())
	br := st.AddElement("br", nil)
	st.AppendChild(root, br)
	lt := Build(st, nil)
	assert.Equal(t, RoleLineBreak, lt.Box(br).Role)
}

func TestCyclicInputTerminates(t *testing.T) {
	st := tree.New()
	root := st.AddElement("div", block())
	a := st.AddElement("p", block())
	st.AppendChild(root, a)
	// a lists root as its own child.
	st.SetLinksUnchecked(a, root, root, root, tree.None, tree.None)

	c := diag.NewCollector(nil)
	lt := Build(st, c)
	assert.Equal(t, []tree.NodeID{a}, lt.Children(root))
	assert.Empty(t, lt.Children(a))
	assert.True(t, c.Has(diag.CodeInvalidTree))
}

func TestEmptyTree(t *testing.T) {
	lt := Build(tree.New(), nil)
	assert.Equal(t, tree.None, lt.Root)
	assert.Zero(t, lt.Len())
}

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

func TestAppendAndInsert(t *testing.T) {
	tr := New()
	root := tr.AddElement("div", nil)
	a := tr.AddElement("p", nil)
	b := tr.AddElement("p", nil)
	c := tr.AddText("hi", nil)

	tr.AppendChild(root, a)
	tr.AppendChild(root, b)
	tr.InsertBefore(root, c, b)

	assert.Equal(t, root, tr.Root())
	assert.Equal(t, []NodeID{a, c, b}, tr.Children(root))
	assert.Equal(t, root, tr.Node(c).Parent)
	assert.Empty(t, tr.Validate())
}

func TestMoveDetachesFromOldParent(t *testing.T) {
	tr := New()
	root := tr.AddElement("div", nil)
	x := tr.AddElement("section", nil)
	y := tr.AddElement("span", nil)
	tr.AppendChild(root, x)
	tr.AppendChild(x, y)

	tr.AppendChild(root, y)
	assert.Empty(t, tr.Children(x))
	assert.Equal(t, []NodeID{x, y}, tr.Children(root))
}

func TestMutationsBumpVersions(t *testing.T) {
	tr := New()
	root := tr.AddElement("div", nil)
	txt := tr.AddText("a", nil)
	tr.AppendChild(root, txt)

	gen := tr.Generation()
	v := tr.Node(txt).Version
	tr.SetText(txt, "b")
	assert.Greater(t, tr.Node(txt).Version, v)
	assert.Greater(t, tr.Generation(), gen)

	tr.SetStyle(root, style.Initial())
	assert.Equal(t, "b", tr.Node(txt).Text)
}

func TestValidateFindsDefects(t *testing.T) {
	tr := New()
	root := tr.AddElement("div", nil)
	txt := tr.AddText("a", nil)
	kid := tr.AddElement("b", nil)
	tr.AppendChild(root, txt)
	tr.SetLinksUnchecked(txt, root, kid, kid, None, None)
	tr.SetLinksUnchecked(kid, txt, None, None, None, None)

	problems := tr.Validate()
	require.NotEmpty(t, problems)
	assert.Equal(t, ProblemTextWithChildren, problems[0].Kind)

	cyc := New()
	r := cyc.AddElement("div", nil)
	d := cyc.AddElement("div", nil)
	cyc.AppendChild(r, d)
	cyc.SetLinksUnchecked(d, r, r, r, None, None)
	problems = cyc.Validate()
	require.NotEmpty(t, problems)
	assert.Equal(t, ProblemCycle, problems[0].Kind)
}

func TestFindByElementID(t *testing.T) {
	tr := New()
	root := tr.AddElement("div", nil)
	tr.SetElementID(root, "main")
	id, ok := tr.FindByElementID("main")
	assert.True(t, ok)
	assert.Equal(t, root, id)
	_, ok = tr.FindByElementID("nope")
	assert.False(t, ok)
}

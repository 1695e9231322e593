package layout

import (
	"image"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/trellis/internal/fonts"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// fakeImages serves fixed intrinsic sizes without pixel data.
type fakeImages map[style.ImageHandle]geom.Size

func (f fakeImages) IntrinsicSize(h style.ImageHandle) (geom.Size, bool) {
	sz, ok := f[h]
	return sz, ok
}

func (f fakeImages) RGBA(h style.ImageHandle) (*image.RGBA, bool) {
	sz, ok := f[h]
	if !ok {
		return nil, false
	}
	return image.NewRGBA(image.Rect(0, 0, int(sz.W), int(sz.H))), true
}

func newTestEngine(t *testing.T, images ImageProvider) *Engine {
	t.Helper()
	return NewEngine(fonts.NewFixed(0.5, 0.25), images, Options{
		Cache:           cache.Config{Enabled: true},
		DebugAssertions: true,
	}, zaptest.NewLogger(t))
}

func blockStyle(mut func(st *style.ComputedStyle)) *style.ComputedStyle {
	st := style.Initial()
	st.Display = style.DisplayBlock
	if mut != nil {
		mut(st)
	}
	return st
}

func sized(w, h float32) func(st *style.ComputedStyle) {
	return func(st *style.ComputedStyle) {
		st.Width, st.Height = style.Px(w), style.Px(h)
	}
}

// docBuilder assembles a styled tree with a block root.
type docBuilder struct {
	t    *tree.StyledTree
	root tree.NodeID
}

func newDoc(root *style.ComputedStyle) *docBuilder {
	t := tree.New()
	id := t.AddElement("html", root)
	return &docBuilder{t: t, root: id}
}

func (d *docBuilder) el(parent tree.NodeID, tag string, st *style.ComputedStyle) tree.NodeID {
	id := d.t.AddElement(tag, st)
	d.t.AppendChild(parent, id)
	return id
}

func (d *docBuilder) text(parent tree.NodeID, s string, st *style.ComputedStyle) tree.NodeID {
	if st == nil {
		st = style.InheritFrom(d.t.Style(parent))
	}
	id := d.t.AddText(s, st)
	d.t.AppendChild(parent, id)
	return id
}

func viewport(w, h float32) Viewport {
	return Viewport{Size: geom.Size{W: w, H: h}, Scale: 1}
}

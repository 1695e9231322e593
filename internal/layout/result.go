package layout

import (
	"image"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/diag"
	"github.com/xkilldash9x/trellis/internal/layout/display"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/hittest"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/text"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// Viewport is the area the document is laid out into. In paged mode the
// document is cut into pages of PageSize, or of Size when PageSize is zero.
type Viewport struct {
	Size     geom.Size `json:"size"`
	Scale    float32   `json:"scale"`
	Paged    bool      `json:"paged"`
	PageSize geom.Size `json:"page_size"`
}

// ImageProvider resolves image handles. Both methods must be safe to call
// repeatedly and return consistent answers during a pass.
type ImageProvider interface {
	IntrinsicSize(h style.ImageHandle) (geom.Size, bool)
	RGBA(h style.ImageHandle) (*image.RGBA, bool)
}

// PositionedRect is the used geometry of one box. Origin and Size are
// logical and relative to the content box of the nearest non-inline
// ancestor; Rect is the physical border box in document coordinates,
// before transforms.
type PositionedRect struct {
	Laid    bool              `json:"laid"`
	Origin  geom.LogicalPoint `json:"origin"`
	Size    geom.LogicalSize  `json:"size"`
	Margin  geom.LogicalEdges `json:"margin"`
	Border  geom.LogicalEdges `json:"border"`
	Padding geom.LogicalEdges `json:"padding"`
	Rect    geom.Rect         `json:"rect"`
	// Pieces are the physical border boxes of an inline box, one per line.
	Pieces []geom.Rect `json:"pieces,omitempty"`
	// Lines are the line boxes of a block container, in its content box
	// coordinates.
	Lines []text.LineBox `json:"-"`
	// Page is the page holding the start of the box in paged mode.
	Page int `json:"page"`
	// StackingContext is the root of the stacking context the box paints in.
	StackingContext tree.NodeID `json:"stacking_context"`

	wm geom.WritingMode
}

// BorderBox returns the physical border box.
func (r *PositionedRect) BorderBox() geom.Rect { return r.Rect }

// PaddingBox returns the physical padding box.
func (r *PositionedRect) PaddingBox() geom.Rect { return r.Rect.Inset(r.wm.EdgesToPhysical(r.Border)) }

// ContentBox returns the physical content box.
func (r *PositionedRect) ContentBox() geom.Rect {
	return r.PaddingBox().Inset(r.wm.EdgesToPhysical(r.Padding))
}

// MarginBox returns the physical margin box.
func (r *PositionedRect) MarginBox() geom.Rect { return r.Rect.Outset(r.wm.EdgesToPhysical(r.Margin)) }

// Overflow summarizes one scroll container: the size of its padding box
// against the extent of everything it contains.
type Overflow struct {
	Node       tree.NodeID `json:"node"`
	ClientSize geom.Size   `json:"client_size"`
	ScrollSize geom.Size   `json:"scroll_size"`
}

// Scrolls reports whether the content exceeds the client area on either
// axis.
func (o Overflow) Scrolls() bool {
	return o.ScrollSize.W > o.ClientSize.W+geom.Epsilon || o.ScrollSize.H > o.ClientSize.H+geom.Epsilon
}

// Fragment is the part of a box that falls on one page. Rect is in the
// page's coordinates.
type Fragment struct {
	Node tree.NodeID `json:"node"`
	Page int         `json:"page"`
	Rect geom.Rect   `json:"rect"`
}

// Page is one fragmentainer. Rect locates it in the display list's
// coordinates.
type Page struct {
	Index int       `json:"index"`
	Rect  geom.Rect `json:"rect"`
}

// Result is everything one layout pass produces.
type Result struct {
	// PassID identifies the pass in logs.
	PassID string
	// Rects is dense by NodeID, anonymous boxes included.
	Rects       []PositionedRect
	Tree        *boxtree.LayoutTree
	DisplayList *display.List
	Overflow    []Overflow
	HitTest     *hittest.Index
	Fragments   []Fragment
	Pages       []Page
	Messages    []diag.Message
	Stats       cache.Stats
	// DocumentSize is the physical size of the laid out document.
	DocumentSize geom.Size
}

// Rect returns the geometry of id.
func (r *Result) Rect(id tree.NodeID) (*PositionedRect, bool) {
	if r == nil || id < 0 || int(id) >= len(r.Rects) || !r.Rects[id].Laid {
		return nil, false
	}
	return &r.Rects[id], true
}

// Hit returns the topmost node at p in document coordinates.
func (r *Result) Hit(p geom.Point) (tree.NodeID, bool) {
	if r == nil {
		return tree.None, false
	}
	return r.HitTest.Hit(p)
}

// FragmentsOf returns the page fragments of id in page order.
func (r *Result) FragmentsOf(id tree.NodeID) []Fragment {
	var out []Fragment
	for _, f := range r.Fragments {
		if f.Node == id {
			out = append(out, f)
		}
	}
	return out
}

// PageList returns the display list items of one page, translated to the
// page's origin.
func (r *Result) PageList(page int) (*display.List, bool) {
	if page < 0 || page >= len(r.Pages) {
		return nil, false
	}
	return r.DisplayList.Window(r.Pages[page].Rect), true
}
